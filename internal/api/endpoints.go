package api

import "fmt"

// Resource paths of the remote storefront API, relative to the configured
// base URL.
const (
	PathAuthPrefix   = "/auth/"
	PathToken        = "/auth/token/"
	PathTokenRefresh = "/auth/token/refresh/"
	PathRegister     = "/auth/register/"
	PathLogout       = "/auth/logout/"
	PathProfile      = "/auth/profile/"

	PathCart       = "/cart/"
	PathCartMerge  = "/cart/merge/"
	PathCartAdd    = "/cart/add/"
	PathCartUpdate = "/cart/update/"
)

// PathCartItemDelete returns the delete path for a cart line.
func PathCartItemDelete(itemID int64) string {
	return fmt.Sprintf("/cart/item/%d/delete/", itemID)
}
