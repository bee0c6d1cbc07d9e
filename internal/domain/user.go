package domain

// User is the profile of the authenticated customer as returned by the
// remote API. The storefront never holds credentials, only this profile
// and the token pair issued for it.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
}

// DisplayName returns the name shown in the account header.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

// Tokens is the access/refresh credential pair issued at login.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
