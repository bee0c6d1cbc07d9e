package domain

// Cart is the shopping cart for the current identity context. Before login
// it is addressed by a locally generated code; after login the server owns
// the identity and the code is discarded.
type Cart struct {
	ID    int64      `json:"id"`
	Code  string     `json:"cart_code"`
	Items []CartItem `json:"items"`
}

// CartItem is a single line in the cart. The product snapshot is
// denormalized so the UI can render the line without a second lookup.
type CartItem struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   ProductSnapshot `json:"product"`
}

// ProductSnapshot carries the display fields of a product at the time it
// was added. Price is kept as the server's decimal string.
type ProductSnapshot struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	Price string `json:"price"`
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Item returns the line with the given ID, or nil.
func (c *Cart) Item(id int64) *CartItem {
	if c == nil {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}
