package domain

// CartLine is one row in a cart: one product, a quantity, and a denormalized
// unit price. Subtotal is always quantity * unit price; Normalize enforces it.
type CartLine struct {
	ID          string `json:"line_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   Money  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Subtotal    Money  `json:"subtotal"`
}

// Cart is the shopper's cart snapshot. At most one line per product; the
// backend merges quantities when an already-present product is added again.
type Cart struct {
	OwnerID    string     `json:"owner_id"`
	Lines      []CartLine `json:"lines"`
	Total      Money      `json:"total"`
	TotalItems int        `json:"total_items"`
}

func EmptyCart(ownerID string) Cart {
	return Cart{
		OwnerID:    ownerID,
		Lines:      []CartLine{},
		Total:      ZeroMoney(),
		TotalItems: 0,
	}
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c Cart) Line(lineID string) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.ID == lineID {
			return l, true
		}
	}
	return CartLine{}, false
}

func (c Cart) LineByProduct(productID int64) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// Normalize recomputes every line subtotal, the cart total and the item
// count from quantities and unit prices. Derived fields arriving on the
// wire are never trusted over this arithmetic.
func (c *Cart) Normalize() {
	if c.Lines == nil {
		c.Lines = []CartLine{}
	}

	total := ZeroMoney()
	items := 0
	for i := range c.Lines {
		line := &c.Lines[i]
		line.Subtotal = line.UnitPrice.Mul(line.Quantity)
		total = total.Add(line.Subtotal)
		items += line.Quantity
	}

	c.Total = total
	c.TotalItems = items
}

// Clone returns a deep copy so callers can hold a snapshot while the
// original keeps being replaced by server responses.
func (c Cart) Clone() Cart {
	out := c
	out.Lines = make([]CartLine, len(c.Lines))
	copy(out.Lines, c.Lines)
	return out
}
