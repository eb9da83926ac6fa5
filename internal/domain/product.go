package domain

// Product is a read-only snapshot owned by the catalog store. Stock is
// mutated only by the backend; a held snapshot may go stale at any time.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Price       Money  `json:"price"`
	Stock       int    `json:"stock"`
}

// ProductDraft is the writable product shape used by admin create and
// update. The backend assigns the ID on create; update replaces every
// field.
type ProductDraft struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Price       Money  `json:"price"`
	Stock       int    `json:"stock"`
}

// Validate reports the first problem with the draft, if any.
func (d ProductDraft) Validate() error {
	switch {
	case d.Name == "":
		return NewFailure(FailureValidation, "invalid_name", "product name is required")
	case d.Category == "":
		return NewFailure(FailureValidation, "invalid_category", "product category is required")
	case d.Price.Amount.Sign() <= 0:
		return NewFailure(FailureValidation, "invalid_price", "price must be positive")
	case d.Stock < 0:
		return NewFailure(FailureValidation, "invalid_stock", "stock must not be negative")
	}
	return nil
}
