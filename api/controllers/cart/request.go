package cart

import (
	"encoding/json"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// itemRequest is the body shared by the cart mutation routes. Quantity stays
// raw so validators.ParseQuantity owns its coercion rules.
type itemRequest struct {
	ProductID *int64          `json:"productId"`
	Quantity  json.RawMessage `json:"quantity,omitempty"`
}

func (r itemRequest) productID() (int64, error) {
	if r.ProductID == nil {
		return 0, pkgerrors.Validation("productId is required").WithDetails(map[string]any{"field": "productId"})
	}
	if *r.ProductID <= 0 {
		return 0, pkgerrors.Validation("invalid productId").WithDetails(map[string]any{"field": "productId"})
	}
	return *r.ProductID, nil
}

func (r itemRequest) hasQuantity() bool {
	return len(r.Quantity) > 0
}
