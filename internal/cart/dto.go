package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CartDTO is the cart as returned by every cart endpoint.
type CartDTO struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id"`
	Items     []CartItemDTO `json:"items"`
	ItemCount int           `json:"item_count"`
	Subtotal  types.Money   `json:"subtotal"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CartItemDTO is one cart line priced at the live product price.
type CartItemDTO struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   *CartProductDTO `json:"product,omitempty"`
	LineTotal types.Money     `json:"line_total"`
}

// CartProductDTO is the product summary embedded in a cart line.
type CartProductDTO struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Price    types.Money `json:"price"`
	Stock    int         `json:"stock"`
	IsActive bool        `json:"is_active"`
}

func FromModel(c *models.Cart) *CartDTO {
	if c == nil {
		return nil
	}
	subtotal := decimal.Zero
	count := 0
	items := make([]CartItemDTO, 0, len(c.Items))
	for _, item := range c.Items {
		line := CartItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if p := item.Product; p != nil {
			total := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.LineTotal = types.NewMoney(total)
			line.Product = &CartProductDTO{
				ID:       p.ID,
				Name:     p.Name,
				Price:    types.NewMoney(p.Price),
				Stock:    p.Stock,
				IsActive: p.IsActive,
			}
			subtotal = subtotal.Add(total)
		}
		count += item.Quantity
		items = append(items, line)
	}
	return &CartDTO{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     items,
		ItemCount: count,
		Subtotal:  types.NewMoney(subtotal),
		UpdatedAt: c.UpdatedAt,
	}
}
