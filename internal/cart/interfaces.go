package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID int64) (*models.Cart, error)
	EnsureForUser(ctx context.Context, userID int64) (*models.Cart, error)
	ApplyDelta(ctx context.Context, cartID, productID int64, delta int) error
	SetQuantity(ctx context.Context, cartID, productID int64, quantity int) (bool, error)
	DeleteItem(ctx context.Context, cartID, productID int64) (bool, error)
	DeleteItems(ctx context.Context, cartID int64) error
	DeleteItemsByUser(ctx context.Context, userID int64) (int64, error)
	DeleteCart(ctx context.Context, cartID int64) error
}
