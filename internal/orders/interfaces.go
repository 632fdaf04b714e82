package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their children.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	FindByIDForUpdate(ctx context.Context, id int64) (*models.Order, error)
	FindDetail(ctx context.Context, id int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus, note *string) error
	List(ctx context.Context, filters ListFilters, limit int, cursor *pagination.Cursor) ([]models.Order, error)
}

// ListFilters narrows the order list. Nil fields are not applied.
type ListFilters struct {
	UserID *int64
	Status *enums.OrderStatus
}
