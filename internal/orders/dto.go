package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CreateOrderInput is the checkout request after transport decoding.
type CreateOrderInput struct {
	UserID        int64
	TotalAmount   *types.Money
	PaymentMethod string
	Note          *string
	Items         []CreateOrderItem
}

// CreateOrderItem is one submitted line. Name and Price are the client's
// snapshot of the catalog entry and are optional.
type CreateOrderItem struct {
	ProductID int64
	Quantity  int
	Name      *string
	Price     *types.Money
}

// CreatedOrder is the checkout response payload.
type CreatedOrder struct {
	ID          int64             `json:"id"`
	OrderUUID   uuid.UUID         `json:"order_uuid"`
	TotalAmount types.Money       `json:"total_amount"`
	Status      enums.OrderStatus `json:"status"`
}

// UpdateStatusInput carries an admin status change.
type UpdateStatusInput struct {
	OrderID     int64
	Status      string
	Note        *string
	ActorUserID int64
}

// ListOrdersInput captures list filters and paging.
type ListOrdersInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// OrderList wraps one page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// OrderDTO is the order as returned to clients. Items are only present on detail reads.
type OrderDTO struct {
	ID          int64             `json:"id"`
	OrderUUID   uuid.UUID         `json:"order_uuid"`
	UserID      int64             `json:"user_id"`
	TotalAmount types.Money       `json:"total_amount"`
	Status      enums.OrderStatus `json:"status"`
	Note        *string           `json:"note,omitempty"`
	Items       []OrderItemDTO    `json:"items,omitempty"`
	Transaction *TransactionDTO   `json:"transaction,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// OrderItemDTO exposes the frozen line snapshot.
type OrderItemDTO struct {
	ID        int64       `json:"id"`
	ProductID int64       `json:"product_id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	Amount    types.Money `json:"amount"`
}

// TransactionDTO exposes the payment record.
type TransactionDTO struct {
	ID                int64                   `json:"id"`
	PaymentMethod     enums.PaymentMethod     `json:"payment_method"`
	PaymentMethodCode enums.PaymentMethodCode `json:"payment_method_code"`
	TotalAmount       types.Money             `json:"total_amount"`
	TransactionStatus enums.TransactionStatus `json:"transaction_status"`
	TrackingNumber    *string                 `json:"tracking_number,omitempty"`
}

func FromModel(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:          o.ID,
		OrderUUID:   o.OrderUUID,
		UserID:      o.UserID,
		TotalAmount: types.NewMoney(o.TotalAmount),
		Status:      o.Status,
		Note:        o.Note,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if len(o.Items) > 0 {
		dto.Items = make([]OrderItemDTO, 0, len(o.Items))
		for _, item := range o.Items {
			dto.Items = append(dto.Items, OrderItemDTO{
				ID:        item.ID,
				ProductID: item.ProductID,
				Name:      item.Name,
				Quantity:  item.Quantity,
				Amount:    types.NewMoney(item.Amount),
			})
		}
	}
	if t := o.Transaction; t != nil {
		dto.Transaction = &TransactionDTO{
			ID:                t.ID,
			PaymentMethod:     t.PaymentMethod.Method(),
			PaymentMethodCode: t.PaymentMethod,
			TotalAmount:       types.NewMoney(t.TotalAmount),
			TransactionStatus: t.TransactionStatus,
			TrackingNumber:    t.TrackingNumber,
		}
	}
	return dto
}
