package payloads

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// OrderCreatedEvent is emitted once checkout commits.
type OrderCreatedEvent struct {
	OrderID       int64               `json:"order_id"`
	OrderUUID     uuid.UUID           `json:"order_uuid"`
	UserID        int64               `json:"user_id"`
	TotalAmount   types.Money         `json:"total_amount"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	ItemCount     int                 `json:"item_count"`
}

// OrderStatusChangedEvent is emitted on every effective status change.
type OrderStatusChangedEvent struct {
	OrderID        int64             `json:"order_id"`
	OrderUUID      uuid.UUID         `json:"order_uuid"`
	UserID         int64             `json:"user_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	Note           *string           `json:"note,omitempty"`
}

// ReviewSubmittedEvent is emitted when a delivered order is reviewed.
type ReviewSubmittedEvent struct {
	ReviewID   int64   `json:"review_id"`
	OrderID    int64   `json:"order_id"`
	UserID     int64   `json:"user_id"`
	Rating     int     `json:"rating"`
	ProductIDs []int64 `json:"product_ids"`
}
