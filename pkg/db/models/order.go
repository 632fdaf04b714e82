package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is a checked-out purchase. OrderUUID is the external identifier and is
// independent of the numeric key.
type Order struct {
	ID          int64             `gorm:"column:id;primaryKey"`
	OrderUUID   uuid.UUID         `gorm:"column:order_uuid;type:uuid;not null;uniqueIndex:ux_orders_order_uuid"`
	UserID      int64             `gorm:"column:user_id;not null;index"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(15,2);not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:varchar(32);not null;default:'pending'"`
	Note        *string           `gorm:"column:note"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID"`
	Transaction *Transaction      `gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// OrderItem freezes the line total at checkout; it is never recomputed from
// the live product price.
type OrderItem struct {
	ID        int64           `gorm:"column:id;primaryKey"`
	OrderID   int64           `gorm:"column:order_id;not null;index"`
	ProductID int64           `gorm:"column:product_id;not null"`
	Name      string          `gorm:"column:name;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(15,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }

// Transaction records how an order will be paid.
type Transaction struct {
	ID                int64                   `gorm:"column:id;primaryKey"`
	OrderID           int64                   `gorm:"column:order_id;not null;uniqueIndex:ux_transactions_order"`
	PaymentMethod     enums.PaymentMethodCode `gorm:"column:payment_method;type:smallint;not null"`
	TotalAmount       decimal.Decimal         `gorm:"column:total_amount;type:numeric(15,2);not null"`
	TransactionStatus enums.TransactionStatus `gorm:"column:transaction_status;type:varchar(32);not null;default:'pending'"`
	TrackingNumber    *string                 `gorm:"column:tracking_number"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (Transaction) TableName() string { return "transactions" }
