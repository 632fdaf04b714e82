package models

import "time"

// Cart is the singleton basket of a user.
type Cart struct {
	ID        int64      `gorm:"column:id;primaryKey"`
	UserID    int64      `gorm:"column:user_id;not null;uniqueIndex:ux_carts_user"`
	Items     []CartItem `gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Cart) TableName() string { return "carts" }

// CartItem is one product line. Quantity is always positive; a line that would
// drop to zero is deleted instead.
type CartItem struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	CartID    int64     `gorm:"column:cart_id;not null;uniqueIndex:ux_cart_items_cart_product,priority:1"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:ux_cart_items_cart_product,priority:2"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	Quantity  int       `gorm:"column:quantity;not null;check:chk_cart_items_quantity_positive,quantity > 0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string { return "cart_items" }
