package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;not null;uniqueIndex:ux_categories_slug"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Category) TableName() string { return "categories" }

// Product is a sellable catalog entry. Price is live; orders snapshot it.
type Product struct {
	ID          int64           `gorm:"column:id;primaryKey"`
	CategoryID  *int64          `gorm:"column:category_id;index"`
	Category    *Category       `gorm:"foreignKey:CategoryID"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(15,2);not null"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
