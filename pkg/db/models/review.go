package models

import "time"

type Review struct {
	ID        int64          `gorm:"column:id;primaryKey"`
	UserID    int64          `gorm:"column:user_id;not null;uniqueIndex:ux_reviews_order_user,priority:2"`
	OrderID   int64          `gorm:"column:order_id;not null;uniqueIndex:ux_reviews_order_user,priority:1"`
	Rating    int            `gorm:"column:rating;not null"`
	Comment   *string        `gorm:"column:comment"`
	Details   []ReviewDetail `gorm:"foreignKey:ReviewID"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Review) TableName() string { return "reviews" }

type ReviewDetail struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	ReviewID  int64     `gorm:"column:review_id;not null;index"`
	ProductID int64     `gorm:"column:product_id;not null;index"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   *string   `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ReviewDetail) TableName() string { return "review_details" }
