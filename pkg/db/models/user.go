package models

import "time"

// Role is a named permission bundle; only admin and customer are seeded.
type Role struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:ux_roles_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Role) TableName() string { return "roles" }

// User is the identity that owns carts, orders and reviews.
type User struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex:ux_users_email"`
	Name      string    `gorm:"column:name;not null"`
	RoleID    *int64    `gorm:"column:role_id"`
	Role      *Role     `gorm:"foreignKey:RoleID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
