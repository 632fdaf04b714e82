package users

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// FindByID loads a user by id with its role preloaded.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.base.DB(ctx).Preload("Role").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// RoleName returns the user's role name through the users/roles join. A user
// without a role yields an empty name; a missing user yields gorm.ErrRecordNotFound.
func (r *Repository) RoleName(ctx context.Context, id int64) (string, error) {
	var row struct {
		RoleName *string
	}
	err := r.base.DB(ctx).
		Table("users").
		Select("roles.name AS role_name").
		Joins("LEFT JOIN roles ON roles.id = users.role_id").
		Where("users.id = ?", id).
		Take(&row).Error
	if err != nil {
		return "", err
	}
	if row.RoleName == nil {
		return "", nil
	}
	return *row.RoleName, nil
}

// IsAdmin reports whether the user holds the admin role. Unknown users are not admins.
func (r *Repository) IsAdmin(ctx context.Context, id int64) (bool, error) {
	name, err := r.RoleName(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return name == string(enums.UserRoleAdmin), nil
}
