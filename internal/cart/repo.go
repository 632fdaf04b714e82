package cart

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUser loads the user's cart with items and their products.
func (r *Repository) FindByUser(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// EnsureForUser returns the user's cart row, inserting it when absent. The
// insert tolerates a concurrent creator through ux_carts_user.
func (r *Repository) EnsureForUser(ctx context.Context, userID int64) (*models.Cart, error) {
	db := r.db.WithContext(ctx)
	cart := models.Cart{UserID: userID}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&cart).Error
	if err != nil {
		return nil, err
	}

	var existing models.Cart
	if err := db.Where("user_id = ?", userID).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// touch stamps the cart's updated_at so the empty-cart sweep measures age
// from the last item change.
func (r *Repository) touch(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		UpdateColumn("updated_at", time.Now().UTC()).Error
}

// ApplyDelta adds delta to the line for productID. Positive deltas upsert in a
// single statement; negative deltas delete the line when it would reach zero
// and decrement it otherwise. Missing lines with a non-positive delta are left alone.
func (r *Repository) ApplyDelta(ctx context.Context, cartID, productID int64, delta int) error {
	db := r.db.WithContext(ctx)
	switch {
	case delta > 0:
		item := models.CartItem{CartID: cartID, ProductID: productID, Quantity: delta}
		err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": time.Now().UTC(),
			}),
		}).Create(&item).Error
		if err != nil {
			return err
		}
		return r.touch(ctx, cartID)

	case delta < 0:
		res := db.Where("cart_id = ? AND product_id = ? AND quantity + ? <= 0", cartID, productID, delta).
			Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			res = db.Model(&models.CartItem{}).
				Where("cart_id = ? AND product_id = ?", cartID, productID).
				Updates(map[string]any{
					"quantity":   gorm.Expr("quantity + ?", delta),
					"updated_at": time.Now().UTC(),
				})
			if res.Error != nil {
				return res.Error
			}
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return r.touch(ctx, cartID)

	default:
		return nil
	}
}

// SetQuantity overwrites the quantity of an existing line. It reports false
// when the line does not exist.
func (r *Repository) SetQuantity(ctx context.Context, cartID, productID int64, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, r.touch(ctx, cartID)
}

// DeleteItem removes one line and reports whether it existed.
func (r *Repository) DeleteItem(ctx context.Context, cartID, productID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, r.touch(ctx, cartID)
}

// DeleteItems empties the cart but keeps its row.
func (r *Repository) DeleteItems(ctx context.Context, cartID int64) error {
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

// DeleteItemsByUser empties the user's cart, if any, and returns the number of removed lines.
func (r *Repository) DeleteItemsByUser(ctx context.Context, userID int64) (int64, error) {
	db := r.db.WithContext(ctx)
	res := db.Where("cart_id IN (?)", db.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, res.Error
	}
	err := db.Model(&models.Cart{}).
		Where("user_id = ?", userID).
		UpdateColumn("updated_at", time.Now().UTC()).Error
	return res.RowsAffected, err
}

// DeleteEmptyBefore removes cart rows that hold no items and whose last item
// change (updated_at) is before cutoff. GetOrCreateCart recreates them on demand.
func (r *Repository) DeleteEmptyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	db := r.db.WithContext(ctx)
	res := db.Where("updated_at < ?", cutoff).
		Where("NOT EXISTS (?)", db.Model(&models.CartItem{}).Select("1").Where("cart_items.cart_id = carts.id")).
		Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}

// DeleteCart removes the cart row itself.
func (r *Repository) DeleteCart(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Delete(&models.Cart{}, "id = ?", cartID).Error
}
