package reviews

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindDeliveredOrder(ctx context.Context, orderID, userID int64) (*models.Order, error)
	Exists(ctx context.Context, orderID, userID int64) (bool, error)
	Create(ctx context.Context, review *models.Review) error
	CreateDetails(ctx context.Context, details []models.ReviewDetail) error
	ListByProduct(ctx context.Context, productID int64, limit int, cursor *pagination.Cursor) ([]ProductReviewRow, error)
	ProductSummary(ctx context.Context, productID int64) (*RatingSummary, error)
}

// ProductReviewRow is a review detail joined with its parent review.
type ProductReviewRow struct {
	ID        int64
	ReviewID  int64
	ProductID int64
	UserID    int64
	Rating    int
	Comment   *string
	CreatedAt time.Time
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reviews repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindDeliveredOrder loads the order with its items only when it belongs to
// userID and is delivered.
func (r *repository) FindDeliveredOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ? AND status = ?", orderID, userID, enums.OrderStatusDelivered).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Exists(ctx context.Context, orderID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("order_id = ? AND user_id = ?", orderID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit("Details").Create(review).Error
}

func (r *repository) CreateDetails(ctx context.Context, details []models.ReviewDetail) error {
	if len(details) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&details).Error
}

func (r *repository) ListByProduct(ctx context.Context, productID int64, limit int, cursor *pagination.Cursor) ([]ProductReviewRow, error) {
	q := r.db.WithContext(ctx).
		Table("review_details AS rd").
		Select("rd.id, rd.review_id, rd.product_id, r.user_id, rd.rating, rd.comment, rd.created_at").
		Joins("JOIN reviews AS r ON r.id = rd.review_id").
		Where("rd.product_id = ?", productID)
	if cursor != nil {
		q = q.Where("rd.id < ?", cursor.ID)
	}

	var rows []ProductReviewRow
	if err := q.Order("rd.id DESC").Limit(pagination.LimitWithBuffer(limit)).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RatingSummary aggregates all review details for a product.
type RatingSummary struct {
	Count   int64
	Average float64
}

func (r *repository) ProductSummary(ctx context.Context, productID int64) (*RatingSummary, error) {
	var summary RatingSummary
	err := r.db.WithContext(ctx).
		Model(&models.ReviewDetail{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("product_id = ?", productID).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
