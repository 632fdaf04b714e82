package reviews

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// DefaultRating applies when the reviewer omits a rating.
const DefaultRating = 5

// SubmitReviewInput is a review submission after transport decoding.
type SubmitReviewInput struct {
	UserID         int64
	OrderID        int64
	Rating         *int
	Comment        *string
	ProductReviews []ProductReviewInput
}

// ProductReviewInput rates one product of the order.
type ProductReviewInput struct {
	ProductID int64
	Rating    *int
	Comment   *string
}

// ReviewDTO is the created review with its per-product details.
type ReviewDTO struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	OrderID   int64             `json:"order_id"`
	Rating    int               `json:"rating"`
	Comment   *string           `json:"comment,omitempty"`
	Details   []ReviewDetailDTO `json:"details"`
	CreatedAt time.Time         `json:"created_at"`
}

// ReviewDetailDTO is one product rating.
type ReviewDetailDTO struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Rating    int     `json:"rating"`
	Comment   *string `json:"comment,omitempty"`
}

// ListProductReviewsInput pages through one product's reviews.
type ListProductReviewsInput struct {
	ProductID  int64
	Pagination pagination.Params
}

// ProductReviewList is one page of product reviews plus the rating summary.
type ProductReviewList struct {
	ProductID     int64              `json:"product_id"`
	AverageRating float64            `json:"average_rating"`
	ReviewCount   int64              `json:"review_count"`
	Reviews       []ProductReviewDTO `json:"reviews"`
	NextCursor    string             `json:"next_cursor,omitempty"`
}

// ProductReviewDTO is a review detail as shown on the catalog page.
type ProductReviewDTO struct {
	ID        int64     `json:"id"`
	ReviewID  int64     `json:"review_id"`
	UserID    int64     `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func FromModel(r *models.Review, details []models.ReviewDetail) *ReviewDTO {
	dto := &ReviewDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		OrderID:   r.OrderID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Details:   make([]ReviewDetailDTO, 0, len(details)),
		CreatedAt: r.CreatedAt,
	}
	for _, d := range details {
		dto.Details = append(dto.Details, ReviewDetailDTO{
			ID:        d.ID,
			ProductID: d.ProductID,
			Rating:    d.Rating,
			Comment:   d.Comment,
		})
	}
	return dto
}
