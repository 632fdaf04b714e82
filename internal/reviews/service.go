package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const (
	uniqueReviewConstraint = "ux_reviews_order_user"
	alreadyReviewedMessage = "already reviewed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service gates review submission to delivered orders and serves product reviews.
type Service interface {
	SubmitReview(ctx context.Context, input SubmitReviewInput) (*ReviewDTO, error)
	ListProductReviews(ctx context.Context, input ListProductReviewsInput) (*ProductReviewList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
}

// NewService builds the review service.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, logg *logger.Logger, m *metrics.StoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, outbox: outbox, logg: logg, metrics: m}, nil
}

func (s *service) SubmitReview(ctx context.Context, input SubmitReviewInput) (*ReviewDTO, error) {
	if input.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.OrderID <= 0 {
		return nil, pkgerrors.Validation("order_id is required")
	}
	rating, err := resolveRating(input.Rating, DefaultRating)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		UserID:  input.UserID,
		OrderID: input.OrderID,
		Rating:  rating,
		Comment: input.Comment,
	}
	var details []models.ReviewDetail

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindDeliveredOrder(ctx, input.OrderID, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("order not found or not eligible for review")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		exists, err := repo.Exists(ctx, order.ID, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing review")
		}
		if exists {
			return pkgerrors.Validation(alreadyReviewedMessage)
		}

		if err := repo.Create(ctx, review); err != nil {
			if db.IsUniqueViolation(err, uniqueReviewConstraint) {
				return pkgerrors.Validation(alreadyReviewedMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
		}

		details, err = buildDetails(review, order, input.ProductReviews)
		if err != nil {
			return err
		}
		if err := repo.CreateDetails(ctx, details); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review details")
		}

		productIDs := make([]int64, 0, len(details))
		for _, d := range details {
			productIDs = append(productIDs, d.ProductID)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewSubmitted,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Data: payloads.ReviewSubmittedEvent{
				ReviewID:   review.ID,
				OrderID:    review.OrderID,
				UserID:     review.UserID,
				Rating:     review.Rating,
				ProductIDs: productIDs,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncReviewSubmitted()
	s.logg.Info(s.logg.WithOrderID(s.logg.WithUserID(ctx, input.UserID), input.OrderID), "reviews.submit.success")
	return FromModel(review, details), nil
}

// buildDetails produces one detail per supplied product review, or one per
// order line carrying the top-level rating when none are supplied.
func buildDetails(review *models.Review, order *models.Order, inputs []ProductReviewInput) ([]models.ReviewDetail, error) {
	if len(inputs) == 0 {
		details := make([]models.ReviewDetail, 0, len(order.Items))
		for _, item := range order.Items {
			details = append(details, models.ReviewDetail{
				ReviewID:  review.ID,
				ProductID: item.ProductID,
				Rating:    review.Rating,
			})
		}
		return details, nil
	}

	purchased := make(map[int64]struct{}, len(order.Items))
	for _, item := range order.Items {
		purchased[item.ProductID] = struct{}{}
	}
	details := make([]models.ReviewDetail, 0, len(inputs))
	for _, in := range inputs {
		if _, ok := purchased[in.ProductID]; !ok {
			return nil, pkgerrors.Validation(fmt.Sprintf("product %d is not part of this order", in.ProductID))
		}
		rating, err := resolveRating(in.Rating, review.Rating)
		if err != nil {
			return nil, err
		}
		details = append(details, models.ReviewDetail{
			ReviewID:  review.ID,
			ProductID: in.ProductID,
			Rating:    rating,
			Comment:   in.Comment,
		})
	}
	return details, nil
}

func resolveRating(value *int, fallback int) (int, error) {
	if value == nil {
		return fallback, nil
	}
	if *value < 1 || *value > 5 {
		return 0, pkgerrors.Validation("rating must be between 1 and 5")
	}
	return *value, nil
}

func (s *service) ListProductReviews(ctx context.Context, input ListProductReviewsInput) (*ProductReviewList, error) {
	if input.ProductID <= 0 {
		return nil, pkgerrors.Validation("invalid product id")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	rows, err := s.repo.ListByProduct(ctx, input.ProductID, limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list product reviews")
	}
	summary, err := s.repo.ProductSummary(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summarize product reviews")
	}
	rows, next := pagination.Trim(rows, limit, func(r ProductReviewRow) int64 { return r.ID })

	out := make([]ProductReviewDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ProductReviewDTO{
			ID:        row.ID,
			ReviewID:  row.ReviewID,
			UserID:    row.UserID,
			Rating:    row.Rating,
			Comment:   row.Comment,
			CreatedAt: row.CreatedAt,
		})
	}
	return &ProductReviewList{
		ProductID:     input.ProductID,
		AverageRating: math.Round(summary.Average*100) / 100,
		ReviewCount:   summary.Count,
		Reviews:       out,
		NextCursor:    next,
	}, nil
}
