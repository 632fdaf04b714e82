package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxCommentLength = 2000

type submitReviewRequest struct {
	OrderID        *int64                 `json:"order_id"`
	Rating         *int                   `json:"rating,omitempty"`
	Comment        *string                `json:"comment,omitempty"`
	ProductReviews []productReviewPayload `json:"product_reviews,omitempty" validate:"omitempty,dive"`
}

type productReviewPayload struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Rating    *int    `json:"rating,omitempty"`
	Comment   *string `json:"comment,omitempty"`
}

// ReviewSubmit records the caller's review of one of their delivered orders.
func ReviewSubmit(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload submitReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.OrderID == nil || *payload.OrderID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("order_id is required").WithDetails(map[string]any{"field": "order_id"}))
			return
		}

		input := reviews.SubmitReviewInput{
			UserID:  userID,
			OrderID: *payload.OrderID,
			Rating:  payload.Rating,
			Comment: sanitizeComment(payload.Comment),
		}
		for _, pr := range payload.ProductReviews {
			input.ProductReviews = append(input.ProductReviews, reviews.ProductReviewInput{
				ProductID: pr.ProductID,
				Rating:    pr.Rating,
				Comment:   sanitizeComment(pr.Comment),
			})
		}

		review, err := svc.SubmitReview(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteKeyed(w, http.StatusCreated, "review submitted", "review", review)
	}
}

func sanitizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	cleaned := validators.SanitizeText(*comment, maxCommentLength)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
