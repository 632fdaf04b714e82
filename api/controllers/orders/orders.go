package orders

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/authz"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	maxNoteLength = 1000
	maxNameLength = 255
)

// NextCursorHeader carries the cursor of the next order page; absent on the last page.
const NextCursorHeader = "X-Next-Cursor"

type createOrderRequest struct {
	UserID        *int64              `json:"user_id"`
	TotalAmount   *types.Money        `json:"total_amount"`
	Items         []createItemPayload `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string              `json:"payment_method"`
	Note          *string             `json:"note,omitempty"`
}

type createItemPayload struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Name      *string         `json:"name,omitempty"`
	Price     *types.Money    `json:"price,omitempty"`
	Quantity  json.RawMessage `json:"quantity,omitempty"`
}

type updateStatusRequest struct {
	ID     int64   `json:"id" validate:"required,gt=0"`
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note,omitempty"`
}

// Create places an order for the caller, or for user_id when the caller is an admin.
func Create(svc internalorders.Service, authorizer authz.Authorizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID := middleware.UserIDFromContext(r.Context())

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ownerID := actorID
		if payload.UserID != nil {
			ownerID = *payload.UserID
		}
		if err := authz.RequireSelfOrAdmin(r.Context(), authorizer, actorID, ownerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]internalorders.CreateOrderItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			qty, err := validators.ParseQuantity(item.Quantity)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if item.Price != nil && item.Price.IsNegative() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("item price must not be negative"))
				return
			}
			items = append(items, internalorders.CreateOrderItem{
				ProductID: item.ProductID,
				Quantity:  qty,
				Name:      sanitizeName(item.Name),
				Price:     item.Price,
			})
		}

		created, err := svc.CreateOrder(r.Context(), internalorders.CreateOrderInput{
			UserID:        ownerID,
			TotalAmount:   payload.TotalAmount,
			PaymentMethod: strings.TrimSpace(payload.PaymentMethod),
			Note:          sanitizeNote(payload.Note),
			Items:         items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteKeyed(w, http.StatusCreated, "order created", "order", created)
	}
}

// UpdateStatus moves an order to a new status. Mounted behind RequireAdmin.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderID:     payload.ID,
			Status:      strings.TrimSpace(payload.Status),
			Note:        sanitizeNote(payload.Note),
			ActorUserID: middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, "order status updated", order)
	}
}

// List returns the caller's orders. Admins may list any user's orders or all of them.
func List(svc internalorders.Service, authorizer authz.Authorizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID := middleware.UserIDFromContext(r.Context())

		userID, err := validators.ParseQueryID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		isAdmin, err := authorizer.IsAdmin(r.Context(), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve role"))
			return
		}
		if !isAdmin {
			if userID != nil && *userID != actorID {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "access to another user's resources is not allowed"))
				return
			}
			userID = &actorID
		}

		filters := internalorders.ListFilters{UserID: userID}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("invalid status").WithDetails(map[string]any{"allowed": enums.OrderStatuses()}))
				return
			}
			filters.Status = &status
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), internalorders.ListOrdersInput{
			Filters: filters,
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if list.NextCursor != "" {
			w.Header().Set(NextCursorHeader, list.NextCursor)
		}
		summaries := list.Orders
		if summaries == nil {
			summaries = []internalorders.OrderDTO{}
		}
		responses.WriteSuccessStatus(w, http.StatusOK, "orders retrieved", summaries)
	}
}

// Detail returns one order with items and transaction to its owner or an admin.
func Detail(svc internalorders.Service, authorizer authz.Authorizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := authz.RequireSelfOrAdmin(r.Context(), authorizer, middleware.UserIDFromContext(r.Context()), order.UserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, "order retrieved", order)
	}
}

func sanitizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	cleaned := validators.SanitizeText(*note, maxNoteLength)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func sanitizeName(name *string) *string {
	if name == nil {
		return nil
	}
	cleaned := validators.SanitizeLine(*name, maxNameLength)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
