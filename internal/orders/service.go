package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error)
}

type cartRepository interface {
	WithTx(tx *gorm.DB) cart.CartRepository
}

// Service defines checkout and order lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreatedOrder, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID int64) (*OrderDTO, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*OrderList, error)
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Outbox   outboxPublisher
	Products productLoader
	Carts    cartRepository
	Config   config.OrdersConfig
	Logger   *logger.Logger
	Metrics  *metrics.StoreMetrics
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	products productLoader
	carts    cartRepository
	cfg      config.OrdersConfig
	logg     *logger.Logger
	metrics  *metrics.StoreMetrics
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		outbox:   params.Outbox,
		products: params.Products,
		carts:    params.Carts,
		cfg:      params.Config,
		logg:     logg,
		metrics:  params.Metrics,
	}, nil
}

// CreateOrder writes the order, one frozen line per submitted item, and its
// pending transaction, empties the buyer's cart and queues order_created, all
// in one transaction. Line amounts come from the live product price; a
// submitted unit price or total that disagrees with it is rejected.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreatedOrder, error) {
	if input.UserID <= 0 {
		return nil, pkgerrors.Validation("user_id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.Validation("order must contain at least one item")
	}

	ids := make([]int64, 0, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID <= 0 {
			return nil, pkgerrors.Validation("item product_id is required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.Validation("item quantity must be a positive integer")
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		product, ok := products[in.ProductID]
		if !ok || !product.IsActive {
			return nil, pkgerrors.NotFound(fmt.Sprintf("product %d not found", in.ProductID))
		}
		if in.Price != nil && !in.Price.Equal(product.Price) {
			return nil, pkgerrors.Validation(fmt.Sprintf("price of product %d has changed", in.ProductID)).WithDetails(map[string]any{
				"product_id":      in.ProductID,
				"submitted_price": *in.Price,
				"current_price":   types.NewMoney(product.Price),
			})
		}
		name := product.Name
		if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
			name = strings.TrimSpace(*in.Name)
		}
		amount := product.Price.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2)
		total = total.Add(amount)
		items = append(items, models.OrderItem{
			ProductID: in.ProductID,
			Name:      name,
			Quantity:  in.Quantity,
			Amount:    amount,
		})
	}

	if input.TotalAmount != nil && !input.TotalAmount.Equal(total) {
		return nil, pkgerrors.Validation("total_amount does not match the order items").WithDetails(map[string]any{
			"submitted_total": *input.TotalAmount,
			"computed_total":  types.NewMoney(total),
		})
	}

	method := strings.TrimSpace(input.PaymentMethod)
	code, known := enums.PaymentCodeFor(method)
	if !known {
		s.logg.Warn(s.logg.WithField(ctx, "payment_method", method), "orders.create.unknown_payment_method")
	}

	note := fmt.Sprintf("Payment method: %s", method)
	if input.Note != nil && strings.TrimSpace(*input.Note) != "" {
		note = note + "\n" + strings.TrimSpace(*input.Note)
	}

	created := &models.Order{
		OrderUUID:   uuid.New(),
		UserID:      input.UserID,
		TotalAmount: total,
		Status:      enums.OrderStatusPending,
		Note:        &note,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		for i := range items {
			items[i].OrderID = created.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
		}
		txn := &models.Transaction{
			OrderID:           created.ID,
			PaymentMethod:     code,
			TotalAmount:       total,
			TransactionStatus: enums.TransactionStatusPending,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create transaction")
		}
		if s.cfg.ClearCartOnCheckout {
			if _, err := s.carts.WithTx(tx).DeleteItemsByUser(ctx, input.UserID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   created.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Data: payloads.OrderCreatedEvent{
				OrderID:       created.ID,
				OrderUUID:     created.OrderUUID,
				UserID:        created.UserID,
				TotalAmount:   types.NewMoney(total),
				PaymentMethod: code.Method(),
				ItemCount:     len(items),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderCreated(code.Method().String())
	logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, input.UserID), created.ID)
	s.logg.Info(logCtx, "orders.create.success")

	return &CreatedOrder{
		ID:          created.ID,
		OrderUUID:   created.OrderUUID,
		TotalAmount: types.NewMoney(total),
		Status:      created.Status,
	}, nil
}

// UpdateStatus moves an order to a new status. Re-applying the current status
// changes nothing but the note, when one is given, and emits no event.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	if input.OrderID <= 0 {
		return nil, pkgerrors.Validation("id is required")
	}
	target, err := enums.ParseOrderStatus(strings.TrimSpace(input.Status))
	if err != nil {
		return nil, pkgerrors.Validation("invalid status").WithDetails(map[string]any{
			"allowed": enums.OrderStatuses(),
		})
	}

	var previous enums.OrderStatus
	changed := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		previous = order.Status

		if order.Status == target {
			if input.Note == nil {
				return nil
			}
			if err := repo.UpdateStatus(ctx, order.ID, target, input.Note); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order note")
			}
			return nil
		}

		if s.cfg.EnforceTransitions && !CanTransition(order.Status, target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").WithDetails(map[string]any{
				"from":    order.Status,
				"to":      target,
				"allowed": AllowedFrom(order.Status),
			})
		}

		if err := repo.UpdateStatus(ctx, order.ID, target, input.Note); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		changed = true

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				OrderUUID:      order.OrderUUID,
				UserID:         order.UserID,
				PreviousStatus: previous,
				Status:         target,
				Note:           input.Note,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.IncStatusTransition(previous.String(), target.String())
		logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, input.OrderID), map[string]any{
			"from": previous,
			"to":   target,
		})
		s.logg.Info(logCtx, "orders.status.updated")
	}
	return s.GetOrder(ctx, input.OrderID)
}

func (s *service) GetOrder(ctx context.Context, orderID int64) (*OrderDTO, error) {
	if orderID <= 0 {
		return nil, pkgerrors.Validation("invalid order id")
	}
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if input.Filters.Status != nil && !input.Filters.Status.IsValid() {
		return nil, pkgerrors.Validation("invalid status")
	}
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	rows, err := s.repo.List(ctx, input.Filters, limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	rows, next := pagination.Trim(rows, limit, func(o models.Order) int64 { return o.ID })

	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return &OrderList{Orders: out, NextCursor: next}, nil
}
