package orders

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/testutil"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type ordersFixture struct {
	svc   Service
	conn  *gorm.DB
	carts *cart.Repository
}

func newOrdersFixture(t *testing.T, cfg config.OrdersConfig) ordersFixture {
	t.Helper()
	client, conn := testutil.OpenClient(t)
	carts := cart.NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Tx:       client,
		Outbox:   outbox.NewService(outbox.NewRepository(conn), nil),
		Products: product.NewRepository(conn),
		Carts:    carts,
		Config:   cfg,
	})
	require.NoError(t, err)
	return ordersFixture{svc: svc, conn: conn, carts: carts}
}

func defaultOrdersConfig() config.OrdersConfig {
	return config.OrdersConfig{EnforceTransitions: true, ClearCartOnCheckout: true}
}

func outboxTypes(t *testing.T, conn *gorm.DB) []enums.OutboxEventType {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, conn.Order("created_at ASC").Find(&rows).Error)
	out := make([]enums.OutboxEventType, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.EventType)
	}
	return out
}

func TestCreateOrderCheckoutScenario(t *testing.T) {
	f := newOrdersFixture(t, defaultOrdersConfig())
	ctx := context.Background()

	user := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	p3 := testutil.MustCreateProduct(t, f.conn, "kettle", "30000.00", nil)
	p5 := testutil.MustCreateProduct(t, f.conn, "toaster", "40000.00", nil)

	c, err := f.carts.EnsureForUser(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, f.carts.ApplyDelta(ctx, c.ID, p3.ID, 2))
	require.NoError(t, f.carts.ApplyDelta(ctx, c.ID, p5.ID, 1))

	submitted := types.NewMoney(decimal.NewFromInt(100000))
	created, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		UserID:        user.ID,
		TotalAmount:   &submitted,
		PaymentMethod: "cod",
		Items: []CreateOrderItem{
			{ProductID: p3.ID, Quantity: 2},
			{ProductID: p5.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, created.Status)
	assert.True(t, created.TotalAmount.Equal(decimal.NewFromInt(100000)))
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", created.OrderUUID.String())

	detail, err := f.svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	assert.True(t, detail.Items[0].Amount.Equal(decimal.NewFromInt(60000)))
	assert.Equal(t, "kettle", detail.Items[0].Name)
	require.NotNil(t, detail.Transaction)
	assert.Equal(t, enums.PaymentCodeCOD, detail.Transaction.PaymentMethodCode)
	assert.Equal(t, enums.TransactionStatusPending, detail.Transaction.TransactionStatus)
	require.NotNil(t, detail.Note)
	assert.Equal(t, "Payment method: cod", *detail.Note)

	var items int64
	require.NoError(t, f.conn.Model(&models.CartItem{}).Count(&items).Error)
	assert.Zero(t, items)
	var carts int64
	require.NoError(t, f.conn.Model(&models.Cart{}).Count(&carts).Error)
	assert.EqualValues(t, 1, carts, "cart row stays")

	assert.Equal(t, []enums.OutboxEventType{enums.EventOrderCreated}, outboxTypes(t, f.conn))
}

func TestCreateOrderFreezesAmounts(t *testing.T) {
	f := newOrdersFixture(t, defaultOrdersConfig())
	ctx := context.Background()
	user := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	p := testutil.MustCreateProduct(t, f.conn, "lamp", "10.00", nil)

	created, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		UserID: user.ID, PaymentMethod: "e_wallet",
		Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", decimal.RequireFromString("99.00")).Error)

	detail, err := f.svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, detail.Items[0].Amount.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, detail.TotalAmount.Equal(decimal.RequireFromString("30.00")))
}

func TestCreateOrderKeepsOneLinePerSubmittedItem(t *testing.T) {
	f := newOrdersFixture(t, defaultOrdersConfig())
	ctx := context.Background()
	user := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	p := testutil.MustCreateProduct(t, f.conn, "cup", "10.00", nil)

	created, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		UserID: user.ID, PaymentMethod: "cod",
		Items: []CreateOrderItem{
			{ProductID: p.ID, Quantity: 1},
			{ProductID: p.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.True(t, created.TotalAmount.Equal(decimal.RequireFromString("30.00")))

	detail, err := f.svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, 1, detail.Items[0].Quantity)
	assert.True(t, detail.Items[0].Amount.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, 2, detail.Items[1].Quantity)
	assert.True(t, detail.Items[1].Amount.Equal(decimal.RequireFromString("20.00")))
}

func TestCreateOrderUsesSubmittedLineSnapshot(t *testing.T) {
	f := newOrdersFixture(t, defaultOrdersConfig())
	ctx := context.Background()
	user := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	p := testutil.MustCreateProduct(t, f.conn, "kettle", "30000.00", nil)

	name := "kettle (steel)"
	price := types.NewMoney(decimal.NewFromInt(30000))
	total := types.NewMoney(decimal.NewFromInt(60000))
	created, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		UserID: user.ID, PaymentMethod: "cod", TotalAmount: &total,
		Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 2, Name: &name, Price: &price}},
	})
	require.NoError(t, err)

	detail, err := f.svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "kettle (steel)", detail.Items[0].Name)
	assert.True(t, detail.Items[0].Amount.Equal(decimal.NewFromInt(60000)))
}

func TestCreateOrderRejectsStaleSubmittedAmounts(t *testing.T) {
	f := newOrdersFixture(t, defaultOrdersConfig())
	ctx := context.Background()
	user := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	p := testutil.MustCreateProduct(t, f.conn, "kettle", "30000.00", nil)

	stalePrice := types.NewMoney(decimal.NewFromInt(25000))
	_, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		UserID: user.ID, PaymentMethod: "cod",
		Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 1, Price: &stalePrice}},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	wrongTotal := types.NewMoney(decimal.NewFromInt(1))
	_, err = f.svc.CreateOrder(ctx, CreateOrderInput{
		UserID: user.ID, PaymentMethod: "cod", TotalAmount: &wrongTotal,
		Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	var orders int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestCreateOrderUnknownPaymentMethodDefaultsToBankTransfer(t *testing.T) {
	f := newOrdersFixture(t, defaultOrdersConfig())
	user := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	p := testutil.MustCreateProduct(t, f.conn, "pen", "1.00", nil)

	created, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID: user.ID, PaymentMethod: "barter",
		Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	var txn models.Transaction
	require.NoError(t, f.conn.Where("order_id = ?", created.ID).First(&txn).Error)
	assert.Equal(t, enums.PaymentCodeBankTransfer, txn.PaymentMethod)
}

func TestCreateOrderRollsBackOnUnknownProduct(t *testing.T) {
	f := newOrdersFixture(t, defaultOrdersConfig())
	user := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID: user.ID, PaymentMethod: "cod",
		Items: []CreateOrderItem{{ProductID: 4242, Quantity: 1}},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var count int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrdersFixture(t, defaultOrdersConfig())
	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{UserID: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID: 1, Items: []CreateOrderItem{{ProductID: 1, Quantity: 0}},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateOrderKeepsCartWhenDisabled(t *testing.T) {
	f := newOrdersFixture(t, config.OrdersConfig{EnforceTransitions: true})
	ctx := context.Background()
	user := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	p := testutil.MustCreateProduct(t, f.conn, "cup", "2.00", nil)
	c, err := f.carts.EnsureForUser(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, f.carts.ApplyDelta(ctx, c.ID, p.ID, 1))

	_, err = f.svc.CreateOrder(ctx, CreateOrderInput{
		UserID: user.ID, PaymentMethod: "cod",
		Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	var items int64
	require.NoError(t, f.conn.Model(&models.CartItem{}).Count(&items).Error)
	assert.EqualValues(t, 1, items)
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	f := newOrdersFixture(t, defaultOrdersConfig())
	ctx := context.Background()
	user := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	order := testutil.MustCreateOrder(t, f.conn, user.ID, enums.OrderStatusPending)

	note := "approved by ops"
	updated, err := f.svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Status: "approved", Note: &note, ActorUserID: 1})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusApproved, updated.Status)
	require.NotNil(t, updated.Note)
	assert.Equal(t, note, *updated.Note)

	_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Status: "pending"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	var rows []models.OutboxEvent
	require.NoError(t, f.conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.JSONEq(t, `"pending"`, string(mustField(t, envelope.Data, "previous_status")))
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	f := newOrdersFixture(t, defaultOrdersConfig())
	user := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	order := testutil.MustCreateOrder(t, f.conn, user.ID, enums.OrderStatusShipped)

	updated, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{OrderID: order.ID, Status: "shipped"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)
	assert.Empty(t, outboxTypes(t, f.conn))
}

func TestUpdateStatusPermissiveWhenEnforcementDisabled(t *testing.T) {
	f := newOrdersFixture(t, config.OrdersConfig{EnforceTransitions: false})
	user := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	order := testutil.MustCreateOrder(t, f.conn, user.ID, enums.OrderStatusCompleted)

	updated, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{OrderID: order.ID, Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, updated.Status)
}

func TestUpdateStatusInvalidAndMissing(t *testing.T) {
	f := newOrdersFixture(t, defaultOrdersConfig())
	user := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	order := testutil.MustCreateOrder(t, f.conn, user.ID, enums.OrderStatusPending)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{OrderID: order.ID, Status: "lost"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, "invalid status", pkgerrors.As(err).Message())

	var stored models.Order
	require.NoError(t, f.conn.First(&stored, order.ID).Error)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)

	_, err = f.svc.UpdateStatus(context.Background(), UpdateStatusInput{OrderID: order.ID + 99, Status: "approved"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListOrdersFiltersAndPages(t *testing.T) {
	f := newOrdersFixture(t, defaultOrdersConfig())
	ctx := context.Background()
	alice := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	bob := testutil.MustCreateUser(t, f.conn, enums.UserRoleCustomer)
	testutil.MustCreateOrder(t, f.conn, alice.ID, enums.OrderStatusPending)
	testutil.MustCreateOrder(t, f.conn, alice.ID, enums.OrderStatusDelivered)
	testutil.MustCreateOrder(t, f.conn, alice.ID, enums.OrderStatusPending)
	testutil.MustCreateOrder(t, f.conn, bob.ID, enums.OrderStatusPending)

	page, err := f.svc.ListOrders(ctx, ListOrdersInput{
		Filters:    ListFilters{UserID: &alice.ID},
		Pagination: pagination.Params{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.NotEmpty(t, page.NextCursor)
	assert.Greater(t, page.Orders[0].ID, page.Orders[1].ID)

	rest, err := f.svc.ListOrders(ctx, ListOrdersInput{
		Filters:    ListFilters{UserID: &alice.ID},
		Pagination: pagination.Params{Limit: 2, Cursor: page.NextCursor},
	})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)

	pending := enums.OrderStatusPending
	all, err := f.svc.ListOrders(ctx, ListOrdersInput{Filters: ListFilters{Status: &pending}})
	require.NoError(t, err)
	assert.Len(t, all.Orders, 3)
}

func mustField(t *testing.T, raw json.RawMessage, key string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	value, ok := fields[key]
	require.True(t, ok, "missing %s", key)
	return value
}
