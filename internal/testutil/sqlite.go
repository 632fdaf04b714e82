// Package testutil holds sqlite fixtures shared by repository and service tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OpenDB returns an isolated in-memory database with every model migrated.
// The pool is pinned to one connection so transactions never contend.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return conn
}

// OpenClient is OpenDB wrapped in a db.Client for services needing WithTx.
func OpenClient(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := OpenDB(t)
	return db.NewFromConn(conn), conn
}

func MustCreateRole(t *testing.T, tx *gorm.DB, name enums.UserRole) *models.Role {
	t.Helper()
	role := &models.Role{Name: string(name)}
	if err := tx.Where("name = ?", role.Name).FirstOrCreate(role).Error; err != nil {
		t.Fatalf("create role: %v", err)
	}
	return role
}

func MustCreateUser(t *testing.T, tx *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	r := MustCreateRole(t, tx, role)
	user := &models.User{
		Email:  fmt.Sprintf("sf_test_%s@example.com", uuid.NewString()),
		Name:   "Test Shopper",
		RoleID: &r.ID,
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func MustCreateCategory(t *testing.T, tx *gorm.DB, slug string) *models.Category {
	t.Helper()
	category := &models.Category{Name: slug, Slug: slug}
	if err := tx.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category
}

func MustCreateProduct(t *testing.T, tx *gorm.DB, name string, price string, categoryID *int64) *models.Product {
	t.Helper()
	product := &models.Product{
		CategoryID: categoryID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      100,
		IsActive:   true,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// MustCreateOrder inserts an order with one item per product at quantity 1.
func MustCreateOrder(t *testing.T, tx *gorm.DB, userID int64, status enums.OrderStatus, products ...*models.Product) *models.Order {
	t.Helper()
	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(products))
	for _, p := range products {
		total = total.Add(p.Price)
		items = append(items, models.OrderItem{ProductID: p.ID, Name: p.Name, Quantity: 1, Amount: p.Price})
	}
	order := &models.Order{
		OrderUUID:   uuid.New(),
		UserID:      userID,
		TotalAmount: total,
		Status:      status,
		Items:       items,
	}
	if err := tx.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}
