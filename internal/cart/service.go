package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id int64) (*models.Product, error)
}

// Service exposes cart operations keyed by the owning user.
type Service interface {
	GetOrCreateCart(ctx context.Context, userID int64) (*CartDTO, error)
	AddItem(ctx context.Context, userID, productID int64, quantityDelta int) (*CartDTO, error)
	SetItemQuantity(ctx context.Context, userID, productID int64, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID int64) (*CartDTO, error)
	ClearCart(ctx context.Context, userID int64) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

func (s *service) GetOrCreateCart(ctx context.Context, userID int64) (*CartDTO, error) {
	if userID <= 0 {
		return nil, pkgerrors.Validation("invalid user id")
	}
	if _, err := s.repo.EnsureForUser(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ensure cart")
	}
	return s.load(ctx, userID)
}

// AddItem adjusts the product's line by quantityDelta. Existing lines that
// drop to zero or below are removed; a missing line is only created for a
// positive delta.
func (s *service) AddItem(ctx context.Context, userID, productID int64, quantityDelta int) (*CartDTO, error) {
	if userID <= 0 {
		return nil, pkgerrors.Validation("invalid user id")
	}
	if productID <= 0 {
		return nil, pkgerrors.Validation("productId is required")
	}
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.EnsureForUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ensure cart")
		}
		if err := repo.ApplyDelta(ctx, cart.ID, productID, quantityDelta); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply cart delta")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

func (s *service) SetItemQuantity(ctx context.Context, userID, productID int64, quantity int) (*CartDTO, error) {
	if userID <= 0 {
		return nil, pkgerrors.Validation("invalid user id")
	}
	if productID <= 0 {
		return nil, pkgerrors.Validation("productId is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.Validation("quantity must be a positive integer")
	}

	cart, err := s.findCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.SetQuantity(ctx, cart.ID, productID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set cart quantity")
	}
	if !updated {
		return nil, pkgerrors.NotFound("cart item not found")
	}
	return s.load(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID int64) (*CartDTO, error) {
	if userID <= 0 {
		return nil, pkgerrors.Validation("invalid user id")
	}
	cart, err := s.findCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	deleted, err := s.repo.DeleteItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
	}
	if !deleted {
		return nil, pkgerrors.NotFound("cart item not found")
	}
	return s.load(ctx, userID)
}

// ClearCart removes every item and the cart row. A user without a cart is a no-op.
func (s *service) ClearCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return pkgerrors.Validation("invalid user id")
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart items")
		}
		if err := repo.DeleteCart(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart")
		}
		return nil
	})
}

func (s *service) ensureProduct(ctx context.Context, productID int64) error {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NotFound("product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return nil
}

func (s *service) findCart(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

func (s *service) load(ctx context.Context, userID int64) (*CartDTO, error) {
	cart, err := s.findCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(cart), nil
}
