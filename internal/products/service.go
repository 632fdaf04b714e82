package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service exposes catalog read paths.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetProduct(ctx context.Context, productID int64) (*ProductDTO, error)
}

type productReader interface {
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	ListActive(ctx context.Context, categorySlug string, limit int, cursor *pagination.Cursor) ([]models.Product, error)
}

type service struct {
	repo productReader
}

// NewService builds the catalog service.
func NewService(repo productReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	rows, err := s.repo.ListActive(ctx, strings.TrimSpace(input.CategorySlug), limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	rows, next := pagination.Trim(rows, limit, func(p models.Product) int64 { return p.ID })

	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return &ProductListResult{Products: out, NextCursor: next}, nil
}

func (s *service) GetProduct(ctx context.Context, productID int64) (*ProductDTO, error) {
	if productID <= 0 {
		return nil, pkgerrors.Validation("invalid product id")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.NotFound("product not found")
	}
	dto := FromModel(product)
	return &dto, nil
}
