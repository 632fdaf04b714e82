package product

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// ProductDTO represents the catalog product payload returned to clients.
type ProductDTO struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Price       types.Money  `json:"price"`
	Stock       int          `json:"stock"`
	IsActive    bool         `json:"is_active"`
	Category    *CategoryDTO `json:"category,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// CategoryDTO is the category summary embedded in products.
type CategoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ListProductsInput captures the browse endpoint filters.
type ListProductsInput struct {
	CategorySlug string
	Pagination   pagination.Params
}

// ProductListResult is one catalog page.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func FromModel(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       types.NewMoney(p.Price),
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = &CategoryDTO{ID: p.Category.ID, Name: p.Category.Name, Slug: p.Category.Slug}
	}
	return dto
}
