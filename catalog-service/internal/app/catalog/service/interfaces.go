package service

import (
	"context"

	"botbazaar/catalog-service/internal/app/catalog/entity"

	"github.com/google/uuid"
)

type CatalogServiceInterface interface {
	CreateCategory(ctx context.Context, botID uuid.UUID, req *entity.CreateCategoryRequest) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, categoryID uuid.UUID, req *entity.CreateProductRequest) (*entity.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*entity.ProductWithTiers, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	AddPriceTier(ctx context.Context, productID uuid.UUID, req *entity.AddPriceTierRequest) (*entity.PriceTier, error)
	RemovePriceTier(ctx context.Context, tierID uuid.UUID) error

	GetTree(ctx context.Context, botID uuid.UUID) ([]*entity.CategoryNode, error)
}

// TreeCache кеширует собранное дерево каталога бота
// Реализация - Redis (util.RedisClient), в тестах подменяется моком
type TreeCache interface {
	GetTree(ctx context.Context, botID uuid.UUID) ([]*entity.CategoryNode, error)
	SetTree(ctx context.Context, botID uuid.UUID, tree []*entity.CategoryNode) error
	InvalidateTree(ctx context.Context, botID uuid.UUID) error
}
