package repository

import (
	"context"
	"errors"

	"botbazaar/catalog-service/internal/app/catalog/entity"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrTierNotFound     = errors.New("price tier not found")
	ErrForeignKey       = errors.New("foreign key violation")
)

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	GetByBotID(ctx context.Context, botID uuid.UUID) ([]entity.Category, error)
	// DeleteTree удаляет категорию вместе со всеми потомками, их товарами
	// и ценовыми уровнями в одной транзакции; возвращает число удалённых категорий
	DeleteTree(ctx context.Context, id uuid.UUID) (int, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetByCategoryIDs(ctx context.Context, categoryIDs []uuid.UUID) ([]entity.Product, error)
	// Delete удаляет товар вместе с его ценовыми уровнями в одной транзакции
	Delete(ctx context.Context, id uuid.UUID) error
	// BotIDForProduct возвращает владельца товара через его категорию
	BotIDForProduct(ctx context.Context, productID uuid.UUID) (uuid.UUID, error)

	AddTier(ctx context.Context, tier *entity.PriceTier) error
	GetTier(ctx context.Context, tierID uuid.UUID) (*entity.PriceTier, error)
	GetTiersByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]entity.PriceTier, error)
	RemoveTier(ctx context.Context, tierID uuid.UUID) error
}
