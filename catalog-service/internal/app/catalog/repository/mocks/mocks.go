package mocks

import (
	"context"

	"botbazaar/catalog-service/internal/app/catalog/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCategoryRepository мок для CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *entity.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByBotID(ctx context.Context, botID uuid.UUID) ([]entity.Category, error) {
	args := m.Called(ctx, botID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Category), args.Error(1)
}

func (m *MockCategoryRepository) DeleteTree(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

// MockProductRepository мок для ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *entity.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) GetByCategoryIDs(ctx context.Context, categoryIDs []uuid.UUID) ([]entity.Product, error) {
	args := m.Called(ctx, categoryIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) BotIDForProduct(ctx context.Context, productID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockProductRepository) AddTier(ctx context.Context, tier *entity.PriceTier) error {
	args := m.Called(ctx, tier)
	return args.Error(0)
}

func (m *MockProductRepository) GetTier(ctx context.Context, tierID uuid.UUID) (*entity.PriceTier, error) {
	args := m.Called(ctx, tierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PriceTier), args.Error(1)
}

func (m *MockProductRepository) GetTiersByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]entity.PriceTier, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PriceTier), args.Error(1)
}

func (m *MockProductRepository) RemoveTier(ctx context.Context, tierID uuid.UUID) error {
	args := m.Called(ctx, tierID)
	return args.Error(0)
}

// MockTreeCache мок для кеша дерева каталога
type MockTreeCache struct {
	mock.Mock
}

func (m *MockTreeCache) GetTree(ctx context.Context, botID uuid.UUID) ([]*entity.CategoryNode, error) {
	args := m.Called(ctx, botID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.CategoryNode), args.Error(1)
}

func (m *MockTreeCache) SetTree(ctx context.Context, botID uuid.UUID, tree []*entity.CategoryNode) error {
	args := m.Called(ctx, botID, tree)
	return args.Error(0)
}

func (m *MockTreeCache) InvalidateTree(ctx context.Context, botID uuid.UUID) error {
	args := m.Called(ctx, botID)
	return args.Error(0)
}
