package mocks

import (
	"context"
	"time"

	"botbazaar/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository мок для OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *entity.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter entity.OrderFilter) ([]entity.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateSettlement(ctx context.Context, order *entity.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Dispatch(ctx context.Context, id uuid.UUID, at time.Time, allowOverpaid bool) error {
	args := m.Called(ctx, id, at, allowOverpaid)
	return args.Error(0)
}

// MockStatsRepository мок для StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) TotalSales(ctx context.Context, botID *uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, botID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockStatsRepository) CountOrders(ctx context.Context, botID *uuid.UUID) (int64, error) {
	args := m.Called(ctx, botID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsRepository) RecentOrders(ctx context.Context, botID *uuid.UUID, limit int) ([]entity.Order, error) {
	args := m.Called(ctx, botID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Order), args.Error(1)
}

// MockCatalogClient мок для CatalogServiceClient
type MockCatalogClient struct {
	mock.Mock
}

func (m *MockCatalogClient) SetAuthToken(token string) {
	m.Called(token)
}

func (m *MockCatalogClient) GetProduct(ctx context.Context, productID uuid.UUID) (*entity.CatalogProduct, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CatalogProduct), args.Error(1)
}

// MockMessagePublisher мок для Kafka publisher
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
