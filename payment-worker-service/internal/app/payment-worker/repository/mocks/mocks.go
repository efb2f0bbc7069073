package mocks

import (
	"context"

	"botbazaar/payment-worker-service/internal/app/payment-worker/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockExchangeRateRepository мок для ExchangeRateRepository
type MockExchangeRateRepository struct {
	mock.Mock
}

func (m *MockExchangeRateRepository) Get(ctx context.Context, currency string) (*entity.ExchangeRate, error) {
	args := m.Called(ctx, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) SetMultiple(ctx context.Context, rates []*entity.ExchangeRate) error {
	args := m.Called(ctx, rates)
	return args.Error(0)
}

func (m *MockExchangeRateRepository) GetMultiple(ctx context.Context, currencies []string) (map[string]*entity.ExchangeRate, error) {
	args := m.Called(ctx, currencies)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*entity.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) Exists(ctx context.Context, currency string) (bool, error) {
	args := m.Called(ctx, currency)
	return args.Bool(0), args.Error(1)
}

// MockObservationRepository мок для ObservationRepository
type MockObservationRepository struct {
	mock.Mock
}

func (m *MockObservationRepository) Insert(ctx context.Context, observation *entity.PaymentObservation) error {
	args := m.Called(ctx, observation)
	return args.Error(0)
}

func (m *MockObservationRepository) ListByOrder(ctx context.Context, orderID string) ([]entity.PaymentObservation, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PaymentObservation), args.Error(1)
}

// MockOrdersAPIClient мок для клиента Orders Service
type MockOrdersAPIClient struct {
	mock.Mock
}

func (m *MockOrdersAPIClient) GetOrder(ctx context.Context, orderID uuid.UUID) (*entity.OrderInfo, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OrderInfo), args.Error(1)
}

func (m *MockOrdersAPIClient) RecordPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, currency string) error {
	args := m.Called(ctx, orderID, amount, currency)
	return args.Error(0)
}

// MockExchangeRateService мок для ExchangeRateServiceInterface
type MockExchangeRateService struct {
	mock.Mock
}

func (m *MockExchangeRateService) FetchAndStoreRates(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockExchangeRateService) GetRate(ctx context.Context, currency string) (*entity.ExchangeRate, error) {
	args := m.Called(ctx, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateService) ConvertCurrency(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx, amount, fromCurrency, toCurrency)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockExchangeRateService) EnsureRatesAvailable(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockExchangeRateAPIClient мок для клиента внешнего API курсов
type MockExchangeRateAPIClient struct {
	mock.Mock
}

func (m *MockExchangeRateAPIClient) FetchRates(ctx context.Context) (map[string]float64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

// MockSettlementFeedService мок для SettlementFeedServiceInterface
type MockSettlementFeedService struct {
	mock.Mock
}

func (m *MockSettlementFeedService) ProcessPaymentEvent(ctx context.Context, event *entity.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
