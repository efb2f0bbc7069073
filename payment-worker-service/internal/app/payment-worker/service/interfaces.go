package service

import (
	"context"

	"botbazaar/payment-worker-service/internal/app/payment-worker/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRateServiceInterface определяет интерфейс для работы с курсами валют
type ExchangeRateServiceInterface interface {
	// FetchAndStoreRates получает курсы валют из внешнего API и сохраняет в Redis
	FetchAndStoreRates(ctx context.Context) error
	// GetRate получает курс валюты из Redis
	GetRate(ctx context.Context, currency string) (*entity.ExchangeRate, error)
	// ConvertCurrency конвертирует сумму из одной валюты в другую,
	// возвращает сконвертированную сумму и использованный курс
	ConvertCurrency(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (decimal.Decimal, decimal.Decimal, error)
	// EnsureRatesAvailable проверяет наличие курсов в Redis
	EnsureRatesAvailable(ctx context.Context) error
}

// SettlementFeedServiceInterface определяет интерфейс обработки платежных событий
type SettlementFeedServiceInterface interface {
	// ProcessPaymentEvent обрабатывает одно наблюдение платежа из Kafka
	ProcessPaymentEvent(ctx context.Context, event *entity.PaymentEvent) error
}

// ExchangeRateAPIClient определяет интерфейс внешнего API курсов валют
type ExchangeRateAPIClient interface {
	// FetchRates получает курсы валют относительно базовой (USD)
	FetchRates(ctx context.Context) (map[string]float64, error)
}

// OrdersAPIClient определяет интерфейс HTTP-клиента Orders Service
type OrdersAPIClient interface {
	// GetOrder получает заказ (нужна валюта прайса)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*entity.OrderInfo, error)
	// RecordPayment отправляет наблюдение платежа в валюте заказа
	RecordPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, currency string) error
}
