package repository

import (
	"context"
	"errors"

	"botbazaar/payment-worker-service/internal/app/payment-worker/entity"
)

var (
	// ErrRateNotFound - курса валюты нет в Redis (истек TTL или еще не загружен)
	ErrRateNotFound = errors.New("exchange rate not found")
)

// ExchangeRateRepository интерфейс для работы с курсами валют в Redis
type ExchangeRateRepository interface {
	// Get получает курс валюты из Redis
	Get(ctx context.Context, currency string) (*entity.ExchangeRate, error)

	// SetMultiple сохраняет несколько курсов валют батчем с TTL
	SetMultiple(ctx context.Context, rates []*entity.ExchangeRate) error

	// GetMultiple получает несколько курсов валют, отсутствующие пропускаются
	GetMultiple(ctx context.Context, currencies []string) (map[string]*entity.ExchangeRate, error)

	// Exists проверяет существование курса в Redis
	Exists(ctx context.Context, currency string) (bool, error)
}

// ObservationRepository интерфейс архива платежных наблюдений в MongoDB
type ObservationRepository interface {
	// Insert сохраняет наблюдение платежа для аудита/повторной обработки
	Insert(ctx context.Context, observation *entity.PaymentObservation) error

	// ListByOrder возвращает наблюдения по заказу, новые первыми
	ListByOrder(ctx context.Context, orderID string) ([]entity.PaymentObservation, error)
}
