package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"botbazaar/payment-worker-service/internal/app/payment-worker/entity"
	"botbazaar/payment-worker-service/internal/app/payment-worker/repository"
	"botbazaar/pkg/logger"
	"botbazaar/pkg/metrics"

	"github.com/shopspring/decimal"
)

// ErrRateUnavailable - нет курса хотя бы одной из валют конвертации
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// ExchangeRateService управляет получением и хранением курсов валют
type ExchangeRateService struct {
	rateRepo  repository.ExchangeRateRepository
	apiClient ExchangeRateAPIClient
}

// NewExchangeRateService создает новый сервис курсов валют
func NewExchangeRateService(
	rateRepo repository.ExchangeRateRepository,
	apiClient ExchangeRateAPIClient,
) *ExchangeRateService {
	return &ExchangeRateService{
		rateRepo:  rateRepo,
		apiClient: apiClient,
	}
}

// FetchAndStoreRates получает курсы валют из внешнего API и сохраняет в Redis
// Вызывается по cron расписанию и один раз при старте
func (s *ExchangeRateService) FetchAndStoreRates(ctx context.Context) error {
	logger.Info().Msg("Fetching exchange rates from API")

	rates, err := s.apiClient.FetchRates(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to fetch rates from API, keeping cached rates")
		metrics.WorkerExchangeRateUpdates.WithLabelValues("failed").Inc()

		// Worker продолжает работать с кешированными курсами, пока они живы
		return nil
	}

	exchangeRates := make([]*entity.ExchangeRate, 0, len(rates))
	now := time.Now()

	for currency, rate := range rates {
		exchangeRates = append(exchangeRates, &entity.ExchangeRate{
			Currency:  currency,
			Rate:      decimal.NewFromFloat(rate),
			UpdatedAt: now,
		})
	}

	if err := s.rateRepo.SetMultiple(ctx, exchangeRates); err != nil {
		metrics.WorkerExchangeRateUpdates.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to store rates in redis: %w", err)
	}

	metrics.WorkerExchangeRateUpdates.WithLabelValues("success").Inc()
	logger.Info().Int("count", len(exchangeRates)).Msg("Stored exchange rates")
	return nil
}

// GetRate получает курс валюты из Redis
func (s *ExchangeRateService) GetRate(ctx context.Context, currency string) (*entity.ExchangeRate, error) {
	rate, err := s.rateRepo.Get(ctx, currency)
	if err != nil {
		if errors.Is(err, repository.ErrRateNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRateUnavailable, currency)
		}
		return nil, fmt.Errorf("failed to get rate for %s: %w", currency, err)
	}

	// TTL 30 минут, курс старше часа означает что API давно недоступен
	if age := time.Since(rate.UpdatedAt); age > 2*time.Hour {
		logger.Warn().
			Str("currency", currency).
			Dur("age", age).
			Msg("Using outdated exchange rate")
	}

	return rate, nil
}

// ConvertCurrency конвертирует сумму из одной валюты в другую
// Курс API - единиц валюты за 1 USD, поэтому amount * (toRate / fromRate)
func (s *ExchangeRateService) ConvertCurrency(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (decimal.Decimal, decimal.Decimal, error) {
	if fromCurrency == toCurrency {
		return amount, decimal.NewFromInt(1), nil
	}

	rates, err := s.rateRepo.GetMultiple(ctx, []string{fromCurrency, toCurrency})
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to get rates for conversion: %w", err)
	}

	fromRate, ok := rates[fromCurrency]
	if !ok {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, fromCurrency)
	}

	toRate, ok := rates[toCurrency]
	if !ok {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, toCurrency)
	}

	if fromRate.Rate.IsZero() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("zero rate for %s", fromCurrency)
	}

	// 16 знаков достаточно для любой пары фиат/крипто
	exchangeRate := toRate.Rate.DivRound(fromRate.Rate, 16)
	convertedAmount := amount.Mul(exchangeRate)

	return convertedAmount, exchangeRate, nil
}

// EnsureRatesAvailable проверяет наличие курсов в Redis
// Если какого-то курса нет, запрашивает весь набор из API
func (s *ExchangeRateService) EnsureRatesAvailable(ctx context.Context) error {
	for _, currency := range entity.SupportedCurrencies {
		exists, err := s.rateRepo.Exists(ctx, currency)
		if err != nil {
			return fmt.Errorf("failed to check rate existence: %w", err)
		}

		if !exists {
			logger.Info().Str("currency", currency).Msg("Rate missing, fetching from API")
			return s.FetchAndStoreRates(ctx)
		}
	}

	return nil
}
