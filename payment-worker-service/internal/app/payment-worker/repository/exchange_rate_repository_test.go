package repository

import (
	"context"
	"testing"
	"time"

	"botbazaar/payment-worker-service/internal/app/payment-worker/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ExchangeRateRepositoryTestSuite тестовый suite для Redis repository
type ExchangeRateRepositoryTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	repo      ExchangeRateRepository
}

func TestExchangeRateRepositorySuite(t *testing.T) {
	suite.Run(t, new(ExchangeRateRepositoryTestSuite))
}

func (s *ExchangeRateRepositoryTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{
		Addr: s.miniRedis.Addr(),
	})

	s.repo = NewExchangeRateRepository(s.client, 30*time.Minute)
}

func (s *ExchangeRateRepositoryTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *ExchangeRateRepositoryTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

func (s *ExchangeRateRepositoryTestSuite) seedRates(rates map[string]string) {
	ctx := context.Background()
	now := time.Now()

	batch := make([]*entity.ExchangeRate, 0, len(rates))
	for currency, rate := range rates {
		batch = append(batch, &entity.ExchangeRate{
			Currency:  currency,
			Rate:      decimal.RequireFromString(rate),
			UpdatedAt: now,
		})
	}
	s.Require().NoError(s.repo.SetMultiple(ctx, batch))
}

// ===================== Get Tests =====================

func (s *ExchangeRateRepositoryTestSuite) TestGet_Success() {
	ctx := context.Background()
	s.seedRates(map[string]string{"USD": "1.0"})

	// Act
	result, err := s.repo.Get(ctx, "USD")

	// Assert
	s.NoError(err)
	s.NotNil(result)
	s.Equal("USD", result.Currency)
	s.True(result.Rate.Equal(decimal.RequireFromString("1.0")))
}

func (s *ExchangeRateRepositoryTestSuite) TestGet_NotFound() {
	ctx := context.Background()

	// Act
	result, err := s.repo.Get(ctx, "XYZ")

	// Assert
	s.ErrorIs(err, ErrRateNotFound)
	s.Nil(result)
}

func (s *ExchangeRateRepositoryTestSuite) TestGet_CryptoRatePrecisionPreserved() {
	ctx := context.Background()
	// Курс BTC относительно USD - очень маленькое число
	s.seedRates(map[string]string{"BTC": "0.0000162512"})

	// Act
	result, err := s.repo.Get(ctx, "BTC")

	// Assert
	s.NoError(err)
	s.True(result.Rate.Equal(decimal.RequireFromString("0.0000162512")))
}

// ===================== SetMultiple Tests =====================

func (s *ExchangeRateRepositoryTestSuite) TestSetMultiple_StoresAllWithTTL() {
	ctx := context.Background()
	s.seedRates(map[string]string{"USD": "1.0", "EUR": "0.93", "BTC": "0.000016"})

	// Assert - все курсы доступны
	for _, currency := range []string{"USD", "EUR", "BTC"} {
		exists, err := s.repo.Exists(ctx, currency)
		s.NoError(err)
		s.True(exists, "rate for %s should exist", currency)
	}

	// TTL выставлен на каждом ключе
	s.Positive(s.miniRedis.TTL(entity.GetRedisKeyForRate("EUR")))
}

func (s *ExchangeRateRepositoryTestSuite) TestRatesExpireAfterTTL() {
	ctx := context.Background()
	s.seedRates(map[string]string{"USD": "1.0"})

	// Перематываем время за границу TTL
	s.miniRedis.FastForward(31 * time.Minute)

	// Act
	result, err := s.repo.Get(ctx, "USD")

	// Assert
	s.ErrorIs(err, ErrRateNotFound)
	s.Nil(result)
}

// ===================== GetMultiple Tests =====================

func (s *ExchangeRateRepositoryTestSuite) TestGetMultiple_SkipsMissing() {
	ctx := context.Background()
	s.seedRates(map[string]string{"USD": "1.0", "EUR": "0.93"})

	// Act - запрашиваем три валюты, одной нет
	result, err := s.repo.GetMultiple(ctx, []string{"USD", "EUR", "GBP"})

	// Assert
	s.NoError(err)
	s.Len(result, 2)
	s.Contains(result, "USD")
	s.Contains(result, "EUR")
	s.NotContains(result, "GBP")
}

// ===================== Exists Tests =====================

func (s *ExchangeRateRepositoryTestSuite) TestExists() {
	ctx := context.Background()
	s.seedRates(map[string]string{"USD": "1.0"})

	exists, err := s.repo.Exists(ctx, "USD")
	s.NoError(err)
	s.True(exists)

	exists, err = s.repo.Exists(ctx, "JPY")
	s.NoError(err)
	s.False(exists)
}
