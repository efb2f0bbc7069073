package service

import (
	"context"
	"testing"

	"botbazaar/orders-service/internal/app/orders/entity"
	"botbazaar/orders-service/internal/app/orders/repository/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsService_GetStats_ComputesCommission(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	statsRepo := new(mocks.MockStatsRepository)
	svc := NewStatsService(statsRepo, decimal.RequireFromString("1.5"))

	recent := []entity.Order{{ID: uuid.New(), Status: entity.OrderStatusPaid}}

	statsRepo.On("TotalSales", ctx, &botID).Return(decimal.RequireFromString("1000.00"), nil)
	statsRepo.On("CountOrders", ctx, &botID).Return(int64(20), nil)
	statsRepo.On("RecentOrders", ctx, &botID, recentOrdersLimit).Return(recent, nil)

	// Act
	stats, err := svc.GetStats(ctx, &botID)

	// Assert: комиссия 1.5% от 1000.00
	require.NoError(t, err)
	assert.True(t, stats.TotalSales.Equal(decimal.RequireFromString("1000.00")))
	assert.Equal(t, int64(20), stats.TotalOrders)
	assert.True(t, stats.CommissionEarned.Equal(decimal.RequireFromString("15")))
	assert.Len(t, stats.RecentOrders, 1)
}

func TestStatsService_GetStats_Global(t *testing.T) {
	// nil botID - агрегаты по всей платформе
	ctx := context.Background()
	statsRepo := new(mocks.MockStatsRepository)
	svc := NewStatsService(statsRepo, decimal.RequireFromString("1.0"))

	statsRepo.On("TotalSales", ctx, (*uuid.UUID)(nil)).Return(decimal.Zero, nil)
	statsRepo.On("CountOrders", ctx, (*uuid.UUID)(nil)).Return(int64(0), nil)
	statsRepo.On("RecentOrders", ctx, (*uuid.UUID)(nil), recentOrdersLimit).Return([]entity.Order{}, nil)

	// Act
	stats, err := svc.GetStats(ctx, nil)

	// Assert
	require.NoError(t, err)
	assert.True(t, stats.TotalSales.IsZero())
	assert.True(t, stats.CommissionEarned.IsZero())
	assert.Empty(t, stats.RecentOrders)
}
