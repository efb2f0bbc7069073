package service

import (
	"context"
	"fmt"

	"botbazaar/orders-service/internal/app/orders/entity"
	"botbazaar/orders-service/internal/app/orders/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// recentOrdersLimit - размер ленты последних заказов на дашборде
const recentOrdersLimit = 5

// StatsService собирает read-only агрегаты для дашборда мерчанта
// Никогда не мутирует состояние заказов
type StatsService struct {
	statsRepo repository.StatsRepository

	// commissionPercent - процент комиссии платформы с продаж
	commissionPercent decimal.Decimal
}

// NewStatsService создает сервис статистики
func NewStatsService(statsRepo repository.StatsRepository, commissionPercent decimal.Decimal) *StatsService {
	return &StatsService{
		statsRepo:         statsRepo,
		commissionPercent: commissionPercent,
	}
}

// GetStats возвращает агрегаты по боту, либо глобальные при botID == nil
// total_sales суммирует снапшоты цен оплаченных заказов; недоплаченные
// и неоплаченные заказы дают нулевой вклад
func (s *StatsService) GetStats(ctx context.Context, botID *uuid.UUID) (*entity.BotStats, error) {
	totalSales, err := s.statsRepo.TotalSales(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate total sales: %w", err)
	}

	totalOrders, err := s.statsRepo.CountOrders(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	recent, err := s.statsRepo.RecentOrders(ctx, botID, recentOrdersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}

	commission := totalSales.Mul(s.commissionPercent).Div(decimal.NewFromInt(100))

	return &entity.BotStats{
		TotalSales:       totalSales,
		TotalOrders:      totalOrders,
		CommissionEarned: commission,
		RecentOrders:     recent,
	}, nil
}
