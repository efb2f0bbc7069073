package repository

import (
	"context"

	"botbazaar/orders-service/internal/app/orders/entity"
	"botbazaar/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// settledStatuses - статусы, в которых цена заказа считается выручкой
// underpaid и pending_payment в продажи не входят
var settledStatuses = []entity.OrderStatus{
	entity.OrderStatusPaid,
	entity.OrderStatusOverpaid,
	entity.OrderStatusDispatched,
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository создает репозиторий агрегатов дашборда
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

// TotalSales возвращает SUM(expected_price) по оплаченным заказам
// Суммируется снапшот цены, а не amount_paid: переплата не является выручкой
func (r *statsRepository) TotalSales(ctx context.Context, botID *uuid.UUID) (decimal.Decimal, error) {
	timer := metrics.NewDbTimer("orders-service", metrics.DbOpSelect, "orders")
	defer timer.ObserveDuration()

	query := r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("status IN ?", settledStatuses)
	if botID != nil {
		query = query.Where("bot_id = ?", *botID)
	}

	// NUMERIC сканируем строкой, чтобы не терять точность
	var total struct {
		Total string
	}
	result := query.Select("COALESCE(SUM(expected_price), 0) AS total").Scan(&total)
	if result.Error != nil {
		return decimal.Zero, result.Error
	}

	return decimal.NewFromString(total.Total)
}

// CountOrders возвращает число всех заказов, включая неоплаченные
func (r *statsRepository) CountOrders(ctx context.Context, botID *uuid.UUID) (int64, error) {
	timer := metrics.NewDbTimer("orders-service", metrics.DbOpSelect, "orders")
	defer timer.ObserveDuration()

	query := r.db.WithContext(ctx).Model(&entity.Order{})
	if botID != nil {
		query = query.Where("bot_id = ?", *botID)
	}

	var count int64
	result := query.Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

// RecentOrders возвращает последние заказы, новые первыми
func (r *statsRepository) RecentOrders(ctx context.Context, botID *uuid.UUID, limit int) ([]entity.Order, error) {
	timer := metrics.NewDbTimer("orders-service", metrics.DbOpSelect, "orders")
	defer timer.ObserveDuration()

	query := r.db.WithContext(ctx).Model(&entity.Order{})
	if botID != nil {
		query = query.Where("bot_id = ?", *botID)
	}

	var orders []entity.Order
	result := query.Order("created_at DESC").Limit(limit).Find(&orders)
	if result.Error != nil {
		return nil, result.Error
	}

	return orders, nil
}
