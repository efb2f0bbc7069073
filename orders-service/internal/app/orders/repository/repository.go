package repository

import (
	"context"
	"errors"
	"time"

	"botbazaar/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrOrderNotFound = errors.New("order not found")

	// ErrVersionConflict - CAS по version не сработал: заказ изменили параллельно
	ErrVersionConflict = errors.New("order was modified concurrently")

	// ErrNotDispatchable - условный UPDATE отправки не нашел заказ
	// в подходящем статусе (гонка отправки или заказ не оплачен)
	ErrNotDispatchable = errors.New("order is not in a dispatchable status")
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	List(ctx context.Context, filter entity.OrderFilter) ([]entity.Order, error)

	// UpdateSettlement записывает amount_paid и status через CAS по version
	// Возвращает ErrVersionConflict, если version в БД уже другой
	UpdateSettlement(ctx context.Context, order *entity.Order) error

	// Dispatch атомарно переводит заказ в dispatched условным UPDATE по статусу
	// При allowOverpaid=false отправляется только paid
	Dispatch(ctx context.Context, id uuid.UUID, at time.Time, allowOverpaid bool) error
}

// StatsRepository - read-only агрегаты для дашборда
// botID == nil означает глобальную статистику платформы
type StatsRepository interface {
	TotalSales(ctx context.Context, botID *uuid.UUID) (decimal.Decimal, error)
	CountOrders(ctx context.Context, botID *uuid.UUID) (int64, error)
	RecentOrders(ctx context.Context, botID *uuid.UUID, limit int) ([]entity.Order, error)
}
