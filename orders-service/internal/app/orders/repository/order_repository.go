package repository

import (
	"context"
	"errors"
	"time"

	"botbazaar/orders-service/internal/app/orders/entity"
	"botbazaar/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB // GORM DB для работы с PostgreSQL
}

// NewOrderRepository создает новый репозиторий заказов
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create создает новый заказ в PostgreSQL
func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	timer := metrics.NewDbTimer("orders-service", metrics.DbOpInsert, "orders")
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Create(order)
	if result.Error != nil {
		metrics.RecordDbError("orders-service", metrics.DbOpInsert)
	}
	return result.Error
}

// GetByID получает заказ по ID из PostgreSQL
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	timer := metrics.NewDbTimer("orders-service", metrics.DbOpSelect, "orders")
	defer timer.ObserveDuration()

	var order entity.Order
	result := r.db.WithContext(ctx).First(&order, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}

	return &order, nil
}

// List получает заказы по фильтру в обратном хронологическом порядке
func (r *orderRepository) List(ctx context.Context, filter entity.OrderFilter) ([]entity.Order, error) {
	timer := metrics.NewDbTimer("orders-service", metrics.DbOpSelect, "orders")
	defer timer.ObserveDuration()

	query := r.db.WithContext(ctx).Model(&entity.Order{})

	if filter.BotID != nil {
		query = query.Where("bot_id = ?", *filter.BotID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var orders []entity.Order
	result := query.Order("created_at DESC").Find(&orders)
	if result.Error != nil {
		return nil, result.Error
	}

	return orders, nil
}

// UpdateSettlement записывает результат RecordPayment через CAS по version
// UPDATE срабатывает только если version не изменился с момента чтения;
// иначе заказ поменяли параллельно и вызывающий должен перечитать и повторить
func (r *orderRepository) UpdateSettlement(ctx context.Context, order *entity.Order) error {
	timer := metrics.NewDbTimer("orders-service", metrics.DbOpUpdate, "orders")
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"amount_paid": order.AmountPaid,
			"status":      order.Status,
			"version":     gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		metrics.RecordDbError("orders-service", metrics.DbOpUpdate)
		return result.Error
	}

	if result.RowsAffected == 0 {
		// Либо заказа нет, либо version устарел - различаем перечитыванием
		var exists int64
		if err := r.db.WithContext(ctx).Model(&entity.Order{}).
			Where("id = ?", order.ID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return ErrOrderNotFound
		}
		return ErrVersionConflict
	}

	order.Version++
	return nil
}

// Dispatch атомарно переводит заказ в dispatched
// Условный UPDATE по статусу гарантирует, что из двух конкурентных отправок
// сработает ровно одна: проигравшая не найдет строку в допустимом статусе
func (r *orderRepository) Dispatch(ctx context.Context, id uuid.UUID, at time.Time, allowOverpaid bool) error {
	timer := metrics.NewDbTimer("orders-service", metrics.DbOpUpdate, "orders")
	defer timer.ObserveDuration()

	statuses := []entity.OrderStatus{entity.OrderStatusPaid}
	if allowOverpaid {
		statuses = append(statuses, entity.OrderStatusOverpaid)
	}

	result := r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("id = ? AND status IN ?", id, statuses).
		Updates(map[string]interface{}{
			"status":        entity.OrderStatusDispatched,
			"dispatched_at": at,
			"version":       gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		metrics.RecordDbError("orders-service", metrics.DbOpUpdate)
		return result.Error
	}

	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&entity.Order{}).
			Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return ErrOrderNotFound
		}
		return ErrNotDispatchable
	}

	return nil
}
