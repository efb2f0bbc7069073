package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"botbazaar/orders-service/internal/app/orders/entity"
	"botbazaar/orders-service/internal/app/orders/infrastructure"
	infrahttp "botbazaar/orders-service/internal/app/orders/infrastructure/http"
	"botbazaar/orders-service/internal/app/orders/repository"
	"botbazaar/pkg/logger"
	"botbazaar/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrOrderNotFound    = errors.New("order not found")
	ErrProductNotFound  = errors.New("product not found in catalog")
	ErrTierNotFound     = errors.New("price tier does not belong to product")
	ErrInvalidAmount    = errors.New("payment amount must be positive")
	ErrCurrencyMismatch = errors.New("payment currency does not match order currency")
	ErrInvalidState     = errors.New("order status does not allow this operation")
	ErrConflict         = errors.New("order was modified concurrently, retry")
)

// settlementRetries - число повторов read-modify-write при проигранном CAS
// Повторы с перечитыванием сходятся, потому что накопление коммутативно;
// устойчивый проигрыш отдается наружу как ErrConflict
const settlementRetries = 3

// defaultListLimit ограничивает выборку заказов без явного лимита
const defaultListLimit = 50

// OrderService обрабатывает бизнес-логику расчета заказов
// Координирует репозиторий, Catalog Service и Kafka
type OrderService struct {
	orderRepo     repository.OrderRepository
	catalogClient infrastructure.CatalogServiceClient
	kafkaProducer infrastructure.MessagePublisher

	// dispatchOverpaid разрешает отправку переплаченных заказов
	dispatchOverpaid bool
}

// NewOrderService создает новый сервис заказов с внедрением зависимостей
func NewOrderService(
	orderRepo repository.OrderRepository,
	catalogClient infrastructure.CatalogServiceClient,
	kafkaProducer infrastructure.MessagePublisher,
	dispatchOverpaid bool,
) *OrderService {
	return &OrderService{
		orderRepo:        orderRepo,
		catalogClient:    catalogClient,
		kafkaProducer:    kafkaProducer,
		dispatchOverpaid: dispatchOverpaid,
	}
}

// CreateOrder создает заказ на один товар по выбранному уровню цены
// 1. Получает товар из Catalog Service и проверяет принадлежность уровня
// 2. Снапшотит имя, единицу и цену - правки каталога не влияют на заказ
// 3. Сохраняет заказ в статусе pending_payment
// 4. Отправляет событие ORDER_CREATED в Kafka
func (s *OrderService) CreateOrder(ctx context.Context, botID uuid.UUID, req *entity.CreateOrderRequest, authToken string) (*entity.Order, error) {
	// Токен пользователя проксируется в Catalog Service
	s.catalogClient.SetAuthToken(authToken)

	product, err := s.catalogClient.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, infrahttp.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product from catalog: %w", err)
	}

	tier, ok := product.FindTier(req.TierID)
	if !ok {
		return nil, ErrTierNotFound
	}

	order := &entity.Order{
		ID:              uuid.New(),
		BotID:           botID,
		ProductID:       product.ID,
		ProductName:     product.Name,
		Unit:            product.Unit,
		TierLabel:       tier.Label,
		ExpectedPrice:   tier.Amount,
		Currency:        req.Currency,
		AmountPaid:      decimal.Zero,
		Status:          entity.OrderStatusPendingPayment,
		ChatID:          req.ChatID,
		BuyerUsername:   req.BuyerUsername,
		ShippingAddress: req.ShippingAddress,
		CustomerNote:    req.CustomerNote,
		CreatedAt:       time.Now(),
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	metrics.OrdersCreated.Inc()
	s.publishEvent(ctx, "ORDER_CREATED", order)

	return order, nil
}

// RecordPayment учитывает наблюдение платежа и переклассифицирует заказ
// Суммы накапливаются: повторные частичные платежи двигают заказ от
// underpaid к paid/overpaid. Сериализация через CAS по version: проигранная
// гонка перечитывает заказ и повторяет, устойчивый проигрыш - ErrConflict
func (s *OrderService) RecordPayment(ctx context.Context, orderID uuid.UUID, req *entity.RecordPaymentRequest) (*entity.Order, error) {
	if req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	for attempt := 0; attempt < settlementRetries; attempt++ {
		order, err := s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return nil, ErrOrderNotFound
			}
			return nil, fmt.Errorf("failed to get order: %w", err)
		}

		// Отправленный заказ money-неизменяем
		if order.Status == entity.OrderStatusDispatched {
			return nil, ErrInvalidState
		}

		if req.Currency != order.Currency {
			return nil, ErrCurrencyMismatch
		}

		order.AmountPaid = order.AmountPaid.Add(req.Amount)
		order.Status = entity.ClassifyPayment(order.ExpectedPrice, order.AmountPaid, order.Currency)

		err = s.orderRepo.UpdateSettlement(ctx, order)
		if err == nil {
			metrics.OrdersSettled.WithLabelValues(string(order.Status)).Inc()
			logger.Info().
				Str("order_id", order.ID.String()).
				Str("amount_paid", order.AmountPaid.String()).
				Str("status", string(order.Status)).
				Msg("Recorded payment")

			s.publishEvent(ctx, "ORDER_UPDATED", order)
			return order, nil
		}

		if errors.Is(err, repository.ErrVersionConflict) {
			metrics.OrdersConflicts.WithLabelValues("record_payment").Inc()
			continue
		}
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order settlement: %w", err)
	}

	return nil, ErrConflict
}

// Dispatch переводит заказ в терминальный статус dispatched
// Разрешен из paid, из overpaid - если позволяет политика dispatchOverpaid
// Конкурентные отправки разрешаются условным UPDATE: срабатывает ровно одна
func (s *OrderService) Dispatch(ctx context.Context, orderID uuid.UUID) (*entity.Order, error) {
	err := s.orderRepo.Dispatch(ctx, orderID, time.Now(), s.dispatchOverpaid)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		if errors.Is(err, repository.ErrNotDispatchable) {
			metrics.OrdersConflicts.WithLabelValues("dispatch").Inc()
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("failed to dispatch order: %w", err)
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload dispatched order: %w", err)
	}

	metrics.OrdersDispatched.Inc()
	logger.Info().
		Str("order_id", order.ID.String()).
		Msg("Dispatched order")

	s.publishEvent(ctx, "ORDER_DISPATCHED", order)

	return order, nil
}

// GetOrder получает заказ по ID
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// ListOrders возвращает заказы по фильтру, новые первыми
func (s *OrderService) ListOrders(ctx context.Context, filter entity.OrderFilter) ([]entity.Order, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// publishEvent отправляет событие заказа в Kafka
// Ошибки публикации логируются, но не прерывают операцию:
// состояние в БД первично, события - производный поток
func (s *OrderService) publishEvent(ctx context.Context, eventType string, order *entity.Order) {
	event := entity.OrderEvent{
		EventType:     eventType,
		OrderID:       order.ID,
		BotID:         order.BotID,
		ProductID:     order.ProductID,
		ExpectedPrice: order.ExpectedPrice,
		AmountPaid:    order.AmountPaid,
		Currency:      order.Currency,
		Status:        order.Status,
		Timestamp:     time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("Failed to marshal order event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, order.ID.String(), data); err != nil {
		logger.Warn().Err(err).
			Str("order_id", order.ID.String()).
			Str("event_type", eventType).
			Msg("Failed to publish order event")
	}
}
