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
)

// ErrInvalidObservation - IPN-сообщение не проходит базовую проверку
var ErrInvalidObservation = errors.New("invalid payment observation")

// SettlementFeedService обрабатывает наблюдения платежей из Kafka
// Для каждого IPN-сообщения: конвертирует сумму в валюту прайса заказа,
// отправляет ее в Orders Service и архивирует сырое наблюдение в MongoDB
type SettlementFeedService struct {
	exchangeSvc     ExchangeRateServiceInterface
	ordersClient    OrdersAPIClient
	observationRepo repository.ObservationRepository
}

// NewSettlementFeedService создает новый сервис ленты платежей
func NewSettlementFeedService(
	exchangeSvc ExchangeRateServiceInterface,
	ordersClient OrdersAPIClient,
	observationRepo repository.ObservationRepository,
) *SettlementFeedService {
	return &SettlementFeedService{
		exchangeSvc:     exchangeSvc,
		ordersClient:    ordersClient,
		observationRepo: observationRepo,
	}
}

// ProcessPaymentEvent обрабатывает одно наблюдение платежа
// Ошибка возвращается наверх consumer-у: offset не коммитится и сообщение
// будет доставлено повторно. Наблюдение архивируется в любом исходе
func (s *SettlementFeedService) ProcessPaymentEvent(ctx context.Context, event *entity.PaymentEvent) error {
	start := time.Now()
	defer func() {
		metrics.WorkerProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	observation := &entity.PaymentObservation{
		OrderID:     event.OrderID.String(),
		TxID:        event.TxID,
		Amount:      event.Amount.String(),
		PayCurrency: event.PayCurrency,
		ReceivedAt:  event.ReceivedAt,
	}

	err := s.settle(ctx, event, observation)

	observation.ProcessedAt = time.Now()
	if err != nil {
		observation.Status = entity.ObservationStatusFailed
		observation.Error = err.Error()
		metrics.WorkerPaymentsProcessed.WithLabelValues("failed").Inc()
	} else {
		observation.Status = entity.ObservationStatusProcessed
		metrics.WorkerPaymentsProcessed.WithLabelValues("success").Inc()
	}

	// Архив пишется в любом исходе. Если платеж уже учтен, ошибка архива
	// не возвращается: редоставка задвоила бы сумму в заказе
	if insertErr := s.observationRepo.Insert(ctx, observation); insertErr != nil {
		logger.Error().Err(insertErr).
			Str("order_id", observation.OrderID).
			Msg("Failed to archive payment observation")
	}

	// Несуществующий заказ и поздний платеж не лечатся редоставкой:
	// наблюдение осело в архиве, offset можно коммитить
	if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrOrderConflict) || errors.Is(err, ErrInvalidObservation) {
		return nil
	}

	return err
}

// settle конвертирует и отправляет платеж, заполняя поля наблюдения
func (s *SettlementFeedService) settle(ctx context.Context, event *entity.PaymentEvent, observation *entity.PaymentObservation) error {
	if event.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: non-positive amount %s for order %s", ErrInvalidObservation, event.Amount, event.OrderID)
	}

	order, err := s.ordersClient.GetOrder(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			// Заказ не существует, повторная доставка не поможет
			logger.Warn().
				Str("order_id", event.OrderID.String()).
				Msg("Payment observation for unknown order, archiving as failed")
			return err
		}
		return fmt.Errorf("failed to get order %s: %w", event.OrderID, err)
	}

	converted, rate, err := s.exchangeSvc.ConvertCurrency(ctx, event.Amount, event.PayCurrency, order.Currency)
	if err != nil {
		return fmt.Errorf("failed to convert %s %s to %s: %w", event.Amount, event.PayCurrency, order.Currency, err)
	}

	observation.ConvertedAmount = converted.String()
	observation.OrderCurrency = order.Currency
	observation.ExchangeRate = rate.String()

	if err := s.ordersClient.RecordPayment(ctx, event.OrderID, converted, order.Currency); err != nil {
		if errors.Is(err, ErrOrderConflict) {
			// Заказ уже отправлен: деньги пришли слишком поздно, фиксируем в архиве
			logger.Warn().
				Str("order_id", event.OrderID.String()).
				Str("amount", converted.String()).
				Msg("Payment observation rejected, order already settled")
			return err
		}
		return fmt.Errorf("failed to record payment for order %s: %w", event.OrderID, err)
	}

	logger.Info().
		Str("order_id", event.OrderID.String()).
		Str("paid", event.Amount.String()+" "+event.PayCurrency).
		Str("converted", converted.String()+" "+order.Currency).
		Str("rate", rate.String()).
		Msg("Payment observation settled")

	return nil
}
