package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"botbazaar/payment-worker-service/internal/app/payment-worker/entity"
	"botbazaar/payment-worker-service/internal/app/payment-worker/service"
	"botbazaar/pkg/logger"
	"botbazaar/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

// KafkaConsumer обрабатывает наблюдения платежей из топика payment_events
type KafkaConsumer struct {
	reader      *kafka.Reader
	feedSvc     service.SettlementFeedServiceInterface
	exchangeSvc service.ExchangeRateServiceInterface
	groupID     string
	stopChan    chan struct{}
	doneChan    chan struct{}
}

// NewKafkaConsumer создает новый Kafka consumer
func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	feedSvc service.SettlementFeedServiceInterface,
	exchangeSvc service.ExchangeRateServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    minBytes,
		MaxBytes:    maxBytes,
		StartOffset: kafka.LastOffset,
		// Offset коммитится вручную после успешной обработки
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &KafkaConsumer{
		reader:      reader,
		feedSvc:     feedSvc,
		exchangeSvc: exchangeSvc,
		groupID:     groupID,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Msg("Starting Kafka consumer")

	// Курсы должны быть в кеше до первого платежа
	if err := c.exchangeSvc.EnsureRatesAvailable(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to ensure exchange rates available")
	}

	go c.consume(ctx)
}

// Stop останавливает consumer
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer")
	close(c.stopChan)
	<-c.doneChan
	c.reader.Close()
	logger.Info().Msg("Kafka consumer stopped")
}

// consume читает и обрабатывает сообщения из Kafka
func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}

				logger.Error().Err(err).Msg("Error fetching message")
				time.Sleep(time.Second)
				continue
			}

			start := time.Now()
			if err := c.processMessage(ctx, message); err != nil {
				logger.Error().Err(err).
					Int64("offset", message.Offset).
					Msg("Error processing message")
				metrics.RecordKafkaError("payment-worker-service", message.Topic, "process")
				// Offset не коммитится - сообщение будет доставлено повторно
			} else {
				metrics.RecordKafkaMessageConsumed("payment-worker-service", message.Topic, c.groupID, time.Since(start))
				if err := c.reader.CommitMessages(ctx, message); err != nil {
					logger.Error().Err(err).Msg("Error committing message")
				}
			}
		}
	}
}

// processMessage обрабатывает одно наблюдение платежа
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.PaymentEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		// Битый JSON не станет валидным при редоставке, логируем и пропускаем
		logger.Error().Err(err).
			Int64("offset", message.Offset).
			Msg("Skipping malformed payment event")
		return nil
	}

	logger.Info().
		Str("order_id", event.OrderID.String()).
		Str("amount", event.Amount.String()).
		Str("pay_currency", event.PayCurrency).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received payment observation")

	if err := c.feedSvc.ProcessPaymentEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to process payment event: %w", err)
	}

	return nil
}

// GetStats возвращает статистику consumer
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
