package processor

import (
	"context"

	"botbazaar/payment-worker-service/internal/app/payment-worker/service"
	"botbazaar/pkg/logger"

	"github.com/robfig/cron/v3"
)

type CronScheduler struct {
	cron        *cron.Cron
	exchangeSvc service.ExchangeRateServiceInterface
}

func NewCronScheduler(exchangeSvc service.ExchangeRateServiceInterface) *CronScheduler {
	// Расписание с секундами, как "0 */30 * * * *"
	c := cron.New(cron.WithSeconds())

	return &CronScheduler{
		cron:        c,
		exchangeSvc: exchangeSvc,
	}
}

func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		logger.Info().Msg("Cron job triggered: updating exchange rates")

		if err := s.exchangeSvc.FetchAndStoreRates(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to update exchange rates")
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()

	// Первичная загрузка курсов, не дожидаясь расписания
	logger.Info().Msg("Performing initial exchange rates update")
	if err := s.exchangeSvc.FetchAndStoreRates(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed initial exchange rates update")
	}

	return nil
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
