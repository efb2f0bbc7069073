package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"botbazaar/payment-worker-service/internal/app/payment-worker/service"
	"botbazaar/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// HealthCheckHandler отдает состояние зависимостей worker-а
// Это не gin-сервис: достаточно net/http с ServeMux
type HealthCheckHandler struct {
	redisClient *redis.Client
	mongoClient *mongo.Client
	exchangeSvc service.ExchangeRateServiceInterface
}

func NewHealthCheckHandler(
	redisClient *redis.Client,
	mongoClient *mongo.Client,
	exchangeSvc service.ExchangeRateServiceInterface,
) *HealthCheckHandler {
	return &HealthCheckHandler{
		redisClient: redisClient,
		mongoClient: mongoClient,
		exchangeSvc: exchangeSvc,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

func (h *HealthCheckHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	overallStatus := "healthy"

	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		checks["redis"] = "unhealthy: " + err.Error()
		overallStatus = "unhealthy"
	} else {
		checks["redis"] = "healthy"
	}

	if err := h.mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		checks["mongodb"] = "unhealthy: " + err.Error()
		overallStatus = "unhealthy"
	} else {
		checks["mongodb"] = "healthy"
	}

	if err := h.checkExchangeRates(ctx); err != nil {
		// Устаревшие курсы - предупреждение, worker продолжает работать
		checks["exchange_rates"] = "warning: " + err.Error()
	} else {
		checks["exchange_rates"] = "healthy"
	}

	response := HealthResponse{
		Status:    overallStatus,
		Checks:    checks,
		Timestamp: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")

	if overallStatus != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (h *HealthCheckHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}

func (h *HealthCheckHandler) checkExchangeRates(ctx context.Context) error {
	rate, err := h.exchangeSvc.GetRate(ctx, "USD")
	if err != nil {
		return err
	}

	if age := time.Since(rate.UpdatedAt); age > 2*time.Hour {
		logger.Warn().Dur("age", age).Msg("Exchange rate for USD is outdated")
	}

	return nil
}

func (h *HealthCheckHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/health/liveness", h.Liveness)
	mux.Handle("/metrics", promhttp.Handler())
}
