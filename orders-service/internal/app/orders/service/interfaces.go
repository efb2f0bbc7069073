package service

import (
	"context"

	"botbazaar/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
)

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, botID uuid.UUID, req *entity.CreateOrderRequest, authToken string) (*entity.Order, error)
	RecordPayment(ctx context.Context, orderID uuid.UUID, req *entity.RecordPaymentRequest) (*entity.Order, error)
	Dispatch(ctx context.Context, orderID uuid.UUID) (*entity.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*entity.Order, error)
	ListOrders(ctx context.Context, filter entity.OrderFilter) ([]entity.Order, error)
}

type StatsServiceInterface interface {
	GetStats(ctx context.Context, botID *uuid.UUID) (*entity.BotStats, error)
}
