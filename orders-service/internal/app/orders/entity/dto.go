package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	ProductID       uuid.UUID `json:"product_id" validate:"required"`
	TierID          uuid.UUID `json:"tier_id" validate:"required"`
	Currency        string    `json:"currency" validate:"required,min=3,max=10"` // Валюта прайса бота (USD, EUR, BTC...)
	ChatID          string    `json:"chat_id" validate:"required,max=64"`
	BuyerUsername   string    `json:"buyer_username" validate:"omitempty,max=100"`
	ShippingAddress string    `json:"shipping_address" validate:"omitempty,max=2000"`
	CustomerNote    string    `json:"customer_note" validate:"omitempty,max=2000"`
}

// RecordPaymentRequest - наблюдение платежа от payment-worker
// Amount уже сконвертирована в валюту заказа
type RecordPaymentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"required,min=3,max=10"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// OrderResponse - заказ с производными полями недоплаты/переплаты
type OrderResponse struct {
	ID              uuid.UUID       `json:"id"`
	BotID           uuid.UUID       `json:"bot_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Unit            string          `json:"unit"`
	TierLabel       string          `json:"tier_label"`
	ExpectedPrice   decimal.Decimal `json:"expected_price"`
	Currency        string          `json:"currency"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	Shortfall       decimal.Decimal `json:"shortfall"`
	Excess          decimal.Decimal `json:"excess"`
	Status          OrderStatus     `json:"status"`
	ChatID          string          `json:"chat_id"`
	BuyerUsername   string          `json:"buyer_username,omitempty"`
	ShippingAddress string          `json:"shipping_address,omitempty"`
	CustomerNote    string          `json:"customer_note,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	DispatchedAt    *time.Time      `json:"dispatched_at,omitempty"`
}

// BuildOrderResponse собирает ответ API из модели заказа
func BuildOrderResponse(order *Order) OrderResponse {
	return OrderResponse{
		ID:              order.ID,
		BotID:           order.BotID,
		ProductID:       order.ProductID,
		ProductName:     order.ProductName,
		Unit:            order.Unit,
		TierLabel:       order.TierLabel,
		ExpectedPrice:   order.ExpectedPrice,
		Currency:        order.Currency,
		AmountPaid:      order.AmountPaid,
		Shortfall:       order.Shortfall(),
		Excess:          order.Excess(),
		Status:          order.Status,
		ChatID:          order.ChatID,
		BuyerUsername:   order.BuyerUsername,
		ShippingAddress: order.ShippingAddress,
		CustomerNote:    order.CustomerNote,
		CreatedAt:       order.CreatedAt,
		DispatchedAt:    order.DispatchedAt,
	}
}

// OrderListResponse - страница заказов
type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

// OrderFilter - параметры выборки заказов
type OrderFilter struct {
	BotID     *uuid.UUID
	ProductID *uuid.UUID
	Status    *OrderStatus
	Limit     int
	Offset    int
}
