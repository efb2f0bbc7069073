package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentEvent - IPN-сообщение платежного шлюза из топика payment_events
// Сумма приходит в валюте платежа, конвертация в валюту заказа - наша работа
type PaymentEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	PayCurrency string          `json:"pay_currency"`
	TxID        string          `json:"tx_id,omitempty"` // Идентификатор транзакции шлюза
	ReceivedAt  time.Time       `json:"received_at"`
}

// OrderInfo - ответ orders-service на GET /orders/{id}
// Нужны только валюта прайса и статус
type OrderInfo struct {
	ID       uuid.UUID `json:"id"`
	Currency string    `json:"currency"`
	Status   string    `json:"status"`
}

// ExchangeRate - курс валюты относительно базовой (USD)
type ExchangeRate struct {
	Currency  string          `json:"currency"`
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ExchangeRatesResponse - ответ внешнего API курсов валют
type ExchangeRatesResponse struct {
	Base  string             `json:"base"`  // Базовая валюта (обычно USD)
	Date  string             `json:"date"`  // Дата курсов
	Rates map[string]float64 `json:"rates"` // Курсы валют: {"EUR": 0.93, "BTC": 0.000016, ...}
}

// PaymentObservation - архивный документ наблюдения платежа в MongoDB
// Хранится для аудита и возможности повторной обработки
type PaymentObservation struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID         string             `bson:"order_id" json:"order_id"`
	TxID            string             `bson:"tx_id,omitempty" json:"tx_id,omitempty"`
	Amount          string             `bson:"amount" json:"amount"` // decimal как строка, без потери точности
	PayCurrency     string             `bson:"pay_currency" json:"pay_currency"`
	ConvertedAmount string             `bson:"converted_amount,omitempty" json:"converted_amount,omitempty"`
	OrderCurrency   string             `bson:"order_currency,omitempty" json:"order_currency,omitempty"`
	ExchangeRate    string             `bson:"exchange_rate,omitempty" json:"exchange_rate,omitempty"`
	Status          string             `bson:"status" json:"status"` // processed, failed
	Error           string             `bson:"error,omitempty" json:"error,omitempty"`
	ReceivedAt      time.Time          `bson:"received_at" json:"received_at"`
	ProcessedAt     time.Time          `bson:"processed_at" json:"processed_at"`
}

const (
	ObservationStatusProcessed = "processed"
	ObservationStatusFailed    = "failed"
)

const (
	RedisKeyPrefixRate = "rates:" // rates:USD, rates:BTC
)

// SupportedCurrencies - валюты, которые worker держит в кеше курсов
// Покрывают фиатные прайсы ботов и криптовалюты платежного шлюза
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "RUB", "BTC", "ETH", "LTC", "XMR"}

func GetRedisKeyForRate(currency string) string {
	return RedisKeyPrefixRate + currency
}
