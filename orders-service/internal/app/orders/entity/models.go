package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order представляет заказ на один товар по одному уровню цены
// Имя, единица и цена снапшотятся из каталога при создании:
// последующие правки каталога не трогают исторические заказы
type Order struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	BotID       uuid.UUID       `json:"bot_id" gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	ProductName string          `json:"product_name" gorm:"type:varchar(200);not null"` // Снапшот имени товара
	Unit        string          `json:"unit" gorm:"type:varchar(20);not null"`          // Снапшот единицы измерения
	TierLabel   string          `json:"tier_label" gorm:"type:varchar(100);not null"`   // Снапшот метки уровня цены

	ExpectedPrice decimal.Decimal `json:"expected_price" gorm:"type:numeric(18,8);not null"` // Снапшот суммы уровня цены
	Currency      string          `json:"currency" gorm:"type:varchar(10);not null"`
	AmountPaid    decimal.Decimal `json:"amount_paid" gorm:"type:numeric(18,8);not null;default:0"` // Накопленная сумма платежей

	Status OrderStatus `json:"status" gorm:"type:varchar(30);not null;default:'pending_payment'"`

	// Метаданные покупателя из чата бота
	ChatID          string `json:"chat_id" gorm:"type:varchar(64);not null"`
	BuyerUsername   string `json:"buyer_username" gorm:"type:varchar(100)"`
	ShippingAddress string `json:"shipping_address" gorm:"type:text"`
	CustomerNote    string `json:"customer_note" gorm:"type:text"`

	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`

	// Version для optimistic concurrency: RecordPayment выполняет
	// read-modify-write и проигравший гонку CAS повторяет попытку
	Version int `json:"-" gorm:"not null;default:0"`
}

// TableName указывает имя таблицы для GORM
func (Order) TableName() string {
	return "orders"
}

// OrderStatus представляет статусы расчета заказа
// Переходы: pending_payment -> {underpaid, paid, overpaid} -> dispatched
// dispatched терминален, прямого перехода pending -> dispatched нет
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment" // Платежей еще не было
	OrderStatusUnderpaid      OrderStatus = "underpaid"       // Оплачено меньше цены
	OrderStatusPaid           OrderStatus = "paid"            // Оплачено в пределах допуска
	OrderStatusOverpaid       OrderStatus = "overpaid"        // Оплачено больше цены
	OrderStatusDispatched     OrderStatus = "dispatched"      // Отправлен, терминальный статус
)

// Settled сообщает, покрыта ли цена заказа (статусы, допускающие отправку)
func (s OrderStatus) Settled() bool {
	return s == OrderStatusPaid || s == OrderStatusOverpaid
}

// ClassifyPayment определяет статус заказа по накопленной сумме платежей
// Сравнение с допуском в половину минимальной единицы валюты:
// равенство в пределах допуска - paid, меньше - underpaid, больше - overpaid
func ClassifyPayment(expected, paid decimal.Decimal, currency string) OrderStatus {
	diff := paid.Sub(expected)
	if diff.Abs().LessThanOrEqual(PaymentTolerance(currency)) {
		return OrderStatusPaid
	}
	if diff.Sign() < 0 {
		return OrderStatusUnderpaid
	}
	return OrderStatusOverpaid
}

// PaymentTolerance возвращает допуск сравнения платежей для валюты:
// половина минимальной представимой единицы (0.005 для фиата с 2 знаками,
// 5e-9 для криптовалют с 8 знаками)
func PaymentTolerance(currency string) decimal.Decimal {
	exp := CurrencyExponent(currency)
	// 0.5 * 10^-exp
	return decimal.New(5, -int32(exp)-1)
}

// CurrencyExponent возвращает число знаков после запятой минимальной единицы
func CurrencyExponent(currency string) int {
	switch currency {
	case "BTC", "ETH", "LTC", "XMR":
		return 8
	default:
		return 2
	}
}

// Shortfall возвращает недоплату заказа (ноль, если цена покрыта)
func (o *Order) Shortfall() decimal.Decimal {
	diff := o.ExpectedPrice.Sub(o.AmountPaid)
	if diff.Sign() < 0 {
		return decimal.Zero
	}
	return diff
}

// Excess возвращает переплату заказа (ноль, если переплаты нет)
func (o *Order) Excess() decimal.Decimal {
	diff := o.AmountPaid.Sub(o.ExpectedPrice)
	if diff.Sign() < 0 {
		return decimal.Zero
	}
	return diff
}

// OrderEvent представляет событие изменения заказа для Kafka
type OrderEvent struct {
	EventType     string          `json:"event_type"` // ORDER_CREATED, ORDER_UPDATED, ORDER_DISPATCHED
	OrderID       uuid.UUID       `json:"order_id"`
	BotID         uuid.UUID       `json:"bot_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ExpectedPrice decimal.Decimal `json:"expected_price"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Currency      string          `json:"currency"`
	Status        OrderStatus     `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
}

// CatalogProduct представляет ответ catalog-service на GET /products/{id}
type CatalogProduct struct {
	ID         uuid.UUID          `json:"id"`
	CategoryID uuid.UUID          `json:"category_id"`
	Name       string             `json:"name"`
	Unit       string             `json:"unit"`
	PriceTiers []CatalogPriceTier `json:"price_tiers"`
}

// CatalogPriceTier - уровень цены товара из каталога
type CatalogPriceTier struct {
	ID     uuid.UUID       `json:"id"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// FindTier ищет уровень цены по ID среди уровней товара
func (p *CatalogProduct) FindTier(tierID uuid.UUID) (*CatalogPriceTier, bool) {
	for i := range p.PriceTiers {
		if p.PriceTiers[i].ID == tierID {
			return &p.PriceTiers[i], true
		}
	}
	return nil, false
}

// BotStats - агрегированная статистика продаж для дашборда мерчанта
type BotStats struct {
	TotalSales       decimal.Decimal `json:"total_sales"`       // SUM(expected_price) по оплаченным заказам
	TotalOrders      int64           `json:"total_orders"`      // Все заказы, включая неоплаченные
	CommissionEarned decimal.Decimal `json:"commission_earned"` // TotalSales * процент комиссии платформы
	RecentOrders     []Order         `json:"recent_orders"`     // Последние заказы, новые первыми
}
