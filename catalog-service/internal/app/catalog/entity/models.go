package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category представляет узел дерева категорий магазина
// ParentID == nil означает корневую категорию бота
type Category struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	BotID     uuid.UUID  `json:"bot_id" db:"bot_id"`
	Name      string     `json:"name" db:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Product представляет товар, привязанный ровно к одной категории
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CategoryID  uuid.UUID `json:"category_id" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	Unit        string    `json:"unit" db:"unit"` // Единица измерения (item, gram и т.п.)
	ImageURL    string    `json:"image_url,omitempty" db:"image_url"`
	VideoURL    string    `json:"video_url,omitempty" db:"video_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// PriceTier представляет один покупаемый вариант цены товара
// Инвариант: Amount > 0 (невалидное значение отклоняется, а не приводится к нулю)
type PriceTier struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Label     string          `json:"label" db:"label"` // Например "1 gram" или "bulk 10-pack"
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// ProductWithTiers содержит товар с полным списком ценовых уровней
// Товар без уровней отображается в дереве, но не может быть куплен
type ProductWithTiers struct {
	Product
	PriceTiers []PriceTier `json:"price_tiers"`
}

// CategoryNode - узел вложенного дерева каталога для рекурсивного рендеринга
// Дочерние категории и товары идут в порядке создания
type CategoryNode struct {
	Category
	Products      []ProductWithTiers `json:"products"`
	SubCategories []*CategoryNode    `json:"sub_categories"`
}
