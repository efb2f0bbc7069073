package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateCategoryRequest struct {
	Name     string     `json:"name" validate:"required,min=1,max=100"`
	ParentID *uuid.UUID `json:"parent_id" validate:"omitempty"`
}

type CreateProductRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Unit        string `json:"unit" validate:"omitempty,max=20"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
}

// AddPriceTierRequest - сумма проверяется на положительность в service layer,
// чтобы невалидная сумма возвращала доменную ошибку, а не ошибку валидации формы
type AddPriceTierRequest struct {
	Label  string          `json:"label" validate:"required,min=1,max=100"`
	Amount decimal.Decimal `json:"amount"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type TreeResponse struct {
	BotID      uuid.UUID       `json:"bot_id"`
	Categories []*CategoryNode `json:"categories"` // Корневые категории с вложенными поддеревьями
}
