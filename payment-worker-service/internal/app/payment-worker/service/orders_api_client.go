package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"botbazaar/payment-worker-service/internal/app/payment-worker/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrOrderNotFound - orders-service не знает такой заказ
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderConflict - заказ уже отправлен или проиграна гонка обновления
	ErrOrderConflict = errors.New("order settlement conflict")
)

// serviceTokenTTL - время жизни самоподписанного сервисного токена
const serviceTokenTTL = 5 * time.Minute

// OrdersAPIClientImpl - HTTP клиент Orders Service
// Подписывает сервисный JWT с ролью payment_worker общим секретом платформы
type OrdersAPIClientImpl struct {
	baseURL    string
	jwtSecret  []byte
	httpClient *http.Client
}

// NewOrdersAPIClient создает новый клиент Orders Service
func NewOrdersAPIClient(baseURL, jwtSecret string, timeoutSec int) *OrdersAPIClientImpl {
	return &OrdersAPIClientImpl{
		baseURL:   baseURL,
		jwtSecret: []byte(jwtSecret),
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
	}
}

// serviceClaims - claims сервисного токена, совпадают по форме с токенами
// identity-сервиса платформы
type serviceClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	RoleName string `json:"role_name"`
	jwt.RegisteredClaims
}

// signServiceToken выпускает короткоживущий JWT с ролью payment_worker
func (c *OrdersAPIClientImpl) signServiceToken() (string, error) {
	now := time.Now()
	claims := serviceClaims{
		UserID:   "payment-worker",
		Username: "payment-worker",
		RoleName: "payment_worker",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(serviceTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}
	return signed, nil
}

// GetOrder получает заказ из Orders Service
func (c *OrdersAPIClientImpl) GetOrder(ctx context.Context, orderID uuid.UUID) (*entity.OrderInfo, error) {
	url := fmt.Sprintf("%s/orders/%s", c.baseURL, orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrOrderNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("orders service returned status %d: %s", resp.StatusCode, string(body))
	}

	var order entity.OrderInfo
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}

	return &order, nil
}

// RecordPayment отправляет наблюдение платежа в валюте заказа
func (c *OrdersAPIClientImpl) RecordPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, currency string) error {
	url := fmt.Sprintf("%s/orders/%s/payments", c.baseURL, orderID)

	payload, err := json.Marshal(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrOrderNotFound
	case http.StatusConflict:
		return ErrOrderConflict
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("orders service returned status %d: %s", resp.StatusCode, string(body))
	}
}

func (c *OrdersAPIClientImpl) authorize(req *http.Request) error {
	token, err := c.signServiceToken()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
