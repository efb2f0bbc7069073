package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"botbazaar/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
)

// ErrProductNotFound возвращается, когда каталог отвечает 404
var ErrProductNotFound = errors.New("product not found in catalog")

// CatalogClient клиент для взаимодействия с Catalog Service
// Используется для снапшота имени, единицы и цены товара при создании заказа
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
	authToken  string // JWT токен для аутентификации в Catalog Service
}

// NewCatalogClient создает новый клиент для Catalog Service
func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second, // Таймаут для HTTP запросов
		},
	}
}

// SetAuthToken устанавливает JWT токен для аутентификации
func (c *CatalogClient) SetAuthToken(token string) {
	c.authToken = token
}

// GetProduct получает товар с уровнями цен из Catalog Service
// Проверка принадлежности уровня товару выполняется в service layer
func (c *CatalogClient) GetProduct(ctx context.Context, productID uuid.UUID) (*entity.CatalogProduct, error) {
	url := fmt.Sprintf("%s/products/%s", c.baseURL, productID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Добавляем JWT токен для аутентификации
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var product entity.CatalogProduct
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &product, nil
}
