package handler

import (
	"errors"
	"net/http"
	"strconv"

	"botbazaar/orders-service/internal/app/orders/entity"
	"botbazaar/orders-service/internal/app/orders/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// OrderHandler обрабатывает HTTP запросы для заказов с использованием Gin
type OrderHandler struct {
	orderService service.OrderServiceInterface
	statsService service.StatsServiceInterface
	validator    *validator.Validate
}

// NewOrderHandler создает новый обработчик заказов
func NewOrderHandler(orderService service.OrderServiceInterface, statsService service.StatsServiceInterface) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		statsService: statsService,
		validator:    validator.New(),
	}
}

// CreateOrder обрабатывает POST /bots/{botId}/orders
// Создает заказ на один товар: цена и имя снапшотятся из Catalog Service
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	botID, err := uuid.Parse(c.Param("botId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bot ID"})
		return
	}

	// Токен пользователя проксируется в Catalog Service
	authToken, _ := c.Get("auth_token")
	authTokenStr, _ := authToken.(string)

	var req entity.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), botID, &req, authTokenStr)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found in catalog"})
			return
		}
		if errors.Is(err, service.ErrTierNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price tier does not belong to product"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	c.JSON(http.StatusCreated, entity.BuildOrderResponse(order))
}

// GetOrder обрабатывает GET /orders/{id}
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get order"})
		return
	}

	c.JSON(http.StatusOK, entity.BuildOrderResponse(order))
}

// ListOrders обрабатывает GET /bots/{botId}/orders
// Поддерживает фильтры по товару и статусу плюс limit/offset
func (h *OrderHandler) ListOrders(c *gin.Context) {
	botID, err := uuid.Parse(c.Param("botId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bot ID"})
		return
	}

	filter := entity.OrderFilter{BotID: &botID}

	if productIDStr := c.Query("product_id"); productIDStr != "" {
		productID, err := uuid.Parse(productIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}
		filter.ProductID = &productID
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := entity.OrderStatus(statusStr)
		filter.Status = &status
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = limit
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
			return
		}
		filter.Offset = offset
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}

	responses := make([]entity.OrderResponse, len(orders))
	for i := range orders {
		responses[i] = entity.BuildOrderResponse(&orders[i])
	}

	c.JSON(http.StatusOK, entity.OrderListResponse{
		Orders: responses,
		Total:  len(responses),
	})
}

// RecordPayment обрабатывает POST /orders/{id}/payments
// Учитывает наблюдение платежа от payment-worker и переклассифицирует заказ
func (h *OrderHandler) RecordPayment(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req entity.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	order, err := h.orderService.RecordPayment(c.Request.Context(), orderID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, service.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Payment amount must be positive"})
		case errors.Is(err, service.ErrCurrencyMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Payment currency does not match order"})
		case errors.Is(err, service.ErrInvalidState):
			c.JSON(http.StatusConflict, gin.H{"error": "Order is already dispatched"})
		case errors.Is(err, service.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Concurrent update, retry later"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		}
		return
	}

	c.JSON(http.StatusOK, entity.BuildOrderResponse(order))
}

// Dispatch обрабатывает POST /orders/{id}/dispatch
// Отправить можно только оплаченный заказ, повторная отправка отклоняется
func (h *OrderHandler) Dispatch(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.orderService.Dispatch(c.Request.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, service.ErrInvalidState):
			c.JSON(http.StatusConflict, gin.H{"error": "Order is not ready for dispatch"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to dispatch order"})
		}
		return
	}

	c.JSON(http.StatusOK, entity.BuildOrderResponse(order))
}

// GetBotStats обрабатывает GET /bots/{botId}/stats
// Дашборд мерчанта: продажи, число заказов, комиссия платформы
func (h *OrderHandler) GetBotStats(c *gin.Context) {
	botID, err := uuid.Parse(c.Param("botId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bot ID"})
		return
	}

	stats, err := h.statsService.GetStats(c.Request.Context(), &botID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetGlobalStats обрабатывает GET /stats - агрегаты по всей платформе
func (h *OrderHandler) GetGlobalStats(c *gin.Context) {
	stats, err := h.statsService.GetStats(c.Request.Context(), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// formatValidationError форматирует ошибки валидации
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
