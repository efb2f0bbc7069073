package handler

import (
	"errors"
	"net/http"

	"botbazaar/catalog-service/internal/app/catalog/entity"
	"botbazaar/catalog-service/internal/app/catalog/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CatalogHandler обрабатывает HTTP запросы каталога с использованием Gin
type CatalogHandler struct {
	catalogService service.CatalogServiceInterface
	validator      *validator.Validate
}

// NewCatalogHandler создает новый обработчик каталога
func NewCatalogHandler(catalogService service.CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		validator:      validator.New(),
	}
}

// === CATEGORIES HANDLERS ===

// CreateCategory обрабатывает POST /bots/{botId}/categories
// parent_id в теле запроса должен указывать на категорию того же бота
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	botID, err := uuid.Parse(c.Param("botId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bot ID"})
		return
	}

	var req entity.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), botID, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidParent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parent category does not exist or belongs to another bot"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, category)
}

// DeleteCategory обрабатывает DELETE /categories/{id}
// Каскадно удаляет категорию со всеми потомками, товарами и ценами
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
		return
	}

	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category subtree deleted"})
}

// === PRODUCTS HANDLERS ===

// CreateProduct обрабатывает POST /categories/{id}/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
		return
	}

	var req entity.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), categoryID, &req)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProduct обрабатывает GET /products/{id}
// Возвращает товар с уровнями цен; используется orders-service для снапшота цены
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct обрабатывает DELETE /products/{id}
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// === PRICE TIER HANDLERS ===

// AddPriceTier обрабатывает POST /products/{id}/tiers
// Сумма должна быть строго положительной
func (h *CatalogHandler) AddPriceTier(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req entity.AddPriceTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	tier, err := h.catalogService.AddPriceTier(c.Request.Context(), productID, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price tier amount must be positive"})
			return
		}
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add price tier"})
		return
	}

	c.JSON(http.StatusCreated, tier)
}

// RemovePriceTier обрабатывает DELETE /tiers/{id}
func (h *CatalogHandler) RemovePriceTier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tier ID"})
		return
	}

	if err := h.catalogService.RemovePriceTier(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrTierNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Price tier not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove price tier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Price tier removed"})
}

// === TREE HANDLER ===

// GetTree обрабатывает GET /bots/{botId}/tree
// Возвращает полное вложенное дерево каталога бота (кешируется в Redis)
func (h *CatalogHandler) GetTree(c *gin.Context) {
	botID, err := uuid.Parse(c.Param("botId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bot ID"})
		return
	}

	tree, err := h.catalogService.GetTree(c.Request.Context(), botID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get catalog tree"})
		return
	}

	c.JSON(http.StatusOK, entity.TreeResponse{
		BotID:      botID,
		Categories: tree,
	})
}

// === HELPER FUNCTIONS ===

// formatValidationError форматирует ошибки валидации
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return validationErrors[0].Field() + " validation failed"
	}
	return "Validation failed"
}
