package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"botbazaar/pkg/logger"
	"botbazaar/pkg/metrics"
)

// SetupRoutes настраивает все маршруты Catalog Service с использованием Gin
// Чтение дерева доступно любому аутентифицированному клиенту (боты),
// мутации каталога - только владельцу магазина (merchant) и admin
func SetupRoutes(catalogHandler *CatalogHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("catalog-service"))

	// CORS настройки для merchant-панели
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint - публичный, без аутентификации
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "catalog-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	mutate := authMiddleware.RequireRole("merchant", "admin")

	bots := router.Group("/bots")
	bots.Use(authMiddleware.Authenticate())
	{
		bots.GET("/:botId/tree", catalogHandler.GetTree)                    // Полное дерево каталога бота (кеш Redis)
		bots.POST("/:botId/categories", mutate, catalogHandler.CreateCategory) // Создать категорию (корневую или вложенную)
	}

	categories := router.Group("/categories")
	categories.Use(authMiddleware.Authenticate())
	{
		categories.POST("/:id/products", mutate, catalogHandler.CreateProduct) // Создать товар в категории
		categories.DELETE("/:id", mutate, catalogHandler.DeleteCategory)       // Каскадное удаление поддерева
	}

	products := router.Group("/products")
	products.Use(authMiddleware.Authenticate())
	{
		products.GET("/:id", catalogHandler.GetProduct)                   // Товар с уровнями цен (для orders-service)
		products.POST("/:id/tiers", mutate, catalogHandler.AddPriceTier)  // Добавить уровень цены
		products.DELETE("/:id", mutate, catalogHandler.DeleteProduct)     // Удалить товар
	}

	tiers := router.Group("/tiers")
	tiers.Use(authMiddleware.Authenticate())
	{
		tiers.DELETE("/:id", mutate, catalogHandler.RemovePriceTier) // Удалить уровень цены
	}

	return router
}
