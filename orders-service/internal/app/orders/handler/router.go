package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"botbazaar/pkg/logger"
	"botbazaar/pkg/metrics"
)

// SetupRoutes настраивает все маршруты Orders Service с использованием Gin
// Платежи приходят от payment-worker с сервисной ролью, отправка заказов
// доступна мерчанту, агрегаты по платформе - только admin
func SetupRoutes(orderHandler *OrderHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("orders-service"))

	// CORS настройки для merchant-панели
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint - публичный, без аутентификации
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "orders-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	merchant := authMiddleware.RequireRole("merchant", "admin")
	paymentFeed := authMiddleware.RequireRole("payment_worker", "admin")

	bots := router.Group("/bots")
	bots.Use(authMiddleware.Authenticate())
	{
		bots.POST("/:botId/orders", orderHandler.CreateOrder)          // Создать заказ (бот от имени покупателя)
		bots.GET("/:botId/orders", merchant, orderHandler.ListOrders)  // Заказы бота с фильтрами
		bots.GET("/:botId/stats", merchant, orderHandler.GetBotStats)  // Дашборд мерчанта
	}

	orders := router.Group("/orders")
	orders.Use(authMiddleware.Authenticate())
	{
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/payments", paymentFeed, orderHandler.RecordPayment) // Наблюдения платежей от payment-worker
		orders.POST("/:id/dispatch", merchant, orderHandler.Dispatch)         // Отправка оплаченного заказа
	}

	stats := router.Group("/stats")
	stats.Use(authMiddleware.Authenticate())
	{
		stats.GET("", authMiddleware.RequireRole("admin"), orderHandler.GetGlobalStats)
	}

	return router
}
