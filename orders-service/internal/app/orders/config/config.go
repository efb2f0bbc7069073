package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Kafka          KafkaConfig
	JWT            JWTConfig
	CatalogService CatalogServiceConfig
	Settlement     SettlementConfig
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8082)
}

type DatabaseConfig struct {
	Host     string // Хост PostgreSQL
	Port     string // Порт PostgreSQL
	User     string // Имя пользователя БД
	Password string // Пароль БД
	DBName   string // Имя базы данных
	SSLMode  string // Режим SSL (disable/require/verify-full)
}

type KafkaConfig struct {
	Brokers []string // Список брокеров Kafka (формат: host:port)
	Topic   string   // Топик для событий ORDER_CREATED, ORDER_UPDATED, ORDER_DISPATCHED
}

type JWTConfig struct {
	Secret string // Секретный ключ для проверки JWT токенов (общий для платформы)
}

type CatalogServiceConfig struct {
	URL string // URL Catalog Service для получения товаров и уровней цен
}

type SettlementConfig struct {
	CommissionPercent decimal.Decimal // Процент комиссии платформы для дашборда
	DispatchOverpaid  bool            // Разрешить отправку переплаченных заказов
}

func Load() (*Config, error) {
	commission, err := decimal.NewFromString(getEnv("COMMISSION_PERCENT", "1.0"))
	if err != nil {
		return nil, fmt.Errorf("invalid COMMISSION_PERCENT: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8082"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "orders_service"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:   getEnv("KAFKA_TOPIC", "order_events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		CatalogService: CatalogServiceConfig{
			URL: getEnv("CATALOG_SERVICE_URL", "http://localhost:8081"),
		},
		Settlement: SettlementConfig{
			CommissionPercent: commission,
			DispatchOverpaid:  getEnvBool("DISPATCH_OVERPAID", true),
		},
	}, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
