package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит все настройки Payment Worker Service
// Kafka для ленты платежей, Redis для курсов валют, MongoDB для архива
// наблюдений и HTTP доступ к Orders Service
type Config struct {
	Server       ServerConfig
	Redis        RedisConfig
	Mongo        MongoConfig
	Kafka        KafkaConfig
	ExchangeAPI  ExchangeAPIConfig
	OrdersAPI    OrdersAPIConfig
	CronSchedule CronScheduleConfig
}

// ServerConfig - настройки HTTP сервера health-эндпоинтов
type ServerConfig struct {
	Host string
	Port string // По умолчанию 8084
}

// RedisConfig - настройки подключения к Redis
// Используется для хранения курсов валют с TTL
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int           // Отдельная БД для курсов валют
	TTL      time.Duration // TTL для курсов валют (30-60 минут)
}

// MongoConfig - настройки MongoDB для архива платежных наблюдений
type MongoConfig struct {
	URI        string // URI подключения (mongodb://host:port)
	Database   string
	Collection string
}

// KafkaConfig - настройки Kafka для подписки на платежные события
type KafkaConfig struct {
	Brokers  []string // Список брокеров Kafka (формат: host:port)
	Topic    string   // Топик ленты платежей (payment_events)
	GroupID  string   // ID группы потребителей для распределения нагрузки
	MinBytes int      // Минимум байт для fetch запроса
	MaxBytes int      // Максимум байт для fetch запроса
}

// ExchangeAPIConfig - настройки внешнего API курсов валют
type ExchangeAPIConfig struct {
	URL     string // URL API для получения курсов
	Timeout int    // Таймаут запроса в секундах
}

// OrdersAPIConfig - настройки доступа к Orders Service
// Worker подписывает сервисный JWT сам, секрет общий для платформы
type OrdersAPIConfig struct {
	URL       string
	JWTSecret string
	Timeout   int // Таймаут запроса в секундах
}

// CronScheduleConfig - настройки расписания cron задач
type CronScheduleConfig struct {
	UpdateRates string // Расписание обновления курсов валют
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	ttlMinutes := getEnvInt("REDIS_RATES_TTL_MINUTES", 30)

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8084"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 2),
			TTL:      time.Duration(ttlMinutes) * time.Minute,
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGO_DB", "payment_worker"),
			Collection: getEnv("MONGO_COLLECTION", "payment_observations"),
		},
		Kafka: KafkaConfig{
			Brokers:  strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:    getEnv("KAFKA_TOPIC", "payment_events"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "payment-worker-group"),
			MinBytes: getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes: getEnvInt("KAFKA_MAX_BYTES", 10e6),
		},
		ExchangeAPI: ExchangeAPIConfig{
			URL:     getEnv("EXCHANGE_API_URL", "https://api.exchangerate-api.com/v4/latest/USD"),
			Timeout: getEnvInt("EXCHANGE_API_TIMEOUT", 10),
		},
		OrdersAPI: OrdersAPIConfig{
			URL:       getEnv("ORDERS_SERVICE_URL", "http://localhost:8082"),
			JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
			Timeout:   getEnvInt("ORDERS_API_TIMEOUT", 10),
		},
		CronSchedule: CronScheduleConfig{
			UpdateRates: getEnv("CRON_UPDATE_RATES", "0 */30 * * * *"),
		},
	}, nil
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес HTTP сервера
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
