package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"botbazaar/catalog-service/internal/app/catalog/entity"
	"botbazaar/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	serviceName = "catalog-service"

	// treeKeyPrefix - префикс ключа кеша дерева каталога (tree:<botID>)
	treeKeyPrefix = "tree"

	// treeTTL - время жизни кеша дерева
	// Дерево инвалидируется явно при любой записи в каталог,
	// TTL защищает от устаревших данных при пропущенной инвалидации
	treeTTL = time.Hour
)

// RedisClient кеширует собранные деревья каталога по ботам
// Реализует service.TreeCache
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

func treeKey(botID uuid.UUID) string {
	return treeKeyPrefix + ":" + botID.String()
}

// GetTree возвращает закешированное дерево бота
// Возвращает (nil, nil) при промахе кеша
func (r *RedisClient) GetTree(ctx context.Context, botID uuid.UUID) ([]*entity.CategoryNode, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, treeKey(botID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, treeKeyPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get tree from cache: %w", err)
	}

	var tree []*entity.CategoryNode
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tree: %w", err)
	}

	metrics.RecordCacheHit(serviceName, treeKeyPrefix)
	return tree, nil
}

// SetTree сохраняет дерево бота в кеш
func (r *RedisClient) SetTree(ctx context.Context, botID uuid.UUID, tree []*entity.CategoryNode) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	if err := r.client.Set(ctx, treeKey(botID), data, treeTTL).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set tree in cache: %w", err)
	}

	return nil
}

// InvalidateTree удаляет дерево бота из кеша
// Вызывается сервисом после любой записи в каталог бота
func (r *RedisClient) InvalidateTree(ctx context.Context, botID uuid.UUID) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := r.client.Del(ctx, treeKey(botID)).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete tree from cache: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
