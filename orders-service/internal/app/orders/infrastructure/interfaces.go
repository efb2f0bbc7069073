package infrastructure

import (
	"context"

	"botbazaar/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
)

type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

type CatalogServiceClient interface {
	SetAuthToken(token string)
	GetProduct(ctx context.Context, productID uuid.UUID) (*entity.CatalogProduct, error)
}
