package repository

import (
	"context"
	"fmt"
	"time"

	"botbazaar/payment-worker-service/internal/app/payment-worker/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// observationRepository реализует ObservationRepository поверх MongoDB
// Каждое наблюдение платежа пишется как отдельный документ
type observationRepository struct {
	collection *mongo.Collection
}

// NewObservationRepository создает репозиторий архива наблюдений
func NewObservationRepository(client *mongo.Client, database, collection string) ObservationRepository {
	return &observationRepository{
		collection: client.Database(database).Collection(collection),
	}
}

// Insert сохраняет наблюдение платежа
func (r *observationRepository) Insert(ctx context.Context, observation *entity.PaymentObservation) error {
	insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.InsertOne(insertCtx, observation); err != nil {
		return fmt.Errorf("failed to insert payment observation: %w", err)
	}

	return nil
}

// ListByOrder возвращает наблюдения по заказу, новые первыми
func (r *observationRepository) ListByOrder(ctx context.Context, orderID string) ([]entity.PaymentObservation, error) {
	findCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "received_at", Value: -1}})

	cursor, err := r.collection.Find(findCtx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment observations: %w", err)
	}
	defer cursor.Close(findCtx)

	var observations []entity.PaymentObservation
	if err := cursor.All(findCtx, &observations); err != nil {
		return nil, fmt.Errorf("failed to decode payment observations: %w", err)
	}

	return observations, nil
}
