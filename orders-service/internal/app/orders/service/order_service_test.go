package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"botbazaar/orders-service/internal/app/orders/entity"
	infrahttp "botbazaar/orders-service/internal/app/orders/infrastructure/http"
	"botbazaar/orders-service/internal/app/orders/repository"
	"botbazaar/orders-service/internal/app/orders/repository/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Хелперы для создания тестовых данных

func newTestOrderService(dispatchOverpaid bool) (*OrderService, *mocks.MockOrderRepository, *mocks.MockCatalogClient, *mocks.MockMessagePublisher) {
	orderRepo := new(mocks.MockOrderRepository)
	catalogClient := new(mocks.MockCatalogClient)
	producer := new(mocks.MockMessagePublisher)
	svc := NewOrderService(orderRepo, catalogClient, producer, dispatchOverpaid)
	return svc, orderRepo, catalogClient, producer
}

func newCatalogProduct() *entity.CatalogProduct {
	return &entity.CatalogProduct{
		ID:         uuid.New(),
		CategoryID: uuid.New(),
		Name:       "Red Rose Bundle",
		Unit:       "bundle",
		PriceTiers: []entity.CatalogPriceTier{
			{ID: uuid.New(), Label: "single", Amount: decimal.RequireFromString("50.00")},
			{ID: uuid.New(), Label: "bulk 10-pack", Amount: decimal.RequireFromString("450.00")},
		},
	}
}

func newPendingOrder() *entity.Order {
	return &entity.Order{
		ID:            uuid.New(),
		BotID:         uuid.New(),
		ProductID:     uuid.New(),
		ProductName:   "Red Rose Bundle",
		Unit:          "bundle",
		TierLabel:     "single",
		ExpectedPrice: decimal.RequireFromString("50.00"),
		Currency:      "USD",
		AmountPaid:    decimal.Zero,
		Status:        entity.OrderStatusPendingPayment,
		ChatID:        "chat-42",
		CreatedAt:     time.Now(),
	}
}

// ==================== CreateOrder Tests ====================

func TestOrderService_CreateOrder_SnapshotsCatalogData(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	product := newCatalogProduct()
	tier := product.PriceTiers[0]

	svc, orderRepo, catalogClient, producer := newTestOrderService(true)

	catalogClient.On("SetAuthToken", "user-token").Return()
	catalogClient.On("GetProduct", ctx, product.ID).Return(product, nil)
	orderRepo.On("Create", ctx, mock.AnythingOfType("*entity.Order")).Return(nil)
	producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	req := &entity.CreateOrderRequest{
		ProductID: product.ID,
		TierID:    tier.ID,
		Currency:  "USD",
		ChatID:    "chat-42",
	}

	// Act
	order, err := svc.CreateOrder(ctx, botID, req, "user-token")

	// Assert: имя, единица и цена снапшотятся из каталога
	require.NoError(t, err)
	assert.Equal(t, botID, order.BotID)
	assert.Equal(t, "Red Rose Bundle", order.ProductName)
	assert.Equal(t, "bundle", order.Unit)
	assert.Equal(t, "single", order.TierLabel)
	assert.True(t, order.ExpectedPrice.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, order.AmountPaid.IsZero())
	assert.Equal(t, entity.OrderStatusPendingPayment, order.Status)
	assert.Nil(t, order.DispatchedAt)

	orderRepo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestOrderService_CreateOrder_ProductNotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	productID := uuid.New()
	svc, orderRepo, catalogClient, _ := newTestOrderService(true)

	catalogClient.On("SetAuthToken", mock.Anything).Return()
	catalogClient.On("GetProduct", ctx, productID).Return(nil, infrahttp.ErrProductNotFound)

	req := &entity.CreateOrderRequest{ProductID: productID, TierID: uuid.New(), Currency: "USD", ChatID: "c"}

	// Act
	order, err := svc.CreateOrder(ctx, uuid.New(), req, "token")

	// Assert
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, order)
	orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_TierFromAnotherProduct(t *testing.T) {
	// Уровень цены должен принадлежать именно этому товару
	ctx := context.Background()
	product := newCatalogProduct()
	svc, orderRepo, catalogClient, _ := newTestOrderService(true)

	catalogClient.On("SetAuthToken", mock.Anything).Return()
	catalogClient.On("GetProduct", ctx, product.ID).Return(product, nil)

	req := &entity.CreateOrderRequest{ProductID: product.ID, TierID: uuid.New(), Currency: "USD", ChatID: "c"}

	// Act
	order, err := svc.CreateOrder(ctx, uuid.New(), req, "token")

	// Assert
	assert.ErrorIs(t, err, ErrTierNotFound)
	assert.Nil(t, order)
	orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_KafkaFailureDoesNotFailOrder(t *testing.T) {
	// Состояние в БД первично: ошибка публикации события не валит заказ
	ctx := context.Background()
	product := newCatalogProduct()
	svc, orderRepo, catalogClient, producer := newTestOrderService(true)

	catalogClient.On("SetAuthToken", mock.Anything).Return()
	catalogClient.On("GetProduct", ctx, product.ID).Return(product, nil)
	orderRepo.On("Create", ctx, mock.AnythingOfType("*entity.Order")).Return(nil)
	producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	req := &entity.CreateOrderRequest{ProductID: product.ID, TierID: product.PriceTiers[0].ID, Currency: "USD", ChatID: "c"}

	// Act
	order, err := svc.CreateOrder(ctx, uuid.New(), req, "token")

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, order)
}

// ==================== RecordPayment Tests ====================

func TestOrderService_RecordPayment_ExactAmount_Paid(t *testing.T) {
	// Оплата 50.00 при цене 50.00 - заказ переходит в paid
	ctx := context.Background()
	order := newPendingOrder()
	svc, orderRepo, _, producer := newTestOrderService(true)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	orderRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("*entity.Order")).Return(nil)
	producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	req := &entity.RecordPaymentRequest{Amount: decimal.RequireFromString("50.00"), Currency: "USD"}

	// Act
	result, err := svc.RecordPayment(ctx, order.ID, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPaid, result.Status)
	assert.True(t, result.AmountPaid.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, result.Shortfall().IsZero())
	assert.True(t, result.Excess().IsZero())
}

func TestOrderService_RecordPayment_Underpaid_ReportsShortfall(t *testing.T) {
	// Оплата 45.00 при цене 50.00 - underpaid с недоплатой 5.00
	ctx := context.Background()
	order := newPendingOrder()
	svc, orderRepo, _, producer := newTestOrderService(true)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	orderRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("*entity.Order")).Return(nil)
	producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	req := &entity.RecordPaymentRequest{Amount: decimal.RequireFromString("45.00"), Currency: "USD"}

	// Act
	result, err := svc.RecordPayment(ctx, order.ID, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusUnderpaid, result.Status)
	assert.True(t, result.Shortfall().Equal(decimal.RequireFromString("5.00")))
}

func TestOrderService_RecordPayment_AccumulatesAcrossObservations(t *testing.T) {
	// Частичные платежи 30.00 + 20.00 накапливаются до paid
	ctx := context.Background()
	order := newPendingOrder()
	order.AmountPaid = decimal.RequireFromString("30.00")
	order.Status = entity.OrderStatusUnderpaid
	svc, orderRepo, _, producer := newTestOrderService(true)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	orderRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("*entity.Order")).Return(nil)
	producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	req := &entity.RecordPaymentRequest{Amount: decimal.RequireFromString("20.00"), Currency: "USD"}

	// Act
	result, err := svc.RecordPayment(ctx, order.ID, req)

	// Assert
	require.NoError(t, err)
	assert.True(t, result.AmountPaid.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, entity.OrderStatusPaid, result.Status)
}

func TestOrderService_RecordPayment_Overpaid(t *testing.T) {
	// Arrange
	ctx := context.Background()
	order := newPendingOrder()
	svc, orderRepo, _, producer := newTestOrderService(true)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	orderRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("*entity.Order")).Return(nil)
	producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	req := &entity.RecordPaymentRequest{Amount: decimal.RequireFromString("60.00"), Currency: "USD"}

	// Act
	result, err := svc.RecordPayment(ctx, order.ID, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusOverpaid, result.Status)
	assert.True(t, result.Excess().Equal(decimal.RequireFromString("10.00")))
}

func TestOrderService_RecordPayment_WithinTolerance_Paid(t *testing.T) {
	// Недоплата меньше половины цента укладывается в допуск валюты
	ctx := context.Background()
	order := newPendingOrder()
	svc, orderRepo, _, producer := newTestOrderService(true)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	orderRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("*entity.Order")).Return(nil)
	producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	req := &entity.RecordPaymentRequest{Amount: decimal.RequireFromString("49.996"), Currency: "USD"}

	// Act
	result, err := svc.RecordPayment(ctx, order.ID, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPaid, result.Status)
}

func TestOrderService_RecordPayment_CryptoToleranceIsTighter(t *testing.T) {
	// Для BTC допуск 5e-9: разница в half-cent уже считается недоплатой
	ctx := context.Background()
	order := newPendingOrder()
	order.ExpectedPrice = decimal.RequireFromString("0.00500000")
	order.Currency = "BTC"
	svc, orderRepo, _, producer := newTestOrderService(true)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	orderRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("*entity.Order")).Return(nil)
	producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	req := &entity.RecordPaymentRequest{Amount: decimal.RequireFromString("0.00499000"), Currency: "BTC"}

	// Act
	result, err := svc.RecordPayment(ctx, order.ID, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusUnderpaid, result.Status)
}

func TestOrderService_RecordPayment_DispatchedOrderRejected(t *testing.T) {
	// Отправленный заказ money-неизменяем
	ctx := context.Background()
	order := newPendingOrder()
	order.Status = entity.OrderStatusDispatched
	svc, orderRepo, _, _ := newTestOrderService(true)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	req := &entity.RecordPaymentRequest{Amount: decimal.RequireFromString("50.00"), Currency: "USD"}

	// Act
	result, err := svc.RecordPayment(ctx, order.ID, req)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Nil(t, result)
	orderRepo.AssertNotCalled(t, "UpdateSettlement", mock.Anything, mock.Anything)
}

func TestOrderService_RecordPayment_NonPositiveAmount(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, orderRepo, _, _ := newTestOrderService(true)

	req := &entity.RecordPaymentRequest{Amount: decimal.Zero, Currency: "USD"}

	// Act
	result, err := svc.RecordPayment(ctx, uuid.New(), req)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Nil(t, result)
	orderRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestOrderService_RecordPayment_CurrencyMismatch(t *testing.T) {
	// Arrange
	ctx := context.Background()
	order := newPendingOrder()
	svc, orderRepo, _, _ := newTestOrderService(true)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	req := &entity.RecordPaymentRequest{Amount: decimal.RequireFromString("50.00"), Currency: "EUR"}

	// Act
	result, err := svc.RecordPayment(ctx, order.ID, req)

	// Assert
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
	assert.Nil(t, result)
}

func TestOrderService_RecordPayment_RetriesLostRace(t *testing.T) {
	// Первый CAS проигрывает гонку, повтор с перечитыванием успешен
	ctx := context.Background()
	order := newPendingOrder()
	svc, orderRepo, _, producer := newTestOrderService(true)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	orderRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("*entity.Order")).
		Return(repository.ErrVersionConflict).Once()
	orderRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("*entity.Order")).
		Return(nil).Once()
	producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	req := &entity.RecordPaymentRequest{Amount: decimal.RequireFromString("50.00"), Currency: "USD"}

	// Act
	result, err := svc.RecordPayment(ctx, order.ID, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPaid, result.Status)
	orderRepo.AssertNumberOfCalls(t, "UpdateSettlement", 2)
}

func TestOrderService_RecordPayment_PersistentConflict(t *testing.T) {
	// Устойчивый проигрыш CAS отдается наружу как ErrConflict
	ctx := context.Background()
	order := newPendingOrder()
	svc, orderRepo, _, _ := newTestOrderService(true)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	orderRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("*entity.Order")).
		Return(repository.ErrVersionConflict)

	req := &entity.RecordPaymentRequest{Amount: decimal.RequireFromString("50.00"), Currency: "USD"}

	// Act
	result, err := svc.RecordPayment(ctx, order.ID, req)

	// Assert
	assert.ErrorIs(t, err, ErrConflict)
	assert.Nil(t, result)
	orderRepo.AssertNumberOfCalls(t, "UpdateSettlement", settlementRetries)
}

func TestOrderService_RecordPayment_OrderNotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	orderID := uuid.New()
	svc, orderRepo, _, _ := newTestOrderService(true)

	orderRepo.On("GetByID", ctx, orderID).Return(nil, repository.ErrOrderNotFound)

	req := &entity.RecordPaymentRequest{Amount: decimal.RequireFromString("50.00"), Currency: "USD"}

	// Act
	result, err := svc.RecordPayment(ctx, orderID, req)

	// Assert
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Nil(t, result)
}

// ==================== Dispatch Tests ====================

func TestOrderService_Dispatch_PaidOrder(t *testing.T) {
	// Arrange
	ctx := context.Background()
	order := newPendingOrder()
	order.AmountPaid = order.ExpectedPrice
	order.Status = entity.OrderStatusDispatched // состояние после условного UPDATE
	now := time.Now()
	order.DispatchedAt = &now

	svc, orderRepo, _, producer := newTestOrderService(true)

	orderRepo.On("Dispatch", ctx, order.ID, mock.AnythingOfType("time.Time"), true).Return(nil)
	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	// Act
	result, err := svc.Dispatch(ctx, order.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusDispatched, result.Status)
	assert.NotNil(t, result.DispatchedAt)
	orderRepo.AssertExpectations(t)
}

func TestOrderService_Dispatch_UnderpaidRejected(t *testing.T) {
	// Недоплаченный заказ не отправляется - условный UPDATE промахнется
	ctx := context.Background()
	orderID := uuid.New()
	svc, orderRepo, _, _ := newTestOrderService(true)

	orderRepo.On("Dispatch", ctx, orderID, mock.AnythingOfType("time.Time"), true).
		Return(repository.ErrNotDispatchable)

	// Act
	result, err := svc.Dispatch(ctx, orderID)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Nil(t, result)
}

func TestOrderService_Dispatch_OverpaidBlockedByPolicy(t *testing.T) {
	// При dispatchOverpaid=false репозиторий получает allowOverpaid=false
	ctx := context.Background()
	orderID := uuid.New()
	svc, orderRepo, _, _ := newTestOrderService(false)

	orderRepo.On("Dispatch", ctx, orderID, mock.AnythingOfType("time.Time"), false).
		Return(repository.ErrNotDispatchable)

	// Act
	result, err := svc.Dispatch(ctx, orderID)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Nil(t, result)
	orderRepo.AssertExpectations(t)
}

func TestOrderService_Dispatch_NotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	orderID := uuid.New()
	svc, orderRepo, _, _ := newTestOrderService(true)

	orderRepo.On("Dispatch", ctx, orderID, mock.AnythingOfType("time.Time"), true).
		Return(repository.ErrOrderNotFound)

	// Act
	result, err := svc.Dispatch(ctx, orderID)

	// Assert
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Nil(t, result)
}

// ==================== ListOrders Tests ====================

func TestOrderService_ListOrders_DefaultLimit(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	svc, orderRepo, _, _ := newTestOrderService(true)

	orderRepo.On("List", ctx, mock.MatchedBy(func(f entity.OrderFilter) bool {
		return f.Limit == defaultListLimit && f.BotID != nil && *f.BotID == botID
	})).Return([]entity.Order{}, nil)

	// Act
	_, err := svc.ListOrders(ctx, entity.OrderFilter{BotID: &botID})

	// Assert
	require.NoError(t, err)
	orderRepo.AssertExpectations(t)
}
