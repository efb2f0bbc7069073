package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"botbazaar/catalog-service/internal/app/catalog/entity"
	"botbazaar/catalog-service/internal/app/catalog/repository"
	"botbazaar/catalog-service/internal/app/catalog/repository/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Хелперы для создания тестовых данных

func newTestService() (*CatalogService, *mocks.MockCategoryRepository, *mocks.MockProductRepository, *mocks.MockTreeCache) {
	categoryRepo := new(mocks.MockCategoryRepository)
	productRepo := new(mocks.MockProductRepository)
	treeCache := new(mocks.MockTreeCache)
	return NewCatalogService(categoryRepo, productRepo, treeCache), categoryRepo, productRepo, treeCache
}

func newTestCategory(botID uuid.UUID) *entity.Category {
	return &entity.Category{
		ID:        uuid.New(),
		BotID:     botID,
		Name:      "Flowers",
		CreatedAt: time.Now(),
	}
}

func newTestProduct(categoryID uuid.UUID) *entity.Product {
	return &entity.Product{
		ID:          uuid.New(),
		CategoryID:  categoryID,
		Name:        "Red Rose Bundle",
		Description: "A dozen red roses",
		Unit:        "bundle",
		CreatedAt:   time.Now(),
	}
}

// ==================== Category Tests ====================

func TestCatalogService_CreateCategory_Root(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	service, categoryRepo, _, treeCache := newTestService()

	categoryRepo.On("Create", ctx, mock.AnythingOfType("*entity.Category")).Return(nil)
	treeCache.On("InvalidateTree", ctx, botID).Return(nil)

	req := &entity.CreateCategoryRequest{Name: "Flowers"}

	// Act
	category, err := service.CreateCategory(ctx, botID, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Flowers", category.Name)
	assert.Equal(t, botID, category.BotID)
	assert.Nil(t, category.ParentID)
	assert.NotEqual(t, uuid.Nil, category.ID)

	categoryRepo.AssertExpectations(t)
	treeCache.AssertExpectations(t)
}

func TestCatalogService_CreateCategory_WithParent(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	parent := newTestCategory(botID)
	service, categoryRepo, _, treeCache := newTestService()

	categoryRepo.On("GetByID", ctx, parent.ID).Return(parent, nil)
	categoryRepo.On("Create", ctx, mock.AnythingOfType("*entity.Category")).Return(nil)
	treeCache.On("InvalidateTree", ctx, botID).Return(nil)

	req := &entity.CreateCategoryRequest{Name: "Roses", ParentID: &parent.ID}

	// Act
	category, err := service.CreateCategory(ctx, botID, req)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, category.ParentID)
	assert.Equal(t, parent.ID, *category.ParentID)

	categoryRepo.AssertExpectations(t)
}

func TestCatalogService_CreateCategory_ParentNotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	parentID := uuid.New()
	service, categoryRepo, _, _ := newTestService()

	categoryRepo.On("GetByID", ctx, parentID).Return(nil, repository.ErrCategoryNotFound)

	req := &entity.CreateCategoryRequest{Name: "Roses", ParentID: &parentID}

	// Act
	category, err := service.CreateCategory(ctx, botID, req)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidParent)
	assert.Nil(t, category)
	categoryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCatalogService_CreateCategory_ParentFromAnotherBot(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	foreignParent := newTestCategory(uuid.New()) // другой бот
	service, categoryRepo, _, _ := newTestService()

	categoryRepo.On("GetByID", ctx, foreignParent.ID).Return(foreignParent, nil)

	req := &entity.CreateCategoryRequest{Name: "Roses", ParentID: &foreignParent.ID}

	// Act
	category, err := service.CreateCategory(ctx, botID, req)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidParent)
	assert.Nil(t, category)
	categoryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCatalogService_CreateCategory_ParentDeletedRace(t *testing.T) {
	// Родителя удалили между проверкой и вставкой - FK ошибка мапится на ErrInvalidParent
	ctx := context.Background()
	botID := uuid.New()
	parent := newTestCategory(botID)
	service, categoryRepo, _, _ := newTestService()

	categoryRepo.On("GetByID", ctx, parent.ID).Return(parent, nil)
	categoryRepo.On("Create", ctx, mock.AnythingOfType("*entity.Category")).Return(repository.ErrForeignKey)

	req := &entity.CreateCategoryRequest{Name: "Roses", ParentID: &parent.ID}

	// Act
	category, err := service.CreateCategory(ctx, botID, req)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidParent)
	assert.Nil(t, category)
}

func TestCatalogService_DeleteCategory_Cascade(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	category := newTestCategory(botID)
	service, categoryRepo, _, treeCache := newTestService()

	categoryRepo.On("GetByID", ctx, category.ID).Return(category, nil)
	categoryRepo.On("DeleteTree", ctx, category.ID).Return(3, nil)
	treeCache.On("InvalidateTree", ctx, botID).Return(nil)

	// Act
	err := service.DeleteCategory(ctx, category.ID)

	// Assert
	require.NoError(t, err)
	categoryRepo.AssertExpectations(t)
	treeCache.AssertExpectations(t)
}

func TestCatalogService_DeleteCategory_NotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	id := uuid.New()
	service, categoryRepo, _, _ := newTestService()

	categoryRepo.On("GetByID", ctx, id).Return(nil, repository.ErrCategoryNotFound)

	// Act
	err := service.DeleteCategory(ctx, id)

	// Assert
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	categoryRepo.AssertNotCalled(t, "DeleteTree", mock.Anything, mock.Anything)
}

// ==================== Product Tests ====================

func TestCatalogService_CreateProduct_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	category := newTestCategory(botID)
	service, categoryRepo, productRepo, treeCache := newTestService()

	categoryRepo.On("GetByID", ctx, category.ID).Return(category, nil)
	productRepo.On("Create", ctx, mock.AnythingOfType("*entity.Product")).Return(nil)
	treeCache.On("InvalidateTree", ctx, botID).Return(nil)

	req := &entity.CreateProductRequest{
		Name:        "Red Rose Bundle",
		Description: "A dozen red roses",
		Unit:        "bundle",
	}

	// Act
	product, err := service.CreateProduct(ctx, category.ID, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, category.ID, product.CategoryID)
	assert.Equal(t, "bundle", product.Unit)

	productRepo.AssertExpectations(t)
	treeCache.AssertExpectations(t)
}

func TestCatalogService_CreateProduct_DefaultUnit(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	category := newTestCategory(botID)
	service, categoryRepo, productRepo, treeCache := newTestService()

	categoryRepo.On("GetByID", ctx, category.ID).Return(category, nil)
	productRepo.On("Create", ctx, mock.AnythingOfType("*entity.Product")).Return(nil)
	treeCache.On("InvalidateTree", ctx, botID).Return(nil)

	req := &entity.CreateProductRequest{Name: "Red Rose Bundle"}

	// Act
	product, err := service.CreateProduct(ctx, category.ID, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "item", product.Unit)
}

func TestCatalogService_CreateProduct_CategoryNotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	categoryID := uuid.New()
	service, categoryRepo, productRepo, _ := newTestService()

	categoryRepo.On("GetByID", ctx, categoryID).Return(nil, repository.ErrCategoryNotFound)

	req := &entity.CreateProductRequest{Name: "Red Rose Bundle"}

	// Act
	product, err := service.CreateProduct(ctx, categoryID, req)

	// Assert
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.Nil(t, product)
	productRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCatalogService_GetProduct_WithTiers(t *testing.T) {
	// Arrange
	ctx := context.Background()
	product := newTestProduct(uuid.New())
	tiers := []entity.PriceTier{
		{ID: uuid.New(), ProductID: product.ID, Label: "single", Amount: decimal.RequireFromString("50.00")},
	}
	service, _, productRepo, _ := newTestService()

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	productRepo.On("GetTiersByProductIDs", ctx, []uuid.UUID{product.ID}).Return(tiers, nil)

	// Act
	result, err := service.GetProduct(ctx, product.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, product.Name, result.Name)
	require.Len(t, result.PriceTiers, 1)
	assert.True(t, result.PriceTiers[0].Amount.Equal(decimal.RequireFromString("50.00")))
}

func TestCatalogService_GetProduct_NotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	id := uuid.New()
	service, _, productRepo, _ := newTestService()

	productRepo.On("GetByID", ctx, id).Return(nil, repository.ErrProductNotFound)

	// Act
	result, err := service.GetProduct(ctx, id)

	// Assert
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, result)
}

func TestCatalogService_DeleteProduct_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	productID := uuid.New()
	service, _, productRepo, treeCache := newTestService()

	productRepo.On("BotIDForProduct", ctx, productID).Return(botID, nil)
	productRepo.On("Delete", ctx, productID).Return(nil)
	treeCache.On("InvalidateTree", ctx, botID).Return(nil)

	// Act
	err := service.DeleteProduct(ctx, productID)

	// Assert
	require.NoError(t, err)
	productRepo.AssertExpectations(t)
	treeCache.AssertExpectations(t)
}

// ==================== Price Tier Tests ====================

func TestCatalogService_AddPriceTier_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	productID := uuid.New()
	service, _, productRepo, treeCache := newTestService()

	productRepo.On("BotIDForProduct", ctx, productID).Return(botID, nil)
	productRepo.On("AddTier", ctx, mock.AnythingOfType("*entity.PriceTier")).Return(nil)
	treeCache.On("InvalidateTree", ctx, botID).Return(nil)

	req := &entity.AddPriceTierRequest{
		Label:  "1 gram",
		Amount: decimal.RequireFromString("25.50"),
	}

	// Act
	tier, err := service.AddPriceTier(ctx, productID, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, productID, tier.ProductID)
	assert.Equal(t, "1 gram", tier.Label)
	assert.True(t, tier.Amount.Equal(decimal.RequireFromString("25.50")))

	productRepo.AssertExpectations(t)
}

func TestCatalogService_AddPriceTier_ZeroAmount(t *testing.T) {
	// Невалидная сумма отклоняется до любых обращений к хранилищу:
	// набор уровней товара не меняется
	ctx := context.Background()
	service, _, productRepo, _ := newTestService()

	req := &entity.AddPriceTierRequest{Label: "free", Amount: decimal.Zero}

	// Act
	tier, err := service.AddPriceTier(ctx, uuid.New(), req)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Nil(t, tier)
	productRepo.AssertNotCalled(t, "AddTier", mock.Anything, mock.Anything)
	productRepo.AssertNotCalled(t, "BotIDForProduct", mock.Anything, mock.Anything)
}

func TestCatalogService_AddPriceTier_NegativeAmount(t *testing.T) {
	// Arrange
	ctx := context.Background()
	service, _, productRepo, _ := newTestService()

	req := &entity.AddPriceTierRequest{Label: "refund", Amount: decimal.RequireFromString("-10.00")}

	// Act
	tier, err := service.AddPriceTier(ctx, uuid.New(), req)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Nil(t, tier)
	productRepo.AssertNotCalled(t, "AddTier", mock.Anything, mock.Anything)
}

func TestCatalogService_AddPriceTier_ProductNotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	productID := uuid.New()
	service, _, productRepo, _ := newTestService()

	productRepo.On("BotIDForProduct", ctx, productID).Return(uuid.Nil, repository.ErrProductNotFound)

	req := &entity.AddPriceTierRequest{Label: "single", Amount: decimal.RequireFromString("50.00")}

	// Act
	tier, err := service.AddPriceTier(ctx, productID, req)

	// Assert
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, tier)
}

func TestCatalogService_RemovePriceTier_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	tier := &entity.PriceTier{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		Label:     "single",
		Amount:    decimal.RequireFromString("50.00"),
	}
	service, _, productRepo, treeCache := newTestService()

	productRepo.On("GetTier", ctx, tier.ID).Return(tier, nil)
	productRepo.On("BotIDForProduct", ctx, tier.ProductID).Return(botID, nil)
	productRepo.On("RemoveTier", ctx, tier.ID).Return(nil)
	treeCache.On("InvalidateTree", ctx, botID).Return(nil)

	// Act
	err := service.RemovePriceTier(ctx, tier.ID)

	// Assert
	require.NoError(t, err)
	productRepo.AssertExpectations(t)
	treeCache.AssertExpectations(t)
}

func TestCatalogService_RemovePriceTier_NotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	tierID := uuid.New()
	service, _, productRepo, _ := newTestService()

	productRepo.On("GetTier", ctx, tierID).Return(nil, repository.ErrTierNotFound)

	// Act
	err := service.RemovePriceTier(ctx, tierID)

	// Assert
	assert.ErrorIs(t, err, ErrTierNotFound)
	productRepo.AssertNotCalled(t, "RemoveTier", mock.Anything, mock.Anything)
}

// ==================== Tree Tests ====================

func TestCatalogService_GetTree_CacheHit(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	cached := []*entity.CategoryNode{
		{Category: *newTestCategory(botID)},
	}
	service, categoryRepo, _, treeCache := newTestService()

	treeCache.On("GetTree", ctx, botID).Return(cached, nil)

	// Act
	tree, err := service.GetTree(ctx, botID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, cached, tree)
	categoryRepo.AssertNotCalled(t, "GetByBotID", mock.Anything, mock.Anything)
}

func TestCatalogService_GetTree_CacheMiss_BuildsAndCaches(t *testing.T) {
	// Arrange: Flowers -> Roses -> Red Rose Bundle (50.00)
	ctx := context.Background()
	botID := uuid.New()

	flowers := entity.Category{ID: uuid.New(), BotID: botID, Name: "Flowers"}
	roses := entity.Category{ID: uuid.New(), BotID: botID, Name: "Roses", ParentID: &flowers.ID}
	bundle := entity.Product{ID: uuid.New(), CategoryID: roses.ID, Name: "Red Rose Bundle", Unit: "bundle"}
	tier := entity.PriceTier{ID: uuid.New(), ProductID: bundle.ID, Label: "single", Amount: decimal.RequireFromString("50.00")}

	service, categoryRepo, productRepo, treeCache := newTestService()

	treeCache.On("GetTree", ctx, botID).Return(nil, nil)
	categoryRepo.On("GetByBotID", ctx, botID).Return([]entity.Category{flowers, roses}, nil)
	productRepo.On("GetByCategoryIDs", ctx, []uuid.UUID{flowers.ID, roses.ID}).Return([]entity.Product{bundle}, nil)
	productRepo.On("GetTiersByProductIDs", ctx, []uuid.UUID{bundle.ID}).Return([]entity.PriceTier{tier}, nil)
	treeCache.On("SetTree", ctx, botID, mock.AnythingOfType("[]*entity.CategoryNode")).Return(nil)

	// Act
	tree, err := service.GetTree(ctx, botID)

	// Assert: один корень Flowers с вложенной Roses, внутри товар с уровнем цены
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "Flowers", tree[0].Name)
	assert.Empty(t, tree[0].Products)

	require.Len(t, tree[0].SubCategories, 1)
	rosesNode := tree[0].SubCategories[0]
	assert.Equal(t, "Roses", rosesNode.Name)

	require.Len(t, rosesNode.Products, 1)
	assert.Equal(t, "Red Rose Bundle", rosesNode.Products[0].Name)
	require.Len(t, rosesNode.Products[0].PriceTiers, 1)
	assert.True(t, rosesNode.Products[0].PriceTiers[0].Amount.Equal(decimal.RequireFromString("50.00")))

	treeCache.AssertExpectations(t)
}

func TestCatalogService_GetTree_EmptyCatalog(t *testing.T) {
	// Arrange
	ctx := context.Background()
	botID := uuid.New()
	service, categoryRepo, productRepo, treeCache := newTestService()

	treeCache.On("GetTree", ctx, botID).Return(nil, nil)
	categoryRepo.On("GetByBotID", ctx, botID).Return([]entity.Category{}, nil)
	productRepo.On("GetByCategoryIDs", ctx, []uuid.UUID{}).Return([]entity.Product{}, nil)
	productRepo.On("GetTiersByProductIDs", ctx, []uuid.UUID{}).Return([]entity.PriceTier{}, nil)
	treeCache.On("SetTree", ctx, botID, mock.AnythingOfType("[]*entity.CategoryNode")).Return(nil)

	// Act
	tree, err := service.GetTree(ctx, botID)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestCatalogService_GetTree_CacheErrorFallsBackToDB(t *testing.T) {
	// Ошибка Redis не валит запрос - дерево собирается из БД
	ctx := context.Background()
	botID := uuid.New()
	category := *newTestCategory(botID)
	service, categoryRepo, productRepo, treeCache := newTestService()

	treeCache.On("GetTree", ctx, botID).Return(nil, errors.New("redis down"))
	categoryRepo.On("GetByBotID", ctx, botID).Return([]entity.Category{category}, nil)
	productRepo.On("GetByCategoryIDs", ctx, []uuid.UUID{category.ID}).Return([]entity.Product{}, nil)
	productRepo.On("GetTiersByProductIDs", ctx, []uuid.UUID{}).Return([]entity.PriceTier{}, nil)
	treeCache.On("SetTree", ctx, botID, mock.AnythingOfType("[]*entity.CategoryNode")).Return(errors.New("redis down"))

	// Act
	tree, err := service.GetTree(ctx, botID)

	// Assert
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, category.Name, tree[0].Name)
}

// ==================== buildTree Tests ====================

func TestBuildTree_ProductsAttachedToOwnCategory(t *testing.T) {
	botID := uuid.New()
	catA := entity.Category{ID: uuid.New(), BotID: botID, Name: "A"}
	catB := entity.Category{ID: uuid.New(), BotID: botID, Name: "B"}
	productA := entity.Product{ID: uuid.New(), CategoryID: catA.ID, Name: "in A"}
	productB := entity.Product{ID: uuid.New(), CategoryID: catB.ID, Name: "in B"}

	tree := buildTree(
		[]entity.Category{catA, catB},
		[]entity.Product{productA, productB},
		nil,
	)

	require.Len(t, tree, 2)
	assert.Equal(t, "in A", tree[0].Products[0].Name)
	assert.Equal(t, "in B", tree[1].Products[0].Name)
}

func TestBuildTree_DeepNesting(t *testing.T) {
	botID := uuid.New()
	root := entity.Category{ID: uuid.New(), BotID: botID, Name: "root"}
	mid := entity.Category{ID: uuid.New(), BotID: botID, Name: "mid", ParentID: &root.ID}
	leaf := entity.Category{ID: uuid.New(), BotID: botID, Name: "leaf", ParentID: &mid.ID}

	tree := buildTree([]entity.Category{root, mid, leaf}, nil, nil)

	require.Len(t, tree, 1)
	require.Len(t, tree[0].SubCategories, 1)
	require.Len(t, tree[0].SubCategories[0].SubCategories, 1)
	assert.Equal(t, "leaf", tree[0].SubCategories[0].SubCategories[0].Name)
}

func TestBuildTree_SiblingOrderPreserved(t *testing.T) {
	// Входные категории отсортированы по created_at - порядок детей сохраняется
	botID := uuid.New()
	root := entity.Category{ID: uuid.New(), BotID: botID, Name: "root"}
	first := entity.Category{ID: uuid.New(), BotID: botID, Name: "first", ParentID: &root.ID}
	second := entity.Category{ID: uuid.New(), BotID: botID, Name: "second", ParentID: &root.ID}

	tree := buildTree([]entity.Category{root, first, second}, nil, nil)

	require.Len(t, tree, 1)
	require.Len(t, tree[0].SubCategories, 2)
	assert.Equal(t, "first", tree[0].SubCategories[0].Name)
	assert.Equal(t, "second", tree[0].SubCategories[1].Name)
}

func TestBuildTree_ProductWithoutTiers(t *testing.T) {
	// Товар без уровней цен присутствует в дереве с пустым списком
	botID := uuid.New()
	cat := entity.Category{ID: uuid.New(), BotID: botID, Name: "sparse"}
	product := entity.Product{ID: uuid.New(), CategoryID: cat.ID, Name: "no tiers"}

	tree := buildTree([]entity.Category{cat}, []entity.Product{product}, nil)

	require.Len(t, tree, 1)
	require.Len(t, tree[0].Products, 1)
	assert.NotNil(t, tree[0].Products[0].PriceTiers)
	assert.Empty(t, tree[0].Products[0].PriceTiers)
}
