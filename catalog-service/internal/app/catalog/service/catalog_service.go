package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"botbazaar/catalog-service/internal/app/catalog/entity"
	"botbazaar/catalog-service/internal/app/catalog/repository"
	"botbazaar/pkg/logger"
	"botbazaar/pkg/metrics"

	"github.com/google/uuid"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrTierNotFound     = errors.New("price tier not found")
	ErrInvalidParent    = errors.New("parent category does not exist or belongs to another bot")
	ErrInvalidAmount    = errors.New("price tier amount must be positive")
)

// CatalogService обрабатывает бизнес-логику дерева каталога
// Владеет категориями (self-referential дерево), товарами и уровнями цен
type CatalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	treeCache    TreeCache
}

// NewCatalogService создает новый сервис каталога с внедрением зависимостей
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	treeCache TreeCache,
) *CatalogService {
	return &CatalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		treeCache:    treeCache,
	}
}

// === CATEGORIES ===

// CreateCategory создает категорию, опционально привязывая её к родительской
// parent_id должен указывать на существующую категорию того же бота:
// это исключает межботовые связи и висячие родители, а заодно циклы -
// новая категория не может оказаться собственным предком
func (s *CatalogService) CreateCategory(ctx context.Context, botID uuid.UUID, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	if req.ParentID != nil {
		parent, err := s.categoryRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrInvalidParent
			}
			return nil, fmt.Errorf("failed to verify parent category: %w", err)
		}
		if parent.BotID != botID {
			return nil, ErrInvalidParent
		}
	}

	category := &entity.Category{
		ID:        uuid.New(),
		BotID:     botID,
		Name:      req.Name,
		ParentID:  req.ParentID,
		CreatedAt: time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			// Родителя успели удалить между проверкой и вставкой
			return nil, ErrInvalidParent
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	metrics.CatalogCategoriesCreated.Inc()
	s.invalidateTree(ctx, botID)

	return category, nil
}

// DeleteCategory каскадно удаляет категорию со всеми потомками,
// их товарами и уровнями цен. Каскад атомарен на уровне репозитория
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to get category: %w", err)
	}

	deleted, err := s.categoryRepo.DeleteTree(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to delete category subtree: %w", err)
	}

	metrics.CatalogCascadeDeletes.Inc()
	logger.Info().
		Str("category_id", id.String()).
		Int("categories_deleted", deleted).
		Msg("Deleted catalog subtree")

	s.invalidateTree(ctx, category.BotID)

	return nil
}

// === PRODUCTS ===

// CreateProduct создает товар в указанной категории
// Товар не может существовать вне дерева: категория обязательна
func (s *CatalogService) CreateProduct(ctx context.Context, categoryID uuid.UUID, req *entity.CreateProductRequest) (*entity.Product, error) {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to verify category: %w", err)
	}

	unit := req.Unit
	if unit == "" {
		unit = "item"
	}

	product := &entity.Product{
		ID:          uuid.New(),
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: req.Description,
		Unit:        unit,
		ImageURL:    req.ImageURL,
		VideoURL:    req.VideoURL,
		CreatedAt:   time.Now(),
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.invalidateTree(ctx, category.BotID)

	return product, nil
}

// GetProduct получает товар с его уровнями цен
// Используется orders-service при создании заказа для снапшота цены
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.ProductWithTiers, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	tiers, err := s.productRepo.GetTiersByProductIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("failed to get product tiers: %w", err)
	}

	return &entity.ProductWithTiers{
		Product:    *product,
		PriceTiers: tiers,
	}, nil
}

// DeleteProduct удаляет товар вместе с его уровнями цен
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	botID, err := s.productRepo.BotIDForProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to resolve product owner: %w", err)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.invalidateTree(ctx, botID)

	return nil
}

// === PRICE TIERS ===

// AddPriceTier добавляет ценовой уровень к товару
// Сумма должна быть строго положительной: невалидное значение отклоняется,
// набор уровней товара при этом не меняется
func (s *CatalogService) AddPriceTier(ctx context.Context, productID uuid.UUID, req *entity.AddPriceTierRequest) (*entity.PriceTier, error) {
	if req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	botID, err := s.productRepo.BotIDForProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to resolve product owner: %w", err)
	}

	tier := &entity.PriceTier{
		ID:        uuid.New(),
		ProductID: productID,
		Label:     req.Label,
		Amount:    req.Amount,
		CreatedAt: time.Now(),
	}

	if err := s.productRepo.AddTier(ctx, tier); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to add price tier: %w", err)
	}

	s.invalidateTree(ctx, botID)

	return tier, nil
}

// RemovePriceTier удаляет ценовой уровень
// Исторические заказы не затрагиваются: цена снапшотится при создании заказа
func (s *CatalogService) RemovePriceTier(ctx context.Context, tierID uuid.UUID) error {
	tier, err := s.productRepo.GetTier(ctx, tierID)
	if err != nil {
		if errors.Is(err, repository.ErrTierNotFound) {
			return ErrTierNotFound
		}
		return fmt.Errorf("failed to get price tier: %w", err)
	}

	botID, err := s.productRepo.BotIDForProduct(ctx, tier.ProductID)
	if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
		return fmt.Errorf("failed to resolve tier owner: %w", err)
	}

	if err := s.productRepo.RemoveTier(ctx, tierID); err != nil {
		if errors.Is(err, repository.ErrTierNotFound) {
			return ErrTierNotFound
		}
		return fmt.Errorf("failed to remove price tier: %w", err)
	}

	if botID != uuid.Nil {
		s.invalidateTree(ctx, botID)
	}

	return nil
}

// === TREE ===

// GetTree собирает полное дерево каталога бота для рекурсивного рендеринга
// Сначала проверяет кеш Redis; при промахе загружает плоские таблицы и
// собирает дерево за один проход через индекс parent -> children
func (s *CatalogService) GetTree(ctx context.Context, botID uuid.UUID) ([]*entity.CategoryNode, error) {
	if tree, err := s.treeCache.GetTree(ctx, botID); err == nil && tree != nil {
		return tree, nil
	}

	categories, err := s.categoryRepo.GetByBotID(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	categoryIDs := make([]uuid.UUID, len(categories))
	for i, c := range categories {
		categoryIDs[i] = c.ID
	}

	products, err := s.productRepo.GetByCategoryIDs(ctx, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	productIDs := make([]uuid.UUID, len(products))
	for i, p := range products {
		productIDs[i] = p.ID
	}

	tiers, err := s.productRepo.GetTiersByProductIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get price tiers: %w", err)
	}

	timer := time.Now()
	tree := buildTree(categories, products, tiers)
	metrics.CatalogTreeBuildDuration.Observe(time.Since(timer).Seconds())

	if err := s.treeCache.SetTree(ctx, botID, tree); err != nil {
		// Дерево уже собрано, проблемы с кешем не критичны
		logger.Warn().Err(err).Str("bot_id", botID.String()).Msg("Failed to cache catalog tree")
	}

	return tree, nil
}

// buildTree собирает вложенное дерево из плоских строк за один проход
// Вместо повторных сканов на каждом уровне строится индекс узлов по ID,
// после чего каждый узел подвешивается к родителю; входные срезы
// отсортированы по created_at, поэтому порядок детей стабилен
func buildTree(categories []entity.Category, products []entity.Product, tiers []entity.PriceTier) []*entity.CategoryNode {
	tiersByProduct := make(map[uuid.UUID][]entity.PriceTier)
	for _, t := range tiers {
		tiersByProduct[t.ProductID] = append(tiersByProduct[t.ProductID], t)
	}

	nodes := make(map[uuid.UUID]*entity.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &entity.CategoryNode{
			Category:      c,
			Products:      []entity.ProductWithTiers{},
			SubCategories: []*entity.CategoryNode{},
		}
	}

	for _, p := range products {
		node, ok := nodes[p.CategoryID]
		if !ok {
			continue
		}
		pt := tiersByProduct[p.ID]
		if pt == nil {
			pt = []entity.PriceTier{}
		}
		node.Products = append(node.Products, entity.ProductWithTiers{
			Product:    p,
			PriceTiers: pt,
		})
	}

	var roots []*entity.CategoryNode
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*c.ParentID]; ok {
			parent.SubCategories = append(parent.SubCategories, node)
		} else {
			// Родитель вне выборки бота: показываем узел как корневой,
			// чтобы поддерево не потерялось
			roots = append(roots, node)
		}
	}

	return roots
}

// invalidateTree сбрасывает кеш дерева бота после мутации каталога
// Ошибки кеша логируются, но не прерывают операцию
func (s *CatalogService) invalidateTree(ctx context.Context, botID uuid.UUID) {
	if err := s.treeCache.InvalidateTree(ctx, botID); err != nil {
		logger.Warn().Err(err).Str("bot_id", botID.String()).Msg("Failed to invalidate catalog tree cache")
	}
}
