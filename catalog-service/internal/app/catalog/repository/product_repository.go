package repository

import (
	"context"
	"errors"
	"fmt"

	"botbazaar/catalog-service/internal/app/catalog/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type productRepository struct {
	db *pgxpool.Pool
}

// NewProductRepository создает новый репозиторий товаров и ценовых уровней
func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &productRepository{db: db}
}

// Create создает новый товар в PostgreSQL
func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, category_id, name, description, unit, image_url, video_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		product.ID, product.CategoryID, product.Name, product.Description,
		product.Unit, product.ImageURL, product.VideoURL, product.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return ErrForeignKey
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetByID получает товар по ID из PostgreSQL
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	query := `
		SELECT id, category_id, name, description, unit, image_url, video_url, created_at
		FROM products WHERE id = $1
	`

	var product entity.Product
	err := r.db.QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.CategoryID,
		&product.Name,
		&product.Description,
		&product.Unit,
		&product.ImageURL,
		&product.VideoURL,
		&product.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	return &product, nil
}

// GetByCategoryIDs получает товары перечисленных категорий в порядке создания
// Используется при сборке дерева каталога
func (r *productRepository) GetByCategoryIDs(ctx context.Context, categoryIDs []uuid.UUID) ([]entity.Product, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, category_id, name, description, unit, image_url, video_url, created_at
		FROM products
		WHERE category_id = ANY($1::uuid[])
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, uuidStrings(categoryIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		var product entity.Product
		if err := rows.Scan(
			&product.ID,
			&product.CategoryID,
			&product.Name,
			&product.Description,
			&product.Unit,
			&product.ImageURL,
			&product.VideoURL,
			&product.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Delete удаляет товар вместе со всеми его ценовыми уровнями одной транзакцией
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin product delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM price_tiers WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete product tiers: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product delete: %w", err)
	}

	return nil
}

// BotIDForProduct возвращает ID бота-владельца товара через его категорию
// Нужен для инвалидации кеша дерева при мутациях товаров и уровней
func (r *productRepository) BotIDForProduct(ctx context.Context, productID uuid.UUID) (uuid.UUID, error) {
	query := `
		SELECT c.bot_id
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`

	var botID uuid.UUID
	if err := r.db.QueryRow(ctx, query, productID).Scan(&botID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrProductNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve product owner: %w", err)
	}

	return botID, nil
}

// AddTier добавляет ценовой уровень к товару
// Положительность суммы гарантирует service layer, CHECK constraint - защита от гонок
func (r *productRepository) AddTier(ctx context.Context, tier *entity.PriceTier) error {
	query := `
		INSERT INTO price_tiers (id, product_id, label, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		tier.ID, tier.ProductID, tier.Label, tier.Amount.String(), tier.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to add price tier: %w", err)
	}

	return nil
}

// GetTier получает ценовой уровень по ID
func (r *productRepository) GetTier(ctx context.Context, tierID uuid.UUID) (*entity.PriceTier, error) {
	query := `SELECT id, product_id, label, amount, created_at FROM price_tiers WHERE id = $1`

	tier, err := scanTier(r.db.QueryRow(ctx, query, tierID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("failed to get price tier: %w", err)
	}

	return tier, nil
}

// GetTiersByProductIDs получает уровни цен перечисленных товаров в порядке создания
func (r *productRepository) GetTiersByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]entity.PriceTier, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, product_id, label, amount, created_at
		FROM price_tiers
		WHERE product_id = ANY($1::uuid[])
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, uuidStrings(productIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get price tiers: %w", err)
	}
	defer rows.Close()

	var tiers []entity.PriceTier
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price tier: %w", err)
		}
		tiers = append(tiers, *tier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price tiers: %w", err)
	}

	return tiers, nil
}

// RemoveTier удаляет ценовой уровень
func (r *productRepository) RemoveTier(ctx context.Context, tierID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM price_tiers WHERE id = $1`, tierID)
	if err != nil {
		return fmt.Errorf("failed to remove price tier: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTierNotFound
	}

	return nil
}

// scanTier читает строку price_tiers; numeric сканируется как строка,
// чтобы сумма не проходила через float64
func scanTier(row pgx.Row) (*entity.PriceTier, error) {
	var tier entity.PriceTier
	var amount string

	if err := row.Scan(
		&tier.ID,
		&tier.ProductID,
		&tier.Label,
		&amount,
		&tier.CreatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in price_tiers row: %w", err)
	}
	tier.Amount = parsed

	return &tier, nil
}

// uuidStrings конвертирует UUID в строки для передачи массива в запрос с ::uuid[]
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
