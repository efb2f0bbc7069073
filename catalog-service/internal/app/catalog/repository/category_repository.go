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
)

type categoryRepository struct {
	db *pgxpool.Pool // Пул соединений с PostgreSQL
}

// NewCategoryRepository создает новый репозиторий категорий
func NewCategoryRepository(db *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create создает новую категорию в PostgreSQL
// Валидность parent_id (существование и принадлежность боту) проверяет service layer,
// FK constraint остаётся защитой от гонок
func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	query := `
		INSERT INTO categories (id, bot_id, name, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		category.ID, category.BotID, category.Name, category.ParentID, category.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return ErrForeignKey
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetByID получает категорию по ID из PostgreSQL
func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	query := `SELECT id, bot_id, name, parent_id, created_at FROM categories WHERE id = $1`

	var category entity.Category
	err := r.db.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.BotID,
		&category.Name,
		&category.ParentID,
		&category.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by id: %w", err)
	}

	return &category, nil
}

// GetByBotID получает все категории бота в порядке создания
// Плоский список: дерево собирается в service layer через индекс parent -> children
func (r *categoryRepository) GetByBotID(ctx context.Context, botID uuid.UUID) ([]entity.Category, error) {
	query := `
		SELECT id, bot_id, name, parent_id, created_at
		FROM categories
		WHERE bot_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, botID)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer rows.Close()

	var categories []entity.Category
	for rows.Next() {
		var category entity.Category
		if err := rows.Scan(
			&category.ID,
			&category.BotID,
			&category.Name,
			&category.ParentID,
			&category.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// DeleteTree удаляет поддерево категории одной транзакцией
// Сначала собирает полный набор потомков обходом в ширину по parent_id,
// затем удаляет уровни цен, товары и категории. Частично выполненный каскад
// невозможен: либо commit всего набора, либо rollback
func (r *categoryRepository) DeleteTree(ctx context.Context, id uuid.UUID) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin cascade delete: %w", err)
	}
	defer tx.Rollback(ctx)

	// Проверяем что корень существует
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check category: %w", err)
	}
	if !exists {
		return 0, ErrCategoryNotFound
	}

	// BFS по дереву: на каждом шаге выбираем детей текущего фронта
	all := []string{id.String()}
	frontier := []string{id.String()}

	for len(frontier) > 0 {
		rows, err := tx.Query(ctx,
			`SELECT id FROM categories WHERE parent_id = ANY($1::uuid[])`, frontier)
		if err != nil {
			return 0, fmt.Errorf("failed to collect subtree: %w", err)
		}

		var next []string
		for rows.Next() {
			var childID uuid.UUID
			if err := rows.Scan(&childID); err != nil {
				rows.Close()
				return 0, fmt.Errorf("failed to scan child category: %w", err)
			}
			next = append(next, childID.String())
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("error iterating children: %w", err)
		}

		all = append(all, next...)
		frontier = next
	}

	// Удаляем снизу вверх: уровни цен -> товары -> категории
	if _, err := tx.Exec(ctx, `
		DELETE FROM price_tiers
		WHERE product_id IN (SELECT id FROM products WHERE category_id = ANY($1::uuid[]))
	`, all); err != nil {
		return 0, fmt.Errorf("failed to delete subtree tiers: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM products WHERE category_id = ANY($1::uuid[])`, all); err != nil {
		return 0, fmt.Errorf("failed to delete subtree products: %w", err)
	}

	result, err := tx.Exec(ctx,
		`DELETE FROM categories WHERE id = ANY($1::uuid[])`, all)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subtree categories: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit cascade delete: %w", err)
	}

	return int(result.RowsAffected()), nil
}
