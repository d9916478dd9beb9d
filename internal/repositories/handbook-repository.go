package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"realty-system/internal/entities"
	apperrors "realty-system/pkg/errors"
)

type HandbookRepositoryInterface interface {
	GetHandbooks(ctx context.Context, category string) ([]entities.Handbook, error)
	FindHandbook(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Handbook, error)
	CreateHandbook(ctx context.Context, tx pgx.Tx, h *entities.Handbook) (uint64, error)
	UpdateHandbook(ctx context.Context, tx pgx.Tx, h *entities.Handbook) error
}

type HandbookRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewHandbookRepository(storage *pgxpool.Pool, logger *zap.Logger) HandbookRepositoryInterface {
	return &HandbookRepository{storage: storage, logger: logger}
}

const handbookFields = "id, category, name, is_deleted, created_at, updated_at"

func scanHandbook(row pgx.Row) (*entities.Handbook, error) {
	var h entities.Handbook
	err := row.Scan(&h.ID, &h.Category, &h.Name, &h.IsDeleted, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования handbook: %w", err)
	}
	return &h, nil
}

func (r *HandbookRepository) GetHandbooks(ctx context.Context, category string) ([]entities.Handbook, error) {
	rows, err := r.storage.Query(ctx,
		`SELECT `+handbookFields+` FROM handbooks WHERE category = $1 AND is_deleted = FALSE ORDER BY name, id`, category)
	if err != nil {
		return nil, fmt.Errorf("справочник %s: %w", category, err)
	}
	defer rows.Close()

	items := make([]entities.Handbook, 0)
	for rows.Next() {
		h, err := scanHandbook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *h)
	}
	return items, rows.Err()
}

func (r *HandbookRepository) FindHandbook(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Handbook, error) {
	return scanHandbook(pick(r.storage, tx).QueryRow(ctx, `SELECT `+handbookFields+` FROM handbooks WHERE id = $1`, id))
}

func (r *HandbookRepository) CreateHandbook(ctx context.Context, tx pgx.Tx, h *entities.Handbook) (uint64, error) {
	var id uint64
	err := tx.QueryRow(ctx,
		`INSERT INTO handbooks (category, name, created_at, updated_at) VALUES ($1, $2, NOW(), NOW()) RETURNING id`,
		h.Category, h.Name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("создание записи справочника: %w", err)
	}
	return id, nil
}

func (r *HandbookRepository) UpdateHandbook(ctx context.Context, tx pgx.Tx, h *entities.Handbook) error {
	result, err := tx.Exec(ctx,
		`UPDATE handbooks SET name = $1, updated_at = NOW() WHERE id = $2 AND is_deleted = FALSE`, h.Name, h.ID)
	if err != nil {
		return fmt.Errorf("обновление записи справочника #%d: %w", h.ID, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
