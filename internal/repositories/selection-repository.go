package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"realty-system/internal/entities"
	apperrors "realty-system/pkg/errors"
)

type SelectionRepositoryInterface interface {
	CreateSelection(ctx context.Context, tx pgx.Tx, selection *entities.Selection) (uint64, error)
	FindSelection(ctx context.Context, id uint64) (*entities.Selection, error)
	GetClientSelections(ctx context.Context, clientID uint64) ([]entities.Selection, error)
}

type SelectionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewSelectionRepository(storage *pgxpool.Pool, logger *zap.Logger) SelectionRepositoryInterface {
	return &SelectionRepository{storage: storage, logger: logger}
}

func (r *SelectionRepository) CreateSelection(ctx context.Context, tx pgx.Tx, selection *entities.Selection) (uint64, error) {
	var id uint64
	err := tx.QueryRow(ctx,
		`INSERT INTO selections (client_id, user_id, created_at) VALUES ($1, $2, NOW()) RETURNING id, created_at`,
		selection.ClientID, selection.UserID,
	).Scan(&id, &selection.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("создание подборки: %w", err)
	}

	if len(selection.Items) > 0 {
		ins := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
			Insert("selection_listings").Columns("selection_id", "listing_kind", "listing_id")
		for _, item := range selection.Items {
			ins = ins.Values(id, string(item.Kind), item.ListingID)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("запись объектов подборки: %w", err)
		}
	}
	return id, nil
}

const selectionColumns = "s.id, s.client_id, s.user_id, u.fio, s.created_at, s.is_deleted"

func scanSelection(row pgx.Row) (*entities.Selection, error) {
	var s entities.Selection
	err := row.Scan(&s.ID, &s.ClientID, &s.UserID, &s.UserFio, &s.CreatedAt, &s.IsDeleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования selection: %w", err)
	}
	return &s, nil
}

func (r *SelectionRepository) FindSelection(ctx context.Context, id uint64) (*entities.Selection, error) {
	sel, err := scanSelection(r.storage.QueryRow(ctx,
		`SELECT `+selectionColumns+` FROM selections s JOIN users u ON u.id = s.user_id WHERE s.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*entities.Selection{sel}); err != nil {
		return nil, err
	}
	return sel, nil
}

func (r *SelectionRepository) GetClientSelections(ctx context.Context, clientID uint64) ([]entities.Selection, error) {
	rows, err := r.storage.Query(ctx,
		`SELECT `+selectionColumns+` FROM selections s JOIN users u ON u.id = s.user_id
		 WHERE s.client_id = $1 AND s.is_deleted = FALSE ORDER BY s.created_at DESC, s.id DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("запрос подборок клиента #%d: %w", clientID, err)
	}
	defer rows.Close()

	var ptrs []*entities.Selection
	for rows.Next() {
		s, err := scanSelection(rows)
		if err != nil {
			return nil, err
		}
		ptrs = append(ptrs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, ptrs); err != nil {
		return nil, err
	}

	out := make([]entities.Selection, len(ptrs))
	for i, s := range ptrs {
		out[i] = *s
	}
	return out, nil
}

func (r *SelectionRepository) loadItems(ctx context.Context, selections []*entities.Selection) error {
	if len(selections) == 0 {
		return nil
	}
	byID := make(map[uint64]*entities.Selection, len(selections))
	ids := make([]int64, 0, len(selections))
	for _, s := range selections {
		byID[s.ID] = s
		ids = append(ids, int64(s.ID))
	}

	rows, err := r.storage.Query(ctx,
		`SELECT selection_id, listing_kind, listing_id FROM selection_listings
		 WHERE selection_id = ANY($1) ORDER BY selection_id, listing_kind, listing_id`, ids)
	if err != nil {
		return fmt.Errorf("запрос объектов подборок: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var selID uint64
		var item entities.SelectionItem
		if err := rows.Scan(&selID, &item.Kind, &item.ListingID); err != nil {
			return err
		}
		if s, ok := byID[selID]; ok {
			s.Items = append(s.Items, item)
		}
	}
	return rows.Err()
}
