package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"realty-system/internal/entities"
)

type HistoryRepositoryInterface interface {
	// AppendSnapshot проставляет Version/PrevID по последнему снимку сущности.
	AppendSnapshot(ctx context.Context, tx pgx.Tx, snapshot *entities.HistorySnapshot) error
	// GetSnapshots - все снимки сущности от старых к новым.
	GetSnapshots(ctx context.Context, ref entities.EntityRef) ([]entities.HistorySnapshot, error)
	// GetListingHistory - снимки объектов типа kind за период, от новых к старым,
	// только по объектам, попадающим в vis.
	GetListingHistory(ctx context.Context, kind entities.ListingKind, from, to *time.Time, vis Visibility) ([]entities.HistoryEntry, error)
}

type HistoryRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewHistoryRepository(storage *pgxpool.Pool, logger *zap.Logger) HistoryRepositoryInterface {
	return &HistoryRepository{storage: storage, logger: logger}
}

func (r *HistoryRepository) AppendSnapshot(ctx context.Context, tx pgx.Tx, snapshot *entities.HistorySnapshot) error {
	var prevID uint64
	var prevVersion int
	err := tx.QueryRow(ctx,
		`SELECT id, version FROM history_snapshots
		 WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY version DESC LIMIT 1 FOR UPDATE`,
		string(snapshot.Ref.Type), snapshot.Ref.ID,
	).Scan(&prevID, &prevVersion)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		snapshot.Version = 1
		snapshot.PrevID = nil
	case err != nil:
		return fmt.Errorf("последний снимок %s #%d: %w", snapshot.Ref.Type, snapshot.Ref.ID, err)
	default:
		snapshot.Version = prevVersion + 1
		snapshot.PrevID = &prevID
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO history_snapshots
		   (entity_type, entity_id, version, prev_id, change_type, change_set, fields, changed_by, changed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 RETURNING id, changed_at`,
		string(snapshot.Ref.Type), snapshot.Ref.ID, snapshot.Version, snapshot.PrevID,
		snapshot.ChangeType, snapshot.ChangeSet, snapshot.Fields, snapshot.ChangedBy,
	).Scan(&snapshot.ID, &snapshot.ChangedAt)
	if err != nil {
		return fmt.Errorf("запись снимка %s #%d: %w", snapshot.Ref.Type, snapshot.Ref.ID, err)
	}
	return nil
}

func historySelect() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Select(
		"h.id", "h.entity_type", "h.entity_id", "h.version", "h.prev_id", "h.change_type",
		"h.change_set", "h.fields", "h.changed_by", "COALESCE(u.fio, '')", "h.changed_at",
	).From("history_snapshots h").LeftJoin("users u ON u.id = h.changed_by")
}

func historyDest(s *entities.HistorySnapshot) []interface{} {
	return []interface{}{
		&s.ID, &s.Ref.Type, &s.Ref.ID, &s.Version, &s.PrevID, &s.ChangeType,
		&s.ChangeSet, &s.Fields, &s.ChangedBy, &s.ChangedByFio, &s.ChangedAt,
	}
}

func (r *HistoryRepository) GetSnapshots(ctx context.Context, ref entities.EntityRef) ([]entities.HistorySnapshot, error) {
	query, args, err := historySelect().
		Where(sq.Eq{"h.entity_type": string(ref.Type), "h.entity_id": ref.ID}).
		OrderBy("h.version ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("история %s #%d: %w", ref.Type, ref.ID, err)
	}
	defer rows.Close()

	snapshots := make([]entities.HistorySnapshot, 0)
	for rows.Next() {
		var s entities.HistorySnapshot
		if err := rows.Scan(historyDest(&s)...); err != nil {
			return nil, fmt.Errorf("ошибка сканирования снимка: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// ListingHistoryQuery - поток изменений одного типа объектов, от новых к старым.
func ListingHistoryQuery(kind entities.ListingKind, from, to *time.Time, vis Visibility) sq.SelectBuilder {
	b := historySelect().Column("p.fields").
		LeftJoin("history_snapshots p ON p.id = h.prev_id").
		Join(fmt.Sprintf("%s %s ON %s.id = h.entity_id", ListingTable(kind), ListingAlias, ListingAlias)).
		Where(sq.Eq{"h.entity_type": string(kind.EntityType())})
	if from != nil {
		b = b.Where(sq.GtOrEq{"h.changed_at": *from})
	}
	if to != nil {
		b = b.Where(sq.Lt{"h.changed_at": *to})
	}
	// удалённые объекты тоже остаются в отчёте
	vis.IncludeDeleted = true
	return b.Where(VisibilityPredicate(ListingAlias, vis)).OrderBy("h.changed_at DESC", "h.id DESC")
}

func (r *HistoryRepository) GetListingHistory(ctx context.Context, kind entities.ListingKind, from, to *time.Time, vis Visibility) ([]entities.HistoryEntry, error) {
	query, args, err := ListingHistoryQuery(kind, from, to, vis).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("история объектов %s: %w", kind, err)
	}
	defer rows.Close()

	entries := make([]entities.HistoryEntry, 0)
	for rows.Next() {
		var e entities.HistoryEntry
		dest := append(historyDest(&e.Snapshot), &e.Previous)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("ошибка сканирования снимка: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
