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

type SoftDeleteRepositoryInterface interface {
	// LockLive блокирует строку; ErrNotFound, если её нет или она уже удалена.
	LockLive(ctx context.Context, tx pgx.Tx, ref entities.EntityRef) error
	// FindLiveRelation возвращает первую связь с живыми строками или nil.
	FindLiveRelation(ctx context.Context, tx pgx.Tx, ref entities.EntityRef) (*Relation, error)
	MarkDeleted(ctx context.Context, tx pgx.Tx, ref entities.EntityRef) error
}

type SoftDeleteRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewSoftDeleteRepository(storage *pgxpool.Pool, logger *zap.Logger) SoftDeleteRepositoryInterface {
	return &SoftDeleteRepository{storage: storage, logger: logger}
}

func (r *SoftDeleteRepository) LockLive(ctx context.Context, tx pgx.Tx, ref entities.EntityRef) error {
	table, err := TableFor(ref.Type)
	if err != nil {
		return err
	}
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("is_deleted").From(table).Where(sq.Eq{"id": ref.ID}).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return err
	}

	var deleted bool
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&deleted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("блокировка %s #%d: %w", ref.Type, ref.ID, err)
	}
	if deleted {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *SoftDeleteRepository) FindLiveRelation(ctx context.Context, tx pgx.Tx, ref entities.EntityRef) (*Relation, error) {
	q := pick(r.storage, tx)
	for _, rel := range RelationsFor(ref.Type) {
		query, args, err := rel.liveQuery(ref.ID).ToSql()
		if err != nil {
			return nil, err
		}
		var one int
		err = q.QueryRow(ctx, query, args...).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("проверка связи %s: %w", rel.Name(), err)
		}
		found := rel
		return &found, nil
	}
	return nil, nil
}

func (r *SoftDeleteRepository) MarkDeleted(ctx context.Context, tx pgx.Tx, ref entities.EntityRef) error {
	table, err := TableFor(ref.Type)
	if err != nil {
		return err
	}
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update(table).
		Set("is_deleted", true).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": ref.ID, "is_deleted": false}).ToSql()
	if err != nil {
		return err
	}
	tag, err := pick(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("мягкое удаление %s #%d: %w", ref.Type, ref.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
