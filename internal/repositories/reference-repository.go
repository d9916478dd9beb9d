package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	db "realty-system/internal/infrastructure/bd"
	"realty-system/internal/entities"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/types"
)

// родительские колонки каждого адресного справочника
var referenceParents = map[entities.ReferenceKind][]string{
	entities.RefRegion:   {},
	entities.RefDistrict: {"region_id"},
	entities.RefLocality: {"region_id", "district_id"},
	entities.RefStreet:   {"locality_id"},
}

type ReferenceRepositoryInterface interface {
	GetReferences(ctx context.Context, kind entities.ReferenceKind, filter types.Filter) ([]entities.Reference, uint64, error)
	FindReference(ctx context.Context, tx pgx.Tx, kind entities.ReferenceKind, id uint64) (*entities.Reference, error)
	CreateReference(ctx context.Context, tx pgx.Tx, ref *entities.Reference) (uint64, error)
	UpdateReference(ctx context.Context, tx pgx.Tx, ref *entities.Reference) error
}

type ReferenceRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewReferenceRepository(storage *pgxpool.Pool, logger *zap.Logger) ReferenceRepositoryInterface {
	return &ReferenceRepository{storage: storage, logger: logger}
}

func referenceTable(kind entities.ReferenceKind) string {
	return entityTables[kind.EntityType()]
}

func referenceSelect(kind entities.ReferenceKind) sq.SelectBuilder {
	cols := []string{"r.id", "r.name"}
	for _, p := range referenceParents[kind] {
		cols = append(cols, "r."+p)
	}
	cols = append(cols, "r.is_deleted", "r.created_at", "r.updated_at")
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Select(cols...).From(referenceTable(kind) + " r")
}

func referenceParentDest(ref *entities.Reference, column string) interface{} {
	switch column {
	case "region_id":
		return &ref.RegionID
	case "district_id":
		return &ref.DistrictID
	case "locality_id":
		return &ref.LocalityID
	}
	panic("repositories: неизвестная колонка " + column)
}

func scanReference(row pgx.Row, kind entities.ReferenceKind) (*entities.Reference, error) {
	ref := entities.Reference{Kind: kind}
	dest := []interface{}{&ref.ID, &ref.Name}
	for _, p := range referenceParents[kind] {
		dest = append(dest, referenceParentDest(&ref, p))
	}
	dest = append(dest, &ref.IsDeleted, &ref.CreatedAt, &ref.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования %s: %w", kind, err)
	}
	return &ref, nil
}

func referenceMap(kind entities.ReferenceKind) map[string]string {
	m := map[string]string{"id": "r.id", "name": "r.name", "created_at": "r.created_at"}
	for _, p := range referenceParents[kind] {
		m[p] = "r." + p
	}
	return m
}

func (r *ReferenceRepository) GetReferences(ctx context.Context, kind entities.ReferenceKind, filter types.Filter) ([]entities.Reference, uint64, error) {
	allowed := referenceMap(kind)
	live := sq.Eq{"r.is_deleted": false}

	countBuilder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("COUNT(r.id)").From(referenceTable(kind) + " r").Where(live)
	if filter.Search != "" {
		countBuilder = countBuilder.Where(sq.ILike{"r.name": "%" + filter.Search + "%"})
	}
	countBuilder = db.ApplyFilters(countBuilder, filter, allowed)

	var total uint64
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("подсчёт %s: %w", kind, err)
	}
	if total == 0 {
		return []entities.Reference{}, 0, nil
	}

	b := referenceSelect(kind).Where(live)
	if filter.Search != "" {
		b = b.Where(sq.ILike{"r.name": "%" + filter.Search + "%"})
	}
	if len(filter.Sort) == 0 {
		b = b.OrderBy("r.name ASC")
	}
	b = db.ApplyListParams(b, filter, allowed).OrderBy("r.id ASC")

	query, args, err := b.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("запрос %s: %w", kind, err)
	}
	defer rows.Close()

	refs := make([]entities.Reference, 0)
	for rows.Next() {
		ref, err := scanReference(rows, kind)
		if err != nil {
			return nil, 0, err
		}
		refs = append(refs, *ref)
	}
	return refs, total, rows.Err()
}

func (r *ReferenceRepository) FindReference(ctx context.Context, tx pgx.Tx, kind entities.ReferenceKind, id uint64) (*entities.Reference, error) {
	query, args, err := referenceSelect(kind).Where(sq.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanReference(pick(r.storage, tx).QueryRow(ctx, query, args...), kind)
}

func referenceValues(ref *entities.Reference) map[string]interface{} {
	set := map[string]interface{}{"name": ref.Name}
	for _, p := range referenceParents[ref.Kind] {
		switch p {
		case "region_id":
			set[p] = ref.RegionID
		case "district_id":
			set[p] = ref.DistrictID
		case "locality_id":
			set[p] = ref.LocalityID
		}
	}
	return set
}

func (r *ReferenceRepository) CreateReference(ctx context.Context, tx pgx.Tx, ref *entities.Reference) (uint64, error) {
	set := referenceValues(ref)
	set["created_at"] = sq.Expr("NOW()")
	set["updated_at"] = sq.Expr("NOW()")
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(referenceTable(ref.Kind)).SetMap(set).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, err
	}
	var id uint64
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("создание %s: %w", ref.Kind, err)
	}
	return id, nil
}

func (r *ReferenceRepository) UpdateReference(ctx context.Context, tx pgx.Tx, ref *entities.Reference) error {
	set := referenceValues(ref)
	set["updated_at"] = sq.Expr("NOW()")
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update(referenceTable(ref.Kind)).SetMap(set).
		Where(sq.Eq{"id": ref.ID, "is_deleted": false}).ToSql()
	if err != nil {
		return err
	}
	result, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("обновление %s #%d: %w", ref.Kind, ref.ID, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
