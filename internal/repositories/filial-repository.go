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

// ЕДИНАЯ КАРТА ПОЛЕЙ (Фильтр + Сортировка)
var filialMap = map[string]string{
	"id":         "f.id",
	"name":       "f.name",
	"address":    "f.address",
	"email":      "f.email",
	"created_at": "f.created_at",
	"updated_at": "f.updated_at",
}

type FilialRepositoryInterface interface {
	GetFilials(ctx context.Context, filter types.Filter) ([]entities.FilialAgency, uint64, error)
	FindFilial(ctx context.Context, tx pgx.Tx, id uint64) (*entities.FilialAgency, error)
	CreateFilial(ctx context.Context, tx pgx.Tx, filial *entities.FilialAgency) (uint64, error)
	UpdateFilial(ctx context.Context, tx pgx.Tx, filial *entities.FilialAgency) error

	GetFilialReports(ctx context.Context, filialID uint64) ([]entities.FilialReport, error)
	FindFilialReport(ctx context.Context, tx pgx.Tx, id uint64) (*entities.FilialReport, error)
	CreateFilialReport(ctx context.Context, tx pgx.Tx, report *entities.FilialReport) (uint64, error)
}

type FilialRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewFilialRepository(storage *pgxpool.Pool, logger *zap.Logger) FilialRepositoryInterface {
	return &FilialRepository{storage: storage, logger: logger}
}

// -----------------------------------------------------------
// SCAN
// -----------------------------------------------------------

const filialColumns = "f.id, f.name, f.address, f.phone_number, f.email, f.is_deleted, f.created_at, f.updated_at"

func scanFilial(row pgx.Row) (*entities.FilialAgency, error) {
	var f entities.FilialAgency
	err := row.Scan(&f.ID, &f.Name, &f.Address, &f.PhoneNumber, &f.Email, &f.IsDeleted, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования filial: %w", err)
	}
	return &f, nil
}

const filialReportColumns = "id, filial_id, author_id, title, body, period_from, period_to, is_deleted, created_at, updated_at"

func scanFilialReport(row pgx.Row) (*entities.FilialReport, error) {
	var r entities.FilialReport
	err := row.Scan(&r.ID, &r.FilialID, &r.AuthorID, &r.Title, &r.Body, &r.PeriodFrom, &r.PeriodTo,
		&r.IsDeleted, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования filial report: %w", err)
	}
	return &r, nil
}

// -----------------------------------------------------------
// GET (Список)
// -----------------------------------------------------------
func (r *FilialRepository) GetFilials(ctx context.Context, filter types.Filter) ([]entities.FilialAgency, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{
				sq.ILike{"f.name": pat},
				sq.ILike{"f.address": pat},
			})
		}
		return b
	}

	// 1. COUNT
	countBuilder := psql.Select("COUNT(f.id)").From("filial_agencies AS f").Where(sq.Eq{"f.is_deleted": false})
	countBuilder = applySearch(countBuilder)
	countBuilder = db.ApplyFilters(countBuilder, filter, filialMap)

	var total uint64
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.FilialAgency{}, 0, nil
	}

	// 2. SELECT
	baseBuilder := psql.Select(filialColumns).From("filial_agencies AS f").Where(sq.Eq{"f.is_deleted": false})
	baseBuilder = applySearch(baseBuilder)
	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("f.name ASC")
	}
	baseBuilder = db.ApplyListParams(baseBuilder, filter, filialMap).OrderBy("f.id ASC")

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	filials := make([]entities.FilialAgency, 0)
	for rows.Next() {
		f, err := scanFilial(rows)
		if err != nil {
			return nil, 0, err
		}
		filials = append(filials, *f)
	}
	return filials, total, rows.Err()
}

func (r *FilialRepository) FindFilial(ctx context.Context, tx pgx.Tx, id uint64) (*entities.FilialAgency, error) {
	return scanFilial(pick(r.storage, tx).QueryRow(ctx,
		`SELECT `+filialColumns+` FROM filial_agencies f WHERE f.id = $1`, id))
}

// -----------------------------------------------------------
// CRUD
// -----------------------------------------------------------

func (r *FilialRepository) CreateFilial(ctx context.Context, tx pgx.Tx, filial *entities.FilialAgency) (uint64, error) {
	var newID uint64
	err := tx.QueryRow(ctx, `
		INSERT INTO filial_agencies (name, address, phone_number, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id`,
		filial.Name, filial.Address, filial.PhoneNumber, filial.Email,
	).Scan(&newID)
	return newID, err
}

func (r *FilialRepository) UpdateFilial(ctx context.Context, tx pgx.Tx, filial *entities.FilialAgency) error {
	result, err := tx.Exec(ctx, `
		UPDATE filial_agencies
		SET name = $1, address = $2, phone_number = $3, email = $4, updated_at = NOW()
		WHERE id = $5 AND is_deleted = FALSE`,
		filial.Name, filial.Address, filial.PhoneNumber, filial.Email, filial.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *FilialRepository) GetFilialReports(ctx context.Context, filialID uint64) ([]entities.FilialReport, error) {
	rows, err := r.storage.Query(ctx,
		`SELECT `+filialReportColumns+` FROM filial_reports
		 WHERE filial_id = $1 AND is_deleted = FALSE ORDER BY period_from DESC, id DESC`, filialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]entities.FilialReport, 0)
	for rows.Next() {
		rep, err := scanFilialReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *rep)
	}
	return reports, rows.Err()
}

func (r *FilialRepository) FindFilialReport(ctx context.Context, tx pgx.Tx, id uint64) (*entities.FilialReport, error) {
	return scanFilialReport(pick(r.storage, tx).QueryRow(ctx,
		`SELECT `+filialReportColumns+` FROM filial_reports WHERE id = $1`, id))
}

func (r *FilialRepository) CreateFilialReport(ctx context.Context, tx pgx.Tx, report *entities.FilialReport) (uint64, error) {
	var newID uint64
	err := tx.QueryRow(ctx, `
		INSERT INTO filial_reports (filial_id, author_id, title, body, period_from, period_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id`,
		report.FilialID, report.AuthorID, report.Title, report.Body, report.PeriodFrom, report.PeriodTo,
	).Scan(&newID)
	return newID, err
}
