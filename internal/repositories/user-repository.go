package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	db "realty-system/internal/infrastructure/bd"
	"realty-system/internal/entities"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/types"
)

const userSelectFields = `u.id, u.email, u.fio, u.phone_number, u.password, u.is_staff, u.is_superuser, u.is_active,
	ARRAY(SELECT uf.filial_id FROM user_filials uf WHERE uf.user_id = u.id ORDER BY uf.filial_id),
	ARRAY(SELECT ug.group_id FROM user_groups ug WHERE ug.user_id = u.id ORDER BY ug.group_id),
	u.last_login, u.created_at, u.updated_at`

var userMap = map[string]string{
	"id":         "u.id",
	"fio":        "u.fio",
	"email":      "u.email",
	"is_active":  "u.is_active",
	"is_staff":   "u.is_staff",
	"created_at": "u.created_at",
}

type UserRepositoryInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	FindUserByID(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)
	CreateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error)
	UpdateUser(ctx context.Context, tx pgx.Tx, user *entities.User) error
	SetUserFilials(ctx context.Context, tx pgx.Tx, userID uint64, filialIDs []uint64) error
	SetUserGroups(ctx context.Context, tx pgx.Tx, userID uint64, groupIDs []uint64) error
	TouchLastLogin(ctx context.Context, userID uint64) error
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	var filials, groups []int64
	err := row.Scan(
		&user.ID, &user.Email, &user.Fio, &user.PhoneNumber, &user.Password,
		&user.IsStaff, &user.IsSuperuser, &user.IsActive,
		&filials, &groups,
		&user.LastLogin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	user.FilialIDs = toUint64s(filials)
	user.GroupIDs = toUint64s(groups)
	return &user, nil
}

func (r *UserRepository) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search == "" {
			return b
		}
		pat := "%" + filter.Search + "%"
		return b.Where(sq.Or{sq.ILike{"u.fio": pat}, sq.ILike{"u.email": pat}, sq.ILike{"u.phone_number": pat}})
	}

	countBuilder := db.ApplyFilters(applySearch(psql.Select("COUNT(u.id)").From("users u")), filter, userMap)
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета пользователей: %w", err)
	}
	if total == 0 {
		return []entities.User{}, 0, nil
	}

	b := applySearch(psql.Select(userSelectFields).From("users u"))
	b = db.ApplyListParams(b, filter, userMap).OrderBy("u.id ASC")
	query, args, err := b.ToSql()
	if err != nil {
		return nil, 0, err
	}
	r.logger.Debug("Выполнение SQL-запроса пользователей", zap.String("query", query))

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения пользователей: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	return scanUser(r.storage.QueryRow(ctx, `SELECT `+userSelectFields+` FROM users u WHERE u.id = $1`, id))
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	return scanUser(r.storage.QueryRow(ctx,
		`SELECT `+userSelectFields+` FROM users u WHERE LOWER(u.email) = LOWER($1)`, email))
}

func mapUserWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "email") {
			return apperrors.NewHttpError(http.StatusBadRequest, "Email уже используется.", err, nil)
		}
		if pgErr.Code == "23503" {
			return apperrors.NewHttpError(http.StatusBadRequest, "Нарушение внешнего ключа.", err, nil)
		}
	}
	return err
}

func (r *UserRepository) CreateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error) {
	var id uint64
	err := tx.QueryRow(ctx, `
		INSERT INTO users (email, fio, phone_number, password, is_staff, is_superuser, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id`,
		user.Email, user.Fio, user.PhoneNumber, user.Password, user.IsStaff, user.IsSuperuser, user.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, mapUserWriteError(err)
	}
	return id, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, tx pgx.Tx, user *entities.User) error {
	result, err := tx.Exec(ctx, `
		UPDATE users SET email = $1, fio = $2, phone_number = $3, password = $4,
			is_staff = $5, is_superuser = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8`,
		user.Email, user.Fio, user.PhoneNumber, user.Password,
		user.IsStaff, user.IsSuperuser, user.IsActive, user.ID,
	)
	if err != nil {
		return mapUserWriteError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) replaceLinks(ctx context.Context, tx pgx.Tx, table, column string, userID uint64, ids []uint64) error {
	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE user_id = $1", table), userID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	ins := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Insert(table).Columns("user_id", column)
	for _, id := range ids {
		ins = ins.Values(userID, id)
	}
	query, args, err := ins.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query, args...)
	return mapUserWriteError(err)
}

func (r *UserRepository) SetUserFilials(ctx context.Context, tx pgx.Tx, userID uint64, filialIDs []uint64) error {
	return r.replaceLinks(ctx, tx, "user_filials", "filial_id", userID, filialIDs)
}

func (r *UserRepository) SetUserGroups(ctx context.Context, tx pgx.Tx, userID uint64, groupIDs []uint64) error {
	return r.replaceLinks(ctx, tx, "user_groups", "group_id", userID, groupIDs)
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, userID uint64) error {
	_, err := r.storage.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, userID)
	return err
}
