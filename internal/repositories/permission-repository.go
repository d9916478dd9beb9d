package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"realty-system/internal/entities"
)

type PermissionRepositoryInterface interface {
	GetPermissions(ctx context.Context, search string) ([]entities.Permission, error)
	// GetAllUserPermissionsNames - объединение прямых прав и прав групп пользователя.
	GetAllUserPermissionsNames(ctx context.Context, userID uint64) ([]string, error)
	SetUserPermissions(ctx context.Context, tx pgx.Tx, userID uint64, codenames []string) error
	UpsertPermission(ctx context.Context, tx pgx.Tx, codename, description string) (uint64, error)
}

type PermissionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewPermissionRepository(storage *pgxpool.Pool, logger *zap.Logger) PermissionRepositoryInterface {
	return &PermissionRepository{storage: storage, logger: logger}
}

func (r *PermissionRepository) GetPermissions(ctx context.Context, search string) ([]entities.Permission, error) {
	query := `SELECT id, codename, description FROM permissions`
	var args []interface{}
	if search != "" {
		query += ` WHERE codename ILIKE $1 OR description ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY codename`

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения прав: %w", err)
	}
	defer rows.Close()

	perms := make([]entities.Permission, 0)
	for rows.Next() {
		var p entities.Permission
		if err := rows.Scan(&p.ID, &p.Codename, &p.Description); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *PermissionRepository) GetAllUserPermissionsNames(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT p.codename FROM permissions p WHERE p.id IN (
			SELECT permission_id FROM user_permissions WHERE user_id = $1
			UNION
			SELECT gp.permission_id FROM group_permissions gp
			JOIN user_groups ug ON gp.group_id = ug.group_id WHERE ug.user_id = $1
		)
		ORDER BY p.codename`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Права пользователя получены", zap.Uint64("userID", userID), zap.Int("count", len(names)))
	return names, nil
}

func (r *PermissionRepository) SetUserPermissions(ctx context.Context, tx pgx.Tx, userID uint64, codenames []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM user_permissions WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if len(codenames) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO user_permissions (user_id, permission_id)
		SELECT $1, p.id FROM permissions p WHERE p.codename = ANY($2)
		ON CONFLICT DO NOTHING`, userID, codenames)
	return err
}

func (r *PermissionRepository) UpsertPermission(ctx context.Context, tx pgx.Tx, codename, description string) (uint64, error) {
	var id uint64
	err := tx.QueryRow(ctx, `
		INSERT INTO permissions (codename, description) VALUES ($1, $2)
		ON CONFLICT (codename) DO UPDATE SET description = EXCLUDED.description
		RETURNING id`, codename, description).Scan(&id)
	return id, err
}
