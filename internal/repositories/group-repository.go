package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"realty-system/internal/entities"
)

type GroupRepositoryInterface interface {
	GetGroups(ctx context.Context) ([]entities.Group, error)
	UpsertGroup(ctx context.Context, tx pgx.Tx, name string) (uint64, error)
	SetGroupPermissions(ctx context.Context, tx pgx.Tx, groupID uint64, codenames []string) error
}

type GroupRepository struct {
	storage *pgxpool.Pool
}

func NewGroupRepository(storage *pgxpool.Pool) GroupRepositoryInterface {
	return &GroupRepository{storage: storage}
}

func (r *GroupRepository) GetGroups(ctx context.Context) ([]entities.Group, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT g.id, g.name,
			ARRAY(SELECT gp.permission_id FROM group_permissions gp WHERE gp.group_id = g.id ORDER BY gp.permission_id)
		FROM groups g ORDER BY g.name`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка групп: %w", err)
	}
	defer rows.Close()

	groups := make([]entities.Group, 0)
	for rows.Next() {
		var g entities.Group
		var perms []int64
		if err := rows.Scan(&g.ID, &g.Name, &perms); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки группы: %w", err)
		}
		g.PermissionIDs = toUint64s(perms)
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *GroupRepository) UpsertGroup(ctx context.Context, tx pgx.Tx, name string) (uint64, error) {
	var id uint64
	err := tx.QueryRow(ctx, `
		INSERT INTO groups (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name).Scan(&id)
	return id, err
}

func (r *GroupRepository) SetGroupPermissions(ctx context.Context, tx pgx.Tx, groupID uint64, codenames []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM group_permissions WHERE group_id = $1`, groupID); err != nil {
		return err
	}
	if len(codenames) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO group_permissions (group_id, permission_id)
		SELECT $1, p.id FROM permissions p WHERE p.codename = ANY($2)
		ON CONFLICT DO NOTHING`, groupID, codenames)
	return err
}
