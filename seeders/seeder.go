package seeders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"realty-system/internal/authz"
	"realty-system/internal/entities"
	"realty-system/internal/repositories"
	"realty-system/pkg/config"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Seeder struct {
	db          *pgxpool.Pool
	tx          repositories.TxManagerInterface
	permissions repositories.PermissionRepositoryInterface
	groups      repositories.GroupRepositoryInterface
	handbooks   repositories.HandbookRepositoryInterface
	users       repositories.UserRepositoryInterface
	logger      *zap.Logger
}

func New(db *pgxpool.Pool, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:          db,
		tx:          repositories.NewTxManager(db),
		permissions: repositories.NewPermissionRepository(db, logger),
		groups:      repositories.NewGroupRepository(db),
		handbooks:   repositories.NewHandbookRepository(db, logger),
		users:       repositories.NewUserRepository(db, logger),
		logger:      logger,
	}
}

// SeedCore - права, группы и базовые справочники. Повторный запуск
// ничего не дублирует.
func (s *Seeder) SeedCore(ctx context.Context) error {
	if err := s.seedPermissions(ctx); err != nil {
		return fmt.Errorf("права: %w", err)
	}
	if err := s.seedGroups(ctx); err != nil {
		return fmt.Errorf("группы: %w", err)
	}
	if err := s.seedHandbooks(ctx); err != nil {
		return fmt.Errorf("справочники: %w", err)
	}
	return nil
}

func (s *Seeder) seedPermissions(ctx context.Context) error {
	all := authz.AllCapabilities()
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		for _, c := range all {
			if _, err := s.permissions.UpsertPermission(ctx, tx, string(c.Name), c.Description); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		s.logger.Info("права записаны", zap.Int("count", len(all)))
	}
	return err
}

func (s *Seeder) seedGroups(ctx context.Context) error {
	return s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		for _, g := range groupsData() {
			id, err := s.groups.UpsertGroup(ctx, tx, g.name)
			if err != nil {
				return err
			}
			codenames := g.codenames()
			if err := s.groups.SetGroupPermissions(ctx, tx, id, codenames); err != nil {
				return err
			}
			s.logger.Info("группа записана", zap.String("group", g.name), zap.Int("permissions", len(codenames)))
		}
		return nil
	})
}

func (s *Seeder) seedHandbooks(ctx context.Context) error {
	categories := make([]string, 0, len(handbooksData))
	for c := range handbooksData {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		existing, err := s.handbooks.GetHandbooks(ctx, category)
		if err != nil {
			return err
		}
		have := make(map[string]bool, len(existing))
		for _, h := range existing {
			have[h.Name] = true
		}

		err = s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
			for _, name := range handbooksData[category] {
				if have[name] {
					continue
				}
				if _, err := s.handbooks.CreateHandbook(ctx, tx, &entities.Handbook{Category: category, Name: name}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// SeedSuperAdmin создаёт суперпользователя из конфига, если его ещё нет.
func (s *Seeder) SeedSuperAdmin(ctx context.Context, cfg config.SeedConfig) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return fmt.Errorf("не заданы SEED_ADMIN_EMAIL и SEED_ADMIN_PASSWORD")
	}
	_, err := s.users.FindUserByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		s.logger.Info("суперпользователь уже существует, пропускаем", zap.String("email", cfg.AdminEmail))
		return nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	hashed, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := &entities.User{
		Email:       cfg.AdminEmail,
		Fio:         cfg.AdminFio,
		Password:    hashed,
		IsStaff:     true,
		IsSuperuser: true,
		IsActive:    true,
	}
	return s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.users.CreateUser(ctx, tx, admin)
		if err != nil {
			return err
		}
		s.logger.Info("суперпользователь создан", zap.Uint64("id", id), zap.String("email", admin.Email))
		return nil
	})
}
