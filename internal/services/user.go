package services

import (
	"context"
	"sort"
	"strings"

	"realty-system/internal/authz"
	"realty-system/internal/dto"
	"realty-system/internal/entities"
	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/types"
	"realty-system/pkg/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	FindUser(ctx context.Context, id uint64) (*entities.User, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*entities.User, error)
	UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*entities.User, error)
	// SetPermissions заменяет прямые права и группы пользователя.
	SetPermissions(ctx context.Context, id uint64, payload dto.UserPermissionsDTO) (*entities.User, error)
	SetFilials(ctx context.Context, id uint64, filialIDs []uint64) (*entities.User, error)

	GetPermissions(ctx context.Context, search string) ([]entities.Permission, error)
	GetGroups(ctx context.Context) ([]entities.Group, error)
}

type UserService struct {
	txManager      repositories.TxManagerInterface
	userRepo       repositories.UserRepositoryInterface
	permissionRepo repositories.PermissionRepositoryInterface
	groupRepo      repositories.GroupRepositoryInterface
	authPermission AuthPermissionServiceInterface
	gate           *authz.Gatekeeper
	logger         *zap.Logger
}

func NewUserService(
	txManager repositories.TxManagerInterface,
	userRepo repositories.UserRepositoryInterface,
	permissionRepo repositories.PermissionRepositoryInterface,
	groupRepo repositories.GroupRepositoryInterface,
	authPermission AuthPermissionServiceInterface,
	logger *zap.Logger,
) UserServiceInterface {
	return &UserService{
		txManager:      txManager,
		userRepo:       userRepo,
		permissionRepo: permissionRepo,
		groupRepo:      groupRepo,
		authPermission: authPermission,
		gate:           authz.NewGatekeeper(),
		logger:         logger,
	}
}

func (s *UserService) require(ctx context.Context, action authz.Action) (authz.Context, error) {
	principal, err := principalFromCtx(ctx, s.logger)
	if err != nil {
		return authz.Context{}, err
	}
	if err := s.gate.RequireGlobal(principal, authz.ResourceUser, action); err != nil {
		s.logger.Warn("доступ к пользователям запрещён", zap.Uint64("actor", principal.Actor.ID), zap.String("action", string(action)))
		return authz.Context{}, err
	}
	return principal, nil
}

func (s *UserService) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	if _, err := s.require(ctx, authz.ActionView); err != nil {
		return nil, 0, err
	}
	return s.userRepo.GetUsers(ctx, filter)
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	if _, err := s.require(ctx, authz.ActionView); err != nil {
		return nil, err
	}
	return s.userRepo.FindUserByID(ctx, id)
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*entities.User, error) {
	if _, err := s.require(ctx, authz.ActionAdd); err != nil {
		return nil, err
	}
	hashed, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}
	user := &entities.User{
		Email:       strings.ToLower(strings.TrimSpace(payload.Email)),
		Fio:         strings.TrimSpace(payload.Fio),
		PhoneNumber: payload.PhoneNumber,
		Password:    hashed,
		IsStaff:     payload.IsStaff,
		IsActive:    !payload.IsActive.Valid || payload.IsActive.Bool,
	}

	var id uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if id, err = s.userRepo.CreateUser(ctx, tx, user); err != nil {
			return err
		}
		if err := s.userRepo.SetUserFilials(ctx, tx, id, payload.FilialIDs); err != nil {
			return err
		}
		return s.userRepo.SetUserGroups(ctx, tx, id, payload.GroupIDs)
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("CreateUser: ошибка создания", zap.Error(err))
		}
		return nil, err
	}
	s.logger.Info("Пользователь создан", zap.Uint64("id", id), zap.String("email", user.Email))
	return s.userRepo.FindUserByID(ctx, id)
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*entities.User, error) {
	principal, err := s.require(ctx, authz.ActionChange)
	if err != nil {
		return nil, err
	}
	current, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsSuperuser && !principal.Actor.IsSuperuser {
		return nil, apperrors.ErrForbidden
	}

	current.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	current.Fio = strings.TrimSpace(payload.Fio)
	current.PhoneNumber = payload.PhoneNumber
	current.IsStaff = payload.IsStaff
	current.IsActive = payload.IsActive
	if payload.Password.Valid && payload.Password.String != "" {
		if current.Password, err = utils.HashPassword(payload.Password.String); err != nil {
			return nil, err
		}
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.userRepo.UpdateUser(ctx, tx, current)
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("UpdateUser: ошибка обновления", zap.Uint64("id", id), zap.Error(err))
		}
		return nil, err
	}
	// is_active влияет на права
	s.invalidate(ctx, id)
	return s.userRepo.FindUserByID(ctx, id)
}

// knownCapabilities - права, которые можно выдать.
func knownCapabilities() map[string]bool {
	known := make(map[string]bool)
	for _, c := range authz.AllCapabilities() {
		known[string(c.Name)] = true
	}
	return known
}

func (s *UserService) SetPermissions(ctx context.Context, id uint64, payload dto.UserPermissionsDTO) (*entities.User, error) {
	if _, err := s.require(ctx, authz.ActionChange); err != nil {
		return nil, err
	}
	known := knownCapabilities()
	var unknown []string
	for _, p := range payload.Permissions {
		if !known[p] {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperrors.NewValidationError("permissions", "неизвестные права: "+strings.Join(unknown, ", "))
	}
	if _, err := s.userRepo.FindUserByID(ctx, id); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.permissionRepo.SetUserPermissions(ctx, tx, id, payload.Permissions); err != nil {
			return err
		}
		return s.userRepo.SetUserGroups(ctx, tx, id, payload.GroupIDs)
	})
	if err != nil {
		s.logger.Error("SetPermissions: ошибка назначения прав", zap.Uint64("id", id), zap.Error(err))
		return nil, err
	}
	s.invalidate(ctx, id)
	s.logger.Info("Права пользователя обновлены", zap.Uint64("id", id), zap.Int("count", len(payload.Permissions)))
	return s.userRepo.FindUserByID(ctx, id)
}

func (s *UserService) SetFilials(ctx context.Context, id uint64, filialIDs []uint64) (*entities.User, error) {
	if _, err := s.require(ctx, authz.ActionChange); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindUserByID(ctx, id); err != nil {
		return nil, err
	}
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.userRepo.SetUserFilials(ctx, tx, id, filialIDs)
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("SetFilials: ошибка назначения филиалов", zap.Uint64("id", id), zap.Error(err))
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	return s.userRepo.FindUserByID(ctx, id)
}

// invalidate: ошибка кеша не отменяет уже записанные изменения, TTL дочистит.
func (s *UserService) invalidate(ctx context.Context, id uint64) {
	if err := s.authPermission.InvalidateUserPermissionsCache(ctx, id); err != nil {
		s.logger.Warn("не удалось сбросить кеш прав", zap.Uint64("userID", id), zap.Error(err))
	}
}

func (s *UserService) GetPermissions(ctx context.Context, search string) ([]entities.Permission, error) {
	if _, err := s.require(ctx, authz.ActionView); err != nil {
		return nil, err
	}
	return s.permissionRepo.GetPermissions(ctx, strings.TrimSpace(search))
}

func (s *UserService) GetGroups(ctx context.Context) ([]entities.Group, error) {
	if _, err := s.require(ctx, authz.ActionView); err != nil {
		return nil, err
	}
	return s.groupRepo.GetGroups(ctx)
}
