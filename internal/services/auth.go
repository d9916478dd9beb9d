// Файл: internal/services/auth.go
package services

import (
	"context"
	"errors"
	"strings"

	"realty-system/internal/dto"
	"realty-system/internal/entities"
	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/utils"

	"go.uber.org/zap"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*entities.User, error)
	// LoadPrincipal - пользователь и его права для auth middleware.
	LoadPrincipal(ctx context.Context, userID uint64) (*entities.User, map[string]bool, error)
}

type AuthService struct {
	userRepo          repositories.UserRepositoryInterface
	permissionService AuthPermissionServiceInterface
	logger            *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	permissionService AuthPermissionServiceInterface,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:          userRepo,
		permissionService: permissionService,
		logger:            logger,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*entities.User, error) {
	logger := s.logger.With(zap.String("login", payload.Login))

	user, err := s.userRepo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(payload.Login)))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Login: ошибка поиска пользователя", zap.Error(err))
		}
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		logger.Warn("Login: неверный пароль")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		logger.Warn("Login: пользователь отключён")
		return nil, apperrors.ErrUserDisabled
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		logger.Warn("Login: не удалось обновить last_login", zap.Error(err))
	}
	return user, nil
}

func (s *AuthService) LoadPrincipal(ctx context.Context, userID uint64) (*entities.User, map[string]bool, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn("LoadPrincipal: не удалось найти пользователя", zap.Uint64("userID", userID), zap.Error(err))
		return nil, nil, apperrors.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, nil, apperrors.ErrUserDisabled
	}

	permissions := map[string]bool{}
	if !user.IsSuperuser {
		permissions, err = s.permissionService.GetUserPermissionsMap(ctx, user.ID)
		if err != nil {
			return nil, nil, err
		}
	}
	return user, permissions, nil
}
