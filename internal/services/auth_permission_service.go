package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"

	"go.uber.org/zap"
)

type AuthPermissionServiceInterface interface {
	GetUserPermissionsNames(ctx context.Context, userID uint64) ([]string, error)
	GetUserPermissionsMap(ctx context.Context, userID uint64) (map[string]bool, error)
	InvalidateUserPermissionsCache(ctx context.Context, userIDs ...uint64) error
}

type AuthPermissionService struct {
	permissionRepo repositories.PermissionRepositoryInterface
	cacheRepo      repositories.CacheRepositoryInterface
	logger         *zap.Logger
	cacheTTL       time.Duration
}

func NewAuthPermissionService(
	permissionRepo repositories.PermissionRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
	cacheTTL time.Duration,
) AuthPermissionServiceInterface {
	return &AuthPermissionService{
		permissionRepo: permissionRepo,
		cacheRepo:      cacheRepo,
		logger:         logger,
		cacheTTL:       cacheTTL,
	}
}

func permissionsCacheKey(userID uint64) string {
	return fmt.Sprintf("auth:permissions:user:%d", userID)
}

func (s *AuthPermissionService) GetUserPermissionsNames(ctx context.Context, userID uint64) ([]string, error) {
	cacheKey := permissionsCacheKey(userID)
	var permissions []string

	// 1. Кеш
	cached, errGet := s.cacheRepo.Get(ctx, cacheKey)
	switch {
	case errGet == nil:
		if err := json.Unmarshal([]byte(cached), &permissions); err == nil {
			s.logger.Debug("AuthPermissionService: права пользователя найдены в кеше", zap.Uint64("userID", userID))
			return permissions, nil
		} else {
			s.logger.Warn("AuthPermissionService: повреждённая запись в кеше", zap.Error(err), zap.String("key", cacheKey))
		}
	case errors.Is(errGet, repositories.ErrCacheMiss):
		s.logger.Debug("AuthPermissionService: права не найдены в кеше, запрос к БД", zap.Uint64("userID", userID))
	default:
		s.logger.Warn("AuthPermissionService: кеш недоступен, запрос к БД", zap.Uint64("userID", userID), zap.Error(errGet))
	}

	// 2. БД
	permissions, errDB := s.permissionRepo.GetAllUserPermissionsNames(ctx, userID)
	if errDB != nil {
		s.logger.Error("AuthPermissionService: не удалось получить права пользователя из БД", zap.Uint64("userID", userID), zap.Error(errDB))
		return nil, apperrors.ErrInternalServer
	}

	// 3. Обратно в кеш, пустой список тоже
	if permissions == nil {
		permissions = []string{}
	}
	payload, errMarshal := json.Marshal(permissions)
	if errMarshal != nil {
		s.logger.Error("AuthPermissionService: не удалось сериализовать права", zap.Uint64("userID", userID), zap.Error(errMarshal))
		return permissions, nil
	}
	if errSet := s.cacheRepo.Set(ctx, cacheKey, string(payload), s.cacheTTL); errSet != nil {
		s.logger.Error("AuthPermissionService: не удалось сохранить права в кеш", zap.Uint64("userID", userID), zap.Error(errSet))
	}
	return permissions, nil
}

func (s *AuthPermissionService) GetUserPermissionsMap(ctx context.Context, userID uint64) (map[string]bool, error) {
	names, err := s.GetUserPermissionsNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	permissions := make(map[string]bool, len(names))
	for _, name := range names {
		permissions[name] = true
	}
	return permissions, nil
}

func (s *AuthPermissionService) InvalidateUserPermissionsCache(ctx context.Context, userIDs ...uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, permissionsCacheKey(id))
	}
	if err := s.cacheRepo.Del(ctx, keys...); err != nil {
		s.logger.Error("AuthPermissionService: ошибка инвалидации кеша прав", zap.Uint64s("userIDs", userIDs), zap.Error(err))
		return err
	}
	s.logger.Info("AuthPermissionService: кеш прав инвалидирован", zap.Uint64s("userIDs", userIDs))
	return nil
}
