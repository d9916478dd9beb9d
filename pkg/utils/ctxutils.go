// pkg/utils/ctxutils.go

package utils

import (
	"context"

	"realty-system/internal/entities"
	"realty-system/pkg/contextkeys"
	apperrors "realty-system/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrUserNotFound
	}
	return userID, nil
}

// GetUserFromCtx - пользователь, загруженный auth middleware (вместе с филиалами).
func GetUserFromCtx(ctx context.Context) (*entities.User, error) {
	user, ok := ctx.Value(contextkeys.UserKey).(*entities.User)
	if !ok || user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return user, nil
}

func GetPermissionsMapFromCtx(ctx context.Context) (map[string]bool, error) {
	permissions, ok := ctx.Value(contextkeys.UserPermissionsMapKey).(map[string]bool)
	if !ok || permissions == nil {
		return nil, apperrors.ErrForbidden
	}
	return permissions, nil
}

// WithPrincipal кладёт в контекст всё, что нужно сервисам для проверки прав.
func WithPrincipal(ctx context.Context, user *entities.User, permissions map[string]bool) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, user.ID)
	ctx = context.WithValue(ctx, contextkeys.UserKey, user)
	return context.WithValue(ctx, contextkeys.UserPermissionsMapKey, permissions)
}
