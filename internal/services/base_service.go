package services

import (
	"context"
	"errors"

	"realty-system/internal/authz"
	"realty-system/internal/repositories"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/utils"

	"go.uber.org/zap"
)

// principalFromCtx собирает authz.Context из того, что положил auth middleware.
func principalFromCtx(ctx context.Context, logger *zap.Logger) (authz.Context, error) {
	user, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		logger.Error("Пользователь не авторизован", zap.Error(err))
		return authz.Context{}, apperrors.ErrUnauthorized
	}
	permissions, err := utils.GetPermissionsMapFromCtx(ctx)
	if err != nil {
		permissions = map[string]bool{}
	}
	return authz.NewContext(user, permissions), nil
}

// visibilityFor переводит область доступа в параметры SQL-фильтра.
func visibilityFor(c authz.Context, scope authz.Scope) repositories.Visibility {
	vis := repositories.Visibility{Scope: scope}
	if c.Actor != nil {
		vis.ActorID = c.Actor.ID
		vis.FilialIDs = c.Actor.FilialIDs
	}
	return vis
}

func actorIDPtr(c authz.Context) *uint64 {
	if c.Actor == nil {
		return nil
	}
	id := c.Actor.ID
	return &id
}

// checkRealtor - назначенный риэлтор должен попадать в область действия принципала.
func checkRealtor(ctx context.Context, userRepo repositories.UserRepositoryInterface, principal authz.Context, scope authz.Scope, realtorID uint64) error {
	if realtorID == principal.Actor.ID || scope == authz.ScopeGlobal {
		return nil
	}
	if scope != authz.ScopeFilial {
		return apperrors.ErrForbidden
	}
	realtor, err := userRepo.FindUserByID(ctx, realtorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewValidationError("realtor_id", "риэлтор не найден")
		}
		return err
	}
	if !principal.Actor.SharesFilial(realtor.FilialIDs) {
		return apperrors.ErrForbidden
	}
	return nil
}

func isClientError(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrForbidden) ||
		errors.Is(err, apperrors.ErrBadRequest) || errors.Is(err, apperrors.ErrConflict)
}
