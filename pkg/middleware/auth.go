package middleware

import (
	"context"
	"errors"
	"strings"

	"realty-system/internal/entities"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/service"
	"realty-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PrincipalLoader - источник пользователя и его прав по id из токена.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID uint64) (*entities.User, map[string]bool, error)
}

type AuthMiddleware struct {
	jwtService service.JWTService
	principals PrincipalLoader
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, principals PrincipalLoader, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		principals: principals,
		logger:     logger,
	}
}

func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// 1. Заголовок "Bearer <token>"
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			m.logger.Warn("AuthMiddleware: пустой заголовок Authorization")
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("AuthMiddleware: неверный формат заголовка Authorization")
			return utils.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		// 2. Токен
		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("AuthMiddleware: ошибка валидации токена", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}
		if claims.IsRefreshToken {
			m.logger.Warn("AuthMiddleware: попытка доступа с refresh-токеном", zap.Uint64("userID", claims.UserID))
			return utils.ErrorResponse(c, apperrors.ErrTokenIsNotAccess, m.logger)
		}

		// 3. Пользователь и права
		reqCtx := c.Request().Context()
		user, permissions, err := m.principals.LoadPrincipal(reqCtx, claims.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrUserNotFound) {
				err = apperrors.ErrUnauthorized
			}
			m.logger.Warn("AuthMiddleware: не удалось загрузить пользователя", zap.Uint64("userID", claims.UserID), zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		c.SetRequest(c.Request().WithContext(utils.WithPrincipal(reqCtx, user, permissions)))
		m.logger.Debug("AuthMiddleware: пользователь аутентифицирован", zap.Uint64("userID", user.ID))
		return next(c)
	}
}
