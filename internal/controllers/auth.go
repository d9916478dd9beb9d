package controllers

import (
	"errors"
	"net/http"

	"realty-system/internal/dto"
	"realty-system/internal/entities"
	"realty-system/internal/services"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/service"
	"realty-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthController struct {
	authService services.AuthServiceInterface
	jwtSvc      service.JWTService
	logger      *zap.Logger
}

func NewAuthController(authService services.AuthServiceInterface, jwtSvc service.JWTService, logger *zap.Logger) *AuthController {
	return &AuthController{authService: authService, jwtSvc: jwtSvc, logger: logger}
}

func (c *AuthController) Login(ctx echo.Context) error {
	var payload dto.LoginDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	user, err := c.authService.Login(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Warn("Login: ошибка авторизации", zap.String("login", payload.Login), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.respondWithTokens(ctx, user, "Авторизация прошла успешно")
}

// RefreshToken - новая пара токенов по refresh-токену.
func (c *AuthController) RefreshToken(ctx echo.Context) error {
	var payload dto.RefreshTokenDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	claims, err := c.jwtSvc.ValidateToken(payload.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if !claims.IsRefreshToken {
		return utils.ErrorResponse(ctx, apperrors.ErrInvalidToken, c.logger)
	}

	user, _, err := c.authService.LoadPrincipal(ctx.Request().Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrUserNotFound) {
			err = apperrors.ErrUnauthorized
		}
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.respondWithTokens(ctx, user, "Токены обновлены")
}

func (c *AuthController) Me(ctx echo.Context) error {
	user, err := utils.GetUserFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, publicUser(user), "Текущий пользователь", http.StatusOK)
}

func (c *AuthController) respondWithTokens(ctx echo.Context, user *entities.User, message string) error {
	access, refresh, err := c.jwtSvc.GenerateTokens(user.ID)
	if err != nil {
		c.logger.Error("не удалось сгенерировать токены", zap.Uint64("userID", user.ID), zap.Error(err))
		return utils.ErrorResponse(ctx, apperrors.ErrInternalServer, c.logger)
	}
	return utils.SuccessResponse(ctx, dto.AuthResponseDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         publicUser(user),
	}, message, http.StatusOK)
}

func publicUser(u *entities.User) dto.UserPublicDTO {
	return dto.UserPublicDTO{
		ID:          u.ID,
		Email:       u.Email,
		Phone:       u.PhoneNumber,
		FIO:         u.Fio,
		IsSuperuser: u.IsSuperuser,
		FilialIDs:   u.FilialIDs,
	}
}
