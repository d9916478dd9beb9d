package controllers

import (
	"net/http"

	"realty-system/internal/dto"
	"realty-system/internal/services"
	"realty-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ReferenceController - адресные справочники: регионы, районы, населённые пункты, улицы.
type ReferenceController struct {
	referenceService services.ReferenceServiceInterface
	logger           *zap.Logger
}

func NewReferenceController(referenceService services.ReferenceServiceInterface, logger *zap.Logger) *ReferenceController {
	return &ReferenceController{referenceService: referenceService, logger: logger}
}

func (c *ReferenceController) GetReferences(ctx echo.Context) error {
	kind, err := parseReferenceKind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	refs, total, err := c.referenceService.GetReferences(ctx.Request().Context(), kind, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, refs, "Справочник", http.StatusOK, total)
}

func (c *ReferenceController) FindReference(ctx echo.Context) error {
	kind, err := parseReferenceKind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	ref, err := c.referenceService.FindReference(ctx.Request().Context(), kind, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, ref, "Запись найдена", http.StatusOK)
}

func (c *ReferenceController) CreateReference(ctx echo.Context) error {
	kind, err := parseReferenceKind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ReferenceDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	ref, err := c.referenceService.CreateReference(ctx.Request().Context(), kind, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, ref, "Запись создана", http.StatusCreated)
}

func (c *ReferenceController) UpdateReference(ctx echo.Context) error {
	kind, err := parseReferenceKind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ReferenceDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	ref, err := c.referenceService.UpdateReference(ctx.Request().Context(), kind, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, ref, "Запись обновлена", http.StatusOK)
}

func (c *ReferenceController) DeleteReference(ctx echo.Context) error {
	kind, err := parseReferenceKind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.referenceService.DeleteReference(ctx.Request().Context(), kind, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Запись удалена", http.StatusOK)
}
