package controllers

import (
	"net/http"

	"realty-system/internal/dto"
	"realty-system/internal/services"
	"realty-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HandbookController struct {
	handbookService services.HandbookServiceInterface
	logger          *zap.Logger
}

func NewHandbookController(handbookService services.HandbookServiceInterface, logger *zap.Logger) *HandbookController {
	return &HandbookController{handbookService: handbookService, logger: logger}
}

func (c *HandbookController) GetHandbooks(ctx echo.Context) error {
	items, err := c.handbookService.GetHandbooks(ctx.Request().Context(), ctx.Param("category"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, items, "Справочник", http.StatusOK)
}

func (c *HandbookController) CreateHandbook(ctx echo.Context) error {
	var payload dto.HandbookDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	item, err := c.handbookService.CreateHandbook(ctx.Request().Context(), ctx.Param("category"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, item, "Запись создана", http.StatusCreated)
}

func (c *HandbookController) UpdateHandbook(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.HandbookDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	item, err := c.handbookService.UpdateHandbook(ctx.Request().Context(), ctx.Param("category"), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, item, "Запись обновлена", http.StatusOK)
}

func (c *HandbookController) DeleteHandbook(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.handbookService.DeleteHandbook(ctx.Request().Context(), ctx.Param("category"), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Запись удалена", http.StatusOK)
}
