package controllers

import (
	"net/http"

	"realty-system/internal/dto"
	"realty-system/internal/services"
	"realty-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type FilialController struct {
	filialService services.FilialServiceInterface
	logger        *zap.Logger
}

func NewFilialController(filialService services.FilialServiceInterface, logger *zap.Logger) *FilialController {
	return &FilialController{filialService: filialService, logger: logger}
}

func (c *FilialController) GetFilials(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	filials, total, err := c.filialService.GetFilials(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, filials, "Список филиалов", http.StatusOK, total)
}

func (c *FilialController) FindFilial(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	filial, err := c.filialService.FindFilial(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, filial, "Филиал найден", http.StatusOK)
}

func (c *FilialController) CreateFilial(ctx echo.Context) error {
	var payload dto.FilialDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	filial, err := c.filialService.CreateFilial(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, filial, "Филиал создан", http.StatusCreated)
}

func (c *FilialController) UpdateFilial(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.FilialDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	filial, err := c.filialService.UpdateFilial(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, filial, "Филиал обновлён", http.StatusOK)
}

// DeleteFilial: 409, если у филиала остались отчёты.
func (c *FilialController) DeleteFilial(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.filialService.DeleteFilial(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Филиал удалён", http.StatusOK)
}

func (c *FilialController) GetFilialReports(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	reports, err := c.filialService.GetFilialReports(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, reports, "Отчёты филиала", http.StatusOK)
}

func (c *FilialController) CreateFilialReport(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.FilialReportDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	report, err := c.filialService.CreateFilialReport(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, report, "Отчёт создан", http.StatusCreated)
}

func (c *FilialController) DeleteFilialReport(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.filialService.DeleteFilialReport(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Отчёт удалён", http.StatusOK)
}
