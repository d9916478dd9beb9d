package controllers

import (
	"fmt"
	"net/http"

	"realty-system/internal/dto"
	"realty-system/internal/entities"
	"realty-system/internal/services"
	"realty-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ClientController struct {
	clientService    services.ClientServiceInterface
	selectionService services.SelectionServiceInterface
	actService       services.ShowingActServiceInterface
	logger           *zap.Logger
}

func NewClientController(
	clientService services.ClientServiceInterface,
	selectionService services.SelectionServiceInterface,
	actService services.ShowingActServiceInterface,
	logger *zap.Logger,
) *ClientController {
	return &ClientController{
		clientService:    clientService,
		selectionService: selectionService,
		actService:       actService,
		logger:           logger,
	}
}

func (c *ClientController) GetClients(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	clients, total, err := c.clientService.GetClients(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, clients, "Список клиентов", http.StatusOK, total)
}

func (c *ClientController) FindClient(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	client, err := c.clientService.FindClient(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, client, "Клиент найден", http.StatusOK)
}

func (c *ClientController) CreateClient(ctx echo.Context) error {
	var payload dto.ClientDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	client, err := c.clientService.CreateClient(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, client, "Клиент создан", http.StatusCreated)
}

func (c *ClientController) UpdateClient(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ClientDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	client, err := c.clientService.UpdateClient(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, client, "Клиент обновлён", http.StatusOK)
}

func (c *ClientController) ChangeStatus(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ClientStatusDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	client, err := c.clientService.ChangeStatus(ctx.Request().Context(), id, entities.ClientStatus(payload.Status))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, client, "Статус клиента изменён", http.StatusOK)
}

func (c *ClientController) DeleteClient(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.clientService.DeleteClient(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Клиент удалён", http.StatusOK)
}

func (c *ClientController) ClientHistory(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	order := services.ParseDiffOrder(ctx.QueryParam("order"))
	changes, err := c.clientService.ClientHistory(ctx.Request().Context(), id, order)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, changes, "История изменений", http.StatusOK)
}

// MatchClient - подбор объектов по сохранённому профилю поиска.
func (c *ClientController) MatchClient(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	listings, err := c.selectionService.MatchClient(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, listings, "Подходящие объекты", http.StatusOK)
}

func (c *ClientController) GetSelections(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	selections, err := c.selectionService.ListSelections(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, selections, "Подборки клиента", http.StatusOK)
}

func (c *ClientController) CreateSelection(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CreateSelectionDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	items := make([]entities.SelectionItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, entities.SelectionItem{Kind: entities.ListingKind(item.Kind), ListingID: item.ListingID})
	}

	selection, err := c.selectionService.CreateSelection(ctx.Request().Context(), id, items)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, selection, "Подборка создана", http.StatusCreated)
}

func (c *ClientController) FindSelection(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	act, err := c.selectionService.FindSelection(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, act, "Подборка найдена", http.StatusOK)
}

// SelectionAct отдаёт акт показа в PDF.
func (c *ClientController) SelectionAct(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	body, err := c.actService.RenderAct(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	fileName := fmt.Sprintf("act_%d.pdf", id)
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	return ctx.Blob(http.StatusOK, "application/pdf", body)
}
