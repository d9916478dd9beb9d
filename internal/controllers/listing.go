package controllers

import (
	"net/http"

	"realty-system/internal/dto"
	"realty-system/internal/services"
	"realty-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ListingController struct {
	listingService   services.ListingServiceInterface
	selectionService services.SelectionServiceInterface
	logger           *zap.Logger
}

func NewListingController(
	listingService services.ListingServiceInterface,
	selectionService services.SelectionServiceInterface,
	logger *zap.Logger,
) *ListingController {
	return &ListingController{listingService: listingService, selectionService: selectionService, logger: logger}
}

func (c *ListingController) GetListings(ctx echo.Context) error {
	kind, err := parseListingKind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	listings, total, err := c.listingService.GetListings(ctx.Request().Context(), kind, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, listings, "Список объектов", http.StatusOK, total)
}

func (c *ListingController) FindListing(ctx echo.Context) error {
	kind, err := parseListingKind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	listing, err := c.listingService.FindListing(ctx.Request().Context(), kind, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, listing, "Объект найден", http.StatusOK)
}

func (c *ListingController) CreateListing(ctx echo.Context) error {
	kind, err := parseListingKind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ListingDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	listing, err := c.listingService.CreateListing(ctx.Request().Context(), kind, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, listing, "Объект создан", http.StatusCreated)
}

func (c *ListingController) UpdateListing(ctx echo.Context) error {
	kind, err := parseListingKind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ListingDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	listing, err := c.listingService.UpdateListing(ctx.Request().Context(), kind, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, listing, "Объект обновлён", http.StatusOK)
}

func (c *ListingController) DeleteListing(ctx echo.Context) error {
	kind, err := parseListingKind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.listingService.DeleteListing(ctx.Request().Context(), kind, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Объект удалён", http.StatusOK)
}

// ListingHistory - построчные изменения объекта, ?order=desc для новых сверху.
func (c *ListingController) ListingHistory(ctx echo.Context) error {
	kind, err := parseListingKind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	order := services.ParseDiffOrder(ctx.QueryParam("order"))
	changes, err := c.listingService.ListingHistory(ctx.Request().Context(), kind, id, order)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, changes, "История изменений", http.StatusOK)
}

func (c *ListingController) Match(ctx echo.Context) error {
	kind, err := parseListingKind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.MatchCriteriaDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	listings, err := c.selectionService.Match(ctx.Request().Context(), kind, services.CriteriaFromDTO(payload))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, listings, "Подходящие объекты", http.StatusOK)
}
