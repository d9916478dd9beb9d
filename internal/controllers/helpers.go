package controllers

import (
	"net/http"
	"strconv"

	"realty-system/internal/entities"
	apperrors "realty-system/pkg/errors"

	"github.com/labstack/echo/v4"
)

func parseID(ctx echo.Context, name string) (uint64, error) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewHttpError(http.StatusBadRequest, "Неверный ID", err, map[string]string{"param": name})
	}
	return id, nil
}

func parseListingKind(ctx echo.Context) (entities.ListingKind, error) {
	kind, err := entities.ParseListingKind(ctx.Param("kind"))
	if err != nil {
		return "", apperrors.NewHttpError(http.StatusNotFound, "Неизвестный тип объекта", err, nil)
	}
	return kind, nil
}

func parseReferenceKind(ctx echo.Context) (entities.ReferenceKind, error) {
	kind, err := entities.ParseReferenceKind(ctx.Param("kind"))
	if err != nil {
		return "", apperrors.NewHttpError(http.StatusNotFound, "Неизвестный справочник", err, nil)
	}
	return kind, nil
}

// bindAndValidate - разбор JSON-тела и проверка тегов validate.
func bindAndValidate(ctx echo.Context, payload interface{}) error {
	if err := ctx.Bind(payload); err != nil {
		return apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных", err, nil)
	}
	return ctx.Validate(payload)
}
