package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/types"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HTTPResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

const (
	DefaultLimit = 200
	MaxLimit     = 500
)

func ParseFilterFromQuery(values url.Values) types.Filter {
	filterReq := types.Filter{
		Sort:   make(map[string]string),
		Filter: make(map[string]interface{}),
		Limit:  DefaultLimit,
		Page:   1,
	}

	if limitStr := values.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > MaxLimit {
				filterReq.Limit = MaxLimit
			} else {
				filterReq.Limit = l
			}
		}
	}

	if pageStr := values.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filterReq.Page = p
		}
	}

	if offsetStr := values.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filterReq.Offset = o
		}
	} else {
		filterReq.Offset = (filterReq.Page - 1) * filterReq.Limit
	}

	filterReq.WithPagination = values.Get("withPagination") != "false"

	for key, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}

		if key == "search" {
			filterReq.Search = vals[0]
			continue
		}

		if strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]") {
			field := key[5 : len(key)-1]
			direction := strings.ToLower(vals[0])
			if direction == "asc" || direction == "desc" {
				filterReq.Sort[field] = direction
			}
			continue
		}

		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			field := key[7 : len(key)-1]
			filterReq.Filter[field] = strings.Join(vals, ",")
		}
	}

	return filterReq
}

// SuccessResponse - конверт {status, message, body}. Если передан total и
// запрошена пагинация, body превращается в {list, pagination}.
func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, total ...uint64) error {
	response := &HTTPResponse{Status: true, Message: message}
	if len(total) == 0 {
		response.Body = body
		return ctx.JSON(code, response)
	}

	filter := ParseFilterFromQuery(ctx.Request().URL.Query())
	if !filter.WithPagination {
		response.Body = body
		return ctx.JSON(code, response)
	}

	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int((total[0] + uint64(filter.Limit) - 1) / uint64(filter.Limit))
	}
	response.Body = map[string]interface{}{
		"list": body,
		"pagination": map[string]interface{}{
			"total_count": total[0],
			"page":        filter.Page,
			"limit":       filter.Limit,
			"total_pages": totalPages,
		},
	}
	return ctx.JSON(code, response)
}

// sentinelCodes - сопоставление ошибок таксономии HTTP-кодам. Порядок важен:
// проверяется первой подходящая.
var sentinelCodes = []struct {
	err  error
	code int
}{
	{apperrors.ErrNotFound, http.StatusNotFound},
	{apperrors.ErrUserNotFound, http.StatusNotFound},
	{apperrors.ErrForbidden, http.StatusForbidden},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized},
	{apperrors.ErrEmptyAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidToken, http.StatusUnauthorized},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized},
	{apperrors.ErrTokenNotYetValid, http.StatusUnauthorized},
	{apperrors.ErrTokenIsNotAccess, http.StatusUnauthorized},
	{apperrors.ErrInvalidSigningMethod, http.StatusUnauthorized},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
	{apperrors.ErrUserDisabled, http.StatusUnauthorized},
	{apperrors.ErrConflict, http.StatusConflict},
	{apperrors.ErrBadRequest, http.StatusBadRequest},
}

// StatusCodeFor возвращает HTTP-код для ошибки приложения.
func StatusCodeFor(err error) int {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return http.StatusBadRequest
	}
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return http.StatusInternalServerError
}

func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		if httpErr.Err != nil {
			logger.Error("HTTP Error",
				zap.Int("code", httpErr.Code),
				zap.String("message", httpErr.Message),
				zap.Error(httpErr.Err),
			)
		}
		response := &HTTPResponse{Status: false, Message: httpErr.Message}
		if httpErr.Details != nil {
			response.Body = httpErr.Details
		}
		return c.JSON(httpErr.Code, response)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			fields[e.Field()] = fmt.Sprintf("не прошло проверку '%s'", e.Tag())
		}
		return c.JSON(http.StatusBadRequest, &HTTPResponse{Status: false, Message: "Ошибка валидации", Body: fields})
	}

	var fieldErrors *apperrors.ValidationError
	if errors.As(err, &fieldErrors) {
		return c.JSON(http.StatusBadRequest, &HTTPResponse{Status: false, Message: "Ошибка валидации", Body: fieldErrors.Fields})
	}

	var integrityErr *apperrors.ReferentialIntegrityError
	if errors.As(err, &integrityErr) {
		return c.JSON(http.StatusConflict, &HTTPResponse{
			Status:  false,
			Message: integrityErr.Error(),
			Body:    map[string]string{"relation": integrityErr.Relation},
		})
	}

	code := StatusCodeFor(err)
	if code == http.StatusInternalServerError {
		logger.Error("Unexpected Error", zap.Error(err))
		return c.JSON(code, &HTTPResponse{Status: false, Message: "Внутренняя ошибка сервера"})
	}
	return c.JSON(code, &HTTPResponse{Status: false, Message: err.Error()})
}
