package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	apperrors "realty-system/pkg/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseFilterFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("search", "Ленина")
	values.Set("sort[price]", "DESC")
	values.Set("sort[area]", "sideways")
	values["filter[status]"] = []string{"ON_SALE", "DEPOSIT"}
	values.Set("limit", "1000")
	values.Set("page", "3")

	f := ParseFilterFromQuery(values)

	assert.Equal(t, "Ленина", f.Search)
	assert.Equal(t, map[string]string{"price": "desc"}, f.Sort)
	assert.Equal(t, "ON_SALE,DEPOSIT", f.Filter["status"])
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, 2*MaxLimit, f.Offset)
	assert.True(t, f.WithPagination)
}

func TestStatusCodeFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{apperrors.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("FindListing: %w", apperrors.ErrNotFound), http.StatusNotFound},
		{apperrors.ErrForbidden, http.StatusForbidden},
		{apperrors.ErrTokenExpired, http.StatusUnauthorized},
		{apperrors.NewReferentialIntegrityError("филиал", "filial_reports.filial_id"), http.StatusConflict},
		{apperrors.NewValidationError("floor_from", "больше floor_to"), http.StatusBadRequest},
		{apperrors.NewHttpError(http.StatusTeapot, "чай", nil, nil), http.StatusTeapot},
		{errors.New("pgx: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, StatusCodeFor(tc.err), tc.err.Error())
	}
}

func TestErrorResponse_ReferentialIntegrity(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/filials/1", nil), rec)

	err := ErrorResponse(c, apperrors.NewReferentialIntegrityError("филиал", "filial_reports.filial_id"), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"relation":"filial_reports.filial_id"`)
	assert.Contains(t, rec.Body.String(), `"status":false`)
}
