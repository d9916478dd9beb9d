package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"realty-system/internal/controllers"
	"realty-system/internal/entities"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/middleware"
	"realty-system/pkg/service"
	"realty-system/pkg/utils"
	"realty-system/pkg/validation"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type stubPrincipals struct {
	users map[uint64]*entities.User
}

func (s stubPrincipals) LoadPrincipal(_ context.Context, userID uint64) (*entities.User, map[string]bool, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, nil, apperrors.ErrUserNotFound
	}
	return u, map[string]bool{}, nil
}

// RouterTestSuite проверяет маршруты и auth middleware без БД: обработчики,
// которые сюда доходят, не обращаются к сервисам.
type RouterTestSuite struct {
	suite.Suite
	Echo   *echo.Echo
	JWT    service.JWTService
	Access string
}

func (suite *RouterTestSuite) SetupSuite() {
	nopLogger := zap.NewNop()
	e := echo.New()
	v, err := validation.New()
	suite.Require().NoError(err)
	e.Validator = v

	suite.JWT = service.NewJWTService("test-secret", time.Hour, 24*time.Hour, nopLogger)
	principals := stubPrincipals{users: map[uint64]*entities.User{
		7: {ID: 7, Email: "agent@realty.tj", Fio: "Агент", IsActive: true, FilialIDs: []uint64{1}},
	}}
	authMW := middleware.NewAuthMiddleware(suite.JWT, principals, nopLogger)

	ctrls := &Controllers{
		Auth:      controllers.NewAuthController(nil, suite.JWT, nopLogger),
		Listing:   controllers.NewListingController(nil, nil, nopLogger),
		Client:    controllers.NewClientController(nil, nil, nil, nopLogger),
		History:   controllers.NewHistoryController(nil, nopLogger),
		Reference: controllers.NewReferenceController(nil, nopLogger),
		Handbook:  controllers.NewHandbookController(nil, nopLogger),
		Filial:    controllers.NewFilialController(nil, nopLogger),
		User:      controllers.NewUserController(nil, nopLogger),
	}
	RegisterRoutes(e, ctrls, authMW.Auth)
	suite.Echo = e

	access, _, err := suite.JWT.GenerateTokens(7)
	suite.Require().NoError(err)
	suite.Access = access
}

func (suite *RouterTestSuite) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	suite.Echo.ServeHTTP(rec, req)
	return rec
}

func (suite *RouterTestSuite) TestRoutesRegistered() {
	registered := map[string]bool{}
	for _, r := range suite.Echo.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/login",
		"POST /api/auth/refresh_token",
		"GET /api/listings/:kind",
		"POST /api/listings/:kind/match",
		"GET /api/listings/:kind/:id/history",
		"PATCH /api/clients/:id/status",
		"GET /api/clients/:id/match",
		"POST /api/clients/:id/selections",
		"GET /api/selections/:id/act",
		"GET /api/history/report",
		"DELETE /api/references/:kind/:id",
		"PUT /api/handbooks/:category/:id",
		"POST /api/filials/:id/reports",
		"DELETE /api/filial-reports/:id",
		"PUT /api/users/:id/permissions",
		"PUT /api/users/:id/filials",
	} {
		suite.True(registered[want], want)
	}
}

func (suite *RouterTestSuite) TestAuth_MissingHeader() {
	rec := suite.do(http.MethodGet, "/api/clients", "")
	suite.Equal(http.StatusUnauthorized, rec.Code)
}

func (suite *RouterTestSuite) TestAuth_RefreshTokenRejected() {
	_, refresh, err := suite.JWT.GenerateTokens(7)
	suite.Require().NoError(err)

	rec := suite.do(http.MethodGet, "/api/clients", refresh)
	suite.Equal(http.StatusUnauthorized, rec.Code)
}

func (suite *RouterTestSuite) TestAuth_UnknownUser() {
	token, _, err := suite.JWT.GenerateTokens(404)
	suite.Require().NoError(err)

	rec := suite.do(http.MethodGet, "/api/clients", token)
	suite.Equal(http.StatusUnauthorized, rec.Code)
}

func (suite *RouterTestSuite) TestMe_ReturnsPrincipal() {
	rec := suite.do(http.MethodGet, "/api/auth/me", suite.Access)
	suite.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		utils.HTTPResponse
		Body struct {
			ID        uint64   `json:"id"`
			FilialIDs []uint64 `json:"filial_ids"`
		} `json:"body"`
	}
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	suite.True(resp.Status)
	suite.EqualValues(7, resp.Body.ID)
	suite.Equal([]uint64{1}, resp.Body.FilialIDs)
}

func (suite *RouterTestSuite) TestUnknownListingKind() {
	rec := suite.do(http.MethodGet, "/api/listings/castle", suite.Access)
	suite.Equal(http.StatusNotFound, rec.Code)
}

func (suite *RouterTestSuite) TestBadID() {
	rec := suite.do(http.MethodGet, "/api/clients/abc", suite.Access)
	suite.Equal(http.StatusBadRequest, rec.Code)

	rec = suite.do(http.MethodDelete, "/api/filial-reports/0", suite.Access)
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *RouterTestSuite) TestReport_BadDate() {
	rec := suite.do(http.MethodGet, "/api/history/report?date_from=01.02.2026", suite.Access)
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
