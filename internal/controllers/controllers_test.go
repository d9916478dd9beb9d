package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"realty-system/internal/dto"
	"realty-system/internal/entities"
	"realty-system/internal/services"
	"realty-system/pkg/validation"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type fakeListingService struct {
	services.ListingServiceInterface
	created []dto.ListingDTO
}

func (f *fakeListingService) CreateListing(_ context.Context, kind entities.ListingKind, payload dto.ListingDTO) (*entities.Listing, error) {
	f.created = append(f.created, payload)
	return &entities.Listing{ID: 1, Kind: kind, Price: payload.Price}, nil
}

type fakeHistoryService struct {
	services.HistoryServiceInterface
	from, to *time.Time
	rows     []dto.HistoryReportRowDTO
}

func (f *fakeHistoryService) Report(_ context.Context, from, to *time.Time) ([]dto.HistoryReportRowDTO, error) {
	f.from, f.to = from, to
	return f.rows, nil
}

type fakeActService struct{}

func (fakeActService) RenderAct(context.Context, uint64) ([]byte, error) {
	return []byte("%PDF-1.3"), nil
}

type fakeClientService struct {
	services.ClientServiceInterface
	statuses []entities.ClientStatus
}

func (f *fakeClientService) ChangeStatus(_ context.Context, id uint64, status entities.ClientStatus) (*entities.Client, error) {
	f.statuses = append(f.statuses, status)
	return &entities.Client{ID: id, Status: status}, nil
}

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	v, err := validation.New()
	require.NoError(t, err)
	e.Validator = v
	return e
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateListing_ValidatesBeforeService(t *testing.T) {
	e := newEcho(t)
	svc := &fakeListingService{}
	ctrl := NewListingController(svc, nil, zap.NewNop())
	e.POST("/listings/:kind", ctrl.CreateListing)

	rec := serve(e, http.MethodPost, "/listings/apartment", `{"locality_id":1,"area":40,"price":0,"status":"ON_SALE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.created)

	rec = serve(e, http.MethodPost, "/listings/apartment", `{"locality_id":1,"area":40,"price":1000,"status":"ON_SALE","floor":2,"storeys_number":5,"rooms":1}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.created, 1)
	assert.EqualValues(t, 1000, svc.created[0].Price)
	assert.Equal(t, 2, svc.created[0].Floor.Int)

	rec = serve(e, http.MethodPost, "/listings/castle", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	e := newEcho(t)
	svc := &fakeClientService{}
	ctrl := NewClientController(svc, nil, fakeActService{}, zap.NewNop())
	e.PATCH("/clients/:id/status", ctrl.ChangeStatus)

	rec := serve(e, http.MethodPatch, "/clients/3/status", `{"status":"LOST"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodPatch, "/clients/3/status", `{"status":"DECIDED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []entities.ClientStatus{entities.ClientDecided}, svc.statuses)
}

func TestSelectionAct_PDF(t *testing.T) {
	e := newEcho(t)
	ctrl := NewClientController(nil, nil, fakeActService{}, zap.NewNop())
	e.GET("/selections/:id/act", ctrl.SelectionAct)

	rec := serve(e, http.MethodGet, "/selections/12/act", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "act_12.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func strp(v string) *string { return &v }

func TestHistoryReport_PeriodAndXLSX(t *testing.T) {
	e := newEcho(t)
	svc := &fakeHistoryService{rows: []dto.HistoryReportRowDTO{
		{Kind: "apartment", ListingID: 5, ChangeType: "~", ChangedAt: "2026-03-02T10:00:00Z", ChangedByFio: "Петрова",
			Changes: []dto.FieldChangeDTO{
				{Field: "price", OldValue: strp("100"), NewValue: strp("90")},
				{Field: "comment", OldValue: nil, NewValue: strp("торг")},
			}},
		{Kind: "land", ListingID: 2, ChangeType: "+", ChangedAt: "2026-03-01T09:00:00Z"},
	}}
	ctrl := NewHistoryController(svc, zap.NewNop())
	e.GET("/history/report", ctrl.GetReport)

	rec := serve(e, http.MethodGet, "/history/report?date_from=2026-03-01&date_to=2026-03-02&format=xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.to)
	assert.Equal(t, "2026-03-03", svc.to.Format(reportDateLayout), "date_to включительно")
	assert.Equal(t, "2026-03-01", svc.from.Format(reportDateLayout))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	rows, err := f.GetRows("Журнал изменений")
	require.NoError(t, err)
	require.Len(t, rows, 4, "заголовок, два поля первой записи, одна строка второй")
	assert.Equal(t, historyReportHeaders, rows[0])
	assert.Equal(t, "price", rows[1][5])
	assert.Equal(t, "90", rows[1][7])
	assert.Equal(t, "land", rows[3][1])
}

func TestHistoryReport_JSONByDefault(t *testing.T) {
	e := newEcho(t)
	svc := &fakeHistoryService{rows: []dto.HistoryReportRowDTO{}}
	ctrl := NewHistoryController(svc, zap.NewNop())
	e.GET("/history/report", ctrl.GetReport)

	rec := serve(e, http.MethodGet, "/history/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.Nil(t, svc.from)
	assert.Nil(t, svc.to)
}
