package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"realty-system/internal/dto"
	"realty-system/internal/services"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const reportDateLayout = "2006-01-02"

var historyReportHeaders = []string{
	"Дата", "Тип объекта", "ID объекта", "Операция", "Кто изменил", "Поле", "Было", "Стало",
}

type HistoryController struct {
	historyService services.HistoryServiceInterface
	logger         *zap.Logger
}

func NewHistoryController(historyService services.HistoryServiceInterface, logger *zap.Logger) *HistoryController {
	return &HistoryController{historyService: historyService, logger: logger}
}

// GetReport - журнал изменений объектов за период. date_to включительно.
func (c *HistoryController) GetReport(ctx echo.Context) error {
	from, to, err := parseReportPeriod(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	format := strings.ToLower(ctx.QueryParam("format"))
	c.logger.Debug("Запрос журнала изменений", zap.String("date_from", ctx.QueryParam("date_from")),
		zap.String("date_to", ctx.QueryParam("date_to")), zap.String("format", format))

	rows, err := c.historyService.Report(ctx.Request().Context(), from, to)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if format == "xlsx" {
		return c.respondWithXLSX(ctx, rows)
	}
	return utils.SuccessResponse(ctx, rows, "Журнал изменений", http.StatusOK)
}

func parseReportPeriod(ctx echo.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := ctx.QueryParam("date_from"); raw != "" {
		t, err := time.Parse(reportDateLayout, raw)
		if err != nil {
			return nil, nil, apperrors.NewValidationError("date_from", "ожидается дата в формате ГГГГ-ММ-ДД")
		}
		from = &t
	}
	if raw := ctx.QueryParam("date_to"); raw != "" {
		t, err := time.Parse(reportDateLayout, raw)
		if err != nil {
			return nil, nil, apperrors.NewValidationError("date_to", "ожидается дата в формате ГГГГ-ММ-ДД")
		}
		end := t.AddDate(0, 0, 1)
		to = &end
	}
	return from, to, nil
}

func (c *HistoryController) respondWithXLSX(ctx echo.Context, rows []dto.HistoryReportRowDTO) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Журнал изменений"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &historyReportHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "H1", style)

	line := 2
	for _, row := range historyReportLines(rows) {
		cell, _ := excelize.CoordinatesToCellName(1, line)
		f.SetSheetRow(sheet, cell, &row)
		line++
	}
	f.SetColWidth(sheet, "A", "A", 22)
	f.SetColWidth(sheet, "B", "D", 14)
	f.SetColWidth(sheet, "E", "F", 25)
	f.SetColWidth(sheet, "G", "H", 40)

	fileName := fmt.Sprintf("history_%s.xlsx", time.Now().Format(reportDateLayout))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}

// historyReportLines разворачивает снимок в строки по изменённым полям.
// Снимок без изменений полей (создание без данных) даёт одну строку.
func historyReportLines(rows []dto.HistoryReportRowDTO) [][]interface{} {
	lines := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		head := []interface{}{row.ChangedAt, row.Kind, row.ListingID, row.ChangeType, row.ChangedByFio}
		if len(row.Changes) == 0 {
			lines = append(lines, append(head, "", "", ""))
			continue
		}
		for _, ch := range row.Changes {
			line := append(append([]interface{}{}, head...), ch.Field, deref(ch.OldValue), deref(ch.NewValue))
			lines = append(lines, line)
		}
	}
	return lines
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
