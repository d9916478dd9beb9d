package routes

import (
	"realty-system/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runHistoryRouter(secureGroup *echo.Group, ctrl *controllers.HistoryController) {
	secureGroup.GET("/history/report", ctrl.GetReport)
}
