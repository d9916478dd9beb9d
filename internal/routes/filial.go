package routes

import (
	"realty-system/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runFilialRouter(secureGroup *echo.Group, ctrl *controllers.FilialController) {
	filials := secureGroup.Group("/filials")
	{
		filials.GET("", ctrl.GetFilials)
		filials.POST("", ctrl.CreateFilial)
		filials.GET("/:id", ctrl.FindFilial)
		filials.PUT("/:id", ctrl.UpdateFilial)
		filials.DELETE("/:id", ctrl.DeleteFilial)
		filials.GET("/:id/reports", ctrl.GetFilialReports)
		filials.POST("/:id/reports", ctrl.CreateFilialReport)
	}

	secureGroup.DELETE("/filial-reports/:id", ctrl.DeleteFilialReport)
}
