package routes

import (
	"realty-system/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runClientRouter(secureGroup *echo.Group, ctrl *controllers.ClientController) {
	clients := secureGroup.Group("/clients")
	{
		clients.GET("", ctrl.GetClients)
		clients.POST("", ctrl.CreateClient)
		clients.GET("/:id", ctrl.FindClient)
		clients.PUT("/:id", ctrl.UpdateClient)
		clients.DELETE("/:id", ctrl.DeleteClient)
		clients.PATCH("/:id/status", ctrl.ChangeStatus)
		clients.GET("/:id/history", ctrl.ClientHistory)
		clients.GET("/:id/match", ctrl.MatchClient)
		clients.GET("/:id/selections", ctrl.GetSelections)
		clients.POST("/:id/selections", ctrl.CreateSelection)
	}

	secureGroup.GET("/selections/:id", ctrl.FindSelection)
	secureGroup.GET("/selections/:id/act", ctrl.SelectionAct)
}
