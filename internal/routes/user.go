package routes

import (
	"realty-system/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runUserRouter(secureGroup *echo.Group, ctrl *controllers.UserController) {
	users := secureGroup.Group("/users")
	{
		users.GET("", ctrl.GetUsers)
		users.POST("", ctrl.CreateUser)
		users.GET("/:id", ctrl.FindUser)
		users.PUT("/:id", ctrl.UpdateUser)
		users.PUT("/:id/permissions", ctrl.SetPermissions)
		users.PUT("/:id/filials", ctrl.SetFilials)
	}

	secureGroup.GET("/permissions", ctrl.GetPermissions)
	secureGroup.GET("/groups", ctrl.GetGroups)
}
