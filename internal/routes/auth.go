package routes

import (
	"realty-system/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runAuthRouter(api *echo.Group, authCtrl *controllers.AuthController, auth echo.MiddlewareFunc) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authCtrl.Login)
		authGroup.POST("/refresh_token", authCtrl.RefreshToken)
		authGroup.GET("/me", authCtrl.Me, auth)
	}
}
