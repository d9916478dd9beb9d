package routes

import (
	"realty-system/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runReferenceRouter(secureGroup *echo.Group, refCtrl *controllers.ReferenceController, hbCtrl *controllers.HandbookController) {
	refs := secureGroup.Group("/references/:kind")
	{
		refs.GET("", refCtrl.GetReferences)
		refs.POST("", refCtrl.CreateReference)
		refs.GET("/:id", refCtrl.FindReference)
		refs.PUT("/:id", refCtrl.UpdateReference)
		refs.DELETE("/:id", refCtrl.DeleteReference)
	}

	handbooks := secureGroup.Group("/handbooks/:category")
	{
		handbooks.GET("", hbCtrl.GetHandbooks)
		handbooks.POST("", hbCtrl.CreateHandbook)
		handbooks.PUT("/:id", hbCtrl.UpdateHandbook)
		handbooks.DELETE("/:id", hbCtrl.DeleteHandbook)
	}
}
