package routes

import (
	"realty-system/internal/controllers"

	"github.com/labstack/echo/v4"
)

// :kind - apartment, commerce, house, land.
func runListingRouter(secureGroup *echo.Group, ctrl *controllers.ListingController) {
	listings := secureGroup.Group("/listings/:kind")
	{
		listings.GET("", ctrl.GetListings)
		listings.POST("", ctrl.CreateListing)
		listings.POST("/match", ctrl.Match)
		listings.GET("/:id", ctrl.FindListing)
		listings.PUT("/:id", ctrl.UpdateListing)
		listings.DELETE("/:id", ctrl.DeleteListing)
		listings.GET("/:id/history", ctrl.ListingHistory)
	}
}
