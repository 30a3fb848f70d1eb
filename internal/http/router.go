package api

import (
	stdhttp "net/http"

	intconfig "busbooking/internal/config"
	h "busbooking/internal/http/handlers"
	"busbooking/internal/http/middleware"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(env intconfig.Env, hd *h.Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.LogWarn("", "router", "trusted_proxies", err)
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route tidak ditemukan",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// diluar Identity supaya client id kadaluarsa bisa diganti
	r.POST("/api/client-id", hd.IssueClientID)

	api := r.Group("/api")
	api.Use(middleware.Identity([]byte(env.JWTSecret)))
	{
		api.GET("/health", h.Health)
		api.GET("/store-check", hd.StoreCheck)
		api.GET("/routes", h.Routes)

		// Schedules & seats
		schedules := api.Group("/schedules")
		schedules.GET("", hd.ListSchedules)
		schedules.GET("/:id/layout", hd.ScheduleLayout)
		schedules.POST("/:id/selection", hd.PreviewSelection)

		api.POST("/pricing/quote", hd.Quote)

		// Passenger forms
		forms := api.Group("/passenger-forms")
		forms.POST("/validate", hd.ValidatePassengerForm)
		ownedForms := forms.Group("", middleware.RequireOwner())
		ownedForms.GET("", hd.GetPassengerForm)
		ownedForms.PUT("", hd.PutPassengerForm)
		ownedForms.PATCH("/field", hd.PatchPassengerField)

		// Checkout (session hand-off)
		checkout := api.Group("/checkout", middleware.RequireOwner())
		checkout.POST("", hd.StartCheckout)
		checkout.GET("", hd.GetCheckout)
		checkout.DELETE("", hd.AbandonCheckout)
		checkout.POST("/retry", hd.RetryCheckout)
		checkout.POST("/complete", hd.CompleteCheckout)

		// My bookings
		bookings := api.Group("/bookings", middleware.RequireOwner())
		bookings.GET("", hd.ListBookings)
		bookings.POST("/:id/cancel", hd.CancelBooking)
		bookings.GET("/:id/ticket", hd.BookingTicket)
	}

	h.SetRouter(r)
	return r
}
