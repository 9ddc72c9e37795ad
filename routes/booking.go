package routes

import (
	"glowbook/handlers"
	"glowbook/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the endpoints for the reservation engine.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookings := r.Group("/api/bookings")
	{
		bookings.Use(middleware.JWTAuthMiddleware())
		bookings.POST("", hb.Booking.CreateBooking)
		bookings.GET("/stream", hb.Dashboard.StreamDashboard)
		bookings.GET("/dashboard", hb.Dashboard.Snapshot)
		bookings.GET("/:id", hb.Booking.GetBooking)
		bookings.PATCH("/:id", hb.Booking.UpdateBooking)
		bookings.POST("/:id/cancel", hb.Booking.CancelBooking)
	}
}

// RegisterPaymentRoutes sets up the payment collaborator's callback. The
// webhook authenticates by signature, not bearer token, so it stays outside
// the JWT group.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	payments := r.Group("/api/payments")
	{
		payments.POST("/webhook", hb.Webhook.HandleStripeEvent)
	}
}
