package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"glowbook/models"
	"glowbook/services/booking"
	"glowbook/services/profile"
)

// BookingHandler exposes the reservation engine over HTTP.
type BookingHandler struct {
	Engine   booking.ReservationEngine
	Profiles profile.ProfileService
	Logger   *zap.Logger
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var input models.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.BookingResponse{Success: false, Error: "invalid input: " + err.Error()})
		return
	}

	result, err := h.Engine.CreateBookingWithPayment(c.Request.Context(), input)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}

	if len(result.Conflicts) > 0 {
		c.JSON(http.StatusOK, models.BookingResponse{
			Success:   false,
			Conflicts: result.Conflicts,
			Error:     "requested slot conflicts with existing bookings",
		})
		return
	}

	c.JSON(http.StatusCreated, models.BookingResponse{
		Success:       true,
		Booking:       result.Booking,
		PaymentIntent: result.PaymentIntent,
	})
}

// UpdateBooking handles PATCH /api/bookings/:id.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id := c.Param("id")
	var updates models.BookingUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	ok, err := h.Engine.UpdateBooking(c.Request.Context(), id, updates)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "update rejected: illegal transition or concurrent change"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CancelBooking handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id := c.Param("id")
	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)

	ok, err := h.Engine.CancelBooking(c.Request.Context(), id, input.Reason)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "booking can no longer be cancelled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetBooking handles GET /api/bookings/:id, enriching the row with customer
// and resource display names for detail views.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id := c.Param("id")

	r, err := h.Engine.GetBooking(c.Request.Context(), id)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}

	detail := models.ReservationDetail{Reservation: *r}
	if p, err := h.Profiles.GetProfile(c.Request.Context(), r.CustomerID); err == nil {
		detail.CustomerName = p.DisplayName
	}
	if p, err := h.Profiles.GetProfile(c.Request.Context(), r.ResourceID); err == nil {
		detail.ResourceName = p.DisplayName
	}
	c.JSON(http.StatusOK, detail)
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func (h *BookingHandler) writeEngineError(c *gin.Context, err error) {
	var (
		ve *booking.ValidationError
		ne *booking.NotFoundError
		pe *booking.PaymentError
		te *booking.TransientStoreError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.As(err, &ne):
		c.JSON(http.StatusNotFound, gin.H{"error": ne.Error()})
	case errors.As(err, &pe):
		h.Logger.Error("payment collaborator failure", zap.Error(pe))
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment could not be initiated; the slot was released"})
	case errors.As(err, &te):
		h.Logger.Error("store unavailable", zap.Error(te))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary storage failure, please retry"})
	default:
		h.Logger.Error("booking request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
