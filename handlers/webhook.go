package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"glowbook/config"
	"glowbook/services/booking"
)

const maxWebhookBody = 65536

// PaymentWebhookHandler receives Stripe's asynchronous payment outcomes and
// feeds them into the reservation engine.
type PaymentWebhookHandler struct {
	Engine booking.ReservationEngine
	Logger *zap.Logger
}

// HandleStripeEvent handles POST /api/payments/webhook. Signature-verified;
// unknown event types are acknowledged and ignored so Stripe stops retrying.
func (h *PaymentWebhookHandler) HandleStripeEvent(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), config.AppConfig.StripeWebhookSecret)
	if err != nil {
		h.Logger.Warn("rejected webhook with bad signature", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var outcome string
	switch event.Type {
	case "payment_intent.succeeded":
		outcome = booking.OutcomePaid
	case "payment_intent.payment_failed":
		outcome = booking.OutcomeFailed
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		h.Logger.Error("failed to parse payment intent from webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
		return
	}
	reservationID := pi.Metadata["reservation_id"]
	if reservationID == "" {
		h.Logger.Warn("webhook payment intent carries no reservation id", zap.String("intent", pi.ID))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.Engine.ConfirmPayment(c.Request.Context(), reservationID, outcome); err != nil {
		h.Logger.Error("failed to apply payment outcome",
			zap.String("reservation", reservationID),
			zap.String("outcome", outcome),
			zap.Error(err))
		// Non-2xx makes Stripe redeliver; ConfirmPayment is idempotent.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not apply payment outcome"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
