package booking

import (
	"context"
	"errors"
	"fmt"
	"math"

	"glowbook/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// PaymentProcessor opens a payment intent for a reservation. The charge
// outcome arrives later through the payment webhook, never synchronously.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, req models.PaymentRequest) (*models.PaymentIntent, error)
}

// StripePaymentProcessor implements PaymentProcessor on Stripe.
type StripePaymentProcessor struct {
	logger *zap.Logger
}

// NewStripePaymentProcessor constructor.
func NewStripePaymentProcessor(logger *zap.Logger) *StripePaymentProcessor {
	return &StripePaymentProcessor{logger: logger}
}

// CreateIntent opens a Stripe payment intent tagged with the reservation id
// so the webhook can route the outcome back to the right reservation.
func (p *StripePaymentProcessor) CreateIntent(ctx context.Context, req models.PaymentRequest) (*models.PaymentIntent, error) {
	if req.Amount <= 0 {
		return nil, errors.New("invalid payment amount")
	}
	if req.ReservationID == "" {
		return nil, errors.New("missing reservation id")
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(int64(math.Round(req.Amount * 100))),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	params.AddMetadata("reservation_id", req.ReservationID)
	params.AddMetadata("customer_id", req.CustomerID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent creation failed: %w", err)
	}

	p.logger.Info("Payment intent created",
		zap.String("intent", pi.ID),
		zap.String("reservation", req.ReservationID))

	return &models.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       string(pi.Status),
	}, nil
}
