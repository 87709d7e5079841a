package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a gateway using the given secret key.
func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

// DefaultPaymentMethod returns the customer's first saved card.
func (g *StripeGateway) DefaultPaymentMethod(ctx context.Context, customerID string) (string, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := g.api.PaymentMethods.List(params)
	for iter.Next() {
		return iter.PaymentMethod().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list payment methods: %w", err)
	}
	return "", nil
}

// CreateConfirmedCharge creates and confirms an off-session PaymentIntent that
// routes the platform fee to us and the remainder to the connected account.
func (g *StripeGateway) CreateConfirmedCharge(ctx context.Context, p ChargeParams) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:               stripe.Int64(p.Amount),
		Currency:             stripe.String(p.Currency),
		Customer:             stripe.String(p.CustomerID),
		PaymentMethod:        stripe.String(p.PaymentMethodID),
		Confirm:              stripe.Bool(true),
		OffSession:           stripe.Bool(true),
		ApplicationFeeAmount: stripe.Int64(p.Fee),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(p.DestinationAcct),
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", p.BookingID)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}
