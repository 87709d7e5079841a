// Package payments charges confirmed bookings: a destination charge routes
// the platform fee to the marketplace and the remainder to the sitter's
// connected account.
package payments

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/tailmates/notification/internal/domain"
)

// Errors that fail closed at the API boundary.
var (
	ErrNoConnectedAccount = errors.New("sitter has no connected account")
	ErrNoPaymentMethod    = errors.New("customer has no saved payment method")
	ErrInvalidBookingType = errors.New("invalid booking type")
)

// ChargeInput is the request to charge a booking.
type ChargeInput struct {
	CustomerID  string  `json:"customer_id"`
	TotalPrice  float64 `json:"total_price"`
	SitterID    string  `json:"sitter_id"`
	BookingID   string  `json:"booking_id"`
	BookingType string  `json:"booking_type"`
}

// ChargeResult reports the created charge. Amounts are in cents.
type ChargeResult struct {
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Fee             int64  `json:"fee"`
}

// ChargeParams is what the gateway needs to create and confirm one charge.
type ChargeParams struct {
	Amount          int64
	Currency        string
	CustomerID      string
	PaymentMethodID string
	Fee             int64
	DestinationAcct string
	BookingID       string
}

// Gateway is the port to the payment processor. The default implementation
// wraps the Stripe SDK; tests substitute a fake.
type Gateway interface {
	// DefaultPaymentMethod returns the customer's saved card, or "" when none exists.
	DefaultPaymentMethod(ctx context.Context, customerID string) (string, error)
	// CreateConfirmedCharge creates and immediately confirms a destination
	// charge, returning the processor's payment reference.
	CreateConfirmedCharge(ctx context.Context, p ChargeParams) (string, error)
}

// Service holds the booking-charge use-case.
type Service struct {
	directory  domain.Directory
	bookings   domain.BookingUpdater
	gateway    Gateway
	feePercent float64
	currency   string
}

// NewService creates a payments Service. feePercent is the platform's fixed
// percentage of the total (e.g. 10 for 10%).
func NewService(directory domain.Directory, bookings domain.BookingUpdater, gateway Gateway, feePercent float64, currency string) *Service {
	return &Service{
		directory:  directory,
		bookings:   bookings,
		gateway:    gateway,
		feePercent: feePercent,
		currency:   currency,
	}
}

// Charge resolves the sitter's connected account and the customer's saved
// payment instrument, creates and confirms the destination charge, then
// records the payment reference on the booking row. Missing account or
// instrument fails closed before any money moves.
func (s *Service) Charge(ctx context.Context, in ChargeInput) (*ChargeResult, error) {
	bookingType := domain.BookingType(in.BookingType)
	if bookingType.Table() == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBookingType, in.BookingType)
	}

	sitter, err := s.directory.ProfileByID(ctx, in.SitterID)
	if err != nil {
		return nil, fmt.Errorf("resolve sitter %s: %w", in.SitterID, err)
	}
	if sitter.StripeAccountID == "" {
		return nil, ErrNoConnectedAccount
	}

	paymentMethodID, err := s.gateway.DefaultPaymentMethod(ctx, in.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("resolve payment method for %s: %w", in.CustomerID, err)
	}
	if paymentMethodID == "" {
		return nil, ErrNoPaymentMethod
	}

	amount := toCents(in.TotalPrice)
	fee := toCents(in.TotalPrice * s.feePercent / 100)

	paymentRef, err := s.gateway.CreateConfirmedCharge(ctx, ChargeParams{
		Amount:          amount,
		Currency:        s.currency,
		CustomerID:      in.CustomerID,
		PaymentMethodID: paymentMethodID,
		Fee:             fee,
		DestinationAcct: sitter.StripeAccountID,
		BookingID:       in.BookingID,
	})
	if err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}

	if err := s.bookings.SetBookingCharged(ctx, bookingType, in.BookingID, paymentRef); err != nil {
		return nil, fmt.Errorf("record charge on booking %s: %w", in.BookingID, err)
	}

	log.Info().
		Str("booking", in.BookingID).
		Str("payment_ref", paymentRef).
		Int64("amount", amount).
		Int64("fee", fee).
		Msg("booking charged")

	return &ChargeResult{PaymentIntentID: paymentRef, Amount: amount, Fee: fee}, nil
}

// toCents converts a major-unit price to the smallest currency unit,
// rounded half away from zero.
func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}
