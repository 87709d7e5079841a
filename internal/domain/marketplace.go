package domain

// BookingType is the marketplace service kind. It is never stored on the
// booking row itself — the CDC table tag encodes it (see BookingTypeForTable).
type BookingType string

const (
	BookingWalking  BookingType = "walking"
	BookingBoarding BookingType = "boarding"
)

// Table returns the booking table a service type maps to, or "" for an
// unknown type.
func (t BookingType) Table() string {
	switch t {
	case BookingWalking:
		return TableWalkingBookings
	case BookingBoarding:
		return TableBoardingBookings
	default:
		return ""
	}
}

// Profile identifies a user for display, push delivery, and payouts.
// Mutated by the auth/onboarding services; read-only here.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	// PushToken is empty when the client never registered for push.
	PushToken string `json:"push_token,omitempty"`
	// StripeAccountID is the sitter-side connected account. Empty for owners
	// and for sitters that have not completed onboarding.
	StripeAccountID string `json:"stripe_account_id,omitempty"`
}

// MessageThread relates an owner and a sitter, optionally tied to a booking.
type MessageThread struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	SitterID   string `json:"sitter_id"`
	BookingRef string `json:"booking_ref,omitempty"`
}

// OtherParticipant returns the participant that is not senderID. Threads have
// exactly two participants, so this is a binary choice.
func (t MessageThread) OtherParticipant(senderID string) string {
	if senderID == t.OwnerID {
		return t.SitterID
	}
	return t.OwnerID
}
