package messages

// ─── Booking ─────────────────────────────────────────────────────────────────

const (
	BookingRequestTitle = "New booking request"
	BookingRequestBody  = "%s requested a %s booking with you."

	BookingStatusTitle = "Booking update"
	BookingStatusBody  = "%s changed your booking to %s."
)

// ─── Review ──────────────────────────────────────────────────────────────────

const (
	ReviewBody = "left you a new review. Tap to read it."
)
