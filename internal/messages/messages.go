// Package messages holds the product copy for every notification the service
// writes. Builders return (title, body) pairs.
package messages

import "fmt"

// ─── Message builders ────────────────────────────────────────────────────────

// NewMessage titles the notification with the sender's display name and passes
// the message content through verbatim.
func NewMessage(senderName, content string) (string, string) {
	return senderName, content
}

// ─── Booking builders ────────────────────────────────────────────────────────

func BookingRequest(ownerName, serviceType string) (string, string) {
	return BookingRequestTitle, fmt.Sprintf(BookingRequestBody, ownerName, serviceType)
}

func BookingStatus(sitterName, status string) (string, string) {
	return BookingStatusTitle, fmt.Sprintf(BookingStatusBody, sitterName, status)
}

// ─── Review builders ─────────────────────────────────────────────────────────

func NewReview(reviewerName string) (string, string) {
	return reviewerName, ReviewBody
}
