package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// EventKind classifies a change event by its source table.
type EventKind string

const (
	KindMessage EventKind = "message"
	KindBooking EventKind = "booking"
	KindReview  EventKind = "review"
	KindUnknown EventKind = "unknown"
)

// Table tags emitted by the CDC pipeline.
const (
	TableMessages         = "messages"
	TableWalkingBookings  = "walking_bookings"
	TableBoardingBookings = "boarding_bookings"
	TableReviews          = "reviews"
)

// ErrMalformedEvent marks envelopes rejected before dispatch.
var ErrMalformedEvent = errors.New("malformed change event")

// ChangeEvent is the envelope the CDC pipeline delivers, over the webhook or
// the Kafka topic. OldRecord is present only on updates.
type ChangeEvent struct {
	Type      string          `json:"type"`
	Table     string          `json:"table"`
	Record    json.RawMessage `json:"record"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
}

// Validate rejects structurally invalid envelopes before dispatch and
// normalizes a JSON-null old_record to absent: CDC pipelines commonly
// serialize a missing old row as an explicit null rather than omitting the
// key, and handlers branch on OldRecord presence. An unknown table tag is not
// a validation failure — unknown tags are dropped downstream.
func (e *ChangeEvent) Validate() error {
	if e.Table == "" {
		return fmt.Errorf("%w: missing table", ErrMalformedEvent)
	}
	if len(e.Record) == 0 || isJSONNull(e.Record) {
		return fmt.Errorf("%w: missing record", ErrMalformedEvent)
	}
	if isJSONNull(e.OldRecord) {
		e.OldRecord = nil
	}
	return nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// KindForTable maps a table tag to its event kind.
func KindForTable(table string) EventKind {
	switch table {
	case TableMessages:
		return KindMessage
	case TableWalkingBookings, TableBoardingBookings:
		return KindBooking
	case TableReviews:
		return KindReview
	default:
		return KindUnknown
	}
}

// BookingTypeForTable derives the service type from a booking table tag.
// This is the single place that mapping lives.
func BookingTypeForTable(table string) (BookingType, bool) {
	switch table {
	case TableWalkingBookings:
		return BookingWalking, true
	case TableBoardingBookings:
		return BookingBoarding, true
	default:
		return "", false
	}
}
