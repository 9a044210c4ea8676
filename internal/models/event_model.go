package models

import "time"

// Booking event types.
const (
	EventBookingCreated       = "booking.created"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingStatusChanged = "booking.status_changed"
)

// BookingEvent is published whenever a booking is created or changes state.
type BookingEvent struct {
	Type           string        `json:"type"`
	BookingID      string        `json:"booking_id"`
	TrackingCode   string        `json:"tracking_code"`
	UserID         string        `json:"user_id,omitempty"`
	Status         BookingStatus `json:"status"`
	PreviousStatus BookingStatus `json:"previous_status,omitempty"`
	OccurredAt     time.Time     `json:"occurred_at"`
}
