package models

import "time"

// Booking events pushed to the other party of a booking.
const (
	EventBookingCreated   = "booking_created"
	EventBookingStatus    = "booking_status"
	EventBookingCompleted = "booking_completed"
)

// BookingEvent is the payload queued for push delivery.
type BookingEvent struct {
	Type        string        `json:"type"`
	BookingID   string        `json:"bookingId"`
	RecipientID string        `json:"recipientId"`
	Status      BookingStatus `json:"status"`
	Title       string        `json:"title"`
	Body        string        `json:"body"`
	CreatedAt   time.Time     `json:"createdAt"`
}
