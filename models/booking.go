package models

import "time"

type BookingStatus string

const (
	StatusRequested  BookingStatus = "requested"
	StatusAccepted   BookingStatus = "accepted"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// Terminal reports whether no further status change is allowed.
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

const PaymentMethodCash = "cash"

// Booking links a customer and a worker to one service appointment.
// CustomerID and WorkerID never change after creation.
type Booking struct {
	ID            string        `bson:"id" json:"id"`
	CustomerID    string        `bson:"customerId" json:"customerId"`
	WorkerID      string        `bson:"workerId,omitempty" json:"workerId,omitempty"`
	ServiceID     string        `bson:"serviceId" json:"serviceId"`
	Address       string        `bson:"address,omitempty" json:"address,omitempty"`
	Notes         string        `bson:"notes,omitempty" json:"notes,omitempty"`
	ScheduledTime *FlexTime     `bson:"scheduledTime,omitempty" json:"scheduledTime,omitempty"`
	Timestamp     *FlexTime     `bson:"timestamp,omitempty" json:"timestamp,omitempty"` // Older records carry this instead of scheduledTime
	Price         float64       `bson:"price,omitempty" json:"price,omitempty"`
	Status        BookingStatus `bson:"status" json:"status"`
	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod string        `bson:"paymentMethod" json:"paymentMethod"`
	WorkerNotes   string        `bson:"workerNotes,omitempty" json:"workerNotes,omitempty"`
	CustomerNotes string        `bson:"customerNotes,omitempty" json:"customerNotes,omitempty"`
	Rating        *int          `bson:"rating,omitempty" json:"rating,omitempty"`
	Review        string        `bson:"review,omitempty" json:"review,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// SortTime is the instant bookings are ordered by: the scheduled time when
// present, else the generic timestamp, else the creation time.
func (b Booking) SortTime() time.Time {
	if b.ScheduledTime != nil && !b.ScheduledTime.IsZero() {
		return b.ScheduledTime.Time
	}
	if b.Timestamp != nil && !b.Timestamp.IsZero() {
		return b.Timestamp.Time
	}
	return b.CreatedAt
}

// BookingInput is what a customer submits to request a booking.
type BookingInput struct {
	WorkerID      string    `json:"workerId"`
	ServiceID     string    `json:"serviceId" validate:"required"`
	Address       string    `json:"address"`
	Notes         string    `json:"notes"`
	ScheduledTime *FlexTime `json:"scheduledTime"`
	Price         float64   `json:"price" validate:"gte=0"`
}

// StatusUpdate is the persisted part of a status transition.
type StatusUpdate struct {
	Status        BookingStatus
	WorkerNotes   *string
	CustomerNotes *string
	UpdatedAt     time.Time
}

// Apply merges u into b.
func (u StatusUpdate) Apply(b *Booking) {
	b.Status = u.Status
	b.UpdatedAt = u.UpdatedAt
	if u.WorkerNotes != nil {
		b.WorkerNotes = *u.WorkerNotes
	}
	if u.CustomerNotes != nil {
		b.CustomerNotes = *u.CustomerNotes
	}
}

// Completion is the persisted part of completing a booking. When Review is set
// the review document is stored and the worker aggregate is updated in the same
// transaction as the booking.
type Completion struct {
	Rating    *int
	Comment   string
	Review    *Review
	UpdatedAt time.Time
}

// Apply merges c into b.
func (c Completion) Apply(b *Booking) {
	b.Status = StatusCompleted
	b.PaymentStatus = PaymentCompleted
	b.UpdatedAt = c.UpdatedAt
	if c.Rating != nil {
		r := *c.Rating
		b.Rating = &r
	}
	if c.Comment != "" {
		b.Review = c.Comment
	}
}
