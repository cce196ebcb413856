package models

import "time"

// Review is derived from a completed booking ("reviews" collection).
type Review struct {
	ID         string    `bson:"id" json:"id"`
	BookingID  string    `bson:"bookingId" json:"bookingId"`
	WorkerID   string    `bson:"workerId" json:"workerId"`
	CustomerID string    `bson:"customerId" json:"customerId"`
	Rating     int       `bson:"rating" json:"rating" validate:"min=1,max=5"`
	Comment    string    `bson:"comment" json:"comment"`
	CreatedAt  *FlexTime `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	Date       *FlexTime `bson:"date,omitempty" json:"date,omitempty"` // Legacy field on imported reviews
}

// SortTime orders reviews newest first: createdAt, else date, else zero.
func (r Review) SortTime() time.Time {
	if r.CreatedAt != nil && !r.CreatedAt.IsZero() {
		return r.CreatedAt.Time
	}
	if r.Date != nil {
		return r.Date.Time
	}
	return time.Time{}
}

// NextRating is the incremental mean after adding one rating to a worker that
// already has count reviews averaging mean.
func NextRating(mean float64, count int, rating int) float64 {
	return (mean*float64(count) + float64(rating)) / float64(count+1)
}
