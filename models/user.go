// models/user.go
package models

import "time"

// User is the identity record stored in the "users" collection, keyed by the
// identity provider's uid.
type User struct {
	ID          string    `bson:"id" json:"id"`
	Email       string    `bson:"email" json:"email" validate:"omitempty,email"`
	DisplayName string    `bson:"displayName" json:"displayName"`
	PhoneNumber string    `bson:"phoneNumber" json:"phoneNumber"`
	PhotoURL    string    `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Role        Role      `bson:"role" json:"role" validate:"required,oneof=customer worker admin"`
	FCMToken    string    `bson:"fcmToken,omitempty" json:"-"` // Push token, written by the mobile/web client
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	LastLogin   time.Time `bson:"lastLogin" json:"lastLogin"`
}

// UserUpdate is a partial merge update. Nil fields are left untouched.
type UserUpdate struct {
	DisplayName *string
	PhoneNumber *string
	LastLogin   *time.Time
}

// CustomerProfile is the 1:1 companion of a customer User ("customers" collection).
type CustomerProfile struct {
	ID              string     `bson:"id" json:"id"`
	Address         string     `bson:"address" json:"address"`
	SavedLocations  []Location `bson:"savedLocations" json:"savedLocations"`
	BookingHistory  []string   `bson:"bookingHistory" json:"bookingHistory"` // Booking ids, append only
	FavoriteWorkers []string   `bson:"favoriteWorkers" json:"favoriteWorkers"`
}

// Location is a saved customer address.
type Location struct {
	Label   string `bson:"label" json:"label"`
	Address string `bson:"address" json:"address"`
}

// NewCustomerProfile returns the empty profile created at registration.
func NewCustomerProfile(id string) *CustomerProfile {
	return &CustomerProfile{
		ID:              id,
		SavedLocations:  []Location{},
		BookingHistory:  []string{},
		FavoriteWorkers: []string{},
	}
}
