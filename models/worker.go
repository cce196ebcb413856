package models

import "time"

// Weekdays in the order the schedule is presented.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

const (
	DefaultShiftStart = "09:00"
	DefaultShiftEnd   = "17:00"

	WorkerOffline = "offline"
)

type Hours struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

type DaySchedule struct {
	IsAvailable bool  `bson:"isAvailable" json:"isAvailable"`
	Hours       Hours `bson:"hours" json:"hours"`
}

// Availability is the weekly schedule plus the live status toggle.
type Availability struct {
	Schedule      map[string]DaySchedule `bson:"schedule" json:"schedule"`
	CurrentStatus string                 `bson:"currentStatus" json:"currentStatus"` // e.g. "offline", "online", "busy"
}

type WalletTransaction struct {
	ID        string    `bson:"id" json:"id"`
	Amount    float64   `bson:"amount" json:"amount"`
	Kind      string    `bson:"kind" json:"kind"` // "credit" or "debit"
	BookingID string    `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Wallet struct {
	Balance      float64             `bson:"balance" json:"balance"`
	Transactions []WalletTransaction `bson:"transactions" json:"transactions"`
}

// WorkerProfile is the 1:1 companion of a worker User ("workers" collection).
// Rating, ReviewCount, CompletedJobs and Wallet are system managed.
type WorkerProfile struct {
	ID            string       `bson:"id" json:"id"`
	Services      []string     `bson:"services" json:"services"` // Service ids offered
	Bio           string       `bson:"bio" json:"bio"`
	Experience    string       `bson:"experience" json:"experience"`
	Certificates  []string     `bson:"certificates" json:"certificates"`
	Availability  Availability `bson:"availability" json:"availability"`
	Rating        float64      `bson:"rating" json:"rating"` // Mean of all review ratings
	ReviewCount   int          `bson:"reviewCount" json:"reviewCount"`
	CompletedJobs int          `bson:"completedJobs" json:"completedJobs"`
	Wallet        Wallet       `bson:"wallet" json:"wallet"`
	IsVerified    bool         `bson:"isVerified" json:"isVerified"`
	ServiceAreas  []string     `bson:"serviceAreas" json:"serviceAreas"`
}

// WorkerUpdate is a partial merge update on a worker profile. It deliberately has
// no way to express rating, review count, completed jobs or wallet changes.
type WorkerUpdate struct {
	Bio          *string
	Experience   *string
	Availability *Availability
	ServiceAreas *[]string
	Services     *[]string
}

// Empty reports whether the update carries no field at all.
func (u WorkerUpdate) Empty() bool {
	return u.Bio == nil && u.Experience == nil && u.Availability == nil &&
		u.ServiceAreas == nil && u.Services == nil
}

// WorkerView is a worker profile joined with its identity record.
type WorkerView struct {
	WorkerProfile `bson:",inline"`
	DisplayName   string `bson:"displayName,omitempty" json:"displayName,omitempty"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	PhoneNumber   string `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	PhotoURL      string `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
}

// DefaultAvailability is the weekday 09:00-17:00 schedule given to new workers.
func DefaultAvailability() Availability {
	schedule := make(map[string]DaySchedule, len(Weekdays))
	for _, day := range Weekdays {
		schedule[day] = DaySchedule{
			IsAvailable: day != "saturday" && day != "sunday",
			Hours:       Hours{Start: DefaultShiftStart, End: DefaultShiftEnd},
		}
	}
	return Availability{Schedule: schedule, CurrentStatus: WorkerOffline}
}

// NewWorkerProfile returns the profile created at registration.
func NewWorkerProfile(id string) *WorkerProfile {
	return &WorkerProfile{
		ID:           id,
		Services:     []string{},
		Certificates: []string{},
		Availability: DefaultAvailability(),
		Wallet:       Wallet{Transactions: []WalletTransaction{}},
		ServiceAreas: []string{},
	}
}
