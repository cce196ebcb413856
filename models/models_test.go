package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"servicehub/errs"
)

func TestDefaultAvailabilityWeekendOff(t *testing.T) {
	a := DefaultAvailability()

	require.Len(t, a.Schedule, 7)
	for _, day := range Weekdays {
		d, ok := a.Schedule[day]
		require.True(t, ok, day)
		assert.Equal(t, Hours{Start: "09:00", End: "17:00"}, d.Hours, day)
		weekend := day == "saturday" || day == "sunday"
		assert.Equal(t, !weekend, d.IsAvailable, day)
	}
	assert.Equal(t, WorkerOffline, a.CurrentStatus)
}

func TestNewWorkerProfileZeroAggregates(t *testing.T) {
	w := NewWorkerProfile("w1")

	assert.Equal(t, 0.0, w.Rating)
	assert.Equal(t, 0, w.ReviewCount)
	assert.Equal(t, 0, w.CompletedJobs)
	assert.Equal(t, 0.0, w.Wallet.Balance)
	assert.False(t, w.IsVerified)
	assert.NotNil(t, w.Services)
	assert.NotNil(t, w.ServiceAreas)
}

func TestNewCustomerProfileEmpty(t *testing.T) {
	c := NewCustomerProfile("c1")

	assert.Empty(t, c.Address)
	assert.NotNil(t, c.SavedLocations)
	assert.Empty(t, c.SavedLocations)
	assert.NotNil(t, c.BookingHistory)
	assert.Empty(t, c.BookingHistory)
	assert.Empty(t, c.FavoriteWorkers)
}

func TestNextRating(t *testing.T) {
	assert.Equal(t, 5.0, NextRating(0, 0, 5))
	assert.InDelta(t, 4.25, NextRating(4.0, 3, 5), 1e-9)
	assert.InDelta(t, (3.5*10+1)/11, NextRating(3.5, 10, 1), 1e-9)
}

func TestBookingSortTimeFallback(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stamp := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	scheduled := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	b := Booking{CreatedAt: created}
	assert.Equal(t, created, b.SortTime())

	b.Timestamp = NewFlexTime(stamp)
	assert.Equal(t, stamp, b.SortTime())

	b.ScheduledTime = NewFlexTime(scheduled)
	assert.Equal(t, scheduled, b.SortTime())
}

func TestFlexTimeDecodesMixedBSON(t *testing.T) {
	want := time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC)

	docs := []bson.M{
		{"scheduledTime": want},
		{"scheduledTime": "2024-05-06T07:08:00Z"},
		{"scheduledTime": want.UnixMilli()},
	}
	for _, doc := range docs {
		raw, err := bson.Marshal(doc)
		require.NoError(t, err)

		var b Booking
		require.NoError(t, bson.Unmarshal(raw, &b))
		require.NotNil(t, b.ScheduledTime)
		assert.True(t, want.Equal(b.ScheduledTime.Time), "%v", doc)
	}
}

func TestFlexTimeJSON(t *testing.T) {
	var in BookingInput
	require.NoError(t, json.Unmarshal([]byte(`{"serviceId":"s1","scheduledTime":"2024-05-06T07:08"}`), &in))
	require.NotNil(t, in.ScheduledTime)
	assert.Equal(t, 7, in.ScheduledTime.Hour())

	out, err := json.Marshal(FlexTime{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestValidateReportsFields(t *testing.T) {
	err := Validate(BookingInput{Price: -1})

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.NotValid))
	assert.Contains(t, err.Error(), "ServiceID: This field is required")
	assert.Contains(t, err.Error(), "Price: Must be at least 0")
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleWorker.Valid())
	assert.False(t, Role("guest").Valid())
}
