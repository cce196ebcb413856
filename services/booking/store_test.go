package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"servicehub/database/repository/memory"
	"servicehub/errs"
	"servicehub/models"
	"servicehub/services/identity"
)

var epoch = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type staticIdentity struct {
	user *identity.Identity
	role models.Role
}

func (i staticIdentity) User() *identity.Identity { return i.user }
func (i staticIdentity) Role() models.Role        { return i.role }

func as(uid string, role models.Role) staticIdentity {
	return staticIdentity{user: &identity.Identity{UID: uid}, role: role}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.BookingEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev models.BookingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) Events() []models.BookingEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.BookingEvent(nil), n.events...)
}

type fixture struct {
	mem    *memory.Store
	clock  *testclock.Clock
	notify *recordingNotifier
}

func newFixture() *fixture {
	mem := memory.NewStore()
	mem.PutCustomer(*models.NewCustomerProfile("c1"))
	w := *models.NewWorkerProfile("w1")
	w.Rating = 4.0
	w.ReviewCount = 3
	w.CompletedJobs = 7
	mem.PutWorker(w)
	return &fixture{mem: mem, clock: testclock.NewClock(epoch), notify: &recordingNotifier{}}
}

func (f *fixture) store(ident Identity) *Store {
	return NewStore(f.mem.Repositories().Bookings, ident, f.notify, f.clock, zap.NewNop())
}

func (f *fixture) put(id string, status models.BookingStatus) models.Booking {
	b := models.Booking{
		ID:            id,
		CustomerID:    "c1",
		WorkerID:      "w1",
		ServiceID:     "s1",
		Status:        status,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: models.PaymentMethodCash,
		CreatedAt:     epoch,
		UpdatedAt:     epoch,
	}
	f.mem.PutBooking(b)
	return b
}

func TestCreate(t *testing.T) {
	f := newFixture()
	s := f.store(as("c1", models.RoleCustomer))

	b, err := s.Create(context.Background(), models.BookingInput{
		WorkerID:  "w1",
		ServiceID: "s1",
		Address:   "12 Moi Avenue",
		Price:     1500,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "c1", b.CustomerID)
	assert.Equal(t, models.StatusRequested, b.Status)
	assert.Equal(t, models.PaymentPending, b.PaymentStatus)
	assert.Equal(t, models.PaymentMethodCash, b.PaymentMethod)
	assert.Equal(t, epoch, b.CreatedAt)
	assert.Equal(t, epoch, b.UpdatedAt)

	stored, ok := f.mem.Booking(b.ID)
	require.True(t, ok)
	assert.Equal(t, *b, stored)

	c, _ := f.mem.Customer("c1")
	assert.Equal(t, []string{b.ID}, c.BookingHistory)

	assert.Equal(t, []models.Booking{*b}, s.Bookings())
	require.NotNil(t, s.Current())
	assert.Equal(t, b.ID, s.Current().ID)

	events := f.notify.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventBookingCreated, events[0].Type)
	assert.Equal(t, "w1", events[0].RecipientID)
}

func TestCreateWithoutIdentity(t *testing.T) {
	f := newFixture()
	s := f.store(staticIdentity{})

	_, err := s.Create(context.Background(), models.BookingInput{ServiceID: "s1"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Unauthenticated))
	assert.Equal(t, "User not authenticated", s.LastError())
	assert.Empty(t, s.Bookings())
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture()
	s := f.store(as("c1", models.RoleCustomer))

	_, err := s.Create(context.Background(), models.BookingInput{Price: -5})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.NotValid))
}

func TestCreateBackendFailureWritesNothing(t *testing.T) {
	f := newFixture()
	f.mem.SetErr("Bookings.CreateWithHistory", errors.New("transaction aborted"))
	s := f.store(as("c1", models.RoleCustomer))

	_, err := s.Create(context.Background(), models.BookingInput{ServiceID: "s1", WorkerID: "w1"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Backend))
	assert.Equal(t, "transaction aborted", s.LastError())

	c, _ := f.mem.Customer("c1")
	assert.Empty(t, c.BookingHistory)
	assert.Empty(t, f.notify.Events())
}

func TestCreateNotifierFailureIsIgnored(t *testing.T) {
	f := newFixture()
	f.notify.err = errors.New("queue unavailable")
	s := f.store(as("c1", models.RoleCustomer))

	b, err := s.Create(context.Background(), models.BookingInput{ServiceID: "s1", WorkerID: "w1"})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Empty(t, s.LastError())
}

func TestTransitionWorkerNotes(t *testing.T) {
	f := newFixture()
	f.put("b1", models.StatusRequested)
	s := f.store(as("w1", models.RoleWorker))
	_, err := s.ListForWorker(context.Background())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	b, err := s.Transition(context.Background(), "b1", models.StatusAccepted, "On my way tomorrow")
	require.NoError(t, err)

	assert.Equal(t, models.StatusAccepted, b.Status)
	assert.Equal(t, "On my way tomorrow", b.WorkerNotes)
	assert.Empty(t, b.CustomerNotes)
	assert.Equal(t, epoch.Add(time.Hour), b.UpdatedAt)

	stored, _ := f.mem.Booking("b1")
	assert.Equal(t, models.StatusAccepted, stored.Status)
	assert.Equal(t, "On my way tomorrow", stored.WorkerNotes)

	cached := s.Bookings()
	require.Len(t, cached, 1)
	assert.Equal(t, models.StatusAccepted, cached[0].Status)

	events := f.notify.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "c1", events[0].RecipientID)
	assert.Equal(t, models.StatusAccepted, events[0].Status)
}

func TestTransitionCustomerCancelsWithNotes(t *testing.T) {
	f := newFixture()
	f.put("b1", models.StatusAccepted)
	s := f.store(as("c1", models.RoleCustomer))
	_, err := s.GetByID(context.Background(), "b1")
	require.NoError(t, err)

	_, err = s.Transition(context.Background(), "b1", models.StatusCancelled, "Plans changed")
	require.NoError(t, err)

	stored, _ := f.mem.Booking("b1")
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assert.Equal(t, "Plans changed", stored.CustomerNotes)
	assert.Empty(t, stored.WorkerNotes)
	assert.Equal(t, models.StatusCancelled, s.Current().Status)
	assert.Equal(t, "w1", f.notify.Events()[0].RecipientID)
}

func TestTransitionEmptyNotesKeepsExisting(t *testing.T) {
	f := newFixture()
	b := f.put("b1", models.StatusAccepted)
	b.WorkerNotes = "Bring a ladder"
	f.mem.PutBooking(b)
	s := f.store(as("w1", models.RoleWorker))

	got, err := s.Transition(context.Background(), "b1", models.StatusInProgress, "")
	require.NoError(t, err)
	assert.Equal(t, "Bring a ladder", got.WorkerNotes)
}

func TestTransitionErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		f := newFixture()
		s := f.store(as("w1", models.RoleWorker))
		_, err := s.Transition(context.Background(), "missing", models.StatusAccepted, "")
		assert.True(t, errs.Is(err, errs.NotFound))
		assert.Equal(t, "Booking not found", s.LastError())
	})
	t.Run("customer accepts", func(t *testing.T) {
		f := newFixture()
		f.put("b1", models.StatusRequested)
		s := f.store(as("c1", models.RoleCustomer))
		_, err := s.Transition(context.Background(), "b1", models.StatusAccepted, "")
		assert.True(t, errs.Is(err, errs.Unauthorized))
	})
	t.Run("reopen cancelled", func(t *testing.T) {
		f := newFixture()
		f.put("b1", models.StatusCancelled)
		s := f.store(as("w1", models.RoleWorker))
		_, err := s.Transition(context.Background(), "b1", models.StatusAccepted, "")
		assert.True(t, errs.Is(err, errs.NotValid))
		stored, _ := f.mem.Booking("b1")
		assert.Equal(t, models.StatusCancelled, stored.Status)
	})
	t.Run("no identity", func(t *testing.T) {
		f := newFixture()
		f.put("b1", models.StatusRequested)
		s := f.store(staticIdentity{})
		_, err := s.Transition(context.Background(), "b1", models.StatusCancelled, "")
		assert.True(t, errs.Is(err, errs.Unauthenticated))
	})
	t.Run("concurrent change", func(t *testing.T) {
		f := newFixture()
		f.put("b1", models.StatusRequested)
		f.mem.SetErr("Bookings.UpdateStatus", errs.Conflictf("booking b1 is no longer requested"))
		s := f.store(as("w1", models.RoleWorker))
		_, err := s.Transition(context.Background(), "b1", models.StatusAccepted, "")
		assert.True(t, errs.Is(err, errs.Conflict))
		assert.Empty(t, f.notify.Events())
	})
}

func TestCompleteWithRating(t *testing.T) {
	f := newFixture()
	f.put("b1", models.StatusInProgress)
	s := f.store(as("c1", models.RoleCustomer))

	b, err := s.Complete(context.Background(), "b1", 5, "Spotless work")
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, b.Status)
	assert.Equal(t, models.PaymentCompleted, b.PaymentStatus)
	require.NotNil(t, b.Rating)
	assert.Equal(t, 5, *b.Rating)
	assert.Equal(t, "Spotless work", b.Review)

	w, _ := f.mem.Worker("w1")
	assert.InDelta(t, 4.25, w.Rating, 1e-9)
	assert.Equal(t, 4, w.ReviewCount)
	assert.Equal(t, 8, w.CompletedJobs)

	reviews := f.mem.Reviews()
	require.Len(t, reviews, 1)
	assert.Equal(t, "b1", reviews[0].BookingID)
	assert.Equal(t, "w1", reviews[0].WorkerID)
	assert.Equal(t, "c1", reviews[0].CustomerID)
	assert.Equal(t, 5, reviews[0].Rating)

	events := f.notify.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventBookingCompleted, events[0].Type)
}

func TestCompleteWithoutRatingLeavesWorker(t *testing.T) {
	f := newFixture()
	f.put("b1", models.StatusAccepted)
	s := f.store(as("c1", models.RoleCustomer))

	b, err := s.Complete(context.Background(), "b1", 0, "")
	require.NoError(t, err)
	assert.Nil(t, b.Rating)
	assert.Empty(t, b.Review)

	w, _ := f.mem.Worker("w1")
	assert.Equal(t, 4.0, w.Rating)
	assert.Equal(t, 3, w.ReviewCount)
	assert.Equal(t, 7, w.CompletedJobs)
	assert.Empty(t, f.mem.Reviews())
}

func TestCompleteUnassignedWorker(t *testing.T) {
	f := newFixture()
	b := f.put("b1", models.StatusRequested)
	b.WorkerID = ""
	f.mem.PutBooking(b)
	s := f.store(as("c1", models.RoleCustomer))

	got, err := s.Complete(context.Background(), "b1", 4, "ok")
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Empty(t, f.mem.Reviews())
	assert.Empty(t, f.notify.Events())
}

func TestCompleteRejectsRepeatAndStrangers(t *testing.T) {
	f := newFixture()
	f.put("b1", models.StatusInProgress)

	_, err := f.store(as("w1", models.RoleWorker)).Complete(context.Background(), "b1", 5, "")
	assert.True(t, errs.Is(err, errs.Unauthorized))

	s := f.store(as("c1", models.RoleCustomer))
	_, err = s.Complete(context.Background(), "b1", 5, "")
	require.NoError(t, err)

	_, err = s.Complete(context.Background(), "b1", 5, "")
	assert.True(t, errs.Is(err, errs.NotValid))

	w, _ := f.mem.Worker("w1")
	assert.Equal(t, 4, w.ReviewCount)
	assert.Len(t, f.mem.Reviews(), 1)
}

func TestCompleteErrors(t *testing.T) {
	f := newFixture()
	f.put("b1", models.StatusInProgress)
	s := f.store(as("c1", models.RoleCustomer))

	_, err := s.Complete(context.Background(), "missing", 5, "")
	assert.True(t, errs.Is(err, errs.NotFound))

	_, err = s.Complete(context.Background(), "b1", 6, "")
	assert.True(t, errs.Is(err, errs.NotValid))

	f.mem.SetErr("Bookings.Complete", errors.New("write conflict"))
	_, err = s.Complete(context.Background(), "b1", 5, "")
	assert.True(t, errs.Is(err, errs.Backend))
	assert.Equal(t, "write conflict", s.LastError())

	stored, _ := f.mem.Booking("b1")
	assert.Equal(t, models.StatusInProgress, stored.Status)
}

func TestListForCustomerSortsNewestFirst(t *testing.T) {
	f := newFixture()
	old := f.put("b1", models.StatusCompleted)
	old.ScheduledTime = models.NewFlexTime(epoch.Add(-48 * time.Hour))
	f.mem.PutBooking(old)
	legacy := f.put("b2", models.StatusRequested)
	legacy.Timestamp = models.NewFlexTime(epoch.Add(24 * time.Hour))
	f.mem.PutBooking(legacy)
	f.put("b3", models.StatusAccepted) // falls back to createdAt
	other := f.put("b4", models.StatusRequested)
	other.CustomerID = "c2"
	f.mem.PutBooking(other)

	s := f.store(as("c1", models.RoleCustomer))
	got, err := s.ListForCustomer(context.Background())
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, b := range got {
		ids[i] = b.ID
	}
	assert.Equal(t, []string{"b2", "b3", "b1"}, ids)
	assert.Len(t, s.CustomerBookings(), 3)
	assert.Len(t, s.ByStatus(models.StatusAccepted), 1)
}

func TestListForWorkerEmpty(t *testing.T) {
	f := newFixture()
	s := f.store(as("w9", models.RoleWorker))

	got, err := s.ListForWorker(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, s.WorkerBookings())
}

func TestListWithoutIdentity(t *testing.T) {
	f := newFixture()
	f.put("b1", models.StatusRequested)
	s := f.store(staticIdentity{})

	got, err := s.ListForCustomer(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "User not authenticated", s.LastError())
	assert.Empty(t, s.CustomerBookings())
}

func TestListBackendFailure(t *testing.T) {
	f := newFixture()
	f.mem.SetErr("Bookings.FindByWorker", errors.New("server selection timeout"))
	s := f.store(as("w1", models.RoleWorker))

	_, err := s.ListForWorker(context.Background())
	assert.True(t, errs.Is(err, errs.Backend))
	assert.Equal(t, "server selection timeout", s.LastError())
}

func TestGetByIDSetsCurrent(t *testing.T) {
	f := newFixture()
	f.put("b1", models.StatusRequested)
	s := f.store(as("c1", models.RoleCustomer))

	b, err := s.GetByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)
	assert.Equal(t, "b1", s.Current().ID)

	_, err = s.GetByID(context.Background(), "nope")
	assert.True(t, errs.Is(err, errs.NotFound))
	assert.Equal(t, "b1", s.Current().ID)
}
