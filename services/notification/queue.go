package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"servicehub/models"

	"github.com/hibiken/asynq"
)

const TypeBookingEvent = "booking:event"

// Enqueuer is the part of the asynq client used here.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewBookingEventTask wraps ev in a queue task.
func NewBookingEventTask(ev models.BookingEvent) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingEvent, b)
	opts := []asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(30 * time.Second),
	}
	return task, opts, nil
}

// ParseBookingEvent decodes the payload of a booking event task.
func ParseBookingEvent(task *asynq.Task) (models.BookingEvent, error) {
	var ev models.BookingEvent
	if err := json.Unmarshal(task.Payload(), &ev); err != nil {
		return ev, fmt.Errorf("invalid booking event payload: %w", err)
	}
	return ev, nil
}

// QueueNotifier hands events to the background worker through asynq.
type QueueNotifier struct {
	client Enqueuer
}

func NewQueueNotifier(client Enqueuer) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (q *QueueNotifier) Notify(ctx context.Context, ev models.BookingEvent) error {
	task, opts, err := NewBookingEventTask(ev)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue booking event: %w", err)
	}
	return nil
}
