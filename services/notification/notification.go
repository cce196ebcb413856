// Package notification delivers booking events to the other party of a booking
// as push messages, either directly or through the task queue.
package notification

import (
	"context"
	"errors"
	"fmt"

	"servicehub/database/repository"
	"servicehub/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// ErrNoToken means the recipient has not registered a push token. Nothing can
// be delivered and retrying will not help.
var ErrNoToken = errors.New("recipient has no push token")

// Notifier accepts a booking event for delivery.
type Notifier interface {
	Notify(ctx context.Context, ev models.BookingEvent) error
}

// Messenger is the part of the FCM client used here.
type Messenger interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// PushSender sends booking events straight to FCM.
type PushSender struct {
	users repository.UserRepository
	fcm   Messenger
	log   *zap.Logger
}

func NewPushSender(users repository.UserRepository, fcm Messenger, logger *zap.Logger) (*PushSender, error) {
	if users == nil || fcm == nil {
		return nil, fmt.Errorf("push sender initialization error: user repository or messenger is nil")
	}
	return &PushSender{users: users, fcm: fcm, log: logger.With(zap.String("component", "push"))}, nil
}

// Notify looks up the recipient's push token and sends ev.
func (p *PushSender) Notify(ctx context.Context, ev models.BookingEvent) error {
	u, err := p.users.GetByID(ctx, ev.RecipientID)
	if err != nil {
		return fmt.Errorf("could not find recipient %s: %w", ev.RecipientID, err)
	}
	if u.FCMToken == "" {
		return fmt.Errorf("user %s: %w", ev.RecipientID, ErrNoToken)
	}

	id, err := p.fcm.Send(ctx, Message(u.FCMToken, u.Role, ev))
	if err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	p.log.Debug("Push sent",
		zap.String("messageID", id),
		zap.String("bookingID", ev.BookingID),
		zap.String("recipientID", ev.RecipientID))
	return nil
}

// Message builds the FCM message for ev. Workers get a high priority alert so
// new requests are not missed.
func Message(token string, role models.Role, ev models.BookingEvent) *messaging.Message {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: ev.Title,
			Body:  ev.Body,
		},
		Data: map[string]string{
			"type":      ev.Type,
			"bookingId": ev.BookingID,
			"status":    string(ev.Status),
			"role":      string(role),
		},
	}
	if role == models.RoleWorker {
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		}
		msg.APNS = &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		}
	}
	return msg
}

// Noop drops every event. Used when no push backend is configured.
type Noop struct{}

func (Noop) Notify(context.Context, models.BookingEvent) error { return nil }
