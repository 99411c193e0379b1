// Package service implements the deposit workflow: booking creation,
// deposit submission, dashboard review and no-show reporting.  It talks to
// its collaborators through small interfaces so the HTTP layer and the
// reminder scheduler share one implementation.
package service

import (
	"context"
	"log"

	"github.com/iliyamo/spa-booking-deposits/internal/model"
	"github.com/iliyamo/spa-booking-deposits/internal/realtime"
)

// NotificationStore persists dashboard notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}

// Pusher delivers live messages to connected dashboards.
type Pusher interface {
	SendToUser(role string, userID uint64, msg realtime.Message) int
	SendToRole(role string, msg realtime.Message) int
}

// Notifier stores a notification and pushes it to the recipient's open
// dashboards.  Failures are logged and never returned: a lost notification
// must not undo a committed state change.
type Notifier struct {
	store NotificationStore
	push  Pusher
}

func NewNotifier(store NotificationStore, push Pusher) *Notifier {
	return &Notifier{store: store, push: push}
}

// Notify delivers n.  Admin notifications go to every admin connection.
func (n *Notifier) Notify(ctx context.Context, note model.Notification) {
	if n == nil {
		return
	}
	if n.store != nil {
		if err := n.store.Create(ctx, &note); err != nil {
			log.Printf("notifier: store %s for %s %d: %v", note.Type, note.RecipientType, note.RecipientID, err)
		}
	}
	if n.push == nil {
		return
	}
	msg := realtime.Message{Type: note.Type, Data: note}
	switch note.RecipientType {
	case model.RecipientAdmin:
		n.push.SendToRole(model.RoleAdmin, msg)
	case model.RecipientTherapist:
		n.push.SendToUser(model.RoleTherapist, note.RecipientID, msg)
	default:
		n.push.SendToUser(model.RoleCustomer, note.RecipientID, msg)
	}
}
