package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/donorlink/plasma-center/pkg/core/model"
)

// NotificationStore defines the database operations for notifications.
type NotificationStore interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id, uid string) error
}

// NotificationView is a notification with the read flag resolved for the
// caller.
type NotificationView struct {
	model.Notification
	Read bool `json:"read"`
}

// ListNotifications lists notifications newest-first, annotating each with
// whether the caller has read it.
func ListNotifications(ctx context.Context, store NotificationStore, actor *model.UserProfile) ([]NotificationView, error) {
	notes, err := store.ListNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	views := make([]NotificationView, 0, len(notes))
	for _, note := range notes {
		views = append(views, NotificationView{
			Notification: note,
			Read:         slices.Contains(note.ReadBy, actor.UID),
		})
	}
	return views, nil
}

// MarkNotificationRead records that the caller has read the notification.
// Marking an already-read notification is a no-op, not an error.
func MarkNotificationRead(ctx context.Context, store NotificationStore, actor *model.UserProfile, id string) error {
	if err := store.MarkNotificationRead(ctx, id, actor.UID); err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	return nil
}
