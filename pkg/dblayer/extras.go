package dblayer

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/donorlink/plasma-center/pkg/core/model"
)

// ListEducationMaterials returns all education content, newest first.
func (s *Store) ListEducationMaterials(ctx context.Context) ([]model.EducationMaterial, error) {
	iter := s.client.Collection(colEducation).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var materials []model.EducationMaterial
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while iterating education materials: %w", err)
		}

		var m model.EducationMaterial
		if err := snap.DataTo(&m); err != nil {
			return nil, fmt.Errorf("while unmarshaling education material %s: %w", snap.Ref.ID, err)
		}
		materials = append(materials, m)
	}
	return materials, nil
}

// CreateEducationMaterial adds a new piece of education content.
func (s *Store) CreateEducationMaterial(ctx context.Context, mat *model.EducationMaterial) error {
	ref := s.client.Collection(colEducation).NewDoc()
	mat.ID = ref.ID
	if _, err := ref.Create(ctx, mat); err != nil {
		return fmt.Errorf("while creating education material: %w", err)
	}
	return nil
}

// UpdateEducationMaterial replaces a piece of education content.
func (s *Store) UpdateEducationMaterial(ctx context.Context, mat *model.EducationMaterial) error {
	ref := s.client.Collection(colEducation).Doc(mat.ID)
	if _, err := ref.Set(ctx, mat); err != nil {
		return fmt.Errorf("while updating education material %s: %w", mat.ID, err)
	}
	return nil
}

// CreateNotification appends a notification.
func (s *Store) CreateNotification(ctx context.Context, note *model.Notification) error {
	ref := s.client.Collection(colNotifications).NewDoc()
	note.ID = ref.ID
	if _, err := ref.Create(ctx, note); err != nil {
		return fmt.Errorf("while creating notification: %w", err)
	}
	return nil
}

// ListNotifications returns all notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	iter := s.client.Collection(colNotifications).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var notes []model.Notification
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while iterating notifications: %w", err)
		}

		var n model.Notification
		if err := snap.DataTo(&n); err != nil {
			return nil, fmt.Errorf("while unmarshaling notification %s: %w", snap.Ref.ID, err)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// MarkNotificationRead records that uid has read the notification.
func (s *Store) MarkNotificationRead(ctx context.Context, id, uid string) error {
	ref := s.client.Collection(colNotifications).Doc(id)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "readBy", Value: firestore.ArrayUnion(uid)},
	})
	if statusNotFound(err) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("while marking notification %s read: %w", id, err)
	}
	return nil
}
