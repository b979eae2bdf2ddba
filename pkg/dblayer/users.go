package dblayer

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/donorlink/plasma-center/pkg/core/model"
)

// GetUserProfile retrieves an employee profile by uid. The uid is the
// document ID.
func (s *Store) GetUserProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	snap, err := s.client.Collection(colUsers).Doc(uid).Get(ctx)
	if notFound(snap, err) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("while retrieving user %s: %w", uid, err)
	}

	profile := &model.UserProfile{}
	if err := snap.DataTo(profile); err != nil {
		return nil, fmt.Errorf("while unmarshaling user %s: %w", uid, err)
	}
	profile.UID = snap.Ref.ID
	return profile, nil
}

// GetUserByEmployeeCode looks a profile up by its business key.
func (s *Store) GetUserByEmployeeCode(ctx context.Context, code string) (*model.UserProfile, error) {
	iter := s.client.Collection(colUsers).Where("employeeCode", "==", code).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("while looking up user with employee code %q: %w", code, err)
	}

	profile := &model.UserProfile{}
	if err := snap.DataTo(profile); err != nil {
		return nil, fmt.Errorf("while unmarshaling user %s: %w", snap.Ref.ID, err)
	}
	profile.UID = snap.Ref.ID
	return profile, nil
}

// ListUserProfiles returns every employee profile.
func (s *Store) ListUserProfiles(ctx context.Context) ([]model.UserProfile, error) {
	iter := s.client.Collection(colUsers).Documents(ctx)
	defer iter.Stop()

	var profiles []model.UserProfile
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while iterating users: %w", err)
		}

		var p model.UserProfile
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("while unmarshaling user %s: %w", snap.Ref.ID, err)
		}
		p.UID = snap.Ref.ID
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// CreateUserProfile writes a new employee profile at users/<uid>.
func (s *Store) CreateUserProfile(ctx context.Context, profile *model.UserProfile) error {
	ref := s.client.Collection(colUsers).Doc(profile.UID)
	if _, err := ref.Create(ctx, profile); err != nil {
		return fmt.Errorf("while creating user %s: %w", profile.UID, err)
	}
	return nil
}

// UpdateUserProfile replaces an employee profile.
func (s *Store) UpdateUserProfile(ctx context.Context, profile *model.UserProfile) error {
	ref := s.client.Collection(colUsers).Doc(profile.UID)
	if _, err := ref.Set(ctx, profile); err != nil {
		return fmt.Errorf("while updating user %s: %w", profile.UID, err)
	}
	return nil
}

// UpdateUserPhoto updates only the photo field of a profile.
func (s *Store) UpdateUserPhoto(ctx context.Context, uid, photoURL string) error {
	ref := s.client.Collection(colUsers).Doc(uid)
	_, err := ref.Update(ctx, []firestore.Update{{Path: "photoURL", Value: photoURL}})
	if statusNotFound(err) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("while updating photo for user %s: %w", uid, err)
	}
	return nil
}
