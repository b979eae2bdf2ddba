package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
)

// mockEmployeeStore implements EmployeeStore
type mockEmployeeStore struct {
	profile      *model.UserProfile
	profiles     []model.UserProfile
	getErr       error
	updated      *model.UserProfile
	photoUID     string
	photoURL     string
}

func (m *mockEmployeeStore) GetUserProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.profile, nil
}

func (m *mockEmployeeStore) ListUserProfiles(ctx context.Context) ([]model.UserProfile, error) {
	return m.profiles, nil
}

func (m *mockEmployeeStore) UpdateUserProfile(ctx context.Context, profile *model.UserProfile) error {
	m.updated = profile
	return nil
}

func (m *mockEmployeeStore) UpdateUserPhoto(ctx context.Context, uid, photoURL string) error {
	m.photoUID = uid
	m.photoURL = photoURL
	return nil
}

func TestListEmployees_AwarenessEmployeeForbidden(t *testing.T) {
	store := &mockEmployeeStore{profiles: []model.UserProfile{{UID: "u-1"}}}

	_, err := ListEmployees(context.Background(), store, awarenessActor())
	assert.ErrorIs(t, err, model.ErrForbidden)

	profiles, err := ListEmployees(context.Background(), store, managerActor())
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestUpdateEmployee_AdminOnly(t *testing.T) {
	store := &mockEmployeeStore{
		profile: &model.UserProfile{UID: "emp-1", Role: model.RoleAwarenessEmployee, PasswordHash: "hash", PhotoURL: "p"},
	}
	params := EmployeeUpdateParams{
		Role:         model.RoleBranchManager,
		FullName:     "Amal Hassan",
		EmployeeCode: "BM-003",
		IsActive:     true,
	}

	_, err := UpdateEmployee(context.Background(), store, zap.NewNop(), managerActor(), "emp-1", params)
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Nil(t, store.updated)

	updated, err := UpdateEmployee(context.Background(), store, zap.NewNop(), adminActor(), "emp-1", params)
	require.NoError(t, err)
	assert.Equal(t, model.RoleBranchManager, updated.Role)
	assert.Equal(t, "BM-003", updated.EmployeeCode)

	// Credentials and photo carry over untouched.
	assert.Equal(t, "hash", updated.PasswordHash)
	assert.Equal(t, "p", updated.PhotoURL)
}

func TestUpdateEmployee_Validation(t *testing.T) {
	store := &mockEmployeeStore{profile: &model.UserProfile{UID: "emp-1"}}

	_, err := UpdateEmployee(context.Background(), store, zap.NewNop(), adminActor(), "emp-1", EmployeeUpdateParams{
		Role: model.Role("Superuser"), FullName: "A", EmployeeCode: "C",
	})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = UpdateEmployee(context.Background(), store, zap.NewNop(), adminActor(), "emp-1", EmployeeUpdateParams{
		Role: model.RoleBranchManager, FullName: "  ", EmployeeCode: "C",
	})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Nil(t, store.updated)
}

func TestUpdateEmployee_UnknownUID(t *testing.T) {
	store := &mockEmployeeStore{getErr: fmt.Errorf("user u-404: %w", model.ErrNotFound)}

	_, err := UpdateEmployee(context.Background(), store, zap.NewNop(), adminActor(), "u-404", EmployeeUpdateParams{
		Role: model.RoleBranchManager, FullName: "A", EmployeeCode: "C",
	})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateEmployeePhoto_OwnPhotoAllowed(t *testing.T) {
	store := &mockEmployeeStore{profile: &model.UserProfile{UID: "emp-1"}}

	err := UpdateEmployeePhoto(context.Background(), store, zap.NewNop(), awarenessActor(), "emp-1", "https://cdn.example.com/p.jpg")
	require.NoError(t, err)
	assert.Equal(t, "emp-1", store.photoUID)
	assert.Equal(t, "https://cdn.example.com/p.jpg", store.photoURL)
}

func TestUpdateEmployeePhoto_OthersPhotoAdminOnly(t *testing.T) {
	store := &mockEmployeeStore{profile: &model.UserProfile{UID: "emp-2"}}

	err := UpdateEmployeePhoto(context.Background(), store, zap.NewNop(), awarenessActor(), "emp-2", "u")
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Empty(t, store.photoUID)

	err = UpdateEmployeePhoto(context.Background(), store, zap.NewNop(), adminActor(), "emp-2", "u")
	require.NoError(t, err)
	assert.Equal(t, "emp-2", store.photoUID)
}
