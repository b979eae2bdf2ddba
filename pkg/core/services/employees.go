package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
)

// EmployeeStore defines the database operations over employee profiles.
type EmployeeStore interface {
	GetUserProfile(ctx context.Context, uid string) (*model.UserProfile, error)
	ListUserProfiles(ctx context.Context) ([]model.UserProfile, error)
	UpdateUserProfile(ctx context.Context, profile *model.UserProfile) error
	UpdateUserPhoto(ctx context.Context, uid, photoURL string) error
}

// EmployeeUpdateParams are the admin-editable core fields of a profile.
type EmployeeUpdateParams struct {
	Role         model.Role
	FullName     string
	EmployeeCode string
	BranchID     string
	IsActive     bool
}

// ListEmployees lists all employee profiles. Manager-class roles only.
func ListEmployees(ctx context.Context, store EmployeeStore, actor *model.UserProfile) ([]model.UserProfile, error) {
	if !scope.IsManager(actor.Role) {
		return nil, fmt.Errorf("%w: role %s may not list employees", model.ErrForbidden, actor.Role)
	}
	profiles, err := store.ListUserProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return profiles, nil
}

// UpdateEmployee replaces the core fields of an employee profile. SystemAdmin
// only; the password hash and photo carry over untouched.
func UpdateEmployee(ctx context.Context, store EmployeeStore, logger *zap.Logger, actor *model.UserProfile, uid string, params EmployeeUpdateParams) (*model.UserProfile, error) {
	if !scope.CanEditEmployee(actor.Role) {
		return nil, fmt.Errorf("%w: role %s may not edit employees", model.ErrForbidden, actor.Role)
	}
	if !params.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, params.Role)
	}
	if strings.TrimSpace(params.FullName) == "" {
		return nil, fmt.Errorf("%w: full name is required", model.ErrValidation)
	}
	if strings.TrimSpace(params.EmployeeCode) == "" {
		return nil, fmt.Errorf("%w: employee code is required", model.ErrValidation)
	}

	profile, err := store.GetUserProfile(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("employee %s: %w", uid, err)
	}

	profile.Role = params.Role
	profile.FullName = params.FullName
	profile.EmployeeCode = params.EmployeeCode
	profile.BranchID = params.BranchID
	profile.IsActive = params.IsActive

	if err := store.UpdateUserProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update employee %s: %w", uid, err)
	}

	logger.Info("Employee updated",
		zap.String("uid", uid),
		zap.String("role", string(profile.Role)),
		zap.Bool("active", profile.IsActive),
		zap.String("by", actor.UID))

	return profile, nil
}

// UpdateEmployeePhoto sets an employee's profile photo URL. Employees may set
// their own; SystemAdmin may set anyone's.
func UpdateEmployeePhoto(ctx context.Context, store EmployeeStore, logger *zap.Logger, actor *model.UserProfile, targetUID, photoURL string) error {
	if !scope.CanEditPhoto(actor.Role, actor.UID, targetUID) {
		return fmt.Errorf("%w: may not change another employee's photo", model.ErrForbidden)
	}
	if photoURL == "" {
		return fmt.Errorf("%w: photo URL is required", model.ErrValidation)
	}

	if _, err := store.GetUserProfile(ctx, targetUID); err != nil {
		return fmt.Errorf("employee %s: %w", targetUID, err)
	}
	if err := store.UpdateUserPhoto(ctx, targetUID, photoURL); err != nil {
		return fmt.Errorf("failed to update photo for %s: %w", targetUID, err)
	}

	logger.Info("Employee photo updated", zap.String("uid", targetUID), zap.String("by", actor.UID))

	return nil
}
