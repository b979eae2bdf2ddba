package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
)

// AttendanceStore defines the database operations for attendance sessions.
type AttendanceStore interface {
	OpenAttendance(ctx context.Context, att *model.Attendance) error
	GetOpenAttendance(ctx context.Context, employeeID string) (*model.Attendance, error)
	CloseAttendance(ctx context.Context, id string, end model.GeoStamp) error
	ListAttendance(ctx context.Context, filter *scope.Filter) ([]model.Attendance, error)
}

// StartAttendance opens a geolocated work session for the caller. A second
// start while a session is open is rejected.
func StartAttendance(ctx context.Context, store AttendanceStore, logger *zap.Logger, actor *model.UserProfile, lat, lng float64) (*model.Attendance, error) {
	if _, err := store.GetOpenAttendance(ctx, actor.UID); err == nil {
		return nil, fmt.Errorf("%w: an attendance session is already open", model.ErrValidation)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("failed to check open attendance: %w", err)
	}

	att := &model.Attendance{
		EmployeeID:   actor.UID,
		EmployeeName: actor.FullName,
		EmployeeCode: actor.EmployeeCode,
		Start:        model.GeoStamp{TS: nowMillis(), Lat: lat, Lng: lng},
	}
	if err := store.OpenAttendance(ctx, att); err != nil {
		return nil, fmt.Errorf("failed to start attendance: %w", err)
	}

	logger.Info("Attendance started",
		zap.String("employee", actor.UID),
		zap.Float64("lat", lat),
		zap.Float64("lng", lng))

	return att, nil
}

// EndAttendance closes the caller's open session with an end geostamp.
// Ending with no open session is a validation error.
func EndAttendance(ctx context.Context, store AttendanceStore, logger *zap.Logger, actor *model.UserProfile, lat, lng float64) (*model.Attendance, error) {
	att, err := store.GetOpenAttendance(ctx, actor.UID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: no open attendance session", model.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up open attendance: %w", err)
	}

	end := model.GeoStamp{TS: nowMillis(), Lat: lat, Lng: lng}
	if err := store.CloseAttendance(ctx, att.ID, end); err != nil {
		return nil, fmt.Errorf("failed to end attendance %s: %w", att.ID, err)
	}
	att.End = &end

	logger.Info("Attendance ended", zap.String("employee", actor.UID), zap.String("session", att.ID))

	return att, nil
}

// ListAttendance lists sessions visible to the caller: managers see every
// employee, everyone else sees only their own.
func ListAttendance(ctx context.Context, store AttendanceStore, actor *model.UserProfile) ([]model.Attendance, error) {
	callerScope := scope.For(actor.Role, actor.UID)
	sessions, err := store.ListAttendance(ctx, callerScope.Attendance())
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return sessions, nil
}
