package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
)

// mockAttendanceStore implements AttendanceStore
type mockAttendanceStore struct {
	open       *model.Attendance
	sessions   []model.Attendance
	opened     *model.Attendance
	closedID   string
	closedEnd  *model.GeoStamp
	listFilter *scope.Filter
}

func (m *mockAttendanceStore) OpenAttendance(ctx context.Context, att *model.Attendance) error {
	att.ID = "att-1"
	m.opened = att
	return nil
}

func (m *mockAttendanceStore) GetOpenAttendance(ctx context.Context, employeeID string) (*model.Attendance, error) {
	if m.open == nil {
		return nil, fmt.Errorf("open attendance for %s: %w", employeeID, model.ErrNotFound)
	}
	return m.open, nil
}

func (m *mockAttendanceStore) CloseAttendance(ctx context.Context, id string, end model.GeoStamp) error {
	m.closedID = id
	m.closedEnd = &end
	return nil
}

func (m *mockAttendanceStore) ListAttendance(ctx context.Context, filter *scope.Filter) ([]model.Attendance, error) {
	m.listFilter = filter
	return m.sessions, nil
}

func TestStartAttendance_Success(t *testing.T) {
	store := &mockAttendanceStore{}

	att, err := StartAttendance(context.Background(), store, zap.NewNop(), awarenessActor(), 30.0444, 31.2357)
	require.NoError(t, err)

	assert.Equal(t, "emp-1", att.EmployeeID)
	assert.Equal(t, "AW-017", att.EmployeeCode)
	assert.Equal(t, 30.0444, att.Start.Lat)
	assert.NotZero(t, att.Start.TS)
	assert.Nil(t, att.End)
}

func TestStartAttendance_AlreadyOpen(t *testing.T) {
	store := &mockAttendanceStore{
		open: &model.Attendance{ID: "att-1", EmployeeID: "emp-1"},
	}

	_, err := StartAttendance(context.Background(), store, zap.NewNop(), awarenessActor(), 30.0, 31.0)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Nil(t, store.opened)
}

func TestEndAttendance_Success(t *testing.T) {
	store := &mockAttendanceStore{
		open: &model.Attendance{ID: "att-1", EmployeeID: "emp-1", Start: model.GeoStamp{TS: 100}},
	}

	att, err := EndAttendance(context.Background(), store, zap.NewNop(), awarenessActor(), 30.05, 31.24)
	require.NoError(t, err)

	assert.Equal(t, "att-1", store.closedID)
	require.NotNil(t, att.End)
	assert.Equal(t, 30.05, att.End.Lat)
	assert.NotZero(t, att.End.TS)
}

func TestEndAttendance_NoOpenSession(t *testing.T) {
	store := &mockAttendanceStore{}

	_, err := EndAttendance(context.Background(), store, zap.NewNop(), awarenessActor(), 30.0, 31.0)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Empty(t, store.closedID)
}

func TestListAttendance_ScopeByRole(t *testing.T) {
	store := &mockAttendanceStore{}

	_, err := ListAttendance(context.Background(), store, awarenessActor())
	require.NoError(t, err)
	require.NotNil(t, store.listFilter)
	assert.Equal(t, "employeeId", store.listFilter.Field)
	assert.Equal(t, "emp-1", store.listFilter.Value)

	_, err = ListAttendance(context.Background(), store, managerActor())
	require.NoError(t, err)
	assert.Nil(t, store.listFilter)
}
