package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/db"
)

// mockStatusStore implements StatusStore
type mockStatusStore struct {
	donor     model.Donor
	donorErr  error
	txRuns    int
	updated   *model.Donor
	history   []model.DonorStatusHistory
	deferrals []model.DonorDeferral
}

func (m *mockStatusStore) RunStatusTx(ctx context.Context, donorID string, fn func(tx db.StatusTx) error) error {
	m.txRuns++
	return fn(&mockStatusTx{store: m})
}

type mockStatusTx struct {
	store *mockStatusStore
}

func (tx *mockStatusTx) Donor() (model.Donor, error) {
	if tx.store.donorErr != nil {
		return model.Donor{}, tx.store.donorErr
	}
	return tx.store.donor, nil
}

func (tx *mockStatusTx) UpdateDonor(d model.Donor) error {
	tx.store.updated = &d
	return nil
}

func (tx *mockStatusTx) AppendHistory(h model.DonorStatusHistory) error {
	tx.store.history = append(tx.store.history, h)
	return nil
}

func (tx *mockStatusTx) AppendDeferral(d model.DonorDeferral) error {
	tx.store.deferrals = append(tx.store.deferrals, d)
	return nil
}

func TestUpdateDonorStatus_Success(t *testing.T) {
	store := &mockStatusStore{
		donor: model.Donor{ID: "d-1", DonationNumber: "DN-1042", Status: model.StatusArrived},
	}

	err := UpdateDonorStatus(context.Background(), store, zap.NewNop(), managerActor(), UpdateStatusParams{
		DonorID: "d-1",
		Status:  model.StatusDonationCompleted,
		Note:    "went smoothly",
	})
	require.NoError(t, err)

	require.NotNil(t, store.updated)
	assert.Equal(t, model.StatusDonationCompleted, store.updated.Status)

	require.Len(t, store.history, 1)
	assert.Equal(t, model.StatusDonationCompleted, store.history[0].Status)
	assert.Equal(t, "DN-1042", store.history[0].DonationNumber)
	assert.Equal(t, "mgr-1", store.history[0].ChangedByUID)
	assert.Equal(t, "went smoothly", store.history[0].Note)

	assert.Empty(t, store.deferrals)
}

func TestUpdateDonorStatus_ArrivedStampsArrivalTime(t *testing.T) {
	store := &mockStatusStore{
		donor: model.Donor{ID: "d-1", DonationNumber: "DN-1042", Status: model.StatusRegistered},
	}

	err := UpdateDonorStatus(context.Background(), store, zap.NewNop(), managerActor(), UpdateStatusParams{
		DonorID: "d-1",
		Status:  model.StatusArrived,
	})
	require.NoError(t, err)

	require.NotNil(t, store.updated)
	assert.Equal(t, model.StatusArrived, store.updated.Status)
	assert.NotZero(t, store.updated.ArrivedAt)
	assert.Equal(t, store.updated.ArrivedAt, store.history[0].ChangedAt)
}

func TestUpdateDonorStatus_DeferralWritesHistoryAndDeferral(t *testing.T) {
	store := &mockStatusStore{
		donor: model.Donor{ID: "d-1", DonationNumber: "DN-1042", Status: model.StatusArrived},
	}
	hct := 38.5

	err := UpdateDonorStatus(context.Background(), store, zap.NewNop(), managerActor(), UpdateStatusParams{
		DonorID: "d-1",
		Status:  model.StatusDeferred,
		Reasons: []string{"low_hematocrit"},
		Vitals:  DeferralVitals{Hematocrit: &hct},
	})
	require.NoError(t, err)

	// Exactly one history entry and one deferral, both in the same tx.
	assert.Equal(t, 1, store.txRuns)
	require.Len(t, store.history, 1)
	require.Len(t, store.deferrals, 1)

	deferral := store.deferrals[0]
	assert.Equal(t, []string{"low_hematocrit"}, deferral.Reasons)
	require.NotNil(t, deferral.Hematocrit)
	assert.Equal(t, 38.5, *deferral.Hematocrit)
	assert.Nil(t, deferral.Systolic)
	assert.Equal(t, "mgr-1", deferral.CreatedByUID)
}

func TestUpdateDonorStatus_DeferralWithoutReasonsRejected(t *testing.T) {
	store := &mockStatusStore{donor: model.Donor{ID: "d-1"}}

	err := UpdateDonorStatus(context.Background(), store, zap.NewNop(), managerActor(), UpdateStatusParams{
		DonorID: "d-1",
		Status:  model.StatusDeferred,
	})
	assert.ErrorIs(t, err, model.ErrValidation)

	// Rejected before any write.
	assert.Zero(t, store.txRuns)
	assert.Nil(t, store.updated)
	assert.Empty(t, store.history)
	assert.Empty(t, store.deferrals)
}

func TestUpdateDonorStatus_AwarenessEmployeeForbidden(t *testing.T) {
	store := &mockStatusStore{donor: model.Donor{ID: "d-1"}}

	err := UpdateDonorStatus(context.Background(), store, zap.NewNop(), awarenessActor(), UpdateStatusParams{
		DonorID: "d-1",
		Status:  model.StatusArrived,
	})
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Zero(t, store.txRuns)
}

func TestUpdateDonorStatus_UnknownStatus(t *testing.T) {
	store := &mockStatusStore{donor: model.Donor{ID: "d-1"}}

	err := UpdateDonorStatus(context.Background(), store, zap.NewNop(), managerActor(), UpdateStatusParams{
		DonorID: "d-1",
		Status:  model.DonorStatus("vanished"),
	})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Zero(t, store.txRuns)
}

func TestUpdateDonorStatus_MissingDonor(t *testing.T) {
	store := &mockStatusStore{
		donorErr: fmt.Errorf("donor d-404: %w", model.ErrNotFound),
	}

	err := UpdateDonorStatus(context.Background(), store, zap.NewNop(), managerActor(), UpdateStatusParams{
		DonorID: "d-404",
		Status:  model.StatusArrived,
	})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Nil(t, store.updated)
	assert.Empty(t, store.history)
}
