package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
	"github.com/donorlink/plasma-center/pkg/db"
)

// DeferralVitals are the optional measurements captured when deferring a
// donor.
type DeferralVitals struct {
	Hematocrit  *float64
	Systolic    *float64
	Temperature *float64
	Weight      *float64
}

// UpdateStatusParams describes one status transition.
type UpdateStatusParams struct {
	DonorID string
	Status  model.DonorStatus
	Note    string

	// Reasons and Vitals apply only when Status is StatusDeferred.
	Reasons []string
	Vitals  DeferralVitals
}

// StatusStore defines the database operations needed for a status
// transition.
type StatusStore interface {
	RunStatusTx(ctx context.Context, donorID string, fn func(tx db.StatusTx) error) error
}

// UpdateDonorStatus applies a manager-initiated status transition: the donor
// update, the history append, and (for deferrals) the deferral append commit
// atomically. Authorization and validation run before any write; a deferral
// with no reasons is rejected outright.
func UpdateDonorStatus(ctx context.Context, store StatusStore, logger *zap.Logger, actor *model.UserProfile, params UpdateStatusParams) error {
	if !scope.CanChangeDonorStatus(actor.Role) {
		return fmt.Errorf("%w: role %s may not change donor status", model.ErrForbidden, actor.Role)
	}
	if !params.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", model.ErrValidation, params.Status)
	}
	if params.Status == model.StatusDeferred && len(params.Reasons) == 0 {
		return fmt.Errorf("%w: a deferral needs at least one reason", model.ErrValidation)
	}

	err := store.RunStatusTx(ctx, params.DonorID, func(tx db.StatusTx) error {
		donor, err := tx.Donor()
		if err != nil {
			return err
		}

		now := nowMillis()
		donor.Status = params.Status
		if params.Status == model.StatusArrived {
			donor.ArrivedAt = now
		}
		if err := tx.UpdateDonor(donor); err != nil {
			return err
		}

		if err := tx.AppendHistory(model.DonorStatusHistory{
			DonorID:        donor.ID,
			DonationNumber: donor.DonationNumber,
			Status:         params.Status,
			ChangedAt:      now,
			ChangedByUID:   actor.UID,
			Note:           params.Note,
		}); err != nil {
			return err
		}

		if params.Status == model.StatusDeferred {
			return tx.AppendDeferral(model.DonorDeferral{
				DonorID:        donor.ID,
				DonationNumber: donor.DonationNumber,
				Reasons:        params.Reasons,
				Hematocrit:     params.Vitals.Hematocrit,
				Systolic:       params.Vitals.Systolic,
				Temperature:    params.Vitals.Temperature,
				Weight:         params.Vitals.Weight,
				CreatedAt:      now,
				CreatedByUID:   actor.UID,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("status transition for donor %s: %w", params.DonorID, err)
	}

	logger.Info("Donor status updated",
		zap.String("donor_id", params.DonorID),
		zap.String("status", string(params.Status)),
		zap.String("changed_by", actor.UID))

	return nil
}
