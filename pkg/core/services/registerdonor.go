package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
)

// RegisterDonorParams carries the fields of a new donor registration.
type RegisterDonorParams struct {
	FullName       string
	IDCardImageURL string
	DonationNumber string
}

// RegisterDonorStore defines the database operations needed to register a
// donor.
type RegisterDonorStore interface {
	FindDonorByDonationNumber(ctx context.Context, donationNumber string, filter *scope.Filter) (*model.Donor, error)
	CreateDonorWithAudit(ctx context.Context, donor *model.Donor, history *model.DonorStatusHistory, note *model.Notification) error
}

// RegisterDonor creates a donor in the registered state, with the awareness
// employee's identity denormalized onto the record. The donor, its initial
// history entry, and a donor_registered notification are committed
// atomically. All validation runs before any write.
func RegisterDonor(ctx context.Context, store RegisterDonorStore, logger *zap.Logger, actor *model.UserProfile, params RegisterDonorParams) (*model.Donor, error) {
	if params.FullName == "" {
		return nil, fmt.Errorf("%w: donor name is required", model.ErrValidation)
	}
	if params.IDCardImageURL == "" {
		return nil, fmt.Errorf("%w: donor ID card image is required", model.ErrValidation)
	}
	if params.DonationNumber == "" {
		return nil, fmt.Errorf("%w: donation number is required", model.ErrValidation)
	}

	// The donation number is a global business key; reject duplicates across
	// all scopes, not just the caller's.
	if _, err := store.FindDonorByDonationNumber(ctx, params.DonationNumber, nil); err == nil {
		return nil, fmt.Errorf("%w: donation number %s is already registered", model.ErrValidation, params.DonationNumber)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("failed to check donation number: %w", err)
	}

	now := nowMillis()
	donor := &model.Donor{
		FullName:              params.FullName,
		IDCardImageURL:        params.IDCardImageURL,
		AwarenessEmployeeID:   actor.UID,
		AwarenessEmployeeName: actor.FullName,
		AwarenessEmployeeCode: actor.EmployeeCode,
		DonationNumber:        params.DonationNumber,
		Status:                model.StatusRegistered,
		CreatedAt:             now,
	}
	history := &model.DonorStatusHistory{
		DonationNumber: params.DonationNumber,
		Status:         model.StatusRegistered,
		ChangedAt:      now,
		ChangedByUID:   actor.UID,
	}
	note := &model.Notification{
		Type:      model.NotificationDonorRegistered,
		Message:   fmt.Sprintf("New donor registered: %s (%s)", params.FullName, params.DonationNumber),
		CreatedAt: now,
	}

	if err := store.CreateDonorWithAudit(ctx, donor, history, note); err != nil {
		return nil, fmt.Errorf("failed to register donor: %w", err)
	}

	logger.Info("Donor registered",
		zap.String("donor_id", donor.ID),
		zap.String("donation_number", donor.DonationNumber),
		zap.String("awareness_employee", actor.UID))

	return donor, nil
}
