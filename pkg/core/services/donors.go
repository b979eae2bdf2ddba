package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
)

// DonorReadStore defines the read operations over donors and their
// timelines.
type DonorReadStore interface {
	GetDonor(ctx context.Context, id string) (*model.Donor, error)
	ListDonors(ctx context.Context, filter *scope.Filter) ([]model.Donor, error)
	FindDonorByDonationNumber(ctx context.Context, donationNumber string, filter *scope.Filter) (*model.Donor, error)
	SearchDonorsByNamePrefix(ctx context.Context, prefix string, filter *scope.Filter) ([]model.Donor, error)
	ListStatusHistory(ctx context.Context, donorID string) ([]model.DonorStatusHistory, error)
}

// DonorDetail is a donor plus its status timeline, most recent change first.
type DonorDetail struct {
	Donor   *model.Donor
	History []model.DonorStatusHistory
}

// ListDonors lists donors visible to the caller. Every donor read path runs
// through the caller's scope; there is no unscoped listing.
func ListDonors(ctx context.Context, store DonorReadStore, actor *model.UserProfile) ([]model.Donor, error) {
	callerScope := scope.For(actor.Role, actor.UID)
	donors, err := store.ListDonors(ctx, callerScope.Donors())
	if err != nil {
		return nil, fmt.Errorf("failed to list donors: %w", err)
	}
	return donors, nil
}

// SearchDonors finds donors by donation number (exact) or name prefix,
// within the caller's scope.
func SearchDonors(ctx context.Context, store DonorReadStore, actor *model.UserProfile, query string) ([]model.Donor, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", model.ErrValidation)
	}

	callerScope := scope.For(actor.Role, actor.UID)

	// Donation numbers are the primary lookup key; try exact match first.
	donor, err := store.FindDonorByDonationNumber(ctx, query, callerScope.Donors())
	if err == nil {
		return []model.Donor{*donor}, nil
	}

	donors, err := store.SearchDonorsByNamePrefix(ctx, query, callerScope.Donors())
	if err != nil {
		return nil, fmt.Errorf("donor search %q: %w", query, err)
	}
	return donors, nil
}

// GetDonorDetail returns a donor and its timeline. Donors outside the
// caller's scope read as absent rather than partially visible.
func GetDonorDetail(ctx context.Context, store DonorReadStore, actor *model.UserProfile, donorID string) (*DonorDetail, error) {
	donor, err := store.GetDonor(ctx, donorID)
	if err != nil {
		return nil, fmt.Errorf("donor %s: %w", donorID, err)
	}

	callerScope := scope.For(actor.Role, actor.UID)
	if !callerScope.MatchDonor(*donor) {
		return nil, fmt.Errorf("donor %s: %w", donorID, model.ErrNotFound)
	}

	history, err := store.ListStatusHistory(ctx, donorID)
	if err != nil {
		return nil, fmt.Errorf("history for donor %s: %w", donorID, err)
	}

	return &DonorDetail{Donor: donor, History: history}, nil
}
