// Package dblayer packages up all Firestore access behind the db.Store
// contract.
package dblayer

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
	"github.com/donorlink/plasma-center/pkg/db"
)

// Collection names, matching the documents the platform has always used.
const (
	colUsers           = "users"
	colDonors          = "donors"
	colBookings        = "bookings"
	colCounters        = "counters"
	colStatusHistory   = "donor_status_history"
	colDeferrals       = "donor_deferrals"
	colDeferralReasons = "deferral_reasons"
	colAttendance      = "attendance"
	colEducation       = "education_materials"
	colNotifications   = "notifications"
)

// maxTxAttempts bounds optimistic transaction retries. Unbounded retry under
// heavy counter contention is a liveness risk; after the attempts are spent
// the conflict surfaces to the caller as a provider error.
const maxTxAttempts = 5

// Store implements db.Store on Cloud Firestore.
type Store struct {
	client *firestore.Client
}

var _ db.Store = (*Store)(nil)

// New wraps a Firestore client.
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

// scoped applies a row-level filter to a query. A nil filter leaves the
// query unrestricted.
func scoped(q firestore.Query, filter *scope.Filter) firestore.Query {
	if filter == nil {
		return q
	}
	return q.Where(filter.Field, "==", filter.Value)
}

// notFound reports whether a Get failed because the document is absent, as
// opposed to a transport or permission failure.
func notFound(snap *firestore.DocumentSnapshot, err error) bool {
	return err != nil && snap != nil && !snap.Exists()
}

// statusNotFound reports whether a field update failed because the target
// document is absent. Firestore surfaces that as a NotFound status; callers
// must see the same missing-resource error a failed Get produces.
func statusNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// collectDonors drains a donor query iterator.
func collectDonors(iter *firestore.DocumentIterator) ([]model.Donor, error) {
	defer iter.Stop()

	var donors []model.Donor
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while iterating donors: %w", err)
		}

		var d model.Donor
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("while unmarshaling donor %s: %w", snap.Ref.ID, err)
		}
		donors = append(donors, d)
	}
	return donors, nil
}

// GetDonor retrieves one donor by document ID.
func (s *Store) GetDonor(ctx context.Context, id string) (*model.Donor, error) {
	snap, err := s.client.Collection(colDonors).Doc(id).Get(ctx)
	if notFound(snap, err) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("while retrieving donor %s: %w", id, err)
	}

	donor := &model.Donor{}
	if err := snap.DataTo(donor); err != nil {
		return nil, fmt.Errorf("while unmarshaling donor %s: %w", id, err)
	}
	return donor, nil
}

// FindDonorByDonationNumber looks a donor up by its business key, within the
// caller's scope. A donor outside the scope reads as absent, never as a
// partially-visible row.
func (s *Store) FindDonorByDonationNumber(ctx context.Context, donationNumber string, filter *scope.Filter) (*model.Donor, error) {
	q := scoped(s.client.Collection(colDonors).Where("donationNumber", "==", donationNumber), filter)

	donors, err := collectDonors(q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("while looking up donor with donation number %q: %w", donationNumber, err)
	}
	if len(donors) == 0 {
		return nil, model.ErrNotFound
	}
	return &donors[0], nil
}

// ListDonors lists donors within the caller's scope, newest first.
func (s *Store) ListDonors(ctx context.Context, filter *scope.Filter) ([]model.Donor, error) {
	q := scoped(s.client.Collection(colDonors).Query, filter).
		OrderBy("createdAt", firestore.Desc)
	return collectDonors(q.Documents(ctx))
}

// SearchDonorsByNamePrefix searches donors by full-name prefix within the
// caller's scope, using the usual Firestore prefix-range trick with the
// \uf8ff sentinel.
func (s *Store) SearchDonorsByNamePrefix(ctx context.Context, prefix string, filter *scope.Filter) ([]model.Donor, error) {
	q := scoped(s.client.Collection(colDonors).
		Where("fullName", ">=", prefix).
		Where("fullName", "<", prefix+"\uf8ff"), filter)
	return collectDonors(q.Documents(ctx))
}

// CreateDonorWithAudit commits the donor, its initial history entry, and the
// registration notification atomically. All three documents land or none do.
func (s *Store) CreateDonorWithAudit(ctx context.Context, donor *model.Donor, history *model.DonorStatusHistory, note *model.Notification) error {
	donorRef := s.client.Collection(colDonors).NewDoc()
	donor.ID = donorRef.ID
	history.DonorID = donorRef.ID

	historyRef := s.client.Collection(colStatusHistory).NewDoc()
	history.ID = historyRef.ID

	noteRef := s.client.Collection(colNotifications).NewDoc()
	note.ID = noteRef.ID

	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(donorRef, donor); err != nil {
			return err
		}
		if err := tx.Create(historyRef, history); err != nil {
			return err
		}
		return tx.Create(noteRef, note)
	}, firestore.MaxAttempts(maxTxAttempts))
	if err != nil {
		return fmt.Errorf("while creating donor: %w", err)
	}

	return nil
}
