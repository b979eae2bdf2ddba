package dblayer

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/db"
)

// statusTx adapts a Firestore transaction to db.StatusTx for one donor.
type statusTx struct {
	store *Store
	tx    *firestore.Transaction
	ref   *firestore.DocumentRef
}

func (t *statusTx) Donor() (model.Donor, error) {
	snap, err := t.tx.Get(t.ref)
	if notFound(snap, err) {
		return model.Donor{}, model.ErrNotFound
	}
	if err != nil {
		return model.Donor{}, fmt.Errorf("while reading donor %s: %w", t.ref.ID, err)
	}

	var donor model.Donor
	if err := snap.DataTo(&donor); err != nil {
		return model.Donor{}, fmt.Errorf("while unmarshaling donor %s: %w", t.ref.ID, err)
	}
	return donor, nil
}

func (t *statusTx) UpdateDonor(donor model.Donor) error {
	return t.tx.Set(t.ref, donor)
}

func (t *statusTx) AppendHistory(entry model.DonorStatusHistory) error {
	ref := t.store.client.Collection(colStatusHistory).NewDoc()
	entry.ID = ref.ID
	return t.tx.Create(ref, entry)
}

func (t *statusTx) AppendDeferral(deferral model.DonorDeferral) error {
	ref := t.store.client.Collection(colDeferrals).NewDoc()
	deferral.ID = ref.ID
	return t.tx.Create(ref, deferral)
}

// RunStatusTx executes fn inside a Firestore transaction bound to one donor,
// so the status write, the history append, and any deferral append commit
// together or not at all.
func (s *Store) RunStatusTx(ctx context.Context, donorID string, fn func(tx db.StatusTx) error) error {
	ref := s.client.Collection(colDonors).Doc(donorID)
	return s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		return fn(&statusTx{store: s, tx: tx, ref: ref})
	}, firestore.MaxAttempts(maxTxAttempts))
}

func collectHistory(iter *firestore.DocumentIterator) ([]model.DonorStatusHistory, error) {
	defer iter.Stop()

	var entries []model.DonorStatusHistory
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while iterating status history: %w", err)
		}

		var h model.DonorStatusHistory
		if err := snap.DataTo(&h); err != nil {
			return nil, fmt.Errorf("while unmarshaling history %s: %w", snap.Ref.ID, err)
		}
		entries = append(entries, h)
	}
	return entries, nil
}

// ListStatusHistory returns a donor's timeline, most recent change first.
func (s *Store) ListStatusHistory(ctx context.Context, donorID string) ([]model.DonorStatusHistory, error) {
	q := s.client.Collection(colStatusHistory).
		Where("donorId", "==", donorID).
		OrderBy("changedAt", firestore.Desc)
	return collectHistory(q.Documents(ctx))
}

// ListAllStatusHistory returns every history entry, for export.
func (s *Store) ListAllStatusHistory(ctx context.Context) ([]model.DonorStatusHistory, error) {
	return collectHistory(s.client.Collection(colStatusHistory).Documents(ctx))
}

// ListDeferrals returns every deferral record, for export.
func (s *Store) ListDeferrals(ctx context.Context) ([]model.DonorDeferral, error) {
	iter := s.client.Collection(colDeferrals).Documents(ctx)
	defer iter.Stop()

	var deferrals []model.DonorDeferral
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while iterating deferrals: %w", err)
		}

		var d model.DonorDeferral
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("while unmarshaling deferral %s: %w", snap.Ref.ID, err)
		}
		deferrals = append(deferrals, d)
	}
	return deferrals, nil
}

// ListActiveDeferralReasons returns the curated active reason list ordered by
// code.
func (s *Store) ListActiveDeferralReasons(ctx context.Context) ([]model.DeferralReason, error) {
	iter := s.client.Collection(colDeferralReasons).
		Where("isActive", "==", true).
		OrderBy("code", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var reasons []model.DeferralReason
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while iterating deferral reasons: %w", err)
		}

		var r model.DeferralReason
		if err := snap.DataTo(&r); err != nil {
			return nil, fmt.Errorf("while unmarshaling deferral reason %s: %w", snap.Ref.ID, err)
		}
		reasons = append(reasons, r)
	}
	return reasons, nil
}

// CreateDeferralReason adds one curated reason.
func (s *Store) CreateDeferralReason(ctx context.Context, reason *model.DeferralReason) error {
	ref := s.client.Collection(colDeferralReasons).NewDoc()
	reason.ID = ref.ID
	if _, err := ref.Create(ctx, reason); err != nil {
		return fmt.Errorf("while creating deferral reason %s: %w", reason.Code, err)
	}
	return nil
}
