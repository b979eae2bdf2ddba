package dblayer

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
	"github.com/donorlink/plasma-center/pkg/db"
)

// counterDocID returns the daily counter document ID for a date.
func counterDocID(date string) string {
	return "bookings_" + date
}

// GetBooking retrieves one booking by document ID.
func (s *Store) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	snap, err := s.client.Collection(colBookings).Doc(id).Get(ctx)
	if notFound(snap, err) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("while retrieving booking %s: %w", id, err)
	}

	booking := &model.Booking{}
	if err := snap.DataTo(booking); err != nil {
		return nil, fmt.Errorf("while unmarshaling booking %s: %w", id, err)
	}
	return booking, nil
}

// ListBookings lists bookings within the caller's scope, newest first.
func (s *Store) ListBookings(ctx context.Context, filter *scope.Filter) ([]model.Booking, error) {
	q := scoped(s.client.Collection(colBookings).Query, filter).
		OrderBy("createdAt", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var bookings []model.Booking
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while iterating bookings: %w", err)
		}

		var b model.Booking
		if err := snap.DataTo(&b); err != nil {
			return nil, fmt.Errorf("while unmarshaling booking %s: %w", snap.Ref.ID, err)
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

// bookingTx adapts a Firestore transaction to db.BookingTx for one date.
type bookingTx struct {
	store *Store
	tx    *firestore.Transaction
	date  string
}

func (t *bookingTx) Counter() (model.DailyCounter, error) {
	ref := t.store.client.Collection(colCounters).Doc(counterDocID(t.date))
	snap, err := t.tx.Get(ref)
	if notFound(snap, err) {
		// Created lazily on first booking of the date.
		return model.DailyCounter{}, nil
	}
	if err != nil {
		return model.DailyCounter{}, fmt.Errorf("while reading daily counter for %s: %w", t.date, err)
	}

	var counter model.DailyCounter
	if err := snap.DataTo(&counter); err != nil {
		return model.DailyCounter{}, fmt.Errorf("while unmarshaling daily counter for %s: %w", t.date, err)
	}
	return counter, nil
}

func (t *bookingTx) SetCounter(counter model.DailyCounter) error {
	ref := t.store.client.Collection(colCounters).Doc(counterDocID(t.date))
	return t.tx.Set(ref, counter)
}

func (t *bookingTx) CreateBooking(booking *model.Booking) error {
	ref := t.store.client.Collection(colBookings).Doc(booking.ID)
	return t.tx.Create(ref, booking)
}

func (t *bookingTx) NewBookingID() string {
	return t.store.client.Collection(colBookings).NewDoc().ID
}

// RunBookingTx executes fn inside a Firestore transaction bound to one
// booking date. Concurrent allocations for the same date conflict on the
// counter document; Firestore retries the loser with a fresh read, bounded by
// maxTxAttempts.
func (s *Store) RunBookingTx(ctx context.Context, date string, fn func(tx db.BookingTx) error) error {
	return s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		return fn(&bookingTx{store: s, tx: tx, date: date})
	}, firestore.MaxAttempts(maxTxAttempts))
}
