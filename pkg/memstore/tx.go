package memstore

import (
	"context"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/db"
)

// bookingTx stages counter and booking writes for one date. Commit happens
// only when the transaction body returns nil.
type bookingTx struct {
	store *Store
	date  string

	counter    *model.DailyCounter
	newBooking *model.Booking
}

func (t *bookingTx) Counter() (model.DailyCounter, error) {
	c := t.store.counters[counterKey(t.date)]
	c.UsedNumbers = append([]int(nil), c.UsedNumbers...)
	return c, nil
}

func (t *bookingTx) SetCounter(counter model.DailyCounter) error {
	counter.UsedNumbers = append([]int(nil), counter.UsedNumbers...)
	t.counter = &counter
	return nil
}

func (t *bookingTx) CreateBooking(booking *model.Booking) error {
	b := *booking
	t.newBooking = &b
	return nil
}

func (t *bookingTx) NewBookingID() string {
	return newID()
}

func counterKey(date string) string {
	return "bookings_" + date
}

// RunBookingTx serializes allocation transactions under the store mutex and
// commits staged writes only on success.
func (s *Store) RunBookingTx(_ context.Context, date string, fn func(tx db.BookingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &bookingTx{store: s, date: date}
	if err := fn(tx); err != nil {
		return err
	}

	if tx.counter != nil {
		s.counters[counterKey(date)] = *tx.counter
	}
	if tx.newBooking != nil {
		s.bookings[tx.newBooking.ID] = *tx.newBooking
	}
	return nil
}

// statusTx stages a donor update plus history/deferral appends.
type statusTx struct {
	store   *Store
	donorID string

	donor     *model.Donor
	history   []model.DonorStatusHistory
	deferrals []model.DonorDeferral
}

func (t *statusTx) Donor() (model.Donor, error) {
	d, ok := t.store.donors[t.donorID]
	if !ok {
		return model.Donor{}, model.ErrNotFound
	}
	return d, nil
}

func (t *statusTx) UpdateDonor(donor model.Donor) error {
	d := donor
	t.donor = &d
	return nil
}

func (t *statusTx) AppendHistory(entry model.DonorStatusHistory) error {
	entry.ID = newID()
	t.history = append(t.history, entry)
	return nil
}

func (t *statusTx) AppendDeferral(deferral model.DonorDeferral) error {
	deferral.ID = newID()
	deferral.Reasons = append([]string(nil), deferral.Reasons...)
	t.deferrals = append(t.deferrals, deferral)
	return nil
}

// RunStatusTx serializes status transitions under the store mutex and
// commits staged writes only on success.
func (s *Store) RunStatusTx(_ context.Context, donorID string, fn func(tx db.StatusTx) error) error {
	s.mu.Lock()

	tx := &statusTx{store: s, donorID: donorID}
	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return err
	}

	if tx.donor != nil {
		s.donors[tx.donor.ID] = *tx.donor
	}
	for _, h := range tx.history {
		s.history[h.ID] = h
	}
	for _, d := range tx.deferrals {
		s.deferrals[d.ID] = d
	}

	s.mu.Unlock()
	if tx.donor != nil {
		s.notifyWatchers()
	}
	return nil
}
