package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/allocator"
	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
	"github.com/donorlink/plasma-center/pkg/db"
)

// CreateBookingStore defines the database operations needed to create a
// booking.
type CreateBookingStore interface {
	FindDonorByDonationNumber(ctx context.Context, donationNumber string, filter *scope.Filter) (*model.Donor, error)
	RunBookingTx(ctx context.Context, date string, fn func(tx db.BookingTx) error) error
}

// OperatingCalendar reports whether the center takes bookings on a date.
// A nil calendar allows every date.
type OperatingCalendar interface {
	Allows(date string) bool
}

// CreateBooking reserves a booking number for the donor identified by
// donation number on the given date and writes the booking, all inside one
// store transaction on the date's counter. The donor lookup runs inside the
// caller's scope, so an AwarenessEmployee can only book donors they
// registered.
//
// Concurrent calls for the same date are serialized by the store's
// transaction primitive: the losing snapshot retries with a fresh counter
// read, so no two bookings ever share a (date, number) pair.
func CreateBooking(ctx context.Context, store CreateBookingStore, calendar OperatingCalendar, logger *zap.Logger, actor *model.UserProfile, donationNumber, date string) (*model.Booking, error) {
	if donationNumber == "" {
		return nil, fmt.Errorf("%w: donation number is required", model.ErrValidation)
	}
	if !ValidDate(date) {
		return nil, fmt.Errorf("%w: bad booking date %q", model.ErrValidation, date)
	}
	if calendar != nil && !calendar.Allows(date) {
		return nil, fmt.Errorf("%w: center is closed on %s", model.ErrValidation, date)
	}

	callerScope := scope.For(actor.Role, actor.UID)
	donor, err := store.FindDonorByDonationNumber(ctx, donationNumber, callerScope.Donors())
	if err != nil {
		return nil, fmt.Errorf("donor lookup for donation number %s: %w", donationNumber, err)
	}

	var booking *model.Booking
	err = store.RunBookingTx(ctx, date, func(tx db.BookingTx) error {
		counter, err := tx.Counter()
		if err != nil {
			return err
		}

		used := allocator.UsedSet(counter.UsedNumbers)
		number, err := allocator.PickNumber(used)
		if err != nil {
			return err
		}

		counter.UsedNumbers = append(counter.UsedNumbers, number)
		counter.UpdatedAt = nowMillis()
		if err := tx.SetCounter(counter); err != nil {
			return err
		}

		bookingID := tx.NewBookingID()
		booking = &model.Booking{
			ID:             bookingID,
			DonorID:        donor.ID,
			DonationNumber: donor.DonationNumber,
			DonorName:      donor.FullName,
			BookingDate:    date,
			BookingNumber:  number,
			QRPayload: model.QRPayload{
				BookingID:      bookingID,
				DonationNumber: donor.DonationNumber,
				BookingNumber:  number,
				BookingDate:    date,
			},
			CreatedAt:    nowMillis(),
			CreatedByUID: actor.UID,
		}
		return tx.CreateBooking(booking)
	})
	if err != nil {
		return nil, fmt.Errorf("booking allocation for %s: %w", date, err)
	}

	logger.Info("Booking created",
		zap.String("booking_id", booking.ID),
		zap.String("donor_id", donor.ID),
		zap.String("date", date),
		zap.Int("number", booking.BookingNumber))

	return booking, nil
}
