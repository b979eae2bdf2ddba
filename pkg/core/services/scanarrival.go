package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/db"
)

// scanNote is the audit note attached to QR-scan arrivals.
const scanNote = "Arrived via QR scan"

// ScanStore defines the database operations needed by the QR-scan flow.
type ScanStore interface {
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	RunStatusTx(ctx context.Context, donorID string, fn func(tx db.StatusTx) error) error
}

// ScanResult reports a confirmed arrival.
type ScanResult struct {
	Booking *model.Booking
	DonorID string
}

// ParseQRPayload decodes the scanned QR text. Unparsable payloads and
// payloads without a booking reference are invalid-booking rejections; no
// state is touched.
func ParseQRPayload(raw []byte) (*model.QRPayload, error) {
	var payload model.QRPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: invalid booking", model.ErrValidation)
	}
	if payload.BookingID == "" {
		return nil, fmt.Errorf("%w: invalid booking", model.ErrValidation)
	}
	return &payload, nil
}

// ScanArrival resolves a scanned QR payload to its booking and force-sets
// the donor to arrived, appending the audit history entry in the same
// transaction. An unknown bookingId is rejected without mutating any state.
func ScanArrival(ctx context.Context, store ScanStore, logger *zap.Logger, actor *model.UserProfile, payload *model.QRPayload) (*ScanResult, error) {
	booking, err := store.GetBooking(ctx, payload.BookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", payload.BookingID, err)
	}

	err = store.RunStatusTx(ctx, booking.DonorID, func(tx db.StatusTx) error {
		donor, err := tx.Donor()
		if err != nil {
			return err
		}

		now := nowMillis()
		donor.Status = model.StatusArrived
		donor.ArrivedAt = now
		if err := tx.UpdateDonor(donor); err != nil {
			return err
		}

		return tx.AppendHistory(model.DonorStatusHistory{
			DonorID:        donor.ID,
			DonationNumber: booking.DonationNumber,
			Status:         model.StatusArrived,
			ChangedAt:      now,
			ChangedByUID:   actor.UID,
			Note:           scanNote,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("arrival for booking %s: %w", booking.ID, err)
	}

	logger.Info("Arrival confirmed via QR scan",
		zap.String("booking_id", booking.ID),
		zap.String("donor_id", booking.DonorID),
		zap.Int("booking_number", booking.BookingNumber))

	return &ScanResult{Booking: booking, DonorID: booking.DonorID}, nil
}
