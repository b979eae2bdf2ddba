// Package db declares the store contracts shared by the Firestore backend
// (pkg/dblayer) and the in-memory backend (pkg/memstore). Services declare
// the narrow slice of this surface they need; the full Store interface exists
// for wiring in the CLI.
package db

import (
	"context"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
)

// BookingTx is the transactional view used by the booking allocator. The
// counter read and all writes happen atomically; if two callers race on the
// same date, the store's transaction primitive ensures at most one commit per
// read snapshot and retries the loser with a fresh read.
type BookingTx interface {
	// Counter returns the daily counter for the transaction's date. An
	// absent counter reads as the zero value (no numbers used).
	Counter() (model.DailyCounter, error)

	// SetCounter replaces the daily counter for the transaction's date.
	SetCounter(model.DailyCounter) error

	// CreateBooking writes a new booking document.
	CreateBooking(*model.Booking) error

	// NewBookingID reserves a fresh booking document ID.
	NewBookingID() string
}

// StatusTx is the transactional view used by donor status transitions. The
// donor update, the history append, and (for deferrals) the deferral append
// commit together or not at all.
type StatusTx interface {
	// Donor returns the donor bound to the transaction.
	// Returns model.ErrNotFound if it is absent.
	Donor() (model.Donor, error)

	// UpdateDonor replaces the donor document.
	UpdateDonor(model.Donor) error

	// AppendHistory writes a new status-history document.
	AppendHistory(model.DonorStatusHistory) error

	// AppendDeferral writes a new deferral document.
	AppendDeferral(model.DonorDeferral) error
}

// Store is the full persistence surface. List methods taking a *scope.Filter
// apply it as a row-level predicate; nil means unrestricted. Implementations
// must never return rows outside the filter.
type Store interface {
	// Users.
	GetUserProfile(ctx context.Context, uid string) (*model.UserProfile, error)
	GetUserByEmployeeCode(ctx context.Context, code string) (*model.UserProfile, error)
	ListUserProfiles(ctx context.Context) ([]model.UserProfile, error)
	CreateUserProfile(ctx context.Context, profile *model.UserProfile) error
	UpdateUserProfile(ctx context.Context, profile *model.UserProfile) error
	UpdateUserPhoto(ctx context.Context, uid, photoURL string) error

	// Donors. CreateDonorWithAudit commits the donor, its initial history
	// entry, and the registration notification atomically.
	CreateDonorWithAudit(ctx context.Context, donor *model.Donor, history *model.DonorStatusHistory, note *model.Notification) error
	GetDonor(ctx context.Context, id string) (*model.Donor, error)
	FindDonorByDonationNumber(ctx context.Context, donationNumber string, filter *scope.Filter) (*model.Donor, error)
	ListDonors(ctx context.Context, filter *scope.Filter) ([]model.Donor, error)
	SearchDonorsByNamePrefix(ctx context.Context, prefix string, filter *scope.Filter) ([]model.Donor, error)
	WatchDonors(ctx context.Context, filter *scope.Filter) (*DonorSubscription, error)

	// Bookings.
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ListBookings(ctx context.Context, filter *scope.Filter) ([]model.Booking, error)
	RunBookingTx(ctx context.Context, date string, fn func(tx BookingTx) error) error

	// Status history and deferrals.
	RunStatusTx(ctx context.Context, donorID string, fn func(tx StatusTx) error) error
	ListStatusHistory(ctx context.Context, donorID string) ([]model.DonorStatusHistory, error)
	ListAllStatusHistory(ctx context.Context) ([]model.DonorStatusHistory, error)
	ListDeferrals(ctx context.Context) ([]model.DonorDeferral, error)
	ListActiveDeferralReasons(ctx context.Context) ([]model.DeferralReason, error)
	CreateDeferralReason(ctx context.Context, reason *model.DeferralReason) error

	// Attendance.
	OpenAttendance(ctx context.Context, att *model.Attendance) error
	GetOpenAttendance(ctx context.Context, employeeID string) (*model.Attendance, error)
	CloseAttendance(ctx context.Context, id string, end model.GeoStamp) error
	ListAttendance(ctx context.Context, filter *scope.Filter) ([]model.Attendance, error)

	// Education materials.
	ListEducationMaterials(ctx context.Context) ([]model.EducationMaterial, error)
	CreateEducationMaterial(ctx context.Context, mat *model.EducationMaterial) error
	UpdateEducationMaterial(ctx context.Context, mat *model.EducationMaterial) error

	// Notifications.
	CreateNotification(ctx context.Context, note *model.Notification) error
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id, uid string) error
}
