// Package memstore is an in-memory db.Store used by tests and by local
// development (serve --store memory). Transactions are serialized under one
// mutex, which trivially satisfies the store's atomicity contract; writes are
// staged and committed only when the transaction body succeeds.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
	"github.com/donorlink/plasma-center/pkg/db"
)

// Store implements db.Store in memory.
type Store struct {
	mu sync.Mutex

	users      map[string]model.UserProfile
	donors     map[string]model.Donor
	bookings   map[string]model.Booking
	counters   map[string]model.DailyCounter
	history    map[string]model.DonorStatusHistory
	deferrals  map[string]model.DonorDeferral
	reasons    map[string]model.DeferralReason
	attendance map[string]model.Attendance
	education  map[string]model.EducationMaterial
	notes      map[string]model.Notification

	watchers      map[int]*donorWatcher
	nextWatcherID int
}

var _ db.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		users:      make(map[string]model.UserProfile),
		donors:     make(map[string]model.Donor),
		bookings:   make(map[string]model.Booking),
		counters:   make(map[string]model.DailyCounter),
		history:    make(map[string]model.DonorStatusHistory),
		deferrals:  make(map[string]model.DonorDeferral),
		reasons:    make(map[string]model.DeferralReason),
		attendance: make(map[string]model.Attendance),
		education:  make(map[string]model.EducationMaterial),
		notes:      make(map[string]model.Notification),
		watchers:   make(map[int]*donorWatcher),
	}
}

func newID() string {
	return uuid.New().String()
}

// matches applies an equality filter to the donor/booking/attendance field it
// names. Field names are the wire names used by scope.Filter.
func matchesDonor(d model.Donor, f *scope.Filter) bool {
	return f == nil || (f.Field == "awarenessEmployeeId" && d.AwarenessEmployeeID == f.Value)
}

func matchesBooking(b model.Booking, f *scope.Filter) bool {
	return f == nil || (f.Field == "createdByUid" && b.CreatedByUID == f.Value)
}

func matchesAttendance(a model.Attendance, f *scope.Filter) bool {
	return f == nil || (f.Field == "employeeId" && a.EmployeeID == f.Value)
}

// Users.

func (s *Store) GetUserProfile(_ context.Context, uid string) (*model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.users[uid]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetUserByEmployeeCode(_ context.Context, code string) (*model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.users {
		if p.EmployeeCode == code {
			return &p, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) ListUserProfiles(_ context.Context) ([]model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := make([]model.UserProfile, 0, len(s.users))
	for _, p := range s.users {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].EmployeeCode < profiles[j].EmployeeCode })
	return profiles, nil
}

func (s *Store) CreateUserProfile(_ context.Context, profile *model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[profile.UID]; exists {
		return model.ErrValidation
	}
	s.users[profile.UID] = *profile
	return nil
}

func (s *Store) UpdateUserProfile(_ context.Context, profile *model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[profile.UID]; !ok {
		return model.ErrNotFound
	}
	s.users[profile.UID] = *profile
	return nil
}

func (s *Store) UpdateUserPhoto(_ context.Context, uid, photoURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.users[uid]
	if !ok {
		return model.ErrNotFound
	}
	p.PhotoURL = photoURL
	s.users[uid] = p
	return nil
}

// Donors.

func (s *Store) CreateDonorWithAudit(_ context.Context, donor *model.Donor, history *model.DonorStatusHistory, note *model.Notification) error {
	s.mu.Lock()

	donor.ID = newID()
	history.ID = newID()
	history.DonorID = donor.ID
	note.ID = newID()

	s.donors[donor.ID] = *donor
	s.history[history.ID] = *history
	s.notes[note.ID] = *note

	s.mu.Unlock()
	s.notifyWatchers()
	return nil
}

func (s *Store) GetDonor(_ context.Context, id string) (*model.Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.donors[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &d, nil
}

func (s *Store) FindDonorByDonationNumber(_ context.Context, donationNumber string, filter *scope.Filter) (*model.Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.donors {
		if d.DonationNumber == donationNumber && matchesDonor(d, filter) {
			return &d, nil
		}
	}
	return nil, model.ErrNotFound
}

// donorsLocked returns the scoped donor list, newest first. Caller holds mu.
func (s *Store) donorsLocked(filter *scope.Filter) []model.Donor {
	var donors []model.Donor
	for _, d := range s.donors {
		if matchesDonor(d, filter) {
			donors = append(donors, d)
		}
	}
	sort.Slice(donors, func(i, j int) bool { return donors[i].CreatedAt > donors[j].CreatedAt })
	return donors
}

func (s *Store) ListDonors(_ context.Context, filter *scope.Filter) ([]model.Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.donorsLocked(filter), nil
}

func (s *Store) SearchDonorsByNamePrefix(_ context.Context, prefix string, filter *scope.Filter) ([]model.Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var donors []model.Donor
	for _, d := range s.donors {
		if strings.HasPrefix(d.FullName, prefix) && matchesDonor(d, filter) {
			donors = append(donors, d)
		}
	}
	sort.Slice(donors, func(i, j int) bool { return donors[i].FullName < donors[j].FullName })
	return donors, nil
}

// Bookings.

func (s *Store) GetBooking(_ context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &b, nil
}

func (s *Store) ListBookings(_ context.Context, filter *scope.Filter) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bookings []model.Booking
	for _, b := range s.bookings {
		if matchesBooking(b, filter) {
			bookings = append(bookings, b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].CreatedAt > bookings[j].CreatedAt })
	return bookings, nil
}

// Status history, deferrals, reasons.

func (s *Store) ListStatusHistory(_ context.Context, donorID string) ([]model.DonorStatusHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []model.DonorStatusHistory
	for _, h := range s.history {
		if h.DonorID == donorID {
			entries = append(entries, h)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ChangedAt > entries[j].ChangedAt })
	return entries, nil
}

func (s *Store) ListAllStatusHistory(_ context.Context) ([]model.DonorStatusHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]model.DonorStatusHistory, 0, len(s.history))
	for _, h := range s.history {
		entries = append(entries, h)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ChangedAt > entries[j].ChangedAt })
	return entries, nil
}

func (s *Store) ListDeferrals(_ context.Context) ([]model.DonorDeferral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deferrals := make([]model.DonorDeferral, 0, len(s.deferrals))
	for _, d := range s.deferrals {
		d.Reasons = append([]string(nil), d.Reasons...)
		deferrals = append(deferrals, d)
	}
	sort.Slice(deferrals, func(i, j int) bool { return deferrals[i].CreatedAt > deferrals[j].CreatedAt })
	return deferrals, nil
}

func (s *Store) ListActiveDeferralReasons(_ context.Context) ([]model.DeferralReason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reasons []model.DeferralReason
	for _, r := range s.reasons {
		if r.IsActive {
			reasons = append(reasons, r)
		}
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i].Code < reasons[j].Code })
	return reasons, nil
}

func (s *Store) CreateDeferralReason(_ context.Context, reason *model.DeferralReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reason.ID = newID()
	s.reasons[reason.ID] = *reason
	return nil
}

// Attendance.

func (s *Store) OpenAttendance(_ context.Context, att *model.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	att.ID = newID()
	s.attendance[att.ID] = *att
	return nil
}

func (s *Store) GetOpenAttendance(_ context.Context, employeeID string) (*model.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.attendance {
		if a.EmployeeID == employeeID && a.End == nil {
			return &a, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) CloseAttendance(_ context.Context, id string, end model.GeoStamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attendance[id]
	if !ok {
		return model.ErrNotFound
	}
	a.End = &end
	s.attendance[id] = a
	return nil
}

func (s *Store) ListAttendance(_ context.Context, filter *scope.Filter) ([]model.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessions []model.Attendance
	for _, a := range s.attendance {
		if matchesAttendance(a, filter) {
			sessions = append(sessions, a)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Start.TS > sessions[j].Start.TS })
	return sessions, nil
}

// Education materials.

func (s *Store) ListEducationMaterials(_ context.Context) ([]model.EducationMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	materials := make([]model.EducationMaterial, 0, len(s.education))
	for _, m := range s.education {
		materials = append(materials, m)
	}
	sort.Slice(materials, func(i, j int) bool { return materials[i].CreatedAt > materials[j].CreatedAt })
	return materials, nil
}

func (s *Store) CreateEducationMaterial(_ context.Context, mat *model.EducationMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mat.ID = newID()
	s.education[mat.ID] = *mat
	return nil
}

func (s *Store) UpdateEducationMaterial(_ context.Context, mat *model.EducationMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.education[mat.ID]; !ok {
		return model.ErrNotFound
	}
	s.education[mat.ID] = *mat
	return nil
}

// Notifications.

func (s *Store) CreateNotification(_ context.Context, note *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	note.ID = newID()
	s.notes[note.ID] = *note
	return nil
}

func (s *Store) ListNotifications(_ context.Context) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := make([]model.Notification, 0, len(s.notes))
	for _, n := range s.notes {
		n.ReadBy = append([]string(nil), n.ReadBy...)
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt > notes[j].CreatedAt })
	return notes, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return model.ErrNotFound
	}
	for _, r := range n.ReadBy {
		if r == uid {
			return nil
		}
	}
	n.ReadBy = append(append([]string(nil), n.ReadBy...), uid)
	s.notes[id] = n
	return nil
}
