package model

// Role is an employee role. Roles are disjoint capability sets, not a
// hierarchy; capability checks live in pkg/core/scope.
type Role string

const (
	RoleSystemAdmin       Role = "SystemAdmin"
	RoleBranchManager     Role = "BranchManager"
	RoleAwarenessEmployee Role = "AwarenessEmployee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleBranchManager, RoleAwarenessEmployee:
		return true
	}
	return false
}

// DonorStatus is the current position of a donor in the donation journey.
type DonorStatus string

const (
	StatusRegistered        DonorStatus = "registered"
	StatusArrived           DonorStatus = "arrived"
	StatusDonationCompleted DonorStatus = "donation_completed"
	StatusNotDonated        DonorStatus = "not_donated"
	StatusDeferred          DonorStatus = "deferred"
)

// Valid reports whether s is a known donor status.
func (s DonorStatus) Valid() bool {
	switch s {
	case StatusRegistered, StatusArrived, StatusDonationCompleted, StatusNotDonated, StatusDeferred:
		return true
	}
	return false
}

// UserProfile is an employee record. Profiles are provisioned out-of-band by a
// SystemAdmin (create-employee command); the uid doubles as the document ID.
// PasswordHash never leaves the server: it is excluded from JSON and from
// exports.
type UserProfile struct {
	UID          string `firestore:"uid" json:"uid"`
	Role         Role   `firestore:"role" json:"role"`
	FullName     string `firestore:"fullName" json:"fullName"`
	EmployeeCode string `firestore:"employeeCode" json:"employeeCode"`
	BranchID     string `firestore:"branchId,omitempty" json:"branchId,omitempty"`
	IsActive     bool   `firestore:"isActive" json:"isActive"`
	PhotoURL     string `firestore:"photoURL,omitempty" json:"photoURL,omitempty"`
	PasswordHash string `firestore:"passwordHash,omitempty" json:"-"`
}

// Donor is a registered plasma donor. The awareness-employee fields are a
// denormalized snapshot of the creator taken at registration time.
type Donor struct {
	ID                    string      `firestore:"id" json:"id"`
	FullName              string      `firestore:"fullName" json:"fullName"`
	IDCardImageURL        string      `firestore:"idCardImageUrl" json:"idCardImageUrl"`
	AwarenessEmployeeID   string      `firestore:"awarenessEmployeeId" json:"awarenessEmployeeId"`
	AwarenessEmployeeName string      `firestore:"awarenessEmployeeName" json:"awarenessEmployeeName"`
	AwarenessEmployeeCode string      `firestore:"awarenessEmployeeCode" json:"awarenessEmployeeCode"`
	DonationNumber        string      `firestore:"donationNumber" json:"donationNumber"`
	Status                DonorStatus `firestore:"status" json:"status"`
	CreatedAt             int64       `firestore:"createdAt" json:"createdAt"`
	ArrivedAt             int64       `firestore:"arrivedAt,omitempty" json:"arrivedAt,omitempty"`
}

// DonorStatusHistory is one append-only entry in a donor's status timeline.
// Entries are never mutated or deleted; ordered by ChangedAt descending they
// are the source of truth for when a status change happened.
type DonorStatusHistory struct {
	ID             string      `firestore:"id" json:"id"`
	DonorID        string      `firestore:"donorId" json:"donorId"`
	DonationNumber string      `firestore:"donationNumber" json:"donationNumber"`
	Status         DonorStatus `firestore:"status" json:"status"`
	ChangedAt      int64       `firestore:"changedAt" json:"changedAt"`
	ChangedByUID   string      `firestore:"changedByUid" json:"changedByUid"`
	Note           string      `firestore:"note,omitempty" json:"note,omitempty"`
}

// DonorDeferral records why a donor was deferred on a visit, with optional
// vitals taken at the time. Created only alongside a transition to
// StatusDeferred; must carry at least one reason.
type DonorDeferral struct {
	ID             string   `firestore:"id" json:"id"`
	DonorID        string   `firestore:"donorId" json:"donorId"`
	DonationNumber string   `firestore:"donationNumber" json:"donationNumber"`
	Reasons        []string `firestore:"reasons" json:"reasons"`
	Hematocrit     *float64 `firestore:"hematocrit,omitempty" json:"hematocrit,omitempty"`
	Systolic       *float64 `firestore:"systolic,omitempty" json:"systolic,omitempty"`
	Temperature    *float64 `firestore:"temperature,omitempty" json:"temperature,omitempty"`
	Weight         *float64 `firestore:"weight,omitempty" json:"weight,omitempty"`
	CreatedAt      int64    `firestore:"createdAt" json:"createdAt"`
	CreatedByUID   string   `firestore:"createdByUid" json:"createdByUid"`
}

// DeferralReason is one entry in the curated list of deferral reasons.
type DeferralReason struct {
	ID       string `firestore:"id" json:"id"`
	Code     string `firestore:"code" json:"code"`
	Title    string `firestore:"title" json:"title"`
	IsActive bool   `firestore:"isActive" json:"isActive"`
}

// QRPayload is the self-describing payload encoded into a booking's QR image.
type QRPayload struct {
	BookingID      string `firestore:"bookingId" json:"bookingId"`
	DonationNumber string `firestore:"donationNumber" json:"donationNumber"`
	BookingNumber  int    `firestore:"bookingNumber" json:"bookingNumber"`
	BookingDate    string `firestore:"bookingDate" json:"bookingDate"`
}

// Booking is one donor's numbered ticket for one calendar date. Bookings are
// created exactly once by the allocator and never updated or deleted. Donor
// name and donation number are denormalized snapshots taken at creation.
type Booking struct {
	ID             string    `firestore:"id" json:"id"`
	DonorID        string    `firestore:"donorId" json:"donorId"`
	DonationNumber string    `firestore:"donationNumber" json:"donationNumber"`
	DonorName      string    `firestore:"donorName" json:"donorName"`
	BookingDate    string    `firestore:"bookingDate" json:"bookingDate"`
	BookingNumber  int       `firestore:"bookingNumber" json:"bookingNumber"`
	QRPayload      QRPayload `firestore:"qrPayload" json:"qrPayload"`
	CreatedAt      int64     `firestore:"createdAt" json:"createdAt"`
	CreatedByUID   string    `firestore:"createdByUid" json:"createdByUid"`
}

// DailyCounter tracks the booking numbers consumed for one calendar date.
// The document ID is "bookings_" + the YYYY-MM-DD date. It is created lazily
// on the first booking of a date and mutated only inside the allocation
// transaction.
type DailyCounter struct {
	UsedNumbers []int `firestore:"usedNumbers" json:"usedNumbers"`
	UpdatedAt   int64 `firestore:"updatedAt" json:"updatedAt"`
}

// GeoStamp is a timestamped geolocation reading.
type GeoStamp struct {
	TS  int64   `firestore:"ts" json:"ts"`
	Lat float64 `firestore:"lat" json:"lat"`
	Lng float64 `firestore:"lng" json:"lng"`
}

// Attendance is one employee work session with geolocated start and end.
// End is nil while the session is open; an employee has at most one open
// session at a time.
type Attendance struct {
	ID           string    `firestore:"id" json:"id"`
	EmployeeID   string    `firestore:"employeeId" json:"employeeId"`
	EmployeeName string    `firestore:"employeeName" json:"employeeName"`
	EmployeeCode string    `firestore:"employeeCode" json:"employeeCode"`
	Start        GeoStamp  `firestore:"start" json:"start"`
	// End is stored as an explicit null while the session is open so open
	// sessions stay queryable by equality with null.
	End *GeoStamp `firestore:"end" json:"end,omitempty"`
}

// EducationMaterialType classifies education content.
type EducationMaterialType string

const (
	MaterialArticle EducationMaterialType = "article"
	MaterialFAQ     EducationMaterialType = "faq"
	MaterialVideo   EducationMaterialType = "video"
	MaterialImage   EducationMaterialType = "image"
)

// Valid reports whether t is a known material type.
func (t EducationMaterialType) Valid() bool {
	switch t {
	case MaterialArticle, MaterialFAQ, MaterialVideo, MaterialImage:
		return true
	}
	return false
}

// EducationMaterial is a piece of donor-education content.
type EducationMaterial struct {
	ID        string                `firestore:"id" json:"id"`
	Type      EducationMaterialType `firestore:"type" json:"type"`
	Title     string                `firestore:"title" json:"title"`
	Body      string                `firestore:"body,omitempty" json:"body,omitempty"`
	URL       string                `firestore:"url,omitempty" json:"url,omitempty"`
	CreatedAt int64                 `firestore:"createdAt" json:"createdAt"`
	UpdatedAt int64                 `firestore:"updatedAt" json:"updatedAt"`
}

// NotificationType classifies notifications.
type NotificationType string

const (
	NotificationDonorRegistered NotificationType = "donor_registered"
	NotificationSystem          NotificationType = "system"
)

// Notification is a broadcast message with per-user read tracking.
type Notification struct {
	ID        string           `firestore:"id" json:"id"`
	Type      NotificationType `firestore:"type" json:"type"`
	Message   string           `firestore:"message" json:"message"`
	CreatedAt int64            `firestore:"createdAt" json:"createdAt"`
	ReadBy    []string         `firestore:"readBy,omitempty" json:"readBy,omitempty"`
}
