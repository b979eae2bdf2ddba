// Package scope holds the role capability gates and the row-level visibility
// filter. Every list, search, and export read path must be built through a
// Scope; nothing else may decide which rows a caller sees.
package scope

import "github.com/donorlink/plasma-center/pkg/core/model"

// Filter is an equality predicate applied to a collection query. A nil
// *Filter means unrestricted.
type Filter struct {
	Field string
	Value string
}

// Scope derives row-level visibility for one authenticated caller.
type Scope struct {
	role model.Role
	uid  string
}

// For builds the scope for a caller. The role must come from the caller's
// verified profile, never from client input.
func For(role model.Role, uid string) Scope {
	return Scope{role: role, uid: uid}
}

// Donors returns the filter for donor queries. AwarenessEmployees see only
// donors they registered; manager-class roles see everything.
func (s Scope) Donors() *Filter {
	if s.role == model.RoleAwarenessEmployee {
		return &Filter{Field: "awarenessEmployeeId", Value: s.uid}
	}
	return nil
}

// Bookings returns the filter for booking queries. AwarenessEmployees see
// only bookings they created.
func (s Scope) Bookings() *Filter {
	if s.role == model.RoleAwarenessEmployee {
		return &Filter{Field: "createdByUid", Value: s.uid}
	}
	return nil
}

// Attendance returns the filter for attendance queries. Non-managers see only
// their own sessions.
func (s Scope) Attendance() *Filter {
	if IsManager(s.role) {
		return nil
	}
	return &Filter{Field: "employeeId", Value: s.uid}
}

// MatchDonor reports whether the scope admits the donor row. Used by the
// in-memory store and anywhere rows are filtered after the fact; must agree
// with Donors().
func (s Scope) MatchDonor(d model.Donor) bool {
	f := s.Donors()
	return f == nil || d.AwarenessEmployeeID == f.Value
}

// MatchBooking reports whether the scope admits the booking row.
func (s Scope) MatchBooking(b model.Booking) bool {
	f := s.Bookings()
	return f == nil || b.CreatedByUID == f.Value
}

// IsAdmin reports whether the role is SystemAdmin.
func IsAdmin(role model.Role) bool {
	return role == model.RoleSystemAdmin
}

// IsManager reports whether the role is manager-class
// (SystemAdmin or BranchManager).
func IsManager(role model.Role) bool {
	return role == model.RoleSystemAdmin || role == model.RoleBranchManager
}

// CanExport reports whether the role may use the export surface at all.
func CanExport(role model.Role) bool {
	return IsManager(role)
}

// CanExportEntity reports whether the role may export the named entity.
// The users entity is restricted to SystemAdmin; everything else follows
// CanExport. Entity name validity is checked by the export service, not here.
func CanExportEntity(role model.Role, entity string) bool {
	if entity == "users" {
		return IsAdmin(role)
	}
	return CanExport(role)
}

// CanChangeDonorStatus reports whether the role may change donor status and
// create deferrals.
func CanChangeDonorStatus(role model.Role) bool {
	return IsManager(role)
}

// CanEditEmployee reports whether the role may edit employee core fields.
func CanEditEmployee(role model.Role) bool {
	return IsAdmin(role)
}

// CanUploadEmployeeDocs reports whether the role may upload employee documents.
func CanUploadEmployeeDocs(role model.Role) bool {
	return IsManager(role)
}

// CanEditPhoto reports whether the caller may change the photo of the
// employee identified by targetUID. Everyone may change their own photo;
// SystemAdmin may change anyone's.
func CanEditPhoto(role model.Role, callerUID, targetUID string) bool {
	return callerUID == targetUID || IsAdmin(role)
}

// CanManageEducation reports whether the role may create or update education
// materials.
func CanManageEducation(role model.Role) bool {
	return IsManager(role)
}
