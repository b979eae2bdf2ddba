package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
)

// Export entity names, as they appear in the export URL and filename.
const (
	EntityDonors        = "donors"
	EntityStatusHistory = "donor_status_history"
	EntityDeferrals     = "donor_deferrals"
	EntityBookings      = "bookings"
	EntityAttendance    = "attendance"
	EntityUsers         = "users"
)

// ExportStore defines the full-table reads behind the export surface.
type ExportStore interface {
	ListDonors(ctx context.Context, filter *scope.Filter) ([]model.Donor, error)
	ListBookings(ctx context.Context, filter *scope.Filter) ([]model.Booking, error)
	ListAllStatusHistory(ctx context.Context) ([]model.DonorStatusHistory, error)
	ListDeferrals(ctx context.Context) ([]model.DonorDeferral, error)
	ListAttendance(ctx context.Context, filter *scope.Filter) ([]model.Attendance, error)
	ListUserProfiles(ctx context.Context) ([]model.UserProfile, error)
}

// ValidExportEntity reports whether entity names an exportable table.
func ValidExportEntity(entity string) bool {
	switch entity {
	case EntityDonors, EntityStatusHistory, EntityDeferrals, EntityBookings, EntityAttendance, EntityUsers:
		return true
	}
	return false
}

// ExportXLSX builds the spreadsheet for one entity. The role gates are
// re-checked here regardless of what the HTTP layer did: export is
// manager-only, and the users entity is SystemAdmin-only. A disallowed
// combination is a rejection, never a filtered result. The returned filename
// is "<entity>.xlsx".
func ExportXLSX(ctx context.Context, store ExportStore, logger *zap.Logger, actor *model.UserProfile, entity string) ([]byte, string, error) {
	if !ValidExportEntity(entity) {
		return nil, "", fmt.Errorf("%w: unknown export entity %q", model.ErrValidation, entity)
	}
	if !scope.CanExport(actor.Role) {
		return nil, "", fmt.Errorf("%w: role %s may not export", model.ErrForbidden, actor.Role)
	}
	if !scope.CanExportEntity(actor.Role, entity) {
		return nil, "", fmt.Errorf("%w: entity %s is SystemAdmin-only", model.ErrForbidden, entity)
	}

	rows, err := exportRows(ctx, store, entity)
	if err != nil {
		return nil, "", fmt.Errorf("export %s: %w", entity, err)
	}

	buf, err := writeWorkbook(entity, rows)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", model.ErrProvider, err.Error())
	}

	logger.Info("Export generated",
		zap.String("entity", entity),
		zap.Int("rows", len(rows)-1),
		zap.String("by", actor.UID))

	return buf, entity + ".xlsx", nil
}

// exportRows flattens one entity into a header row plus data rows.
func exportRows(ctx context.Context, store ExportStore, entity string) ([][]any, error) {
	switch entity {
	case EntityDonors:
		donors, err := store.ListDonors(ctx, nil)
		if err != nil {
			return nil, err
		}
		rows := [][]any{{"id", "fullName", "donationNumber", "status", "awarenessEmployeeId", "awarenessEmployeeName", "awarenessEmployeeCode", "idCardImageUrl", "createdAt", "arrivedAt"}}
		for _, d := range donors {
			rows = append(rows, []any{d.ID, d.FullName, d.DonationNumber, string(d.Status), d.AwarenessEmployeeID, d.AwarenessEmployeeName, d.AwarenessEmployeeCode, d.IDCardImageURL, d.CreatedAt, d.ArrivedAt})
		}
		return rows, nil

	case EntityStatusHistory:
		entries, err := store.ListAllStatusHistory(ctx)
		if err != nil {
			return nil, err
		}
		rows := [][]any{{"id", "donorId", "donationNumber", "status", "changedAt", "changedByUid", "note"}}
		for _, h := range entries {
			rows = append(rows, []any{h.ID, h.DonorID, h.DonationNumber, string(h.Status), h.ChangedAt, h.ChangedByUID, h.Note})
		}
		return rows, nil

	case EntityDeferrals:
		deferrals, err := store.ListDeferrals(ctx)
		if err != nil {
			return nil, err
		}
		rows := [][]any{{"id", "donorId", "donationNumber", "reasons", "hematocrit", "systolic", "temperature", "weight", "createdAt", "createdByUid"}}
		for _, d := range deferrals {
			rows = append(rows, []any{d.ID, d.DonorID, d.DonationNumber, strings.Join(d.Reasons, ", "), floatCell(d.Hematocrit), floatCell(d.Systolic), floatCell(d.Temperature), floatCell(d.Weight), d.CreatedAt, d.CreatedByUID})
		}
		return rows, nil

	case EntityBookings:
		bookings, err := store.ListBookings(ctx, nil)
		if err != nil {
			return nil, err
		}
		rows := [][]any{{"id", "donorId", "donorName", "donationNumber", "bookingDate", "bookingNumber", "createdAt", "createdByUid"}}
		for _, b := range bookings {
			rows = append(rows, []any{b.ID, b.DonorID, b.DonorName, b.DonationNumber, b.BookingDate, b.BookingNumber, b.CreatedAt, b.CreatedByUID})
		}
		return rows, nil

	case EntityAttendance:
		sessions, err := store.ListAttendance(ctx, nil)
		if err != nil {
			return nil, err
		}
		rows := [][]any{{"id", "employeeId", "employeeName", "employeeCode", "startTs", "startLat", "startLng", "endTs", "endLat", "endLng"}}
		for _, a := range sessions {
			row := []any{a.ID, a.EmployeeID, a.EmployeeName, a.EmployeeCode, a.Start.TS, a.Start.Lat, a.Start.Lng}
			if a.End != nil {
				row = append(row, a.End.TS, a.End.Lat, a.End.Lng)
			} else {
				row = append(row, "", "", "")
			}
			rows = append(rows, row)
		}
		return rows, nil

	case EntityUsers:
		// Password hashes stay out of exports.
		profiles, err := store.ListUserProfiles(ctx)
		if err != nil {
			return nil, err
		}
		rows := [][]any{{"uid", "role", "fullName", "employeeCode", "branchId", "isActive", "photoURL"}}
		for _, p := range profiles {
			rows = append(rows, []any{p.UID, string(p.Role), p.FullName, p.EmployeeCode, p.BranchID, strconv.FormatBool(p.IsActive), p.PhotoURL})
		}
		return rows, nil
	}

	return nil, fmt.Errorf("%w: unknown export entity %q", model.ErrValidation, entity)
}

func floatCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

// writeWorkbook renders rows into a single-sheet workbook named after the
// entity (sheet names cap at 31 characters).
func writeWorkbook(entity string, rows [][]any) ([]byte, error) {
	sheet := entity
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
