package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/auth"
	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
	"github.com/donorlink/plasma-center/pkg/core/services"
)

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		EmployeeCode string `json:"employeeCode" binding:"required"`
		Password     string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"employeeCode and password are required", nil)
		return
	}
	if s.signer == nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Password login disabled",
			"This deployment uses Google sign-in", nil)
		return
	}

	token, profile, err := auth.Login(c.Request.Context(), s.store, s.signer, req.EmployeeCode, req.Password)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}

	s.logger.Info("Login", zap.String("uid", profile.UID), zap.String("role", string(profile.Role)))
	c.JSON(http.StatusOK, gin.H{"token": token, "user": profile})
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentProfile(c))
}

func (s *Server) handleRegisterDonor(c *gin.Context) {
	var req struct {
		FullName       string `json:"fullName" binding:"required"`
		IDCardImageURL string `json:"idCardImageUrl" binding:"required"`
		DonationNumber string `json:"donationNumber" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"fullName, idCardImageUrl, and donationNumber are required", nil)
		return
	}

	donor, err := services.RegisterDonor(c.Request.Context(), s.store, s.logger, currentProfile(c), services.RegisterDonorParams{
		FullName:       req.FullName,
		IDCardImageURL: req.IDCardImageURL,
		DonationNumber: req.DonationNumber,
	})
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, donor)
}

func (s *Server) handleListDonors(c *gin.Context) {
	donors, err := services.ListDonors(c.Request.Context(), s.store, currentProfile(c))
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, donors)
}

func (s *Server) handleSearchDonors(c *gin.Context) {
	donors, err := services.SearchDonors(c.Request.Context(), s.store, currentProfile(c), c.Query("q"))
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, donors)
}

func (s *Server) handleGetDonor(c *gin.Context) {
	detail, err := services.GetDonorDetail(c.Request.Context(), s.store, currentProfile(c), c.Param("id"))
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"donor": detail.Donor, "history": detail.History})
}

func (s *Server) handleUpdateDonorStatus(c *gin.Context) {
	var req struct {
		Status      model.DonorStatus `json:"status" binding:"required"`
		Note        string            `json:"note"`
		Reasons     []string          `json:"reasons"`
		Hematocrit  *float64          `json:"hematocrit"`
		Systolic    *float64          `json:"systolic"`
		Temperature *float64          `json:"temperature"`
		Weight      *float64          `json:"weight"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"status is required", nil)
		return
	}

	err := services.UpdateDonorStatus(c.Request.Context(), s.store, s.logger, currentProfile(c), services.UpdateStatusParams{
		DonorID: c.Param("id"),
		Status:  req.Status,
		Note:    req.Note,
		Reasons: req.Reasons,
		Vitals: services.DeferralVitals{
			Hematocrit:  req.Hematocrit,
			Systolic:    req.Systolic,
			Temperature: req.Temperature,
			Weight:      req.Weight,
		},
	})
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCreateBooking(c *gin.Context) {
	var req struct {
		DonationNumber string `json:"donationNumber" binding:"required"`
		BookingDate    string `json:"bookingDate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"donationNumber and bookingDate are required", nil)
		return
	}

	booking, err := services.CreateBooking(c.Request.Context(), s.store, s.calendar, s.logger, currentProfile(c), req.DonationNumber, req.BookingDate)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (s *Server) handleListBookings(c *gin.Context) {
	callerScope := scopeFor(c)
	bookings, err := s.store.ListBookings(c.Request.Context(), callerScope.Bookings())
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (s *Server) handleGetBooking(c *gin.Context) {
	booking, err := s.store.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	if !scopeFor(c).MatchBooking(*booking) {
		writeError(c, s.logger, fmt.Errorf("booking %s: %w", booking.ID, model.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, booking)
}

// handleBookingQR renders the booking's ticket as a PNG.
func (s *Server) handleBookingQR(c *gin.Context) {
	booking, err := s.store.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	if !scopeFor(c).MatchBooking(*booking) {
		writeError(c, s.logger, fmt.Errorf("booking %s: %w", booking.ID, model.ErrNotFound))
		return
	}

	png, err := s.qr.EncodeTicket(booking.QRPayload)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=booking-%d.png", booking.BookingNumber))
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) handleScan(c *gin.Context) {
	var req struct {
		Payload string `json:"payload" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"payload is required", nil)
		return
	}

	payload, err := services.ParseQRPayload([]byte(req.Payload))
	if err != nil {
		writeError(c, s.logger, err)
		return
	}

	result, err := services.ScanArrival(c.Request.Context(), s.store, s.logger, currentProfile(c), payload)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": result.Booking, "donorId": result.DonorID})
}

func (s *Server) handleStartAttendance(c *gin.Context) {
	var req struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"lat and lng are required", nil)
		return
	}

	att, err := services.StartAttendance(c.Request.Context(), s.store, s.logger, currentProfile(c), req.Lat, req.Lng)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, att)
}

func (s *Server) handleEndAttendance(c *gin.Context) {
	var req struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"lat and lng are required", nil)
		return
	}

	att, err := services.EndAttendance(c.Request.Context(), s.store, s.logger, currentProfile(c), req.Lat, req.Lng)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, att)
}

func (s *Server) handleListAttendance(c *gin.Context) {
	sessions, err := services.ListAttendance(c.Request.Context(), s.store, currentProfile(c))
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (s *Server) handleExport(c *gin.Context) {
	data, filename, err := services.ExportXLSX(c.Request.Context(), s.store, s.logger, currentProfile(c), c.Param("entity"))
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (s *Server) handleUpload(c *gin.Context) {
	folder := c.PostForm("folder")
	if isEmployeeDocsFolder(folder) && !scope.CanUploadEmployeeDocs(currentProfile(c).Role) {
		SendError(c, http.StatusForbidden, CodeInsufficientPermissions, "Insufficient permissions",
			"Employee documents can only be uploaded by a SystemAdmin or BranchManager", nil)
		return
	}

	if s.uploads == nil {
		SendError(c, http.StatusBadGateway, CodeProviderError, "Uploads not configured",
			"No upload provider is configured for this deployment", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"a multipart file field is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"could not read the uploaded file", nil)
		return
	}
	defer file.Close()

	result, err := s.uploads.UploadImage(c.Request.Context(), file, folder)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// employeeDocsFolder is the upload destination for employee HR documents,
// which only manager-class roles may write.
const employeeDocsFolder = "employee_docs"

func isEmployeeDocsFolder(folder string) bool {
	return folder == employeeDocsFolder || strings.HasPrefix(folder, employeeDocsFolder+"/")
}

func (s *Server) handleListDeferralReasons(c *gin.Context) {
	reasons, err := services.ListDeferralReasons(c.Request.Context(), s.store)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, reasons)
}

func (s *Server) handleCreateDeferralReason(c *gin.Context) {
	var req struct {
		Code  string `json:"code" binding:"required"`
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"code and title are required", nil)
		return
	}

	reason, err := services.CreateDeferralReason(c.Request.Context(), s.store, s.logger, currentProfile(c), req.Code, req.Title)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, reason)
}

func (s *Server) handleListEducation(c *gin.Context) {
	materials, err := services.ListEducationMaterials(c.Request.Context(), s.store)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, materials)
}

type educationRequest struct {
	Type  model.EducationMaterialType `json:"type" binding:"required"`
	Title string                      `json:"title" binding:"required"`
	Body  string                      `json:"body"`
	URL   string                      `json:"url"`
}

func (r educationRequest) params() services.EducationParams {
	return services.EducationParams{Type: r.Type, Title: r.Title, Body: r.Body, URL: r.URL}
}

func (s *Server) handleCreateEducation(c *gin.Context) {
	var req educationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"type and title are required", nil)
		return
	}

	mat, err := services.CreateEducationMaterial(c.Request.Context(), s.store, s.logger, currentProfile(c), req.params())
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, mat)
}

func (s *Server) handleUpdateEducation(c *gin.Context) {
	var req educationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"type and title are required", nil)
		return
	}

	mat, err := services.UpdateEducationMaterial(c.Request.Context(), s.store, s.logger, currentProfile(c), c.Param("id"), req.params())
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, mat)
}

func (s *Server) handleListNotifications(c *gin.Context) {
	views, err := services.ListNotifications(c.Request.Context(), s.store, currentProfile(c))
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) handleMarkNotificationRead(c *gin.Context) {
	if err := services.MarkNotificationRead(c.Request.Context(), s.store, currentProfile(c), c.Param("id")); err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListEmployees(c *gin.Context) {
	profiles, err := services.ListEmployees(c.Request.Context(), s.store, currentProfile(c))
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (s *Server) handleUpdateEmployee(c *gin.Context) {
	var req struct {
		Role         model.Role `json:"role" binding:"required"`
		FullName     string     `json:"fullName" binding:"required"`
		EmployeeCode string     `json:"employeeCode" binding:"required"`
		BranchID     string     `json:"branchId"`
		IsActive     bool       `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"role, fullName, and employeeCode are required", nil)
		return
	}

	profile, err := services.UpdateEmployee(c.Request.Context(), s.store, s.logger, currentProfile(c), c.Param("uid"), services.EmployeeUpdateParams{
		Role:         req.Role,
		FullName:     req.FullName,
		EmployeeCode: req.EmployeeCode,
		BranchID:     req.BranchID,
		IsActive:     req.IsActive,
	})
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleUpdateEmployeePhoto(c *gin.Context) {
	var req struct {
		PhotoURL string `json:"photoURL" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed",
			"photoURL is required", nil)
		return
	}

	err := services.UpdateEmployeePhoto(c.Request.Context(), s.store, s.logger, currentProfile(c), c.Param("uid"), req.PhotoURL)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
