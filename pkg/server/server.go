// Package server exposes the booking-center API over HTTP. Handlers stay
// thin: they bind and validate request shapes, call into pkg/core/services,
// and translate sentinel errors onto the JSON envelope. All row-level
// visibility decisions live in the service layer.
package server

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/auth"
	"github.com/donorlink/plasma-center/pkg/clients/qrclient"
	"github.com/donorlink/plasma-center/pkg/clients/uploadclient"
	"github.com/donorlink/plasma-center/pkg/core/services"
	"github.com/donorlink/plasma-center/pkg/db"
)

// Uploader stores images with an external provider.
type Uploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder string) (*uploadclient.UploadResult, error)
}

// Server wires the API's dependencies.
type Server struct {
	store    db.Store
	verifier auth.Verifier
	signer   *auth.JWT
	qr       *qrclient.Client
	uploads  Uploader
	calendar services.OperatingCalendar
	logger   *zap.Logger
}

// Options carries the dependencies for New. Signer may be nil when logins are
// delegated to Google; Uploads may be nil when no provider is configured.
type Options struct {
	Store    db.Store
	Verifier auth.Verifier
	Signer   *auth.JWT
	Uploads  Uploader
	Calendar services.OperatingCalendar
	Logger   *zap.Logger
}

// New builds a Server.
func New(opts Options) *Server {
	return &Server{
		store:    opts.Store,
		verifier: opts.Verifier,
		signer:   opts.Signer,
		qr:       qrclient.New(),
		uploads:  opts.Uploads,
		calendar: opts.Calendar,
		logger:   opts.Logger,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger), CORSMiddleware())

	api := router.Group("/api")
	api.POST("/login", s.handleLogin)

	authed := api.Group("")
	authed.Use(s.authMiddleware())

	authed.GET("/me", s.handleMe)

	authed.POST("/donors", s.handleRegisterDonor)
	authed.GET("/donors", s.handleListDonors)
	authed.GET("/donors/search", s.handleSearchDonors)
	authed.GET("/donors/stream", s.handleDonorStream)
	authed.GET("/donors/:id", s.handleGetDonor)
	authed.POST("/donors/:id/status", s.handleUpdateDonorStatus)

	authed.POST("/bookings", s.handleCreateBooking)
	authed.GET("/bookings", s.handleListBookings)
	authed.GET("/bookings/:id", s.handleGetBooking)
	authed.GET("/bookings/:id/qr", s.handleBookingQR)
	authed.POST("/scan", s.handleScan)

	authed.POST("/attendance/start", s.handleStartAttendance)
	authed.POST("/attendance/end", s.handleEndAttendance)
	authed.GET("/attendance", s.handleListAttendance)

	authed.GET("/export/:entity", s.requireManager(), s.handleExport)
	authed.POST("/upload", s.handleUpload)

	authed.GET("/deferral-reasons", s.handleListDeferralReasons)
	authed.POST("/deferral-reasons", s.handleCreateDeferralReason)

	authed.GET("/education", s.handleListEducation)
	authed.POST("/education", s.handleCreateEducation)
	authed.PUT("/education/:id", s.handleUpdateEducation)

	authed.GET("/notifications", s.handleListNotifications)
	authed.POST("/notifications/:id/read", s.handleMarkNotificationRead)

	authed.GET("/employees", s.requireManager(), s.handleListEmployees)
	authed.PUT("/employees/:uid", s.requireAdmin(), s.handleUpdateEmployee)
	authed.PUT("/employees/:uid/photo", s.handleUpdateEmployeePhoto)

	return router
}
