package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/auth"
	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	store  *memstore.Store
	signer *auth.JWT
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	signer := auth.NewJWT("test-secret", time.Hour)
	srv := New(Options{
		Store:    store,
		Verifier: signer,
		Signer:   signer,
		Logger:   zap.NewNop(),
	})
	return &testEnv{store: store, signer: signer, router: srv.Router()}
}

func (e *testEnv) seedUser(t *testing.T, uid string, role model.Role, active bool) string {
	t.Helper()
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	profile := &model.UserProfile{
		UID:          uid,
		Role:         role,
		FullName:     "Test " + uid,
		EmployeeCode: "EC-" + uid,
		IsActive:     active,
		PasswordHash: hash,
	}
	require.NoError(t, e.store.CreateUserProfile(context.Background(), profile))

	token, err := e.signer.SignAccessToken(uid)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "emp-1", model.RoleAwarenessEmployee, true)

	w := env.do(t, http.MethodPost, "/api/login", "", gin.H{"employeeCode": "EC-emp-1", "password": "hunter2"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string            `json:"token"`
		User  model.UserProfile `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "emp-1", resp.User.UID)

	// The password hash never leaves the server.
	assert.NotContains(t, w.Body.String(), "passwordHash")

	w = env.do(t, http.MethodPost, "/api/login", "", gin.H{"employeeCode": "EC-emp-1", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "emp-1", model.RoleAwarenessEmployee, true)

	// No token.
	w := env.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeMissingToken, errorCode(t, w))

	// Garbage token.
	w = env.do(t, http.MethodGet, "/api/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeInvalidToken, errorCode(t, w))

	// Verified token, but no profile behind the uid.
	orphan, err := env.signer.SignAccessToken("ghost")
	require.NoError(t, err)
	w = env.do(t, http.MethodGet, "/api/me", orphan, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, CodeProfileNotFound, errorCode(t, w))

	// Deactivated profile.
	inactive := env.seedUser(t, "emp-2", model.RoleAwarenessEmployee, false)
	w = env.do(t, http.MethodGet, "/api/me", inactive, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, CodeAccountInactive, errorCode(t, w))
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "emp-1", model.RoleAwarenessEmployee, true)

	w := env.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var profile model.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "emp-1", profile.UID)
	assert.Equal(t, model.RoleAwarenessEmployee, profile.Role)
}

func TestDonorRegistrationAndScope(t *testing.T) {
	env := newTestEnv(t)
	tokenA := env.seedUser(t, "emp-a", model.RoleAwarenessEmployee, true)
	tokenB := env.seedUser(t, "emp-b", model.RoleAwarenessEmployee, true)
	manager := env.seedUser(t, "mgr-1", model.RoleBranchManager, true)

	w := env.do(t, http.MethodPost, "/api/donors", tokenA, gin.H{
		"fullName":       "Omar Said",
		"idCardImageUrl": "https://cdn.example.com/id/omar.jpg",
		"donationNumber": "DN-1042",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate donation number rejected.
	w = env.do(t, http.MethodPost, "/api/donors", tokenB, gin.H{
		"fullName":       "Someone Else",
		"idCardImageUrl": "https://cdn.example.com/id/x.jpg",
		"donationNumber": "DN-1042",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	listLen := func(token string) int {
		w := env.do(t, http.MethodGet, "/api/donors", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var donors []model.Donor
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &donors))
		return len(donors)
	}

	// The registrar and managers see the donor; other awareness employees don't.
	assert.Equal(t, 1, listLen(tokenA))
	assert.Equal(t, 0, listLen(tokenB))
	assert.Equal(t, 1, listLen(manager))
}

func TestBookingFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "emp-a", model.RoleAwarenessEmployee, true)

	w := env.do(t, http.MethodPost, "/api/donors", token, gin.H{
		"fullName":       "Omar Said",
		"idCardImageUrl": "https://cdn.example.com/id/omar.jpg",
		"donationNumber": "DN-1042",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/bookings", token, gin.H{
		"donationNumber": "DN-1042",
		"bookingDate":    "2026-09-01",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var booking model.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))
	assert.GreaterOrEqual(t, booking.BookingNumber, 1)
	assert.LessOrEqual(t, booking.BookingNumber, 500)
	assert.Equal(t, booking.ID, booking.QRPayload.BookingID)

	// The QR ticket renders as a PNG.
	w = env.do(t, http.MethodGet, "/api/bookings/"+booking.ID+"/qr", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())

	// An unknown donation number cannot be booked.
	w = env.do(t, http.MethodPost, "/api/bookings", token, gin.H{
		"donationNumber": "DN-9999",
		"bookingDate":    "2026-09-01",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScan(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "mgr-1", model.RoleBranchManager, true)

	env.do(t, http.MethodPost, "/api/donors", token, gin.H{
		"fullName":       "Omar Said",
		"idCardImageUrl": "u",
		"donationNumber": "DN-1042",
	})
	w := env.do(t, http.MethodPost, "/api/bookings", token, gin.H{
		"donationNumber": "DN-1042",
		"bookingDate":    "2026-09-01",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var booking model.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))

	payload, err := json.Marshal(booking.QRPayload)
	require.NoError(t, err)

	w = env.do(t, http.MethodPost, "/api/scan", token, gin.H{"payload": string(payload)})
	require.Equal(t, http.StatusOK, w.Code)

	// The donor is now arrived.
	w = env.do(t, http.MethodGet, "/api/donors/"+booking.DonorID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Donor model.Donor `json:"donor"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, model.StatusArrived, detail.Donor.Status)

	// Unknown booking reference.
	w = env.do(t, http.MethodPost, "/api/scan", token, gin.H{"payload": `{"bookingId":"b-404"}`})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Unparsable payload.
	w = env.do(t, http.MethodPost, "/api/scan", token, gin.H{"payload": "garbage"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateDonorStatus(t *testing.T) {
	env := newTestEnv(t)
	manager := env.seedUser(t, "mgr-1", model.RoleBranchManager, true)
	employee := env.seedUser(t, "emp-a", model.RoleAwarenessEmployee, true)

	w := env.do(t, http.MethodPost, "/api/donors", manager, gin.H{
		"fullName":       "Omar Said",
		"idCardImageUrl": "u",
		"donationNumber": "DN-1042",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var donor model.Donor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &donor))

	// Awareness employees cannot change status.
	w = env.do(t, http.MethodPost, "/api/donors/"+donor.ID+"/status", employee, gin.H{"status": "arrived"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Deferral without reasons is rejected.
	w = env.do(t, http.MethodPost, "/api/donors/"+donor.ID+"/status", manager, gin.H{"status": "deferred"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Deferral with a reason lands.
	w = env.do(t, http.MethodPost, "/api/donors/"+donor.ID+"/status", manager, gin.H{
		"status":     "deferred",
		"reasons":    []string{"low_hematocrit"},
		"hematocrit": 38.5,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestExportGates(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "adm-1", model.RoleSystemAdmin, true)
	manager := env.seedUser(t, "mgr-1", model.RoleBranchManager, true)
	employee := env.seedUser(t, "emp-a", model.RoleAwarenessEmployee, true)

	// Awareness employees cannot export at all.
	w := env.do(t, http.MethodGet, "/api/export/donors", employee, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Managers can export donors but not users.
	w = env.do(t, http.MethodGet, "/api/export/donors", manager, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/export/users", manager, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admins can export users; the filename follows the entity.
	w = env.do(t, http.MethodGet, "/api/export/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=users.xlsx", w.Header().Get("Content-Disposition"))

	// Unknown entity.
	w = env.do(t, http.MethodGet, "/api/export/counters", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "emp-a", model.RoleAwarenessEmployee, true)

	w := env.do(t, http.MethodPost, "/api/attendance/start", token, gin.H{"lat": 30.0444, "lng": 31.2357})
	require.Equal(t, http.StatusCreated, w.Code)

	// Double start rejected.
	w = env.do(t, http.MethodPost, "/api/attendance/start", token, gin.H{"lat": 30.0, "lng": 31.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/attendance/end", token, gin.H{"lat": 30.05, "lng": 31.24})
	require.Equal(t, http.StatusOK, w.Code)

	var att model.Attendance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &att))
	require.NotNil(t, att.End)

	// End with nothing open rejected.
	w = env.do(t, http.MethodPost, "/api/attendance/end", token, gin.H{"lat": 30.0, "lng": 31.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmployeeRoutes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "adm-1", model.RoleSystemAdmin, true)
	employee := env.seedUser(t, "emp-a", model.RoleAwarenessEmployee, true)

	// Listing employees is manager-only.
	w := env.do(t, http.MethodGet, "/api/employees", employee, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/employees", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Editing core fields is admin-only at the route level.
	w = env.do(t, http.MethodPut, "/api/employees/emp-a", employee, gin.H{
		"role": "BranchManager", "fullName": "X", "employeeCode": "EC-X", "isActive": true,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/employees/emp-a", admin, gin.H{
		"role": "BranchManager", "fullName": "Promoted", "employeeCode": "EC-emp-a", "isActive": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Everyone may change their own photo; not someone else's.
	w = env.do(t, http.MethodPut, "/api/employees/emp-a/photo", employee, gin.H{"photoURL": "https://cdn.example.com/p.jpg"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodPut, "/api/employees/adm-1/photo", employee, gin.H{"photoURL": "u"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestNotificationsFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "emp-a", model.RoleAwarenessEmployee, true)

	// Registering a donor produces a notification.
	w := env.do(t, http.MethodPost, "/api/donors", token, gin.H{
		"fullName":       "Omar Said",
		"idCardImageUrl": "u",
		"donationNumber": "DN-1042",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/notifications", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var views []struct {
		ID   string `json:"id"`
		Read bool   `json:"read"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.False(t, views[0].Read)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/notifications/%s/read", views[0].ID), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/notifications", token, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	assert.True(t, views[0].Read)
}

func TestUploadNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "emp-a", model.RoleAwarenessEmployee, true)

	w := env.do(t, http.MethodPost, "/api/upload", token, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, CodeProviderError, errorCode(t, w))
}

func TestUploadEmployeeDocsGate(t *testing.T) {
	env := newTestEnv(t)
	awareness := env.seedUser(t, "emp-a", model.RoleAwarenessEmployee, true)
	manager := env.seedUser(t, "mgr-1", model.RoleBranchManager, true)

	postForm := func(token, folder string) *httptest.ResponseRecorder {
		form := url.Values{"folder": {folder}}
		req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	// Awareness employees may not write employee documents, nested folders
	// included.
	for _, folder := range []string{"employee_docs", "employee_docs/contracts"} {
		w := postForm(awareness, folder)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, CodeInsufficientPermissions, errorCode(t, w))
	}

	// Other folders stay open to every authenticated role; with no provider
	// configured the request fails past the gate instead.
	w := postForm(awareness, "id_cards")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, CodeProviderError, errorCode(t, w))

	// Manager-class callers pass the gate.
	w = postForm(manager, "employee_docs")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, CodeProviderError, errorCode(t, w))
}
