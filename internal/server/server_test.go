package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/farellandr/homestay/config"
	"github.com/farellandr/homestay/internal/logger"
	"github.com/farellandr/homestay/internal/notify"
	"github.com/farellandr/homestay/internal/server"
	"github.com/farellandr/homestay/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type api struct {
	t        *testing.T
	router   *gin.Engine
	notifier *notify.Recorder
	qrDir    string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := testutil.NewDB(t)
	qrDir := t.TempDir()

	cfg := &config.Config{
		JWT:     config.JWT{Secret: "test-secret", TTL: time.Hour},
		Booking: config.Booking{CredentialKind: "otp", OTPTTL: 15 * time.Minute, TokenTTL: 24 * time.Hour, MaxNights: 365, MaxTotalPrice: 99_999_999_999},
		Payment: config.Payment{BankName: "Vietcombank", AccountNumber: "0123456789", AccountName: "HOMESTAY CO", ReferencePrefix: "HS", ReferenceSecret: "ref-secret"},
		QR:      config.QR{Dir: qrDir, PublicPath: "/uploads/qrcodes", Size: 128},
		Admin:   config.Admin{Email: "payments@homestay.local", SeedPassword: "admin-pass"},
	}
	require.NoError(t, config.SeedAdmin(db, cfg.Admin))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	recorder := &notify.Recorder{}
	h := server.NewHandler(cfg, db, recorder, logger.Discard())
	return &api{
		t:        t,
		notifier: recorder,
		qrDir:    qrDir,
		router: server.NewRouter(h, server.RouterConfig{
			JWTSecret:       cfg.JWT.Secret,
			Redis:           client,
			UploadsDir:      qrDir,
			UploadsURL:      cfg.QR.PublicPath,
			RateLimit:       3,
			RateLimitWindow: time.Minute,
		}),
	}
}

func (a *api) do(method, path, token string, body interface{}, headers ...string) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (a *api) login(email, password string) string {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/v1/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, code, body)
	return body["token"].(string)
}

func TestBookingFlowOverHTTP(t *testing.T) {
	a := newAPI(t)
	checkIn := time.Now().UTC().AddDate(0, 0, 10).Format("2006-01-02")
	checkOut := time.Now().UTC().AddDate(0, 0, 12).Format("2006-01-02")
	overlapIn := time.Now().UTC().AddDate(0, 0, 11).Format("2006-01-02")
	overlapOut := time.Now().UTC().AddDate(0, 0, 13).Format("2006-01-02")

	adminToken := a.login("payments@homestay.local", "admin-pass")

	code, body := a.do(http.MethodPost, "/v1/register", "", map[string]string{
		"email": "guest@example.com", "password": "guest-pass", "first_name": "Lan",
	})
	require.Equal(t, http.StatusCreated, code, body)
	guestToken := a.login("guest@example.com", "guest-pass")

	code, _ = a.do(http.MethodPost, "/v1/admin/homestays", guestToken, map[string]interface{}{})
	assert.Equal(t, http.StatusForbidden, code)

	code, homestay := a.do(http.MethodPost, "/v1/admin/homestays", adminToken, map[string]interface{}{
		"name": "Sunrise", "address": "12 Tran Phu", "location": "Da Lat", "price": 1_000_000, "capacity": 4,
	})
	require.Equal(t, http.StatusCreated, code, homestay)
	homestayID := homestay["id"].(string)

	code, body = a.do(http.MethodPost, "/v1/bookings", guestToken, map[string]interface{}{
		"homestay_id": homestayID, "check_in_date": checkIn, "check_out_date": checkOut, "guest_count": 2,
	})
	require.Equal(t, http.StatusCreated, code, body)
	booking := body["booking"].(map[string]interface{})
	bookingID := booking["id"].(string)
	assert.EqualValues(t, 2_000_000, booking["total_price"])
	assert.Equal(t, "pending", booking["status"])
	assert.NotContains(t, booking, "credential_value")

	code, body = a.do(http.MethodPost, "/v1/bookings", guestToken, map[string]interface{}{
		"homestay_id": homestayID, "check_in_date": overlapIn, "check_out_date": overlapOut, "guest_count": 2,
	})
	assert.Equal(t, http.StatusConflict, code, body)
	assert.Equal(t, "Conflict", body["error"])

	code, body = a.do(http.MethodGet, "/v1/homestays/"+homestayID+"/availability?check_in="+overlapIn+"&check_out="+overlapOut, "", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, false, body["available"])

	code, _ = a.do(http.MethodPost, "/v1/bookings/verify", "", map[string]string{"booking_id": bookingID, "otp": "12345"})
	assert.Equal(t, http.StatusBadRequest, code, "otp must be six digits")

	created, ok := a.notifier.Last(notify.KindBookingCreated)
	require.True(t, ok)
	otp := created.Payload["credential"].(string)

	code, body = a.do(http.MethodPost, "/v1/bookings/verify", "", map[string]string{"booking_id": bookingID, "otp": otp})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "confirmed", body["booking"].(map[string]interface{})["status"])

	code, _ = a.do(http.MethodPost, "/v1/bookings/verify", "", map[string]string{"booking_id": bookingID, "otp": otp})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = a.do(http.MethodPost, "/v1/bookings/"+bookingID+"/payment", guestToken, nil, "Idempotency-Key", "init-1")
	require.Equal(t, http.StatusOK, code, body)
	payment := body["payment"].(map[string]interface{})
	assert.Equal(t, "pending_verification", payment["payment_status"])
	qrPath := payment["payment_qr_code"].(string)
	assert.True(t, strings.HasPrefix(qrPath, "/uploads/qrcodes/"))
	_, err := os.Stat(filepath.Join(a.qrDir, filepath.Base(qrPath)))
	assert.NoError(t, err, "qr image written to disk")

	code, replay := a.do(http.MethodPost, "/v1/bookings/"+bookingID+"/payment", guestToken, nil, "Idempotency-Key", "init-1")
	assert.Equal(t, http.StatusOK, code, "retried request replays the stored response")
	assert.Equal(t, body, replay)

	code, body = a.do(http.MethodPost, "/v1/bookings/"+bookingID+"/payment/confirm", guestToken, map[string]string{"payment_method": "bank_transfer"})
	require.Equal(t, http.StatusOK, code, body)

	code, body = a.do(http.MethodPost, "/v1/bookings/"+bookingID+"/payment/confirm", guestToken, nil)
	assert.Equal(t, http.StatusConflict, code, body)

	code, body = a.do(http.MethodGet, "/v1/admin/payments/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["total"])

	code, _ = a.do(http.MethodPost, "/v1/admin/bookings/"+bookingID+"/payment/verify", adminToken, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, code, "approved is required")

	code, body = a.do(http.MethodPost, "/v1/admin/bookings/"+bookingID+"/payment/verify", adminToken, map[string]interface{}{"approved": true})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "paid", body["payment_status"])
	assert.Equal(t, "rented", body["status"])

	code, body = a.do(http.MethodPost, "/v1/admin/bookings/"+bookingID+"/payment/verify", adminToken, map[string]interface{}{"approved": true})
	assert.Equal(t, http.StatusConflict, code, body)

	code, body = a.do(http.MethodGet, "/v1/bookings", guestToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["total"])
}

func TestRequestValidation(t *testing.T) {
	a := newAPI(t)
	adminToken := a.login("payments@homestay.local", "admin-pass")

	code, _ := a.do(http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := a.do(http.MethodGet, "/v1/me", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "payments@homestay.local", body["email"])

	code, _ = a.do(http.MethodPost, "/v1/bookings", adminToken, map[string]interface{}{
		"homestay_id": "3f0e3c43-6a34-4b4c-8a38-1f2f3e4d5c6b", "check_in_date": "01/06/2025", "check_out_date": "2025-06-03", "guest_count": 1,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = a.do(http.MethodPost, "/v1/bookings", adminToken, map[string]interface{}{
		"homestay_id": "3f0e3c43-6a34-4b4c-8a38-1f2f3e4d5c6b", "check_in_date": "2099-06-01", "check_out_date": "2099-06-03", "guest_count": 1,
	})
	assert.Equal(t, http.StatusNotFound, code, body)

	code, _ = a.do(http.MethodGet, "/v1/bookings/not-a-uuid", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodPatch, "/v1/admin/bookings/3f0e3c43-6a34-4b4c-8a38-1f2f3e4d5c6b/status", adminToken, map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "homestay_http_request_duration_seconds")
}

func TestReviewsOverHTTP(t *testing.T) {
	a := newAPI(t)
	adminToken := a.login("payments@homestay.local", "admin-pass")

	_, homestay := a.do(http.MethodPost, "/v1/admin/homestays", adminToken, map[string]interface{}{
		"name": "Sunrise", "address": "12 Tran Phu", "price": 500_000, "capacity": 2,
	})
	homestayID := homestay["id"].(string)

	code, _ := a.do(http.MethodPost, "/v1/homestays/"+homestayID+"/reviews", adminToken, map[string]interface{}{"rating": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, review := a.do(http.MethodPost, "/v1/homestays/"+homestayID+"/reviews", adminToken, map[string]interface{}{"rating": 5, "comment": "Lovely"})
	require.Equal(t, http.StatusCreated, code, review)

	code, _ = a.do(http.MethodPost, "/v1/homestays/"+homestayID+"/reviews", adminToken, map[string]interface{}{"rating": 4})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.do(http.MethodPost, "/v1/register", "", map[string]string{
		"email": "guest@example.com", "password": "guest-pass", "first_name": "Lan",
	})
	require.Equal(t, http.StatusCreated, code)
	guestToken := a.login("guest@example.com", "guest-pass")

	code, _ = a.do(http.MethodPost, "/v1/reviews/"+review["id"].(string)+"/response", guestToken, map[string]string{"response": "Not my listing"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body := a.do(http.MethodPost, "/v1/reviews/"+review["id"].(string)+"/response", adminToken, map[string]string{"response": "Thank you"})
	require.Equal(t, http.StatusOK, code, body)

	code, body = a.do(http.MethodGet, "/v1/admin/homestays/mine", adminToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["total"])

	code, body = a.do(http.MethodGet, "/v1/homestays/"+homestayID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 5, body["average_rating"])
	assert.EqualValues(t, 1, body["total"])
}

func TestAccountRecoveryOverHTTP(t *testing.T) {
	a := newAPI(t)

	code, body := a.do(http.MethodPost, "/v1/register", "", map[string]string{
		"email": "mai@example.com", "password": "first-pass", "first_name": "Mai",
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, false, body["user"].(map[string]interface{})["email_verified"])

	sent, ok := a.notifier.Last(notify.KindEmailVerification)
	require.True(t, ok)
	otp := sent.Payload["otp"].(string)

	code, _ = a.do(http.MethodPost, "/v1/verify-email", "", map[string]string{"email": "mai@example.com", "otp": "12345"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = a.do(http.MethodPost, "/v1/verify-email", "", map[string]string{"email": "mai@example.com", "otp": otp})
	require.Equal(t, http.StatusOK, code, body)

	token := a.login("mai@example.com", "first-pass")
	code, body = a.do(http.MethodGet, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["email_verified"])

	code, unknown := a.do(http.MethodPost, "/v1/forgot-password", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, code)
	code, known := a.do(http.MethodPost, "/v1/forgot-password", "", map[string]string{"email": "mai@example.com"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, unknown["message"], known["message"], "response does not reveal accounts")

	sent, ok = a.notifier.Last(notify.KindPasswordReset)
	require.True(t, ok)
	reset := sent.Payload["token"].(string)

	code, _ = a.do(http.MethodPost, "/v1/reset-password", "", map[string]string{
		"token": reset, "password": "second-pass", "confirm_password": "typo-pass",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = a.do(http.MethodPost, "/v1/reset-password", "", map[string]string{
		"token": reset, "password": "second-pass", "confirm_password": "second-pass",
	})
	require.Equal(t, http.StatusOK, code, body)

	code, _ = a.do(http.MethodPost, "/v1/login", "", map[string]string{"email": "mai@example.com", "password": "first-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)
	a.login("mai@example.com", "second-pass")

	code, _ = a.do(http.MethodPost, "/v1/forgot-password", "", map[string]string{"email": "mai@example.com"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodPost, "/v1/forgot-password", "", map[string]string{"email": "mai@example.com"})
	assert.Equal(t, http.StatusTooManyRequests, code, "recovery routes are rate limited per client")
}
