package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-deposits/internal/config"
	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
	"github.com/iliyamo/spa-booking-deposits/internal/middleware"
	"github.com/iliyamo/spa-booking-deposits/internal/model"
	"github.com/iliyamo/spa-booking-deposits/internal/utils"
)

const testSecret = "handler-secret"

type testApp struct {
	e     *echo.Echo
	flow  *fakeWorkflow
	users *memUsers
	bank  *memBank
	notes *memNotes
}

func newTestApp() *testApp {
	a := &testApp{flow: &fakeWorkflow{}, users: newMemUsers(), bank: &memBank{}, notes: &memNotes{}}
	e := echo.New()
	e.Validator = NewValidator()

	auth := NewAuthHandler(config.Config{JWTSecret: testSecret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4},
		a.users, newMemTokens(), &memProfiles{})
	e.POST("/v1/auth/register", auth.Register)
	e.POST("/v1/auth/login", auth.Login)
	e.POST("/v1/auth/refresh", auth.Refresh)
	e.POST("/v1/auth/logout", auth.Logout)
	e.GET("/v1/deposit-policy", DepositPolicy(a.flow, "IDR"))

	v1 := e.Group("/v1", middleware.JWTAuth(testSecret, false))
	bh := NewBookingHandler(a.flow, a.users)
	v1.POST("/scheduled-bookings", bh.Create, middleware.RequireRole(model.RoleCustomer))
	v1.POST("/scheduled-bookings/:id/deposit", bh.SubmitDeposit, middleware.RequireRole(model.RoleCustomer))
	v1.POST("/scheduled-bookings/:id/no-show", bh.NoShow, middleware.RequireRole(model.RoleCustomer))
	v1.GET("/scheduled-bookings/:id/proof", bh.Proof)
	v1.GET("/my-scheduled-bookings", bh.ListMine)

	dh := NewDashboardHandler(a.flow, nil, &memPayouts{})
	v1.GET("/therapist/bookings", dh.List)
	v1.GET("/therapist/payouts", dh.ListPayouts)
	v1.POST("/therapist/bookings/:id/approve", dh.Approve)
	v1.POST("/therapist/bookings/:id/no-show", dh.NoShow)

	ph := NewProfileHandler(a.bank)
	v1.PUT("/therapist/bank-details", ph.PutBank)
	v1.GET("/therapist/bank-details", ph.GetBank)

	nh := NewNotificationHandler(a.notes)
	v1.GET("/notifications", nh.List)
	v1.POST("/notifications/:id/read", nh.MarkRead)

	a.e = e
	return a
}

func (a *testApp) do(t *testing.T, method, path, role string, uid uint64, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if role != "" {
		tok, err := utils.NewAccessToken(testSecret, uid, role, 5)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{deposit.Validation("bad", nil), http.StatusBadRequest},
		{deposit.Upload("proof too large", deposit.ErrProofTooLarge), http.StatusRequestEntityTooLarge},
		{deposit.Upload("unsupported", deposit.ErrProofType), http.StatusBadRequest},
		{deposit.NotFound("gone"), http.StatusNotFound},
		{deposit.Forbidden("no"), http.StatusForbidden},
		{deposit.Conflict("stale", deposit.ErrStaleVersion), http.StatusConflict},
		{deposit.Service("db", errors.New("down")), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	a := newTestApp()

	rec := a.do(t, http.MethodPost, "/v1/auth/register", "", 0,
		`{"email":"Ayu@Example.com","password":"longenough","display_name":"Ayu","role":"therapist"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	var reg authResp
	decode(t, rec, &reg)
	if reg.User.Role != model.RoleTherapist || reg.User.Email != "ayu@example.com" {
		t.Errorf("user = %+v", reg.User)
	}

	if rec := a.do(t, http.MethodPost, "/v1/auth/register", "", 0,
		`{"email":"ayu@example.com","password":"longenough","display_name":"Ayu"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: %d", rec.Code)
	}
	if rec := a.do(t, http.MethodPost, "/v1/auth/register", "", 0,
		`{"email":"b@example.com","password":"short","display_name":"B"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("weak password: %d", rec.Code)
	}

	if rec := a.do(t, http.MethodPost, "/v1/auth/login", "", 0,
		`{"email":"ayu@example.com","password":"wrong-password"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login: %d", rec.Code)
	}
	rec = a.do(t, http.MethodPost, "/v1/auth/login", "", 0, `{"email":"ayu@example.com","password":"longenough"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var login authResp
	decode(t, rec, &login)

	body := `{"refresh_token":"` + login.Refresh.Token + `"}`
	if rec := a.do(t, http.MethodPost, "/v1/auth/refresh", "", 0, body); rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body.String())
	}
	if rec := a.do(t, http.MethodPost, "/v1/auth/refresh", "", 0, body); rec.Code != http.StatusUnauthorized {
		t.Errorf("replayed refresh: %d", rec.Code)
	}
	logout := `{"refresh_token":"` + reg.Refresh.Token + `"}`
	if rec := a.do(t, http.MethodPost, "/v1/auth/logout", "", 0, logout); rec.Code != http.StatusNoContent {
		t.Errorf("logout: %d", rec.Code)
	}
	if rec := a.do(t, http.MethodPost, "/v1/auth/logout", "", 0, logout); rec.Code != http.StatusUnauthorized {
		t.Errorf("second logout: %d", rec.Code)
	}
}

func TestCreateScheduledBooking(t *testing.T) {
	a := newTestApp()
	uid, _ := a.users.Create(context.Background(), "c@example.com", "Citra", "longenough", model.RoleCustomer, 4)

	good := `{"therapist_id":3,"service_type":"Balinese massage","duration_min":90,"total_price":500000,
		"scheduled_date":"2030-01-02","scheduled_time":"14:00","location":"Ubud"}`
	rec := a.do(t, http.MethodPost, "/v1/scheduled-bookings", model.RoleCustomer, uid, good)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	if a.flow.create.CustomerID != uid || a.flow.create.CustomerName != "Citra" || a.flow.create.TotalPrice != 500000 {
		t.Errorf("input = %+v", a.flow.create)
	}

	cases := []struct {
		name string
		body string
	}{
		{"missing therapist", `{"service_type":"x","duration_min":60,"total_price":1,"scheduled_date":"2030-01-02","scheduled_time":"14:00","location":"x"}`},
		{"bad date", `{"therapist_id":3,"service_type":"x","duration_min":60,"total_price":1,"scheduled_date":"02/01/2030","scheduled_time":"14:00","location":"x"}`},
		{"bad time", `{"therapist_id":3,"service_type":"x","duration_min":60,"total_price":1,"scheduled_date":"2030-01-02","scheduled_time":"2pm","location":"x"}`},
		{"zero price", `{"therapist_id":3,"service_type":"x","duration_min":60,"total_price":0,"scheduled_date":"2030-01-02","scheduled_time":"14:00","location":"x"}`},
		{"bad provider", `{"therapist_id":3,"provider_type":"spa","service_type":"x","duration_min":60,"total_price":1,"scheduled_date":"2030-01-02","scheduled_time":"14:00","location":"x"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/v1/scheduled-bookings", model.RoleCustomer, uid, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
			}
			var out map[string]string
			decode(t, rec, &out)
			if out["code"] != string(deposit.KindValidation) {
				t.Errorf("code = %q", out["code"])
			}
		})
	}

	if rec := a.do(t, http.MethodPost, "/v1/scheduled-bookings", model.RoleTherapist, 3, good); rec.Code != http.StatusForbidden {
		t.Errorf("therapist create: %d", rec.Code)
	}
	if rec := a.do(t, http.MethodPost, "/v1/scheduled-bookings", "", 0, good); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create: %d", rec.Code)
	}
}

func multipartDeposit(t *testing.T, fields map[string]string, proof []byte, proofType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if proof != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="proof"; filename="receipt.png"`)
		h.Set("Content-Type", proofType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(proof)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestSubmitDepositMultipart(t *testing.T) {
	a := newTestApp()
	tok, _ := utils.NewAccessToken(testSecret, 7, model.RoleCustomer, 5)

	send := func(fields map[string]string, proof []byte) *httptest.ResponseRecorder {
		body, ct := multipartDeposit(t, fields, proof, "image/png")
		req := httptest.NewRequest(http.MethodPost, "/v1/scheduled-bookings/dep-1/deposit", body)
		req.Header.Set(echo.HeaderContentType, ct)
		req.Header.Set("Authorization", "Bearer "+tok.Token)
		rec := httptest.NewRecorder()
		a.e.ServeHTTP(rec, req)
		return rec
	}

	rec := send(map[string]string{"terms_accepted": "true", "payment_method": "bank_transfer", "version": "1"}, []byte("png-bytes"))
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	in := a.flow.submit
	if in.ID != "dep-1" || in.Version != 1 || in.Method != model.MethodBankTransfer || in.ProofName != "receipt.png" ||
		in.ProofType != "image/png" || in.ProofSize != int64(len("png-bytes")) || a.flow.proofBody != "png-bytes" {
		t.Errorf("input = %+v body=%q", in, a.flow.proofBody)
	}
	if in.Actor.ID != 7 || in.Actor.Role != model.RoleCustomer {
		t.Errorf("actor = %+v", in.Actor)
	}

	if rec := send(map[string]string{"terms_accepted": "false"}, []byte("x")); rec.Code != http.StatusBadRequest {
		t.Errorf("terms: %d", rec.Code)
	}
	if rec := send(map[string]string{"terms_accepted": "true", "version": "abc"}, []byte("x")); rec.Code != http.StatusBadRequest {
		t.Errorf("version: %d", rec.Code)
	}
	send(map[string]string{"terms_accepted": "true"}, nil)
	if a.flow.submit.Proof != nil || a.flow.submit.ProofSize != 0 {
		t.Errorf("missing proof forwarded as %+v", a.flow.submit)
	}

	a.flow.err = deposit.Upload("proof too large", deposit.ErrProofTooLarge)
	if rec := send(map[string]string{"terms_accepted": "true"}, []byte("x")); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("too large: %d", rec.Code)
	}
	a.flow.err = deposit.Conflict("booking was modified, reload and retry", deposit.ErrStaleVersion)
	if rec := send(map[string]string{"terms_accepted": "true"}, []byte("x")); rec.Code != http.StatusConflict {
		t.Errorf("stale: %d", rec.Code)
	}
}

func TestDashboardRoutes(t *testing.T) {
	a := newTestApp()

	if rec := a.do(t, http.MethodGet, "/v1/therapist/bookings?status=paid,approved", model.RoleTherapist, 3, ""); rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	if len(a.flow.statuses) != 2 || a.flow.statuses[0] != model.DepositPaid {
		t.Errorf("statuses = %v", a.flow.statuses)
	}
	if rec := a.do(t, http.MethodGet, "/v1/therapist/bookings?status=refunded", model.RoleTherapist, 3, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status: %d", rec.Code)
	}
	if rec := a.do(t, http.MethodGet, "/v1/therapist/bookings", model.RoleCustomer, 7, ""); rec.Code != http.StatusForbidden {
		t.Errorf("customer dashboard: %d", rec.Code)
	}

	rec := a.do(t, http.MethodPost, "/v1/therapist/bookings/dep-1/approve", model.RoleAdmin, 1, `{"version":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", rec.Code, rec.Body.String())
	}
	if a.flow.version != 4 || a.flow.approvedBy.Role != model.RoleAdmin {
		t.Errorf("approve input: version=%d actor=%+v", a.flow.version, a.flow.approvedBy)
	}

	if rec := a.do(t, http.MethodPost, "/v1/therapist/bookings/dep-1/no-show", model.RoleTherapist, 3, `{"reason":"late"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unconfirmed no-show: %d", rec.Code)
	}
	rec = a.do(t, http.MethodPost, "/v1/therapist/bookings/dep-1/no-show", model.RoleTherapist, 3, `{"reason":" late ","confirm":true}`)
	if rec.Code != http.StatusOK || a.flow.noShow.Reason != "late" {
		t.Errorf("no-show: %d %+v", rec.Code, a.flow.noShow)
	}
}

func TestCustomerNoShowReport(t *testing.T) {
	a := newTestApp()
	rec := a.do(t, http.MethodPost, "/v1/scheduled-bookings/dep-1/no-show", model.RoleCustomer, 7, `{"confirm":true,"version":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("customer no-show: %d %s", rec.Code, rec.Body.String())
	}
	if a.flow.noShow.Actor.Role != model.RoleCustomer || a.flow.noShow.Actor.ID != 7 || a.flow.noShow.Version != 2 {
		t.Errorf("no-show input = %+v", a.flow.noShow)
	}
	if rec := a.do(t, http.MethodPost, "/v1/scheduled-bookings/dep-1/no-show", model.RoleTherapist, 3, `{"confirm":true}`); rec.Code != http.StatusForbidden {
		t.Errorf("therapist on customer route: %d", rec.Code)
	}
}

func TestProofDownload(t *testing.T) {
	a := newTestApp()
	cases := []struct {
		name string
		path string
		role string
		uid  uint64
		want int
	}{
		{"owner", "/v1/scheduled-bookings/dep-1/proof", model.RoleCustomer, 7, http.StatusOK},
		{"reviewer", "/v1/scheduled-bookings/dep-1/proof", model.RoleTherapist, 3, http.StatusOK},
		{"stranger", "/v1/scheduled-bookings/dep-1/proof", model.RoleCustomer, 8, http.StatusForbidden},
		{"no proof", "/v1/scheduled-bookings/dep-2/proof", model.RoleAdmin, 1, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := a.do(t, http.MethodGet, tc.path, tc.role, tc.uid, "")
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusOK {
				if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
					t.Errorf("content type = %q", ct)
				}
				if rec.Header().Get("Cache-Control") != "private, no-store" {
					t.Errorf("cache control = %q", rec.Header().Get("Cache-Control"))
				}
			}
		})
	}
}

func TestBankDetails(t *testing.T) {
	a := newTestApp()
	rec := a.do(t, http.MethodPut, "/v1/therapist/bank-details", model.RoleTherapist, 3,
		`{"bank_name":"BCA","account_name":"Made","account_number":"1234567890","swift_code":"cenaidja"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put: %d %s", rec.Code, rec.Body.String())
	}
	if a.bank.saved.AccountNumber != "1234567890" || a.bank.saved.SwiftCode == nil || *a.bank.saved.SwiftCode != "CENAIDJA" {
		t.Errorf("saved = %+v", a.bank.saved)
	}
	if rec := a.do(t, http.MethodPut, "/v1/therapist/bank-details", model.RoleTherapist, 3,
		`{"bank_name":"BCA","account_name":"Made","account_number":"12-34"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad account number: %d", rec.Code)
	}
	if rec := a.do(t, http.MethodGet, "/v1/therapist/bank-details", model.RoleTherapist, 9, ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing profile: %d", rec.Code)
	}
}

func TestNotificationsAddressing(t *testing.T) {
	a := newTestApp()
	cases := []struct {
		role     string
		uid      uint64
		wantType string
		wantID   uint64
	}{
		{model.RoleCustomer, 7, model.RecipientCustomer, 7},
		{model.RoleTherapist, 3, model.RecipientTherapist, 3},
		{model.RoleAdmin, 1, model.RecipientAdmin, 0},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			if rec := a.do(t, http.MethodGet, "/v1/notifications?unread=true", tc.role, tc.uid, ""); rec.Code != http.StatusOK {
				t.Fatalf("list: %d", rec.Code)
			}
			if a.notes.lastType != tc.wantType || a.notes.lastID != tc.wantID {
				t.Errorf("addressed %s/%d", a.notes.lastType, a.notes.lastID)
			}
		})
	}
	if rec := a.do(t, http.MethodPost, "/v1/notifications/1/read", model.RoleCustomer, 7, ""); rec.Code != http.StatusNoContent {
		t.Errorf("mark read: %d", rec.Code)
	}
	if rec := a.do(t, http.MethodPost, "/v1/notifications/2/read", model.RoleCustomer, 7, ""); rec.Code != http.StatusNotFound {
		t.Errorf("mark missing: %d", rec.Code)
	}
}

func TestDepositPolicy(t *testing.T) {
	a := newTestApp()
	rec := a.do(t, http.MethodGet, "/v1/deposit-policy", "", 0, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("policy: %d", rec.Code)
	}
	var out map[string]interface{}
	decode(t, rec, &out)
	if out["deposit_percent"].(float64) != 30 || out["refundable"].(bool) || out["currency"] != "IDR" {
		t.Errorf("policy = %v", out)
	}
}

func TestListPayouts(t *testing.T) {
	a := newTestApp()
	if rec := a.do(t, http.MethodGet, "/v1/therapist/payouts", model.RoleTherapist, 3, ""); rec.Code != http.StatusOK {
		t.Fatalf("therapist: %d", rec.Code)
	}
	if rec := a.do(t, http.MethodGet, "/v1/therapist/payouts", model.RoleAdmin, 1, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("admin without therapist_id: %d", rec.Code)
	}
	if rec := a.do(t, http.MethodGet, "/v1/therapist/payouts?therapist_id=4", model.RoleAdmin, 1, ""); rec.Code != http.StatusOK {
		t.Errorf("admin: %d", rec.Code)
	}
}
