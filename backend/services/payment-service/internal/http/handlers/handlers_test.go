package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	httpserver "ibanking/backend/services/payment-service/internal/http"
	"ibanking/backend/services/payment-service/internal/http/middleware"
	"ibanking/backend/services/payment-service/internal/models"
	"ibanking/backend/services/payment-service/internal/otp"
	"ibanking/backend/services/payment-service/internal/otpstore"
	"ibanking/backend/services/payment-service/internal/password"
	"ibanking/backend/services/payment-service/internal/repository"
	"ibanking/backend/services/payment-service/internal/service"
)

type recordingSender struct {
	mu    sync.Mutex
	codes []string
}

func (s *recordingSender) SendOTP(ctx context.Context, delivery otp.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = append(s.codes, delivery.Code)
	return nil
}

func (s *recordingSender) lastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return ""
	}
	return s.codes[len(s.codes)-1]
}

type apiFixture struct {
	srv    *httptest.Server
	sender *recordingSender
	token  string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	nowFn := func() time.Time { return now }

	customers := repository.NewMemoryCustomerRepository()
	tuitions := repository.NewMemoryTuitionRepository()
	transactions := repository.NewMemoryTransactionRepository()
	sender := &recordingSender{}

	hasher := password.NewBcryptHasher(4)
	hash, err := hasher.Hash("pass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ctx := context.Background()
	if _, err := customers.Create(ctx, &models.Customer{
		Username:     "payer1",
		FullName:     "Nguyen Van A",
		Email:        "a@example.com",
		PasswordHash: hash,
		Balance:      15_000_000,
	}); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	if _, err := tuitions.Create(ctx, &models.StudentTuition{
		StudentID:   "523H0111",
		StudentName: "Tran Thi B",
		Semester:    service.SemesterAt(now),
		Amount:      12_500_000,
	}); err != nil {
		t.Fatalf("create tuition: %v", err)
	}

	tokens := service.NewTokenService("test-secret", time.Hour)
	authService := service.NewAuthService(customers, hasher, tokens)
	paymentService := service.NewPaymentService(
		customers, tuitions, transactions,
		otpstore.NewMemoryStore(nowFn),
		sender,
		service.PaymentConfig{},
		zap.NewNop(),
		nowFn,
	)

	authRequired := middleware.AuthMiddleware(tokens)
	router := httpserver.NewRouter(httpserver.Routes{
		Login:         NewLoginHandler(authService, paymentService),
		Me:            authRequired(NewMeHandler(authService)),
		TuitionLookup: authRequired(NewTuitionLookupHandler(paymentService)),
		Initiate:      authRequired(NewInitiateHandler(paymentService)),
		ResendOTP:     authRequired(NewResendOTPHandler(paymentService)),
		Confirm:       authRequired(NewConfirmHandler(paymentService)),
		History:       authRequired(NewHistoryHandler(paymentService)),
		Health:        NewHealthHandler(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &apiFixture{srv: srv, sender: sender}
}

func (ft *apiFixture) request(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ft.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ft.token != "" {
		req.Header.Set("Authorization", "Bearer "+ft.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		fields = nil
	}
	return resp, fields
}

func (ft *apiFixture) signIn(t *testing.T) {
	t.Helper()
	resp, fields := ft.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "payer1",
		"password": "pass123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	if err := json.Unmarshal(fields["token"], &ft.token); err != nil || ft.token == "" {
		t.Fatalf("token missing in login payload: %v", err)
	}
}

func stringField(t *testing.T, fields map[string]json.RawMessage, key string) string {
	t.Helper()
	var out string
	if err := json.Unmarshal(fields[key], &out); err != nil {
		t.Fatalf("field %q: %v", key, err)
	}
	return out
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ft := newAPIFixture(t)
	resp, fields := ft.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "payer1",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if msg := stringField(t, fields, "message"); msg == "" {
		t.Fatal("error payload has no message")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ft := newAPIFixture(t)
	resp, _ := ft.request(t, http.MethodGet, "/api/payment/history", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestPaymentFlowOverHTTP(t *testing.T) {
	ft := newAPIFixture(t)
	ft.signIn(t)

	resp, fields := ft.request(t, http.MethodGet, "/api/tuition/lookup?studentId=523H0111", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lookup status = %d", resp.StatusCode)
	}
	if got := stringField(t, fields, "studentName"); got != "Tran Thi B" {
		t.Fatalf("studentName = %q", got)
	}

	resp, fields = ft.request(t, http.MethodPost, "/api/payment/initiate", map[string]string{"studentId": "523H0111"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("initiate status = %d", resp.StatusCode)
	}
	var txnID int64
	if err := json.Unmarshal(fields["transactionId"], &txnID); err != nil {
		t.Fatalf("transactionId: %v", err)
	}
	var ttl int
	if err := json.Unmarshal(fields["ttlSeconds"], &ttl); err != nil || ttl != 120 {
		t.Fatalf("ttlSeconds = %d, %v", ttl, err)
	}

	// A second initiation conflicts and carries the pending id in the message.
	resp, fields = ft.request(t, http.MethodPost, "/api/payment/initiate", map[string]string{"studentId": "523H0111"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("conflict status = %d", resp.StatusCode)
	}
	if msg := stringField(t, fields, "message"); !strings.Contains(msg, "pending payment transaction") || !strings.Contains(msg, "ID:") {
		t.Fatalf("conflict message = %q", msg)
	}

	resp, fields = ft.request(t, http.MethodPost, "/api/payment/confirm", map[string]interface{}{
		"transactionId": txnID,
		"otp":           ft.sender.lastCode(),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm status = %d", resp.StatusCode)
	}
	if msg := stringField(t, fields, "message"); msg != "Payment successful" {
		t.Fatalf("message = %q", msg)
	}

	resp, fields = ft.request(t, http.MethodGet, "/api/auth/me", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d", resp.StatusCode)
	}
	var balance float64
	if err := json.Unmarshal(fields["balance"], &balance); err != nil || balance != 2_500_000 {
		t.Fatalf("balance = %v, %v", balance, err)
	}
}

func TestConfirmWrongCodeOverHTTP(t *testing.T) {
	ft := newAPIFixture(t)
	ft.signIn(t)

	resp, fields := ft.request(t, http.MethodPost, "/api/payment/initiate", map[string]string{"studentId": "523H0111"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("initiate status = %d", resp.StatusCode)
	}
	var txnID int64
	if err := json.Unmarshal(fields["transactionId"], &txnID); err != nil {
		t.Fatalf("transactionId: %v", err)
	}

	resp, fields = ft.request(t, http.MethodPost, "/api/payment/confirm", map[string]interface{}{
		"transactionId": txnID,
		"otp":           "000000",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if msg := stringField(t, fields, "message"); msg != "Invalid OTP" {
		t.Fatalf("message = %q", msg)
	}
}

func TestLoginReportsPendingTransaction(t *testing.T) {
	ft := newAPIFixture(t)
	ft.signIn(t)

	resp, fields := ft.request(t, http.MethodPost, "/api/payment/initiate", map[string]string{"studentId": "523H0111"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("initiate status = %d", resp.StatusCode)
	}
	var txnID int64
	if err := json.Unmarshal(fields["transactionId"], &txnID); err != nil {
		t.Fatalf("transactionId: %v", err)
	}

	resp, fields = ft.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "payer1",
		"password": "pass123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var pending int64
	if err := json.Unmarshal(fields["pendingTransactionId"], &pending); err != nil || pending != txnID {
		t.Fatalf("pendingTransactionId = %d, %v, want %d", pending, err, txnID)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ft := newAPIFixture(t)
	resp, _ := ft.request(t, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
