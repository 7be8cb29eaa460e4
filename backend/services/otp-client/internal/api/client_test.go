package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestLoginDecodesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["username"] != "payer1" {
			t.Errorf("username = %q", body["username"])
		}
		id := int64(12)
		json.NewEncoder(w).Encode(LoginResult{
			Token:                "token-1",
			FullName:             "Nguyen Van A",
			Balance:              15_000_000,
			PendingTransactionID: &id,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	res, err := client.Login(context.Background(), "payer1", "pass123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token != "token-1" || res.Balance != 15_000_000 {
		t.Fatalf("result = %+v", res)
	}
	if res.PendingTransactionID == nil || *res.PendingTransactionID != 12 {
		t.Fatalf("pending id = %v, want 12", res.PendingTransactionID)
	}
}

func TestAuthenticatedCallsCarryBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("authorization = %q", got)
		}
		json.NewEncoder(w).Encode(Profile{FullName: "Nguyen Van A"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	client.SetToken("token-1")
	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("me: %v", err)
	}
}

func TestErrorResponsesBecomeAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "There is already a pending payment transaction for this student. Please wait for it to complete or expire. ID: 42",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	_, err := client.Initiate(context.Background(), "523H0111")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %T %v, want *APIError", err, err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Fatalf("status = %d", apiErr.Status)
	}
	id, ok := apiErr.PendingTransactionID()
	if !ok || id != 42 {
		t.Fatalf("pending id = %d %v, want 42", id, ok)
	}
}

func TestPendingTransactionIDRequiresConflict(t *testing.T) {
	err := &APIError{Status: http.StatusBadRequest, Message: "ID: 42"}
	if _, ok := err.PendingTransactionID(); ok {
		t.Fatal("non-conflict status yielded a pending id")
	}
	err = &APIError{Status: http.StatusConflict, Message: "no id here"}
	if _, ok := err.PendingTransactionID(); ok {
		t.Fatal("message without an id yielded one")
	}
}
