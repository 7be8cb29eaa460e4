package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ibanking/backend/services/payment-service/internal/http/middleware"
	"ibanking/backend/services/payment-service/internal/service"
)

// NewLoginHandler handles POST /api/auth/login. The response carries the
// profile alongside the token, plus the id of a still-active payment
// transaction so clients can resume its OTP challenge.
func NewLoginHandler(authService *service.AuthService, paymentService *service.PaymentService) http.HandlerFunc {
	type request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	type response struct {
		Token                string  `json:"token"`
		FullName             string  `json:"fullName"`
		Phone                string  `json:"phone"`
		Email                string  `json:"email"`
		Balance              float64 `json:"balance"`
		PendingTransactionID *int64  `json:"pendingTransactionId,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		req.Password = strings.TrimSpace(req.Password)
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		token, customer, err := authService.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "Invalid credentials")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to login")
			return
		}

		resp := response{
			Token:    token,
			FullName: customer.FullName,
			Phone:    customer.Phone,
			Email:    customer.Email,
			Balance:  customer.Balance,
		}
		if pending, err := paymentService.PendingTransaction(r.Context(), customer.ID); err == nil && pending != nil {
			resp.PendingTransactionID = &pending.ID
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// NewMeHandler handles GET /api/auth/me.
func NewMeHandler(authService *service.AuthService) http.HandlerFunc {
	type response struct {
		FullName string  `json:"fullName"`
		Phone    string  `json:"phone"`
		Email    string  `json:"email"`
		Balance  float64 `json:"balance"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		customer, err := authService.Profile(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load profile")
			return
		}

		writeJSON(w, http.StatusOK, response{
			FullName: customer.FullName,
			Phone:    customer.Phone,
			Email:    customer.Email,
			Balance:  customer.Balance,
		})
	}
}
