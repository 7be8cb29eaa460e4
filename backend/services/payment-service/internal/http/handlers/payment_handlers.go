package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"ibanking/backend/services/payment-service/internal/http/middleware"
	"ibanking/backend/services/payment-service/internal/service"
)

// NewInitiateHandler handles POST /api/payment/initiate.
func NewInitiateHandler(paymentService *service.PaymentService) http.HandlerFunc {
	type request struct {
		StudentID string `json:"studentId"`
	}
	type response struct {
		TransactionID int64 `json:"transactionId"`
		TTLSeconds    int   `json:"ttlSeconds"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(strings.TrimSpace(req.StudentID)) != 8 {
			writeError(w, http.StatusBadRequest, "studentId must be 8 characters")
			return
		}

		txn, ttl, err := paymentService.Initiate(r.Context(), userID, req.StudentID)
		if err != nil {
			var pending *service.PendingTransactionError
			switch {
			case errors.As(err, &pending):
				writeError(w, http.StatusConflict, pending.Error())
			case errors.Is(err, service.ErrTuitionNotFound):
				writeError(w, http.StatusNotFound, "No unpaid tuition for current semester")
			case errors.Is(err, service.ErrInsufficientBalance):
				writeError(w, http.StatusBadRequest, "Insufficient balance")
			default:
				writeError(w, http.StatusInternalServerError, "failed to initiate transaction")
			}
			return
		}

		writeJSON(w, http.StatusOK, response{TransactionID: txn.ID, TTLSeconds: ttl})
	}
}

// NewResendOTPHandler handles POST /api/payment/resend-otp.
func NewResendOTPHandler(paymentService *service.PaymentService) http.HandlerFunc {
	type request struct {
		TransactionID int64 `json:"transactionId"`
	}
	type response struct {
		TTLSeconds int `json:"ttlSeconds"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		ttl, err := paymentService.Resend(r.Context(), userID, req.TransactionID)
		if err != nil {
			var tooSoon *service.ResendTooSoonError
			switch {
			case errors.As(err, &tooSoon):
				writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
					"message":           "Please wait before resending OTP",
					"retryAfterSeconds": tooSoon.RetryAfterSeconds,
				})
			case errors.Is(err, service.ErrResendLimit):
				writeError(w, http.StatusTooManyRequests, "Exceeded maximum OTP resends. Transaction failed.")
			case errors.Is(err, service.ErrInvalidTransaction):
				writeError(w, http.StatusBadRequest, "Invalid transaction status for resend")
			case errors.Is(err, service.ErrNotTransactionOwner):
				writeError(w, http.StatusForbidden, "Unauthorized")
			default:
				writeError(w, http.StatusInternalServerError, "failed to resend OTP")
			}
			return
		}

		writeJSON(w, http.StatusOK, response{TTLSeconds: ttl})
	}
}

// NewConfirmHandler handles POST /api/payment/confirm.
func NewConfirmHandler(paymentService *service.PaymentService) http.HandlerFunc {
	type request struct {
		TransactionID int64  `json:"transactionId"`
		OTP           string `json:"otp"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		result, err := paymentService.Confirm(r.Context(), userID, req.TransactionID, strings.TrimSpace(req.OTP))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidTransaction):
				writeError(w, http.StatusBadRequest, "Invalid transaction")
			case errors.Is(err, service.ErrNotTransactionOwner):
				writeError(w, http.StatusForbidden, "Unauthorized")
			case errors.Is(err, service.ErrOTPExpired):
				writeError(w, http.StatusBadRequest, "OTP expired. Transaction failed.")
			case errors.Is(err, service.ErrTooManyAttempts):
				writeError(w, http.StatusTooManyRequests, "Too many attempts")
			case errors.Is(err, service.ErrInvalidOTP):
				writeError(w, http.StatusUnauthorized, "Invalid OTP")
			case errors.Is(err, service.ErrInsufficientBalance):
				writeError(w, http.StatusBadRequest, "Insufficient balance")
			case errors.Is(err, service.ErrTuitionNotFound):
				writeError(w, http.StatusBadRequest, "Tuition not found or already paid")
			default:
				writeError(w, http.StatusInternalServerError, "Payment processing failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":       "Payment successful",
			"transactionId": result.TransactionID,
			"studentId":     result.StudentID,
			"studentName":   result.StudentName,
			"semester":      result.Semester,
			"amount":        result.Amount,
			"payerName":     result.PayerName,
			"completedAt":   result.CompletedAt.Format(time.RFC3339),
		})
	}
}

type historyEntry struct {
	ID          int64   `json:"id"`
	Status      string  `json:"status"`
	StudentID   string  `json:"studentId"`
	Semester    string  `json:"semester"`
	Amount      float64 `json:"amount"`
	CreatedAt   string  `json:"createdAt"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

// NewHistoryHandler handles GET /api/payment/history. The same payload feeds
// both the history table and client-side status reconciliation.
func NewHistoryHandler(paymentService *service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		transactions, err := paymentService.History(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load history")
			return
		}

		out := make([]historyEntry, 0, len(transactions))
		for _, txn := range transactions {
			e := historyEntry{
				ID:        txn.ID,
				Status:    string(txn.Status),
				StudentID: txn.StudentID,
				Semester:  txn.Semester,
				Amount:    txn.Amount,
				CreatedAt: txn.CreatedAt.Format(time.RFC3339),
			}
			if txn.CompletedAt != nil {
				completed := txn.CompletedAt.Format(time.RFC3339)
				e.CompletedAt = &completed
			}
			out = append(out, e)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// NewHealthHandler returns GET /health handler.
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
