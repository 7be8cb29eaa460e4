package handlers

import (
	"errors"
	"net/http"
	"strings"

	"ibanking/backend/services/payment-service/internal/service"
)

// NewTuitionLookupHandler handles GET /api/tuition/lookup?studentId=.
func NewTuitionLookupHandler(paymentService *service.PaymentService) http.HandlerFunc {
	type response struct {
		StudentID   string  `json:"studentId"`
		StudentName string  `json:"studentName"`
		Semester    string  `json:"semester"`
		Amount      float64 `json:"amount"`
		Paid        bool    `json:"paid"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		studentID := strings.TrimSpace(r.URL.Query().Get("studentId"))
		if len(studentID) != 8 {
			writeError(w, http.StatusBadRequest, "studentId must be 8 characters")
			return
		}

		tuition, err := paymentService.LookupTuition(r.Context(), studentID)
		if err != nil {
			if errors.Is(err, service.ErrTuitionNotFound) {
				writeError(w, http.StatusNotFound, "Student not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to look up tuition")
			return
		}

		resp := response{
			StudentID:   tuition.StudentID,
			StudentName: tuition.StudentName,
			Semester:    tuition.Semester,
			Amount:      tuition.Amount,
			Paid:        tuition.Paid,
		}
		if tuition.Paid {
			resp.Amount = 0
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
