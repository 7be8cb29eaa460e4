package models

import "time"

// TransactionStatus enumerates payment transaction states.
type TransactionStatus string

const (
	StatusPendingOTP TransactionStatus = "PENDING_OTP"
	StatusProcessing TransactionStatus = "PROCESSING"
	StatusCompleted  TransactionStatus = "COMPLETED"
	StatusFailed     TransactionStatus = "FAILED"
	StatusExpired    TransactionStatus = "EXPIRED"
)

// Active reports whether OTP interaction may still continue for this status.
func (s TransactionStatus) Active() bool {
	return s == StatusPendingOTP || s == StatusProcessing
}

// Customer is a bank customer who pays tuition from an account balance.
type Customer struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
	Phone        string
	Email        string
	Balance      float64
}

// StudentTuition is a tuition charge for one student and semester.
type StudentTuition struct {
	ID          int64
	StudentID   string
	StudentName string
	Semester    string
	Amount      float64
	Paid        bool
	PaidDate    *time.Time
}

// PaymentTransaction is one tuition payment attempt gated by an OTP challenge.
// CreatedAt marks when the current OTP challenge was issued and is reset on resend.
type PaymentTransaction struct {
	ID              int64
	PayerCustomerID int64
	StudentID       string
	Semester        string
	Amount          float64
	Status          TransactionStatus
	LockID          string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}
