package repository

import (
	"context"
	"errors"
	"time"

	"ibanking/backend/services/payment-service/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("repository: not found")

// CustomerRepository persists bank customers.
type CustomerRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.Customer, error)
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	UpdateBalance(ctx context.Context, id int64, balance float64) error
}

// TuitionRepository persists per-semester tuition charges.
type TuitionRepository interface {
	GetByStudentAndSemester(ctx context.Context, studentID, semester string) (*models.StudentTuition, error)
	GetUnpaid(ctx context.Context, studentID, semester string) (*models.StudentTuition, error)
	Create(ctx context.Context, tuition *models.StudentTuition) (*models.StudentTuition, error)
	MarkPaid(ctx context.Context, id int64, paidDate time.Time) error
}

// TransactionRepository persists payment transactions.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error)
	GetByID(ctx context.Context, id int64) (*models.PaymentTransaction, error)
	// FindActiveByPayer returns the payer's PENDING_OTP/PROCESSING transaction, if any.
	FindActiveByPayer(ctx context.Context, payerID int64) (*models.PaymentTransaction, error)
	// FindActiveByTuition returns an active transaction targeting the given tuition, if any.
	FindActiveByTuition(ctx context.Context, studentID, semester string) (*models.PaymentTransaction, error)
	ListByPayer(ctx context.Context, payerID int64, limit int) ([]models.PaymentTransaction, error)
	ListByStatus(ctx context.Context, status models.TransactionStatus) ([]models.PaymentTransaction, error)
	UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, completedAt *time.Time) error
	// TouchCreatedAt resets the OTP issue timestamp, used when a code is resent.
	TouchCreatedAt(ctx context.Context, id int64, createdAt time.Time) error
}
