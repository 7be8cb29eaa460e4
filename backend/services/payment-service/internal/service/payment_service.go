package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ibanking/backend/services/payment-service/internal/models"
	"ibanking/backend/services/payment-service/internal/otp"
	"ibanking/backend/services/payment-service/internal/otpstore"
	"ibanking/backend/services/payment-service/internal/repository"
)

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrTuitionNotFound     = errors.New("payment: no unpaid tuition for current semester")
	ErrInsufficientBalance = errors.New("payment: insufficient balance")
	ErrInvalidTransaction  = errors.New("payment: invalid transaction")
	ErrNotTransactionOwner = errors.New("payment: transaction belongs to another customer")
	ErrOTPExpired          = errors.New("payment: otp expired, transaction failed")
	ErrInvalidOTP          = errors.New("payment: invalid otp")
	ErrTooManyAttempts     = errors.New("payment: too many otp attempts")
	ErrResendLimit         = errors.New("payment: exceeded maximum otp resends, transaction failed")
)

// PendingTransactionError rejects a second initiation while one is active.
// The message carries the transaction id so clients can adopt it.
type PendingTransactionError struct {
	TransactionID int64
}

func (e *PendingTransactionError) Error() string {
	return fmt.Sprintf("There is already a pending payment transaction for this student. Please wait for it to complete or expire. ID: %d", e.TransactionID)
}

// ResendTooSoonError rejects a resend before the minimum spacing elapsed.
type ResendTooSoonError struct {
	RetryAfterSeconds int64
}

func (e *ResendTooSoonError) Error() string {
	return fmt.Sprintf("Please wait %d seconds before resending OTP", e.RetryAfterSeconds)
}

// PaymentConfig carries the OTP challenge policy.
type PaymentConfig struct {
	OTPTTL        time.Duration
	OTPLength     int
	MaxAttempts   int
	ResendLimit   int
	ResendSpacing time.Duration
}

func (c PaymentConfig) withDefaults() PaymentConfig {
	if c.OTPTTL <= 0 {
		c.OTPTTL = 120 * time.Second
	}
	if c.OTPLength <= 0 {
		c.OTPLength = 6
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.ResendLimit <= 0 {
		c.ResendLimit = 3
	}
	if c.ResendSpacing <= 0 {
		c.ResendSpacing = 30 * time.Second
	}
	return c
}

// ConfirmResult carries the detail payload returned on successful payment.
type ConfirmResult struct {
	TransactionID int64
	StudentID     string
	StudentName   string
	Semester      string
	Amount        float64
	PayerName     string
	CompletedAt   time.Time
}

// PaymentService implements the tuition payment transaction lifecycle:
// initiation, OTP challenge bookkeeping, confirmation and expiry.
type PaymentService struct {
	customers    repository.CustomerRepository
	tuitions     repository.TuitionRepository
	transactions repository.TransactionRepository
	otpStore     otpstore.Store
	sender       otp.Sender
	cfg          PaymentConfig
	logger       *zap.Logger
	now          func() time.Time

	// serializes balance/tuition mutations within this instance
	mu sync.Mutex
}

// NewPaymentService builds service. A nil now func defaults to time.Now.
func NewPaymentService(
	customers repository.CustomerRepository,
	tuitions repository.TuitionRepository,
	transactions repository.TransactionRepository,
	otpStore otpstore.Store,
	sender otp.Sender,
	cfg PaymentConfig,
	logger *zap.Logger,
	now func() time.Time,
) *PaymentService {
	if now == nil {
		now = time.Now
	}
	return &PaymentService{
		customers:    customers,
		tuitions:     tuitions,
		transactions: transactions,
		otpStore:     otpStore,
		sender:       sender,
		cfg:          cfg.withDefaults(),
		logger:       logger,
		now:          now,
	}
}

// TTLSeconds exposes the configured OTP validity window.
func (s *PaymentService) TTLSeconds() int {
	return int(s.cfg.OTPTTL / time.Second)
}

// LookupTuition returns the tuition record for a student in the current semester.
func (s *PaymentService) LookupTuition(ctx context.Context, studentID string) (*models.StudentTuition, error) {
	normalized := strings.ToUpper(strings.TrimSpace(studentID))
	tuition, err := s.tuitions.GetByStudentAndSemester(ctx, normalized, SemesterAt(s.now()))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTuitionNotFound
	}
	return tuition, err
}

// Initiate creates a PENDING_OTP transaction for the payer and issues the
// first OTP challenge. At most one active transaction may exist per payer
// and per tuition record.
func (s *PaymentService) Initiate(ctx context.Context, payerID int64, studentID string) (*models.PaymentTransaction, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payer, err := s.customers.GetByID(ctx, payerID)
	if err != nil {
		return nil, 0, err
	}

	normalized := strings.ToUpper(strings.TrimSpace(studentID))
	semester := SemesterAt(s.now())

	tuition, err := s.tuitions.GetUnpaid(ctx, normalized, semester)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, 0, ErrTuitionNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	if payer.Balance < tuition.Amount {
		return nil, 0, ErrInsufficientBalance
	}

	if existing, err := s.transactions.FindActiveByPayer(ctx, payerID); err == nil {
		return nil, 0, &PendingTransactionError{TransactionID: existing.ID}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, 0, err
	}
	if existing, err := s.transactions.FindActiveByTuition(ctx, normalized, semester); err == nil {
		return nil, 0, &PendingTransactionError{TransactionID: existing.ID}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, 0, err
	}

	now := s.now().UTC()
	txn := &models.PaymentTransaction{
		PayerCustomerID: payerID,
		StudentID:       tuition.StudentID,
		Semester:        tuition.Semester,
		Amount:          tuition.Amount,
		Status:          models.StatusPendingOTP,
		LockID:          uuid.NewString(),
		CreatedAt:       now,
	}
	txn, err = s.transactions.Create(ctx, txn)
	if err != nil {
		return nil, 0, err
	}

	if err := s.issueChallenge(ctx, payer, txn, tuition); err != nil {
		return nil, 0, err
	}
	if err := s.otpStore.SetLastResend(ctx, txn.ID, now, s.resendBookkeepingTTL()); err != nil {
		return nil, 0, err
	}

	s.logger.Info("payment initiated",
		zap.Int64("transaction_id", txn.ID),
		zap.Int64("payer_id", payerID),
		zap.String("student_id", txn.StudentID),
		zap.Float64("amount", txn.Amount),
	)
	return txn, s.TTLSeconds(), nil
}

// Resend regenerates the OTP challenge for an active transaction, enforcing
// the resend cap and the minimum spacing. The issue timestamp is reset so
// clients resuming later compute the right remaining TTL.
func (s *PaymentService) Resend(ctx context.Context, payerID, txnID int64) (int, error) {
	txn, err := s.transactions.GetByID(ctx, txnID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrInvalidTransaction
	}
	if err != nil {
		return 0, err
	}
	if txn.Status != models.StatusPendingOTP && txn.Status != models.StatusExpired {
		return 0, ErrInvalidTransaction
	}
	if txn.PayerCustomerID != payerID {
		return 0, ErrNotTransactionOwner
	}

	count, err := s.otpStore.ResendCount(ctx, txnID)
	if err != nil {
		return 0, err
	}
	if count >= int64(s.cfg.ResendLimit) {
		now := s.now().UTC()
		if err := s.transactions.UpdateStatus(ctx, txnID, models.StatusFailed, &now); err != nil {
			return 0, err
		}
		if err := s.otpStore.Clear(ctx, txnID); err != nil {
			s.logger.Warn("failed to clear otp keys", zap.Int64("transaction_id", txnID), zap.Error(err))
		}
		return 0, ErrResendLimit
	}

	if last, err := s.otpStore.LastResend(ctx, txnID); err == nil {
		elapsed := s.now().Sub(last)
		if elapsed < s.cfg.ResendSpacing {
			wait := int64((s.cfg.ResendSpacing - elapsed + time.Second - 1) / time.Second)
			return 0, &ResendTooSoonError{RetryAfterSeconds: wait}
		}
	} else if !errors.Is(err, otpstore.ErrNotFound) {
		return 0, err
	}

	payer, err := s.customers.GetByID(ctx, txn.PayerCustomerID)
	if err != nil {
		return 0, err
	}
	tuition, err := s.tuitions.GetByStudentAndSemester(ctx, txn.StudentID, txn.Semester)
	if err != nil {
		return 0, err
	}

	if err := s.issueChallenge(ctx, payer, txn, tuition); err != nil {
		return 0, err
	}

	now := s.now().UTC()
	if _, err := s.otpStore.IncrResendCount(ctx, txnID, s.resendBookkeepingTTL()); err != nil {
		return 0, err
	}
	if err := s.otpStore.SetLastResend(ctx, txnID, now, s.resendBookkeepingTTL()); err != nil {
		return 0, err
	}
	if txn.Status == models.StatusExpired {
		if err := s.transactions.UpdateStatus(ctx, txnID, models.StatusPendingOTP, nil); err != nil {
			return 0, err
		}
	}
	if err := s.transactions.TouchCreatedAt(ctx, txnID, now); err != nil {
		return 0, err
	}

	s.logger.Info("otp resent", zap.Int64("transaction_id", txnID), zap.Int64("resend_count", count+1))
	return s.TTLSeconds(), nil
}

// Confirm verifies the submitted code and completes the payment: debits the
// payer, marks the tuition paid and finalizes the transaction.
func (s *PaymentService) Confirm(ctx context.Context, payerID, txnID int64, code string) (*ConfirmResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, err := s.transactions.GetByID(ctx, txnID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidTransaction
	}
	if err != nil {
		return nil, err
	}
	if txn.Status != models.StatusPendingOTP {
		return nil, ErrInvalidTransaction
	}
	if txn.PayerCustomerID != payerID {
		return nil, ErrNotTransactionOwner
	}

	expected, err := s.otpStore.GetCode(ctx, txnID)
	if errors.Is(err, otpstore.ErrNotFound) {
		now := s.now().UTC()
		if err := s.transactions.UpdateStatus(ctx, txnID, models.StatusFailed, &now); err != nil {
			return nil, err
		}
		return nil, ErrOTPExpired
	}
	if err != nil {
		return nil, err
	}

	attempts, err := s.otpStore.IncrAttempts(ctx, txnID, s.cfg.OTPTTL)
	if err != nil {
		return nil, err
	}
	if attempts > int64(s.cfg.MaxAttempts) {
		if err := s.otpStore.DeleteCode(ctx, txnID); err != nil {
			s.logger.Warn("failed to delete otp code", zap.Int64("transaction_id", txnID), zap.Error(err))
		}
		return nil, ErrTooManyAttempts
	}
	if expected != code {
		return nil, ErrInvalidOTP
	}

	// Move to PROCESSING before touching balances so a concurrent confirm
	// sees a non-confirmable status.
	if err := s.transactions.UpdateStatus(ctx, txnID, models.StatusProcessing, nil); err != nil {
		return nil, err
	}

	result, err := s.settle(ctx, txn)
	if err != nil {
		now := s.now().UTC()
		if updateErr := s.transactions.UpdateStatus(ctx, txnID, models.StatusFailed, &now); updateErr != nil {
			s.logger.Error("failed to mark transaction failed", zap.Int64("transaction_id", txnID), zap.Error(updateErr))
		}
		return nil, err
	}

	if err := s.otpStore.Clear(ctx, txnID); err != nil {
		s.logger.Warn("failed to clear otp keys", zap.Int64("transaction_id", txnID), zap.Error(err))
	}

	s.logger.Info("payment completed",
		zap.Int64("transaction_id", txnID),
		zap.Int64("payer_id", payerID),
		zap.Float64("amount", txn.Amount),
	)
	return result, nil
}

func (s *PaymentService) settle(ctx context.Context, txn *models.PaymentTransaction) (*ConfirmResult, error) {
	payer, err := s.customers.GetByID(ctx, txn.PayerCustomerID)
	if err != nil {
		return nil, err
	}
	tuition, err := s.tuitions.GetUnpaid(ctx, txn.StudentID, txn.Semester)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTuitionNotFound
	}
	if err != nil {
		return nil, err
	}
	if payer.Balance < txn.Amount {
		return nil, ErrInsufficientBalance
	}

	now := s.now().UTC()
	if err := s.customers.UpdateBalance(ctx, payer.ID, payer.Balance-txn.Amount); err != nil {
		return nil, err
	}
	if err := s.tuitions.MarkPaid(ctx, tuition.ID, now); err != nil {
		return nil, err
	}
	if err := s.transactions.UpdateStatus(ctx, txn.ID, models.StatusCompleted, &now); err != nil {
		return nil, err
	}

	return &ConfirmResult{
		TransactionID: txn.ID,
		StudentID:     txn.StudentID,
		StudentName:   tuition.StudentName,
		Semester:      txn.Semester,
		Amount:        txn.Amount,
		PayerName:     payer.FullName,
		CompletedAt:   now,
	}, nil
}

// History returns the payer's transactions, newest first.
func (s *PaymentService) History(ctx context.Context, payerID int64) ([]models.PaymentTransaction, error) {
	return s.transactions.ListByPayer(ctx, payerID, 100)
}

// PendingTransaction returns the payer's active transaction, or nil.
func (s *PaymentService) PendingTransaction(ctx context.Context, payerID int64) (*models.PaymentTransaction, error) {
	txn, err := s.transactions.FindActiveByPayer(ctx, payerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// ExpireStale marks PENDING_OTP transactions whose OTP has lapsed as EXPIRED.
// Returns how many transactions were flipped.
func (s *PaymentService) ExpireStale(ctx context.Context) (int, error) {
	pending, err := s.transactions.ListByStatus(ctx, models.StatusPendingOTP)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, txn := range pending {
		if _, err := s.otpStore.GetCode(ctx, txn.ID); err == nil {
			continue
		} else if !errors.Is(err, otpstore.ErrNotFound) {
			return expired, err
		}
		now := s.now().UTC()
		if err := s.transactions.UpdateStatus(ctx, txn.ID, models.StatusExpired, &now); err != nil {
			return expired, err
		}
		expired++
		s.logger.Info("transaction expired", zap.Int64("transaction_id", txn.ID))
	}
	return expired, nil
}

// RunExpirySweeper periodically expires stale transactions until ctx is done.
func (s *PaymentService) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ExpireStale(ctx); err != nil {
				s.logger.Warn("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *PaymentService) issueChallenge(ctx context.Context, payer *models.Customer, txn *models.PaymentTransaction, tuition *models.StudentTuition) error {
	code, err := otp.GenerateCode(s.cfg.OTPLength)
	if err != nil {
		return err
	}
	if err := s.otpStore.SetCode(ctx, txn.ID, code, s.cfg.OTPTTL); err != nil {
		return err
	}
	if err := s.otpStore.ResetAttempts(ctx, txn.ID); err != nil {
		return err
	}
	return s.sender.SendOTP(ctx, otp.Delivery{
		Customer:    payer,
		Transaction: txn,
		Tuition:     tuition,
		Code:        code,
	})
}

// resendBookkeepingTTL outlives the code TTL so the spacing and cap checks
// still apply right after an expiry.
func (s *PaymentService) resendBookkeepingTTL() time.Duration {
	return s.cfg.OTPTTL + s.cfg.ResendSpacing
}
