package otpstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent or its TTL has elapsed.
var ErrNotFound = errors.New("otpstore: not found")

// Store keeps the OTP material for a transaction: the code itself, the
// confirm-attempt counter, the resend counter and the last-resend timestamp.
// Code and attempt entries expire with the OTP TTL; resend bookkeeping
// lives slightly longer so the spacing check survives a code expiry.
type Store interface {
	SetCode(ctx context.Context, txnID int64, code string, ttl time.Duration) error
	GetCode(ctx context.Context, txnID int64) (string, error)
	DeleteCode(ctx context.Context, txnID int64) error

	IncrAttempts(ctx context.Context, txnID int64, ttl time.Duration) (int64, error)
	ResetAttempts(ctx context.Context, txnID int64) error

	ResendCount(ctx context.Context, txnID int64) (int64, error)
	IncrResendCount(ctx context.Context, txnID int64, ttl time.Duration) (int64, error)
	LastResend(ctx context.Context, txnID int64) (time.Time, error)
	SetLastResend(ctx context.Context, txnID int64, at time.Time, ttl time.Duration) error

	// Clear drops every key for the transaction.
	Clear(ctx context.Context, txnID int64) error
}
