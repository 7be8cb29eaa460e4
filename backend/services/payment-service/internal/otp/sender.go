package otp

import (
	"context"
	"crypto/rand"
	"math/big"

	"go.uber.org/zap"

	"ibanking/backend/services/payment-service/internal/models"
)

// Delivery carries everything a transport needs to deliver an OTP code.
type Delivery struct {
	Customer    *models.Customer
	Transaction *models.PaymentTransaction
	Tuition     *models.StudentTuition
	Code        string
}

// Sender delivers OTP codes out-of-band.
type Sender interface {
	SendOTP(ctx context.Context, delivery Delivery) error
}

// LogSender writes the code to the log instead of delivering it.
// Stands in for the mail transport in dev and tests.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender returns a logging sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendOTP(ctx context.Context, delivery Delivery) error {
	s.logger.Info("otp issued",
		zap.Int64("transaction_id", delivery.Transaction.ID),
		zap.String("email", delivery.Customer.Email),
		zap.String("code", delivery.Code),
	)
	return nil
}

// GenerateCode returns a random numeric code of the given length.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
