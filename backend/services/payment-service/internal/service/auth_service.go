package service

import (
	"context"
	"errors"

	"ibanking/backend/services/payment-service/internal/models"
	"ibanking/backend/services/payment-service/internal/password"
	"ibanking/backend/services/payment-service/internal/repository"
)

// ErrInvalidCredentials is returned when username/password do not match.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// AuthService authenticates customers and issues tokens.
type AuthService struct {
	customers repository.CustomerRepository
	hasher    password.Hasher
	tokens    *TokenService
}

// NewAuthService builds service.
func NewAuthService(customers repository.CustomerRepository, hasher password.Hasher, tokens *TokenService) *AuthService {
	return &AuthService{
		customers: customers,
		hasher:    hasher,
		tokens:    tokens,
	}
}

// Login verifies credentials and returns a signed token plus the customer.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.Customer, error) {
	customer, err := s.customers.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(customer.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(customer.ID, customer.Username)
	if err != nil {
		return "", nil, err
	}
	return token, customer, nil
}

// Profile returns the customer for an authenticated user id.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.Customer, error) {
	return s.customers.GetByID(ctx, userID)
}
