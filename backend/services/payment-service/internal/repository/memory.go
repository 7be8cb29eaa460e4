package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ibanking/backend/services/payment-service/internal/models"
)

// MemoryCustomerRepository keeps customers in a mutex-guarded map. Used by tests and dev mode.
type MemoryCustomerRepository struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]models.Customer
}

// NewMemoryCustomerRepository returns initialized store.
func NewMemoryCustomerRepository() *MemoryCustomerRepository {
	return &MemoryCustomerRepository{data: make(map[int64]models.Customer)}
}

func (r *MemoryCustomerRepository) GetByUsername(ctx context.Context, username string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.data {
		if strings.EqualFold(c.Username, username) {
			copied := c
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryCustomerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := c
	return &copied, nil
}

func (r *MemoryCustomerRepository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	customer.ID = r.nextID
	r.data[customer.ID] = *customer
	return customer, nil
}

func (r *MemoryCustomerRepository) UpdateBalance(ctx context.Context, id int64, balance float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	c.Balance = balance
	r.data[id] = c
	return nil
}

// MemoryTuitionRepository keeps tuition records in memory.
type MemoryTuitionRepository struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]models.StudentTuition
}

// NewMemoryTuitionRepository returns initialized store.
func NewMemoryTuitionRepository() *MemoryTuitionRepository {
	return &MemoryTuitionRepository{data: make(map[int64]models.StudentTuition)}
}

func (r *MemoryTuitionRepository) GetByStudentAndSemester(ctx context.Context, studentID, semester string) (*models.StudentTuition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.data {
		if t.StudentID == studentID && t.Semester == semester {
			copied := t
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryTuitionRepository) GetUnpaid(ctx context.Context, studentID, semester string) (*models.StudentTuition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.data {
		if t.StudentID == studentID && t.Semester == semester && !t.Paid {
			copied := t
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryTuitionRepository) Create(ctx context.Context, tuition *models.StudentTuition) (*models.StudentTuition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	tuition.ID = r.nextID
	r.data[tuition.ID] = *tuition
	return tuition, nil
}

func (r *MemoryTuitionRepository) MarkPaid(ctx context.Context, id int64, paidDate time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	t.Paid = true
	t.PaidDate = &paidDate
	r.data[id] = t
	return nil
}

// MemoryTransactionRepository keeps payment transactions in memory.
type MemoryTransactionRepository struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]models.PaymentTransaction
}

// NewMemoryTransactionRepository returns initialized store.
func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{data: make(map[int64]models.PaymentTransaction)}
}

func (r *MemoryTransactionRepository) Create(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	txn.ID = r.nextID
	r.data[txn.ID] = *txn
	return txn, nil
}

func (r *MemoryTransactionRepository) GetByID(ctx context.Context, id int64) (*models.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := t
	return &copied, nil
}

func (r *MemoryTransactionRepository) FindActiveByPayer(ctx context.Context, payerID int64) (*models.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *models.PaymentTransaction
	for _, t := range r.data {
		if t.PayerCustomerID == payerID && t.Status.Active() {
			if found == nil || t.CreatedAt.After(found.CreatedAt) {
				copied := t
				found = &copied
			}
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (r *MemoryTransactionRepository) FindActiveByTuition(ctx context.Context, studentID, semester string) (*models.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *models.PaymentTransaction
	for _, t := range r.data {
		if t.StudentID == studentID && t.Semester == semester && t.Status.Active() {
			if found == nil || t.CreatedAt.After(found.CreatedAt) {
				copied := t
				found = &copied
			}
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (r *MemoryTransactionRepository) ListByPayer(ctx context.Context, payerID int64, limit int) ([]models.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.PaymentTransaction
	for _, t := range r.data {
		if t.PayerCustomerID == payerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryTransactionRepository) ListByStatus(ctx context.Context, status models.TransactionStatus) ([]models.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.PaymentTransaction
	for _, t := range r.data {
		if t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryTransactionRepository) UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, completedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	t.CompletedAt = completedAt
	r.data[id] = t
	return nil
}

func (r *MemoryTransactionRepository) TouchCreatedAt(ctx context.Context, id int64, createdAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	t.CreatedAt = createdAt
	r.data[id] = t
	return nil
}
