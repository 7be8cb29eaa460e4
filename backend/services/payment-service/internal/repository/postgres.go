package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ibanking/backend/services/payment-service/internal/models"
)

// PostgresCustomerRepository is the database/sql implementation of CustomerRepository.
type PostgresCustomerRepository struct {
	db *sql.DB
}

// NewPostgresCustomerRepository returns repository.
func NewPostgresCustomerRepository(db *sql.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

func (r *PostgresCustomerRepository) GetByUsername(ctx context.Context, username string) (*models.Customer, error) {
	const query = `
		SELECT id, username, password_hash, full_name, phone, email, balance
		FROM customers
		WHERE LOWER(username) = LOWER($1)
	`
	return scanCustomer(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresCustomerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	const query = `
		SELECT id, username, password_hash, full_name, phone, email, balance
		FROM customers
		WHERE id = $1
	`
	return scanCustomer(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresCustomerRepository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	const query = `
		INSERT INTO customers (username, password_hash, full_name, phone, email, balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		customer.Username,
		customer.PasswordHash,
		customer.FullName,
		customer.Phone,
		customer.Email,
		customer.Balance,
	).Scan(&customer.ID)
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *PostgresCustomerRepository) UpdateBalance(ctx context.Context, id int64, balance float64) error {
	const query = `UPDATE customers SET balance = $2 WHERE id = $1`
	return execExpectingRow(ctx, r.db, query, id, balance)
}

func scanCustomer(row *sql.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.Username, &c.PasswordHash, &c.FullName, &c.Phone, &c.Email, &c.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// PostgresTuitionRepository is the database/sql implementation of TuitionRepository.
type PostgresTuitionRepository struct {
	db *sql.DB
}

// NewPostgresTuitionRepository returns repository.
func NewPostgresTuitionRepository(db *sql.DB) *PostgresTuitionRepository {
	return &PostgresTuitionRepository{db: db}
}

func (r *PostgresTuitionRepository) GetByStudentAndSemester(ctx context.Context, studentID, semester string) (*models.StudentTuition, error) {
	const query = `
		SELECT id, student_id, student_name, semester, amount, paid, paid_date
		FROM student_tuitions
		WHERE student_id = $1 AND semester = $2
	`
	return scanTuition(r.db.QueryRowContext(ctx, query, studentID, semester))
}

func (r *PostgresTuitionRepository) GetUnpaid(ctx context.Context, studentID, semester string) (*models.StudentTuition, error) {
	const query = `
		SELECT id, student_id, student_name, semester, amount, paid, paid_date
		FROM student_tuitions
		WHERE student_id = $1 AND semester = $2 AND paid = FALSE
	`
	return scanTuition(r.db.QueryRowContext(ctx, query, studentID, semester))
}

func (r *PostgresTuitionRepository) Create(ctx context.Context, tuition *models.StudentTuition) (*models.StudentTuition, error) {
	const query = `
		INSERT INTO student_tuitions (student_id, student_name, semester, amount, paid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		tuition.StudentID,
		tuition.StudentName,
		tuition.Semester,
		tuition.Amount,
		tuition.Paid,
	).Scan(&tuition.ID)
	if err != nil {
		return nil, err
	}
	return tuition, nil
}

func (r *PostgresTuitionRepository) MarkPaid(ctx context.Context, id int64, paidDate time.Time) error {
	const query = `UPDATE student_tuitions SET paid = TRUE, paid_date = $2 WHERE id = $1`
	return execExpectingRow(ctx, r.db, query, id, paidDate)
}

func scanTuition(row *sql.Row) (*models.StudentTuition, error) {
	var t models.StudentTuition
	err := row.Scan(&t.ID, &t.StudentID, &t.StudentName, &t.Semester, &t.Amount, &t.Paid, &t.PaidDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// PostgresTransactionRepository is the database/sql implementation of TransactionRepository.
type PostgresTransactionRepository struct {
	db *sql.DB
}

// NewPostgresTransactionRepository returns repository.
func NewPostgresTransactionRepository(db *sql.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

const transactionColumns = `id, payer_customer_id, student_id, semester, amount, status, lock_id, created_at, completed_at`

func (r *PostgresTransactionRepository) Create(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	const query = `
		INSERT INTO payment_transactions (payer_customer_id, student_id, semester, amount, status, lock_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		txn.PayerCustomerID,
		txn.StudentID,
		txn.Semester,
		txn.Amount,
		txn.Status,
		txn.LockID,
		txn.CreatedAt,
	).Scan(&txn.ID)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *PostgresTransactionRepository) GetByID(ctx context.Context, id int64) (*models.PaymentTransaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE id = $1`
	return scanTransaction(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresTransactionRepository) FindActiveByPayer(ctx context.Context, payerID int64) (*models.PaymentTransaction, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE payer_customer_id = $1 AND status IN ('PENDING_OTP', 'PROCESSING')
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanTransaction(r.db.QueryRowContext(ctx, query, payerID))
}

func (r *PostgresTransactionRepository) FindActiveByTuition(ctx context.Context, studentID, semester string) (*models.PaymentTransaction, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE student_id = $1 AND semester = $2 AND status IN ('PENDING_OTP', 'PROCESSING')
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanTransaction(r.db.QueryRowContext(ctx, query, studentID, semester))
}

func (r *PostgresTransactionRepository) ListByPayer(ctx context.Context, payerID int64, limit int) ([]models.PaymentTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE payer_customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, payerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *PostgresTransactionRepository) ListByStatus(ctx context.Context, status models.TransactionStatus) ([]models.PaymentTransaction, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE status = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *PostgresTransactionRepository) UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, completedAt *time.Time) error {
	const query = `UPDATE payment_transactions SET status = $2, completed_at = $3 WHERE id = $1`
	return execExpectingRow(ctx, r.db, query, id, status, completedAt)
}

func (r *PostgresTransactionRepository) TouchCreatedAt(ctx context.Context, id int64, createdAt time.Time) error {
	const query = `UPDATE payment_transactions SET created_at = $2 WHERE id = $1`
	return execExpectingRow(ctx, r.db, query, id, createdAt)
}

func scanTransaction(row *sql.Row) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	err := row.Scan(&t.ID, &t.PayerCustomerID, &t.StudentID, &t.Semester, &t.Amount, &t.Status, &t.LockID, &t.CreatedAt, &t.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]models.PaymentTransaction, error) {
	var out []models.PaymentTransaction
	for rows.Next() {
		var t models.PaymentTransaction
		if err := rows.Scan(&t.ID, &t.PayerCustomerID, &t.StudentID, &t.Semester, &t.Amount, &t.Status, &t.LockID, &t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func execExpectingRow(ctx context.Context, db *sql.DB, query string, args ...interface{}) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
