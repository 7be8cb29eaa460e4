package session

// Status mirrors the server-side transaction lifecycle.
type Status string

const (
	StatusPendingOTP Status = "PENDING_OTP"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusExpired    Status = "EXPIRED"
)

// Active reports whether the transaction can still reach COMPLETED.
func (s Status) Active() bool {
	return s == StatusPendingOTP || s == StatusProcessing
}

// Terminal reports whether the transaction is finished.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

// Transaction is the client's projection of the server transaction: the
// identity needed to resend and confirm, plus display fields.
type Transaction struct {
	ID        int64
	StudentID string
	Semester  string
	Amount    float64
	Status    Status
}

// Store tracks the at-most-one transaction the client currently follows.
type Store struct {
	current *Transaction
}

func NewStore() *Store {
	return &Store{}
}

// Current returns the tracked transaction, or nil when there is none.
func (s *Store) Current() *Transaction {
	return s.current
}

// SetActive makes tx the tracked transaction.
func (s *Store) SetActive(tx Transaction) {
	s.current = &tx
}

// Clear drops the tracked transaction.
func (s *Store) Clear() {
	s.current = nil
}
