package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// APIError is a non-2xx response decoded from the server's {message} body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

var pendingIDPattern = regexp.MustCompile(`ID:\s*(\d+)`)

// PendingTransactionID extracts the transaction id a conflict response
// embeds in its message ("... ID: <n>"), so the client can adopt the
// already-active transaction instead of failing.
func (e *APIError) PendingTransactionID() (int64, bool) {
	if e.Status != http.StatusConflict {
		return 0, false
	}
	match := pendingIDPattern.FindStringSubmatch(e.Message)
	if match == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Profile is the customer profile as served by /api/auth/me.
type Profile struct {
	FullName string  `json:"fullName"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Balance  float64 `json:"balance"`
}

// LoginResult is the /api/auth/login payload.
type LoginResult struct {
	Token                string  `json:"token"`
	FullName             string  `json:"fullName"`
	Phone                string  `json:"phone"`
	Email                string  `json:"email"`
	Balance              float64 `json:"balance"`
	PendingTransactionID *int64  `json:"pendingTransactionId"`
}

// Tuition is the /api/tuition/lookup payload.
type Tuition struct {
	StudentID   string  `json:"studentId"`
	StudentName string  `json:"studentName"`
	Semester    string  `json:"semester"`
	Amount      float64 `json:"amount"`
	Paid        bool    `json:"paid"`
}

// InitiateResult is the /api/payment/initiate payload.
type InitiateResult struct {
	TransactionID int64 `json:"transactionId"`
	TTLSeconds    int   `json:"ttlSeconds"`
}

// Transaction is one /api/payment/history record.
type Transaction struct {
	ID          int64      `json:"id"`
	Status      string     `json:"status"`
	StudentID   string     `json:"studentId"`
	Semester    string     `json:"semester"`
	Amount      float64    `json:"amount"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// Client talks to the payment backend over its HTTP/JSON contract.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger

	mu    sync.RWMutex
	token string
}

// NewClient builds HTTP client wrapper.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// SetToken installs the bearer token used on authenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Login authenticates and returns the session payload. The token is not
// installed automatically; callers decide when the session becomes current.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.post(ctx, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the authoritative profile, including the current balance.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.get(ctx, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LookupTuition fetches the tuition record for a student id.
func (c *Client) LookupTuition(ctx context.Context, studentID string) (*Tuition, error) {
	var out Tuition
	query := url.Values{"studentId": {studentID}}
	if err := c.get(ctx, "/api/tuition/lookup", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Initiate starts a payment transaction and its OTP challenge.
func (c *Client) Initiate(ctx context.Context, studentID string) (*InitiateResult, error) {
	var out InitiateResult
	err := c.post(ctx, "/api/payment/initiate", map[string]string{"studentId": studentID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendOTP requests a fresh code and returns the new TTL in seconds.
func (c *Client) ResendOTP(ctx context.Context, transactionID int64) (int, error) {
	var out struct {
		TTLSeconds int `json:"ttlSeconds"`
	}
	err := c.post(ctx, "/api/payment/resend-otp", map[string]int64{"transactionId": transactionID}, &out)
	if err != nil {
		return 0, err
	}
	return out.TTLSeconds, nil
}

// Confirm submits the entered code and returns the server message.
func (c *Client) Confirm(ctx context.Context, transactionID int64, otp string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.post(ctx, "/api/payment/confirm", map[string]interface{}{
		"transactionId": transactionID,
		"otp":           otp,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// History returns the payer's transactions, newest first.
func (c *Client) History(ctx context.Context) ([]Transaction, error) {
	var out []Transaction
	if err := c.get(ctx, "/api/payment/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil {
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
