package flow

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"ibanking/backend/services/otp-client/internal/api"
	"ibanking/backend/services/otp-client/internal/authstate"
	"ibanking/backend/services/otp-client/internal/session"
)

// syncRuntime executes everything inline, making the whole flow
// deterministic: completions land before the triggering call returns.
type syncRuntime struct{}

func (syncRuntime) Post(fn func()) { fn() }

func (syncRuntime) Go(fn func()) { fn() }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Ticker(d time.Duration) Ticker { return inertTicker{} }

// inertTicker never fires; tests drive ticks by calling the tick
// methods directly.
type inertTicker struct{}

func (inertTicker) C() <-chan time.Time { return nil }

func (inertTicker) Stop() {}

type fakeNotifier struct {
	successes []string
	errors    []string
}

func (n *fakeNotifier) Success(msg string) { n.successes = append(n.successes, msg) }

func (n *fakeNotifier) Error(msg string) { n.errors = append(n.errors, msg) }

type fakeAPI struct {
	token string

	loginRes    *api.LoginResult
	loginErr    error
	me          api.Profile
	meErr       error
	tuition     api.Tuition
	tuitionErr  error
	initiateRes *api.InitiateResult
	initiateErr error
	resendTTL   int
	resendErr   error
	confirmMsg  string
	confirmErr  error
	onConfirm   func()
	history     []api.Transaction
	historyErr  error

	initiateCalls int
	resendCalls   int
	confirmCalls  int
	historyCalls  int

	lastConfirmID   int64
	lastConfirmCode string
	lastResendID    int64
}

func (f *fakeAPI) SetToken(token string) { f.token = token }

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*api.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginRes, nil
}

func (f *fakeAPI) Me(ctx context.Context) (*api.Profile, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	profile := f.me
	return &profile, nil
}

func (f *fakeAPI) LookupTuition(ctx context.Context, studentID string) (*api.Tuition, error) {
	if f.tuitionErr != nil {
		return nil, f.tuitionErr
	}
	tuition := f.tuition
	return &tuition, nil
}

func (f *fakeAPI) Initiate(ctx context.Context, studentID string) (*api.InitiateResult, error) {
	f.initiateCalls++
	if f.initiateErr != nil {
		return nil, f.initiateErr
	}
	return f.initiateRes, nil
}

func (f *fakeAPI) ResendOTP(ctx context.Context, transactionID int64) (int, error) {
	f.resendCalls++
	f.lastResendID = transactionID
	if f.resendErr != nil {
		return 0, f.resendErr
	}
	return f.resendTTL, nil
}

func (f *fakeAPI) Confirm(ctx context.Context, transactionID int64, otp string) (string, error) {
	f.confirmCalls++
	f.lastConfirmID = transactionID
	f.lastConfirmCode = otp
	if f.onConfirm != nil {
		f.onConfirm()
	}
	if f.confirmErr != nil {
		return "", f.confirmErr
	}
	return f.confirmMsg, nil
}

func (f *fakeAPI) History(ctx context.Context) ([]api.Transaction, error) {
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

type flowFixture struct {
	c     *Controller
	api   *fakeAPI
	clock *fakeClock
	notes *fakeNotifier
	auth  *authstate.Store
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)}
	fakeAPI := &fakeAPI{
		loginRes: &api.LoginResult{
			Token:    "token-1",
			FullName: "Nguyen Van A",
			Email:    "a@example.com",
			Balance:  15_000_000,
		},
		me: api.Profile{FullName: "Nguyen Van A", Email: "a@example.com", Balance: 15_000_000},
		tuition: api.Tuition{
			StudentID:   "523H0111",
			StudentName: "Tran Thi B",
			Semester:    "HK1-2627",
			Amount:      12_500_000,
		},
		initiateRes: &api.InitiateResult{TransactionID: 1, TTLSeconds: 120},
		resendTTL:   120,
		confirmMsg:  "Payment successful",
	}
	notes := &fakeNotifier{}
	auth := authstate.NewStore(filepath.Join(t.TempDir(), "session.json"))
	c := NewController(context.Background(), syncRuntime{}, clock, fakeAPI, notes, auth, zap.NewNop(), Config{})
	return &flowFixture{c: c, api: fakeAPI, clock: clock, notes: notes, auth: auth}
}

func (ft *flowFixture) signIn(t *testing.T) {
	t.Helper()
	ft.c.Login("payer1", "pass123")
	if !ft.c.Snapshot().LoggedIn {
		t.Fatal("login did not take effect")
	}
}

func (ft *flowFixture) startPayment(t *testing.T) {
	t.Helper()
	ft.signIn(t)
	ft.c.Lookup("523H0111")
	ft.c.Pay()
	if ft.c.Snapshot().Popup != PopupOpen {
		t.Fatal("popup did not open")
	}
}

// tick advances all one-second countdowns and the wall clock by n seconds.
func (ft *flowFixture) tick(n int) {
	for i := 0; i < n; i++ {
		ft.c.tickTTL()
		ft.c.tickCooldown()
		ft.c.tickAutoClose()
		ft.clock.now = ft.clock.now.Add(time.Second)
	}
}

func TestLoginPersistsAndRestores(t *testing.T) {
	ft := newFlowFixture(t)
	ft.signIn(t)

	if ft.api.token != "token-1" {
		t.Fatalf("token = %q, want token-1", ft.api.token)
	}
	saved, err := ft.auth.Load()
	if err != nil || saved == nil {
		t.Fatalf("saved session = %+v, %v", saved, err)
	}

	// A fresh controller sharing the auth file resumes the session and
	// refreshes the profile from the server.
	restored := NewController(context.Background(), syncRuntime{}, ft.clock, ft.api, ft.notes, ft.auth, zap.NewNop(), Config{})
	ft.api.me.Balance = 14_000_000
	restored.RestoreSession()
	s := restored.Snapshot()
	if !s.LoggedIn {
		t.Fatal("session not restored")
	}
	if s.Profile.Balance != 14_000_000 {
		t.Fatalf("balance = %v, want refreshed 14000000", s.Profile.Balance)
	}
}

func TestRestoreDropsRejectedToken(t *testing.T) {
	ft := newFlowFixture(t)
	ft.signIn(t)

	ft.api.meErr = &api.APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	restored := NewController(context.Background(), syncRuntime{}, ft.clock, ft.api, ft.notes, ft.auth, zap.NewNop(), Config{})
	restored.RestoreSession()
	if restored.Snapshot().LoggedIn {
		t.Fatal("rejected token kept a live session")
	}
	if saved, _ := ft.auth.Load(); saved != nil {
		t.Fatal("rejected token left on disk")
	}
}

func TestPayOpensPopup(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	s := ft.c.Snapshot()
	if s.TTLSeconds != 120 {
		t.Fatalf("ttl = %d, want 120", s.TTLSeconds)
	}
	if s.TransactionID != 1 || s.TransactionStatus != session.StatusPendingOTP {
		t.Fatalf("transaction = %d %s", s.TransactionID, s.TransactionStatus)
	}
	if !s.InputEnabled {
		t.Fatal("input disabled on a fresh code")
	}
}

func TestCountdownDisablesInputAtZero(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.tick(119)
	s := ft.c.Snapshot()
	if s.TTLSeconds != 1 || !s.InputEnabled {
		t.Fatalf("ttl = %d input = %v after 119s", s.TTLSeconds, s.InputEnabled)
	}

	ft.tick(2)
	s = ft.c.Snapshot()
	if s.TTLSeconds != 0 || s.InputEnabled {
		t.Fatalf("ttl = %d input = %v after expiry", s.TTLSeconds, s.InputEnabled)
	}

	ft.c.TypeDigit('1')
	if ft.c.Snapshot().Slots[0] != "" {
		t.Fatal("expired popup accepted a digit")
	}
	if ft.c.Snapshot().Popup != PopupOpen {
		t.Fatal("open popup should stay open on expiry")
	}
}

func TestSixthDigitSubmitsOnce(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	for _, r := range "123456" {
		ft.c.TypeDigit(r)
	}
	if ft.api.confirmCalls != 1 {
		t.Fatalf("confirm calls = %d, want 1", ft.api.confirmCalls)
	}
	if ft.api.lastConfirmID != 1 || ft.api.lastConfirmCode != "123456" {
		t.Fatalf("confirmed %d/%q", ft.api.lastConfirmID, ft.api.lastConfirmCode)
	}

	s := ft.c.Snapshot()
	if s.Popup != PopupClosed || s.TransactionID != 0 {
		t.Fatalf("popup = %s txn = %d after success", s.Popup, s.TransactionID)
	}
	if s.Tuition == nil || !s.Tuition.Paid {
		t.Fatal("tuition not marked paid")
	}
}

func TestPasteSubmitsOnce(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.c.Paste("ab12cd3456xyz")
	if ft.api.confirmCalls != 1 {
		t.Fatalf("confirm calls = %d, want 1", ft.api.confirmCalls)
	}
	if ft.api.lastConfirmCode != "123456" {
		t.Fatalf("code = %q, want 123456", ft.api.lastConfirmCode)
	}
}

func TestWrongCodeAllowsRetry(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.api.confirmErr = &api.APIError{Status: http.StatusBadRequest, Message: "Invalid OTP code"}
	ft.c.Paste("111111")
	if len(ft.notes.errors) != 1 {
		t.Fatalf("errors = %v, want one", ft.notes.errors)
	}
	s := ft.c.Snapshot()
	if s.Popup != PopupOpen {
		t.Fatal("popup closed on a wrong code")
	}
	if s.Slots[0] != "" {
		t.Fatal("buffer not cleared for retry")
	}

	ft.api.confirmErr = nil
	ft.c.Paste("222222")
	if ft.api.confirmCalls != 2 {
		t.Fatalf("confirm calls = %d, want 2", ft.api.confirmCalls)
	}
	if ft.c.Snapshot().Popup != PopupClosed {
		t.Fatal("successful retry did not finish the payment")
	}
}

func TestResendCooldownGatesRequests(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)
	ft.c.Paste("123")
	ft.tick(10)

	ft.c.Resend()
	if ft.api.resendCalls != 1 {
		t.Fatalf("resend calls = %d, want 1", ft.api.resendCalls)
	}
	s := ft.c.Snapshot()
	if s.TTLSeconds != 120 || s.CooldownSeconds != 30 {
		t.Fatalf("ttl = %d cooldown = %d after resend", s.TTLSeconds, s.CooldownSeconds)
	}
	if s.Slots[0] != "" {
		t.Fatal("buffer survived the resend")
	}
	if s.ResendCount != 1 {
		t.Fatalf("resend count = %d, want 1", s.ResendCount)
	}

	// Inside the cooldown the action is a silent no-op.
	ft.c.Resend()
	if ft.api.resendCalls != 1 {
		t.Fatalf("resend calls = %d during cooldown, want 1", ft.api.resendCalls)
	}

	ft.tick(30)
	if ft.c.Snapshot().CooldownSeconds != 0 {
		t.Fatal("cooldown did not run out")
	}
	ft.c.Resend()
	if ft.api.resendCalls != 2 {
		t.Fatalf("resend calls = %d after cooldown, want 2", ft.api.resendCalls)
	}
}

func TestMinimizedExpiryAutoCloses(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.c.Minimize()
	ft.tick(120)
	s := ft.c.Snapshot()
	if s.Popup != PopupMinimized || s.AutoCloseSeconds != 10 {
		t.Fatalf("popup = %s autoClose = %d at expiry", s.Popup, s.AutoCloseSeconds)
	}

	ft.tick(9)
	if ft.c.Snapshot().Popup != PopupMinimized {
		t.Fatal("popup closed early")
	}
	ft.tick(1)
	s = ft.c.Snapshot()
	if s.Popup != PopupClosed {
		t.Fatal("popup not auto-closed")
	}
	// The transaction itself stays tracked for reconciliation.
	if s.TransactionID != 1 {
		t.Fatalf("transaction = %d, want 1", s.TransactionID)
	}
}

func TestMaximizeCancelsAutoClose(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.c.Minimize()
	ft.tick(120)
	ft.tick(5)
	ft.c.Maximize()
	s := ft.c.Snapshot()
	if s.Popup != PopupOpen || s.AutoCloseSeconds != 0 {
		t.Fatalf("popup = %s autoClose = %d after maximize", s.Popup, s.AutoCloseSeconds)
	}
	ft.tick(10)
	if ft.c.Snapshot().Popup != PopupOpen {
		t.Fatal("popup closed after the auto-close was cancelled")
	}
}

func TestResendCancelsAutoClose(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.c.Minimize()
	ft.tick(120)
	ft.tick(5)
	ft.c.Resend()
	s := ft.c.Snapshot()
	if s.AutoCloseSeconds != 0 {
		t.Fatalf("autoClose = %d after resend", s.AutoCloseSeconds)
	}
	if s.TTLSeconds != 120 || !s.InputEnabled {
		t.Fatalf("ttl = %d input = %v after resend", s.TTLSeconds, s.InputEnabled)
	}
	ft.tick(10)
	if ft.c.Snapshot().Popup != PopupMinimized {
		t.Fatal("popup did not survive the cancelled auto-close")
	}
}

func TestCloseKeepsTransactionTracked(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.c.ClosePopup()
	s := ft.c.Snapshot()
	if s.Popup != PopupClosed {
		t.Fatal("popup not closed")
	}
	if s.TransactionID != 1 {
		t.Fatalf("transaction = %d, want still tracked", s.TransactionID)
	}

	// Paying again resumes the same transaction with a fresh code
	// instead of initiating a new one.
	ft.c.Pay()
	if ft.api.initiateCalls != 1 {
		t.Fatalf("initiate calls = %d, want 1", ft.api.initiateCalls)
	}
	if ft.api.resendCalls != 1 || ft.api.lastResendID != 1 {
		t.Fatalf("resend calls = %d id = %d", ft.api.resendCalls, ft.api.lastResendID)
	}
	s = ft.c.Snapshot()
	if s.Popup != PopupOpen || s.TTLSeconds != 120 || s.CooldownSeconds != 30 {
		t.Fatalf("popup = %s ttl = %d cooldown = %d after resume", s.Popup, s.TTLSeconds, s.CooldownSeconds)
	}
}

func TestStaleTickSkipsReopenedSession(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)
	gen := ft.c.gen

	// A tick can already be queued on the loop when the popup closes. It
	// must not drain into the session opened right after.
	ft.c.ClosePopup()
	ft.c.Pay()
	ft.c.sessionTick(gen, ft.c.tickTTL)
	if s := ft.c.Snapshot(); s.TTLSeconds != 120 {
		t.Fatalf("ttl = %d, want untouched 120", s.TTLSeconds)
	}

	// A tick stamped with the live generation still counts down.
	ft.c.sessionTick(ft.c.gen, ft.c.tickTTL)
	if s := ft.c.Snapshot(); s.TTLSeconds != 119 {
		t.Fatalf("ttl = %d, want 119", s.TTLSeconds)
	}
}

func TestReopenSurvivesResendTooSoon(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)
	ft.c.ClosePopup()

	// Resuming right away trips the server-side resend spacing, but the
	// popup still opens with the window that remains of the old code.
	ft.api.resendErr = &api.APIError{
		Status:  http.StatusTooManyRequests,
		Message: "Please wait 20 seconds before resending OTP",
	}
	ft.api.history = []api.Transaction{{
		ID:        1,
		Status:    "PENDING_OTP",
		StudentID: "523H0111",
		CreatedAt: ft.clock.now.Add(-40 * time.Second),
	}}
	ft.c.Pay()
	s := ft.c.Snapshot()
	if s.Popup != PopupOpen {
		t.Fatal("popup not reopened after a failed resend")
	}
	if s.TTLSeconds != 80 {
		t.Fatalf("ttl = %d, want remaining 80", s.TTLSeconds)
	}
	if len(ft.notes.errors) != 1 {
		t.Fatalf("errors = %v, want the resend rejection", ft.notes.errors)
	}
}

func TestConflictAdoptsPendingTransaction(t *testing.T) {
	ft := newFlowFixture(t)
	ft.api.initiateErr = &api.APIError{
		Status:  http.StatusConflict,
		Message: "There is already a pending payment transaction for this student. Please wait for it to complete or expire. ID: 42",
	}
	ft.api.resendTTL = 90
	ft.startPayment(t)

	if ft.api.resendCalls != 1 || ft.api.lastResendID != 42 {
		t.Fatalf("resend calls = %d id = %d, want adoption of 42", ft.api.resendCalls, ft.api.lastResendID)
	}
	s := ft.c.Snapshot()
	if s.TransactionID != 42 || s.TTLSeconds != 90 {
		t.Fatalf("transaction = %d ttl = %d", s.TransactionID, s.TTLSeconds)
	}
	if len(ft.notes.errors) == 0 {
		t.Fatal("conflict not surfaced to the user")
	}
}

func TestPollClearsFailedTransactionOnce(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.api.history = []api.Transaction{{ID: 1, Status: "FAILED", StudentID: "523H0111"}}
	ft.c.pollTick()
	s := ft.c.Snapshot()
	if s.TransactionID != 0 || s.Popup != PopupClosed {
		t.Fatalf("transaction = %d popup = %s after failure", s.TransactionID, s.Popup)
	}
	if len(ft.notes.errors) != 1 {
		t.Fatalf("errors = %v, want exactly one notice", ft.notes.errors)
	}

	// With nothing tracked the poller does not even hit the server.
	calls := ft.api.historyCalls
	ft.c.pollTick()
	if ft.api.historyCalls != calls {
		t.Fatal("poll ran without a tracked transaction")
	}
}

func TestPollClearsExpiredTransaction(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.api.history = []api.Transaction{{ID: 1, Status: "EXPIRED", StudentID: "523H0111"}}
	ft.c.pollTick()
	s := ft.c.Snapshot()
	if s.TransactionID != 0 || s.Popup != PopupClosed {
		t.Fatalf("transaction = %d popup = %s after expiry", s.TransactionID, s.Popup)
	}
	if len(ft.notes.errors) != 1 {
		t.Fatalf("errors = %v, want exactly one notice", ft.notes.errors)
	}
}

func TestPollCompletedFinishesPayment(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.api.history = []api.Transaction{{ID: 1, Status: "COMPLETED", StudentID: "523H0111"}}
	ft.c.pollTick()
	s := ft.c.Snapshot()
	if s.TransactionID != 0 {
		t.Fatal("completed transaction still tracked")
	}
	if s.Tuition == nil || !s.Tuition.Paid {
		t.Fatal("tuition not marked paid")
	}
	if len(ft.notes.successes) == 0 {
		t.Fatal("completion not surfaced to the user")
	}
}

func TestPollUpdatesActiveStatus(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.api.history = []api.Transaction{{ID: 1, Status: "PROCESSING", StudentID: "523H0111"}}
	ft.c.pollTick()
	s := ft.c.Snapshot()
	if s.TransactionID != 1 || s.TransactionStatus != session.StatusProcessing {
		t.Fatalf("transaction = %d %s, want 1 PROCESSING", s.TransactionID, s.TransactionStatus)
	}
	if s.Popup != PopupOpen {
		t.Fatal("popup closed while transaction still active")
	}
}

func TestLoginResumesPendingTransaction(t *testing.T) {
	ft := newFlowFixture(t)
	id := int64(7)
	ft.api.loginRes.PendingTransactionID = &id
	ft.api.history = []api.Transaction{{
		ID:        7,
		Status:    "PENDING_OTP",
		StudentID: "523H0111",
		Semester:  "HK1-2627",
		Amount:    12_500_000,
		CreatedAt: ft.clock.now.Add(-30 * time.Second),
	}}

	ft.signIn(t)
	s := ft.c.Snapshot()
	if s.TransactionID != 7 || s.Popup != PopupOpen {
		t.Fatalf("transaction = %d popup = %s after resume", s.TransactionID, s.Popup)
	}
	if s.TTLSeconds != 90 {
		t.Fatalf("ttl = %d, want remaining 90", s.TTLSeconds)
	}
}

func TestLoginResumeWithSpentWindow(t *testing.T) {
	ft := newFlowFixture(t)
	id := int64(7)
	ft.api.loginRes.PendingTransactionID = &id
	ft.api.history = []api.Transaction{{
		ID:        7,
		Status:    "PENDING_OTP",
		StudentID: "523H0111",
		CreatedAt: ft.clock.now.Add(-200 * time.Second),
	}}

	ft.signIn(t)
	s := ft.c.Snapshot()
	if s.Popup != PopupOpen {
		t.Fatal("popup not reopened")
	}
	if s.TTLSeconds != 0 || s.InputEnabled {
		t.Fatalf("ttl = %d input = %v, want disabled", s.TTLSeconds, s.InputEnabled)
	}
}

func TestLogoutTearsEverythingDown(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.c.Logout()
	s := ft.c.Snapshot()
	if s.LoggedIn || s.TransactionID != 0 || s.Popup != PopupClosed || s.Tuition != nil {
		t.Fatalf("state after logout = %+v", s)
	}
	if ft.api.token != "" {
		t.Fatalf("token = %q, want cleared", ft.api.token)
	}
	if saved, _ := ft.auth.Load(); saved != nil {
		t.Fatal("session file survived logout")
	}
}

func TestLateConfirmResponseIsDiscarded(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	// The popup closes while the confirm request is on the wire; its
	// completion belongs to a dead session and must not mutate state.
	ft.api.onConfirm = func() { ft.c.closeOTP() }
	successes := len(ft.notes.successes)
	ft.c.Paste("123456")
	if ft.api.confirmCalls != 1 {
		t.Fatalf("confirm calls = %d, want 1", ft.api.confirmCalls)
	}
	s := ft.c.Snapshot()
	if s.Popup != PopupClosed {
		t.Fatal("popup reopened by a stale completion")
	}
	if s.Tuition == nil || s.Tuition.Paid {
		t.Fatal("stale completion marked the tuition paid")
	}
	if s.TransactionID != 1 {
		t.Fatalf("transaction = %d, want still tracked for reconciliation", s.TransactionID)
	}
	if len(ft.notes.successes) != successes {
		t.Fatalf("stale completion surfaced a notice: %v", ft.notes.successes)
	}
}

func TestResendLimitBreachDropsTransaction(t *testing.T) {
	ft := newFlowFixture(t)
	ft.startPayment(t)

	ft.api.resendErr = &api.APIError{
		Status:  http.StatusTooManyRequests,
		Message: "Exceeded maximum OTP resends. Transaction failed.",
	}
	ft.c.Resend()
	s := ft.c.Snapshot()
	if s.TransactionID != 0 || s.Popup != PopupClosed {
		t.Fatalf("transaction = %d popup = %s after resend limit", s.TransactionID, s.Popup)
	}
	if len(ft.notes.errors) != 1 {
		t.Fatalf("errors = %v, want one notice", ft.notes.errors)
	}
}
