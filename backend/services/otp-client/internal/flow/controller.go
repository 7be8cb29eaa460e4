package flow

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"ibanking/backend/services/otp-client/internal/api"
	"ibanking/backend/services/otp-client/internal/authstate"
	"ibanking/backend/services/otp-client/internal/session"
)

// API is the slice of the payment backend the controller drives.
type API interface {
	SetToken(token string)
	Login(ctx context.Context, username, password string) (*api.LoginResult, error)
	Me(ctx context.Context) (*api.Profile, error)
	LookupTuition(ctx context.Context, studentID string) (*api.Tuition, error)
	Initiate(ctx context.Context, studentID string) (*api.InitiateResult, error)
	ResendOTP(ctx context.Context, transactionID int64) (int, error)
	Confirm(ctx context.Context, transactionID int64, otp string) (string, error)
	History(ctx context.Context) ([]api.Transaction, error)
}

// Notifier receives user-facing outcome messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Config carries the client-side timing parameters.
type Config struct {
	DefaultTTLSeconds     int
	ResendCooldownSeconds int
	AutoCloseSeconds      int
	PollInterval          time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultTTLSeconds == 0 {
		c.DefaultTTLSeconds = 120
	}
	if c.ResendCooldownSeconds == 0 {
		c.ResendCooldownSeconds = 30
	}
	if c.AutoCloseSeconds == 0 {
		c.AutoCloseSeconds = 10
	}
	if c.PollInterval == 0 {
		c.PollInterval = 5 * time.Second
	}
	return c
}

// otpSession is the live OTP entry state for one popup. It exists only
// between popup open and close; closing the popup destroys it while the
// underlying transaction may stay tracked.
type otpSession struct {
	transactionID int64
	countdown     countdown
	entry         otpEntry
	resendCount   int
}

// Controller orchestrates the whole payment flow: login and session
// restore, tuition lookup, transaction initiation, the OTP popup with
// its three countdowns, and background reconciliation against the
// server's transaction history. All state lives on the Runtime's loop;
// network calls run off-loop and report back via posted completions.
type Controller struct {
	ctx      context.Context
	rt       Runtime
	clock    Clock
	api      API
	notifier Notifier
	auth     *authstate.Store
	logger   *zap.Logger
	cfg      Config

	loggedIn  bool
	token     string
	profile   api.Profile
	studentID string
	tuition   *api.Tuition

	txns  *session.Store
	otp   *otpSession
	popup PopupState

	// gen invalidates in-flight request completions when the OTP
	// session they belong to is torn down.
	gen uint64

	resendInFlight bool
	submitInFlight bool
	pollInFlight   bool

	stopTTL       func()
	stopCooldown  func()
	stopAutoClose func()
	stopPoll      func()
}

// NewController wires the flow controller. ctx bounds every network
// call the controller issues.
func NewController(ctx context.Context, rt Runtime, clock Clock, apiClient API, notifier Notifier, auth *authstate.Store, logger *zap.Logger, cfg Config) *Controller {
	return &Controller{
		ctx:      ctx,
		rt:       rt,
		clock:    clock,
		api:      apiClient,
		notifier: notifier,
		auth:     auth,
		logger:   logger,
		cfg:      cfg.withDefaults(),
		txns:     session.NewStore(),
	}
}

// State is a point-in-time copy of everything the UI renders.
type State struct {
	LoggedIn  bool
	Profile   api.Profile
	StudentID string
	Tuition   *api.Tuition

	TransactionID     int64
	TransactionStatus session.Status

	Popup            PopupState
	TTLSeconds       int
	CooldownSeconds  int
	AutoCloseSeconds int
	InputEnabled     bool
	Slots            [otpLength]string
	Focus            int
	ResendCount      int
}

// Snapshot returns a consistent copy of the flow state. It blocks until
// the loop serves it.
func (c *Controller) Snapshot() State {
	ch := make(chan State, 1)
	c.rt.Post(func() { ch <- c.snapshot() })
	return <-ch
}

func (c *Controller) snapshot() State {
	s := State{
		LoggedIn:  c.loggedIn,
		Profile:   c.profile,
		StudentID: c.studentID,
		Popup:     c.popup,
	}
	if c.tuition != nil {
		t := *c.tuition
		s.Tuition = &t
	}
	if tx := c.txns.Current(); tx != nil {
		s.TransactionID = tx.ID
		s.TransactionStatus = tx.Status
	}
	if c.otp != nil {
		s.TTLSeconds = c.otp.countdown.ttlSeconds
		s.CooldownSeconds = c.otp.countdown.cooldownSeconds
		s.AutoCloseSeconds = c.otp.countdown.autoCloseSeconds
		s.InputEnabled = c.otp.countdown.inputEnabled()
		s.Focus = c.otp.entry.focus
		s.ResendCount = c.otp.resendCount
		for i, r := range c.otp.entry.slots {
			if r != 0 {
				s.Slots[i] = string(r)
			}
		}
	}
	return s
}

// RestoreSession loads the persisted auth blob, installs it, and
// re-fetches the profile so the cached copy cannot go stale.
func (c *Controller) RestoreSession() {
	c.rt.Post(c.restoreSession)
}

func (c *Controller) restoreSession() {
	state, err := c.auth.Load()
	if err != nil {
		c.logger.Warn("failed to load saved session", zap.Error(err))
		return
	}
	if state == nil {
		return
	}
	c.token = state.Token
	c.profile = state.Profile
	c.loggedIn = true
	c.api.SetToken(state.Token)

	c.rt.Go(func() {
		profile, err := c.api.Me(c.ctx)
		c.rt.Post(func() {
			if !c.loggedIn {
				return
			}
			if err != nil {
				var apiErr *api.APIError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
					c.resetAuth()
				} else {
					c.logger.Warn("profile refresh failed", zap.Error(err))
				}
				return
			}
			c.profile = *profile
			c.persistAuth()
		})
	})
}

// Login authenticates and, when the server reports a pending
// transaction, resumes its OTP session.
func (c *Controller) Login(username, password string) {
	c.rt.Post(func() { c.login(username, password) })
}

func (c *Controller) login(username, password string) {
	c.rt.Go(func() {
		res, err := c.api.Login(c.ctx, username, password)
		c.rt.Post(func() {
			if err != nil {
				c.notifier.Error(messageOf(err))
				return
			}
			c.token = res.Token
			c.profile = api.Profile{
				FullName: res.FullName,
				Phone:    res.Phone,
				Email:    res.Email,
				Balance:  res.Balance,
			}
			c.loggedIn = true
			c.api.SetToken(res.Token)
			c.persistAuth()
			c.notifier.Success("Signed in")
			if res.PendingTransactionID != nil {
				c.resumePending(*res.PendingTransactionID)
			}
		})
	})
}

// resumePending reopens the OTP popup for a transaction that was still
// active when the previous session ended. The popup opens immediately
// with the default TTL; the history fetch then corrects the TTL to
// whatever survives of the original window.
func (c *Controller) resumePending(id int64) {
	c.trackTransaction(session.Transaction{ID: id, Status: session.StatusPendingOTP})
	c.openOTP(c.cfg.DefaultTTLSeconds, 0)
	c.refineFromHistory(id)
}

// refineFromHistory replaces the optimistic default TTL with the window
// that actually remains, computed from the server-side issue timestamp.
// A transaction the server reports ended is cleared instead.
func (c *Controller) refineFromHistory(id int64) {
	gen := c.gen
	c.rt.Go(func() {
		txs, err := c.api.History(c.ctx)
		c.rt.Post(func() {
			if gen != c.gen {
				return
			}
			if err != nil {
				c.logger.Warn("pending transaction lookup failed", zap.Error(err))
				return
			}
			for _, tx := range txs {
				if tx.ID != id {
					continue
				}
				status := session.Status(tx.Status)
				if !status.Active() {
					c.notifier.Error("Your pending transaction has already ended")
					c.dropTransaction()
					return
				}
				c.txns.SetActive(session.Transaction{
					ID:        tx.ID,
					StudentID: tx.StudentID,
					Semester:  tx.Semester,
					Amount:    tx.Amount,
					Status:    status,
				})
				elapsed := int(c.clock.Now().Sub(tx.CreatedAt) / time.Second)
				remaining := c.cfg.DefaultTTLSeconds - elapsed
				if remaining < 0 {
					remaining = 0
				}
				c.setTTL(remaining)
				return
			}
			c.dropTransaction()
		})
	})
}

// Logout tears down everything: the tracked transaction, the OTP
// session, and the persisted auth state.
func (c *Controller) Logout() {
	c.rt.Post(func() {
		c.dropTransaction()
		c.resetAuth()
	})
}

func (c *Controller) resetAuth() {
	c.loggedIn = false
	c.token = ""
	c.profile = api.Profile{}
	c.studentID = ""
	c.tuition = nil
	c.api.SetToken("")
	if err := c.auth.Clear(); err != nil {
		c.logger.Warn("failed to clear saved session", zap.Error(err))
	}
}

func (c *Controller) persistAuth() {
	if err := c.auth.Save(authstate.State{Token: c.token, Profile: c.profile}); err != nil {
		c.logger.Warn("failed to persist session", zap.Error(err))
	}
}

// Lookup fetches the tuition record for a student id. Responses for a
// student id that is no longer the one on screen are discarded.
func (c *Controller) Lookup(studentID string) {
	c.rt.Post(func() { c.lookup(studentID) })
}

func (c *Controller) lookup(studentID string) {
	c.studentID = studentID
	c.tuition = nil
	if len(studentID) != 8 {
		return
	}
	c.rt.Go(func() {
		tuition, err := c.api.LookupTuition(c.ctx, studentID)
		c.rt.Post(func() {
			if c.studentID != studentID {
				return
			}
			if err != nil {
				c.logger.Debug("tuition lookup failed", zap.String("student_id", studentID), zap.Error(err))
				return
			}
			c.tuition = tuition
		})
	})
}

// Pay starts the payment for the looked-up tuition. If a transaction is
// already being tracked the existing one is resumed with a fresh code
// instead of initiating a second.
func (c *Controller) Pay() {
	c.rt.Post(c.pay)
}

func (c *Controller) pay() {
	if !c.loggedIn || c.tuition == nil {
		c.notifier.Error("Look up a student before paying")
		return
	}
	if c.otp != nil {
		c.popup = PopupOpen
		c.otp.countdown.autoCloseSeconds = 0
		c.stopAutoCloseTicker()
		return
	}
	if tx := c.txns.Current(); tx != nil && tx.Status.Active() {
		c.resendForReopen(tx.ID)
		return
	}

	studentID := c.tuition.StudentID
	gen := c.gen
	c.rt.Go(func() {
		res, err := c.api.Initiate(c.ctx, studentID)
		c.rt.Post(func() {
			if gen != c.gen || !c.loggedIn {
				return
			}
			if err != nil {
				var apiErr *api.APIError
				if errors.As(err, &apiErr) {
					if id, ok := apiErr.PendingTransactionID(); ok {
						c.notifier.Error(apiErr.Message)
						c.adoptPending(id, studentID)
						return
					}
				}
				c.notifier.Error(messageOf(err))
				return
			}
			c.trackTransaction(session.Transaction{
				ID:        res.TransactionID,
				StudentID: studentID,
				Semester:  c.tuitionSemester(studentID),
				Amount:    c.tuitionAmount(studentID),
				Status:    session.StatusPendingOTP,
			})
			ttl := res.TTLSeconds
			if ttl <= 0 {
				ttl = c.cfg.DefaultTTLSeconds
			}
			c.openOTP(ttl, 0)
			c.notifier.Success("An OTP has been sent to your email")
		})
	})
}

// adoptPending takes over a transaction the server reported as already
// pending for this student, then immediately requests a fresh code.
func (c *Controller) adoptPending(id int64, studentID string) {
	c.trackTransaction(session.Transaction{
		ID:        id,
		StudentID: studentID,
		Semester:  c.tuitionSemester(studentID),
		Amount:    c.tuitionAmount(studentID),
		Status:    session.StatusPendingOTP,
	})
	c.resendForReopen(id)
}

// resendForReopen requests a fresh code for an already-tracked
// transaction and opens the popup on success. On a non-fatal failure
// the popup still opens so the session stays visible; its TTL is then
// corrected from the server-side issue timestamp.
func (c *Controller) resendForReopen(id int64) {
	if c.resendInFlight {
		return
	}
	c.resendInFlight = true
	gen := c.gen
	c.rt.Go(func() {
		ttl, err := c.api.ResendOTP(c.ctx, id)
		c.rt.Post(func() {
			if gen != c.gen {
				return
			}
			c.resendInFlight = false
			if err != nil {
				c.notifier.Error(messageOf(err))
				if isTransactionFailed(err) {
					c.dropTransaction()
					return
				}
				c.openOTP(c.cfg.DefaultTTLSeconds, 0)
				c.refineFromHistory(id)
				return
			}
			if ttl <= 0 {
				ttl = c.cfg.DefaultTTLSeconds
			}
			c.openOTP(ttl, c.cfg.ResendCooldownSeconds)
			c.notifier.Success("A new OTP has been sent to your email")
		})
	})
}

func (c *Controller) tuitionSemester(studentID string) string {
	if c.tuition != nil && c.tuition.StudentID == studentID {
		return c.tuition.Semester
	}
	return ""
}

func (c *Controller) tuitionAmount(studentID string) float64 {
	if c.tuition != nil && c.tuition.StudentID == studentID {
		return c.tuition.Amount
	}
	return 0
}

// TypeDigit appends one digit to the OTP buffer. Input is ignored when
// the popup is closed or the code has expired.
func (c *Controller) TypeDigit(r rune) {
	c.rt.Post(func() { c.typeDigit(r) })
}

func (c *Controller) typeDigit(r rune) {
	if !c.entryEnabled() {
		return
	}
	if c.otp.entry.typeDigit(r) {
		c.submit()
	}
}

// Backspace removes the most recent digit.
func (c *Controller) Backspace() {
	c.rt.Post(func() {
		if !c.entryEnabled() {
			return
		}
		c.otp.entry.backspace()
	})
}

// Paste fills the OTP buffer from clipboard-style text.
func (c *Controller) Paste(text string) {
	c.rt.Post(func() { c.paste(text) })
}

func (c *Controller) paste(text string) {
	if !c.entryEnabled() {
		return
	}
	if c.otp.entry.paste(text) {
		c.submit()
	}
}

func (c *Controller) entryEnabled() bool {
	return c.otp != nil && c.popup != PopupClosed && c.otp.countdown.inputEnabled()
}

// submit confirms the completed code. At most one confirmation is in
// flight at a time; the entry buffer's own single-shot latch already
// prevents a second completion before a reset.
func (c *Controller) submit() {
	if c.submitInFlight || c.otp == nil {
		return
	}
	c.submitInFlight = true
	gen := c.gen
	id := c.otp.transactionID
	code := c.otp.entry.code()
	c.rt.Go(func() {
		msg, err := c.api.Confirm(c.ctx, id, code)
		c.rt.Post(func() {
			if gen != c.gen {
				return
			}
			c.submitInFlight = false
			if err != nil {
				c.notifier.Error(messageOf(err))
				if isTransactionFailed(err) {
					c.dropTransaction()
					return
				}
				// Re-arm the buffer so a corrected code can be entered.
				c.otp.entry.reset()
				return
			}
			c.notifier.Success(msg)
			c.finishPayment()
		})
	})
}

// finishPayment applies a successful confirmation: the tuition is
// marked paid and the cached balance debited locally so the UI updates
// at once, then the session is torn down and the profile re-fetched
// from the server, which stays authoritative.
func (c *Controller) finishPayment() {
	if tx := c.txns.Current(); tx != nil {
		if c.tuition != nil && c.tuition.StudentID == tx.StudentID {
			c.tuition.Paid = true
			c.tuition.Amount = 0
		}
		if tx.Amount > 0 && c.profile.Balance >= tx.Amount {
			c.profile.Balance -= tx.Amount
			c.persistAuth()
		}
	}
	c.dropTransaction()
	c.refreshProfile()
}

func (c *Controller) refreshProfile() {
	c.rt.Go(func() {
		profile, err := c.api.Me(c.ctx)
		c.rt.Post(func() {
			if !c.loggedIn {
				return
			}
			if err != nil {
				c.logger.Warn("profile refresh failed", zap.Error(err))
				return
			}
			c.profile = *profile
			c.persistAuth()
		})
	})
}

// Resend requests a fresh code from inside the popup. It is a silent
// no-op while the cooldown is running or a resend is already in flight.
func (c *Controller) Resend() {
	c.rt.Post(c.resend)
}

func (c *Controller) resend() {
	if c.otp == nil || c.resendInFlight {
		return
	}
	if c.otp.countdown.cooldownSeconds > 0 {
		return
	}
	c.resendInFlight = true
	gen := c.gen
	id := c.otp.transactionID
	c.rt.Go(func() {
		ttl, err := c.api.ResendOTP(c.ctx, id)
		c.rt.Post(func() {
			if gen != c.gen {
				return
			}
			c.resendInFlight = false
			if err != nil {
				c.notifier.Error(messageOf(err))
				if isTransactionFailed(err) {
					c.dropTransaction()
				}
				return
			}
			if ttl <= 0 {
				ttl = c.cfg.DefaultTTLSeconds
			}
			c.applyResend(ttl)
			c.notifier.Success("A new OTP has been sent to your email")
		})
	})
}

// applyResend installs the fresh code window: new TTL, cleared buffer,
// full cooldown. A pending auto-close is cancelled because the code is
// no longer expired.
func (c *Controller) applyResend(ttl int) {
	c.setTTL(ttl)
	c.otp.entry.reset()
	c.otp.resendCount++
	c.setCooldown(c.cfg.ResendCooldownSeconds)
}

// setTTL replaces the TTL and reconciles the tickers with it.
func (c *Controller) setTTL(ttl int) {
	c.otp.countdown.resetTTL(ttl)
	c.stopAutoCloseTicker()
	if ttl > 0 && c.stopTTL == nil {
		c.stopTTL = c.startSecondTicker(c.tickTTL)
	}
	if ttl == 0 {
		c.stopTTLTicker()
		if c.popup == PopupMinimized {
			c.startAutoClose()
		}
	}
}

func (c *Controller) setCooldown(seconds int) {
	c.otp.countdown.cooldownSeconds = seconds
	if seconds > 0 && c.stopCooldown == nil {
		c.stopCooldown = c.startSecondTicker(c.tickCooldown)
	}
}

// Minimize hides the popup while keeping its session alive. If the code
// already expired, the auto-close window starts immediately.
func (c *Controller) Minimize() {
	c.rt.Post(func() {
		if c.popup != PopupOpen || c.otp == nil {
			return
		}
		c.popup = PopupMinimized
		if !c.otp.countdown.inputEnabled() {
			c.startAutoClose()
		}
	})
}

// Maximize restores a minimized popup and cancels a pending auto-close.
func (c *Controller) Maximize() {
	c.rt.Post(func() {
		if c.popup != PopupMinimized || c.otp == nil {
			return
		}
		c.popup = PopupOpen
		c.otp.countdown.autoCloseSeconds = 0
		c.stopAutoCloseTicker()
	})
}

// ClosePopup dismisses the popup and destroys the OTP session. The
// transaction itself stays tracked; reconciliation keeps following it
// until it reaches a terminal state or the user resumes it.
func (c *Controller) ClosePopup() {
	c.rt.Post(c.closeOTP)
}

func (c *Controller) closeOTP() {
	if c.otp == nil && c.popup == PopupClosed {
		return
	}
	c.stopTTLTicker()
	c.stopCooldownTicker()
	c.stopAutoCloseTicker()
	c.otp = nil
	c.popup = PopupClosed
	c.submitInFlight = false
	c.resendInFlight = false
	c.gen++
}

// dropTransaction forgets the tracked transaction entirely, stopping
// reconciliation along with the popup.
func (c *Controller) dropTransaction() {
	c.closeOTP()
	c.stopPollTicker()
	c.txns.Clear()
}

// trackTransaction records tx as the followed transaction and starts
// the reconciliation poller.
func (c *Controller) trackTransaction(tx session.Transaction) {
	c.txns.SetActive(tx)
	if c.stopPoll == nil {
		c.stopPoll = c.startTicker(c.cfg.PollInterval, c.pollTick)
	}
}

// openOTP creates a fresh OTP session for the tracked transaction.
func (c *Controller) openOTP(ttl, cooldown int) {
	tx := c.txns.Current()
	if tx == nil {
		return
	}
	c.stopTTLTicker()
	c.stopCooldownTicker()
	c.stopAutoCloseTicker()
	c.otp = &otpSession{transactionID: tx.ID}
	c.popup = PopupOpen
	c.setTTL(ttl)
	c.setCooldown(cooldown)
}

func (c *Controller) startAutoClose() {
	c.otp.countdown.autoCloseSeconds = c.cfg.AutoCloseSeconds
	if c.stopAutoClose == nil {
		c.stopAutoClose = c.startSecondTicker(c.tickAutoClose)
	}
}

func (c *Controller) tickTTL() {
	if c.otp == nil {
		return
	}
	if c.otp.countdown.tickTTL() {
		c.stopTTLTicker()
		if c.popup == PopupMinimized {
			c.startAutoClose()
		}
	}
}

func (c *Controller) tickCooldown() {
	if c.otp == nil {
		return
	}
	c.otp.countdown.tickCooldown()
	if c.otp.countdown.cooldownSeconds == 0 {
		c.stopCooldownTicker()
	}
}

func (c *Controller) tickAutoClose() {
	if c.otp == nil {
		return
	}
	if c.otp.countdown.tickAutoClose() {
		c.stopAutoCloseTicker()
		c.closeOTP()
	}
}

// pollTick reconciles the tracked transaction against the server's
// history. A transaction the server reports terminal (or gone) is
// cleared locally with at most one notice.
func (c *Controller) pollTick() {
	tx := c.txns.Current()
	if tx == nil || c.pollInFlight {
		return
	}
	c.pollInFlight = true
	id := tx.ID
	c.rt.Go(func() {
		txs, err := c.api.History(c.ctx)
		c.rt.Post(func() {
			c.pollInFlight = false
			current := c.txns.Current()
			if current == nil || current.ID != id {
				return
			}
			if err != nil {
				c.logger.Debug("history poll failed", zap.Error(err))
				return
			}
			c.reconcile(txs, id)
		})
	})
}

func (c *Controller) reconcile(txs []api.Transaction, id int64) {
	for _, tx := range txs {
		if tx.ID != id {
			continue
		}
		status := session.Status(tx.Status)
		switch {
		case status == session.StatusCompleted:
			c.notifier.Success("Payment completed")
			c.finishPayment()
		case status.Terminal():
			c.notifier.Error("Transaction " + strings.ToLower(string(status)))
			c.dropTransaction()
		default:
			c.txns.SetActive(session.Transaction{
				ID:        tx.ID,
				StudentID: tx.StudentID,
				Semester:  tx.Semester,
				Amount:    tx.Amount,
				Status:    status,
			})
		}
		return
	}
	// The server no longer knows the transaction.
	c.dropTransaction()
}

// startSecondTicker stamps each tick with the current OTP generation.
// A tick already posted onto the loop when the session closes is
// discarded instead of draining into whatever session replaced it, the
// same way late request completions are.
func (c *Controller) startSecondTicker(tick func()) func() {
	gen := c.gen
	return c.startTicker(time.Second, func() { c.sessionTick(gen, tick) })
}

func (c *Controller) sessionTick(gen uint64, tick func()) {
	if gen != c.gen {
		return
	}
	tick()
}

// startTicker runs tick on the loop at the given interval until the
// returned stop func is called.
func (c *Controller) startTicker(interval time.Duration, tick func()) func() {
	ticker := c.clock.Ticker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				c.rt.Post(tick)
			case <-done:
				return
			}
		}
	}()
	var stopped bool
	return func() {
		if !stopped {
			stopped = true
			close(done)
		}
	}
}

func (c *Controller) stopTTLTicker() {
	if c.stopTTL != nil {
		c.stopTTL()
		c.stopTTL = nil
	}
}

func (c *Controller) stopCooldownTicker() {
	if c.stopCooldown != nil {
		c.stopCooldown()
		c.stopCooldown = nil
	}
}

func (c *Controller) stopAutoCloseTicker() {
	if c.stopAutoClose != nil {
		c.stopAutoClose()
		c.stopAutoClose = nil
	}
}

func (c *Controller) stopPollTicker() {
	if c.stopPoll != nil {
		c.stopPoll()
		c.stopPoll = nil
	}
}

func messageOf(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// isTransactionFailed detects server responses that mean the
// transaction itself has been marked FAILED, not just that the request
// was rejected. The server spells these out in the message: the resend
// cap breach and a confirmation after the code lapsed.
func isTransactionFailed(err error) bool {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(apiErr.Message, "Transaction failed")
}
