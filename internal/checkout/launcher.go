package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/mechmaster/subscription-management/internal"
	"github.com/mechmaster/subscription-management/internal/paymentgateway"
	"github.com/mechmaster/subscription-management/internal/pricing"
	"github.com/mechmaster/subscription-management/internal/subscription"
)

// State is a step in the payment launch flow.
type State int

const (
	StateIdle State = iota
	StateLoadingWidget
	StateWidgetLoadFailed
	StateWidgetReady
	StateOrderRequested
	StateOrderFailed
	StateAwaitingUserAction
	StateUserDismissed
	StateCallbackReceived
	StateVerificationRequested
	StateVerificationSucceeded
	StateVerificationFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingWidget:
		return "loading_widget"
	case StateWidgetLoadFailed:
		return "widget_load_failed"
	case StateWidgetReady:
		return "widget_ready"
	case StateOrderRequested:
		return "order_requested"
	case StateOrderFailed:
		return "order_failed"
	case StateAwaitingUserAction:
		return "awaiting_user_action"
	case StateUserDismissed:
		return "user_dismissed"
	case StateCallbackReceived:
		return "callback_received"
	case StateVerificationRequested:
		return "verification_requested"
	case StateVerificationSucceeded:
		return "verification_succeeded"
	case StateVerificationFailed:
		return "verification_failed"
	default:
		return "unknown"
	}
}

// Prefill carries the account details shown in the payment widget.
type Prefill struct {
	Name    string
	Email   string
	Contact string
}

// OpenParams is everything the widget needs to present the payment form.
type OpenParams struct {
	OrderID  string
	Amount   int64
	Currency string
	Prefill  Prefill
}

// Widget abstracts the hosted payment form. Load is idempotent; a second
// call after success returns immediately.
type Widget interface {
	Load(ctx context.Context) error
	Open(ctx context.Context, params OpenParams) error
}

// OrderAPI creates the gateway order the widget is opened with.
type OrderAPI interface {
	CreateOrder(ctx context.Context, clientAmount int64, currency string) (*paymentgateway.Order, error)
}

// VerifierAPI runs the server-side verification on the gateway callback.
type VerifierAPI interface {
	VerifyPayment(ctx context.Context, userID int64, callback subscription.PaymentCallback, expectedAmount int64) (*subscription.VerificationResult, error)
}

// Result is the terminal outcome of one launch. Verification is set only
// when State is StateVerificationSucceeded.
type Result struct {
	State        State
	Order        *paymentgateway.Order
	Verification *subscription.VerificationResult
}

// Launcher drives one payment attempt from widget load to verification.
// A Launcher is single-use; create a new one per attempt.
type Launcher struct {
	widget   Widget
	orders   OrderAPI
	verifier VerifierAPI
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	callbacks chan subscription.PaymentCallback
	dismissed chan struct{}
	onceDone  sync.Once
}

func NewLauncher(widget Widget, orders OrderAPI, verifier VerifierAPI, userActionTimeout time.Duration, logger *slog.Logger) *Launcher {
	if userActionTimeout == 0 {
		userActionTimeout = 10 * time.Minute
	}
	return &Launcher{
		widget:    widget,
		orders:    orders,
		verifier:  verifier,
		timeout:   userActionTimeout,
		logger:    logger,
		state:     StateIdle,
		callbacks: make(chan subscription.PaymentCallback, 1),
		dismissed: make(chan struct{}),
	}
}

// State reports the current step of the flow.
func (l *Launcher) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Launcher) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
	l.logger.Info("checkout state changed", "state", s.String())
}

// HandleCallback delivers the gateway's payment callback to a launcher
// waiting in AwaitingUserAction. Extra callbacks are dropped.
func (l *Launcher) HandleCallback(cb subscription.PaymentCallback) {
	select {
	case l.callbacks <- cb:
	default:
		l.logger.Warn("payment callback dropped: launcher not waiting",
			"order_id", cb.OrderID,
			"payment_id", cb.PaymentID)
	}
}

// Dismiss records that the user closed the payment form. Dismissal is a
// terminal state, not an error.
func (l *Launcher) Dismiss() {
	l.onceDone.Do(func() {
		close(l.dismissed)
	})
}

// Run executes the flow for userID and blocks until a terminal state. The
// wait for user action is bounded by the configured timeout and by ctx.
func (l *Launcher) Run(ctx context.Context, userID int64, prefill Prefill) (*Result, error) {
	l.setState(StateLoadingWidget)
	if err := l.widget.Load(ctx); err != nil {
		l.setState(StateWidgetLoadFailed)
		l.logger.Error("payment widget failed to load", "error", err)
		return &Result{State: StateWidgetLoadFailed},
			apperrors.NewExternalError("payment system failed to load", apperrors.ErrCodeWidgetUnavailable).WithCause(err)
	}
	l.setState(StateWidgetReady)

	l.setState(StateOrderRequested)
	order, err := l.orders.CreateOrder(ctx, pricing.AmountMinor(), pricing.Currency())
	if err != nil {
		l.setState(StateOrderFailed)
		l.logger.Error("checkout order creation failed", "error", err, "user_id", userID)
		return &Result{State: StateOrderFailed}, err
	}

	if err := l.widget.Open(ctx, OpenParams{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Prefill:  prefill,
	}); err != nil {
		l.setState(StateWidgetLoadFailed)
		l.logger.Error("payment widget failed to open", "error", err, "order_id", order.ID)
		return &Result{State: StateWidgetLoadFailed, Order: order},
			apperrors.NewExternalError("payment system failed to open", apperrors.ErrCodeWidgetUnavailable).WithCause(err)
	}

	l.setState(StateAwaitingUserAction)

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		l.setState(StateUserDismissed)
		l.logger.Info("checkout cancelled", "order_id", order.ID, "user_id", userID)
		return &Result{State: StateUserDismissed, Order: order}, ctx.Err()

	case <-timer.C:
		l.setState(StateUserDismissed)
		l.logger.Info("checkout timed out waiting for user action",
			"order_id", order.ID,
			"user_id", userID,
			"timeout", l.timeout)
		return &Result{State: StateUserDismissed, Order: order}, nil

	case <-l.dismissed:
		l.setState(StateUserDismissed)
		l.logger.Info("checkout dismissed by user", "order_id", order.ID, "user_id", userID)
		return &Result{State: StateUserDismissed, Order: order}, nil

	case cb := <-l.callbacks:
		l.setState(StateCallbackReceived)

		l.setState(StateVerificationRequested)
		verification, err := l.verifier.VerifyPayment(ctx, userID, cb, pricing.AmountMinor())
		if err != nil {
			l.setState(StateVerificationFailed)
			l.logger.Warn("checkout verification failed",
				"error", err,
				"order_id", cb.OrderID,
				"payment_id", cb.PaymentID,
				"user_id", userID)
			return &Result{State: StateVerificationFailed, Order: order}, err
		}

		l.setState(StateVerificationSucceeded)
		return &Result{
			State:        StateVerificationSucceeded,
			Order:        order,
			Verification: verification,
		}, nil
	}
}
