// Package checkoutflow drives a hosted checkout popup through payment
// confirmation. Two racing signal sources are reconciled by a single event
// loop: completion messages posted by the checkout window, and a poller
// that detects the window being closed. A settled flag guards against the
// race where the window closes right after posting success.
package checkoutflow

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the orchestrator state.
type State string

const (
	StateIdle            State = "idle"
	StateAwaitingPayment State = "awaiting_payment"
	StateConfirming      State = "confirming"
	StateConfirmed       State = "confirmed"
	StateCancelled       State = "cancelled"
	StateErrored         State = "errored"
)

// Message types posted by the checkout window.
const (
	TypePaymentSuccess   = "payment-success"
	TypePaymentCancelled = "payment-cancelled"
)

// Message is a completion signal from the checkout window. Messages whose
// Origin does not match the flow's origin are ignored.
type Message struct {
	Type    string
	Tracker string
	Origin  string
}

var (
	// ErrPopupBlocked means the checkout window could not be opened.
	ErrPopupBlocked = errors.New("checkout window blocked")
	// ErrBusy means a payment attempt is already in flight.
	ErrBusy = errors.New("payment flow already in progress")
	// ErrNoSession means Retry was called before a session was initiated.
	ErrNoSession = errors.New("no checkout session to retry")
	// ErrCancelled means the payer closed the window before completing.
	ErrCancelled = errors.New("payment cancelled")
)

// Window is a handle to an open checkout window.
type Window interface {
	Closed() bool
	Close()
}

// Opener opens the checkout URL in a new window. A nil window or an error
// means the popup was blocked.
type Opener func(url string) (Window, error)

// Session is the server's answer to a payment initiation.
type Session struct {
	CheckoutURL  string
	TrackerToken string
}

// Service is the payment initiation and confirmation surface the flow
// drives. Implemented over HTTP by Client.
type Service interface {
	Initiate(ctx context.Context, bookingID, returnURL, cancelURL string) (*Session, error)
	Confirm(ctx context.Context, bookingID, tracker string) error
}

// DefaultPollInterval is how often the closed-window poller fires.
const DefaultPollInterval = 500 * time.Millisecond

// Flow is the client payment orchestrator. All orchestration runs on a
// single event loop goroutine; external code feeds it messages via Deliver
// and observes it via State/Err.
type Flow struct {
	opener       Opener
	svc          Service
	origin       string
	pollInterval time.Duration

	mu        sync.Mutex
	state     State
	settled   bool
	inFlight  bool
	bookingID string
	returnURL string
	cancelURL string
	tracker   string
	checkout  string
	window    Window
	lastErr   error

	messages chan Message
	stop     chan struct{}
	stopOnce sync.Once
	loopWG   sync.WaitGroup
}

// Option configures a Flow.
type Option func(*Flow)

// WithPollInterval overrides the closed-window poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(f *Flow) { f.pollInterval = d }
}

// New creates a Flow. The origin is matched against message origins; the
// opener opens the hosted checkout window.
func New(svc Service, opener Opener, origin string, opts ...Option) *Flow {
	f := &Flow{
		opener:       opener,
		svc:          svc,
		origin:       origin,
		pollInterval: DefaultPollInterval,
		state:        StateIdle,
		messages:     make(chan Message, 4),
		stop:         make(chan struct{}),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Start initiates a payment session and opens the checkout window. The flow
// only enters awaiting_payment after the server has durably stored the
// tracker, so Confirm can never race an unstored session. Duplicate Start
// calls while a request is in flight fail with ErrBusy.
func (f *Flow) Start(ctx context.Context, bookingID, returnURL, cancelURL string) error {
	f.mu.Lock()
	if f.inFlight || f.state == StateAwaitingPayment || f.state == StateConfirming {
		f.mu.Unlock()
		return ErrBusy
	}
	f.inFlight = true
	f.bookingID = bookingID
	f.returnURL = returnURL
	f.cancelURL = cancelURL
	f.mu.Unlock()

	sess, err := f.svc.Initiate(ctx, bookingID, returnURL, cancelURL)

	f.mu.Lock()
	f.inFlight = false
	if err != nil {
		f.state = StateErrored
		f.lastErr = err
		f.mu.Unlock()
		return err
	}
	f.tracker = sess.TrackerToken
	f.checkout = sess.CheckoutURL
	f.mu.Unlock()

	return f.openWindow(ctx)
}

// Retry re-opens the checkout window after a cancellation or error. It
// reuses the session already initiated; Initiate is not called again.
func (f *Flow) Retry(ctx context.Context) error {
	f.mu.Lock()
	if f.state == StateAwaitingPayment || f.state == StateConfirming || f.inFlight {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.tracker == "" || f.checkout == "" {
		f.mu.Unlock()
		return ErrNoSession
	}
	f.mu.Unlock()

	return f.openWindow(ctx)
}

// openWindow opens the popup and starts the event loop. A blocked popup
// transitions straight to errored without starting listener or poller.
func (f *Flow) openWindow(ctx context.Context) error {
	f.mu.Lock()
	url := f.checkout
	f.mu.Unlock()

	w, err := f.opener(url)
	if err != nil || w == nil {
		f.mu.Lock()
		f.state = StateErrored
		f.lastErr = ErrPopupBlocked
		f.mu.Unlock()
		return ErrPopupBlocked
	}

	// Discard signals buffered outside an attempt; a stale success or
	// cancel from a previous window must not settle this one.
	for {
		select {
		case <-f.messages:
			continue
		default:
		}
		break
	}

	f.mu.Lock()
	f.window = w
	f.state = StateAwaitingPayment
	f.settled = false
	f.mu.Unlock()

	f.loopWG.Add(1)
	go f.run(ctx)
	return nil
}

// run is the single-threaded event loop: it watches for completion
// messages and polls the window for closure until a terminal transition.
func (f *Flow) run(ctx context.Context) {
	defer f.loopWG.Done()
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.stop:
			f.teardown()
			return
		case <-ctx.Done():
			f.teardown()
			return
		case msg := <-f.messages:
			if done := f.handleMessage(ctx, msg); done {
				return
			}
		case <-ticker.C:
			if done := f.handleTick(ctx); done {
				return
			}
		}
	}
}

// handleMessage processes a completion signal. Returns true when the flow
// reached a terminal state and the loop should exit.
func (f *Flow) handleMessage(ctx context.Context, msg Message) bool {
	if msg.Origin != f.origin {
		return false
	}

	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}

	switch msg.Type {
	case TypePaymentSuccess:
		f.settled = true
		f.state = StateConfirming
		if msg.Tracker != "" {
			f.tracker = msg.Tracker
		}
		bookingID, tracker := f.bookingID, f.tracker
		f.mu.Unlock()

		err := f.svc.Confirm(ctx, bookingID, tracker)

		f.mu.Lock()
		if err != nil {
			f.state = StateErrored
			f.lastErr = err
			// The tracker is kept so Retry can re-enter awaiting_payment
			// without re-initiating.
		} else {
			f.state = StateConfirmed
		}
		f.closeWindowLocked()
		f.mu.Unlock()
		return true

	case TypePaymentCancelled:
		f.settled = true
		f.state = StateCancelled
		f.lastErr = ErrCancelled
		f.closeWindowLocked()
		f.mu.Unlock()
		return true

	default:
		f.mu.Unlock()
		return false
	}
}

// handleTick checks whether the payer closed the window. A pending
// completion message always wins over the closed-window signal, covering
// windows that auto-close right after posting success.
func (f *Flow) handleTick(ctx context.Context) bool {
	f.mu.Lock()
	if f.settled || f.state != StateAwaitingPayment {
		f.mu.Unlock()
		return false
	}
	closed := f.window != nil && f.window.Closed()
	f.mu.Unlock()

	if !closed {
		return false
	}

	// Drain a message that raced the close before treating it as a cancel.
	select {
	case msg := <-f.messages:
		return f.handleMessage(ctx, msg)
	default:
	}

	f.mu.Lock()
	f.settled = true
	f.state = StateCancelled
	f.lastErr = ErrCancelled
	f.closeWindowLocked()
	f.mu.Unlock()
	return true
}

// Deliver feeds a completion message to the event loop. Messages delivered
// while no attempt is running are dropped.
func (f *Flow) Deliver(msg Message) {
	select {
	case f.messages <- msg:
	default:
	}
}

// Stop tears the flow down from any state: the window is closed if still
// open and the poller is stopped. Safe to call more than once.
func (f *Flow) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
	f.loopWG.Wait()

	// The loop may never have started (popup blocked, idle).
	f.mu.Lock()
	f.closeWindowLocked()
	f.mu.Unlock()
}

func (f *Flow) teardown() {
	f.mu.Lock()
	f.closeWindowLocked()
	f.mu.Unlock()
}

func (f *Flow) closeWindowLocked() {
	if f.window != nil {
		if !f.window.Closed() {
			f.window.Close()
		}
		f.window = nil
	}
}

// State returns the current orchestrator state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the error behind an errored or cancelled state.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Tracker returns the tracker token of the current session.
func (f *Flow) Tracker() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tracker
}
