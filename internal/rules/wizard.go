package rules

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"relaybot/internal/domain"
)

// ErrInvalidForward is returned when the captured message carries no
// recoverable origin chat. The in-progress setup is discarded.
var ErrInvalidForward = errors.New("message has no origin chat")

// SetupState is the transient per-user state of the rule setup wizard
type SetupState struct {
	Step       domain.SetupStep
	SourceID   int64
	SourceName string
}

// Capture is the outcome of feeding a forwarded message to the wizard
type Capture struct {
	// Done is true once both endpoints are captured and the rule is stored
	Done     bool
	ChatName string
	Rule     domain.ForwardingRule
}

// Wizard drives the two-step rule capture flow: first forwarded message
// names the source chat, second names the destination. Independent of the
// login flow.
type Wizard struct {
	store   *Store
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[int64]*SetupState
	timers  map[int64]*time.Timer
}

// NewWizard creates a wizard writing completed rules into store. A zero
// timeout disables setup expiry.
func NewWizard(store *Store, timeout time.Duration, logger *zap.Logger) *Wizard {
	return &Wizard{
		store:   store,
		logger:  logger,
		timeout: timeout,
		pending: make(map[int64]*SetupState),
		timers:  make(map[int64]*time.Timer),
	}
}

// Begin starts (or restarts) the setup flow for the user
func (w *Wizard) Begin(userID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[userID] = &SetupState{Step: domain.StepAwaitingSource}
	w.resetTimer(userID)
}

// Active reports whether the user has a setup in progress
func (w *Wizard) Active(userID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pending[userID]
	return ok
}

// Feed advances the flow with the origin chat of a forwarded message.
// originID must be in canonical form; a zero originID means the message
// carried no recoverable origin and discards the flow with
// ErrInvalidForward.
func (w *Wizard) Feed(userID, originID int64, originName string) (Capture, error) {
	w.mu.Lock()

	state, ok := w.pending[userID]
	if !ok {
		w.mu.Unlock()
		return Capture{}, ErrInvalidForward
	}

	if originID == 0 {
		w.discard(userID)
		w.mu.Unlock()
		return Capture{}, ErrInvalidForward
	}

	if state.Step == domain.StepAwaitingSource {
		state.Step = domain.StepAwaitingDestination
		state.SourceID = originID
		state.SourceName = originName
		w.resetTimer(userID)
		w.mu.Unlock()
		return Capture{ChatName: originName}, nil
	}

	rule := domain.ForwardingRule{
		SourceID:        state.SourceID,
		SourceName:      state.SourceName,
		DestinationID:   originID,
		DestinationName: originName,
		Active:          true,
	}
	w.discard(userID)
	w.mu.Unlock()

	// The write-through happens without the wizard lock held, so one
	// user's slow persistence never stalls another user's setup.
	w.store.Append(userID, rule)
	return Capture{Done: true, ChatName: originName, Rule: rule}, nil
}

// Cancel drops any in-progress setup for the user
func (w *Wizard) Cancel(userID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.discard(userID)
}

// discard is called with the wizard lock held
func (w *Wizard) discard(userID int64) {
	delete(w.pending, userID)
	if t, ok := w.timers[userID]; ok {
		t.Stop()
		delete(w.timers, userID)
	}
}

// resetTimer is called with the wizard lock held
func (w *Wizard) resetTimer(userID int64) {
	if t, ok := w.timers[userID]; ok {
		t.Stop()
		delete(w.timers, userID)
	}
	if w.timeout <= 0 {
		return
	}
	w.timers[userID] = time.AfterFunc(w.timeout, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if _, ok := w.pending[userID]; !ok {
			return
		}
		w.logger.Info("Rule setup timed out", zap.Int64("user_id", userID))
		w.discard(userID)
	})
}
