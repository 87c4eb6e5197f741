package login

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"relaybot/internal/domain"
	"relaybot/internal/session"
	"relaybot/internal/telegram"
	"relaybot/internal/testutil"
)

type staticRules struct{}

func (staticRules) List(int64) []domain.ForwardingRule { return nil }

func newTestManager(timeout time.Duration) (*Manager, *testutil.MockDialer, *session.Registry) {
	dialer := new(testutil.MockDialer)
	registry := session.NewRegistry(zap.NewNop())
	m := NewManager(dialer, registry, staticRules{}, timeout, zap.NewNop())
	return m, dialer, registry
}

// advance brings user 1 to the code step with a mocked pending connection
func advanceToCode(t *testing.T, m *Manager, dialer *testutil.MockDialer) *testutil.MockConn {
	t.Helper()

	conn := new(testutil.MockConn)
	conn.On("SendCode", mock.Anything, "+15551234567").Return("hash123", nil)
	dialer.On("Dial", mock.Anything, int64(1)).Return(conn, nil)

	assert.NoError(t, m.Start(1))
	assert.NoError(t, m.SubmitPhone(context.Background(), 1, "+15551234567"))

	state, ok := m.State(1)
	assert.True(t, ok)
	assert.Equal(t, domain.StateCode, state)
	return conn
}

func TestManager_StartWhileLoggedIn(t *testing.T) {
	m, _, registry := newTestManager(0)

	conn := new(testutil.MockConn)
	s := session.New(1, conn, session.NewDispatcher(1, conn, staticRules{}, zap.NewNop()))
	assert.NoError(t, registry.Register(s))

	err := m.Start(1)

	assert.ErrorIs(t, err, ErrAlreadyLoggedIn)
	_, ok := m.State(1)
	assert.False(t, ok, "no attempt must be created")
}

func TestManager_StartCreatesPhoneAttempt(t *testing.T) {
	m, _, _ := newTestManager(0)

	assert.NoError(t, m.Start(1))

	state, ok := m.State(1)
	assert.True(t, ok)
	assert.Equal(t, domain.StatePhone, state)
}

func TestManager_SubmitPhone_Empty(t *testing.T) {
	m, _, _ := newTestManager(0)
	assert.NoError(t, m.Start(1))

	err := m.SubmitPhone(context.Background(), 1, "   ")

	assert.ErrorIs(t, err, ErrEmptyPhone)
	state, ok := m.State(1)
	assert.True(t, ok, "attempt survives a re-prompt")
	assert.Equal(t, domain.StatePhone, state)
}

func TestManager_SubmitPhone_DialFailure(t *testing.T) {
	m, dialer, registry := newTestManager(0)
	dialer.On("Dial", mock.Anything, int64(1)).Return(nil, errors.New("network unreachable"))

	assert.NoError(t, m.Start(1))

	err := m.SubmitPhone(context.Background(), 1, "+15551234567")

	assert.ErrorIs(t, err, ErrLoginFailed)
	_, ok := m.State(1)
	assert.False(t, ok, "attempt must be terminated")
	assert.Equal(t, 0, registry.Len())
}

func TestManager_SubmitPhone_SendCodeFailure(t *testing.T) {
	m, dialer, _ := newTestManager(0)

	conn := new(testutil.MockConn)
	conn.On("SendCode", mock.Anything, "+15551234567").Return("", errors.New("flood wait"))
	conn.On("Close").Return(nil)
	dialer.On("Dial", mock.Anything, int64(1)).Return(conn, nil)

	assert.NoError(t, m.Start(1))

	err := m.SubmitPhone(context.Background(), 1, "+15551234567")

	assert.ErrorIs(t, err, ErrLoginFailed)
	conn.AssertCalled(t, "Close")
	_, ok := m.State(1)
	assert.False(t, ok)
}

func TestManager_CodeFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		accepted bool
		code     string
	}{
		{name: "lowercase", input: "mycode123", accepted: true, code: "123"},
		{name: "uppercase", input: "MYCODE42", accepted: true, code: "42"},
		{name: "bare digits", input: "123456", accepted: false},
		{name: "no digits", input: "mycode", accepted: false},
		{name: "letters after prefix", input: "mycodeabc", accepted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, dialer, _ := newTestManager(0)
			conn := advanceToCode(t, m, dialer)

			if tt.accepted {
				conn.On("SignIn", mock.Anything, "+15551234567", tt.code, "hash123").Return(nil)
			}

			_, err := m.SubmitCode(context.Background(), 1, tt.input)

			if tt.accepted {
				assert.NoError(t, err)
				conn.AssertExpectations(t)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCodeFormat)
				state, ok := m.State(1)
				assert.True(t, ok, "bad format only re-prompts")
				assert.Equal(t, domain.StateCode, state)
			}
		})
	}
}

func TestManager_WrongCodeTerminatesAttempt(t *testing.T) {
	m, dialer, registry := newTestManager(0)
	conn := advanceToCode(t, m, dialer)
	conn.On("SignIn", mock.Anything, "+15551234567", "0000", "hash123").Return(errors.New("code invalid"))
	conn.On("Close").Return(nil)

	_, err := m.SubmitCode(context.Background(), 1, "mycode0000")

	assert.ErrorIs(t, err, ErrLoginFailed)
	conn.AssertCalled(t, "Close")
	_, ok := m.State(1)
	assert.False(t, ok, "attempt must be discarded")
	assert.Equal(t, 0, registry.Len(), "registry must stay untouched")
}

func TestManager_CodeSuccessRegistersSession(t *testing.T) {
	m, dialer, registry := newTestManager(0)
	conn := advanceToCode(t, m, dialer)
	conn.On("SignIn", mock.Anything, "+15551234567", "123", "hash123").Return(nil)

	needPassword, err := m.SubmitCode(context.Background(), 1, "mycode123")

	assert.NoError(t, err)
	assert.False(t, needPassword)

	_, ok := m.State(1)
	assert.False(t, ok, "attempt is discarded on success")

	s, err := registry.Get(1)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), s.UserID)
	assert.NotNil(t, conn.Handler(), "dispatcher must be attached")
}

func TestManager_SecondFactorFlow(t *testing.T) {
	m, dialer, registry := newTestManager(0)
	conn := advanceToCode(t, m, dialer)
	conn.On("SignIn", mock.Anything, "+15551234567", "123", "hash123").Return(telegram.ErrPasswordNeeded)
	conn.On("SignInPassword", mock.Anything, "hunter2").Return(nil)

	needPassword, err := m.SubmitCode(context.Background(), 1, "mycode123")

	assert.NoError(t, err)
	assert.True(t, needPassword)

	state, ok := m.State(1)
	assert.True(t, ok)
	assert.Equal(t, domain.StatePassword, state)

	err = m.SubmitPassword(context.Background(), 1, "hunter2")

	assert.NoError(t, err)
	_, err = registry.Get(1)
	assert.NoError(t, err)
}

func TestManager_WrongPasswordTerminatesAttempt(t *testing.T) {
	m, dialer, registry := newTestManager(0)
	conn := advanceToCode(t, m, dialer)
	conn.On("SignIn", mock.Anything, "+15551234567", "123", "hash123").Return(telegram.ErrPasswordNeeded)
	conn.On("SignInPassword", mock.Anything, "wrong").Return(errors.New("password invalid"))
	conn.On("Close").Return(nil)

	_, err := m.SubmitCode(context.Background(), 1, "mycode123")
	assert.NoError(t, err)

	err = m.SubmitPassword(context.Background(), 1, "wrong")

	assert.ErrorIs(t, err, ErrLoginFailed)
	conn.AssertCalled(t, "Close")
	_, ok := m.State(1)
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Len())
}

func TestManager_CancelDuringSignInPreventsPromotion(t *testing.T) {
	m, dialer, registry := newTestManager(0)
	conn := advanceToCode(t, m, dialer)

	entered := make(chan struct{})
	release := make(chan struct{})
	conn.On("SignIn", mock.Anything, "+15551234567", "123", "hash123").
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(nil)
	conn.On("Close").Return(nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := m.SubmitCode(context.Background(), 1, "mycode123")
		errCh <- err
	}()

	// Cancel lands while the sign-in call is still in flight
	<-entered
	assert.True(t, m.Cancel(1))
	close(release)

	assert.ErrorIs(t, <-errCh, ErrNoAttempt)
	assert.Equal(t, 0, registry.Len(), "cancelled attempt must not register a session")
	assert.Nil(t, conn.Handler())
}

func TestManager_CancelDuringPasswordPreventsPromotion(t *testing.T) {
	m, dialer, registry := newTestManager(0)
	conn := advanceToCode(t, m, dialer)
	conn.On("SignIn", mock.Anything, "+15551234567", "123", "hash123").Return(telegram.ErrPasswordNeeded)

	_, err := m.SubmitCode(context.Background(), 1, "mycode123")
	assert.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	conn.On("SignInPassword", mock.Anything, "hunter2").
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(nil)
	conn.On("Close").Return(nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.SubmitPassword(context.Background(), 1, "hunter2")
	}()

	<-entered
	assert.True(t, m.Cancel(1))
	close(release)

	assert.ErrorIs(t, <-errCh, ErrNoAttempt)
	assert.Equal(t, 0, registry.Len(), "cancelled attempt must not register a session")
}

func TestManager_Cancel(t *testing.T) {
	m, dialer, _ := newTestManager(0)
	conn := advanceToCode(t, m, dialer)
	conn.On("Close").Return(nil)

	assert.True(t, m.Cancel(1))

	conn.AssertCalled(t, "Close")
	_, ok := m.State(1)
	assert.False(t, ok)

	// Cancel without an attempt is a no-op
	assert.False(t, m.Cancel(1))
}

func TestManager_SubmitWithoutAttempt(t *testing.T) {
	m, _, _ := newTestManager(0)
	ctx := context.Background()

	assert.ErrorIs(t, m.SubmitPhone(ctx, 1, "+15551234567"), ErrNoAttempt)
	_, err := m.SubmitCode(ctx, 1, "mycode123")
	assert.ErrorIs(t, err, ErrNoAttempt)
	assert.ErrorIs(t, m.SubmitPassword(ctx, 1, "pw"), ErrNoAttempt)
}

func TestManager_Timeout(t *testing.T) {
	m, _, _ := newTestManager(30 * time.Millisecond)

	var notified atomic.Int64
	m.OnExpired(func(userID int64) { notified.Store(userID) })

	assert.NoError(t, m.Start(1))

	assert.Eventually(t, func() bool {
		_, ok := m.State(1)
		return !ok
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return notified.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestManager_TimeoutClosesPendingConnection(t *testing.T) {
	m, dialer, _ := newTestManager(50 * time.Millisecond)
	conn := advanceToCode(t, m, dialer)
	conn.On("Close").Return(nil)

	assert.Eventually(t, func() bool {
		_, ok := m.State(1)
		return !ok
	}, time.Second, 10*time.Millisecond)

	conn.AssertCalled(t, "Close")
}

func TestManager_RestartClosesPriorPendingConnection(t *testing.T) {
	m, dialer, _ := newTestManager(0)
	conn := advanceToCode(t, m, dialer)
	conn.On("Close").Return(nil)

	// A fresh /start overwrites the in-progress attempt
	assert.NoError(t, m.Start(1))

	state, ok := m.State(1)
	assert.True(t, ok)
	assert.Equal(t, domain.StatePhone, state)

	assert.Eventually(t, func() bool {
		for _, call := range conn.Calls {
			if call.Method == "Close" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}
