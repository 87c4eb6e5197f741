package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"relaybot/internal/domain"
	"relaybot/internal/telegram"
)

// MockRuleRepository is a mock for repository.RuleRepository
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) ListAll() (map[int64][]domain.ForwardingRule, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]domain.ForwardingRule), args.Error(1)
}

func (m *MockRuleRepository) ReplaceAll(userID int64, rules []domain.ForwardingRule) error {
	args := m.Called(userID, rules)
	return args.Error(0)
}

// MockUserRepository is a mock for repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) EnsureUser(userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockUserRepository) SetLanguage(userID int64, lang string) error {
	args := m.Called(userID, lang)
	return args.Error(0)
}

func (m *MockUserRepository) Language(userID int64) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

// MockConn is a mock for telegram.Conn. OnMessage is not expectation-based:
// the installed handler is captured so tests can feed inbound messages
// through it.
type MockConn struct {
	mock.Mock

	mu      sync.Mutex
	handler telegram.MessageHandler
}

func (m *MockConn) SendCode(ctx context.Context, phone string) (string, error) {
	args := m.Called(ctx, phone)
	return args.String(0), args.Error(1)
}

func (m *MockConn) SignIn(ctx context.Context, phone, code, codeHash string) error {
	args := m.Called(ctx, phone, code, codeHash)
	return args.Error(0)
}

func (m *MockConn) SignInPassword(ctx context.Context, password string) error {
	args := m.Called(ctx, password)
	return args.Error(0)
}

func (m *MockConn) Authorized(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockConn) Forward(ctx context.Context, fromChatID, toChatID int64, messageID int) error {
	args := m.Called(ctx, fromChatID, toChatID, messageID)
	return args.Error(0)
}

func (m *MockConn) OnMessage(h telegram.MessageHandler) {
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
}

// Handler returns the currently installed message handler, if any
func (m *MockConn) Handler() telegram.MessageHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler
}

func (m *MockConn) LogOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockConn) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockDialer is a mock for telegram.Dialer
type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) Dial(ctx context.Context, userID int64) (telegram.Conn, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(telegram.Conn), args.Error(1)
}
