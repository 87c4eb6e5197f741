package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"relaybot/internal/domain"
	"relaybot/internal/testutil"
)

// staticRules is a fixed RuleSource for dispatcher wiring in tests
type staticRules struct {
	rules []domain.ForwardingRule
}

func (s *staticRules) List(int64) []domain.ForwardingRule {
	return s.rules
}

func newTestSession(userID int64, conn *testutil.MockConn) *Session {
	d := NewDispatcher(userID, conn, &staticRules{}, zap.NewNop())
	return New(userID, conn, d)
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	conn := new(testutil.MockConn)

	err := registry.Register(newTestSession(1, conn))

	assert.NoError(t, err)
	assert.NotNil(t, conn.Handler(), "registering must attach the dispatcher")

	s, err := registry.Get(1)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), s.UserID)

	_, err = registry.Get(2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_RegisterTwiceFails(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	conn := new(testutil.MockConn)

	assert.NoError(t, registry.Register(newTestSession(1, conn)))

	err := registry.Register(newTestSession(1, new(testutil.MockConn)))

	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_Remove(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	conn := new(testutil.MockConn)
	conn.On("Close").Return(nil)

	assert.NoError(t, registry.Register(newTestSession(1, conn)))

	s := registry.Remove(1)

	assert.NotNil(t, s)
	assert.Nil(t, conn.Handler(), "removing must detach the dispatcher")
	conn.AssertCalled(t, "Close")

	_, err := registry.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing an absent user is a no-op
	assert.Nil(t, registry.Remove(1))
}

func TestRegistry_RemoveSurvivesDisconnectFailure(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	conn := new(testutil.MockConn)
	conn.On("Close").Return(errors.New("network gone"))

	assert.NoError(t, registry.Register(newTestSession(1, conn)))

	s := registry.Remove(1)

	assert.NotNil(t, s)
	assert.Equal(t, 0, registry.Len())
}

func TestRegistry_AllIsRestartableSnapshot(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	for i := int64(1); i <= 3; i++ {
		assert.NoError(t, registry.Register(newTestSession(i, new(testutil.MockConn))))
	}

	seq := registry.All()

	first := make(map[int64]bool)
	for userID := range seq {
		first[userID] = true
	}
	assert.Len(t, first, 3)

	// Mutations after the snapshot was taken do not show up
	assert.NoError(t, registry.Register(newTestSession(4, new(testutil.MockConn))))

	second := make(map[int64]bool)
	for userID := range seq {
		second[userID] = true
	}
	assert.Equal(t, first, second)
}

func TestRegistry_CloseAll(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	conns := make([]*testutil.MockConn, 0, 3)
	for i := int64(1); i <= 3; i++ {
		conn := new(testutil.MockConn)
		conn.On("Close").Return(nil)
		conns = append(conns, conn)
		assert.NoError(t, registry.Register(newTestSession(i, conn)))
	}

	registry.CloseAll(context.Background())

	assert.Equal(t, 0, registry.Len())
	for _, conn := range conns {
		conn.AssertCalled(t, "Close")
	}
}
