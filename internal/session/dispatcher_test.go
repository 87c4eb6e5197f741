package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"relaybot/internal/domain"
	"relaybot/internal/telegram"
	"relaybot/internal/testutil"
)

func activeRule(source, dest int64, name string) domain.ForwardingRule {
	return domain.ForwardingRule{
		SourceID:        source,
		SourceName:      name,
		DestinationID:   dest,
		DestinationName: name + "-dest",
		Active:          true,
	}
}

func TestDispatcher_RelaysMatchingMessage(t *testing.T) {
	conn := new(testutil.MockConn)
	conn.On("Forward", mock.Anything, int64(-1001234567890), int64(555), 42).Return(nil)

	rules := &staticRules{rules: []domain.ForwardingRule{activeRule(-1001234567890, 555, "news")}}
	d := NewDispatcher(1, conn, rules, zap.NewNop())

	d.Handle(context.Background(), telegram.Inbound{ChatID: 1234567890, Broadcast: true, MessageID: 42, Text: "hello"})

	conn.AssertExpectations(t)
}

func TestDispatcher_ForwardsCaptionlessMedia(t *testing.T) {
	conn := new(testutil.MockConn)
	conn.On("Forward", mock.Anything, int64(-1001234567890), int64(555), 7).Return(nil)

	rules := &staticRules{rules: []domain.ForwardingRule{activeRule(-1001234567890, 555, "news")}}
	d := NewDispatcher(1, conn, rules, zap.NewNop())

	// A photo post without a caption has no text at all
	d.Handle(context.Background(), telegram.Inbound{ChatID: 1234567890, Broadcast: true, MessageID: 7})

	conn.AssertExpectations(t)
}

func TestDispatcher_FirstMatchWins(t *testing.T) {
	conn := new(testutil.MockConn)
	conn.On("Forward", mock.Anything, int64(-1001234), int64(555), 1).Return(nil)

	// Two active rules with the same source, different destinations
	rules := &staticRules{rules: []domain.ForwardingRule{
		activeRule(-1001234, 555, "first"),
		activeRule(-1001234, 777, "second"),
	}}
	d := NewDispatcher(1, conn, rules, zap.NewNop())

	d.Handle(context.Background(), telegram.Inbound{ChatID: -1001234, MessageID: 1, Text: "hi"})

	conn.AssertExpectations(t)
	conn.AssertNotCalled(t, "Forward", mock.Anything, mock.Anything, int64(777), mock.Anything)
}

func TestDispatcher_SkipsInactiveRule(t *testing.T) {
	conn := new(testutil.MockConn)
	conn.On("Forward", mock.Anything, int64(-1001234), int64(777), 1).Return(nil)

	inactive := activeRule(-1001234, 555, "off")
	inactive.Active = false
	rules := &staticRules{rules: []domain.ForwardingRule{
		inactive,
		activeRule(-1001234, 777, "on"),
	}}
	d := NewDispatcher(1, conn, rules, zap.NewNop())

	d.Handle(context.Background(), telegram.Inbound{ChatID: -1001234, MessageID: 1, Text: "hi"})

	conn.AssertExpectations(t)
	conn.AssertNotCalled(t, "Forward", mock.Anything, mock.Anything, int64(555), mock.Anything)
}

func TestDispatcher_NoMatchIsNoop(t *testing.T) {
	conn := new(testutil.MockConn)

	rules := &staticRules{rules: []domain.ForwardingRule{activeRule(-1001234, 555, "news")}}
	d := NewDispatcher(1, conn, rules, zap.NewNop())

	d.Handle(context.Background(), telegram.Inbound{ChatID: 999, MessageID: 1, Text: "hi"})

	conn.AssertNotCalled(t, "Forward", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_RelayFailureKeepsRuleActive(t *testing.T) {
	conn := new(testutil.MockConn)
	conn.On("Forward", mock.Anything, int64(-1001234), int64(555), mock.Anything).Return(errors.New("no permission"))

	rules := &staticRules{rules: []domain.ForwardingRule{activeRule(-1001234, 555, "news")}}
	d := NewDispatcher(1, conn, rules, zap.NewNop())

	d.Handle(context.Background(), telegram.Inbound{ChatID: -1001234, MessageID: 1, Text: "one"})
	d.Handle(context.Background(), telegram.Inbound{ChatID: -1001234, MessageID: 2, Text: "two"})

	// Both messages attempted, no retry in between
	conn.AssertNumberOfCalls(t, "Forward", 2)
	assert.True(t, rules.rules[0].Active)
}

func TestDispatcher_CanonicalizesBroadcastSource(t *testing.T) {
	conn := new(testutil.MockConn)
	conn.On("Forward", mock.Anything, int64(-1001234567890), int64(555), 9).Return(nil)

	rules := &staticRules{rules: []domain.ForwardingRule{activeRule(-1001234567890, 555, "news")}}
	d := NewDispatcher(1, conn, rules, zap.NewNop())

	// The network reported the short channel id form
	d.Handle(context.Background(), telegram.Inbound{ChatID: 1234567890, Broadcast: true, MessageID: 9, Text: "hi"})

	conn.AssertExpectations(t)
}
