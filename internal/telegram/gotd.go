package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gotd/td/session"
	gotd "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"relaybot/internal/domain"
)

// closeTimeout bounds how long Close waits for the run loop to stop.
const closeTimeout = 5 * time.Second

// GotdDialer opens gotd-backed connections with credentials persisted in a
// SessionDir.
type GotdDialer struct {
	apiID   int
	apiHash string
	dir     *SessionDir
	logger  *zap.Logger
}

// NewDialer creates a dialer for the given application credentials
func NewDialer(apiID int, apiHash string, dir *SessionDir, logger *zap.Logger) *GotdDialer {
	return &GotdDialer{
		apiID:   apiID,
		apiHash: apiHash,
		dir:     dir,
		logger:  logger,
	}
}

// Dial connects to the network using the user's session file, creating the
// file on first login. The returned Conn keeps running until Close.
func (d *GotdDialer) Dial(ctx context.Context, userID int64) (Conn, error) {
	c := &gotdConn{
		logger: d.logger.With(zap.Int64("user_id", userID)),
		peers:  make(map[int64]tg.InputPeerClass),
		done:   make(chan error, 1),
	}

	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewMessage(c.onNewMessage)
	dispatcher.OnNewChannelMessage(c.onNewChannelMessage)

	c.client = gotd.NewClient(d.apiID, d.apiHash, gotd.Options{
		SessionStorage: &session.FileStorage{Path: d.dir.PathFor(userID)},
		UpdateHandler:  dispatcher,
	})
	c.api = c.client.API()
	c.sender = message.NewSender(c.api)

	// The connection must outlive the dial context: it is owned by the
	// session it gets promoted into.
	runCtx, cancel := context.WithCancel(context.Background())
	c.runCtx = runCtx
	c.cancel = cancel

	ready := make(chan struct{})
	go func() {
		c.done <- c.client.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case <-ready:
	case err := <-c.done:
		cancel()
		return nil, fmt.Errorf("failed to connect: %w", err)
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}

	go c.warmIfAuthorized(runCtx)
	return c, nil
}

type gotdConn struct {
	client *gotd.Client
	api    *tg.Client
	sender *message.Sender
	logger *zap.Logger

	runCtx    context.Context
	cancel    context.CancelFunc
	done      chan error
	closeOnce sync.Once
	closeErr  error

	mu      sync.RWMutex
	handler MessageHandler

	peersMu sync.RWMutex
	peers   map[int64]tg.InputPeerClass
}

func (c *gotdConn) SendCode(ctx context.Context, phone string) (string, error) {
	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to request verification code: %w", err)
	}
	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("unexpected send code response %T", sent)
	}
	return code.PhoneCodeHash, nil
}

func (c *gotdConn) SignIn(ctx context.Context, phone, code, codeHash string) error {
	_, err := c.client.Auth().SignIn(ctx, phone, code, codeHash)
	if errors.Is(err, auth.ErrPasswordAuthNeeded) {
		return ErrPasswordNeeded
	}
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}
	go c.warmPeers(c.runCtx)
	return nil
}

func (c *gotdConn) SignInPassword(ctx context.Context, password string) error {
	if _, err := c.client.Auth().Password(ctx, password); err != nil {
		return fmt.Errorf("password sign-in failed: %w", err)
	}
	go c.warmPeers(c.runCtx)
	return nil
}

func (c *gotdConn) Authorized(ctx context.Context) (bool, error) {
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check authorization: %w", err)
	}
	return status.Authorized, nil
}

func (c *gotdConn) Forward(ctx context.Context, fromChatID, toChatID int64, messageID int) error {
	c.peersMu.RLock()
	from, fromOK := c.peers[fromChatID]
	to, toOK := c.peers[toChatID]
	c.peersMu.RUnlock()
	if !fromOK {
		return fmt.Errorf("source chat %d: %w", fromChatID, ErrUnknownPeer)
	}
	if !toOK {
		return fmt.Errorf("destination chat %d: %w", toChatID, ErrUnknownPeer)
	}
	if _, err := c.sender.To(to).ForwardIDs(from, messageID).Send(ctx); err != nil {
		return fmt.Errorf("failed to forward message: %w", err)
	}
	return nil
}

func (c *gotdConn) OnMessage(h MessageHandler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *gotdConn) LogOut(ctx context.Context) error {
	if _, err := c.api.AuthLogOut(ctx); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

func (c *gotdConn) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		select {
		case err := <-c.done:
			if err != nil && !errors.Is(err, context.Canceled) {
				c.closeErr = err
			}
		case <-time.After(closeTimeout):
			c.closeErr = fmt.Errorf("timed out waiting for disconnect")
		}
	})
	return c.closeErr
}

func (c *gotdConn) onNewMessage(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
	msg, ok := u.Message.(*tg.Message)
	if !ok || msg.Out {
		return nil
	}
	c.rememberEntities(e)
	c.deliver(ctx, msg)
	return nil
}

func (c *gotdConn) onNewChannelMessage(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
	msg, ok := u.Message.(*tg.Message)
	if !ok || msg.Out {
		return nil
	}
	c.rememberEntities(e)
	c.deliver(ctx, msg)
	return nil
}

func (c *gotdConn) deliver(ctx context.Context, msg *tg.Message) {
	var in Inbound
	switch peer := msg.PeerID.(type) {
	case *tg.PeerUser:
		in = Inbound{ChatID: peer.UserID, MessageID: msg.ID, Text: msg.Message}
	case *tg.PeerChat:
		in = Inbound{ChatID: -peer.ChatID, MessageID: msg.ID, Text: msg.Message}
	case *tg.PeerChannel:
		in = Inbound{ChatID: peer.ChannelID, Broadcast: true, MessageID: msg.ID, Text: msg.Message}
	default:
		return
	}

	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()
	if h != nil {
		h(ctx, in)
	}
}

// rememberEntities caches input peers from update entities so relays can
// address chats without extra resolution round-trips.
func (c *gotdConn) rememberEntities(e tg.Entities) {
	c.peersMu.Lock()
	defer c.peersMu.Unlock()
	for id, u := range e.Users {
		c.peers[id] = &tg.InputPeerUser{UserID: id, AccessHash: u.AccessHash}
	}
	for id := range e.Chats {
		c.peers[-id] = &tg.InputPeerChat{ChatID: id}
	}
	for id, ch := range e.Channels {
		c.peers[domain.CanonicalChatID(id, true)] = &tg.InputPeerChannel{ChannelID: id, AccessHash: ch.AccessHash}
	}
}

func (c *gotdConn) warmIfAuthorized(ctx context.Context) {
	status, err := c.client.Auth().Status(ctx)
	if err != nil || !status.Authorized {
		return
	}
	c.warmPeers(ctx)
}

// warmPeers preloads the peer cache with every dialog the account is in.
// Best-effort: a relay to a chat that was never seen still fails with
// ErrUnknownPeer.
func (c *gotdConn) warmPeers(ctx context.Context) {
	chats, err := c.api.MessagesGetAllChats(ctx, []int64{})
	if err != nil {
		c.logger.Debug("Failed to preload chats", zap.Error(err))
		return
	}

	c.peersMu.Lock()
	defer c.peersMu.Unlock()
	for _, chat := range chats.GetChats() {
		switch ch := chat.(type) {
		case *tg.Chat:
			c.peers[-ch.ID] = &tg.InputPeerChat{ChatID: ch.ID}
		case *tg.Channel:
			c.peers[domain.CanonicalChatID(ch.ID, true)] = &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
		}
	}
}
