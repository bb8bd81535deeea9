/*
Package chat contains the client-side conversation engine.

This file defines the Conversation facade: one poll loop fetching canonical
snapshots, one reconciler merging them with pending local sends, and the
operations the presentation layer calls (send, retry, discard, add member).
*/
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"parley/internal/pkg/errs"
	"parley/internal/pkg/logx"
	"parley/internal/pkg/poll"
)

// Backend is the slice of the data-access layer the engine consumes.
// The api.Client satisfies it.
type Backend interface {
	GetChat(ctx context.Context, chatID int64) (*Chat, error)
	UpdateChatMembers(ctx context.Context, chatID int64, isGroup bool, userIDs []int64) (*Chat, error)
	SendMessage(ctx context.Context, chatID, senderID int64, body, correlationID string) (*Message, error)
	ChatsForUser(ctx context.Context, userID int64) ([]Chat, error)
	CreateChat(ctx context.Context, userIDs []int64) (*Chat, error)
}

// EngineConfig tunes the poll cadence and the reconciler's fallback window.
// The zero value is not usable; build it from configs.ClientConfig or use
// the defaults applied by NewConversation.
type EngineConfig struct {
	PollInterval time.Duration
	PollRate     float64
	PollBurst    int

	// MatchWindow bounds the content-based fallback match for backends that
	// do not echo correlation ids. Zero selects the default of 30 seconds.
	MatchWindow time.Duration
}

func (cfg *EngineConfig) limiter() *rate.Limiter {
	if cfg.PollRate <= 0 {
		return nil
	}
	burst := cfg.PollBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.PollRate), burst)
}

// Conversation keeps one chat's rendered state consistent with the backend.
// Everything it holds is scoped to a single chat id and discarded together
// with it when the consumer switches away.
type Conversation struct {
	chatID  int64
	self    User
	backend Backend
	loop    *poll.Loop[*Chat]
	logger  zerolog.Logger

	membership *MembershipManager

	mu        sync.Mutex
	rec       *reconciler
	canonical *Chat
	runCtx    context.Context

	updates chan View
}

// NewConversation builds the engine for one chat. self is the authenticated
// user; their id stamps every outgoing message.
func NewConversation(backend Backend, chatID int64, self User, cfg EngineConfig) *Conversation {
	logger := logx.Logger().With().Str("component", "conversation").Int64("chat_id", chatID).Logger()

	window := cfg.MatchWindow
	if window <= 0 {
		window = 30 * time.Second
	}

	c := &Conversation{
		chatID:  chatID,
		self:    self,
		backend: backend,
		logger:  logger,
		rec:     newReconciler(window, logger),
		updates: make(chan View, 1),
	}

	c.loop = poll.New(func(ctx context.Context) (*Chat, error) {
		return backend.GetChat(ctx, chatID)
	}, poll.Options{Interval: cfg.PollInterval, Limiter: cfg.limiter()})

	c.membership = NewMembershipManager(backend, c.loop.Refresh)

	return c
}

// Updates returns reconciled views, newest wins: a slow consumer only ever
// misses intermediate states, never the latest one. Closed when Run returns.
func (c *Conversation) Updates() <-chan View {
	return c.updates
}

// Refresh requests an immediate canonical fetch.
func (c *Conversation) Refresh() {
	c.loop.Refresh()
}

// Run drives the conversation until ctx is canceled. It consumes poll ticks
// strictly in order; a failed tick republishes the previous view with the
// error attached instead of blanking anything.
func (c *Conversation) Run(ctx context.Context) {
	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()

	go c.loop.Run(ctx)

	defer close(c.updates)

	for tick := range c.loop.Ticks() {
		if tick.Err != nil {
			if errs.IsAuthentication(tick.Err) {
				c.logger.Warn().Msg("credential no longer valid; conversation is logged out")
			}
			c.mu.Lock()
			c.publishLocked(tick.Err)
			c.mu.Unlock()
			continue
		}

		c.mu.Lock()
		c.canonical = tick.Value
		c.publishLocked(nil)
		c.mu.Unlock()
	}
}

// Send applies body as an optimistic message and persists it out-of-band.
// The returned error is always a validation error; write failures surface
// later, through the view, as a failed pending entry.
func (c *Conversation) Send(body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return errs.NewError(errs.ErrEmptyMessage)
	}

	msg := Message{
		ID:            time.Now().UnixMilli(),
		ChatID:        c.chatID,
		SenderID:      c.self.ID,
		Body:          body,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}

	c.mu.Lock()
	c.rec.applyLocal(msg)
	c.publishLocked(nil)
	ctx := c.runCtx
	c.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	go c.persist(ctx, msg)

	return nil
}

// Retry resends a failed pending entry.
func (c *Conversation) Retry(correlationID string) error {
	c.mu.Lock()
	msg, ok := c.rec.markRetrying(correlationID)
	if ok {
		c.publishLocked(nil)
	}
	ctx := c.runCtx
	c.mu.Unlock()

	if !ok {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	go c.persist(ctx, msg)
	return nil
}

// Discard drops a failed pending entry without sending it.
func (c *Conversation) Discard(correlationID string) {
	c.mu.Lock()
	if c.rec.discard(correlationID) {
		c.publishLocked(nil)
	}
	c.mu.Unlock()
}

// AddMember adds userID to the chat's participant set and forces a canonical
// refresh so the change is visible without waiting for the next tick.
// Membership is never optimistically rendered; a failure only reaches the
// caller.
func (c *Conversation) AddMember(ctx context.Context, userID int64) error {
	c.mu.Lock()
	current := c.canonical
	c.mu.Unlock()

	if current == nil {
		fetched, err := c.backend.GetChat(ctx, c.chatID)
		if err != nil {
			return err
		}
		current = fetched
	}

	return c.membership.AddMember(ctx, current, userID)
}

// persist writes one message to the backend. A rejected write marks the
// pending entry failed and republishes; it is never silently dropped and
// never rolled back without the user deciding.
func (c *Conversation) persist(ctx context.Context, msg Message) {
	_, err := c.backend.SendMessage(ctx, msg.ChatID, msg.SenderID, msg.Body, msg.CorrelationID)
	if err != nil {
		c.logger.Error().Err(err).Str("correlation_id", msg.CorrelationID).Msg("message write rejected; entry marked failed")
		c.mu.Lock()
		if c.rec.markFailed(msg.CorrelationID) {
			c.publishLocked(nil)
		}
		c.mu.Unlock()
		return
	}
	c.loop.Refresh()
}

// publishLocked pushes the current merged view. Caller holds c.mu.
func (c *Conversation) publishLocked(fetchErr error) {
	var view View
	if c.canonical != nil {
		view = c.rec.merge(c.canonical)
	} else {
		view = View{ChatID: c.chatID, Messages: c.rec.pendingView(c.chatID)}
	}
	view.Err = fetchErr

	// Replace a stale buffered view instead of blocking the engine on a slow
	// consumer.
	select {
	case c.updates <- view:
	default:
		select {
		case <-c.updates:
		default:
		}
		select {
		case c.updates <- view:
		default:
		}
	}
}
