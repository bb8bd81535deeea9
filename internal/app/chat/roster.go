/*
Package chat contains the client-side conversation engine.

This file implements the chat roster: the polled list of conversations the
current user participates in, and creation of new conversations.
*/
package chat

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"parley/internal/pkg/errs"
	"parley/internal/pkg/logx"
	"parley/internal/pkg/poll"
)

// RosterView is one snapshot of the user's chat list. Err carries the most
// recent fetch failure; the previous list stays intact across failed ticks.
type RosterView struct {
	Chats []Chat
	Err   error
}

// Roster polls the backend for the current user's chats. Like a
// Conversation, it is created per consumer and discarded with it.
type Roster struct {
	backend Backend
	userID  int64
	loop    *poll.Loop[[]Chat]
	updates chan RosterView
	logger  zerolog.Logger

	mu   sync.Mutex
	last []Chat
}

// NewRoster builds a roster poller for userID.
func NewRoster(backend Backend, userID int64, cfg EngineConfig) *Roster {
	r := &Roster{
		backend: backend,
		userID:  userID,
		updates: make(chan RosterView, 1),
		logger:  logx.Logger().With().Str("component", "roster").Int64("user_id", userID).Logger(),
	}

	r.loop = poll.New(func(ctx context.Context) ([]Chat, error) {
		return backend.ChatsForUser(ctx, userID)
	}, poll.Options{Interval: cfg.PollInterval, Limiter: cfg.limiter()})

	return r
}

// Updates returns roster snapshots, newest wins. Closed when Run returns.
func (r *Roster) Updates() <-chan RosterView {
	return r.updates
}

// Refresh requests an immediate fetch of the chat list.
func (r *Roster) Refresh() {
	r.loop.Refresh()
}

// Latest returns the most recently fetched chat list.
func (r *Roster) Latest() []Chat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Run drives the roster until ctx is canceled.
func (r *Roster) Run(ctx context.Context) {
	go r.loop.Run(ctx)

	defer close(r.updates)

	for tick := range r.loop.Ticks() {
		r.mu.Lock()
		view := RosterView{Chats: r.last, Err: tick.Err}
		if tick.Err == nil {
			r.last = tick.Value
			view.Chats = tick.Value
		}
		r.mu.Unlock()
		r.publish(view)
	}
}

// CreateChat creates a conversation containing the current user and the given
// participants, then refreshes the roster so it appears immediately.
func (r *Roster) CreateChat(ctx context.Context, participantIDs ...int64) (*Chat, error) {
	if len(participantIDs) == 0 {
		return nil, errs.NewError(errs.ErrChatNoParticipants)
	}

	ids := append([]int64{r.userID}, participantIDs...)
	created, err := r.backend.CreateChat(ctx, ids)
	if err != nil {
		r.logger.Error().Err(err).Msg("chat creation failed")
		return nil, err
	}

	r.loop.Refresh()
	return created, nil
}

func (r *Roster) publish(view RosterView) {
	select {
	case r.updates <- view:
	default:
		select {
		case <-r.updates:
		default:
		}
		select {
		case r.updates <- view:
		default:
		}
	}
}
