/*
Package chat contains the client-side conversation engine.

This file implements membership mutation: growing a chat's participant set
and making the change visible immediately through a forced canonical refresh.
*/
package chat

import (
	"context"

	"github.com/rs/zerolog"

	"parley/internal/pkg/logx"
)

// MembershipManager issues participant-set updates for chats. Membership
// changes are not optimistically rendered; the forced refresh after a
// successful write is what makes them visible.
type MembershipManager struct {
	backend Backend
	refresh func()
	logger  zerolog.Logger
}

// NewMembershipManager constructs a manager. refresh is invoked after every
// successful update to pull a fresh canonical snapshot ahead of the next
// regular poll tick; it may be nil.
func NewMembershipManager(backend Backend, refresh func()) *MembershipManager {
	return &MembershipManager{
		backend: backend,
		refresh: refresh,
		logger:  logx.Logger().With().Str("component", "membership").Logger(),
	}
}

// AddMember sets the chat's participant set to the union of the current
// members and userID, full-replacement semantics. Adding a member that is
// already present is a no-op at the data level: the union equals the current
// set and the write is idempotent.
func (m *MembershipManager) AddMember(ctx context.Context, current *Chat, userID int64) error {
	ids := current.ParticipantIDs()
	if !current.HasParticipant(userID) {
		ids = append(ids, userID)
	}

	_, err := m.backend.UpdateChatMembers(ctx, current.ID, true, ids)
	if err != nil {
		m.logger.Error().Err(err).Int64("chat_id", current.ID).Int64("user_id", userID).Msg("membership update failed")
		return err
	}

	m.logger.Info().Int64("chat_id", current.ID).Int64("user_id", userID).Msg("member added")

	if m.refresh != nil {
		m.refresh()
	}
	return nil
}
