/*
Package chat contains the client-side conversation engine.

This file implements optimistic reconciliation: merging the canonical snapshot
last fetched from the backend with locally applied, not-yet-confirmed
mutations into the single view handed to the presentation layer.
*/
package chat

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// View is one reconciled rendering of a conversation. Messages are unique by
// server-assigned id, ordered by timestamp ascending, with pending entries
// appended after every canonical entry. Err carries the most recent fetch
// failure; the rest of the view stays intact across failed ticks.
type View struct {
	ChatID   int64
	IsGroup  bool
	Users    []User
	Messages []Message
	Err      error
}

// pendingEntry is one optimistic message awaiting canonical confirmation,
// in local application order.
type pendingEntry struct {
	msg   Message
	state Delivery
}

// reconciler owns the pending set for one chat. It is the only writer of the
// merged view; callers serialize access (the Conversation holds the lock).
type reconciler struct {
	// window bounds the content-match fallback for canonical messages that
	// come back without a correlation id.
	window  time.Duration
	pending []pendingEntry
	logger  zerolog.Logger
}

func newReconciler(window time.Duration, logger zerolog.Logger) *reconciler {
	return &reconciler{window: window, logger: logger}
}

// applyLocal appends an optimistic message to the pending set.
func (r *reconciler) applyLocal(msg Message) {
	msg.Delivery = DeliveryPending
	r.pending = append(r.pending, pendingEntry{msg: msg, state: DeliveryPending})
}

// markFailed flags a pending entry whose write was rejected. The entry stays
// visible so the user can retry or discard it.
func (r *reconciler) markFailed(correlationID string) bool {
	for i := range r.pending {
		if r.pending[i].msg.CorrelationID == correlationID {
			r.pending[i].state = DeliveryFailed
			return true
		}
	}
	return false
}

// markRetrying returns a failed entry to the pending state and hands back the
// message to resend. ok is false when no failed entry matches.
func (r *reconciler) markRetrying(correlationID string) (Message, bool) {
	for i := range r.pending {
		if r.pending[i].msg.CorrelationID == correlationID && r.pending[i].state == DeliveryFailed {
			r.pending[i].state = DeliveryPending
			return r.pending[i].msg, true
		}
	}
	return Message{}, false
}

// discard drops a pending entry without sending it.
func (r *reconciler) discard(correlationID string) bool {
	for i := range r.pending {
		if r.pending[i].msg.CorrelationID == correlationID {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return true
		}
	}
	return false
}

// merge produces the reconciled view for a canonical snapshot.
//
// Canonical messages are deduplicated by server id and ordered by timestamp
// ascending; none is ever dropped. A pending entry is retired once a
// canonical message carries its correlation id. As a fallback for backends
// that do not echo correlation ids, a canonical message from the same sender
// with the same body inside the match window also retires the entry; that
// match is ambiguous by nature and is logged as such rather than trusted
// silently. Surviving pending entries are re-appended after the canonical
// sequence in local application order.
func (r *reconciler) merge(canonical *Chat) View {
	view := View{
		ChatID:  canonical.ID,
		IsGroup: canonical.IsGroup,
		Users:   append([]User(nil), canonical.Users...),
	}

	seen := make(map[int64]struct{}, len(canonical.Messages))
	confirmed := make([]Message, 0, len(canonical.Messages)+len(r.pending))
	for _, msg := range canonical.Messages {
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		seen[msg.ID] = struct{}{}
		msg.Delivery = DeliveryConfirmed
		confirmed = append(confirmed, msg)
	}

	sort.SliceStable(confirmed, func(i, j int) bool {
		return confirmed[i].Timestamp.Before(confirmed[j].Timestamp)
	})

	byCorrelation := make(map[string]struct{})
	for _, msg := range confirmed {
		if msg.CorrelationID != "" {
			byCorrelation[msg.CorrelationID] = struct{}{}
		}
	}

	// consumed guards the fallback path so two identical pending sends cannot
	// both retire against the same canonical message.
	consumed := make(map[int64]struct{})

	var kept []pendingEntry
	for _, entry := range r.pending {
		if _, ok := byCorrelation[entry.msg.CorrelationID]; ok {
			continue
		}
		if r.contentMatch(entry.msg, confirmed, consumed) {
			r.logger.Warn().
				Int64("sender_id", entry.msg.SenderID).
				Str("correlation_id", entry.msg.CorrelationID).
				Msg("pending message retired by content match; reconciliation is ambiguous without a correlation id echo")
			continue
		}
		kept = append(kept, entry)
	}
	r.pending = kept

	for _, entry := range r.pending {
		msg := entry.msg
		msg.Delivery = entry.state
		confirmed = append(confirmed, msg)
	}

	view.Messages = confirmed
	return view
}

// contentMatch reports whether a canonical message without a correlation id
// represents the pending message, consuming it on success.
func (r *reconciler) contentMatch(pending Message, confirmed []Message, consumed map[int64]struct{}) bool {
	for _, msg := range confirmed {
		if msg.CorrelationID != "" {
			continue
		}
		if _, used := consumed[msg.ID]; used {
			continue
		}
		if msg.SenderID != pending.SenderID || msg.Body != pending.Body {
			continue
		}
		delta := msg.Timestamp.Sub(pending.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta <= r.window {
			consumed[msg.ID] = struct{}{}
			return true
		}
	}
	return false
}

// pendingView returns the pending entries alone, for rendering before the
// first canonical snapshot has arrived.
func (r *reconciler) pendingView(chatID int64) []Message {
	out := make([]Message, 0, len(r.pending))
	for _, entry := range r.pending {
		msg := entry.msg
		msg.Delivery = entry.state
		msg.ChatID = chatID
		out = append(out, msg)
	}
	return out
}
