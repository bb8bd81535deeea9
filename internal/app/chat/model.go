/*
Package chat contains the client-side conversation engine: the canonical
fetch loop, optimistic reconciliation of locally sent messages, membership
management, and the chat-roster poller.

This file defines the wire-level entities shared with the backend.
*/
package chat

import "time"

// User is a read-only projection of an account as the server reports it.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Delivery is the client-local confirmation state of a message in a merged
// view. It never travels over the wire.
type Delivery int

const (
	// DeliveryConfirmed marks a message present in the canonical snapshot.
	DeliveryConfirmed Delivery = iota

	// DeliveryPending marks an optimistic message awaiting canonical confirmation.
	DeliveryPending

	// DeliveryFailed marks an optimistic message whose write was rejected.
	// The user decides whether to retry or discard it.
	DeliveryFailed
)

// Message is one chat entry. Confirmed messages carry a server-assigned id
// from a small monotonic sequence; optimistic placeholders synthesize their
// id from the client clock in Unix milliseconds, which keeps the two id
// spaces disjoint. CorrelationID is generated on the client before the write
// and echoed back by the server, so a placeholder can be matched to its
// canonical result exactly instead of by content and approximate time.
type Message struct {
	ID            int64     `json:"id"`
	ChatID        int64     `json:"chatId"`
	SenderID      int64     `json:"senderId"`
	Body          string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlationId,omitempty"`

	Delivery Delivery `json:"-"`
}

// Chat is a conversation: a participant set unique by user id and a message
// log ordered by timestamp ascending. Two participants make a direct
// conversation, more make a group; nothing structural distinguishes them.
type Chat struct {
	ID       int64     `json:"id"`
	IsGroup  bool      `json:"isGroup"`
	Users    []User    `json:"users"`
	Messages []Message `json:"messages"`
}

// ParticipantIDs returns the ids of the chat's participant set.
func (c *Chat) ParticipantIDs() []int64 {
	ids := make([]int64, 0, len(c.Users))
	for _, u := range c.Users {
		ids = append(ids, u.ID)
	}
	return ids
}

// HasParticipant reports whether userID is in the participant set.
func (c *Chat) HasParticipant(userID int64) bool {
	for _, u := range c.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}
