/*
Package store is the development server's in-memory data store.

It holds users, chats, and message logs behind one mutex, with small
monotonic sequences for server-assigned ids. State lives for the lifetime of
the process; the development server is deliberately zero-setup and keeps no
database.
*/
package store

import (
	"sort"
	"sync"
	"time"

	"parley/internal/app/chat"
	"parley/internal/pkg/errs"
)

type userRecord struct {
	user         chat.User
	passwordHash []byte
}

type chatRecord struct {
	id             int64
	isGroup        bool
	participantIDs []int64
	messages       []chat.Message
}

// Store is safe for concurrent use by the HTTP handlers.
type Store struct {
	mu           sync.RWMutex
	users        map[int64]*userRecord
	usersByEmail map[string]int64
	chats        map[int64]*chatRecord

	nextUserID    int64
	nextChatID    int64
	nextMessageID int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:        make(map[int64]*userRecord),
		usersByEmail: make(map[string]int64),
		chats:        make(map[int64]*chatRecord),
	}
}

// CreateUser registers an account. The email must be unused.
func (s *Store) CreateUser(name, email, avatar string, passwordHash []byte) (chat.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[email]; exists {
		return chat.User{}, errs.NewError(errs.ErrUserAlreadyExists)
	}

	s.nextUserID++
	user := chat.User{
		ID:     s.nextUserID,
		Name:   name,
		Email:  email,
		Avatar: avatar,
	}
	s.users[user.ID] = &userRecord{user: user, passwordHash: passwordHash}
	s.usersByEmail[email] = user.ID

	return user, nil
}

// UserByEmail returns the account and password hash behind an email address.
func (s *Store) UserByEmail(email string) (chat.User, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return chat.User{}, nil, errs.NewError(errs.ErrUserNotFound)
	}
	rec := s.users[id]
	return rec.user, rec.passwordHash, nil
}

// User returns the account with the given id.
func (s *Store) User(id int64) (chat.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return chat.User{}, errs.NewError(errs.ErrUserNotFound)
	}
	return rec.user, nil
}

// ListUsers returns every account, ordered by id.
func (s *Store) ListUsers() []chat.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.User, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, rec.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreateChat creates a conversation with the given initial participants.
// Duplicate ids collapse; every id must belong to a registered user.
func (s *Store) CreateChat(userIDs []int64) (*chat.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.normalizeParticipantsLocked(userIDs)
	if err != nil {
		return nil, err
	}

	s.nextChatID++
	rec := &chatRecord{
		id:             s.nextChatID,
		isGroup:        len(ids) > 2,
		participantIDs: ids,
	}
	s.chats[rec.id] = rec

	return s.materializeLocked(rec), nil
}

// Chat returns a chat's canonical state: membership plus the full message log.
func (s *Store) Chat(chatID int64) (*chat.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.chats[chatID]
	if !ok {
		return nil, errs.NewError(errs.ErrChatNotFound)
	}
	return s.materializeLocked(rec), nil
}

// UpdateChatMembers replaces a chat's participant-id list wholesale.
func (s *Store) UpdateChatMembers(chatID int64, isGroup bool, userIDs []int64) (*chat.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.chats[chatID]
	if !ok {
		return nil, errs.NewError(errs.ErrChatNotFound)
	}

	ids, err := s.normalizeParticipantsLocked(userIDs)
	if err != nil {
		return nil, err
	}

	rec.participantIDs = ids
	rec.isGroup = isGroup

	return s.materializeLocked(rec), nil
}

// ChatsForUser lists the chats userID participates in, ordered by chat id.
func (s *Store) ChatsForUser(userID int64) []chat.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []chat.Chat
	for _, rec := range s.chats {
		for _, id := range rec.participantIDs {
			if id == userID {
				out = append(out, *s.materializeLocked(rec))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AppendMessage stores a message from senderID in chatID, assigning the next
// server id and the arrival timestamp. The client's correlation id is echoed
// back unchanged on the stored message.
func (s *Store) AppendMessage(chatID, senderID int64, body, correlationID string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.chats[chatID]
	if !ok {
		return chat.Message{}, errs.NewError(errs.ErrChatNotFound)
	}

	participant := false
	for _, id := range rec.participantIDs {
		if id == senderID {
			participant = true
			break
		}
	}
	if !participant {
		return chat.Message{}, errs.NewError(errs.ErrNotParticipant)
	}

	s.nextMessageID++
	msg := chat.Message{
		ID:            s.nextMessageID,
		ChatID:        chatID,
		SenderID:      senderID,
		Body:          body,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
	rec.messages = append(rec.messages, msg)

	return msg, nil
}

// normalizeParticipantsLocked deduplicates userIDs preserving order and
// verifies each id belongs to a registered user.
func (s *Store) normalizeParticipantsLocked(userIDs []int64) ([]int64, error) {
	if len(userIDs) == 0 {
		return nil, errs.NewError(errs.ErrChatNoParticipants)
	}

	seen := make(map[int64]struct{}, len(userIDs))
	out := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		if _, ok := s.users[id]; !ok {
			return nil, errs.NewError(errs.ErrUserNotFound)
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// materializeLocked builds the wire representation of a chat record.
func (s *Store) materializeLocked(rec *chatRecord) *chat.Chat {
	users := make([]chat.User, 0, len(rec.participantIDs))
	for _, id := range rec.participantIDs {
		if u, ok := s.users[id]; ok {
			users = append(users, u.user)
		}
	}

	return &chat.Chat{
		ID:       rec.id,
		IsGroup:  rec.isGroup,
		Users:    users,
		Messages: append([]chat.Message(nil), rec.messages...),
	}
}
