package chat

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testReconciler() *reconciler {
	return newReconciler(30*time.Second, zerolog.Nop())
}

func canonicalChat(msgs ...Message) *Chat {
	return &Chat{
		ID:       7,
		Users:    []User{{ID: 1, Name: "ada"}, {ID: 2, Name: "bert"}},
		Messages: msgs,
	}
}

func serverMsg(id int64, sender int64, body string, at time.Time, corr string) Message {
	return Message{ID: id, ChatID: 7, SenderID: sender, Body: body, Timestamp: at, CorrelationID: corr}
}

func TestMergeKeepsEveryCanonicalMessageOnce(t *testing.T) {
	r := testReconciler()
	now := time.Now()

	view := r.merge(canonicalChat(
		serverMsg(2, 2, "second", now.Add(time.Second), ""),
		serverMsg(1, 1, "first", now, ""),
		serverMsg(2, 2, "second", now.Add(time.Second), ""), // duplicate id
	))

	if len(view.Messages) != 2 {
		t.Fatalf("merged view has %d messages, want 2", len(view.Messages))
	}
	if view.Messages[0].Body != "first" || view.Messages[1].Body != "second" {
		t.Fatalf("messages not ordered by timestamp: %q, %q", view.Messages[0].Body, view.Messages[1].Body)
	}
	for _, msg := range view.Messages {
		if msg.Delivery != DeliveryConfirmed {
			t.Fatalf("canonical message %d not marked confirmed", msg.ID)
		}
	}
}

func TestLocalMessageVisibleBeforeAnySnapshot(t *testing.T) {
	r := testReconciler()

	local := Message{ID: time.Now().UnixMilli(), ChatID: 7, SenderID: 1, Body: "hi", Timestamp: time.Now(), CorrelationID: "c-1"}
	r.applyLocal(local)

	pending := r.pendingView(7)
	if len(pending) != 1 || pending[0].Body != "hi" {
		t.Fatalf("local message not immediately visible: %+v", pending)
	}
	if pending[0].Delivery != DeliveryPending {
		t.Fatal("local message should render as pending")
	}
}

func TestPendingRetiredByCorrelationID(t *testing.T) {
	r := testReconciler()
	now := time.Now()

	r.applyLocal(Message{ID: now.UnixMilli(), ChatID: 7, SenderID: 1, Body: "hi", Timestamp: now, CorrelationID: "c-1"})

	view := r.merge(canonicalChat(serverMsg(41, 1, "hi", now, "c-1")))

	if len(view.Messages) != 1 {
		t.Fatalf("confirmed message double-counted: %d messages", len(view.Messages))
	}
	if view.Messages[0].ID != 41 || view.Messages[0].Delivery != DeliveryConfirmed {
		t.Fatalf("canonical message should replace the placeholder, got %+v", view.Messages[0])
	}
}

func TestUnconfirmedPendingRendersAfterCanonical(t *testing.T) {
	r := testReconciler()
	now := time.Now()

	// Pending with an older timestamp than the canonical tail still renders last.
	r.applyLocal(Message{ID: now.UnixMilli(), ChatID: 7, SenderID: 1, Body: "late", Timestamp: now.Add(-time.Minute), CorrelationID: "c-9"})

	view := r.merge(canonicalChat(serverMsg(5, 2, "earlier", now, "")))

	if len(view.Messages) != 2 {
		t.Fatalf("view has %d messages, want 2", len(view.Messages))
	}
	last := view.Messages[len(view.Messages)-1]
	if last.CorrelationID != "c-9" || last.Delivery != DeliveryPending {
		t.Fatalf("pending entry must render after all canonical entries, got %+v", last)
	}
}

func TestContentFallbackRetiresAtMostOnePerCanonical(t *testing.T) {
	r := testReconciler()
	now := time.Now()

	// Two identical sends; the backend echoes no correlation id and has
	// confirmed only one of them so far.
	r.applyLocal(Message{ID: 1, ChatID: 7, SenderID: 1, Body: "hi", Timestamp: now, CorrelationID: "c-1"})
	r.applyLocal(Message{ID: 2, ChatID: 7, SenderID: 1, Body: "hi", Timestamp: now, CorrelationID: "c-2"})

	view := r.merge(canonicalChat(serverMsg(50, 1, "hi", now, "")))

	// One canonical + one surviving pending: the single canonical message may
	// only retire one placeholder.
	if len(view.Messages) != 2 {
		t.Fatalf("view has %d messages, want 2", len(view.Messages))
	}
	if len(r.pending) != 1 {
		t.Fatalf("%d pending entries left, want 1", len(r.pending))
	}
}

func TestContentFallbackRespectsWindow(t *testing.T) {
	r := testReconciler()
	now := time.Now()

	r.applyLocal(Message{ID: 1, ChatID: 7, SenderID: 1, Body: "hi", Timestamp: now, CorrelationID: "c-1"})

	// Same content, but far outside the match window: not the same message.
	view := r.merge(canonicalChat(serverMsg(50, 1, "hi", now.Add(-time.Hour), "")))

	if len(view.Messages) != 2 {
		t.Fatalf("view has %d messages, want 2 (no retire outside window)", len(view.Messages))
	}
}

func TestFailedEntryLifecycle(t *testing.T) {
	r := testReconciler()
	now := time.Now()

	r.applyLocal(Message{ID: 1, ChatID: 7, SenderID: 1, Body: "hi", Timestamp: now, CorrelationID: "c-1"})

	if !r.markFailed("c-1") {
		t.Fatal("markFailed did not find the pending entry")
	}

	view := r.merge(canonicalChat())
	if view.Messages[len(view.Messages)-1].Delivery != DeliveryFailed {
		t.Fatal("failed entry should render as failed, not vanish")
	}

	msg, ok := r.markRetrying("c-1")
	if !ok || msg.Body != "hi" {
		t.Fatalf("markRetrying = %+v, %v", msg, ok)
	}

	if !r.discard("c-1") {
		t.Fatal("discard did not find the entry")
	}
	if len(r.pendingView(7)) != 0 {
		t.Fatal("discarded entry still visible")
	}
}
