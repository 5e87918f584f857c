// Package projection builds the local timeline of one conversation from
// observed message events. It handles deduplication, in-place edits and
// per-user tombstones. It does not decode frames or talk to the network.
package projection

import (
	"chat-sync/domain"
	"slices"
	"sync"
)

// Timeline holds the ordered, id-keyed messages visible to Owner.
// Apply calls are expected from a single goroutine; readers may run concurrently.
type Timeline struct {
	Owner    string
	mu       sync.RWMutex
	messages []domain.Message
	watchers map[int]func([]domain.Message)
	nextID   int
}

func NewTimeline(owner string) *Timeline {
	return &Timeline{
		Owner:    owner,
		messages: nil,
		watchers: make(map[int]func([]domain.Message)),
	}
}

// Apply reconciles one inbound message:
//  1. a tombstone for Owner removes the entry and nothing is inserted
//  2. otherwise an existing entry is overwritten in place, or the message is appended
//
// Arrival order is authoritative; UpdatedAt is never compared.
func (t *Timeline) Apply(message domain.Message) {
	t.mu.Lock()
	t.apply(message)
	snapshot := t.snapshot()
	t.mu.Unlock()
	t.notify(snapshot)
}

// Seed replaces the whole timeline with messages, applied in order.
func (t *Timeline) Seed(messages []domain.Message) {
	t.mu.Lock()
	t.messages = nil
	for _, m := range messages {
		t.apply(m)
	}
	snapshot := t.snapshot()
	t.mu.Unlock()
	t.notify(snapshot)
}

func (t *Timeline) Reset() {
	t.mu.Lock()
	t.messages = nil
	t.mu.Unlock()
	t.notify(nil)
}

// Messages returns a copy of the current timeline.
func (t *Timeline) Messages() []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot()
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Watch registers fn to receive a snapshot after every mutation.
// The returned function unregisters it.
func (t *Timeline) Watch(fn func([]domain.Message)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.watchers[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.watchers, id)
		t.mu.Unlock()
	}
}

func (t *Timeline) apply(message domain.Message) {
	index := slices.IndexFunc(t.messages, func(m domain.Message) bool {
		return m.ID == message.ID
	})
	if message.IsDeletedFor(t.Owner) {
		if index != -1 {
			t.messages = slices.Delete(t.messages, index, index+1)
		}
		return
	}
	if index != -1 {
		t.messages[index] = message
		return
	}
	t.messages = append(t.messages, message)
}

// snapshot must be called with mu held.
func (t *Timeline) snapshot() []domain.Message {
	if t.messages == nil {
		return nil
	}
	return slices.Clone(t.messages)
}

func (t *Timeline) notify(snapshot []domain.Message) {
	t.mu.RLock()
	watchers := make([]func([]domain.Message), 0, len(t.watchers))
	for _, w := range t.watchers {
		watchers = append(watchers, w)
	}
	t.mu.RUnlock()
	for _, w := range watchers {
		w(snapshot)
	}
}
