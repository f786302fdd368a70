package events

import "sync"

// Type says which part of the persisted state changed.
type Type int

const (
	HabitsChanged Type = iota
	LogsChanged
	HistoryChanged
	WalletChanged
	MarkersChanged
	// ExternalChange is raised when another process touched the store. The
	// exact scope is unknown, so subscribers should re-read everything.
	ExternalChange
)

func (t Type) String() string {
	switch t {
	case HabitsChanged:
		return "habits"
	case LogsChanged:
		return "logs"
	case HistoryChanged:
		return "history"
	case WalletChanged:
		return "wallet"
	case MarkersChanged:
		return "markers"
	case ExternalChange:
		return "external"
	default:
		return "unknown"
	}
}

// Event is published after a persisted mutation. HabitID is empty for
// changes that are not scoped to one habit.
type Event struct {
	Type    Type
	HabitID string
}

type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously, in subscription order, on the
// publisher's goroutine.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish calls every current subscriber before returning. Handlers may
// subscribe or unsubscribe while being called; the change applies to the
// next Publish.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	snapshot := make([]subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.RUnlock()

	for _, s := range snapshot {
		s.handler(ev)
	}
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
