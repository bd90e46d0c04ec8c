package notify

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/util"
)

// Callback delivers one notification to a subscriber.
type Callback func(Notification) error

// Registration describes a subscriber for one notification kind. Session
// ties the registration to a client connection.
type Registration struct {
	ID      string
	Session string
	Kind    Kind
	Deliver Callback
}

type subscriber struct {
	Registration
	removed atomic.Bool
}

// Fanout keeps the subscriber lists and delivers notifications to them.
type Fanout struct {
	mu          sync.RWMutex
	subscribers map[Kind][]*subscriber
	closed      bool

	delivered atomic.Uint64
	failed    atomic.Uint64
}

// NewFanout creates an empty fan-out.
func NewFanout() *Fanout {
	return &Fanout{
		subscribers: make(map[Kind][]*subscriber),
	}
}

// Register adds a subscriber and returns its id. An empty ID is replaced by
// a generated one. Registering the same id for the same kind again replaces
// the callback and keeps the original position.
func (f *Fanout) Register(sub Registration) (string, error) {
	if sub.Deliver == nil {
		return "", errors.New("subscriber has no callback")
	}
	if _, err := ParseKind(string(sub.Kind)); err != nil {
		return "", err
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return "", errors.New("notification fan-out closed")
	}

	list := f.subscribers[sub.Kind]
	for i, existing := range list {
		if existing.ID == sub.ID {
			existing.removed.Store(true)
			list[i] = newSubscriber(sub)
			util.GetLogger().Debug("Subscriber re-registered", "id", sub.ID, "event", sub.Kind)
			return sub.ID, nil
		}
	}
	f.subscribers[sub.Kind] = append(list, newSubscriber(sub))

	util.GetLogger().Info("Subscriber registered", "id", sub.ID, "session", sub.Session, "event", sub.Kind, "total", len(f.subscribers[sub.Kind]))
	return sub.ID, nil
}

func newSubscriber(reg Registration) *subscriber {
	return &subscriber{Registration: reg}
}

// Unregister removes every registration of id. Unknown ids are a no-op and
// report false.
func (f *Fanout) Unregister(id string) bool {
	return f.remove(func(s *subscriber) bool { return s.ID == id }) > 0
}

// UnregisterKind removes the registration of id for one kind.
func (f *Fanout) UnregisterKind(id string, kind Kind) bool {
	return f.remove(func(s *subscriber) bool { return s.ID == id && s.Kind == kind }) > 0
}

// UnregisterSession removes every subscriber owned by session and returns
// how many were removed.
func (f *Fanout) UnregisterSession(session string) int {
	if session == "" {
		return 0
	}
	return f.remove(func(s *subscriber) bool { return s.Session == session })
}

func (f *Fanout) remove(match func(*subscriber) bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := 0
	for kind, list := range f.subscribers {
		kept := list[:0:0]
		for _, s := range list {
			if match(s) {
				s.removed.Store(true)
				removed++
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) == 0 {
			delete(f.subscribers, kind)
		} else {
			f.subscribers[kind] = kept
		}
	}
	if removed > 0 {
		util.GetLogger().Info("Subscribers removed", "count", removed)
	}
	return removed
}

// Notify delivers n to every subscriber of n.Kind in registration order on
// the caller's goroutine and returns the number of successful deliveries.
// The list is snapshotted first; a subscriber removed mid-round is skipped
// if it has not been reached yet. Failing callbacks are logged and skipped.
func (f *Fanout) Notify(n Notification) int {
	f.mu.RLock()
	if f.closed {
		f.mu.RUnlock()
		return 0
	}
	snapshot := make([]*subscriber, len(f.subscribers[n.Kind]))
	copy(snapshot, f.subscribers[n.Kind])
	f.mu.RUnlock()

	delivered := 0
	for _, s := range snapshot {
		if s.removed.Load() {
			continue
		}
		if err := deliver(s, n); err != nil {
			f.failed.Add(1)
			util.GetLogger().Warn("Notification delivery failed", "id", s.ID, "event", n.Kind, "error", err)
			continue
		}
		delivered++
	}
	f.delivered.Add(uint64(delivered))
	util.GetLogger().Debug("Notification delivered", "event", n.Kind, "subscribers", len(snapshot), "delivered", delivered)
	return delivered
}

func deliver(s *subscriber, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return s.Deliver(n)
}

// SubscriberCount returns the number of registrations for kind.
func (f *Fanout) SubscriberCount(kind Kind) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers[kind])
}

// Counts returns the number of registrations per kind.
func (f *Fanout) Counts() map[Kind]int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[Kind]int, len(Kinds))
	for _, k := range Kinds {
		out[k] = len(f.subscribers[k])
	}
	return out
}

// Delivered returns the total successful and failed deliveries.
func (f *Fanout) Delivered() (ok, failed uint64) {
	return f.delivered.Load(), f.failed.Load()
}

// Close drops all subscribers. Later notifications are ignored.
func (f *Fanout) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for _, list := range f.subscribers {
		for _, s := range list {
			s.removed.Store(true)
		}
	}
	f.subscribers = make(map[Kind][]*subscriber)
	util.GetLogger().Info("Notification fan-out closed")
}
