package hal

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// EventKind identifies a raw hardware event.
type EventKind uint8

const (
	EventPreResolutionChange EventKind = iota + 1
	EventPostResolutionChange
	EventHotPlug
	EventActiveInputChanged
	EventZoomSettingsChanged
)

// EventKinds lists every kind the bus may deliver.
var EventKinds = []EventKind{
	EventPreResolutionChange,
	EventPostResolutionChange,
	EventHotPlug,
	EventActiveInputChanged,
	EventZoomSettingsChanged,
}

func (k EventKind) String() string {
	switch k {
	case EventPreResolutionChange:
		return "PreResolutionChange"
	case EventPostResolutionChange:
		return "PostResolutionChange"
	case EventHotPlug:
		return "HotPlug"
	case EventActiveInputChanged:
		return "ActiveInputChanged"
	case EventZoomSettingsChanged:
		return "ZoomSettingsChanged"
	default:
		return "Unknown"
	}
}

// ParseEventKind resolves a kind by its String name, case-insensitively.
func ParseEventKind(name string) (EventKind, error) {
	for _, k := range EventKinds {
		if strings.EqualFold(k.String(), name) {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown event kind %q", name)
}

// EventHandler receives a raw event. It runs on the bus delivery goroutine.
type EventHandler func(kind EventKind, payload []byte)

// EventBus is the hardware event source.
type EventBus interface {
	Subscribe(kind EventKind, handler EventHandler) (unsubscribe func(), err error)
}

// LocalBus is an in-process EventBus. Publish delivers synchronously on the
// caller's goroutine, which plays the role of the hardware delivery thread.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[EventKind]map[int]EventHandler
	nextID   int
	closed   bool
}

// NewLocalBus creates an empty bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{
		handlers: make(map[EventKind]map[int]EventHandler),
	}
}

// Subscribe registers handler for kind.
func (b *LocalBus) Subscribe(kind EventKind, handler EventHandler) (func(), error) {
	if handler == nil {
		return nil, errors.New("nil event handler")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("event bus closed")
	}

	if b.handlers[kind] == nil {
		b.handlers[kind] = make(map[int]EventHandler)
	}
	b.nextID++
	id := b.nextID
	b.handlers[kind][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[kind], id)
	}, nil
}

// Publish delivers one raw event to every handler subscribed to kind.
func (b *LocalBus) Publish(kind EventKind, payload []byte) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := make([]EventHandler, 0, len(b.handlers[kind]))
	for _, h := range b.handlers[kind] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(kind, payload)
	}
}

// Close drops all handlers; later publishes are ignored.
func (b *LocalBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[EventKind]map[int]EventHandler)
}
