package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dchest/uniuri"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/notify"
	"github.com/comcastmike/rdkservices/internal/util"
)

const (
	sessionBacklog = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxRequestSize = 4096
)

var eventsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// SessionRequest is a message sent by an event session client.
//
//	{"type":"register","event":"resolutionChanged","id":"client-1"}
//	{"type":"unregister","id":"client-1"}
//	{"type":"ping"}
//
// An event of "*" registers every notification kind.
type SessionRequest struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	ID    string `json:"id,omitempty"`
}

// SessionMessage is a message sent to an event session client.
type SessionMessage struct {
	Type    string                 `json:"type"`
	Session string                 `json:"session,omitempty"`
	Event   string                 `json:"event,omitempty"`
	ID      string                 `json:"id,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Removed *bool                  `json:"removed,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// EventHandlers serves notification sessions over WebSocket.
type EventHandlers struct {
	serverService ServerService
}

// NewEventHandlers creates event session handlers
func NewEventHandlers(serverSvc ServerService) *EventHandlers {
	return &EventHandlers{serverService: serverSvc}
}

type eventSession struct {
	id     string
	conn   *websocket.Conn
	fanout *notify.Fanout
	logger *slog.Logger

	out       chan SessionMessage
	done      chan struct{}
	closeOnce sync.Once
}

// HandleEvents upgrades the connection and serves one session. Every
// registration made by the session is removed when the connection closes.
func (h *EventHandlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		util.GetLogger().Error("Failed to upgrade events WebSocket", "error", err)
		return
	}

	s := &eventSession{
		id:     uniuri.NewLen(12),
		conn:   conn,
		fanout: h.serverService.GetBridge().Fanout,
		out:    make(chan SessionMessage, sessionBacklog),
		done:   make(chan struct{}),
	}
	s.logger = util.GetLogger().With("component", "events", "session", s.id)
	s.logger.Info("Event session opened", "remote", r.RemoteAddr)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()

	s.send(SessionMessage{Type: "session", Session: s.id})
	s.readLoop()
	s.close()
	wg.Wait()
}

func (s *eventSession) readLoop() {
	s.conn.SetReadLimit(maxRequestSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req SessionRequest
		if err := s.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.logger.Warn("Event session read error", "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		s.handle(req)
	}
}

func (s *eventSession) handle(req SessionRequest) {
	switch req.Type {
	case "register":
		s.register(req)
	case "unregister":
		s.unregister(req)
	case "ping":
		s.send(SessionMessage{Type: "pong"})
	default:
		s.send(SessionMessage{Type: "error", Error: "unknown request type " + req.Type})
	}
}

// subscriberID scopes client ids to the session so that sessions cannot
// remove each other's registrations.
func (s *eventSession) subscriberID(clientID string) string {
	return s.id + "/" + clientID
}

func (s *eventSession) register(req SessionRequest) {
	kinds := notify.Kinds
	if req.Event != "*" {
		kind, err := notify.ParseKind(req.Event)
		if err != nil {
			s.send(SessionMessage{Type: "error", Event: req.Event, Error: err.Error()})
			return
		}
		kinds = []notify.Kind{kind}
	}

	clientID := req.ID
	if clientID == "" {
		clientID = uuid.NewString()
	}
	for _, kind := range kinds {
		_, err := s.fanout.Register(notify.Registration{
			ID:      s.subscriberID(clientID),
			Session: s.id,
			Kind:    kind,
			Deliver: s.deliver,
		})
		if err != nil {
			s.send(SessionMessage{Type: "error", Event: string(kind), ID: clientID, Error: err.Error()})
			return
		}
	}
	s.send(SessionMessage{Type: "registered", Event: req.Event, ID: clientID})
}

func (s *eventSession) unregister(req SessionRequest) {
	if req.ID == "" {
		s.send(SessionMessage{Type: "error", Error: "unregister needs an id"})
		return
	}

	var removed bool
	if req.Event == "" || req.Event == "*" {
		removed = s.fanout.Unregister(s.subscriberID(req.ID))
	} else {
		kind, err := notify.ParseKind(req.Event)
		if err != nil {
			s.send(SessionMessage{Type: "error", Event: req.Event, Error: err.Error()})
			return
		}
		removed = s.fanout.UnregisterKind(s.subscriberID(req.ID), kind)
	}
	s.send(SessionMessage{Type: "unregistered", Event: req.Event, ID: req.ID, Removed: &removed})
}

// deliver runs on the fan-out goroutine and must not block it.
func (s *eventSession) deliver(n notify.Notification) error {
	msg := SessionMessage{Type: "notification", Event: string(n.Kind), Params: n.Params}
	select {
	case <-s.done:
		return errors.Errorf("session %s closed", s.id)
	default:
	}
	select {
	case s.out <- msg:
		return nil
	default:
		return errors.Errorf("session %s backlog full", s.id)
	}
}

func (s *eventSession) send(msg SessionMessage) {
	select {
	case s.out <- msg:
	case <-s.done:
	}
}

func (s *eventSession) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Debug("Event session write failed", "error", err)
				s.close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *eventSession) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		removed := s.fanout.UnregisterSession(s.id)
		s.conn.Close()
		s.logger.Info("Event session closed", "subscribers", removed)
	})
}
