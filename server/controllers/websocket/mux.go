package websocket

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/progress"
	"github.com/pkg/errors"
)

const (
	DefaultHandshakeTimeout = 30 * time.Second
	DefaultOutboxSize       = 100

	invalidHandshakeMessage = "Invalid message format. Please send a JSON with clientId."
)

// SessionRegistry is the registry holding the transport for each progress
// session.
type SessionRegistry interface {
	Attach(sessionKey string, transport progress.Transport)
	Detach(sessionKey string, transport progress.Transport)
}

type Handler interface {
	Handle(w http.ResponseWriter, r *http.Request) error
}

// Multiplexor attaches each websocket connection to the progress session
// named by its first frame and streams that session's events back to it.
type Multiplexor struct {
	upgrader         websocket.Upgrader
	writer           *Writer
	registry         SessionRegistry
	handshakeTimeout time.Duration
	outboxSize       int
}

func NewMultiplexor(log logging.Logger, registry SessionRegistry, handshakeTimeout time.Duration) *Multiplexor {
	if handshakeTimeout <= 0 {
		handshakeTimeout = DefaultHandshakeTimeout
	}
	upgrader := websocket.Upgrader{}
	upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	return &Multiplexor{
		upgrader:         upgrader,
		writer:           &Writer{log: log},
		registry:         registry,
		handshakeTimeout: handshakeTimeout,
		outboxSize:       DefaultOutboxSize,
	}
}

type handshake struct {
	ClientID json.RawMessage `json:"clientId"`
}

type echo struct {
	From    json.RawMessage `json:"from"`
	Message string          `json:"message"`
}

// ErrInvalidHandshake is returned when the first frame does not name a client.
var ErrInvalidHandshake = errors.New("invalid handshake")

// Handle blocks until the client closes the connection.
func (m *Multiplexor) Handle(w http.ResponseWriter, r *http.Request) error {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errors.Wrap(err, "upgrading websocket connection")
	}
	defer conn.Close()

	clientID, sessionKey, err := m.readHandshake(conn)
	if err != nil {
		payload, _ := json.Marshal(map[string]string{"error": invalidHandshakeMessage})
		_ = conn.WriteMessage(websocket.TextMessage, payload)
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return err
	}

	outbox := progress.NewOutbox(m.outboxSize)
	m.registry.Attach(sessionKey, outbox)

	echoes := make(chan []byte)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var writeErr error
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeErr = m.writer.Write(ctx, conn, outbox, echoes)
	}()

	readErr := m.readLoop(conn, clientID, echoes, writerDone)
	m.registry.Detach(sessionKey, outbox)
	outbox.Close()
	cancel()
	<-writerDone

	if writeErr != nil {
		return errors.Wrapf(writeErr, "writing to ws %s", sessionKey)
	}
	return readErr
}

func (m *Multiplexor) readHandshake(conn *websocket.Conn) (json.RawMessage, string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(m.handshakeTimeout)); err != nil {
		return nil, "", err
	}
	_, frame, err := conn.ReadMessage()
	if err != nil {
		return nil, "", errors.Wrap(err, "reading handshake")
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, "", err
	}

	var h handshake
	if err := json.Unmarshal(frame, &h); err != nil {
		return nil, "", ErrInvalidHandshake
	}
	sessionKey, ok := parseClientID(h.ClientID)
	if !ok {
		return nil, "", ErrInvalidHandshake
	}
	return h.ClientID, sessionKey, nil
}

// maxExactID is the largest integer a JSON number decoded as float64 keeps exactly.
const maxExactID = 1 << 53

// parseClientID accepts a JSON string or an integral JSON number. Numbers are
// keyed by their decimal form so 42, 42.0 and 4.2e1 name the same session.
func parseClientID(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", false
	}
	if id, err := n.Int64(); err == nil {
		return strconv.FormatInt(id, 10), true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactID {
		return "", false
	}
	return strconv.FormatInt(int64(f), 10), true
}

func (m *Multiplexor) readLoop(conn *websocket.Conn, clientID json.RawMessage, echoes chan<- []byte, writerDone <-chan struct{}) error {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			return errors.Wrap(err, "reading from ws")
		}

		payload, err := json.Marshal(echo{From: clientID, Message: string(message)})
		if err != nil {
			return err
		}
		select {
		case echoes <- payload:
		case <-writerDone:
			return nil
		}
	}
}
