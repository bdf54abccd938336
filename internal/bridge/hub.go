package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/chatexport/internal/view"
)

// ErrNotConnected is returned when no page is attached to the hub.
var ErrNotConnected = errors.New("no page connected")

// changesBuffer bounds location notifications not yet consumed.
const changesBuffer = 32

// Hub serves one page session at a time and implements view.Feed,
// view.Mounter and prompt.Prompter on top of it. A newer connection
// replaces the older one.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger
	changes  chan string

	mu       sync.Mutex
	sess     *session
	location string
	controls map[string]*control
	pending  map[string]chan PromptResultPayload
	closed   bool
}

// NewHub creates a hub. Call Close to end the change stream.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // the shim runs on the chat origin
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:   logger,
		changes:  make(chan string, changesBuffer),
		controls: make(map[string]*control),
		pending:  make(map[string]chan PromptResultPayload),
	}
}

// Current implements view.Feed.
func (h *Hub) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location
}

// Changes implements view.Feed.
func (h *Hub) Changes() <-chan string {
	return h.changes
}

// Connected reports whether a page is attached.
func (h *Hub) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sess != nil
}

// Controls returns the number of mounted controls.
func (h *Hub) Controls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.controls)
}

// Close drops the current session and closes the change stream.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	sess := h.sess
	close(h.changes)
	h.mu.Unlock()

	if sess != nil {
		sess.conn.Close()
	}
	return nil
}

// ServeWS upgrades the request and runs the session until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sess := &session{conn: conn}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	prev := h.sess
	h.sess = sess
	h.mu.Unlock()

	if prev != nil {
		h.logger.Info("replacing page session", "remote", prev.conn.RemoteAddr().String())
		prev.conn.Close()
		h.cancelPending()
		// The new page starts without controls; force a remount even if
		// it reports the same location.
		h.setLocation("")
	}
	h.logger.Info("page connected", "remote", conn.RemoteAddr().String())

	h.readLoop(sess)
	h.detach(sess)
}

func (h *Hub) readLoop(sess *session) {
	for {
		var msg Message
		if err := sess.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("read message", "error", err)
			}
			return
		}
		if err := h.dispatch(msg); err != nil {
			h.logger.Warn("dropping message", "type", msg.Type, "error", err)
		}
	}
}

func (h *Hub) dispatch(msg Message) error {
	switch msg.Type {
	case TypeLocation:
		var p LocationPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode location: %w", err)
		}
		h.setLocation(p.Href)

	case TypeActivate:
		var p ActivatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode activate: %w", err)
		}
		h.mu.Lock()
		ctl := h.controls[p.Control]
		h.mu.Unlock()
		if ctl == nil {
			return fmt.Errorf("unknown control %q", p.Control)
		}
		h.logger.Debug("control activated", "control", ctl.id, "label", ctl.label)
		go ctl.activate(ctl.ctx)

	case TypePromptResult:
		var p PromptResultPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode prompt result: %w", err)
		}
		h.mu.Lock()
		ch := h.pending[msg.ID]
		delete(h.pending, msg.ID)
		h.mu.Unlock()
		if ch == nil {
			return fmt.Errorf("unknown prompt %q", msg.ID)
		}
		ch <- p

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

func (h *Hub) setLocation(href string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.location = href
	select {
	case h.changes <- href:
	default:
		h.logger.Warn("location change dropped, consumer is behind", "location", href)
	}
}

// detach forgets sess if it is still current. Pending prompts are
// cancelled and an empty location is published so that the next
// connection remounts its control.
func (h *Hub) detach(sess *session) {
	sess.conn.Close()

	h.mu.Lock()
	if h.sess != sess {
		h.mu.Unlock()
		return
	}
	h.sess = nil
	h.mu.Unlock()

	h.cancelPending()
	h.logger.Info("page disconnected")
	h.setLocation("")
}

// cancelPending answers every waiting prompt as cancelled.
func (h *Hub) cancelPending() {
	h.mu.Lock()
	pending := h.pending
	h.pending = make(map[string]chan PromptResultPayload)
	h.mu.Unlock()

	for _, ch := range pending {
		ch <- PromptResultPayload{Cancelled: true}
	}
}

func (h *Hub) send(msg Message) error {
	h.mu.Lock()
	sess := h.sess
	h.mu.Unlock()
	if sess == nil {
		return ErrNotConnected
	}
	return sess.write(msg)
}

// Mount implements view.Mounter.
func (h *Hub) Mount(ctx context.Context, label string, activate view.ActivateFunc) (view.Control, error) {
	c := &control{
		id:       uuid.New().String(),
		label:    label,
		activate: activate,
		ctx:      ctx,
		hub:      h,
	}

	msg, err := NewMessage("", TypeMount, MountPayload{Control: c.id, Label: label})
	if err != nil {
		return nil, fmt.Errorf("encode mount: %w", err)
	}

	h.mu.Lock()
	h.controls[c.id] = c
	h.mu.Unlock()

	if err := h.send(msg); err != nil {
		h.mu.Lock()
		delete(h.controls, c.id)
		h.mu.Unlock()
		return nil, fmt.Errorf("send mount: %w", err)
	}
	return c, nil
}

// PromptText implements prompt.Prompter. A disconnect while waiting
// counts as a cancelled prompt.
func (h *Hub) PromptText(ctx context.Context, message, def string) (string, bool, error) {
	id := uuid.New().String()
	msg, err := NewMessage(id, TypePrompt, PromptPayload{Message: message, Default: def})
	if err != nil {
		return "", false, fmt.Errorf("encode prompt: %w", err)
	}

	ch := make(chan PromptResultPayload, 1)
	h.mu.Lock()
	h.pending[id] = ch
	h.mu.Unlock()

	if err := h.send(msg); err != nil {
		h.mu.Lock()
		delete(h.pending, id)
		h.mu.Unlock()
		return "", false, fmt.Errorf("send prompt: %w", err)
	}

	select {
	case res := <-ch:
		if res.Cancelled {
			return "", false, nil
		}
		return res.Value, true, nil
	case <-ctx.Done():
		h.mu.Lock()
		delete(h.pending, id)
		h.mu.Unlock()
		return "", false, ctx.Err()
	}
}

// Alert implements prompt.Prompter.
func (h *Hub) Alert(_ context.Context, message string) {
	msg, err := NewMessage("", TypeAlert, AlertPayload{Message: message})
	if err == nil {
		err = h.send(msg)
	}
	if err != nil {
		h.logger.Warn("alert not delivered", "message", message, "error", err)
	}
}

type session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (s *session) write(msg Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

type control struct {
	id       string
	label    string
	activate view.ActivateFunc
	ctx      context.Context
	hub      *Hub
}

func (c *control) ID() string { return c.id }

// Unmount removes the control. Once detached, a stale activation from the
// page is ignored even if the unmount frame is not delivered.
func (c *control) Unmount(context.Context) error {
	c.hub.mu.Lock()
	delete(c.hub.controls, c.id)
	c.hub.mu.Unlock()

	msg, err := NewMessage("", TypeUnmount, UnmountPayload{Control: c.id})
	if err != nil {
		return fmt.Errorf("encode unmount: %w", err)
	}
	if err := c.hub.send(msg); err != nil && !errors.Is(err, ErrNotConnected) {
		return fmt.Errorf("send unmount: %w", err)
	}
	return nil
}
