package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var (
	ErrAlreadyStarted = errors.New("realtime hub already started")
	ErrShutdown       = errors.New("realtime hub shut down")
)

// LocationRecorder keeps the last known position of a driver.
type LocationRecorder interface {
	RecordLocation(driverID string, loc Location, deliveryOrderID string) error
}

type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLocationRecorder(r LocationRecorder) Option {
	return func(m *Manager) { m.locations = r }
}

// Manager owns every live connection and fans domain events out to the
// connections whose role and scope match.
//
// All handlers, the heartbeat tick and every broadcast run under mu, one at
// a time. Transport.Send never blocks, so fan-out under the lock is bounded.
type Manager struct {
	cfg       Config
	logger    zerolog.Logger
	now       func() time.Time
	validate  *validator.Validate
	upgrader  websocket.Upgrader
	locations LocationRecorder
	roleTag   string

	mu        sync.Mutex
	conns     map[uint64]*Connection
	order     []uint64 // admission order; never mutated in place
	nextID    uint64
	accepting bool
	closed    bool
	stop      context.CancelFunc
	stopped   chan struct{}
}

func New(cfg Config, logger zerolog.Logger, opts ...Option) *Manager {
	roles := make([]string, len(Roles))
	for i, r := range Roles {
		roles[i] = string(r)
	}

	m := &Manager{
		cfg:      cfg.withDefaults(),
		logger:   logger,
		now:      time.Now,
		validate: validator.New(),
		roleTag:  "required,oneof=" + strings.Join(roles, " "),
		conns:    make(map[uint64]*Connection),
	}
	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Config() Config {
	return m.cfg
}

// Setup opens admission and starts the heartbeat sweep. The sweep stops
// when ctx is cancelled or on Shutdown.
func (m *Manager) Setup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrShutdown
	}
	if m.accepting {
		return ErrAlreadyStarted
	}

	hbCtx, cancel := context.WithCancel(ctx)
	m.stop = cancel
	m.stopped = make(chan struct{})
	m.accepting = true
	go m.runHeartbeat(hbCtx, m.stopped)

	m.logger.Info().
		Str("path", m.cfg.Path).
		Dur("heartbeatInterval", m.cfg.HeartbeatInterval).
		Dur("staleThreshold", m.cfg.StaleThreshold).
		Msg("Realtime hub started")
	return nil
}

// Shutdown stops the heartbeat, sends a going-away close frame to every
// open connection and clears the registry. Later calls are no-ops.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.accepting = false
	stop, stopped := m.stop, m.stopped
	m.mu.Unlock()

	if stop != nil {
		stop()
		<-stopped
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	count := len(m.conns)
	for _, id := range m.order {
		c := m.conns[id]
		if c == nil || !c.transport.IsOpen() {
			continue
		}
		if err := c.transport.Close(websocket.CloseGoingAway, "server shutting down"); err != nil {
			m.logger.Debug().Err(err).Uint64("connId", id).Msg("Close frame not sent")
		}
	}
	m.conns = make(map[uint64]*Connection)
	m.order = nil

	m.logger.Info().Int("closedConnections", count).Msg("Realtime hub stopped")
}

// Accepting reports whether new connections are admitted.
func (m *Manager) Accepting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accepting
}

// Admit registers a new transport with the default role and greets it.
// It returns the connection id, or 0 when the transport was refused.
func (m *Manager) Admit(t Transport) uint64 {
	now := m.now()
	welcome := m.encode(outboundMessage{Type: FrameWelcome, Timestamp: now})

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.accepting {
		_ = t.Terminate()
		return 0
	}

	m.nextID++
	id := m.nextID
	m.conns[id] = newConnection(id, t, now)
	m.order = append(m.order, id)

	if err := t.Send(welcome); err != nil {
		m.logger.Warn().Err(err).Uint64("connId", id).Msg("Failed to send welcome")
		m.removeLocked(id, "welcome failed")
		return 0
	}

	m.logger.Info().Uint64("connId", id).Int("total", len(m.conns)).Msg("Client connected")
	return id
}

// HandleMessage processes one inbound text frame.
func (m *Manager) HandleMessage(id uint64, data []byte) {
	now := m.now()
	var msg inboundMessage
	decodeErr := json.Unmarshal(data, &msg)

	m.mu.Lock()
	c, ok := m.conns[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	c.touch(now)

	if decodeErr != nil {
		m.mu.Unlock()
		m.logger.Warn().Err(decodeErr).Uint64("connId", id).Msg("Failed to unmarshal message")
		return
	}

	switch msg.Type {
	case InboundSubscribe:
		m.subscribeLocked(c, msg, now)

	case InboundPing:
		m.replyLocked(c, outboundMessage{Type: FramePong, Timestamp: now})

	case InboundDriverLocationUpdate:
		if c.role != RoleDeliveryDriver || c.driverID == "" {
			m.logger.Debug().Uint64("connId", id).Str("role", string(c.role)).Msg("Ignored location update from non-driver")
			m.rejectLocked(c, CodeForbidden, now)
			break
		}
		if msg.Location == nil {
			m.logger.Debug().Uint64("connId", id).Msg("Ignored location update without location")
			break
		}
		driverID, loc, deliveryOrderID := c.driverID, *msg.Location, string(msg.DeliveryOrderID)
		m.mu.Unlock()
		m.BroadcastDriverLocation(driverID, loc, deliveryOrderID)
		return

	default:
		m.logger.Debug().Uint64("connId", id).Str("type", msg.Type).Msg("Ignored unknown message type")
	}
	m.mu.Unlock()
}

// HandlePong records a transport-level pong.
func (m *Manager) HandlePong(id uint64) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.conns[id]; ok {
		c.touch(now)
	}
}

func (m *Manager) HandleClose(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id, "closed")
}

func (m *Manager) HandleError(id uint64, err error) {
	m.logger.Error().Err(err).Uint64("connId", id).Msg("WebSocket transport error")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id, "transport error")
}

// ConnectionCount returns the number of registered connections.
func (m *Manager) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// Connection returns a snapshot of one connection.
func (m *Manager) Connection(id uint64) (ConnectionInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok {
		return ConnectionInfo{}, false
	}
	return c.info(), true
}

// Connections returns snapshots of every connection in admission order.
func (m *Manager) Connections() []ConnectionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ConnectionInfo, 0, len(m.order))
	for _, id := range m.order {
		if c, ok := m.conns[id]; ok {
			out = append(out, c.info())
		}
	}
	return out
}

type Stats struct {
	Connections int          `json:"connections"`
	Roles       map[Role]int `json:"roles"`
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := Stats{Connections: len(m.conns), Roles: make(map[Role]int)}
	for _, c := range m.conns {
		stats.Roles[c.role]++
	}
	return stats
}

func (m *Manager) subscribeLocked(c *Connection, msg inboundMessage, now time.Time) {
	if err := m.validate.Var(string(msg.ClientType), m.roleTag); err != nil {
		m.logger.Warn().Err(err).Uint64("connId", c.id).Str("clientType", string(msg.ClientType)).Msg("Invalid subscription")
		m.rejectLocked(c, CodeInvalidSubscription, now)
		return
	}

	c.subscribe(msg)
	m.logger.Debug().
		Uint64("connId", c.id).
		Str("role", string(c.role)).
		Str("orderId", c.orderID).
		Str("branchId", c.branchID).
		Str("driverId", c.driverID).
		Str("deliveryOrderId", c.deliveryOrderID).
		Str("customerId", c.customerID).
		Msg("Client subscribed")

	m.replyLocked(c, outboundMessage{Type: FrameSubscribed, ClientType: c.role, Timestamp: now})
}

func (m *Manager) rejectLocked(c *Connection, code string, now time.Time) {
	if !m.cfg.NotifyRejections {
		return
	}
	m.replyLocked(c, outboundMessage{Type: FrameError, Code: code, Timestamp: now})
}

// replyLocked sends a frame to a single connection, evicting it on failure.
func (m *Manager) replyLocked(c *Connection, msg outboundMessage) {
	data := m.encode(msg)
	if data == nil {
		return
	}
	if err := c.transport.Send(data); err != nil {
		m.logger.Warn().Err(err).Uint64("connId", c.id).Str("type", msg.Type).Msg("Failed to send reply")
		m.removeLocked(c.id, "send failed")
	}
}

// removeLocked drops a connection and terminates its transport in the same step.
func (m *Manager) removeLocked(id uint64, reason string) {
	c, ok := m.conns[id]
	if !ok {
		return
	}
	delete(m.conns, id)

	next := make([]uint64, 0, len(m.order))
	for _, other := range m.order {
		if other != id {
			next = append(next, other)
		}
	}
	m.order = next

	if err := c.transport.Terminate(); err != nil {
		m.logger.Debug().Err(err).Uint64("connId", id).Msg("Terminate failed")
	}

	m.logger.Info().
		Uint64("connId", id).
		Str("role", string(c.role)).
		Str("reason", reason).
		Int("total", len(m.conns)).
		Msg("Client disconnected")
}

// pruneClosedLocked drops connections whose transport already closed.
func (m *Manager) pruneClosedLocked() {
	for _, id := range m.order {
		if c, ok := m.conns[id]; ok && !c.transport.IsOpen() {
			m.removeLocked(id, "closed")
		}
	}
}

func (m *Manager) encode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to marshal frame")
		return nil
	}
	return data
}
