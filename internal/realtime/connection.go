package realtime

import "time"

// Transport is the bidirectional socket behind a connection.
type Transport interface {
	// Send queues a text frame without blocking.
	Send(data []byte) error
	// Ping sends a transport-level ping.
	Ping() error
	// Close sends a close frame best-effort and closes the socket.
	Close(code int, reason string) error
	// Terminate closes the socket immediately. Safe to call more than once.
	Terminate() error
	IsOpen() bool
}

// Connection is the hub's record of one live socket.
type Connection struct {
	id        uint64
	transport Transport

	role            Role
	orderID         string
	branchID        string
	driverID        string
	deliveryOrderID string
	customerID      string

	connectedAt time.Time
	lastPingAt  time.Time
	isAlive     bool
}

func newConnection(id uint64, t Transport, now time.Time) *Connection {
	return &Connection{
		id:          id,
		transport:   t,
		role:        DefaultRole,
		connectedAt: now,
		lastPingAt:  now,
		isAlive:     true,
	}
}

func (c *Connection) touch(now time.Time) {
	c.lastPingAt = now
	c.isAlive = true
}

// subscribe replaces role and the whole scope; absent ids become unset.
func (c *Connection) subscribe(msg inboundMessage) {
	c.role = msg.ClientType
	c.orderID = string(msg.OrderID)
	c.branchID = string(msg.BranchID)
	c.driverID = string(msg.DriverID)
	c.deliveryOrderID = string(msg.DeliveryOrderID)
	c.customerID = string(msg.CustomerID)
}

func (c *Connection) is(roles ...Role) bool {
	for _, r := range roles {
		if c.role == r {
			return true
		}
	}
	return false
}

// sameScope is exact equality between two set ids.
func sameScope(declared, target string) bool {
	return declared != "" && declared == target
}

// ConnectionInfo is a read-only snapshot of a Connection.
type ConnectionInfo struct {
	ID              uint64    `json:"id"`
	Role            Role      `json:"role"`
	OrderID         string    `json:"orderId,omitempty"`
	BranchID        string    `json:"branchId,omitempty"`
	DriverID        string    `json:"driverId,omitempty"`
	DeliveryOrderID string    `json:"deliveryOrderId,omitempty"`
	CustomerID      string    `json:"customerId,omitempty"`
	ConnectedAt     time.Time `json:"connectedAt"`
	LastPingAt      time.Time `json:"lastPingAt"`
	IsAlive         bool      `json:"isAlive"`
}

func (c *Connection) info() ConnectionInfo {
	return ConnectionInfo{
		ID:              c.id,
		Role:            c.role,
		OrderID:         c.orderID,
		BranchID:        c.branchID,
		DriverID:        c.driverID,
		DeliveryOrderID: c.deliveryOrderID,
		CustomerID:      c.customerID,
		ConnectedAt:     c.connectedAt,
		LastPingAt:      c.lastPingAt,
		IsAlive:         c.isAlive,
	}
}
