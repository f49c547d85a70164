package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrTransportClosed = errors.New("transport closed")
	ErrSendBufferFull  = errors.New("send buffer full")
)

// connectionHandler receives the per-socket events of a Client.
type connectionHandler interface {
	HandleMessage(id uint64, data []byte)
	HandlePong(id uint64)
	HandleClose(id uint64)
	HandleError(id uint64, err error)
}

type frame struct {
	messageType int
	data        []byte
}

// Client adapts a gorilla websocket connection to Transport. Writes go
// through a bounded queue drained by WritePump, so Send never blocks.
type Client struct {
	conn           *websocket.Conn
	send           chan frame
	done           chan struct{}
	once           sync.Once
	open           atomic.Bool
	writeWait      time.Duration
	maxMessageSize int64
}

func NewClient(conn *websocket.Conn, cfg Config) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		conn:           conn,
		send:           make(chan frame, cfg.SendBufferSize),
		done:           make(chan struct{}),
		writeWait:      cfg.WriteWait,
		maxMessageSize: cfg.MaxMessageSize,
	}
	c.open.Store(true)
	return c
}

func (c *Client) Send(data []byte) error {
	return c.enqueue(frame{messageType: websocket.TextMessage, data: data})
}

func (c *Client) Ping() error {
	return c.enqueue(frame{messageType: websocket.PingMessage})
}

func (c *Client) Close(code int, reason string) error {
	err := c.enqueue(frame{messageType: websocket.CloseMessage, data: websocket.FormatCloseMessage(code, reason)})
	if err != nil {
		_ = c.Terminate()
	}
	return err
}

func (c *Client) Terminate() error {
	var err error
	c.once.Do(func() {
		c.open.Store(false)
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) IsOpen() bool {
	return c.open.Load()
}

func (c *Client) enqueue(f frame) error {
	if !c.open.Load() {
		return ErrTransportClosed
	}
	select {
	case <-c.done:
		return ErrTransportClosed
	case c.send <- f:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// ReadPump reads frames until the socket fails and reports them to h.
func (c *Client) ReadPump(h connectionHandler, id uint64) {
	defer func() {
		h.HandleClose(id)
		_ = c.Terminate()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		h.HandlePong(id)
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if c.IsOpen() && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.HandleError(id, err)
			}
			return
		}
		h.HandleMessage(id, message)
	}
}

// WritePump writes queued frames to the socket until it is terminated.
func (c *Client) WritePump() {
	defer func() {
		_ = c.Terminate()
	}()

	for {
		select {
		case <-c.done:
			return

		case f := <-c.send:
			deadline := time.Now().Add(c.writeWait)
			switch f.messageType {
			case websocket.CloseMessage:
				_ = c.conn.WriteControl(websocket.CloseMessage, f.data, deadline)
				return
			case websocket.PingMessage:
				if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			default:
				_ = c.conn.SetWriteDeadline(deadline)
				if err := c.conn.WriteMessage(websocket.TextMessage, f.data); err != nil {
					return
				}
			}
		}
	}
}
