package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kingball/kingball/pkg/logger"
)

const (
	maxMessageSize = 64 * 1024
	pingTime       = pongTime * 9 / 10
	pongTime       = 60 * time.Second
	writeWait      = 10 * time.Second
	sendQueue      = 64
)

var ErrClosed = errors.New("websocket is closed")

// Connection is a websocket with serialized reads and writes.
// Messages are delivered into OnMessage from a single reader goroutine.
type Connection struct {
	conn wire
	send chan []byte

	OnMessage MessageHandler

	pingPong bool
	once     sync.Once
	done     chan struct{}
	log      *logger.Logger
}

type MessageHandler func(message []byte, err error)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	WriteBufferPool: &sync.Pool{},
	CheckOrigin:     func(*http.Request) bool { return true },
}

// NewServer upgrades an incoming HTTP request.
// Server connections ping their clients.
func NewServer(w http.ResponseWriter, r *http.Request, log *logger.Logger) (*Connection, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, true, log), nil
}

// NewClient dials the address.
func NewClient(ctx context.Context, address string, log *logger.Logger) (*Connection, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, address, nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, false, log), nil
}

func newSocket(conn *websocket.Conn, pingPong bool, log *logger.Logger) *Connection {
	return &Connection{
		conn:     wire{Conn: conn, writeWait: writeWait},
		send:     make(chan []byte, sendQueue),
		pingPong: pingPong,
		done:     make(chan struct{}),
		log:      log,
	}
}

// Listen starts the read and write pumps.
// OnMessage should be set before the call.
func (c *Connection) Listen() {
	go c.writer()
	go c.reader()
}

// reader pumps messages from the websocket connection to the OnMessage callback.
// Blocking, must be called as goroutine. Serializes all websocket reads.
func (c *Connection) reader() {
	defer func() {
		c.close()
		c.log.Debug().Msg("ws reader closed")
	}()
	c.conn.keepAlive(c.pingPong)
	for {
		message, err := c.conn.next()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("ws read")
			}
			return
		}
		if c.OnMessage != nil {
			c.OnMessage(message, nil)
		}
	}
}

// writer pumps messages from the send channel to the websocket connection.
// Blocking, must be called as goroutine. Serializes all websocket writes.
func (c *Connection) writer() {
	var ping <-chan time.Time
	if c.pingPong {
		ticker := time.NewTicker(pingTime)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer func() {
		_ = c.conn.Close()
		c.log.Debug().Msg("ws writer closed")
	}()
	for {
		select {
		case message := <-c.send:
			if err := c.conn.frame(websocket.TextMessage, message); err != nil {
				c.log.Warn().Err(err).Msg("ws write")
				c.close()
				return
			}
		case <-ping:
			if err := c.conn.frame(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.bye()
			return
		}
	}
}

// Write queues the data for sending.
func (c *Connection) Write(data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Close shuts the connection down, safe to call many times.
func (c *Connection) Close() { c.close() }

// Done is closed when the connection is gone.
func (c *Connection) Done() <-chan struct{} { return c.done }

func (c *Connection) close() { c.once.Do(func() { close(c.done) }) }
