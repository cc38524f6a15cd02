package signaling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kingball/kingball/pkg/api"
	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/network"
	"github.com/kingball/kingball/pkg/network/websocket"
)

const sessionWait = 10 * time.Second

// Client is a websocket rendezvous client.
// A lost connection is retried a limited number of times,
// each reconnect gets a new session id.
type Client struct {
	address  string
	attempts int
	delay    time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	conn    *websocket.Connection
	id      string
	stopped bool
	handler func(Event)
	hmu     sync.Mutex
}

type Options struct {
	Attempts int
	Delay    time.Duration
}

func NewClient(address string, opts Options, log *logger.Logger) *Client {
	return &Client{
		address:  address,
		attempts: opts.Attempts,
		delay:    opts.Delay,
		log:      log.Extend(log.With().Str("m", "signal")),
	}
}

func (c *Client) OnEvent(fn func(Event)) { c.hmu.Lock(); c.handler = fn; c.hmu.Unlock() }

func (c *Client) Id() string { c.mu.Lock(); defer c.mu.Unlock(); return c.id }

func (c *Client) IsConnected() bool { c.mu.Lock(); defer c.mu.Unlock(); return c.conn != nil }

// Connect dials the rendezvous and waits for the session id.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.stopped = false
	connected := c.conn != nil
	c.mu.Unlock()
	if connected {
		return nil
	}
	return c.dial(ctx)
}

// Disconnect closes the connection without reconnecting.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.stopped = true
	conn := c.conn
	c.conn, c.id = nil, ""
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
		c.emit(Disconnected{})
	}
}

func (c *Client) JoinRoom(roomId string) error {
	return c.send(api.JoinRoom, api.RoomRequest{RoomId: roomId})
}

func (c *Client) LeaveRoom(roomId string) error {
	return c.send(api.LeaveRoom, api.RoomRequest{RoomId: roomId})
}

func (c *Client) SendSignal(targetId string, signal []byte) error {
	return c.send(api.Signal, api.SignalRequest{TargetId: targetId, Signal: signal})
}

func (c *Client) send(t api.PT, payload any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	data, err := api.Wrap(t, payload)
	if err != nil {
		return err
	}
	return conn.Write(data)
}

func (c *Client) dial(ctx context.Context) error {
	conn, err := websocket.NewClient(ctx, c.address, c.log)
	if err != nil {
		return err
	}
	session := make(chan string, 1)
	conn.OnMessage = func(message []byte, _ error) { c.handle(message, session) }
	conn.Listen()

	wait, cancel := context.WithTimeout(ctx, sessionWait)
	defer cancel()
	var id string
	select {
	case id = <-session:
	case <-conn.Done():
		return websocket.ErrClosed
	case <-wait.Done():
		conn.Close()
		return wait.Err()
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		conn.Close()
		return ErrNotConnected
	}
	c.conn, c.id = conn, id
	c.mu.Unlock()

	c.log.Info().Str("id", id).Msgf("Connected to %v", c.address)
	c.emit(Connected{Id: id})
	go c.watch(conn)
	return nil
}

func (c *Client) watch(conn *websocket.Connection) {
	<-conn.Done()
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn, c.id = nil, ""
	stopped := c.stopped
	c.mu.Unlock()
	if stopped {
		return
	}
	c.log.Warn().Msg("Connection lost")
	c.emit(Disconnected{Err: websocket.ErrClosed})
	c.reconnect()
}

func (c *Client) reconnect() {
	r := network.NewRetry(c.attempts, c.delay)
	for r.Fail() {
		c.mu.Lock()
		stopped := c.stopped
		c.mu.Unlock()
		if stopped {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), sessionWait)
		err := c.dial(ctx)
		cancel()
		if err == nil {
			return
		}
		c.log.Warn().Err(err).Msgf("Reconnect attempt %d/%d failed", r.Attempt(), c.attempts)
	}
	c.emit(Error{Message: "reconnection failed"})
}

func (c *Client) handle(message []byte, session chan<- string) {
	in, err := api.Read(message)
	if err != nil {
		c.log.Warn().Err(err).Msg("Bad packet")
		return
	}
	var ev Event
	switch in.T {
	case api.Session:
		if p := api.Unwrap[api.SessionPayload](in.Payload); p != nil {
			select {
			case session <- p.Id:
			default:
			}
		}
		return
	case api.RoomUsers:
		if p := api.Unwrap[api.RoomUsersPayload](in.Payload); p != nil {
			ev = RoomUsers{Users: p.Users, UserCount: p.UserCount}
		}
	case api.UserJoined:
		if p := api.Unwrap[api.UserPayload](in.Payload); p != nil {
			ev = UserJoined{UserId: p.UserId, UserCount: p.UserCount}
		}
	case api.UserLeft:
		if p := api.Unwrap[api.UserPayload](in.Payload); p != nil {
			ev = UserLeft{UserId: p.UserId}
		}
	case api.UserDisconnected:
		if p := api.Unwrap[api.UserPayload](in.Payload); p != nil {
			ev = UserDisconnected{UserId: p.UserId}
		}
	case api.Signal:
		if p := api.Unwrap[api.SignalPayload](in.Payload); p != nil {
			ev = Signal{FromId: p.UserId, Signal: p.Signal}
		}
	case api.Broadcast:
		if p := api.Unwrap[api.BroadcastPayload](in.Payload); p != nil {
			ev = Broadcast{UserId: p.UserId, Data: p.Data}
		}
	case api.Error:
		if p := api.Unwrap[api.ErrorPayload](in.Payload); p != nil {
			ev = Error{Message: p.Message}
		}
	default:
		c.log.Debug().Msgf("Unknown packet %v", in.T)
		return
	}
	if ev == nil {
		c.log.Warn().Msgf("Malformed %v payload", in.T)
		return
	}
	c.emit(ev)
}

func (c *Client) emit(ev Event) {
	c.hmu.Lock()
	fn := c.handler
	c.hmu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// IsClosed reports whether an error means the channel is gone.
func IsClosed(err error) bool {
	return errors.Is(err, ErrNotConnected) || errors.Is(err, websocket.ErrClosed)
}
