// Package signaling connects peers to a rendezvous service that assigns
// session ids, tracks room membership and relays negotiation payloads.
package signaling

import (
	"context"
	"errors"
)

var ErrNotConnected = errors.New("signaling is not connected")

// Channel is a connection to a rendezvous service.
// Events come from network goroutines, handlers should not block.
type Channel interface {
	Connect(ctx context.Context) error
	Disconnect()
	JoinRoom(roomId string) error
	LeaveRoom(roomId string) error
	SendSignal(targetId string, signal []byte) error
	Id() string
	IsConnected() bool
	OnEvent(fn func(Event))
}
