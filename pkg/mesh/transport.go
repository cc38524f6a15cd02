package mesh

import (
	"errors"

	"github.com/goccy/go-json"
)

var ErrNotConnected = errors.New("peer is not connected")

// Frame is a typed message exchanged between peers.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Transport is a bidirectional channel to one remote peer.
// Negotiation payloads produced by the transport are opaque to the mesh.
type Transport interface {
	// Signal feeds a remote negotiation payload.
	Signal(data []byte) error
	// Send writes a message when the channel is open.
	Send(data []byte) error
	Connected() bool
	Close() error
}

// TransportHandlers receive transport notifications, possibly from
// transport goroutines.
type TransportHandlers struct {
	OnSignal  func(data []byte)
	OnConnect func()
	OnData    func(data []byte)
	OnClose   func()
	OnError   func(err error)
}

// TransportFactory creates a transport to the peer with the id,
// the initiator starts the negotiation.
type TransportFactory func(id string, initiator bool, h TransportHandlers) (Transport, error)

func encode(t string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Type: t, Payload: raw})
}
