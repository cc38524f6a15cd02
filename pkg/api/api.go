// Package api defines the rendezvous (signaling) protocol shared by
// the rendezvous server and its clients.
//
// Each message is a JSON-encoded "packet" of the following structure:
//
//	t - (required) one of the predefined event names;
//	p - (optional) event payload with arbitrary data.
//
// Packets differentiate by their type with which it is possible to unwrap
// the payload into distinct request/response data structures.
//
// Example:
//
//	{"t":"room_users","p":{"users":["a2c1…","9fe0…"],"userCount":2}}
package api

import (
	"fmt"

	"github.com/goccy/go-json"
)

type PT string

type In struct {
	T       PT              `json:"t"`
	Payload json.RawMessage `json:"p,omitempty"` // should be json.RawMessage for 2-pass unmarshal
}

type Out struct {
	T       PT  `json:"t"`
	Payload any `json:"p,omitempty"`
}

// Client to server.
const (
	JoinRoom  PT = "join_room"
	LeaveRoom PT = "leave_room"
	Signal    PT = "signal"
	Broadcast PT = "broadcast"
)

// Server to client.
const (
	Session          PT = "session"
	UserJoined       PT = "user_joined"
	UserLeft         PT = "user_left"
	UserDisconnected PT = "user_disconnected"
	RoomUsers        PT = "room_users"
	Error            PT = "error"
)

func (p PT) String() string { return string(p) }

type (
	SessionPayload struct {
		Id string `json:"id"`
	}
	RoomRequest struct {
		RoomId string `json:"roomId,omitempty"`
	}
	SignalRequest struct {
		TargetId string          `json:"targetId"`
		Signal   json.RawMessage `json:"signal"`
	}
	SignalPayload struct {
		UserId string          `json:"userId"`
		Signal json.RawMessage `json:"signal"`
	}
	BroadcastRequest struct {
		Data json.RawMessage `json:"data"`
	}
	BroadcastPayload struct {
		UserId string          `json:"userId"`
		Data   json.RawMessage `json:"data"`
	}
	UserPayload struct {
		UserId    string `json:"userId"`
		UserCount int    `json:"userCount,omitempty"`
	}
	RoomUsersPayload struct {
		Users     []string `json:"users"`
		UserCount int      `json:"userCount"`
	}
	ErrorPayload struct {
		Message string `json:"message"`
	}
)

var ErrMalformed = fmt.Errorf("malformed")

// Wrap encodes a packet.
func Wrap(t PT, payload any) ([]byte, error) { return json.Marshal(Out{T: t, Payload: payload}) }

// Read decodes the packet envelope leaving the payload raw.
func Read(data []byte) (In, error) {
	var in In
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if in.T == "" {
		return in, fmt.Errorf("%w: no type", ErrMalformed)
	}
	return in, nil
}

func Unwrap[T any](data []byte) *T {
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil
	}
	return out
}
