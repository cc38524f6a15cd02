package signaling

import "github.com/goccy/go-json"

// Event is one of the rendezvous notifications below.
type Event interface{ event() }

type (
	// Connected means the rendezvous assigned the session id.
	Connected struct{ Id string }
	// Disconnected means the rendezvous connection was lost or closed.
	Disconnected struct{ Err error }
	// RoomUsers lists the room members (self included) after a join.
	RoomUsers struct {
		Users     []string
		UserCount int
	}
	UserJoined struct {
		UserId    string
		UserCount int
	}
	UserLeft         struct{ UserId string }
	UserDisconnected struct{ UserId string }
	// Signal carries an opaque peer negotiation payload.
	Signal struct {
		FromId string
		Signal json.RawMessage
	}
	// Broadcast is data relayed by the rendezvous to the room.
	Broadcast struct {
		UserId string
		Data   json.RawMessage
	}
	Error struct{ Message string }
)

func (Connected) event()        {}
func (Disconnected) event()     {}
func (RoomUsers) event()        {}
func (UserJoined) event()       {}
func (UserLeft) event()         {}
func (UserDisconnected) event() {}
func (Signal) event()           {}
func (Broadcast) event()        {}
func (Error) event()            {}
