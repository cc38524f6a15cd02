// Package rendezvous is the signaling service: it assigns session ids,
// keeps room membership and relays peer negotiation payloads.
package rendezvous

import (
	"net/http"
	"sync"

	"github.com/kingball/kingball/pkg/api"
	"github.com/kingball/kingball/pkg/com"
	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/network"
	"github.com/kingball/kingball/pkg/network/websocket"
)

type user struct {
	id   string
	conn *websocket.Connection
	log  *logger.Logger

	// guarded by the hub lock
	room string
	gone bool
}

func (u *user) send(t api.PT, payload any) {
	data, err := api.Wrap(t, payload)
	if err != nil {
		u.log.Error().Err(err).Msgf("wrap %v", t)
		return
	}
	if err = u.conn.Write(data); err != nil {
		u.log.Debug().Err(err).Msgf("drop %v", t)
	}
}

type Hub struct {
	users       com.Map[string, *user]
	maxRoomSize int

	mu    sync.Mutex
	rooms map[string][]string

	metrics *Metrics
	log     *logger.Logger
}

func NewHub(maxRoomSize int, metrics *Metrics, log *logger.Logger) *Hub {
	return &Hub{
		maxRoomSize: maxRoomSize,
		rooms:       make(map[string][]string),
		metrics:     metrics,
		log:         log,
	}
}

// ServeHTTP upgrades the request and registers a new session.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := network.NewUid()
	log := h.log.Extend(h.log.With().Str("peer", id.Short()))
	conn, err := websocket.NewServer(w, r, log)
	if err != nil {
		log.Warn().Err(err).Msg("Upgrade failed")
		return
	}
	u := &user{id: id.String(), conn: conn, log: log}
	h.users.Put(u.id, u)
	h.metrics.connected(1)
	log.Info().Str("addr", r.RemoteAddr).Msg("Client connected")

	conn.OnMessage = func(message []byte, _ error) { h.handle(u, message) }
	conn.Listen()
	u.send(api.Session, api.SessionPayload{Id: u.id})

	go func() {
		<-conn.Done()
		h.disconnect(u)
	}()
}

func (h *Hub) handle(u *user, message []byte) {
	in, err := api.Read(message)
	if err != nil {
		u.log.Warn().Err(err).Msg("Bad packet")
		return
	}
	h.metrics.packet(in.T)
	switch in.T {
	case api.JoinRoom:
		req := api.Unwrap[api.RoomRequest](in.Payload)
		if req == nil || req.RoomId == "" {
			u.send(api.Error, api.ErrorPayload{Message: "Room ID is required"})
			return
		}
		h.join(u, req.RoomId)
	case api.LeaveRoom:
		room := ""
		if req := api.Unwrap[api.RoomRequest](in.Payload); req != nil {
			room = req.RoomId
		}
		h.leave(u, room)
	case api.Signal:
		req := api.Unwrap[api.SignalRequest](in.Payload)
		if req == nil || req.TargetId == "" {
			return
		}
		if target, err := h.users.Find(req.TargetId); err == nil {
			target.send(api.Signal, api.SignalPayload{UserId: u.id, Signal: req.Signal})
		}
	case api.Broadcast:
		req := api.Unwrap[api.BroadcastRequest](in.Payload)
		if req == nil {
			return
		}
		h.toRoom(h.roomOf(u), u.id, api.Broadcast, api.BroadcastPayload{UserId: u.id, Data: req.Data})
	default:
		u.log.Debug().Msgf("Unknown packet %v", in.T)
	}
}

func (h *Hub) join(u *user, room string) {
	h.mu.Lock()
	if u.gone || u.room == room {
		h.mu.Unlock()
		return
	}
	if h.maxRoomSize > 0 && len(h.rooms[room]) >= h.maxRoomSize {
		h.mu.Unlock()
		u.send(api.Error, api.ErrorPayload{Message: "Room is full"})
		return
	}
	prev := h.removeLocked(u, "")
	u.room = room
	h.rooms[room] = append(h.rooms[room], u.id)
	members := append([]string(nil), h.rooms[room]...)
	h.metrics.rooms.Set(float64(len(h.rooms)))
	h.mu.Unlock()

	if prev != "" {
		u.log.Info().Str("room", prev).Msg("Left")
		h.toRoom(prev, "", api.UserLeft, api.UserPayload{UserId: u.id})
	}
	u.log.Info().Str("room", room).Int("users", len(members)).Msg("Joined")
	h.toRoom(room, "", api.UserJoined, api.UserPayload{UserId: u.id, UserCount: len(members)})
	u.send(api.RoomUsers, api.RoomUsersPayload{Users: members, UserCount: len(members)})
}

// leave removes the user from the room, an empty room param means the current one.
func (h *Hub) leave(u *user, room string) {
	h.mu.Lock()
	room = h.removeLocked(u, room)
	h.mu.Unlock()
	if room == "" {
		return
	}
	u.log.Info().Str("room", room).Msg("Left")
	h.toRoom(room, "", api.UserLeft, api.UserPayload{UserId: u.id})
}

// removeLocked takes the user out of the room and returns its name,
// or an empty string when the user was not there.
func (h *Hub) removeLocked(u *user, room string) string {
	if room == "" {
		room = u.room
	}
	if room == "" || u.room != room {
		return ""
	}
	u.room = ""
	members := h.rooms[room]
	for i, id := range members {
		if id == u.id {
			members = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(members) == 0 {
		delete(h.rooms, room)
	} else {
		h.rooms[room] = members
	}
	h.metrics.rooms.Set(float64(len(h.rooms)))
	return room
}

// disconnect drops the user for good, later joins of it are ignored.
func (h *Hub) disconnect(u *user) {
	h.mu.Lock()
	u.gone = true
	room := h.removeLocked(u, "")
	h.mu.Unlock()
	if room != "" {
		h.toRoom(room, "", api.UserDisconnected, api.UserPayload{UserId: u.id})
	}
	h.users.RemoveByKey(u.id)
	h.metrics.connected(-1)
	u.log.Info().Msg("Client disconnected")
}

func (h *Hub) roomOf(u *user) string { h.mu.Lock(); defer h.mu.Unlock(); return u.room }

// toRoom sends a packet to every room member except the one with the skip id.
func (h *Hub) toRoom(room string, skip string, t api.PT, payload any) {
	if room == "" {
		return
	}
	h.mu.Lock()
	members := append([]string(nil), h.rooms[room]...)
	h.mu.Unlock()
	for _, id := range members {
		if id == skip {
			continue
		}
		if member, err := h.users.Find(id); err == nil {
			member.send(t, payload)
		}
	}
}

// Rooms returns a copy of room membership.
func (h *Hub) Rooms() map[string][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms := make(map[string][]string, len(h.rooms))
	for k, v := range h.rooms {
		rooms[k] = append([]string(nil), v...)
	}
	return rooms
}

// Close drops every connection.
func (h *Hub) Close() {
	for _, u := range h.users.Values() {
		u.conn.Close()
	}
}
