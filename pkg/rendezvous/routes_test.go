package rendezvous

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/signaling"
)

func TestRoomRoutes(t *testing.T) {
	hub := NewHub(0, NewMetrics(nil), logger.Nop())
	server := httptest.NewServer(routes(hub, "/ws"))
	t.Cleanup(func() { hub.Close(); server.Close() })

	a := newTestPeer(t, "ws"+strings.TrimPrefix(server.URL, "http")+"/ws")
	_ = a.JoinRoom("lobby")
	expect[signaling.RoomUsers](t, a)

	get := func(path string) *http.Response {
		t.Helper()
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	t.Run("list", func(t *testing.T) {
		var rooms []RoomInfo
		if err := json.NewDecoder(get("/rooms").Body).Decode(&rooms); err != nil {
			t.Fatal(err)
		}
		if len(rooms) != 1 || rooms[0].Id != "lobby" || rooms[0].UserCount != 1 {
			t.Errorf("unexpected rooms %+v", rooms)
		}
	})

	t.Run("one", func(t *testing.T) {
		var room RoomInfo
		if err := json.NewDecoder(get("/rooms/lobby").Body).Decode(&room); err != nil {
			t.Fatal(err)
		}
		if len(room.Users) != 1 || room.Users[0] != a.Id() {
			t.Errorf("unexpected room %+v", room)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if resp := get("/rooms/nope"); resp.StatusCode != http.StatusNotFound {
			t.Errorf("status %v", resp.StatusCode)
		}
	})
}
