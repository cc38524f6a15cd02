package rendezvous

import (
	"net/http"
	"sort"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

type RoomInfo struct {
	Id        string   `json:"id"`
	Users     []string `json:"users"`
	UserCount int      `json:"userCount"`
}

// routes serves the signaling socket on path and a read-only room listing.
func routes(hub *Hub, path string) http.Handler {
	router := mux.NewRouter()
	router.Handle(path, hub).Methods(http.MethodGet)
	router.HandleFunc("/rooms", listRooms(hub)).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{id}", getRoom(hub)).Methods(http.MethodGet)
	router.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("kingball rendezvous"))
	}).Methods(http.MethodGet)
	return router
}

func listRooms(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rooms := hub.Rooms()
		list := make([]RoomInfo, 0, len(rooms))
		for id, users := range rooms {
			list = append(list, RoomInfo{Id: id, Users: users, UserCount: len(users)})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Id < list[j].Id })
		writeJSON(w, list)
	}
}

func getRoom(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		users, ok := hub.Rooms()[id]
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		writeJSON(w, RoomInfo{Id: id, Users: users, UserCount: len(users)})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
