// Package httpapi wires the HTTP surface for the memory scramble
// server: room creation, a liveness probe, and the WebSocket upgrade
// route, routed with gorilla/mux.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kgh/memscramble/internal/boardfile"
	"github.com/kgh/memscramble/internal/match"
	"github.com/kgh/memscramble/internal/proto"
	"github.com/kgh/memscramble/internal/transport/ws"
)

// NewRouter builds the full HTTP surface: POST /rooms, GET /healthz,
// and GET /rooms/{id}/ws (upgraded by ws.Server).
func NewRouter(lobby *match.Lobby, wsServer *ws.Server, log *zap.Logger) *mux.Router {
	if log == nil {
		log = zap.NewNop()
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/rooms", handleCreateRoom(lobby, log)).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}/ws", handleWebSocket(wsServer)).Methods(http.MethodGet)
	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleCreateRoom(lobby *match.Lobby, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows, columns int
		var labels []string

		if r.Header.Get("Content-Type") == "text/plain" {
			parsed, err := boardfile.Parse(r.Body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rows, columns, labels = parsed.Rows, parsed.Columns, parsed.Labels
		} else {
			var req proto.CreateRoomRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "malformed request body", http.StatusBadRequest)
				return
			}
			rows, columns, labels = req.Rows, req.Columns, req.Labels
		}

		id, _, err := lobby.Create(rows, columns, labels)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		log.Info("http: room created", zap.String("room", id))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(proto.CreateRoomResponse{RoomID: id})
	}
}

func handleWebSocket(wsServer *ws.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := mux.Vars(r)["id"]
		playerID := r.URL.Query().Get("player")
		wsServer.Handle(w, r, roomID, playerID)
	}
}
