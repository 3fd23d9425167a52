// Package ws implements the WebSocket transport for the memory
// scramble game: one JSON-RPC-ish connection per player, each inbound
// frame decoded into a proto.Request and dispatched straight into the
// addressed Board, built on nhooyr.io/websocket.
package ws

import (
	"net/http"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/kgh/memscramble/internal/engine"
	"github.com/kgh/memscramble/internal/match"
	"github.com/kgh/memscramble/internal/proto"
	"github.com/kgh/memscramble/internal/relabel"
)

// Server upgrades HTTP requests to WebSocket connections and drives
// the flip/look/watch/map protocol against a match.Lobby.
type Server struct {
	lobby *match.Lobby
	log   *zap.Logger
}

// NewServer builds a Server bound to lobby. A nil logger is replaced
// with a no-op logger.
func NewServer(lobby *match.Lobby, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{lobby: lobby, log: log}
}

// Handle upgrades the request and serves one connection until the
// client disconnects or sends a frame that cannot be decoded. roomID
// and playerID are supplied by the caller (extracted from the request
// path/query by the HTTP router).
func (s *Server) Handle(w http.ResponseWriter, r *http.Request, roomID, playerID string) {
	board, ok := s.lobby.Get(roomID)
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	if playerID == "" {
		http.Error(w, "missing player id", http.StatusBadRequest)
		return
	}

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("ws: accept failed", zap.Error(err))
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	for {
		var req proto.Request
		if err := wsjson.Read(ctx, c, &req); err != nil {
			if websocket.CloseStatus(err) != -1 {
				s.log.Debug("ws: connection closed", zap.String("player", playerID))
				return
			}
			s.log.Debug("ws: read failed, closing", zap.Error(err))
			c.Close(websocket.StatusUnsupportedData, "malformed frame")
			return
		}

		resp := s.dispatch(board, playerID, req)
		if err := wsjson.Write(ctx, c, resp); err != nil {
			s.log.Debug("ws: write failed, closing", zap.Error(err))
			return
		}
	}
}

func (s *Server) dispatch(board *match.Board, playerID string, req proto.Request) proto.Response {
	switch req.Op {
	case proto.OpLook:
		return proto.Response{Render: board.Look(playerID)}

	case proto.OpFlip:
		if req.Row == nil || req.Column == nil {
			return proto.Response{Error: "flip requires row and column"}
		}
		render, err := board.Flip(playerID, engine.Coordinate{Row: *req.Row, Column: *req.Column})
		return renderResponse(render, err)

	case proto.OpWatch:
		return proto.Response{Render: board.Watch(playerID)}

	case proto.OpMap:
		f, err := relabel.Lua(req.Script)
		if err != nil {
			return proto.Response{Error: err.Error()}
		}
		render, err := board.Map(playerID, f)
		return renderResponse(render, err)

	default:
		return proto.Response{Error: "unknown op " + req.Op}
	}
}

func renderResponse(render string, err error) proto.Response {
	if err != nil {
		return proto.Response{Render: render, Error: err.Error()}
	}
	return proto.Response{Render: render}
}
