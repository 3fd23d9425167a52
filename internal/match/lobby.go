package match

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lobby is a registry of independently-synchronized Boards keyed by
// room id. Rooms are created on demand rather than matched from a
// waiting queue, since memory-scramble boards can seat any number of
// players.
type Lobby struct {
	mu    sync.RWMutex
	rooms map[string]*Board
	log   *zap.Logger
}

// NewLobby constructs an empty Lobby. A nil logger is replaced with a
// no-op logger and handed down to every Board it creates.
func NewLobby(log *zap.Logger) *Lobby {
	if log == nil {
		log = zap.NewNop()
	}
	return &Lobby{
		rooms: make(map[string]*Board),
		log:   log,
	}
}

// Create builds a new Board and registers it under a fresh room id.
func (l *Lobby) Create(rows, columns int, labels []string) (string, *Board, error) {
	board, err := New(rows, columns, labels, l.log)
	if err != nil {
		return "", nil, err
	}

	id := uuid.NewString()

	l.mu.Lock()
	l.rooms[id] = board
	l.mu.Unlock()

	l.log.Info("lobby: room created", zap.String("room", id), zap.Int("rows", rows), zap.Int("columns", columns))
	return id, board, nil
}

// Get looks up a room by id.
func (l *Lobby) Get(roomID string) (*Board, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.rooms[roomID]
	return b, ok
}

// Close removes a room from the registry. It does not attempt to
// unblock goroutines suspended in that Board's wait queues or watch
// set; there is no cancellation path, so callers must ensure a room
// has no pending callers before closing it.
func (l *Lobby) Close(roomID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rooms[roomID]; !ok {
		return fmt.Errorf("match: unknown room %q", roomID)
	}
	delete(l.rooms, roomID)
	return nil
}

// Count returns the number of currently registered rooms.
func (l *Lobby) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rooms)
}
