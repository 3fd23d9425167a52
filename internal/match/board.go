// Package match holds the concurrent, stateful heart of the game: the
// Board (grid + per-player turn state + per-cell wait queues + a
// watcher set, all sharing one mutex) and the Lobby that hosts many
// independent Boards, giving an N-player memory-scramble board
// blocking flips, atomic relabeling and change notification.
package match

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kgh/memscramble/internal/engine"
)

// Board is the shared game-state engine described by the flip
// protocol. All exported methods are safe for concurrent use by any
// number of callers; a Board owns all of its mutable state and is the
// only thing that mutates it.
type Board struct {
	mu sync.Mutex

	dims engine.Dimensions
	grid engine.Grid

	turns map[string]*engine.PlayerTurn
	queue map[engine.Coordinate]*waitQueue
	watch *watchSet

	log *zap.Logger
}

// New constructs a Board from rows, columns and row-major labels. It
// fails with engine.ErrParse if the label count does not match
// rows*columns. A nil logger is replaced with a no-op logger.
func New(rows, columns int, labels []string, log *zap.Logger) (*Board, error) {
	dims := engine.Dimensions{Rows: rows, Columns: columns}
	grid, err := engine.NewGrid(dims, labels)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	b := &Board{
		dims:  dims,
		grid:  grid,
		turns: make(map[string]*engine.PlayerTurn),
		queue: make(map[engine.Coordinate]*waitQueue),
		log:   log,
	}
	b.watch = newWatchSet(&b.mu)
	return b, nil
}

// ensurePlayer idempotently registers a player, installing a fresh
// PlayerTurn on first contact. Must be called with mu held.
func (b *Board) ensurePlayer(playerID string) *engine.PlayerTurn {
	t, ok := b.turns[playerID]
	if !ok {
		t = &engine.PlayerTurn{}
		b.turns[playerID] = t
	}
	return t
}

func (b *Board) queueFor(c engine.Coordinate) *waitQueue {
	q, ok := b.queue[c]
	if !ok {
		q = &waitQueue{}
		b.queue[c] = q
	}
	return q
}

func (b *Board) spot(c engine.Coordinate) *engine.Spot {
	return &b.grid[b.dims.Index(c)]
}

// Look registers the player if unknown and returns the rendered view
// of the current state. It never mutates state and never suspends.
func (b *Board) Look(playerID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensurePlayer(playerID)
	return engine.Render(b.dims, b.grid, playerID)
}

// Flip drives the three-phase turn protocol for one player: it first
// completes any pending turn cleanup, then treats this call as the
// player's first or second flip of a new or ongoing turn. The
// returned render always reflects the state visible at the moment
// this call finishes, even on error.
func (b *Board) Flip(playerID string, c engine.Coordinate) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	turn := b.ensurePlayer(playerID)
	b.completeTurn(playerID, turn)

	if !b.dims.InRange(c) {
		return engine.Render(b.dims, b.grid, playerID), engine.ErrOutOfRange
	}

	var err error
	if turn.Idle() {
		err = b.firstFlip(playerID, turn, c)
	} else {
		err = b.secondFlip(playerID, turn, c)
	}

	return engine.Render(b.dims, b.grid, playerID), err
}

// completeTurn runs unconditionally at the start of every flip: if the
// player finished a pair last time (matched or missed), clean it up
// and reset to idle before this flip is interpreted. A player merely
// holding a first card is mid-turn, not "previous" — this flip
// continues that turn as its second flip. The pending branch below
// only ever does anything for the unusual case of a first card whose
// holder was cleared without the turn being reset, and is a no-op in
// the ordinary case where the player still holds its first card.
func (b *Board) completeTurn(playerID string, turn *engine.PlayerTurn) {
	changed := false

	switch {
	case turn.Complete() && turn.Matched:
		first := b.spot(*turn.First)
		second := b.spot(*turn.Second)
		first.Card, first.FaceUp, first.Holder = nil, false, ""
		second.Card, second.FaceUp, second.Holder = nil, false, ""
		changed = true
		b.queueFor(*turn.First).wakeHead()
		b.queueFor(*turn.Second).wakeHead()
		turn.Reset()

	case turn.Complete() && !turn.Matched:
		for _, coord := range [2]engine.Coordinate{*turn.First, *turn.Second} {
			s := b.spot(coord)
			if s.FaceUp && !s.Held() {
				s.FaceUp = false
				changed = true
			}
		}
		turn.Reset()

	case turn.Pending():
		s := b.spot(*turn.First)
		if !s.Held() && s.FaceUp {
			s.FaceUp = false
			changed = true
		}
		// Do not reset: this is the normal in-progress S1 state and
		// the caller's flip is this turn's second flip.
	}

	if changed {
		b.watch.notify()
	}
}

// firstFlip handles a flip against a player's first card of a turn:
// it claims the target cell, suspending the caller if another player
// currently holds it.
func (b *Board) firstFlip(playerID string, turn *engine.PlayerTurn, c engine.Coordinate) error {
	s := b.spot(c)

	if !s.HasCard() {
		return engine.ErrNoCard
	}

	if s.Held() && s.Holder != playerID {
		q := b.queueFor(c)
		ticket := q.enqueue(&b.mu)
		b.log.Debug("flip: enqueued waiter", zap.String("player", playerID))
		ticket.wait()

		if !s.HasCard() {
			// Propagate the wake to whoever is queued behind us: the
			// cell will never un-remove itself, so every remaining
			// waiter needs its own chance to discover that and fail.
			q.wakeHead()
			return engine.ErrNoCard
		}
		if s.Held() {
			q.wakeHead()
			return engine.ErrStillHeld
		}
	}

	wasFaceUp := s.FaceUp
	s.FaceUp = true
	s.Holder = playerID
	turn.First = &c
	if !wasFaceUp {
		b.watch.notify()
	}

	// Let the next queued waiter, if any, learn of the new holder and
	// fail cleanly; preserves FIFO progress without granting it the cell.
	b.queueFor(c).wakeHead()

	return nil
}

// secondFlip handles a flip against a player's second card of a turn:
// it resolves the pair as a match or a miss against the first card
// already held.
func (b *Board) secondFlip(playerID string, turn *engine.PlayerTurn, c engine.Coordinate) error {
	s := b.spot(c)

	if !s.HasCard() {
		b.releaseFirst(turn)
		turn.Reset()
		return engine.ErrNoCard
	}

	if s.Held() {
		b.releaseFirst(turn)
		turn.Reset()
		return engine.ErrHeld
	}

	first := b.spot(*turn.First)
	wasFaceUp := s.FaceUp
	s.FaceUp = true

	if *first.Card == *s.Card {
		s.Holder = playerID
		second := c
		turn.Second = &second
		turn.Matched = true
		// A match is always an observable holder change, even when the
		// target happened to already be face-up.
		b.watch.notify()
		return nil
	}

	second := c
	turn.Second = &second
	turn.Matched = false
	first.Holder = ""
	b.queueFor(*turn.First).wakeHead()

	if !wasFaceUp {
		b.watch.notify()
	}
	return nil
}

// releaseFirst clears the holder on the player's first card (without
// flipping it face-down) and wakes the next waiter on that cell, used
// on both second-flip failure paths.
func (b *Board) releaseFirst(turn *engine.PlayerTurn) {
	first := b.spot(*turn.First)
	first.Holder = ""
	b.queueFor(*turn.First).wakeHead()
}

// Watch suspends the caller until the next observable board change,
// then returns the current rendering.
func (b *Board) Watch(playerID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensurePlayer(playerID)

	since := b.watch.register()
	b.watch.wait(since)

	return engine.Render(b.dims, b.grid, playerID)
}

// Map applies an atomic, all-or-nothing relabeling: f is invoked once
// per distinct label currently on the grid, outside the critical
// section, and the results are then applied in a single pass. If f
// fails for any label, no replacement is applied at all.
func (b *Board) Map(playerID string, f engine.RelabelFunc) (string, error) {
	b.mu.Lock()
	b.ensurePlayer(playerID)
	labels := engine.CollectLabels(b.grid)
	b.mu.Unlock()

	mapping, err := computeReplacements(labels, f)
	if err != nil {
		b.mu.Lock()
		defer b.mu.Unlock()
		return engine.Render(b.dims, b.grid, playerID), err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if engine.ApplyReplacements(b.grid, mapping) {
		b.watch.notify()
	}
	return engine.Render(b.dims, b.grid, playerID), nil
}

// computeReplacements calls f once per label concurrently, outside
// any Board lock, and waits for every call to finish. If any call
// errors it returns one of those errors and no mapping at all.
func computeReplacements(labels []string, f engine.RelabelFunc) (map[string]string, error) {
	type result struct {
		label string
		value string
		err   error
	}

	results := make(chan result, len(labels))
	var wg sync.WaitGroup
	wg.Add(len(labels))
	for _, label := range labels {
		go func(label string) {
			defer wg.Done()
			value, err := f(label)
			results <- result{label: label, value: value, err: err}
		}(label)
	}
	wg.Wait()
	close(results)

	mapping := make(map[string]string, len(labels))
	var firstErr error
	for r := range results {
		if r.err != nil && firstErr == nil {
			firstErr = r.err
			continue
		}
		mapping[r.label] = r.value
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return mapping, nil
}
