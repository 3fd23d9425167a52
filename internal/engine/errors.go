package engine

import "errors"

// Error kinds surfaced by the core, per the flip protocol and
// constructor validation.
var (
	// ErrNoCard is returned when a flip targets a cell that has no
	// card, whether discovered on entry or after waking from a wait.
	ErrNoCard = errors.New("engine: no card at that position")
	// ErrStillHeld is returned when, after a suspended first flip
	// wakes, the cell is again (or still) held by another player.
	ErrStillHeld = errors.New("engine: cell still held by another player")
	// ErrHeld is returned when a second flip targets a cell held by
	// any player, including the caller itself.
	ErrHeld = errors.New("engine: cell is held")
	// ErrOutOfRange is returned when a coordinate falls outside the
	// grid's dimensions.
	ErrOutOfRange = errors.New("engine: coordinate out of range")
	// ErrParse is returned by the constructor when the supplied label
	// count does not match rows*columns, or by the board-file loader
	// on malformed input.
	ErrParse = errors.New("engine: malformed board data")
)
