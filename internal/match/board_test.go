package match

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kgh/memscramble/internal/engine"
	"github.com/kgh/memscramble/internal/relabel"
)

func newTestBoard(t *testing.T, rows, cols int, labels []string) *Board {
	t.Helper()
	b, err := New(rows, cols, labels, nil)
	require.NoError(t, err)
	return b
}

func TestNew_RejectsBadLabelCount(t *testing.T) {
	_, err := New(2, 2, []string{"A"}, nil)
	require.ErrorIs(t, err, engine.ErrParse)
}

func TestFlip_SimpleMatch(t *testing.T) {
	b := newTestBoard(t, 2, 2, []string{"A", "A", "B", "B"})

	out, err := b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.NoError(t, err)
	require.Equal(t, "2x2\nmy A\ndown\ndown\ndown\n", out)

	out, err = b.Flip("p1", engine.Coordinate{Row: 0, Column: 1})
	require.NoError(t, err)
	require.Equal(t, "2x2\nmy A\nmy A\ndown\ndown\n", out)

	out, err = b.Flip("p1", engine.Coordinate{Row: 1, Column: 0})
	require.NoError(t, err)
	require.Equal(t, "2x2\nnone\nnone\nmy B\ndown\n", out)
}

func TestFlip_MissThenCleanup(t *testing.T) {
	b := newTestBoard(t, 2, 2, []string{"A", "B", "A", "B"})

	_, err := b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.NoError(t, err)
	out, err := b.Flip("p1", engine.Coordinate{Row: 0, Column: 1})
	require.NoError(t, err)
	require.Equal(t, "2x2\nup A\nup B\ndown\ndown\n", out)

	out, err = b.Flip("p1", engine.Coordinate{Row: 1, Column: 0})
	require.NoError(t, err)
	require.Equal(t, "2x2\ndown\ndown\nmy A\ndown\n", out)
}

func TestFlip_NoCardOnRemovedCell(t *testing.T) {
	b := newTestBoard(t, 1, 2, []string{"A", "A"})
	_, err := b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.NoError(t, err)
	_, err = b.Flip("p1", engine.Coordinate{Row: 0, Column: 1})
	require.NoError(t, err)

	// Start a new turn: this both removes the matched pair and, as the
	// player's own first flip, targets the now-cardless cell.
	_, err = b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.ErrorIs(t, err, engine.ErrNoCard)
}

func TestFlip_SecondFlipSameCoordinateAsFirstFailsHeld(t *testing.T) {
	b := newTestBoard(t, 1, 2, []string{"A", "B"})
	_, err := b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.NoError(t, err)

	out, err := b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.ErrorIs(t, err, engine.ErrHeld)
	// Failing a second flip releases the holder on first without
	// flipping it face-down, so the caller now sees its own card as
	// merely "up", not "my", even though it targeted the same cell.
	require.Contains(t, out, "up A")
}

func TestFlip_OutOfRange(t *testing.T) {
	b := newTestBoard(t, 1, 1, []string{"A"})
	_, err := b.Flip("p1", engine.Coordinate{Row: 5, Column: 0})
	require.ErrorIs(t, err, engine.ErrOutOfRange)
}

func TestFlip_HeldOnSecondRejected(t *testing.T) {
	b := newTestBoard(t, 2, 2, []string{"A", "A", "B", "B"})

	_, err := b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.NoError(t, err)
	_, err = b.Flip("p2", engine.Coordinate{Row: 0, Column: 1})
	require.NoError(t, err)

	out, err := b.Flip("p2", engine.Coordinate{Row: 0, Column: 0})
	require.ErrorIs(t, err, engine.ErrHeld)
	// p2's own first card (0,1) is released but stays face-up, so p2
	// still sees it as "up" (not held by p2 anymore).
	require.Contains(t, out, "up A")
}

// TestFlip_FIFOWaiterFairness verifies that two waiters queued on the
// same cell stay suspended while the holder keeps it, and that both
// are woken and fail cleanly once the cell they wanted disappears. The
// order in which the two results arrive is not checked.
func TestFlip_FIFOWaiterFairness(t *testing.T) {
	b := newTestBoard(t, 1, 2, []string{"A", "A"})

	_, err := b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.NoError(t, err)

	results := make(chan struct {
		who string
		err error
	}, 2)

	started := make(chan string, 2)

	go func() {
		started <- "p2"
		_, err := b.Flip("p2", engine.Coordinate{Row: 0, Column: 0})
		results <- struct {
			who string
			err error
		}{"p2", err}
	}()
	<-started
	time.Sleep(20 * time.Millisecond) // let p2 enqueue first

	go func() {
		started <- "p3"
		_, err := b.Flip("p3", engine.Coordinate{Row: 0, Column: 0})
		results <- struct {
			who string
			err error
		}{"p3", err}
	}()
	<-started
	time.Sleep(20 * time.Millisecond) // let p3 enqueue second

	// p1 matches its own pair, still holding (0,0).
	out, err := b.Flip("p1", engine.Coordinate{Row: 0, Column: 1})
	require.NoError(t, err)
	require.Contains(t, out, "my A")

	// p2 and p3 remain suspended: no release has happened yet.
	select {
	case r := <-results:
		t.Fatalf("expected no waiter to wake yet, got %+v", r)
	case <-time.After(30 * time.Millisecond):
	}

	// New turn: p1 targets (0,0) again, which first completes the
	// previous turn (removing the matched pair and releasing (0,0)'s
	// queue) and then treats this call as p1's own first flip against
	// a cell that no longer has a card.
	_, err = b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.ErrorIs(t, err, engine.ErrNoCard)

	var got []error
	for i := 0; i < 2; i++ {
		select {
		case r := <-results:
			got = append(got, r.err)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for waiter %d to resolve", i)
		}
	}
	require.Len(t, got, 2)
	for _, err := range got {
		require.ErrorIs(t, err, engine.ErrNoCard)
	}
}

func TestMap_AtomicRelabelPreservesPairs(t *testing.T) {
	b := newTestBoard(t, 2, 2, []string{"A", "A", "B", "B"})

	f := func(label string) (string, error) { return label + "!", nil }
	out, err := b.Map("p1", f)
	require.NoError(t, err)
	require.Equal(t, "2x2\ndown\ndown\ndown\ndown\n", out)

	out, err = b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.NoError(t, err)
	require.Equal(t, "2x2\nmy A!\ndown\ndown\ndown\n", out)

	out, err = b.Flip("p1", engine.Coordinate{Row: 0, Column: 1})
	require.NoError(t, err)
	require.Equal(t, "2x2\nmy A!\nmy A!\ndown\ndown\n", out)
}

func TestMap_IdentityIsNoOp(t *testing.T) {
	b := newTestBoard(t, 1, 2, []string{"A", "B"})

	identity := func(label string) (string, error) { return label, nil }
	before, err := b.Map("p1", identity)
	require.NoError(t, err)

	after, err := b.Map("p1", identity)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

// TestMap_LuaIdentityMatchesFuncIdentity verifies that a Lua identity
// script produces the same result as map(identity) built from a plain
// Go function.
func TestMap_LuaIdentityMatchesFuncIdentity(t *testing.T) {
	b1 := newTestBoard(t, 1, 2, []string{"A", "B"})
	b2 := newTestBoard(t, 1, 2, []string{"A", "B"})

	goIdentity := relabel.Func(func(label string) string { return label })
	luaIdentity, err := relabel.Lua(`function relabel(label) return label end`)
	require.NoError(t, err)

	out1, err := b1.Map("p1", goIdentity)
	require.NoError(t, err)
	out2, err := b2.Map("p1", luaIdentity)
	require.NoError(t, err)
	require.Equal(t, out1, out2)
}

func TestMap_FailurePreventsAnyReplacement(t *testing.T) {
	b := newTestBoard(t, 2, 2, []string{"A", "A", "B", "B"})

	boom := func(label string) (string, error) {
		if label == "B" {
			return "", errBoom
		}
		return label + "!", nil
	}

	_, err := b.Map("p1", boom)
	require.ErrorIs(t, err, errBoom)

	out, err := b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.NoError(t, err)
	require.Contains(t, out, "my A\n")
	require.NotContains(t, out, "A!")
}

func TestWatch_WakesOnChangeNotOnLook(t *testing.T) {
	b := newTestBoard(t, 1, 1, []string{"A"})

	done := make(chan string, 1)
	go func() {
		out := b.Watch("watcher")
		done <- out
	}()
	time.Sleep(20 * time.Millisecond)

	b.Look("someone-else")

	select {
	case out := <-done:
		t.Fatalf("watch woke on a mere look: %q", out)
	case <-time.After(30 * time.Millisecond):
	}

	_, err := b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.NoError(t, err)

	select {
	case out := <-done:
		require.True(t, strings.HasPrefix(out, "1x1\n"))
	case <-time.After(time.Second):
		t.Fatalf("watch never woke on flip")
	}
}

func TestLook_IsIdempotentAndDoesNotMutate(t *testing.T) {
	b := newTestBoard(t, 1, 1, []string{"A"})
	a := b.Look("p1")
	c := b.Look("p1")
	require.Equal(t, a, c)
}

// TestConcurrentFlips_ContestedCellSuspendsThenResolves shows that a
// flip against a currently-held cell blocks the caller rather than
// failing immediately, and that it only proceeds once the holder's
// own turn releases the cell.
func TestConcurrentFlips_ContestedCellSuspendsThenResolves(t *testing.T) {
	b := newTestBoard(t, 1, 2, []string{"A", "B"})

	_, err := b.Flip("p1", engine.Coordinate{Row: 0, Column: 0})
	require.NoError(t, err)

	done := make(chan error, 1)
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		close(started)
		_, err := b.Flip("p2", engine.Coordinate{Row: 0, Column: 0})
		done <- err
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("expected p2 to still be suspended, got %v", err)
	default:
	}

	// p1's second flip misses, which releases (0,0)'s holder without
	// removing the card, waking p2's suspended flip.
	_, err = b.Flip("p1", engine.Coordinate{Row: 0, Column: 1})
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for p2's flip to resolve")
	}
	wg.Wait()
}

var errBoom = &staticError{"boom"}

type staticError struct{ msg string }

func (e *staticError) Error() string { return e.msg }
