package match

import "sync"

// watchSet tracks suspended watch calls. A single notification wakes
// every watcher registered before it; a watcher that registers after
// a notification only sees the next one. Implemented with one shared
// condition variable and a generation counter rather than a flat set
// of one-shot wakers, since every entry always wakes together:
// capturing the generation at registration time gives each watcher
// the same "before/after" boundary a discrete set would.
type watchSet struct {
	cond *sync.Cond
	gen  uint64
}

func newWatchSet(mu *sync.Mutex) *watchSet {
	return &watchSet{cond: sync.NewCond(mu)}
}

// notify wakes every watcher registered so far.
func (w *watchSet) notify() {
	w.gen++
	w.cond.Broadcast()
}

// register captures the current generation so the caller can later
// wait for the next change without missing one that lands between
// register and wait.
func (w *watchSet) register() uint64 {
	return w.gen
}

// wait blocks until the generation advances past since. The caller
// must hold the Board's mutex.
func (w *watchSet) wait(since uint64) {
	for w.gen == since {
		w.cond.Wait()
	}
}
