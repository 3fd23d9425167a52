package engine

// RelabelFunc is the externally supplied asynchronous relabeling
// function consumed by the map operation: given a current label, it
// returns the label's replacement, or an error if the replacement
// could not be computed. The Board never calls a RelabelFunc while
// holding its lock.
type RelabelFunc func(label string) (string, error)
