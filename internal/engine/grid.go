package engine

// Grid is the row-major slice of spots backing a board. Its length is
// always dims.Count() for the Dimensions it was built with.
type Grid []Spot

// NewGrid builds the initial grid from a caller-supplied sequence of
// labels in row-major order. An empty label is treated as "no card"
// from the outset. Fails with ErrParse if the label count does not
// match rows*columns.
func NewGrid(dims Dimensions, labels []string) (Grid, error) {
	if dims.Rows < 1 || dims.Columns < 1 {
		return nil, ErrParse
	}
	if len(labels) != dims.Count() {
		return nil, ErrParse
	}

	grid := make(Grid, dims.Count())
	for i, label := range labels {
		if label == "" {
			continue
		}
		l := label
		grid[i] = Spot{Card: &l}
	}
	return grid, nil
}

// CollectLabels returns the set of distinct non-empty card labels
// currently present anywhere in the grid, as a snapshot slice. The
// order is unspecified.
func CollectLabels(grid Grid) []string {
	seen := make(map[string]struct{})
	for _, spot := range grid {
		if spot.Card == nil {
			continue
		}
		seen[*spot.Card] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for label := range seen {
		out = append(out, label)
	}
	return out
}

// ApplyReplacements rewrites every spot whose current card is a key
// of mapping to mapping's value for that key, leaving everything else
// untouched. It reports whether any spot actually changed. A label
// that is not a key of mapping (because it arose on the grid after
// the caller collected the input set) is left unchanged, matching the
// atomicity contract of the map operation.
func ApplyReplacements(grid Grid, mapping map[string]string) bool {
	changed := false
	for i := range grid {
		spot := &grid[i]
		if spot.Card == nil {
			continue
		}
		replacement, ok := mapping[*spot.Card]
		if !ok || replacement == *spot.Card {
			continue
		}
		r := replacement
		spot.Card = &r
		changed = true
	}
	return changed
}
