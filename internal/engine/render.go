package engine

import "strings"

// Render produces the observable state as the text document described
// by the board protocol: a dimension header followed by one line per
// cell in row-major order, each terminated with a newline. It never
// mutates grid.
func Render(dims Dimensions, grid Grid, viewer string) string {
	var b strings.Builder
	b.Grow((dims.Count() + 1) * 8)

	b.WriteString(itoa(dims.Rows))
	b.WriteByte('x')
	b.WriteString(itoa(dims.Columns))
	b.WriteByte('\n')

	for i := range grid {
		spot := &grid[i]
		switch {
		case spot.Card == nil:
			b.WriteString("none\n")
		case !spot.FaceUp:
			b.WriteString("down\n")
		case spot.Holder == viewer:
			b.WriteString("my ")
			b.WriteString(*spot.Card)
			b.WriteByte('\n')
		default:
			b.WriteString("up ")
			b.WriteString(*spot.Card)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// itoa avoids pulling in strconv for a single non-negative int
// formatting need in the hot render path.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
