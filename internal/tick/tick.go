// Package tick defines the line/tick time grid shared by the sequencing core.
//
// A line is one row of the sequence; each line is divided into PerLine ticks.
// Absolute times are packed as line<<BitsPerLine | tick.
package tick

const (
	BitsPerLine = 4
	PerLine     = 1 << BitsPerLine

	lineMask = ^(PerLine - 1)
	tickMask = PerLine - 1
)

// At packs a line and a tick within that line into an absolute tick.
func At(line, tick int) int {
	return (line << BitsPerLine) | tick
}

// Line returns the line part of an absolute tick.
func Line(t int) int {
	return t >> BitsPerLine
}

// Tick returns the tick offset of t within its line.
func Tick(t int) int {
	return t & tickMask
}

// Quantize rounds t to the nearest line boundary. A remainder of exactly
// half a line rounds up.
func Quantize(t int) int {
	offset := t & tickMask
	n := t & lineMask
	if offset >= PerLine>>1 {
		n += PerLine
	}
	return n
}
