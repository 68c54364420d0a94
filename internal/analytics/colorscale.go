package analytics

import "fmt"

// Palette anchors for the progress matrix: warm red for low ratios through
// yellow to cool green for high ratios. Not-attempted cells get neutral gray
// and are never interpolated into the numeric scale.
var (
	colorLow  = [3]int{0xd7, 0x30, 0x27}
	colorMid  = [3]int{0xfe, 0xe0, 0x8b}
	colorHigh = [3]int{0x1a, 0x98, 0x50}
)

const colorNotAttempted = "#9e9e9e"

// ColorFor maps a success ratio to a hex color. The mapping is monotonic
// along the red→yellow→green palette; ratios are clamped to [0,1].
func ColorFor(ratio float64, attempted bool) string {
	if !attempted {
		return colorNotAttempted
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	var from, to [3]int
	var t float64
	if ratio < 0.5 {
		from, to = colorLow, colorMid
		t = ratio * 2
	} else {
		from, to = colorMid, colorHigh
		t = (ratio - 0.5) * 2
	}

	rgb := [3]int{}
	for i := range rgb {
		rgb[i] = from[i] + int(t*float64(to[i]-from[i]))
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}
