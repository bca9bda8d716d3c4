package cifra

import (
	"math"
	"time"
)

// CurrentChordIndex maps a playback progress ratio in [0, 1] to the global
// index of the chord that should be highlighted. It returns -1 when the
// sheet has no chords.
func CurrentChordIndex(sheet Sheet, progress float64) int {
	total := sheet.ChordCount()
	if total == 0 {
		return -1
	}
	if math.IsNaN(progress) || progress <= 0 {
		return 0
	}
	idx := math.Floor(progress * float64(total))
	if idx >= float64(total) {
		return total - 1
	}
	return int(idx)
}

// Progress converts a playback position into a ratio for CurrentChordIndex.
// A zero or negative duration yields 0.
func Progress(current, duration time.Duration) float64 {
	if duration <= 0 || current <= 0 {
		return 0
	}
	if current >= duration {
		return 1
	}
	return float64(current) / float64(duration)
}
