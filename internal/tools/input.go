package tools

import (
	"strconv"
	"strings"
)

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// ParseField converts user-typed text into an integer in [lo, hi].
// Non-numeric input yields fallback; out-of-range input is clamped.
func ParseField(text string, lo, hi, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return Clamp(fallback, lo, hi)
	}
	return Clamp(n, lo, hi)
}

func hmsToMs(h, m, s int) int64 {
	return int64(h*3600+m*60+s) * 1000
}

// SplitMs breaks a millisecond duration into hours, minutes and seconds.
func SplitMs(ms int64) (h, m, s int) {
	total := int(ms / 1000)
	return total / 3600, (total % 3600) / 60, total % 60
}
