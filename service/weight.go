package service

import (
	"math"
	"strconv"
	"time"
)

// DefaultWeight maps a point in time to a value in (-1, 0) that decreases as time goes on:
// the millisecond timestamp scaled down by 10^digits. Nodes started earlier weigh more.
func DefaultWeight(now time.Time) float64 {
	ms := now.UnixMilli()
	digits := len(strconv.FormatInt(ms, 10))
	return -float64(ms) / math.Pow10(digits)
}
