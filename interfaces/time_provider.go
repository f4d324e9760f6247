package interfaces

import "time"

// TimeProvider supplies the current time for the default weight function and peer LastSeen stamps.
// Injected so tests can use a fixed clock instead of time.Now().
//
//go:generate moq -stub -out mock/time_provider.go -pkg mock . TimeProvider
type TimeProvider interface {
	Now() time.Time
}
