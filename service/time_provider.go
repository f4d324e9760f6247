package service

import (
	"time"

	"github.com/ezloteam/cote/helpers"
	"github.com/ezloteam/cote/interfaces"
)

// timeProvider implements interfaces.TimeProvider. It returns the current time via the injected now func.
// Used by service.Discover for the default weight and peer LastSeen stamps. Built in cmd/main with time.Now().UTC.
type timeProvider struct {
	now func() time.Time
}

// NewTimeProvider creates a TimeProvider that returns time via the given now func. Panics on nil now.
//
// now is time.Now().UTC in production and a fixed clock in tests.
//
// Called from cmd/main and from NewDiscover when no provider is injected.
func NewTimeProvider(now func() time.Time) interfaces.TimeProvider {
	return &timeProvider{now: helpers.NilPanic(now, "service.time_provider.go: now is required")}
}

// Now returns current time from the injected function.
func (t *timeProvider) Now() time.Time {
	return t.now()
}
