package interfaces

import (
	"github.com/ezloteam/cote/domain"
)

// Discoverer is the read/advertise surface of the membership engine exposed over the status API.
//
// Implemented by service.Discover. Called from handlers.HTTPServer.
//
//go:generate moq -stub -out mock/discoverer.go -pkg mock . Discoverer
type Discoverer interface {
	// Nodes returns a snapshot of the peer table.
	Nodes() []domain.Node

	// Identity returns the local identity.
	Identity() domain.Identity

	// Me returns the hello payload that the next announcement will carry.
	Me() domain.Hello

	// Advertise replaces the local advertisement; takes effect on the next hello.
	// Returns a bad_parameter error when v cannot be serialized.
	Advertise(v any) error
}
