package interfaces

import "github.com/ezloteam/cote/domain"

// Codec serializes announcement envelopes, optionally wrapping them in a shared-key cipher.
//
// Decode of a zero-length payload is a distinguished case (sender departed) reported by the implementation
// through a sentinel error; any other failure means "not a message for us".
//
// Implemented by service.Codec. Called from service.Network on every send and receive.
//
//go:generate moq -stub -out mock/codec.go -pkg mock . Codec
type Codec interface {
	Encode(env domain.Envelope) ([]byte, error)
	Decode(payload []byte) (domain.Envelope, error)
}
