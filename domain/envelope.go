package domain

import (
	"bytes"
	"encoding/json"
)

// Event names with a fixed meaning on the wire or in the membership engine.
const (
	EventHello = "hello"
)

// ReservedChannels cannot be joined or sent to as custom channels.
var ReservedChannels = []string{"promotion", "demotion", "added", "removed", "master", EventHello}

// Envelope is the announcement wrapper sent over every transport: {"event", "iid", "data"}.
// Data is omitted from the wire when empty.
type Envelope struct {
	Event string          `json:"event"`
	IID   string          `json:"iid"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// HasData reports whether the envelope carries a data field that is not JSON null.
func (e Envelope) HasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// Hello is the payload of a hello announcement.
type Hello struct {
	Weight        float64         `json:"weight"`
	Advertisement json.RawMessage `json:"advertisement,omitempty"`
}
