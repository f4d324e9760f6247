package domain

import (
	"encoding/json"
	"time"
)

// Node is a peer record keyed by the remote instance id. Every hello fully overwrites the record:
// Fields holds all fields of the last hello payload, the typed fields are extracted from it.
type Node struct {
	ID            string
	HostName      string
	Port          int
	Weight        float64
	Advertisement json.RawMessage
	Fields        map[string]json.RawMessage
	LastSeen      time.Time
}

// DecodeAdvertisement unmarshals the advertisement into v. A node without advertisement leaves v untouched.
func (n Node) DecodeAdvertisement(v any) error {
	if len(n.Advertisement) == 0 {
		return nil
	}
	return json.Unmarshal(n.Advertisement, v)
}

// Clone returns a copy that shares no maps or slices with n.
func (n Node) Clone() Node {
	out := n
	if n.Advertisement != nil {
		out.Advertisement = append(json.RawMessage(nil), n.Advertisement...)
	}
	if n.Fields != nil {
		out.Fields = make(map[string]json.RawMessage, len(n.Fields))
		for k, v := range n.Fields {
			out.Fields[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}
