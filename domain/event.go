package domain

import "encoding/json"

// OverlayDestination is the single logical destination used by pub/sub overlay transports (Redis, MQTT).
// It carries the node's announcement, which retaining overlays keep for late subscribers.
const OverlayDestination = "*"

// OverlayMessageDestination carries one-off channel messages on overlays. Retaining overlays publish it
// without retention and leave the stored announcement untouched.
const OverlayMessageDestination = "*message"

// RemoteInfo describes where an inbound payload came from.
type RemoteInfo struct {
	Address string
	Port    int
}

// InboundKind classifies what a transport delivered.
type InboundKind int

const (
	// InboundMessage is a payload (possibly zero-length) received from a sender.
	InboundMessage InboundKind = iota
	// InboundBrokerDisconnected reports that one broker connection of a multi-broker transport went away.
	InboundBrokerDisconnected
)

// Inbound is one item of a transport's inbound stream.
// SenderID is the transport-level sender identifier (host name on overlays, IP address on UDP).
// BrokerID is empty for single-path transports.
type Inbound struct {
	Kind     InboundKind
	SenderID string
	Payload  []byte
	Remote   RemoteInfo
	BrokerID string
}

// EventKind classifies events produced by the network channel.
type EventKind int

const (
	EventMessage EventKind = iota
	EventNamed
	EventNodeLeft
	EventBrokerDisconnected
)

// String returns the string representation of an EventKind.
func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventNamed:
		return "named"
	case EventNodeLeft:
		return "node_left"
	case EventBrokerDisconnected:
		return "mqtthostdisconnected"
	default:
		return "unknown"
	}
}

// Event is a decoded network channel event. Name and Data are set for EventNamed.
type Event struct {
	Kind     EventKind
	Name     string
	SenderID string
	Data     json.RawMessage
	Envelope Envelope
	Remote   RemoteInfo
	BrokerID string
}

// NodeEventKind classifies events emitted by the membership engine.
type NodeEventKind int

const (
	NodeAdded NodeEventKind = iota
	NodeRemoved
	HelloReceived
	HelloEmitted
	DiscoverError
	ChannelMessage
)

// String returns the string representation of a NodeEventKind.
func (k NodeEventKind) String() string {
	switch k {
	case NodeAdded:
		return "added"
	case NodeRemoved:
		return "removed"
	case HelloReceived:
		return "helloReceived"
	case HelloEmitted:
		return "helloEmitted"
	case DiscoverError:
		return "error"
	case ChannelMessage:
		return "channel"
	default:
		return "unknown"
	}
}

// NodeEvent is emitted to membership engine subscribers. Node is set for added/removed/helloReceived,
// Err for error events, Channel/Data/SenderID for channel messages.
type NodeEvent struct {
	Kind     NodeEventKind
	Node     Node
	Err      error
	Channel  string
	SenderID string
	Data     json.RawMessage
}
