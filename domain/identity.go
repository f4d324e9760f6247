package domain

import "github.com/google/uuid"

// Identity is the local node identity. InstanceID is generated fresh on every process start;
// ProcessID is stable for the process lifetime and kept for wire compatibility only (it is not used for filtering).
// HostName is the reachability key peers use to group announcements and departures.
type Identity struct {
	ProcessID  string
	InstanceID string
	HostName   string
}

// NewIdentity creates an Identity with a new random InstanceID. An empty processID is replaced by a random one.
func NewIdentity(hostName, processID string) Identity {
	if processID == "" {
		processID = uuid.NewString()
	}
	return Identity{
		ProcessID:  processID,
		InstanceID: uuid.NewString(),
		HostName:   hostName,
	}
}
