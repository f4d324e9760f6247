package handlers

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/ezloteam/cote/domain"
)

// NodeInfo is one peer of the table.
type NodeInfo struct {
	ID            string          `json:"id"`
	HostName      string          `json:"hostName"`
	Port          int             `json:"port"`
	Weight        float64         `json:"weight"`
	Advertisement json.RawMessage `json:"advertisement,omitempty"`
	LastSeen      time.Time       `json:"lastSeen"`
}

// NodesResponse is the body of GET /v1/nodes.
type NodesResponse struct {
	Nodes []NodeInfo `json:"nodes"`
}

// SelfResponse is the body of GET /v1/self.
type SelfResponse struct {
	HostName      string          `json:"hostName"`
	InstanceID    string          `json:"instanceId"`
	ProcessID     string          `json:"processId"`
	Weight        float64         `json:"weight"`
	Advertisement json.RawMessage `json:"advertisement,omitempty"`
}

// toNodesResponse converts the peer table to API response.
func toNodesResponse(nodes []domain.Node) NodesResponse {
	out := make([]NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NodeInfo{
			ID:            n.ID,
			HostName:      n.HostName,
			Port:          n.Port,
			Weight:        n.Weight,
			Advertisement: n.Advertisement,
			LastSeen:      n.LastSeen.UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return NodesResponse{Nodes: out}
}

func toSelfResponse(identity domain.Identity, me domain.Hello) SelfResponse {
	return SelfResponse{
		HostName:      identity.HostName,
		InstanceID:    identity.InstanceID,
		ProcessID:     identity.ProcessID,
		Weight:        me.Weight,
		Advertisement: me.Advertisement,
	}
}
