package service

import (
	"encoding/json"

	"github.com/go-kit/log/level"

	"github.com/ezloteam/cote/domain"
	"github.com/ezloteam/cote/telemetry"
)

// evaluateHello overwrites the peer record of the announcing instance and registers the broker it came through.
func (d *Discover) evaluateHello(ev domain.Event) []domain.NodeEvent {
	iid := ev.Envelope.IID
	if iid == d.identity.InstanceID || iid == "" || !d.settings.Client {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(ev.Data, &fields); err != nil {
		level.Debug(d.logger).Log("msg", "dropping malformed hello", "sender", ev.SenderID, "err", err)
		return nil
	}
	var hello domain.Hello
	if err := json.Unmarshal(ev.Data, &hello); err != nil {
		level.Debug(d.logger).Log("msg", "dropping malformed hello", "sender", ev.SenderID, "err", err)
		return nil
	}

	node := domain.Node{
		ID:            iid,
		HostName:      ev.SenderID,
		Port:          ev.Remote.Port,
		Weight:        hello.Weight,
		Advertisement: hello.Advertisement,
		Fields:        fields,
		LastSeen:      d.timeProvider.Now(),
	}

	d.mu.Lock()
	prev, known := d.nodes[iid]
	d.nodes[iid] = node
	if known && prev.HostName != node.HostName && !d.hostHasNodesLocked(prev.HostName) {
		delete(d.sources, prev.HostName)
	}
	set, ok := d.sources[node.HostName]
	if !ok {
		set = make(map[string]struct{})
		d.sources[node.HostName] = set
	}
	set[ev.BrokerID] = struct{}{}
	telemetry.Peers.Set(float64(len(d.nodes)))
	d.mu.Unlock()

	events := make([]domain.NodeEvent, 0, 2)
	if !known {
		level.Info(d.logger).Log("msg", "peer added", "iid", iid, "host", node.HostName, "broker", ev.BrokerID)
		events = append(events, domain.NodeEvent{Kind: domain.NodeAdded, Node: node.Clone()})
	}
	return append(events, domain.NodeEvent{Kind: domain.HelloReceived, Node: node.Clone()})
}

// nodeLeft drops broker from the source set of host. Once the set is empty every peer of host is removed.
func (d *Discover) nodeLeft(host, broker string) []domain.NodeEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	if set, ok := d.sources[host]; ok {
		delete(set, broker)
		if len(set) > 0 {
			return nil
		}
		delete(d.sources, host)
	}
	return d.removeHostLocked(host)
}

// brokerDisconnected drops broker from every source set; hosts left without a source are removed.
func (d *Discover) brokerDisconnected(broker string) []domain.NodeEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	var events []domain.NodeEvent
	for host, set := range d.sources {
		if _, ok := set[broker]; !ok {
			continue
		}
		delete(set, broker)
		if len(set) == 0 {
			delete(d.sources, host)
			events = append(events, d.removeHostLocked(host)...)
		}
	}
	return events
}

func (d *Discover) hostHasNodesLocked(host string) bool {
	for _, node := range d.nodes {
		if node.HostName == host {
			return true
		}
	}
	return false
}

func (d *Discover) removeHostLocked(host string) []domain.NodeEvent {
	var events []domain.NodeEvent
	for iid, node := range d.nodes {
		if node.HostName != host {
			continue
		}
		delete(d.nodes, iid)
		level.Info(d.logger).Log("msg", "peer removed", "iid", iid, "host", host)
		events = append(events, domain.NodeEvent{Kind: domain.NodeRemoved, Node: node})
	}
	telemetry.Peers.Set(float64(len(d.nodes)))
	return events
}
