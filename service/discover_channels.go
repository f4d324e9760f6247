package service

import (
	"slices"

	"github.com/go-kit/log/level"

	"github.com/ezloteam/cote/domain"
)

// Join subscribes to a custom channel. Reserved names and channels already joined are refused.
func (d *Discover) Join(channel string) bool {
	if channel == "" || slices.Contains(domain.ReservedChannels, channel) {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.channels[channel]; ok {
		return false
	}
	d.channels[channel] = struct{}{}
	return true
}

// Leave unsubscribes from a custom channel.
func (d *Discover) Leave(channel string) bool {
	d.mu.Lock()
	delete(d.channels, channel)
	d.mu.Unlock()
	return true
}

// Send publishes data on a custom channel. It returns false for reserved names or when data cannot be sent.
func (d *Discover) Send(channel string, data any) bool {
	if channel == "" || slices.Contains(domain.ReservedChannels, channel) {
		return false
	}
	if err := d.network.Send(channel, data); err != nil {
		level.Warn(d.logger).Log("msg", "channel send failed", "channel", channel, "err", err)
		return false
	}
	return true
}

func (d *Discover) channelMessage(ev domain.Event) []domain.NodeEvent {
	d.mu.Lock()
	_, joined := d.channels[ev.Name]
	d.mu.Unlock()
	if !joined {
		return nil
	}
	return []domain.NodeEvent{{
		Kind:     domain.ChannelMessage,
		Channel:  ev.Name,
		SenderID: ev.SenderID,
		Data:     ev.Data,
	}}
}
