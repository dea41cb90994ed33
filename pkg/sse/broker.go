package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/adegaexpress/adega/pkg/logger"
	"github.com/adegaexpress/adega/pkg/metrics"
)

const (
	EventConnected = "connected"
	EventHeartbeat = "heartbeat"
)

// Channel is anything the broker can push an event to. A Write error
// removes the channel.
type Channel interface {
	Write(event string, data []byte) error
}

// Broker fans events out to every registered channel. There is no replay:
// a channel only sees events published after it registered.
type Broker struct {
	mu       sync.RWMutex
	channels map[Channel]struct{}
	now      func() time.Time
}

func NewBroker() *Broker {
	return &Broker{channels: make(map[Channel]struct{}), now: time.Now}
}

type clockPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

// Register adds ch and sends it a connected event. If that first write
// fails ch is not kept.
func (b *Broker) Register(ch Channel) error {
	data, err := json.Marshal(clockPayload{Timestamp: b.now().UTC()})
	if err != nil {
		return err
	}
	if err := ch.Write(EventConnected, data); err != nil {
		return err
	}

	b.mu.Lock()
	b.channels[ch] = struct{}{}
	n := len(b.channels)
	b.mu.Unlock()

	metrics.BrokerChannels.Set(float64(n))
	logger.Debug("broker: channel registered", "channels", n)
	return nil
}

func (b *Broker) Unregister(ch Channel) {
	b.mu.Lock()
	_, ok := b.channels[ch]
	delete(b.channels, ch)
	n := len(b.channels)
	b.mu.Unlock()

	if ok {
		metrics.BrokerChannels.Set(float64(n))
		logger.Debug("broker: channel unregistered", "channels", n)
	}
}

// Publish encodes payload once and writes it to a snapshot of the active
// channels. Channels whose write fails are dropped.
func (b *Broker) Publish(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("broker: payload not encodable", "event", event, "error", err)
		return
	}

	b.mu.RLock()
	targets := make([]Channel, 0, len(b.channels))
	for ch := range b.channels {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	metrics.BrokerEvents.WithLabelValues(event).Inc()
	for _, ch := range targets {
		if err := ch.Write(event, data); err != nil {
			metrics.BrokerPruned.Inc()
			logger.Debug("broker: dropping channel", "event", event, "error", err)
			b.Unregister(ch)
		}
	}
}

// Heartbeat pings every channel so dead connections are found even when
// no orders move.
func (b *Broker) Heartbeat() {
	b.Publish(EventHeartbeat, clockPayload{Timestamp: b.now().UTC()})
}

// Len reports the number of registered channels.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels)
}
