// Package monitor collects player session activity
//
// Sessions publish lifecycle events onto an in-process topic. The Monitor
// drains that topic sequentially, logging each event and keeping counters
// that administrators can query
package monitor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/message"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/appflow/pkg/api"
	"github.com/kode4food/appflow/pkg/log"
)

type (
	// Publisher accepts player events
	Publisher interface {
		Publish(*api.PlayerEvent)
	}

	// Monitor consumes player events and keeps running counters
	Monitor struct {
		topic     topic.Topic[*api.PlayerEvent]
		prod      topic.Producer[*api.PlayerEvent]
		cons      topic.Consumer[*api.PlayerEvent]
		counts    map[api.PlayerEventType]int64
		active    int64
		wg        sync.WaitGroup
		mu        sync.RWMutex
		pubMu     sync.RWMutex
		closed    bool
		startOnce sync.Once
		stopOnce  sync.Once
	}
)

var _ Publisher = (*Monitor)(nil)

// flushMarker is sent by Stop behind every accepted event
var flushMarker = &api.PlayerEvent{}

// New creates a Monitor. Events published before Start are retained and
// processed once it starts
func New() *Monitor {
	queue := caravan.NewTopic[*api.PlayerEvent]()
	return &Monitor{
		topic:  queue,
		prod:   queue.NewProducer(),
		cons:   queue.NewConsumer(),
		counts: map[api.PlayerEventType]int64{},
	}
}

// Start begins draining published events. Start has no effect after Stop
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		m.wg.Go(m.run)
	})
}

// Stop stops accepting events, records everything already published if the
// Monitor was started, and releases the topic
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.pubMu.Lock()
		m.closed = true
		message.Send(m.prod, flushMarker)
		m.pubMu.Unlock()

		m.startOnce.Do(func() {})
		m.wg.Wait()
		m.prod.Close()
		m.settle()
		m.cons.Close()
	})
}

// settle returns once the topic has finished notifying its consumers of the
// last put. Registering a consumer takes the topic's observer lock
func (m *Monitor) settle() {
	barrier := m.topic.NewConsumer()
	barrier.Close()
}

// Publish queues an event. Events published after Stop are discarded
func (m *Monitor) Publish(ev *api.PlayerEvent) {
	if ev == nil {
		return
	}
	m.pubMu.RLock()
	defer m.pubMu.RUnlock()
	if m.closed {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	message.Send(m.prod, ev)
}

// Snapshot returns the current counters
func (m *Monitor) Snapshot() *api.ActivityResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[api.PlayerEventType]int64, len(m.counts))
	for k, v := range m.counts {
		counts[k] = v
	}
	return &api.ActivityResponse{
		Counts: counts,
		Active: m.active,
	}
}

func (m *Monitor) run() {
	for ev := range m.cons.Receive() {
		if ev == flushMarker {
			return
		}
		m.record(ev)
	}
}

func (m *Monitor) record(ev *api.PlayerEvent) {
	m.mu.Lock()
	m.counts[ev.Type]++
	switch ev.Type {
	case api.EventSessionStarted:
		m.active++
	case api.EventSessionEnded:
		m.active--
	}
	m.mu.Unlock()

	attrs := []any{
		slog.String("event", string(ev.Type)),
		log.SessionID(ev.SessionID),
		log.FlowID(ev.FlowID),
		log.Index(ev.Index),
	}
	if ev.URL != "" {
		attrs = append(attrs, log.URL(ev.URL))
	}
	if ev.Reason != "" {
		attrs = append(attrs, slog.String("reason", ev.Reason))
	}

	if ev.Type == api.EventMessageRejected {
		slog.Debug("Player event", attrs...)
		return
	}
	slog.Info("Player event", attrs...)
}
