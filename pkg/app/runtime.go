package app

import (
	"encoding/json"
	"sync"

	"github.com/dyike/StockPilot/internal/graph"
	"github.com/dyike/StockPilot/internal/storage"
	"github.com/dyike/StockPilot/models"
)

const (
	topicEvent     = "analysis.event"
	topicCompleted = "analysis.completed"
	topicFailed    = "analysis.failed"
)

type Option func(*Engine)

// WithNotifier receives every transcript event of a run as JSON under
// "analysis.event", and the run outcome under "analysis.completed" or
// "analysis.failed".
func WithNotifier(fn func(topic, payload string)) Option {
	return func(e *Engine) {
		e.notify = fn
	}
}

// WithDependencies replaces the configured models and tool backend.
func WithDependencies(deps graph.Dependencies) Option {
	return func(e *Engine) {
		e.deps = &deps
	}
}

func WithStore(store *storage.Store) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// streamEvents returns the channel a run's callback writes to and a func
// that blocks until everything sent on it has been delivered.
func (e *Engine) streamEvents() (chan *models.ChatResp, func()) {
	events := make(chan *models.ChatResp, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range events {
			e.emit(topicEvent, ev)
		}
	}()
	return events, wg.Wait
}

func (e *Engine) emit(topic string, v any) {
	if e.notify == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		e.log.Warnw("encode event", "topic", topic, "error", err)
		return
	}
	e.notify(topic, string(payload))
}
