package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/residencia-api/internal/logger"
)

// Fanout delivers every event to each registered dispatcher in order. A
// failing dispatcher does not stop delivery to the rest.
type Fanout struct {
	mu          sync.RWMutex
	dispatchers []Dispatcher
	log         *log.Logger
}

func NewFanout(dispatchers ...Dispatcher) *Fanout {
	return &Fanout{
		dispatchers: dispatchers,
		log:         logger.WithContext("component", "event_fanout"),
	}
}

// Add registers another dispatcher
func (f *Fanout) Add(d Dispatcher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatchers = append(f.dispatchers, d)
}

func (f *Fanout) Dispatch(ctx context.Context, topic Topic, payload json.RawMessage) error {
	f.mu.RLock()
	dispatchers := make([]Dispatcher, len(f.dispatchers))
	copy(dispatchers, f.dispatchers)
	f.mu.RUnlock()

	var errs []error
	for _, d := range dispatchers {
		if err := d.Dispatch(ctx, topic, payload); err != nil {
			f.log.Error("event dispatch failed", "topic", topic, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
