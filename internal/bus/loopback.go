package bus

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/residencia-api/internal/domain/event"
	"github.com/gravadigital/residencia-api/internal/logger"
)

// Loopback publishes through a Client and then hands the same payload to an
// in-process dispatcher. It keeps live fan-out working when the bus is down.
type Loopback struct {
	Client
	local event.Dispatcher
	log   *log.Logger
}

func NewLoopback(client Client, local event.Dispatcher) *Loopback {
	return &Loopback{Client: client, local: local, log: logger.Bus()}
}

func (l *Loopback) Publish(ctx context.Context, topic event.Topic, payload any) {
	l.Client.Publish(ctx, topic, payload)

	raw, err := encode(payload)
	if err != nil {
		l.log.Error("failed to encode event", "topic", topic, "error", err)
		return
	}
	if err := l.local.Dispatch(ctx, topic, raw); err != nil {
		l.log.Warn("local dispatch failed", "topic", topic, "error", err)
	}
}
