package bus

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/residencia-api/internal/domain/event"
	"github.com/gravadigital/residencia-api/internal/logger"
)

// NullClient stands in when the broker is unreachable. Publish drops the
// message and Send always fails with ErrDisconnected.
type NullClient struct {
	log *log.Logger
}

func NewNullClient() *NullClient {
	return &NullClient{log: logger.Bus()}
}

func (n *NullClient) Publish(_ context.Context, topic event.Topic, _ any) {
	n.log.Debug("bus disconnected, dropping event", "topic", topic)
}

func (n *NullClient) Send(context.Context, event.Topic, any, any) error {
	return ErrDisconnected
}

func (n *NullClient) Subscribe(ctx context.Context, _ event.Dispatcher, _ ...event.Topic) error {
	<-ctx.Done()
	return nil
}

func (n *NullClient) Respond(ctx context.Context, _ event.Topic, _ ResponderFunc) error {
	<-ctx.Done()
	return nil
}

func (n *NullClient) Connected() bool { return false }

func (n *NullClient) Close() error { return nil }
