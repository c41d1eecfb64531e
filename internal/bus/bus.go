// Package bus carries domain events between service instances. Publishing is
// fire-and-forget; when no broker is reachable the process keeps running on a
// NullClient and delivery stays in-process.
package bus

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gravadigital/residencia-api/internal/domain/event"
)

// ErrDisconnected is returned by request/response calls when no broker is attached
var ErrDisconnected = errors.New("bus: not connected")

// ErrTimeout is returned when a request receives no reply in time
var ErrTimeout = errors.New("bus: request timed out")

// Publisher emits domain events. Failures are logged, never returned.
type Publisher interface {
	Publish(ctx context.Context, topic event.Topic, payload any)
}

// ResponderFunc answers one request on a request/response topic
type ResponderFunc func(ctx context.Context, request json.RawMessage) (any, error)

// Client is a Publisher that can also subscribe and do request/response
type Client interface {
	Publisher

	// Send publishes request on topic and decodes the reply into response
	Send(ctx context.Context, topic event.Topic, request, response any) error

	// Subscribe forwards every message on topics to d until ctx is done
	Subscribe(ctx context.Context, d event.Dispatcher, topics ...event.Topic) error

	// Respond serves topic with fn until ctx is done
	Respond(ctx context.Context, topic event.Topic, fn ResponderFunc) error

	Connected() bool
	Close() error
}

// requestEnvelope wraps a request so the responder knows where to reply
type requestEnvelope struct {
	ReplyTo string          `json:"replyTo"`
	Data    json.RawMessage `json:"data"`
}

type replyEnvelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// RemoteError is a failure reported by the responding side
type RemoteError struct {
	Topic   event.Topic
	Message string
}

func (e *RemoteError) Error() string {
	return "bus: " + string(e.Topic) + ": " + e.Message
}

func encode(payload any) (json.RawMessage, error) {
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(payload)
}
