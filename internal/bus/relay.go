package bus

import (
	"context"

	"github.com/gravadigital/residencia-api/internal/domain/event"
)

// Relay feeds every domain event seen on the bus to d. It blocks until ctx
// is done or the subscription breaks.
func Relay(ctx context.Context, client Client, d event.Dispatcher) error {
	return client.Subscribe(ctx, d, event.DomainTopics()...)
}
