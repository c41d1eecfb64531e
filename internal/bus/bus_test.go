package bus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/residencia-api/internal/config"
	"github.com/gravadigital/residencia-api/internal/domain/event"
)

type received struct {
	topic   event.Topic
	payload json.RawMessage
}

// recorder is a dispatcher that remembers what it was given
type recorder struct {
	mu   sync.Mutex
	got  []received
	fail error
}

func (r *recorder) Dispatch(_ context.Context, topic event.Topic, payload json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, received{topic: topic, payload: payload})
	return r.fail
}

func (r *recorder) events() []received {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]received(nil), r.got...)
}

func busConfig(url string) *config.Config {
	cfg := &config.Config{}
	cfg.Bus.URL = url
	cfg.Bus.ConnectRetries = 1
	cfg.Bus.ConnectTimeout = 200 * time.Millisecond
	cfg.Bus.RequestTimeout = 2 * time.Second
	return cfg
}

func newRedisClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	c := NewRedisClient(redis.NewClient(&redis.Options{Addr: m.Addr()}), 2*time.Second)
	t.Cleanup(func() { _ = c.Close() })
	return c, m
}

func waitForSubscribers(t *testing.T, m *miniredis.Miniredis, channel string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.PubSubNumSub(channel)[channel] > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNullClient_PublishIsNoop(t *testing.T) {
	n := NewNullClient()

	assert.NotPanics(t, func() {
		n.Publish(context.Background(), event.ComplaintCreated, map[string]string{"id": "x"})
		n.Publish(context.Background(), event.ComplaintDeleted, nil)
	})
	assert.False(t, n.Connected())
	assert.NoError(t, n.Close())
}

func TestNullClient_SendIsDisconnected(t *testing.T) {
	var out map[string]any
	err := NewNullClient().Send(context.Background(), event.GetComplaintStats, struct{}{}, &out)

	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestNullClient_SubscribeBlocksUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- NewNullClient().Subscribe(ctx, &recorder{}, event.DomainTopics()...) }()

	select {
	case <-done:
		t.Fatal("subscribe returned before cancellation")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("subscribe did not return after cancellation")
	}
}

func TestConnect_EmptyURLIsNull(t *testing.T) {
	c := Connect(context.Background(), busConfig(""))

	assert.IsType(t, &NullClient{}, c)
}

func TestConnect_UnreachableFallsBackToNull(t *testing.T) {
	cfg := busConfig("redis://127.0.0.1:1/0")
	cfg.Bus.ConnectRetries = 2

	c := Connect(context.Background(), cfg)

	assert.IsType(t, &NullClient{}, c)
	assert.False(t, c.Connected())
}

func TestConnect_Reachable(t *testing.T) {
	m := miniredis.RunT(t)

	c := Connect(context.Background(), busConfig("redis://"+m.Addr()))
	defer c.Close()

	assert.IsType(t, &RedisClient{}, c)
	assert.True(t, c.Connected())
}

func TestLoopback_PublishDispatchesLocally(t *testing.T) {
	rec := &recorder{}
	lb := NewLoopback(NewNullClient(), rec)

	lb.Publish(context.Background(), event.ComplaintUpdated, map[string]string{"id": "c1", "status": "RESOLVED"})

	got := rec.events()
	require.Len(t, got, 1)
	assert.Equal(t, event.ComplaintUpdated, got[0].topic)
	assert.JSONEq(t, `{"id":"c1","status":"RESOLVED"}`, string(got[0].payload))
}

func TestLoopback_DispatchErrorIsSwallowed(t *testing.T) {
	rec := &recorder{fail: errors.New("boom")}
	lb := NewLoopback(NewNullClient(), rec)

	assert.NotPanics(t, func() {
		lb.Publish(context.Background(), event.UserCreated, map[string]string{"id": "u1"})
	})
	assert.Len(t, rec.events(), 1)
}

func TestRelay_ForwardsDomainTopics(t *testing.T) {
	c, m := newRedisClient(t)
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = Relay(ctx, c, rec) }()

	waitForSubscribers(t, m, event.ComplaintCreated.String())

	c.Publish(ctx, event.ComplaintCreated, map[string]string{"id": "c1"})
	c.Publish(ctx, event.NotificationCreated, json.RawMessage(`{"id":"n1","userId":"u1"}`))

	require.Eventually(t, func() bool { return len(rec.events()) == 2 }, 2*time.Second, 10*time.Millisecond)
	got := rec.events()
	assert.Equal(t, event.ComplaintCreated, got[0].topic)
	assert.JSONEq(t, `{"id":"c1"}`, string(got[0].payload))
	assert.Equal(t, event.NotificationCreated, got[1].topic)
}

func TestRedisClient_SendRespond(t *testing.T) {
	c, m := newRedisClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = c.Respond(ctx, event.GetComplaintStats, func(context.Context, json.RawMessage) (any, error) {
			return map[string]int{"total": 3, "pending": 1}, nil
		})
	}()
	waitForSubscribers(t, m, event.GetComplaintStats.String())

	var out struct {
		Total   int `json:"total"`
		Pending int `json:"pending"`
	}
	require.NoError(t, c.Send(ctx, event.GetComplaintStats, struct{}{}, &out))

	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 1, out.Pending)
}

func TestRedisClient_SendRemoteError(t *testing.T) {
	c, m := newRedisClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = c.Respond(ctx, event.GetUserStats, func(context.Context, json.RawMessage) (any, error) {
			return nil, errors.New("database unavailable")
		})
	}()
	waitForSubscribers(t, m, event.GetUserStats.String())

	err := c.Send(ctx, event.GetUserStats, struct{}{}, nil)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "database unavailable", remote.Message)
}

func TestRedisClient_SendTimesOutWithoutResponder(t *testing.T) {
	m := miniredis.RunT(t)
	c := NewRedisClient(redis.NewClient(&redis.Options{Addr: m.Addr()}), 100*time.Millisecond)
	defer c.Close()

	err := c.Send(context.Background(), event.GetUserStats, struct{}{}, nil)

	assert.ErrorIs(t, err, ErrTimeout)
}
