package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gravadigital/residencia-api/internal/domain/event"
	"github.com/gravadigital/residencia-api/internal/logger"
)

// RedisClient runs the bus over redis pub/sub. Channel names are topic names.
type RedisClient struct {
	client         *redis.Client
	requestTimeout time.Duration
	log            *log.Logger
}

func NewRedisClient(client *redis.Client, requestTimeout time.Duration) *RedisClient {
	return &RedisClient{
		client:         client,
		requestTimeout: requestTimeout,
		log:            logger.Bus(),
	}
}

func (r *RedisClient) Publish(ctx context.Context, topic event.Topic, payload any) {
	raw, err := encode(payload)
	if err != nil {
		r.log.Error("failed to encode event", "topic", topic, "error", err)
		return
	}
	if err := r.client.Publish(ctx, topic.String(), []byte(raw)).Err(); err != nil {
		r.log.Error("failed to publish event", "topic", topic, "error", err)
		return
	}
	r.log.Debug("event published", "topic", topic)
}

func (r *RedisClient) Send(ctx context.Context, topic event.Topic, request, response any) error {
	data, err := encode(request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	replyTo := "reply." + uuid.NewString()
	sub := r.client.Subscribe(ctx, replyTo)
	defer sub.Close()

	// Wait for the subscription before publishing, or a fast reply is lost.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe reply channel: %w", err)
	}

	body, err := json.Marshal(requestEnvelope{ReplyTo: replyTo, Data: data})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := r.client.Publish(ctx, topic.String(), body).Err(); err != nil {
		return fmt.Errorf("publish request: %w", err)
	}

	timeout := time.NewTimer(r.requestTimeout)
	defer timeout.Stop()

	select {
	case msg, ok := <-sub.Channel():
		if !ok {
			return ErrDisconnected
		}
		var reply replyEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &reply); err != nil {
			return fmt.Errorf("decode reply: %w", err)
		}
		if reply.Error != "" {
			return &RemoteError{Topic: topic, Message: reply.Error}
		}
		if response == nil || len(reply.Data) == 0 {
			return nil
		}
		return json.Unmarshal(reply.Data, response)
	case <-timeout.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *RedisClient) Subscribe(ctx context.Context, d event.Dispatcher, topics ...event.Topic) error {
	channels := make([]string, len(topics))
	for i, t := range topics {
		channels[i] = t.String()
	}

	sub := r.client.Subscribe(ctx, channels...)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	r.log.Info("subscribed to topics", "topics", channels)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return ErrDisconnected
			}
			topic := event.Topic(msg.Channel)
			if err := d.Dispatch(ctx, topic, json.RawMessage(msg.Payload)); err != nil {
				r.log.Warn("event handler failed", "topic", topic, "error", err)
			}
		}
	}
}

func (r *RedisClient) Respond(ctx context.Context, topic event.Topic, fn ResponderFunc) error {
	sub := r.client.Subscribe(ctx, topic.String())
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	r.log.Info("serving requests", "topic", topic)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return ErrDisconnected
			}
			r.answer(ctx, topic, msg.Payload, fn)
		}
	}
}

func (r *RedisClient) answer(ctx context.Context, topic event.Topic, payload string, fn ResponderFunc) {
	var req requestEnvelope
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.ReplyTo == "" {
		r.log.Warn("malformed request dropped", "topic", topic, "error", err)
		return
	}

	var reply replyEnvelope
	result, err := fn(ctx, req.Data)
	if err != nil {
		reply.Error = err.Error()
	} else if reply.Data, err = encode(result); err != nil {
		reply = replyEnvelope{Error: err.Error()}
	}

	body, err := json.Marshal(reply)
	if err != nil {
		r.log.Error("failed to encode reply", "topic", topic, "error", err)
		return
	}
	if err := r.client.Publish(ctx, req.ReplyTo, body).Err(); err != nil {
		r.log.Error("failed to publish reply", "topic", topic, "error", err)
	}
}

func (r *RedisClient) Connected() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return r.client.Ping(ctx).Err() == nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
