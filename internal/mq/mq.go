// Package mq carries contact-form events between the API server and the
// notification worker over RabbitMQ or Google Cloud Pub/Sub.
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/portfolio-cms/apiserver/config"
	"github.com/portfolio-cms/apiserver/types"
)

// ErrDisabled is returned by NewFromConfig when no backend is configured.
var ErrDisabled = errors.New("message queue is not configured")

const eventTypeAttribute = "event_type"

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ binds a backend to the channel contact events travel on.
type MQ struct {
	backend        Backend
	contactChannel string
}

// New wraps backend. contactChannel names the queue or topic for contact
// events.
func New(backend Backend, contactChannel string) *MQ {
	return &MQ{backend: backend, contactChannel: contactChannel}
}

// NewFromConfig connects to the backend selected by cfg.Backend.
func NewFromConfig(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case "":
		return nil, ErrDisabled
	case "rabbitmq":
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Backend, err)
	}
	return New(backend, cfg.ContactChannel), nil
}

// PublishContact announces a stored contact submission.
func (m *MQ) PublishContact(ctx context.Context, event types.ContactEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = m.backend.Publish(ctx, m.contactChannel, data, map[string]string{
		eventTypeAttribute: m.contactChannel,
	})
	return err
}

// SubscribeContacts blocks delivering decoded contact events to handle until
// ctx is cancelled. Undecodable payloads are acknowledged and dropped.
func (m *MQ) SubscribeContacts(ctx context.Context, handle func(context.Context, types.ContactEvent) error) error {
	return m.backend.Subscribe(ctx, m.contactChannel, func(ctx context.Context, msg Message) error {
		var event types.ContactEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		return handle(ctx, event)
	})
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
