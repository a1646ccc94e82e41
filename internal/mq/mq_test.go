package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/portfolio-cms/apiserver/config"
	"github.com/portfolio-cms/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBackend delivers published messages to subscribers in-process.
type memBackend struct {
	messages chan Message
	attrs    []map[string]string
	closed   bool
}

func newMemBackend() *memBackend {
	return &memBackend{messages: make(chan Message, 8)}
}

func (b *memBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.attrs = append(b.attrs, attrs)
	b.messages <- Message{ID: channel, Data: data, Attributes: attrs}
	return channel, nil
}

func (b *memBackend) Subscribe(ctx context.Context, _ string, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-b.messages:
			_ = handler(ctx, msg)
		}
	}
}

func (b *memBackend) Close() error {
	b.closed = true
	return nil
}

func TestContactRoundTrip(t *testing.T) {
	backend := newMemBackend()
	queue := New(backend, "contact.submitted")

	created := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	event := types.ContactEvent{ID: 3, Name: "Ada", Email: "ada@example.com", Message: "Hello there!", CreatedAt: created}
	require.NoError(t, queue.PublishContact(context.Background(), event))
	assert.Equal(t, "contact.submitted", backend.attrs[0][eventTypeAttribute])

	backend.messages <- Message{Data: []byte("not json")}

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan types.ContactEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- queue.SubscribeContacts(ctx, func(_ context.Context, ev types.ContactEvent) error {
			received <- ev
			return nil
		})
	}()

	select {
	case got := <-received:
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, event.Email, got.Email)
		assert.True(t, event.CreatedAt.Equal(got.CreatedAt))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for contact event")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	require.NoError(t, queue.Close())
	assert.True(t, backend.closed)
}

func TestNewFromConfig(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.MQConfig{})
	assert.True(t, errors.Is(err, ErrDisabled))

	_, err = NewFromConfig(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.Error(t, err)

	_, err = NewFromConfig(context.Background(), config.MQConfig{Backend: "rabbitmq"})
	assert.ErrorContains(t, err, "rabbitmq url is required")
}
