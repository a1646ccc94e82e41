package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/portfolio-cms/apiserver/config"
	"google.golang.org/api/option"
)

const (
	subscriptionAckDeadline = 30 * time.Second
	retryMinBackoff         = 10 * time.Second
	retryMaxBackoff         = 10 * time.Minute
)

// PubSubClient maps channels onto Pub/Sub topics, each with one shared
// subscription named <topic><suffix>. Topic handles are kept open so
// publishes reuse their batching goroutines.
type PubSubClient struct {
	client              *pubsub.Client
	subscriptionSuffix  string
	maxDeliveryAttempts int

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubClient constructs a Pub/Sub client from config.
func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}

	suffix := cfg.SubscriptionSuffix
	if suffix == "" {
		suffix = "-sub"
	}
	return &PubSubClient{
		client:              client,
		subscriptionSuffix:  suffix,
		maxDeliveryAttempts: cfg.MaxDeliveryAttempts,
		topics:              make(map[string]*pubsub.Topic),
	}, nil
}

// Publish sends data to the named topic and waits for the server ack.
func (p *PubSubClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("pubsub channel is required")
	}

	topic, err := p.topic(ctx, channel)
	if err != nil {
		return "", err
	}
	id, err := topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", channel, err)
	}
	return id, nil
}

// Subscribe receives from the channel's subscription until ctx is done. A
// handler error nacks the message; the subscription's retry policy spaces
// out redeliveries and moves it to <topic>.dead after the configured number
// of attempts.
func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("pubsub channel is required")
	}

	topic, err := p.topic(ctx, channel)
	if err != nil {
		return err
	}
	var deadTopic *pubsub.Topic
	if p.maxDeliveryAttempts > 0 {
		if deadTopic, err = p.topic(ctx, channel+deadLetterSuffix); err != nil {
			return err
		}
	}
	sub, err := p.ensureSubscription(ctx, channel+p.subscriptionSuffix, subscriptionConfig(topic, deadTopic, p.maxDeliveryAttempts))
	if err != nil {
		return err
	}

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		err := handler(ctx, Message{ID: msg.ID, Data: msg.Data, Attributes: msg.Attributes})
		if err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close flushes open topics and closes the client.
func (p *PubSubClient) Close() error {
	p.mu.Lock()
	for name, topic := range p.topics {
		topic.Stop()
		delete(p.topics, name)
	}
	p.mu.Unlock()
	return p.client.Close()
}

// topic returns the cached handle for name, creating the topic on first use.
func (p *PubSubClient) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if topic, ok := p.topics[name]; ok {
		return topic, nil
	}
	topic := p.client.Topic(name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", name, err)
	}
	if !exists {
		if topic, err = p.client.CreateTopic(ctx, name); err != nil {
			return nil, fmt.Errorf("create topic %s: %w", name, err)
		}
	}
	p.topics[name] = topic
	return topic, nil
}

func (p *PubSubClient) ensureSubscription(ctx context.Context, name string, cfg pubsub.SubscriptionConfig) (*pubsub.Subscription, error) {
	sub := p.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check subscription %s: %w", name, err)
	}
	if exists {
		return sub, nil
	}
	sub, err = p.client.CreateSubscription(ctx, name, cfg)
	if err != nil {
		return nil, fmt.Errorf("create subscription %s: %w", name, err)
	}
	return sub, nil
}

// subscriptionConfig builds the settings for a new subscription on topic.
// deadTopic may be nil, in which case failed messages are retried until
// they expire.
func subscriptionConfig(topic, deadTopic *pubsub.Topic, maxDeliveryAttempts int) pubsub.SubscriptionConfig {
	cfg := pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: subscriptionAckDeadline,
		RetryPolicy: &pubsub.RetryPolicy{
			MinimumBackoff: retryMinBackoff,
			MaximumBackoff: retryMaxBackoff,
		},
	}
	if deadTopic != nil && maxDeliveryAttempts > 0 {
		cfg.DeadLetterPolicy = &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     deadTopic.String(),
			MaxDeliveryAttempts: maxDeliveryAttempts,
		}
	}
	return cfg
}
