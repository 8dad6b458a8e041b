package rabbit

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"
)

const PaymentCompletedKey = "payment.completed"

type Config struct {
	URL          string
	Exchange     string
	PaymentQueue string
	Attempts     int
	Delay        time.Duration
}

type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	log      *zerolog.Logger
}

type Rabbiter interface {
	Close()
	Publish(ctx context.Context, routingKey string, body []byte) error
	Consume(handler func([]byte) error) error
}

// NewRabbit dials the broker, retrying with backoff, then declares the topic
// exchange and the payment queue bound to PaymentCompletedKey.
func NewRabbit(cfg Config, log *zerolog.Logger) (*Client, error) {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	var conn *amqp.Connection
	err := retry.Do(func() error {
		var dialErr error
		conn, dialErr = amqp.Dial(cfg.URL)
		if dialErr != nil {
			log.Warn().Err(dialErr).Msg("RabbitMQ not reachable, retrying")
		}
		return dialErr
	}, retry.Strategy{Attempts: cfg.Attempts, Delay: cfg.Delay, Backoff: 2})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	client := &Client{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		queue:    cfg.PaymentQueue,
		log:      log,
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		cfg.PaymentQueue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(
		cfg.PaymentQueue,
		PaymentCompletedKey,
		cfg.Exchange,
		false,
		nil,
	); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Info().Msgf("RabbitMQ initialized (exchange=%s, queue=%s)", cfg.Exchange, cfg.PaymentQueue)

	return client, nil
}

func (c *Client) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.log.Info().Msg("RabbitMQ connection closed")
}

func (c *Client) Publish(ctx context.Context, routingKey string, body []byte) error {
	err := c.channel.PublishWithContext(
		ctx,
		c.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	c.log.Debug().Msgf("Message published to exchange=%s key=%s", c.exchange, routingKey)
	return nil
}

// Consume delivers payment messages to handler. A handler error nacks the
// delivery for redelivery; nil acks it.
func (c *Client) Consume(handler func([]byte) error) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				c.log.Warn().Err(err).Msg("failed to process message, requeueing")
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}()

	c.log.Info().Msgf("Started consuming from queue %s", c.queue)
	return nil
}

// NopPublisher stands in for the broker when messaging is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }
