package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"shoppingtop/internal/models"

	amqp "github.com/streadway/amqp"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares the events queue.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareQueue(ch, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("RabbitMQ client connected", slog.String("queue", cfg.Queue))

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
		logger:  logger,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishListEvent publishes a list lifecycle event as persistent JSON. The
// event type doubles as the message type.
func (c *Client) PublishListEvent(event models.ListEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal list event to JSON: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug("published list event", slog.String("type", event.Type), slog.Uint64("list_id", uint64(event.ListID)))
	return nil
}

// ConsumeListEvents delivers decoded events to handler in a background
// goroutine. A handler error nacks the message without requeueing it, so a
// poison message cannot loop forever.
func (c *Client) ConsumeListEvents(handler func(models.ListEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := handleDelivery(msg.Body, handler); err != nil {
				c.logger.Error("failed to process list event",
					slog.Uint64("delivery_tag", msg.DeliveryTag),
					slog.String("error", err.Error()),
				)
				if nackErr := msg.Nack(false, false); nackErr != nil {
					c.logger.Error("failed to nack message", slog.String("error", nackErr.Error()))
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				c.logger.Error("failed to ack message", slog.String("error", ackErr.Error()))
			}
		}
	}()

	return nil
}

// handleDelivery decodes a message body and passes it to handler.
func handleDelivery(body []byte, handler func(models.ListEvent) error) error {
	var event models.ListEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode list event: %w", err)
	}
	return handler(event)
}

// LogListEvent returns a consumer handler that logs every event it receives.
func LogListEvent(logger *slog.Logger) func(models.ListEvent) error {
	return func(event models.ListEvent) error {
		logger.Info("list event received",
			slog.String("type", event.Type),
			slog.Uint64("list_id", uint64(event.ListID)),
			slog.Uint64("shopper_id", uint64(event.ShopperID)),
			slog.Time("occurred_at", event.OccurredAt),
		)
		return nil
	}
}
