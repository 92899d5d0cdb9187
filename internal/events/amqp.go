package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	defaultBufferSize = 256
	publishTimeout    = 5 * time.Second
)

// AMQPPublisher sends booking events as persistent JSON messages to a durable queue.
// Publish only enqueues; a background goroutine owns the channel.
type AMQPPublisher struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger

	pending chan BookingEvent
	done    chan struct{}
	once    sync.Once
}

func NewAMQPPublisher(url, queue string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel open: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	p := &AMQPPublisher{
		conn:    conn,
		ch:      ch,
		queue:   queue,
		logger:  logger,
		pending: make(chan BookingEvent, defaultBufferSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p, nil
}

func (p *AMQPPublisher) Publish(_ context.Context, event BookingEvent) {
	select {
	case p.pending <- event:
	default:
		p.logger.Warn("booking event dropped, publisher buffer full",
			zap.String("type", string(event.Type)),
			zap.String("booking_id", event.BookingID),
		)
	}
}

func (p *AMQPPublisher) run() {
	defer close(p.done)
	for event := range p.pending {
		if err := p.send(event); err != nil {
			p.logger.Warn("booking event publish failed",
				zap.String("type", string(event.Type)),
				zap.String("booking_id", event.BookingID),
				zap.Error(err),
			)
		}
	}
}

func (p *AMQPPublisher) send(event BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Type:         string(event.Type),
			Body:         body,
		},
	)
}

// Close stops accepting events, drains the buffer and closes the connection.
// Publish must not be called after Close.
func (p *AMQPPublisher) Close() error {
	var err error
	p.once.Do(func() {
		close(p.pending)
		<-p.done
		_ = p.ch.Close()
		err = p.conn.Close()
	})
	return err
}
