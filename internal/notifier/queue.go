package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/logger"
)

var qlog = logger.For("notify-queue")

// publisher is the part of *amqp.Channel the queue notifier uses.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// QueueNotifier publishes notifications as JSON messages to a durable AMQP queue.
type QueueNotifier struct {
	mu    sync.Mutex
	queue string
	conn  *amqp.Connection
	ch    publisher
	now   func() time.Time
}

// DialQueue connects to the broker at url and declares the queue.
func DialQueue(url, queue string) (*QueueNotifier, error) {
	if queue == "" {
		queue = constants.DefaultNotifyQueueName
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error opening channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("error declaring queue: %w", err)
	}

	notifyClose := make(chan *amqp.Error, 1)
	conn.NotifyClose(notifyClose)
	go func() {
		if err := <-notifyClose; err != nil {
			qlog.Warn("RabbitMQ connection closed", "error", err)
		}
	}()

	return &QueueNotifier{queue: queue, conn: conn, ch: ch, now: time.Now}, nil
}

func newQueueNotifier(queue string, ch publisher) *QueueNotifier {
	return &QueueNotifier{queue: queue, ch: ch, now: time.Now}
}

// Send implements reminders.Sender.
func (q *QueueNotifier) Send(ctx context.Context, title, body string) error {
	return q.Notify(ctx, Notification{Title: title, Text: body, DurationMs: constants.NotificationDurationMs})
}

func (q *QueueNotifier) Notify(ctx context.Context, note Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if note.SentAt.IsZero() {
		note.SentAt = q.now().UTC()
	}
	body, err := json.Marshal(note)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch == nil {
		return fmt.Errorf("queue notifier is closed")
	}
	err = q.ch.Publish("", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    note.SentAt,
		AppId:        constants.AppName,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

func (q *QueueNotifier) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var err error
	if q.ch != nil {
		err = q.ch.Close()
		q.ch = nil
	}
	if q.conn != nil {
		if cerr := q.conn.Close(); err == nil {
			err = cerr
		}
		q.conn = nil
	}
	return err
}
