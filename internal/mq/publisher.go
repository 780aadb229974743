package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/foldnode/internal/domain"
)

// MessageType — тип сообщения.
type MessageType string

// MessageTypeTaskStatus — обновление статуса task.
const MessageTypeTaskStatus MessageType = "task.status"

// Message — конверт публикуемого сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher публикует события task.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger}
}

// PublishStatus публикует обновление статуса с ключом task.<status>.
func (p *Publisher) PublishStatus(ctx context.Context, u domain.StatusUpdate) error {
	msg := statusMessage(u)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	routingKey := StatusRoutingKey(u.Status)

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx,
			string(ExchangeTasks),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", ExchangeTasks, routingKey, err)
		}

		p.logger.Debug("published task status",
			"routing_key", routingKey,
			"message_id", msg.ID,
			"task_id", u.TaskID,
		)
		return nil
	})
}

// Deliver реализует lifecycle.Sink.
func (p *Publisher) Deliver(ctx context.Context, u domain.StatusUpdate) error {
	return p.PublishStatus(ctx, u)
}

// statusMessage строит конверт; ID обновления переиспользуется как MessageId.
func statusMessage(u domain.StatusUpdate) *Message {
	id := u.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	ts := u.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return &Message{
		ID:        id.String(),
		Type:      MessageTypeTaskStatus,
		Payload:   u,
		Timestamp: ts,
	}
}
