package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/foldnode/internal/domain"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

const (
	// ExchangeTasks — topic-обменник событий task.
	ExchangeTasks Exchange = "foldnode.tasks"

	// QueueTaskEvents — очередь для внешних наблюдателей.
	QueueTaskEvents Queue = "foldnode.task-events"

	// bindingAllStatuses — все события статуса.
	bindingAllStatuses RoutingKey = "task.*"
)

// StatusRoutingKey возвращает ключ маршрутизации для статуса: task.<status>.
func StatusRoutingKey(status domain.TaskStatus) RoutingKey {
	return RoutingKey("task." + status.String())
}

// SetupTopology объявляет обменник, очередь и привязку. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeTasks), // name
			"topic",               // type
			true,                  // durable
			false,                 // auto-deleted
			false,                 // internal
			false,                 // no-wait
			nil,                   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeTasks, err)
		}

		_, err = ch.QueueDeclare(
			string(QueueTaskEvents), // name
			true,                    // durable
			false,                   // delete when unused
			false,                   // exclusive
			false,                   // no-wait
			amqp.Table{"x-max-length": int32(10_000)},
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueTaskEvents, err)
		}

		if err := ch.QueueBind(string(QueueTaskEvents), string(bindingAllStatuses), string(ExchangeTasks), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", QueueTaskEvents, ExchangeTasks, err)
		}

		return nil
	})
}
