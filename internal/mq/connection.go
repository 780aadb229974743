package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Ограничения задержки переподключения.
const (
	reconnectInitialDelay = time.Second
	reconnectMaxDelay     = 30 * time.Second
)

// Connection — AMQP соединение с одним каналом и фоновым переподключением.
type Connection struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool

	done chan struct{}
}

// Dial подключается к RabbitMQ и запускает наблюдение за соединением.
func Dial(url string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Connection{
		url:    url,
		logger: logger,
		done:   make(chan struct{}),
	}

	notify, err := c.connect()
	if err != nil {
		return nil, err
	}

	go c.watch(notify)

	return c, nil
}

// connect открывает соединение и канал и возвращает канал уведомления о закрытии.
func (c *Connection) connect() (chan *amqp.Error, error) {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	notify := conn.NotifyClose(make(chan *amqp.Error, 1))

	c.mu.Lock()
	c.conn = conn
	c.channel = ch
	c.mu.Unlock()

	c.logger.Info("connected to RabbitMQ")
	return notify, nil
}

// watch ждёт разрыва соединения и переподключается.
func (c *Connection) watch(notify chan *amqp.Error) {
	for {
		select {
		case <-c.done:
			return
		case amqpErr, ok := <-notify:
			if ok && amqpErr != nil {
				c.logger.Warn("amqp connection lost", "error", amqpErr)
			}

			c.mu.Lock()
			c.channel = nil
			c.mu.Unlock()

			next, ok := c.reconnect()
			if !ok {
				return
			}
			notify = next
		}
	}
}

// reconnect переподключается с экспоненциальной задержкой до успеха или Close.
func (c *Connection) reconnect() (chan *amqp.Error, bool) {
	delay := reconnectInitialDelay

	for {
		timer := time.NewTimer(delay)
		select {
		case <-c.done:
			timer.Stop()
			return nil, false
		case <-timer.C:
		}

		notify, err := c.connect()
		if err == nil {
			return notify, true
		}

		c.logger.Warn("amqp reconnect failed", "error", err, "next_delay", delay)
		delay = min(delay*2, reconnectMaxDelay)
	}
}

// WithChannel выполняет fn с текущим каналом.
func (c *Connection) WithChannel(ctx context.Context, fn func(ch *amqp.Channel) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	if ch == nil {
		return ErrNotConnected
	}
	return fn(ch)
}

// Close закрывает канал и соединение.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}

	return errors.Join(errs...)
}
