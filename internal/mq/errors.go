package mq

import "errors"

// ErrNotConnected — канал AMQP недоступен (соединение закрыто или переподключается).
var ErrNotConnected = errors.New("amqp channel not available")
