// Package mq публикует события жизненного цикла task в RabbitMQ.
//
// Шина событий опциональна: включается переменной RABBITMQ_URL и служит
// для внешних наблюдателей (дашборды, аудит). Координатор о ней не знает.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange, очереди и привязки
//   - publisher.go  — публикация обновлений статуса
//
// Exchange foldnode.tasks (topic), routing key task.<status>:
//
//	foldnode.tasks
//	└── foldnode.task-events [routing: task.*]
package mq
