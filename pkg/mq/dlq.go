package mq

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

const (
	DLQExchangeName = "relief.events.dlx"
)

// DeclareDLQExchange declares the dead letter exchange.
func DeclareDLQExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		DLQExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}

// DeclareDLQQueue declares <queue>.dlq bound to the dead letter exchange.
func DeclareDLQQueue(ch *amqp091.Channel, queueName, routingKey string) (amqp091.Queue, error) {
	q, err := ch.QueueDeclare(
		DLQName(queueName),
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return amqp091.Queue{}, fmt.Errorf("failed to declare DLQ queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey, DLQExchangeName, false, nil); err != nil {
		return amqp091.Queue{}, fmt.Errorf("failed to bind DLQ queue: %w", err)
	}

	return q, nil
}

func DLQName(queueName string) string {
	return fmt.Sprintf("%s.dlq", queueName)
}

// deadLetterArgs routes rejected messages of a work queue to the DLX.
func deadLetterArgs() amqp091.Table {
	return amqp091.Table{
		"x-dead-letter-exchange": DLQExchangeName,
	}
}
