package kafka

import (
	"errors"
	"fmt"
)

var (
	// ErrNoConsumerInstances no consumer instances
	ErrNoConsumerInstances = errors.New("kafka: no consumer instances")
	// ErrProducerClosed is returned by Produce after Close
	ErrProducerClosed = errors.New("kafka: producer is closed")
)

// ErrInvalidConfig Kafka configuration error
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("kafka: invalid config: %s", msg)
}

// ErrConnection Kafka connection error
func ErrConnection(err error) error {
	return fmt.Errorf("kafka: connection failed: %w", err)
}

// ErrSubscribe subscribe error
func ErrSubscribe(topics []string, err error) error {
	return fmt.Errorf("kafka: subscribe to topics %v failed: %w", topics, err)
}

// ErrConsume consume message error
func ErrConsume(err error) error {
	return fmt.Errorf("kafka: consume message failed: %w", err)
}

// ErrCommit commit message error
func ErrCommit(err error) error {
	return fmt.Errorf("kafka: commit offsets failed: %w", err)
}

// ErrDelivery wraps a failed or unconfirmed delivery
func ErrDelivery(topic string, err error) error {
	return fmt.Errorf("kafka: delivery to %s failed: %w", topic, err)
}
