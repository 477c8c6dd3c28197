// Package kafka carries mutation events from content hosts to the feed
// daemon. It wraps confluent-kafka-go behind small Consumer and Producer
// interfaces so that handlers never see librdkafka types.
package kafka

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Message is an encoded mutation event and where it was read from
type Message struct {
	Value          []byte
	Key            []byte
	TopicPartition TopicPartition
}

// NewMessage builds a message for topic on any partition
func NewMessage(topic string, key, value []byte) *Message {
	return &Message{
		Key:            key,
		Value:          value,
		TopicPartition: TopicPartition{Topic: &topic, Partition: PartitionAny},
	}
}

// PartitionAny is the any partition of a kafka message
const PartitionAny = kafka.PartitionAny

// TopicPartition is the topic and partition of a kafka message
type TopicPartition struct {
	Topic     *string
	Partition int32
	Offset    Offset
}

// Offset is the offset of a kafka message
type Offset int64

// ConsumerMsgHandler is the function type for handling a single message from kafka
type ConsumerMsgHandler func(ctx context.Context, msg *Message) error

// Consumer is the interface for kafka consumer
type Consumer interface {
	// Start launches the consume loops and returns immediately
	Start(ctx context.Context, handler ConsumerMsgHandler) error
	// Close stops the loops, waits for in-flight messages and closes the client
	Close() error
}

// Producer is the interface for kafka producer
type Producer interface {
	// Produce sends msg and waits for its delivery report
	Produce(ctx context.Context, msg *Message) error
	Close() error
}
