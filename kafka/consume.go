package kafka

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/dailyyoga/jsonify/logger"
	"github.com/dailyyoga/jsonify/routine"
	"go.uber.org/zap"
)

// consumeInstance represents a single kafka consumer instance
type consumeInstance struct {
	logger logger.Logger

	config *ConsumerConfig
	name   string
	c      *kafka.Consumer
	runner routine.Runner

	closed atomic.Bool
}

func newConsumeInstance(name string, config *ConsumerConfig, log logger.Logger) (*consumeInstance, error) {
	consumer, err := kafka.NewConsumer(config.BuildConfigMap())
	if err != nil {
		return nil, ErrConnection(err)
	}

	if err := consumer.SubscribeTopics(config.Topics, nil); err != nil {
		consumer.Close()
		return nil, ErrSubscribe(config.Topics, err)
	}

	return &consumeInstance{
		config: config,
		name:   name,
		c:      consumer,
		logger: log,
	}, nil
}

// Start starts the consume loop in a supervised goroutine
func (c *consumeInstance) Start(ctx context.Context, handler ConsumerMsgHandler) error {
	c.runner = routine.New(ctx, c.logger)
	c.runner.Go(c.name, func(ctx context.Context) error {
		return c.consumeLoop(ctx, handler)
	})
	c.logger.Info("kafka consumer instance started",
		zap.String("instance_name", c.name),
		zap.Strings("topics", c.config.Topics),
	)
	return nil
}

// Close stops the loop, waits for the message in flight and closes the client
func (c *consumeInstance) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var loopErr error
	if c.runner != nil {
		loopErr = c.runner.Wait()
	}
	if err := c.c.Close(); err != nil {
		return ErrConnection(err)
	}
	c.logger.Info("kafka consumer instance closed", zap.String("instance_name", c.name))
	return loopErr
}

// consumeLoop polls until the context is cancelled or the instance is closed
func (c *consumeInstance) consumeLoop(ctx context.Context, handler ConsumerMsgHandler) error {
	pollMs := int(c.config.PollTimeout.Milliseconds())
	for {
		if ctx.Err() != nil || c.closed.Load() {
			return nil
		}

		ev := c.c.Poll(pollMs)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			// a failed message is logged and skipped; events are not replayed
			if err := c.handleMessage(ctx, e, handler); err != nil {
				c.logger.Error("kafka consumer handle message failed",
					zap.String("topic", topicName(e.TopicPartition.Topic)),
					zap.Int32("partition", e.TopicPartition.Partition),
					zap.Int64("offset", int64(e.TopicPartition.Offset)),
					zap.Error(err),
				)
			}
		case kafka.Error:
			c.logger.Error("kafka consumer error", zap.Int("code", int(e.Code())), zap.String("error", e.String()))

			if e.Code() == kafka.ErrAllBrokersDown {
				c.logger.Error("all kafka brokers are down", zap.Error(e))
				return ErrConsume(e)
			}
		case kafka.OffsetsCommitted:
			if e.Error != nil {
				c.logger.Error("failed to commit offsets", zap.Error(e.Error))
			}
		default:
			c.logger.Debug("received unknown event", zap.String("type", fmt.Sprintf("%T", e)))
		}
	}
}

// handleMessage runs the handler and commits the offset on success
func (c *consumeInstance) handleMessage(ctx context.Context, msg *kafka.Message, handler ConsumerMsgHandler) error {
	startTime := time.Now()

	if err := deliver(ctx, toMessage(msg), handler, c.config.MaxRetries); err != nil {
		return err
	}

	// manual commit if auto commit is disabled
	if !c.config.EnableAutoCommit {
		if _, err := c.c.CommitMessage(msg); err != nil {
			return ErrCommit(err)
		}
	}

	c.logger.Debug("kafka consumer instance processed message successfully",
		zap.String("topic", topicName(msg.TopicPartition.Topic)),
		zap.Int32("partition", msg.TopicPartition.Partition),
		zap.Int64("offset", int64(msg.TopicPartition.Offset)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return nil
}

// deliver hands msg to handler up to attempts times, stopping at the first success
func deliver(ctx context.Context, msg *Message, handler ConsumerMsgHandler, attempts int) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

// just a wrapper for kafka.Message to Message
func toMessage(msg *kafka.Message) *Message {
	return &Message{
		Value: msg.Value,
		Key:   msg.Key,
		TopicPartition: TopicPartition{
			Topic:     msg.TopicPartition.Topic,
			Partition: msg.TopicPartition.Partition,
			Offset:    Offset(msg.TopicPartition.Offset),
		},
	}
}

func topicName(topic *string) string {
	if topic == nil {
		return ""
	}
	return *topic
}
