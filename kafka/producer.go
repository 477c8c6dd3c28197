package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/dailyyoga/jsonify/logger"
	"github.com/dailyyoga/jsonify/routine"
	"go.uber.org/zap"
)

type defaultProducer struct {
	logger logger.Logger

	p               *kafka.Producer
	deliveryTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	runner routine.Runner
}

// NewProducer creates a new kafka producer
func NewProducer(log logger.Logger, config *ProducerConfig) (Producer, error) {
	if config == nil {
		config = DefaultProducerConfig()
	} else {
		config = config.MergeDefaults()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := probeCluster(log, config.Brokers, config.SecurityProtocol, config.Topic); err != nil {
		return nil, err
	}

	configMap := config.BuildConfigMap()

	var producer *kafka.Producer
	var err error

	maxRetries := 3
	retryDelay := 3 * time.Second
	for i := 0; i < maxRetries; i++ {
		producer, err = kafka.NewProducer(configMap)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			log.Warn("failed to create kafka producer, retrying...",
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("max_retries", maxRetries),
			)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		return nil, ErrConnection(fmt.Errorf("create producer after %d attempts: %w", maxRetries, err))
	}

	kp := &defaultProducer{
		p:               producer,
		logger:          log,
		deliveryTimeout: config.DeliveryTimeout,
		done:            make(chan struct{}),
		runner:          routine.New(context.Background(), log),
	}
	kp.runner.Go("kafka-producer-events", func(context.Context) error {
		kp.handleEvents()
		return nil
	})

	log.Info("kafka producer initialized and validated",
		zap.Strings("brokers", config.Brokers),
		zap.String("topic", config.Topic),
	)
	return kp, nil
}

// handleEvents logs client-level errors. Per-message delivery reports go
// to the channel passed to Produce instead.
func (kp *defaultProducer) handleEvents() {
	for {
		select {
		case <-kp.done:
			return
		case e, ok := <-kp.p.Events():
			if !ok {
				return
			}
			switch ev := e.(type) {
			case kafka.Error:
				kp.logger.Error("kafka producer error",
					zap.Int("code", int(ev.Code())),
					zap.String("error", ev.String()),
				)
			default:
				kp.logger.Debug("received unknown event", zap.String("type", fmt.Sprintf("%T", ev)))
			}
		}
	}
}

// Produce sends msg and blocks until the broker acknowledges it, the
// delivery timeout passes or ctx is done
func (kp *defaultProducer) Produce(ctx context.Context, msg *Message) error {
	if msg.TopicPartition.Topic == nil {
		return ErrInvalidConfig("topic is required")
	}
	if msg.Value == nil {
		return ErrInvalidConfig("value is required")
	}

	kp.mu.RLock()
	defer kp.mu.RUnlock()
	if kp.closed {
		return ErrProducerClosed
	}

	topic := *msg.TopicPartition.Topic
	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     msg.TopicPartition.Topic,
			Partition: kafka.PartitionAny,
		},
		Key:   msg.Key,
		Value: msg.Value,
	}
	if msg.TopicPartition.Partition != PartitionAny {
		message.TopicPartition.Partition = msg.TopicPartition.Partition
	}

	reports := make(chan kafka.Event, 1)
	if err := kp.p.Produce(message, reports); err != nil {
		return ErrDelivery(topic, err)
	}

	timer := time.NewTimer(kp.deliveryTimeout)
	defer timer.Stop()

	select {
	case e := <-reports:
		m, ok := e.(*kafka.Message)
		if !ok {
			return ErrDelivery(topic, fmt.Errorf("unexpected delivery event %T", e))
		}
		if m.TopicPartition.Error != nil {
			return ErrDelivery(topic, m.TopicPartition.Error)
		}
		kp.logger.Debug("message delivered",
			zap.String("topic", topic),
			zap.Int32("partition", m.TopicPartition.Partition),
			zap.Int64("offset", int64(m.TopicPartition.Offset)),
		)
		return nil
	case <-timer.C:
		return ErrDelivery(topic, fmt.Errorf("no delivery report after %v", kp.deliveryTimeout))
	case <-ctx.Done():
		return ErrDelivery(topic, ctx.Err())
	}
}

// Close flushes outstanding messages and closes the kafka producer
func (kp *defaultProducer) Close() error {
	kp.mu.Lock()
	if kp.closed {
		kp.mu.Unlock()
		return nil
	}
	kp.closed = true
	kp.mu.Unlock()

	remaining := kp.p.Flush(10000) // 10 seconds
	if remaining > 0 {
		kp.logger.Warn("producer closed with undelivered messages", zap.Int("remaining", remaining))
	}

	close(kp.done)
	_ = kp.runner.Wait()
	kp.p.Close()
	return nil
}
