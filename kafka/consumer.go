package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dailyyoga/jsonify/logger"
)

type defaultConsumer struct {
	consumerInstances []*consumeInstance

	closed atomic.Bool
}

// NewConsumer creates a new kafka consumer
func NewConsumer(log logger.Logger, config *ConsumerConfig) (Consumer, error) {
	if config == nil {
		config = DefaultConsumerConfig()
	} else {
		config = config.MergeDefaults()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := probeCluster(log, config.Brokers, config.SecurityProtocol, config.Topics...); err != nil {
		return nil, err
	}

	// create consumer instances
	consumerInstances := make([]*consumeInstance, 0, config.InstanceNum)
	for i := 0; i < config.InstanceNum; i++ {
		instanceName := fmt.Sprintf("%s-instance-%d", config.GroupID, i+1)
		instance, err := newConsumeInstance(instanceName, config, log)
		if err != nil {
			for _, created := range consumerInstances {
				_ = created.Close()
			}
			return nil, err
		}
		consumerInstances = append(consumerInstances, instance)
	}

	return &defaultConsumer{consumerInstances: consumerInstances}, nil
}

// Start starts the kafka consumer
func (c *defaultConsumer) Start(ctx context.Context, handler ConsumerMsgHandler) error {
	if len(c.consumerInstances) == 0 {
		return ErrNoConsumerInstances
	}

	for _, instance := range c.consumerInstances {
		if err := instance.Start(ctx, handler); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every instance and returns their joined errors
func (c *defaultConsumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	if len(c.consumerInstances) == 0 {
		return ErrNoConsumerInstances
	}

	var errs []error
	for _, instance := range c.consumerInstances {
		if err := instance.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
