package kafka

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/dailyyoga/jsonify/logger"
	"go.uber.org/zap"
)

const (
	probeAttempts = 3
	probeTimeout  = 10 * time.Second
	probeDelay    = 2 * time.Second
)

// probeCluster fails fast when no broker answers a metadata request.
// Topics missing from the metadata are only reported: the consumer waits
// for them and the producer may rely on auto-creation.
func probeCluster(log logger.Logger, brokers []string, protocol string, topics ...string) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": strings.Join(brokers, ","),
		"security.protocol": protocol,
	})
	if err != nil {
		return ErrConnection(fmt.Errorf("create admin client: %w", err))
	}
	defer admin.Close()

	var md *kafka.Metadata
	for attempt := 1; attempt <= probeAttempts; attempt++ {
		md, err = admin.GetMetadata(nil, true, int(probeTimeout.Milliseconds()))
		if err == nil {
			break
		}
		log.Warn("kafka metadata request failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", probeAttempts),
		)
		if attempt < probeAttempts {
			time.Sleep(probeDelay)
		}
	}
	if err != nil {
		return ErrConnection(fmt.Errorf("metadata after %d attempts: %w", probeAttempts, err))
	}

	if missing := missingTopics(md, topics); len(missing) > 0 {
		log.Warn("kafka topics not found", zap.Strings("topics", missing))
	}
	log.Info("kafka brokers reachable", zap.Strings("brokers", brokers))
	return nil
}

// missingTopics lists the topics absent from md or reported with an error
func missingTopics(md *kafka.Metadata, topics []string) []string {
	var missing []string
	for _, t := range topics {
		if t == "" || slices.Contains(missing, t) {
			continue
		}
		tm, ok := md.Topics[t]
		if !ok || tm.Error.Code() != kafka.ErrNoError {
			missing = append(missing, t)
		}
	}
	return missing
}
