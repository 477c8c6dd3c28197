package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// DefaultTopic carries mutation events between hosts and the daemon
const DefaultTopic = "jsonify.mutations"

// ConsumerConfig is the configuration for kafka consumer
type ConsumerConfig struct {
	// kafka connection config
	Brokers []string `mapstructure:"brokers" env:"BROKERS" envSeparator:","`
	// default: "jsonify"
	GroupID string `mapstructure:"group_id" env:"GROUP_ID"`
	// default: [DefaultTopic]
	Topics []string `mapstructure:"topics" env:"TOPICS" envSeparator:","`

	// MaxRetries is how many times a message is handed to the handler.
	// Feed synchronization does not retry failed events.
	// default: 1
	MaxRetries int `mapstructure:"max_retries" env:"MAX_RETRIES"`

	// Instance number for parallel processing
	// default: 1
	InstanceNum int `mapstructure:"instance_num" env:"INSTANCE_NUM"`

	// Auto offset reset policy: "earliest" or "latest"
	// default: "latest"
	AutoOffsetReset string `mapstructure:"auto_offset_reset" env:"AUTO_OFFSET_RESET"`

	// Enable auto commit of offsets
	// default: false
	EnableAutoCommit bool `mapstructure:"enable_auto_commit" env:"ENABLE_AUTO_COMMIT"`

	// Auto commit interval (only used when EnableAutoCommit is true)
	// default: 5s
	AutoCommitInterval time.Duration `mapstructure:"auto_commit_interval" env:"AUTO_COMMIT_INTERVAL"`

	// Session timeout
	// default: 30s
	SessionTimeout time.Duration `mapstructure:"session_timeout" env:"SESSION_TIMEOUT"`

	// Max poll interval - maximum time between two polls.
	// A full rebuild runs inside the handler, so this must exceed its duration.
	// default: 120s
	MaxPollInterval time.Duration `mapstructure:"max_poll_interval" env:"MAX_POLL_INTERVAL"`

	// PollTimeout bounds each poll so that cancellation is noticed
	// default: 100ms
	PollTimeout time.Duration `mapstructure:"poll_timeout" env:"POLL_TIMEOUT"`

	// Security protocol, only "PLAINTEXT" is supported
	// default: "PLAINTEXT"
	SecurityProtocol string `mapstructure:"security_protocol" env:"SECURITY_PROTOCOL"`

	// Debug Model - enable consumer debug logs
	Debug bool `mapstructure:"debug" env:"DEBUG"`
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		GroupID:            "jsonify",
		Topics:             []string{DefaultTopic},
		MaxRetries:         1,
		InstanceNum:        1,
		AutoOffsetReset:    "latest",
		EnableAutoCommit:   false,
		AutoCommitInterval: 5 * time.Second,
		SessionTimeout:     30 * time.Second,
		MaxPollInterval:    120 * time.Second,
		PollTimeout:        100 * time.Millisecond,
		SecurityProtocol:   "PLAINTEXT",
		Debug:              false,
	}
}

// MergeDefaults fills zero values from DefaultConsumerConfig
func (c *ConsumerConfig) MergeDefaults() *ConsumerConfig {
	d := DefaultConsumerConfig()
	if c.GroupID == "" {
		c.GroupID = d.GroupID
	}
	if len(c.Topics) == 0 {
		c.Topics = d.Topics
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.InstanceNum == 0 {
		c.InstanceNum = d.InstanceNum
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = d.AutoOffsetReset
	}
	if c.AutoCommitInterval == 0 {
		c.AutoCommitInterval = d.AutoCommitInterval
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = d.SessionTimeout
	}
	if c.MaxPollInterval == 0 {
		c.MaxPollInterval = d.MaxPollInterval
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = d.PollTimeout
	}
	if c.SecurityProtocol == "" {
		c.SecurityProtocol = d.SecurityProtocol
	}
	return c
}

func (c *ConsumerConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return ErrInvalidConfig("brokers are required")
	}
	if c.GroupID == "" {
		return ErrInvalidConfig("group_id is required")
	}
	if len(c.Topics) == 0 {
		return ErrInvalidConfig("topics are required")
	}
	if c.MaxRetries < 1 {
		return ErrInvalidConfig("max_retries must be >= 1")
	}
	if c.InstanceNum < 1 {
		return ErrInvalidConfig("instance_num must be >= 1")
	}

	if c.AutoOffsetReset != "earliest" && c.AutoOffsetReset != "latest" {
		return ErrInvalidConfig(
			fmt.Sprintf("invalid auto_offset_reset: %s, must be either 'earliest' or 'latest'", c.AutoOffsetReset),
		)
	}

	if c.EnableAutoCommit && c.AutoCommitInterval <= 0 {
		return ErrInvalidConfig("auto_commit_interval must be greater than 0 when enable_auto_commit is true")
	}

	if c.SessionTimeout <= 0 {
		return ErrInvalidConfig("session_timeout must be greater than 0")
	}

	if c.MaxPollInterval <= 0 {
		return ErrInvalidConfig("max_poll_interval must be greater than 0")
	}

	if c.PollTimeout <= 0 {
		return ErrInvalidConfig("poll_timeout must be greater than 0")
	}

	return nil
}

func (c *ConsumerConfig) BuildConfigMap() *kafka.ConfigMap {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":    strings.Join(c.Brokers, ","),
		"group.id":             c.GroupID,
		"auto.offset.reset":    strings.ToLower(c.AutoOffsetReset), // latest, earliest
		"enable.auto.commit":   c.EnableAutoCommit,
		"session.timeout.ms":   int(c.SessionTimeout.Milliseconds()),
		"max.poll.interval.ms": int(c.MaxPollInterval.Milliseconds()),
		"security.protocol":    c.SecurityProtocol,
	}

	if c.EnableAutoCommit {
		_ = configMap.SetKey("auto.commit.interval.ms", int(c.AutoCommitInterval.Milliseconds()))
	}

	if c.Debug {
		_ = configMap.SetKey("debug", "consumer,cgrp,topic,fetch")
	}

	return configMap
}

// ProducerConfig is the configuration for kafka producer
type ProducerConfig struct {
	// kafka cluster brokers
	Brokers []string `mapstructure:"brokers" env:"BROKERS" envSeparator:","`

	// Topic events are published to
	// default: DefaultTopic
	Topic string `mapstructure:"topic" env:"TOPIC"`

	// Optional: kafka client id, shown in broker logs
	// default: "jsonify"
	ClientID string `mapstructure:"client_id" env:"CLIENT_ID"`

	// Acks is the number of broker acknowledgements required: "all", "1" or "0"
	// default: "all"
	Acks string `mapstructure:"acks" env:"ACKS"`

	// Compression codec: none, gzip, snappy, lz4 or zstd
	// default: "none"
	Compression string `mapstructure:"compression" env:"COMPRESSION"`

	// LingerMs is how long the producer waits to batch messages
	// default: 0 (send immediately)
	LingerMs int `mapstructure:"linger_ms" env:"LINGER_MS"`

	// Batch size maximum bytes to send
	// default: 100KB
	BatchSize int `mapstructure:"batch_size" env:"BATCH_SIZE"`

	// Security protocol, only "PLAINTEXT" is supported
	// default: "PLAINTEXT"
	SecurityProtocol string `mapstructure:"security_protocol" env:"SECURITY_PROTOCOL"`

	// Max retries for kafka producer
	// default: 3
	MaxRetries int `mapstructure:"max_retries" env:"PRODUCER_MAX_RETRIES"`

	// DeliveryTimeout bounds how long Produce waits for the delivery report
	// default: 10s
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout" env:"DELIVERY_TIMEOUT"`
}

func DefaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		Topic:            DefaultTopic,
		ClientID:         "jsonify",
		Acks:             "all",
		Compression:      "none",
		LingerMs:         0,
		BatchSize:        100 * 1024, // 100KB
		SecurityProtocol: "PLAINTEXT",
		MaxRetries:       3,
		DeliveryTimeout:  10 * time.Second,
	}
}

// MergeDefaults fills zero values from DefaultProducerConfig
func (p *ProducerConfig) MergeDefaults() *ProducerConfig {
	d := DefaultProducerConfig()
	if p.Topic == "" {
		p.Topic = d.Topic
	}
	if p.ClientID == "" {
		p.ClientID = d.ClientID
	}
	if p.Acks == "" {
		p.Acks = d.Acks
	}
	if p.Compression == "" {
		p.Compression = d.Compression
	}
	if p.BatchSize == 0 {
		p.BatchSize = d.BatchSize
	}
	if p.SecurityProtocol == "" {
		p.SecurityProtocol = d.SecurityProtocol
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = d.MaxRetries
	}
	if p.DeliveryTimeout == 0 {
		p.DeliveryTimeout = d.DeliveryTimeout
	}
	return p
}

func (p *ProducerConfig) Validate() error {
	if len(p.Brokers) == 0 {
		return ErrInvalidConfig("brokers are required")
	}
	if p.Topic == "" {
		return ErrInvalidConfig("topic is required")
	}
	if p.DeliveryTimeout <= 0 {
		return ErrInvalidConfig("delivery_timeout must be greater than 0")
	}
	return nil
}

func (p *ProducerConfig) BuildConfigMap() *kafka.ConfigMap {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(p.Brokers, ","),
		"compression.type":  strings.ToLower(p.Compression),
		"acks":              strings.ToLower(p.Acks),
		"linger.ms":         p.LingerMs,
		"batch.size":        p.BatchSize,
		"retries":           p.MaxRetries,
		"security.protocol": p.SecurityProtocol,
	}

	if p.ClientID != "" {
		_ = configMap.SetKey("client.id", p.ClientID)
	}

	return configMap
}
