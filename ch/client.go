package ch

import (
	"context"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/dailyyoga/jsonify/logger"
	"go.uber.org/zap"
)

// defaultClient is the default implementation of the Client interface
type defaultClient struct {
	config *Config
	logger logger.Logger

	// clickhouse connection (shared by Writer and Query)
	conn driver.Conn

	// writer instance (lazy initialization)
	writer     *defaultWriter
	writerOnce sync.Once

	// control
	closed bool
	mu     sync.RWMutex
}

// NewClient connects to ClickHouse and checks the connection
func NewClient(ctx context.Context, log logger.Logger, config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	} else {
		config = config.MergeDefaults()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	log = logger.Named(log, "clickhouse")

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: config.Hosts,
		Auth: clickhouse.Auth{
			Database: config.Database,
			Username: config.Username,
			Password: config.Password,
		},
		DialTimeout: config.DialTimeout,
		Debug:       config.Debug,
		Settings:    config.Settings,
	})
	if err != nil {
		return nil, ErrConnection(err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, ErrConnection(err)
	}

	log.Info("clickhouse client initialized",
		zap.Strings("hosts", config.Hosts),
		zap.String("database", config.Database),
	)

	return &defaultClient{config: config, logger: log, conn: conn}, nil
}

// Writer returns the batch writer, creating it on first use.
// Callers must Start it before rows are sent.
func (c *defaultClient) Writer() (Writer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrConnectionClosed
	}

	c.writerOnce.Do(func() {
		c.writer = newWriterWithConn(c.conn, &c.config.Writer, c.logger)
	})
	return c.writer, nil
}

func (c *defaultClient) Exec(ctx context.Context, query string, args ...any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnectionClosed
	}
	if err := c.conn.Exec(ctx, query, args...); err != nil {
		c.logger.Error("exec failed", zap.String("query", query), zap.Error(err))
		return ErrQuery(err)
	}
	return nil
}

// Query executes a ClickHouse query and returns driver.Rows
func (c *defaultClient) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrConnectionClosed
	}

	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		c.logger.Error("query failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return nil, ErrQuery(err)
	}

	return rows, nil
}

// Close flushes the writer, if any, and closes the connection
func (c *defaultClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.logger.Info("clickhouse client shutting down")

	if c.writer != nil {
		if err := c.writer.Close(); err != nil {
			c.logger.Error("failed to close writer", zap.Error(err))
		}
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Error("failed to close clickhouse connection", zap.Error(err))
		return err
	}

	c.logger.Info("clickhouse client shutdown complete")
	return nil
}
