package ch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/dailyyoga/jsonify/logger"
	"github.com/smallnest/chanx"
	"go.uber.org/zap"
)

// insertFunc sends one batch of rows for a single table
type insertFunc func(ctx context.Context, table TableName, rows []Row) error

type defaultWriter struct {
	config *WriterConfig
	logger logger.Logger

	insert insertFunc

	// channel-based batch insert
	dataChan    *chanx.UnboundedChan[Row]
	flushTicker *time.Ticker

	// control
	mu      sync.RWMutex // guards closing dataChan.In against Write
	wg      sync.WaitGroup
	started atomic.Bool
	closed  bool
}

// newWriterWithConn creates a writer with an existing connection (used by Client)
func newWriterWithConn(conn driver.Conn, config *WriterConfig, log logger.Logger) *defaultWriter {
	return newWriter(connInsert(conn), config, log)
}

func newWriter(insert insertFunc, config *WriterConfig, log logger.Logger) *defaultWriter {
	if config == nil {
		config = DefaultWriterConfig()
	}
	writer := &defaultWriter{
		config:      config,
		logger:      log,
		insert:      insert,
		dataChan:    chanx.NewUnboundedChan[Row](context.Background(), config.FlushSize),
		flushTicker: time.NewTicker(config.FlushInterval),
	}

	log.Info("clickhouse writer initialized",
		zap.Duration("flush_interval", config.FlushInterval),
		zap.Int("flush_size", config.FlushSize),
		zap.Int("min_flush_size", config.MinFlushSize),
		zap.Duration("max_wait_time", config.MaxWaitTime),
	)
	return writer
}

func (w *defaultWriter) Start() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWriterClosed
	}
	if !w.started.CompareAndSwap(false, true) {
		return nil
	}
	w.wg.Add(1)
	go w.processLoop()

	w.logger.Info("clickhouse writer started")
	return nil
}

func (w *defaultWriter) Write(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWriterClosed
	}

	for _, row := range rows {
		if row == nil {
			continue
		}
		if len(row.Columns()) != len(row.Values()) {
			return ErrInvalidRow
		}
		select {
		case w.dataChan.In <- row:
			continue
		case <-ctx.Done():
			return ctx.Err()
		default:
			w.logger.Error("channel is full, data may be lost",
				zap.Int("channel_size", w.dataChan.Len()),
				zap.Int("rows", len(rows)),
			)
			return ErrBufferFull
		}
	}
	return nil
}

// Close stops the writer, flushing everything queued so far
func (w *defaultWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.dataChan.In)
	w.mu.Unlock()

	w.logger.Info("clickhouse writer shutting down")
	w.flushTicker.Stop()

	if w.started.Load() {
		w.wg.Wait()
	} else {
		dropped := 0
		for range w.dataChan.Out {
			dropped++
		}
		if dropped > 0 {
			w.logger.Warn("writer closed before start, rows dropped", zap.Int("rows", dropped))
		}
	}

	w.logger.Info("clickhouse writer shutdown complete")
	return nil
}

func (w *defaultWriter) processLoop() {
	defer w.wg.Done()

	buffer := make(map[TableName][]Row)
	totalRows := 0
	var firstDataTime time.Time

	reset := func() {
		buffer = make(map[TableName][]Row)
		totalRows = 0
		firstDataTime = time.Time{}
	}

	for {
		select {
		case row, ok := <-w.dataChan.Out:
			if !ok {
				// Close closed the input and everything queued has been received
				if totalRows > 0 {
					w.flush(buffer)
				}
				w.logger.Info("process loop stopped")
				return
			}
			if totalRows == 0 {
				firstDataTime = time.Now()
			}
			buffer[row.TableName()] = append(buffer[row.TableName()], row)
			totalRows++

			if totalRows >= w.config.FlushSize {
				w.flush(buffer)
				reset()
			}

		case <-w.flushTicker.C:
			if totalRows > 0 && w.shouldFlush(totalRows, firstDataTime) {
				w.flush(buffer)
				reset()
			}
		}
	}
}

// shouldFlush determines whether to flush based on MinFlushSize and MaxWaitTime strategy
func (w *defaultWriter) shouldFlush(totalRows int, firstDataTime time.Time) bool {
	if w.config.MinFlushSize == 0 || totalRows >= w.config.MinFlushSize {
		return true
	}
	return w.config.MaxWaitTime > 0 && time.Since(firstDataTime) >= w.config.MaxWaitTime
}

// flush sends every buffered table; failed batches are logged and dropped
func (w *defaultWriter) flush(buffer map[TableName][]Row) {
	successRows, failedRows := 0, 0

	for table, rows := range buffer {
		if err := w.insert(context.Background(), table, rows); err != nil {
			w.logger.Error("failed to batch insert",
				zap.String("table", string(table)),
				zap.Int("rows", len(rows)),
				zap.Error(err),
			)
			failedRows += len(rows)
			continue
		}
		successRows += len(rows)
	}

	w.logger.Info("flush completed",
		zap.Int("total_rows", successRows+failedRows),
		zap.Int("success_rows", successRows),
		zap.Int("failed_rows", failedRows),
	)
}

// insertQuery names the columns of the first row; rows of one table share them
func insertQuery(table TableName, rows []Row) string {
	return fmt.Sprintf("INSERT INTO `%s` (%s)", table, strings.Join(rows[0].Columns(), ", "))
}

func connInsert(conn driver.Conn) insertFunc {
	return func(ctx context.Context, table TableName, rows []Row) error {
		if len(rows) == 0 {
			return nil
		}
		batch, err := conn.PrepareBatch(ctx, insertQuery(table, rows))
		if err != nil {
			return ErrInsert(table, err)
		}
		for _, row := range rows {
			if err := batch.Append(row.Values()...); err != nil {
				_ = batch.Abort()
				return ErrInsert(table, err)
			}
		}
		if err := batch.Send(); err != nil {
			return ErrInsert(table, err)
		}
		return nil
	}
}
