package ch

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferFull when buffer is full, please retry later
	ErrBufferFull = errors.New("ch: buffer is full, please retry later")

	// ErrWriterClosed when writer is closed
	ErrWriterClosed = errors.New("ch: writer is closed")

	// ErrConnectionClosed when connection is closed
	ErrConnectionClosed = errors.New("ch: connection is closed")

	// ErrInvalidRow when a row's columns and values disagree
	ErrInvalidRow = errors.New("ch: row columns and values differ in length")
)

// ErrInvalidConfig invalid config
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("ch: invalid config: %s", msg)
}

// ErrConnection ClickHouse connection error
func ErrConnection(err error) error {
	return fmt.Errorf("ch: connection failed: %w", err)
}

// ErrInsert insert error
func ErrInsert(tableName TableName, err error) error {
	return fmt.Errorf("ch: insert to table %s failed: %w", tableName, err)
}

// ErrQuery query error
func ErrQuery(err error) error {
	return fmt.Errorf("ch: query failed: %w", err)
}
