package syncer

import (
	"context"
	"encoding/json"

	"github.com/dailyyoga/jsonify/feed"
	"github.com/dailyyoga/jsonify/kafka"
	"github.com/dailyyoga/jsonify/logger"
	"go.uber.org/zap"
)

// Handler is the part of Engine the listener needs
type Handler interface {
	Handle(ctx context.Context, ev feed.MutationEvent) (Outcome, error)
}

// Listener feeds mutation events received from kafka into a Handler
type Listener struct {
	logger  logger.Logger
	handler Handler
}

// NewListener creates a listener
func NewListener(log logger.Logger, h Handler) *Listener {
	if log == nil {
		log = logger.Nop()
	}
	return &Listener{logger: log, handler: h}
}

// HandleMessage decodes one message and handles it.
// Messages that are not valid events are logged and acknowledged so that
// they do not block the partition. Engine failures are returned and left
// to the consumer, which does not retry them by default.
func (l *Listener) HandleMessage(ctx context.Context, msg *kafka.Message) error {
	ev, err := DecodeEvent(msg.Value)
	if err != nil {
		fields := []zap.Field{zap.Error(err), zap.Int("bytes", len(msg.Value))}
		if msg.TopicPartition.Topic != nil {
			fields = append(fields,
				zap.String("topic", *msg.TopicPartition.Topic),
				zap.Int32("partition", msg.TopicPartition.Partition),
				zap.Int64("offset", int64(msg.TopicPartition.Offset)),
			)
		}
		l.logger.Warn("dropping undecodable mutation event", fields...)
		return nil
	}

	_, err = l.handler.Handle(ctx, ev)
	return err
}

// DecodeEvent parses the wire form of a MutationEvent
func DecodeEvent(data []byte) (feed.MutationEvent, error) {
	var ev feed.MutationEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return feed.MutationEvent{}, ErrDecodeEvent(err)
	}
	if err := ev.Validate(); err != nil {
		return feed.MutationEvent{}, ErrDecodeEvent(err)
	}
	return ev, nil
}

// EncodeEvent produces the wire form of a MutationEvent
func EncodeEvent(ev feed.MutationEvent) ([]byte, error) {
	return json.Marshal(ev)
}
