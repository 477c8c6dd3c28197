package syncer

import (
	"context"
	"time"

	"github.com/dailyyoga/jsonify/ch"
	"github.com/dailyyoga/jsonify/logger"
	"go.uber.org/zap"
)

// ClickHouseJournal queues every outcome on a ClickHouse batch writer.
// Record never blocks; rows the writer refuses are logged and dropped.
type ClickHouseJournal struct {
	logger logger.Logger
	writer ch.Writer
	site   string
	now    func() time.Time
}

// NewClickHouseJournal journals outcomes of site through w
func NewClickHouseJournal(log logger.Logger, w ch.Writer, site string) *ClickHouseJournal {
	if log == nil {
		log = logger.Nop()
	}
	return &ClickHouseJournal{logger: log, writer: w, site: site, now: time.Now}
}

// Record implements Journal
func (j *ClickHouseJournal) Record(o Outcome) {
	row := OutcomeRow(j.site, o, j.now())
	if err := j.writer.Write(context.Background(), []ch.Row{row}); err != nil {
		j.logger.Warn("sync journal write failed",
			zap.String("event_id", o.EventID),
			zap.Error(err),
		)
	}
}

// OutcomeRow converts an outcome into a sync log row
func OutcomeRow(site string, o Outcome, at time.Time) *ch.SyncLogRow {
	row := &ch.SyncLogRow{
		EventID:     o.EventID,
		Site:        site,
		Kind:        string(o.Kind),
		SubjectID:   o.SubjectID,
		EffectiveID: o.EffectiveID,
		Action:      string(o.Action),
		Items:       uint32(max(o.Items, 0)),
		DurationMs:  uint64(o.Duration.Milliseconds()),
		CreatedAt:   at.UTC(),
	}
	if o.Err != nil {
		row.Error = o.Err.Error()
	}
	return row
}
