package ch

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SyncLogTable records one row per synchronization outcome
const SyncLogTable TableName = "jsonify_sync_log"

var syncLogColumns = []string{
	"event_id", "site", "kind", "subject_id", "effective_id",
	"action", "items", "duration_ms", "error", "created_at",
}

// SyncLogDDL creates SyncLogTable. Rows expire after 90 days.
const SyncLogDDL = "CREATE TABLE IF NOT EXISTS `" + string(SyncLogTable) + "` (" +
	"event_id String, " +
	"site LowCardinality(String), " +
	"kind LowCardinality(String), " +
	"subject_id UInt64, " +
	"effective_id UInt64, " +
	"action LowCardinality(String), " +
	"items UInt32, " +
	"duration_ms UInt64, " +
	"error String, " +
	"created_at DateTime64(3, 'UTC')" +
	") ENGINE = MergeTree ORDER BY (site, created_at) " +
	"TTL toDateTime(created_at) + INTERVAL 90 DAY"

// SyncLogRow is one journaled synchronization
type SyncLogRow struct {
	EventID     string
	Site        string
	Kind        string
	SubjectID   uint64
	EffectiveID uint64
	Action      string
	Items       uint32
	DurationMs  uint64
	Error       string
	CreatedAt   time.Time
}

func (r *SyncLogRow) TableName() TableName { return SyncLogTable }

func (r *SyncLogRow) Columns() []string { return syncLogColumns }

func (r *SyncLogRow) Values() []any {
	return []any{
		r.EventID, r.Site, r.Kind, r.SubjectID, r.EffectiveID,
		r.Action, r.Items, r.DurationMs, r.Error, r.CreatedAt.UTC(),
	}
}

// CreateSyncLogTable creates the journal table when missing
func CreateSyncLogTable(ctx context.Context, c Client) error {
	return c.Exec(ctx, SyncLogDDL)
}

// RecentSyncLog returns the newest rows of site, newest first.
// An empty site returns rows of every site.
func RecentSyncLog(ctx context.Context, c Client, site string, limit int) ([]SyncLogRow, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM `%s`", strings.Join(syncLogColumns, ", "), SyncLogTable)
	args := []any{}
	if site != "" {
		query += " WHERE site = ?"
		args = append(args, site)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := c.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SyncLogRow
	for rows.Next() {
		var r SyncLogRow
		if err := rows.Scan(
			&r.EventID, &r.Site, &r.Kind, &r.SubjectID, &r.EffectiveID,
			&r.Action, &r.Items, &r.DurationMs, &r.Error, &r.CreatedAt,
		); err != nil {
			return nil, ErrQuery(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrQuery(err)
	}
	return out, nil
}
