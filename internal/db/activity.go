package db

import (
	"context"
	"encoding/json"
	"time"

	"cardtracker/internal/collection"
	"cardtracker/internal/streak"

	"github.com/pkg/errors"
)

const insertActivity = `
	INSERT INTO activity_log (id, collector_id, kind, occurred_at, metadata)
	VALUES (?, ?, ?, ?, ?)
`

func activityArgs(ev collection.ActivityEvent) ([]any, error) {
	meta := ev.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, errors.Wrap(err, "encoding activity metadata")
	}
	return []any{ev.ID, ev.CollectorID, string(ev.Kind), timestamp(ev.OccurredAt), string(raw)}, nil
}

func (d *DB) AppendActivity(ctx context.Context, ev collection.ActivityEvent) error {
	args, err := activityArgs(ev)
	if err != nil {
		return err
	}
	_, err = d.exec(ctx, d.conn, insertActivity, args...)
	return errors.Wrap(err, "appending activity")
}

// ActivityDates returns the calendar days in loc with at least one item_added
// entry at or after since.
func (d *DB) ActivityDates(ctx context.Context, collectorID string, since time.Time, loc *time.Location) (streak.DateSet, error) {
	if err := d.collectorExists(ctx, collectorID); err != nil {
		return nil, err
	}
	rows, err := d.query(ctx, d.conn, `
		SELECT occurred_at FROM activity_log
		WHERE collector_id = ? AND kind = ? AND occurred_at >= ?
	`, collectorID, string(collection.ActivityItemAdded), timestamp(since))
	if err != nil {
		return nil, errors.Wrap(err, "loading activity dates")
	}
	defer rows.Close()

	dates := streak.NewDateSet()
	for rows.Next() {
		var ts timestamp
		if err := rows.Scan(&ts); err != nil {
			return nil, errors.Wrap(err, "scanning activity time")
		}
		dates.Add(streak.DateOf(ts.Time(), loc))
	}
	return dates, errors.Wrap(rows.Err(), "iterating activity")
}

// Activity returns the collector's most recent limit events, oldest first.
func (d *DB) Activity(ctx context.Context, collectorID string, limit int) ([]collection.ActivityEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.query(ctx, d.conn, `
		SELECT id, collector_id, kind, occurred_at, metadata FROM (
			SELECT id, collector_id, kind, occurred_at, metadata FROM activity_log
			WHERE collector_id = ? ORDER BY occurred_at DESC, id DESC LIMIT ?
		) recent
		ORDER BY occurred_at, id
	`, collectorID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing activity")
	}
	defer rows.Close()

	var out []collection.ActivityEvent
	for rows.Next() {
		var (
			ev   collection.ActivityEvent
			kind string
			ts   timestamp
			raw  []byte
		)
		if err := rows.Scan(&ev.ID, &ev.CollectorID, &kind, &ts, &raw); err != nil {
			return nil, errors.Wrap(err, "scanning activity")
		}
		ev.Kind = collection.ActivityKind(kind)
		ev.OccurredAt = ts.Time()
		if err := json.Unmarshal(raw, &ev.Metadata); err != nil {
			return nil, errors.Wrapf(err, "decoding metadata of %s", ev.ID)
		}
		out = append(out, ev)
	}
	return out, errors.Wrap(rows.Err(), "iterating activity")
}
