package db

import (
	"context"
	"database/sql"

	"cardtracker/internal/collection"
	"cardtracker/internal/ledger"

	"github.com/pkg/errors"
)

// InsertAward writes badge and its companion activity entry in one
// transaction. The (collector_id, badge_key) unique constraint decides the
// winner of concurrent inserts; the loser gets the stored row back.
func (d *DB) InsertAward(ctx context.Context, badge ledger.AwardedBadge, companion collection.ActivityEvent) (ledger.AwardedBadge, bool, error) {
	data, err := badge.Context.Encode()
	if err != nil {
		return ledger.AwardedBadge{}, false, err
	}
	activity, err := activityArgs(companion)
	if err != nil {
		return ledger.AwardedBadge{}, false, err
	}

	inserted := false
	err = d.inTx(ctx, func(tx *sql.Tx) error {
		res, err := d.exec(ctx, tx, `
			INSERT INTO awarded_badges (id, collector_id, badge_key, earned_at, context)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (collector_id, badge_key) DO NOTHING
		`, badge.ID, badge.CollectorID, badge.BadgeKey, timestamp(badge.EarnedAt), string(data))
		if err != nil {
			return errors.Wrap(err, "awarding badge")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "awarding badge")
		}
		if n == 0 {
			return nil
		}
		if _, err := d.exec(ctx, tx, insertActivity, activity...); err != nil {
			return errors.Wrap(err, "logging badge activity")
		}
		inserted = true
		return nil
	})
	if err != nil {
		return ledger.AwardedBadge{}, false, err
	}
	if inserted {
		return badge, true, nil
	}

	stored, err := d.award(ctx, badge.CollectorID, badge.BadgeKey)
	if err != nil {
		return ledger.AwardedBadge{}, false, err
	}
	return stored, false, nil
}

func (d *DB) award(ctx context.Context, collectorID, badgeKey string) (ledger.AwardedBadge, error) {
	row := d.queryRow(ctx, d.conn, `
		SELECT id, collector_id, badge_key, earned_at, context FROM awarded_badges
		WHERE collector_id = ? AND badge_key = ?
	`, collectorID, badgeKey)
	return scanAward(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAward(row rowScanner) (ledger.AwardedBadge, error) {
	var (
		b   ledger.AwardedBadge
		ts  timestamp
		raw []byte
	)
	if err := row.Scan(&b.ID, &b.CollectorID, &b.BadgeKey, &ts, &raw); err != nil {
		return ledger.AwardedBadge{}, errors.Wrap(err, "scanning award")
	}
	b.EarnedAt = ts.Time()
	ctx, err := ledger.DecodeContext(raw)
	if err != nil {
		return ledger.AwardedBadge{}, errors.Wrapf(err, "decoding context of %s", b.BadgeKey)
	}
	b.Context = ctx
	return b, nil
}

func (d *DB) HeldKeys(ctx context.Context, collectorID string) (map[string]struct{}, error) {
	rows, err := d.query(ctx, d.conn, `SELECT badge_key FROM awarded_badges WHERE collector_id = ?`, collectorID)
	if err != nil {
		return nil, errors.Wrap(err, "getting held badges")
	}
	defer rows.Close()

	held := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "scanning badge key")
		}
		held[key] = struct{}{}
	}
	return held, errors.Wrap(rows.Err(), "iterating held badges")
}

// ListAwards returns the collector's awards ordered by earned time, then key.
func (d *DB) ListAwards(ctx context.Context, collectorID string) ([]ledger.AwardedBadge, error) {
	rows, err := d.query(ctx, d.conn, `
		SELECT id, collector_id, badge_key, earned_at, context FROM awarded_badges
		WHERE collector_id = ? ORDER BY earned_at, badge_key
	`, collectorID)
	if err != nil {
		return nil, errors.Wrap(err, "listing awards")
	}
	defer rows.Close()

	out := []ledger.AwardedBadge{}
	for rows.Next() {
		b, err := scanAward(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, errors.Wrap(rows.Err(), "iterating awards")
}
