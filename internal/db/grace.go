package db

import (
	"context"
	"database/sql"

	"cardtracker/internal/apperr"
	"cardtracker/internal/streak"

	"github.com/pkg/errors"
)

// graceInsertAttempts bounds retries when a concurrent consumer takes the
// slot we computed.
const graceInsertAttempts = 3

func (d *DB) GraceDayUsages(ctx context.Context, collectorID string) ([]streak.GraceDayUsage, error) {
	rows, err := d.query(ctx, d.conn, `
		SELECT collector_id, used_on, protected_date, iso_week, streak_length FROM grace_days
		WHERE collector_id = ? ORDER BY protected_date
	`, collectorID)
	if err != nil {
		return nil, errors.Wrap(err, "listing grace days")
	}
	defer rows.Close()

	var out []streak.GraceDayUsage
	for rows.Next() {
		u, err := scanGrace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, errors.Wrap(rows.Err(), "iterating grace days")
}

func scanGrace(row rowScanner) (streak.GraceDayUsage, error) {
	var (
		u               streak.GraceDayUsage
		usedOn, protect civilDate
	)
	if err := row.Scan(&u.CollectorID, &usedOn, &protect, &u.Week, &u.StreakLengthAtUse); err != nil {
		return streak.GraceDayUsage{}, errors.Wrap(err, "scanning grace day")
	}
	u.UsedOn = streak.Date(usedOn)
	u.ProtectedDate = streak.Date(protect)
	return u, nil
}

func (d *DB) graceDay(ctx context.Context, collectorID string, protected streak.Date) (streak.GraceDayUsage, bool, error) {
	row := d.queryRow(ctx, d.conn, `
		SELECT collector_id, used_on, protected_date, iso_week, streak_length FROM grace_days
		WHERE collector_id = ? AND protected_date = ?
	`, collectorID, civilDate(protected))
	u, err := scanGrace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return streak.GraceDayUsage{}, false, nil
	}
	if err != nil {
		return streak.GraceDayUsage{}, false, err
	}
	return u, true, nil
}

// InsertGraceDay stores usage unless its day is already protected. The week's
// quota is enforced by the (collector_id, iso_week, slot) unique key: a usage
// takes the next free slot and slots stop at quota.
func (d *DB) InsertGraceDay(ctx context.Context, usage streak.GraceDayUsage, quota int) (streak.GraceDayUsage, bool, error) {
	for attempt := 0; attempt < graceInsertAttempts; attempt++ {
		if existing, ok, err := d.graceDay(ctx, usage.CollectorID, usage.ProtectedDate); err != nil {
			return streak.GraceDayUsage{}, false, err
		} else if ok {
			return existing, false, nil
		}

		var used int
		err := d.queryRow(ctx, d.conn, `
			SELECT COUNT(*) FROM grace_days WHERE collector_id = ? AND iso_week = ?
		`, usage.CollectorID, usage.Week).Scan(&used)
		if err != nil {
			return streak.GraceDayUsage{}, false, errors.Wrap(err, "counting grace days")
		}
		if used >= quota {
			return streak.GraceDayUsage{}, false, streak.ErrGraceQuotaReached
		}

		res, err := d.exec(ctx, d.conn, `
			INSERT INTO grace_days (collector_id, protected_date, used_on, iso_week, slot, streak_length)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, usage.CollectorID, civilDate(usage.ProtectedDate), civilDate(usage.UsedOn), usage.Week, used, usage.StreakLengthAtUse)
		if err != nil {
			return streak.GraceDayUsage{}, false, errors.Wrap(err, "inserting grace day")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return streak.GraceDayUsage{}, false, errors.Wrap(err, "inserting grace day")
		}
		if n == 1 {
			return usage, true, nil
		}
		d.log.Debug().Str("collector", usage.CollectorID).Str("week", usage.Week).Msg("grace slot taken, retrying")
	}
	return streak.GraceDayUsage{}, false, apperr.Conflict("grace day for %s kept conflicting", usage.ProtectedDate)
}
