package db

import (
	"database/sql/driver"
	"fmt"
	"time"

	"cardtracker/internal/streak"
)

// tsLayout is fixed-width so that SQLite's text comparison orders timestamps
// chronologically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// timestamp stores instants as UTC text. PostgreSQL casts the text into its
// timestamptz columns and hands back time.Time; SQLite keeps the text.
type timestamp time.Time

func (t timestamp) Value() (driver.Value, error) {
	return time.Time(t).UTC().Format(tsLayout), nil
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = timestamp(v.UTC())
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		*t = timestamp(time.Time{})
		return nil
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (t *timestamp) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	*t = timestamp(parsed.UTC())
	return nil
}

func (t timestamp) Time() time.Time { return time.Time(t) }

// civilDate maps streak.Date onto a DATE column (PostgreSQL) or
// "YYYY-MM-DD" text (SQLite).
type civilDate streak.Date

func (d civilDate) Value() (driver.Value, error) {
	return streak.Date(d).String(), nil
}

func (d *civilDate) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = civilDate(streak.NewDate(v.Year(), v.Month(), v.Day()))
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	}
	return fmt.Errorf("cannot scan %T into date", src)
}

func (d *civilDate) parse(s string) error {
	if len(s) > len("2006-01-02") {
		s = s[:len("2006-01-02")]
	}
	parsed, err := streak.ParseDate(s)
	if err != nil {
		return err
	}
	*d = civilDate(parsed)
	return nil
}
