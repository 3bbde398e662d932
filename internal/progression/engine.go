package progression

import (
	"context"
	"time"

	"cardtracker/internal/apperr"
	"cardtracker/internal/badges"
	"cardtracker/internal/collection"
	"cardtracker/internal/events"
	"cardtracker/internal/ledger"
	"cardtracker/internal/logger"
	"cardtracker/internal/metrics"
	"cardtracker/internal/streak"

	"github.com/rs/zerolog"
)

// maxCalendarWindow bounds caller-supplied calendar windows.
const maxCalendarWindow = 366

type Options struct {
	Catalog  *badges.Catalog
	Source   collection.Source
	Activity collection.ActivityLog
	// Writer is only needed for RecordItemAdded.
	Writer   collection.Writer
	Ledger   *ledger.Ledger
	Grace    GraceStore
	Notifier Notifier
	Metrics  *metrics.Metrics

	// Location decides which calendar day an activity timestamp falls on.
	Location           *time.Location
	Now                func() time.Time
	GraceDaysPerWeek   int
	CalendarWindowDays int
}

// Engine evaluates, awards and projects badges for collectors. It keeps no
// per-collector state between calls.
type Engine struct {
	catalog    *badges.Catalog
	source     collection.Source
	activity   collection.ActivityLog
	writer     collection.Writer
	ledger     *ledger.Ledger
	grace      GraceStore
	notifier   Notifier
	metrics    *metrics.Metrics
	log        zerolog.Logger
	loc        *time.Location
	now        func() time.Time
	graceQuota int
	windowDays int
}

func New(opts Options) (*Engine, error) {
	if opts.Source == nil || opts.Activity == nil || opts.Ledger == nil {
		return nil, apperr.InvalidInput("engine: source, activity log and ledger are required")
	}
	e := &Engine{
		catalog:    opts.Catalog,
		source:     opts.Source,
		activity:   opts.Activity,
		writer:     opts.Writer,
		ledger:     opts.Ledger,
		grace:      opts.Grace,
		notifier:   opts.Notifier,
		metrics:    opts.Metrics,
		log:        logger.Component("engine"),
		loc:        opts.Location,
		now:        opts.Now,
		graceQuota: opts.GraceDaysPerWeek,
		windowDays: opts.CalendarWindowDays,
	}
	if e.catalog == nil {
		e.catalog = badges.Default()
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.graceQuota <= 0 {
		e.graceQuota = streak.DefaultGraceDaysPerWeek
	}
	if e.windowDays <= 0 {
		e.windowDays = streak.DefaultWindowDays
	}
	return e, nil
}

func (e *Engine) Catalog() *badges.Catalog { return e.catalog }

// Today is the current calendar date in the engine's location.
func (e *Engine) Today() streak.Date {
	return streak.DateOf(e.now(), e.loc)
}

// Result is the outcome of evaluating one category (and scope).
type Result struct {
	Category      badges.Category `json:"category"`
	Scope         string          `json:"scope,omitempty"`
	AwardedKeys   []string        `json:"awarded_keys"`
	CurrentMetric int             `json:"current_metric"`
}

// EvaluateAndAward evaluates one category for a collector and awards every
// newly crossed badge in ascending threshold order. scopeID is the set id for
// completion (required) and an optional tag or target for the scoped
// categories. An unknown collector fails the call; an unknown or unscoreable
// set yields an empty result.
func (e *Engine) EvaluateAndAward(ctx context.Context, collectorID string, category badges.Category, scopeID string) (Result, error) {
	s := e.newSession(collectorID)
	return s.evaluate(ctx, category, scopeID)
}

// EvaluateAll evaluates every category, and completion for every set the
// collector owns items from.
func (e *Engine) EvaluateAll(ctx context.Context, collectorID string) ([]Result, error) {
	s := e.newSession(collectorID)
	snap, err := s.snapshot(ctx, false)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, cat := range badges.Categories {
		if cat == badges.CategoryCompletion {
			for _, setID := range collection.SetIDs(snap.ItemIDs) {
				r, err := s.evaluate(ctx, cat, setID)
				if err != nil {
					return results, err
				}
				results = append(results, r)
			}
			continue
		}
		r, err := s.evaluate(ctx, cat, "")
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// ItemAddedResult reports what an item addition unlocked.
type ItemAddedResult struct {
	AwardedKeys []string `json:"awarded_keys"`
	Results     []Result `json:"results"`
}

// RecordItemAdded stores the item, appends an item_added activity entry and
// evaluates the categories the addition can affect.
func (e *Engine) RecordItemAdded(ctx context.Context, collectorID string, item collection.OwnedItem) (ItemAddedResult, error) {
	if e.writer == nil {
		return ItemAddedResult{}, apperr.InvalidState("engine has no collection writer")
	}
	if err := e.writer.AddOwnedItem(ctx, collectorID, item); err != nil {
		return ItemAddedResult{}, err
	}
	ev := collection.ActivityEvent{
		CollectorID: collectorID,
		Kind:        collection.ActivityItemAdded,
		OccurredAt:  e.now().UTC(),
		Metadata:    map[string]string{"item_id": item.ItemID, "variant": item.Variant},
	}
	ev.ID = newEventID()
	if err := e.activity.AppendActivity(ctx, ev); err != nil {
		return ItemAddedResult{}, err
	}

	type step struct {
		cat   badges.Category
		scope string
	}
	steps := []step{
		{badges.CategoryMilestone, ""},
		{badges.CategorySpecialist, ""},
		{badges.CategoryTarget, ""},
	}
	if setID := collection.SetIDOf(item.ItemID); setID != "" {
		steps = append(steps, step{badges.CategoryCompletion, setID})
	}
	steps = append(steps, step{badges.CategoryStreak, ""})

	out := ItemAddedResult{AwardedKeys: []string{}}
	s := e.newSession(collectorID)
	for _, st := range steps {
		r, err := s.evaluate(ctx, st.cat, st.scope)
		if err != nil {
			return out, err
		}
		out.Results = append(out.Results, r)
		out.AwardedKeys = append(out.AwardedKeys, r.AwardedKeys...)
	}
	return out, nil
}

// GetBadgeCatalogEntry looks up a badge definition, resolving composite
// completion keys to their base definition.
func (e *Engine) GetBadgeCatalogEntry(key string) (badges.Definition, bool) {
	return e.catalog.ByKey(key)
}

// ListAwards returns the collector's held badges, oldest first.
func (e *Engine) ListAwards(ctx context.Context, collectorID string) ([]ledger.AwardedBadge, error) {
	return e.ledger.List(ctx, collectorID)
}

// GetProgress projects progress for one category. scopeID is required for
// completion and for the scoped categories.
func (e *Engine) GetProgress(ctx context.Context, collectorID string, category badges.Category, scopeID string) (Progress, error) {
	if !category.Valid() {
		return Progress{}, apperr.InvalidInput("unknown category %q", category)
	}
	s := e.newSession(collectorID)
	return s.progress(ctx, category, scopeID)
}

// GetAllProgress projects progress for every category and scope, and for
// every scoreable set the collector owns items from.
func (e *Engine) GetAllProgress(ctx context.Context, collectorID string) ([]Progress, error) {
	s := e.newSession(collectorID)
	snap, err := s.snapshot(ctx, true)
	if err != nil {
		return nil, err
	}

	var out []Progress
	add := func(cat badges.Category, scope string) error {
		p, err := s.progress(ctx, cat, scope)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	}

	if err := add(badges.CategoryMilestone, ""); err != nil {
		return nil, err
	}
	for _, cat := range []badges.Category{badges.CategorySpecialist, badges.CategoryTarget} {
		for _, scope := range e.catalog.Scopes(cat) {
			if err := add(cat, scope); err != nil {
				return nil, err
			}
		}
	}
	for _, setID := range collection.SetIDs(snap.ItemIDs) {
		p, err := s.progress(ctx, badges.CategoryCompletion, setID)
		if apperr.IsNotFound(err) || apperr.IsInvalidState(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := add(badges.CategoryStreak, ""); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStreakCalendar builds the calendar for windowDays ending at today. A
// non-positive window uses the configured default.
func (e *Engine) GetStreakCalendar(ctx context.Context, collectorID string, windowDays int, today streak.Date) (streak.Calendar, error) {
	if windowDays <= 0 {
		windowDays = e.windowDays
	}
	if windowDays > maxCalendarWindow {
		return streak.Calendar{}, apperr.InvalidInput("window of %d days exceeds %d", windowDays, maxCalendarWindow)
	}
	in, err := e.streakInput(ctx, collectorID, windowDays, today)
	if err != nil {
		return streak.Calendar{}, err
	}
	return streak.Compute(in), nil
}

func (e *Engine) streakInput(ctx context.Context, collectorID string, windowDays int, today streak.Date) (streak.Input, error) {
	since := today.AddDays(-(windowDays - 1)).Start(e.loc)
	active, err := e.activity.ActivityDates(ctx, collectorID, since, e.loc)
	if err != nil {
		return streak.Input{}, err
	}
	var usages []streak.GraceDayUsage
	if e.grace != nil {
		usages, err = e.grace.GraceDayUsages(ctx, collectorID)
		if err != nil {
			return streak.Input{}, err
		}
	}
	return streak.Input{Active: active, Grace: usages, WindowDays: windowDays, Today: today}, nil
}

// streakEvalWindow is long enough to see the highest streak badge even when
// today has no activity yet.
func (e *Engine) streakEvalWindow() int {
	n := e.catalog.MaxThreshold(badges.CategoryStreak) + 1
	if n < e.windowDays {
		n = e.windowDays
	}
	return n
}

func (e *Engine) notify(collectorID string, c Crossing, badge ledger.AwardedBadge) {
	if e.notifier == nil {
		return
	}
	ok := e.notifier.PublishAward(events.BadgeAwarded{
		CollectorID: collectorID,
		BadgeKey:    c.Key,
		Category:    string(c.Definition.Category),
		DisplayName: c.Definition.DisplayName,
		Description: c.Definition.Description,
		Icon:        c.Definition.Icon,
		Color:       c.Definition.Color,
		EarnedAt:    badge.EarnedAt,
	})
	if !ok {
		e.metrics.IncNotificationDrops()
		e.log.Warn().Str("collector", collectorID).Str("badge", c.Key).Msg("award notification dropped")
	}
}
