package progression

import (
	"context"
	"time"

	"cardtracker/internal/apperr"
	"cardtracker/internal/badges"
	"cardtracker/internal/collection"
	"cardtracker/internal/streak"

	"github.com/google/uuid"
)

func newEventID() string { return uuid.New().String() }

// session caches the reads of one engine call so that evaluating several
// categories loads the snapshot and ledger membership once.
type session struct {
	e           *Engine
	collectorID string

	items       []collection.OwnedItem
	loaded      bool
	descriptors map[string]collection.ItemDescriptor
	held        map[string]struct{}
	streakDays  *int
}

func (e *Engine) newSession(collectorID string) *session {
	return &session{e: e, collectorID: collectorID}
}

func (s *session) snapshot(ctx context.Context, withDescriptors bool) (Snapshot, error) {
	if !s.loaded {
		items, err := s.e.source.OwnedItems(ctx, s.collectorID)
		if err != nil {
			return Snapshot{}, err
		}
		s.items = items
		s.loaded = true
	}
	snap := NewSnapshot(s.items, nil)
	if !withDescriptors {
		return snap, nil
	}
	if s.descriptors == nil {
		d, err := s.e.source.ItemDescriptors(ctx, snap.ItemIDs)
		if err != nil {
			return Snapshot{}, err
		}
		if d == nil {
			d = map[string]collection.ItemDescriptor{}
		}
		s.descriptors = d
	}
	snap.Descriptors = s.descriptors
	return snap, nil
}

func (s *session) heldKeys(ctx context.Context) (map[string]struct{}, error) {
	if s.held == nil {
		held, err := s.e.ledger.Held(ctx, s.collectorID)
		if err != nil {
			return nil, err
		}
		if held == nil {
			held = map[string]struct{}{}
		}
		s.held = held
	}
	return s.held, nil
}

func (s *session) currentStreak(ctx context.Context) (int, error) {
	if s.streakDays == nil {
		in, err := s.e.streakInput(ctx, s.collectorID, s.e.streakEvalWindow(), s.e.Today())
		if err != nil {
			return 0, err
		}
		n := streak.CurrentStreak(in)
		s.streakDays = &n
	}
	return *s.streakDays, nil
}

// crossings computes the newly crossed badges and the current metric for one
// category without writing anything.
func (s *session) crossings(ctx context.Context, category badges.Category, scopeID string) ([]Crossing, int, error) {
	c := s.e.catalog

	if category == badges.CategoryStreak {
		days, err := s.currentStreak(ctx)
		if err != nil {
			return nil, 0, err
		}
		held, err := s.heldKeys(ctx)
		if err != nil {
			return nil, 0, err
		}
		cs, metric := EvaluateStreak(c, days, held)
		return cs, metric, nil
	}

	needDescriptors := category == badges.CategorySpecialist || category == badges.CategoryTarget
	snap, err := s.snapshot(ctx, needDescriptors)
	if err != nil {
		return nil, 0, err
	}
	held, err := s.heldKeys(ctx)
	if err != nil {
		return nil, 0, err
	}

	switch category {
	case badges.CategoryMilestone:
		cs, metric := EvaluateMilestones(c, snap, held)
		return cs, metric, nil
	case badges.CategorySpecialist:
		cs, metric := EvaluateSpecialists(c, snap, held, scopeID)
		return cs, metric, nil
	case badges.CategoryTarget:
		cs, metric := EvaluateTargets(c, snap, held, scopeID)
		return cs, metric, nil
	case badges.CategoryCompletion:
		if scopeID == "" {
			return nil, 0, apperr.InvalidInput("completion evaluation needs a set id")
		}
		ref, ok, err := s.e.source.SetReference(ctx, scopeID)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			s.e.log.Debug().Str("collector", s.collectorID).Str("set", scopeID).Msg("unknown set, skipping completion")
			return nil, 0, nil
		}
		if !ref.Scoreable() {
			s.e.log.Debug().Str("collector", s.collectorID).Str("set", scopeID).Msg("unscoreable set, skipping completion")
			return nil, 0, nil
		}
		cs, metric := EvaluateCompletion(c, snap, ref, held)
		return cs, metric, nil
	}
	return nil, 0, apperr.InvalidInput("unknown category %q", category)
}

func (s *session) evaluate(ctx context.Context, category badges.Category, scopeID string) (Result, error) {
	start := time.Now()
	res := Result{Category: category, Scope: scopeID, AwardedKeys: []string{}}
	if !category.Valid() {
		return res, apperr.InvalidInput("unknown category %q", category)
	}

	cs, metric, err := s.crossings(ctx, category, scopeID)
	if err != nil {
		s.e.metrics.ObserveEvaluation(string(category), "error", time.Since(start))
		return res, err
	}
	res.CurrentMetric = metric

	for _, c := range cs {
		out, err := s.e.ledger.Award(ctx, s.collectorID, c.Key, c.Context)
		if err != nil {
			s.e.metrics.ObserveEvaluation(string(category), "error", time.Since(start))
			s.e.log.Error().Err(err).Str("collector", s.collectorID).Str("badge", c.Key).Msg("award failed")
			return res, err
		}
		s.held[c.Key] = struct{}{}
		if out.AlreadyHeld {
			// Another evaluation got there first.
			s.e.metrics.IncAwardConflicts()
			continue
		}
		res.AwardedKeys = append(res.AwardedKeys, c.Key)
		s.e.metrics.IncBadgesAwarded(string(category))
		s.e.log.Info().
			Str("collector", s.collectorID).
			Str("badge", c.Key).
			Int("metric", metric).
			Msg("badge awarded")
		s.e.notify(s.collectorID, c, out.Badge)
	}

	s.e.metrics.ObserveEvaluation(string(category), "ok", time.Since(start))
	return res, nil
}

func (s *session) progress(ctx context.Context, category badges.Category, scopeID string) (Progress, error) {
	c := s.e.catalog
	held, err := s.heldKeys(ctx)
	if err != nil {
		return Progress{}, err
	}

	switch category {
	case badges.CategoryMilestone:
		snap, err := s.snapshot(ctx, false)
		if err != nil {
			return Progress{}, err
		}
		return project(category, "", c.ByCategory(category), snap.UniqueCount(), held, baseKey), nil

	case badges.CategorySpecialist, badges.CategoryTarget:
		if scopeID == "" {
			return Progress{}, apperr.InvalidInput("%s progress needs a scope", category)
		}
		defs := c.ByScope(category, scopeID)
		if len(defs) == 0 {
			return Progress{}, apperr.NotFound("%s scope %q", category, scopeID)
		}
		snap, err := s.snapshot(ctx, true)
		if err != nil {
			return Progress{}, err
		}
		var current int
		if category == badges.CategorySpecialist {
			current = snap.TagCounts()[scopeID]
		} else {
			current = snap.TargetCounts(c.Targets())[scopeID]
		}
		return project(category, scopeID, defs, current, held, baseKey), nil

	case badges.CategoryCompletion:
		if scopeID == "" {
			return Progress{}, apperr.InvalidInput("completion progress needs a set id")
		}
		snap, err := s.snapshot(ctx, false)
		if err != nil {
			return Progress{}, err
		}
		ref, ok, err := s.e.source.SetReference(ctx, scopeID)
		if err != nil {
			return Progress{}, err
		}
		if !ok {
			return Progress{}, apperr.NotFound("set %q", scopeID)
		}
		_, percent, scoreable := snap.SetCompletion(ref)
		if !scoreable {
			return Progress{}, apperr.InvalidState("set %q has no items to score", scopeID)
		}
		key := func(d badges.Definition) string { return badges.CompletionKey(scopeID, d.Key) }
		return project(category, scopeID, c.ByCategory(category), percent, held, key), nil

	case badges.CategoryStreak:
		days, err := s.currentStreak(ctx)
		if err != nil {
			return Progress{}, err
		}
		return project(category, "", c.ByCategory(category), days, held, baseKey), nil
	}
	return Progress{}, apperr.InvalidInput("unknown category %q", category)
}
