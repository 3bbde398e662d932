package progression

import (
	"sort"

	"cardtracker/internal/badges"
	"cardtracker/internal/collection"
	"cardtracker/internal/ledger"
)

// Crossing is a badge whose threshold is met and which the collector does not
// hold yet.
type Crossing struct {
	Key        string
	Definition badges.Definition
	Context    ledger.Context
}

// crossed walks defs (ascending threshold) and returns those met by metric
// whose key is not in held. Membership in held is the only filter, so an
// unchanged snapshot evaluated twice yields nothing the second time.
func crossed(defs []badges.Definition, metric int, held map[string]struct{}, key func(badges.Definition) string, ctx ledger.Context) []Crossing {
	var out []Crossing
	for _, d := range defs {
		if d.Threshold > metric {
			break
		}
		k := key(d)
		if _, ok := held[k]; ok {
			continue
		}
		out = append(out, Crossing{Key: k, Definition: d, Context: ctx})
	}
	return out
}

func baseKey(d badges.Definition) string { return d.Key }

// sortCrossings orders by ascending threshold so lower badges are awarded
// first; equal thresholds keep catalog order.
func sortCrossings(cs []Crossing) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Definition.Threshold < cs[j].Definition.Threshold
	})
}

// EvaluateMilestones checks absolute unique-item milestones.
func EvaluateMilestones(c *badges.Catalog, snap Snapshot, held map[string]struct{}) ([]Crossing, int) {
	n := snap.UniqueCount()
	return crossed(c.ByCategory(badges.CategoryMilestone), n, held, baseKey, ledger.ForMilestone(n)), n
}

// EvaluateSpecialists checks per-tag specialist badges. An empty scope
// evaluates every tag and reports the highest tag count as the metric.
func EvaluateSpecialists(c *badges.Catalog, snap Snapshot, held map[string]struct{}, scope string) ([]Crossing, int) {
	counts := snap.TagCounts()
	return evaluateScoped(c, badges.CategorySpecialist, counts, held, scope, ledger.ForSpecialist)
}

// EvaluateTargets checks named-target badges. An empty scope evaluates every
// target and reports the highest target count as the metric.
func EvaluateTargets(c *badges.Catalog, snap Snapshot, held map[string]struct{}, scope string) ([]Crossing, int) {
	counts := snap.TargetCounts(c.Targets())
	return evaluateScoped(c, badges.CategoryTarget, counts, held, scope, ledger.ForTarget)
}

func evaluateScoped(c *badges.Catalog, cat badges.Category, counts map[string]int, held map[string]struct{}, scope string, mk func(string, int) ledger.Context) ([]Crossing, int) {
	scopes := c.Scopes(cat)
	if scope != "" {
		scopes = []string{scope}
	}
	var (
		out    []Crossing
		metric int
	)
	for _, s := range scopes {
		n := counts[s]
		if n > metric {
			metric = n
		}
		out = append(out, crossed(c.ByScope(cat, s), n, held, baseKey, mk(s, n))...)
	}
	sortCrossings(out)
	return out, metric
}

// EvaluateCompletion checks one set's completion badges under composite keys.
// An unscoreable set yields no crossings.
func EvaluateCompletion(c *badges.Catalog, snap Snapshot, ref collection.SetReference, held map[string]struct{}) ([]Crossing, int) {
	owned, percent, ok := snap.SetCompletion(ref)
	if !ok {
		return nil, 0
	}
	key := func(d badges.Definition) string { return badges.CompletionKey(ref.SetID, d.Key) }
	ctx := ledger.ForCompletion(ledger.CompletionContext{
		SetID:   ref.SetID,
		SetName: ref.DisplayName,
		Owned:   owned,
		Total:   ref.TotalItemCount,
		Percent: percent,
	})
	return crossed(c.ByCategory(badges.CategoryCompletion), percent, held, key, ctx), percent
}

// EvaluateStreak checks streak badges against a consecutive-day count.
func EvaluateStreak(c *badges.Catalog, days int, held map[string]struct{}) ([]Crossing, int) {
	return crossed(c.ByCategory(badges.CategoryStreak), days, held, baseKey, ledger.ForStreak(days)), days
}
