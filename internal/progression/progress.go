package progression

import "cardtracker/internal/badges"

// Progress is the read-only "where am I" view for one category and scope.
type Progress struct {
	Category  badges.Category    `json:"category"`
	Scope     string             `json:"scope,omitempty"`
	Current   int                `json:"current"`
	Held      *badges.Definition `json:"held"`
	Next      *badges.Definition `json:"next"`
	Remaining int                `json:"remaining"`
	Percent   int                `json:"percent"`
}

// project computes progress over defs (ascending threshold). Held is the
// highest held badge, Next the lowest one not held.
func project(cat badges.Category, scope string, defs []badges.Definition, current int, held map[string]struct{}, key func(badges.Definition) string) Progress {
	p := Progress{Category: cat, Scope: scope, Current: current}
	for i := range defs {
		d := defs[i]
		if _, ok := held[key(d)]; ok {
			p.Held = &d
			continue
		}
		if p.Next == nil {
			p.Next = &d
		}
	}

	if p.Next == nil {
		p.Percent = 100
		return p
	}
	p.Remaining = p.Next.Threshold - current
	if p.Remaining < 0 {
		p.Remaining = 0
	}
	p.Percent = percentOf(current, p.Next.Threshold)
	if p.Percent > 100 {
		p.Percent = 100
	}
	return p
}
