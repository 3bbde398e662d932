package ledger

import (
	"encoding/json"
	"fmt"

	"cardtracker/internal/badges"
)

// Context is the write-once payload stored with an award. Exactly one of the
// pointer fields is set, and it must match Kind.
type Context struct {
	Kind       badges.Category    `json:"kind"`
	Milestone  *MilestoneContext  `json:"milestone,omitempty"`
	Completion *CompletionContext `json:"completion,omitempty"`
	Specialist *SpecialistContext `json:"specialist,omitempty"`
	Target     *TargetContext     `json:"target,omitempty"`
	Streak     *StreakContext     `json:"streak,omitempty"`
}

type MilestoneContext struct {
	UniqueCount int `json:"unique_count"`
}

type CompletionContext struct {
	SetID   string `json:"set_id"`
	SetName string `json:"set_name"`
	Owned   int    `json:"owned"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
}

type SpecialistContext struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type TargetContext struct {
	Target string `json:"target"`
	Count  int    `json:"count"`
}

type StreakContext struct {
	Days int `json:"days"`
}

func ForMilestone(unique int) Context {
	return Context{Kind: badges.CategoryMilestone, Milestone: &MilestoneContext{UniqueCount: unique}}
}

func ForCompletion(c CompletionContext) Context {
	return Context{Kind: badges.CategoryCompletion, Completion: &c}
}

func ForSpecialist(tag string, count int) Context {
	return Context{Kind: badges.CategorySpecialist, Specialist: &SpecialistContext{Tag: tag, Count: count}}
}

func ForTarget(target string, count int) Context {
	return Context{Kind: badges.CategoryTarget, Target: &TargetContext{Target: target, Count: count}}
}

func ForStreak(days int) Context {
	return Context{Kind: badges.CategoryStreak, Streak: &StreakContext{Days: days}}
}

// Validate checks that the variant matches the kind and no other variant is set.
func (c Context) Validate() error {
	set := 0
	var match bool
	if c.Milestone != nil {
		set++
		match = c.Kind == badges.CategoryMilestone
	}
	if c.Completion != nil {
		set++
		match = c.Kind == badges.CategoryCompletion
	}
	if c.Specialist != nil {
		set++
		match = c.Kind == badges.CategorySpecialist
	}
	if c.Target != nil {
		set++
		match = c.Kind == badges.CategoryTarget
	}
	if c.Streak != nil {
		set++
		match = c.Kind == badges.CategoryStreak
	}
	if set != 1 {
		return fmt.Errorf("award context must carry exactly one payload, got %d", set)
	}
	if !match {
		return fmt.Errorf("award context payload does not match kind %q", c.Kind)
	}
	return nil
}

// Metric returns the number the award was granted on.
func (c Context) Metric() int {
	switch {
	case c.Milestone != nil:
		return c.Milestone.UniqueCount
	case c.Completion != nil:
		return c.Completion.Percent
	case c.Specialist != nil:
		return c.Specialist.Count
	case c.Target != nil:
		return c.Target.Count
	case c.Streak != nil:
		return c.Streak.Days
	}
	return 0
}

// Encode serializes the context for storage.
func (c Context) Encode() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(c)
}

// DecodeContext parses a stored context and validates it.
func DecodeContext(data []byte) (Context, error) {
	var c Context
	if err := json.Unmarshal(data, &c); err != nil {
		return Context{}, fmt.Errorf("decoding award context: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Context{}, err
	}
	return c, nil
}
