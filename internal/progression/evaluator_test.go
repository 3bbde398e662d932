package progression

import (
	"testing"

	"cardtracker/internal/badges"
	"cardtracker/internal/collection"
)

func items(ids ...string) []collection.OwnedItem {
	out := make([]collection.OwnedItem, len(ids))
	for i, id := range ids {
		out[i] = collection.OwnedItem{ItemID: id, Quantity: 1}
	}
	return out
}

func keys(cs []Crossing) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Key
	}
	return out
}

func equalKeys(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestEvaluateMilestones_JumpAwardsAscending(t *testing.T) {
	var ids []string
	for i := 0; i < 55; i++ {
		ids = append(ids, "sv1-"+string(rune('a'+i/26))+string(rune('a'+i%26)))
	}
	held := map[string]struct{}{badges.KeyFirstCatch: {}}

	cs, metric := EvaluateMilestones(badges.Default(), NewSnapshot(items(ids...), nil), held)
	if metric != 55 {
		t.Errorf("metric = %d, want 55", metric)
	}
	equalKeys(t, keys(cs), []string{"collector_10", "collector_50"})
	if cs[0].Context.Milestone.UniqueCount != 55 {
		t.Errorf("context unique = %d, want 55", cs[0].Context.Milestone.UniqueCount)
	}
}

func TestEvaluateMilestones_DuplicatesCountOnce(t *testing.T) {
	snap := NewSnapshot([]collection.OwnedItem{
		{ItemID: "sv1-001", Quantity: 3},
		{ItemID: "sv1-001", Quantity: 1, Variant: "holo"},
	}, nil)
	_, metric := EvaluateMilestones(badges.Default(), snap, nil)
	if metric != 1 {
		t.Errorf("metric = %d, want 1", metric)
	}
}

func TestEvaluateCompletion_CompositeKeysPerSet(t *testing.T) {
	var ids []string
	for i := 0; i < 50; i++ {
		ids = append(ids, "sv1-"+string(rune('a'+i/26))+string(rune('a'+i%26)))
	}
	ids = append(ids, "sv2-001")
	snap := NewSnapshot(items(ids...), nil)
	held := map[string]struct{}{"sv1_completion_25": {}}

	cs, percent := EvaluateCompletion(badges.Default(), snap, collection.SetReference{SetID: "sv1", TotalItemCount: 100}, held)
	if percent != 50 {
		t.Errorf("percent = %d, want 50", percent)
	}
	equalKeys(t, keys(cs), []string{"sv1_completion_50"})

	cs, percent = EvaluateCompletion(badges.Default(), snap, collection.SetReference{SetID: "sv2", TotalItemCount: 4}, held)
	if percent != 25 {
		t.Errorf("sv2 percent = %d, want 25", percent)
	}
	equalKeys(t, keys(cs), []string{"sv2_completion_25"})
}

func TestEvaluateCompletion_Unscoreable(t *testing.T) {
	cs, percent := EvaluateCompletion(badges.Default(), NewSnapshot(items("sv1-001"), nil), collection.SetReference{SetID: "sv1"}, nil)
	if len(cs) != 0 || percent != 0 {
		t.Errorf("got %v, %d; want nothing", keys(cs), percent)
	}
}

func TestEvaluateSpecialists_TagCountsAndMissingDescriptors(t *testing.T) {
	var ids []string
	desc := map[string]collection.ItemDescriptor{}
	for i := 0; i < 21; i++ {
		id := "sv1-f" + string(rune('a'+i))
		ids = append(ids, id)
		if i == 20 {
			continue // no descriptor for the last one
		}
		desc[id] = collection.ItemDescriptor{ItemID: id, DisplayName: "Charmander", CategoryTags: []string{"Fire", "fire"}}
	}
	snap := NewSnapshot(items(ids...), desc)

	cs, metric := EvaluateSpecialists(badges.Default(), snap, nil, "")
	if metric != 20 {
		t.Errorf("metric = %d, want 20", metric)
	}
	equalKeys(t, keys(cs), []string{"fire_specialist"})

	cs, _ = EvaluateSpecialists(badges.Default(), snap, nil, "water")
	if len(cs) != 0 {
		t.Errorf("water crossings = %v, want none", keys(cs))
	}
}

func TestEvaluateTargets_PrefixMatch(t *testing.T) {
	desc := map[string]collection.ItemDescriptor{}
	var ids []string
	names := []string{"Charizard", "Charizard ex", "Charizard V", "Charizard VMAX", "Charizard GX", "Charizardite"}
	for i, n := range names {
		id := "sv3-00" + string(rune('0'+i))
		ids = append(ids, id)
		desc[id] = collection.ItemDescriptor{ItemID: id, DisplayName: n}
	}
	cs, metric := EvaluateTargets(badges.Default(), NewSnapshot(items(ids...), desc), nil, "charizard")
	if metric != 5 {
		t.Errorf("metric = %d, want 5", metric)
	}
	equalKeys(t, keys(cs), []string{"charizard_hunter"})
}

func TestEvaluateStreak(t *testing.T) {
	held := map[string]struct{}{"streak_3": {}}
	cs, _ := EvaluateStreak(badges.Default(), 14, held)
	equalKeys(t, keys(cs), []string{"streak_7", "streak_14"})
}

func TestProject(t *testing.T) {
	defs := badges.Default().ByCategory(badges.CategoryMilestone)

	p := project(badges.CategoryMilestone, "", defs, 7, map[string]struct{}{badges.KeyFirstCatch: {}}, baseKey)
	if p.Held == nil || p.Held.Key != badges.KeyFirstCatch {
		t.Fatalf("held = %v, want first_catch", p.Held)
	}
	if p.Next == nil || p.Next.Key != "collector_10" {
		t.Fatalf("next = %v, want collector_10", p.Next)
	}
	if p.Remaining != 3 || p.Percent != 70 {
		t.Errorf("remaining, percent = %d, %d; want 3, 70", p.Remaining, p.Percent)
	}

	// Crossed but not yet awarded: clamp instead of going negative.
	p = project(badges.CategoryMilestone, "", defs, 12, nil, baseKey)
	if p.Next.Key != badges.KeyFirstCatch || p.Remaining != 0 || p.Percent != 100 {
		t.Errorf("got next %s remaining %d percent %d", p.Next.Key, p.Remaining, p.Percent)
	}

	all := map[string]struct{}{}
	for _, d := range defs {
		all[d.Key] = struct{}{}
	}
	p = project(badges.CategoryMilestone, "", defs, 1200, all, baseKey)
	if p.Next != nil || p.Percent != 100 || p.Held.Key != "collector_1000" {
		t.Errorf("all held: got next %v percent %d", p.Next, p.Percent)
	}
}

func TestPercentOf(t *testing.T) {
	cases := []struct{ part, whole, want int }{
		{0, 100, 0},
		{1, 3, 33},
		{2, 3, 67},
		{5, 0, 0},
		{100, 100, 100},
	}
	for _, c := range cases {
		if got := percentOf(c.part, c.whole); got != c.want {
			t.Errorf("percentOf(%d, %d) = %d, want %d", c.part, c.whole, got, c.want)
		}
	}
}
