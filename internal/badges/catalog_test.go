package badges

import "testing"

func TestDefault_KeysUnique(t *testing.T) {
	c := Default()
	keys := c.AllKeys()
	if len(keys) != len(DefaultDefinitions()) {
		t.Errorf("AllKeys() has %d keys, want %d", len(keys), len(DefaultDefinitions()))
	}
	if _, ok := keys[KeyFirstCatch]; !ok {
		t.Errorf("AllKeys() missing %q", KeyFirstCatch)
	}
}

func TestByCategory_OrderedByThreshold(t *testing.T) {
	c := Default()
	for _, cat := range Categories {
		defs := c.ByCategory(cat)
		if len(defs) == 0 {
			t.Errorf("ByCategory(%s) is empty", cat)
			continue
		}
		for i := 1; i < len(defs); i++ {
			if defs[i].Threshold < defs[i-1].Threshold {
				t.Errorf("ByCategory(%s) not ordered: %d before %d", cat, defs[i-1].Threshold, defs[i].Threshold)
			}
		}
		for _, d := range defs {
			if d.Category != cat {
				t.Errorf("%s has category %s, want %s", d.Key, d.Category, cat)
			}
		}
	}
}

func TestByCategory_ReturnsCopy(t *testing.T) {
	c := Default()
	defs := c.ByCategory(CategoryMilestone)
	defs[0].Threshold = 999
	if c.ByCategory(CategoryMilestone)[0].Threshold != 1 {
		t.Error("mutating the returned slice changed the catalog")
	}
}

func TestMilestoneThresholds(t *testing.T) {
	want := []int{1, 10, 50, 100, 250, 500, 1000}
	defs := Default().ByCategory(CategoryMilestone)
	if len(defs) != len(want) {
		t.Fatalf("got %d milestones, want %d", len(defs), len(want))
	}
	for i, d := range defs {
		if d.Threshold != want[i] {
			t.Errorf("milestone %d threshold = %d, want %d", i, d.Threshold, want[i])
		}
	}
}

func TestByKey(t *testing.T) {
	c := Default()

	d, ok := c.ByKey("collector_50")
	if !ok || d.Threshold != 50 {
		t.Errorf("ByKey(collector_50) = %+v, %v", d, ok)
	}

	d, ok = c.ByKey("sv1_completion_50")
	if !ok || d.Key != KeyCompletion50 {
		t.Errorf("ByKey(sv1_completion_50) = %+v, %v, want base %s", d, ok, KeyCompletion50)
	}

	if _, ok := c.ByKey("no_such_badge"); ok {
		t.Error("ByKey(no_such_badge) should not be found")
	}
	if _, ok := c.ByKey("_completion_50"); ok {
		t.Error("ByKey(_completion_50) needs a set id")
	}
}

func TestParseCompletionKey(t *testing.T) {
	c := Default()
	setID, d, ok := c.ParseCompletionKey(CompletionKey("swsh12_5", KeyCompletion100))
	if !ok {
		t.Fatal("ParseCompletionKey() not ok")
	}
	if setID != "swsh12_5" {
		t.Errorf("setID = %q, want %q", setID, "swsh12_5")
	}
	if d.Key != KeyCompletion100 {
		t.Errorf("base = %q, want %q", d.Key, KeyCompletion100)
	}
}

func TestByScope(t *testing.T) {
	c := Default()
	defs := c.ByScope(CategorySpecialist, "fire")
	if len(defs) != 1 || defs[0].Key != "fire_specialist" {
		t.Errorf("ByScope(fire) = %+v", defs)
	}
	if got := c.ByScope(CategorySpecialist, "cosmic"); len(got) != 0 {
		t.Errorf("ByScope(cosmic) = %+v, want empty", got)
	}
}

func TestScopes(t *testing.T) {
	scopes := Default().Scopes(CategoryTarget)
	want := []string{"charizard", "eeveelutions", "mewtwo", "pikachu"}
	if len(scopes) != len(want) {
		t.Fatalf("Scopes() = %v, want %v", scopes, want)
	}
	for i := range want {
		if scopes[i] != want[i] {
			t.Errorf("Scopes()[%d] = %q, want %q", i, scopes[i], want[i])
		}
	}
}

func TestMaxThreshold(t *testing.T) {
	if got := Default().MaxThreshold(CategoryStreak); got != 30 {
		t.Errorf("MaxThreshold(streak) = %d, want 30", got)
	}
}

func TestNewCatalog_Rejects(t *testing.T) {
	targets := DefaultTargets()
	cases := []struct {
		name string
		defs []Definition
	}{
		{"duplicate", []Definition{
			{Key: "a", Category: CategoryMilestone, Threshold: 1},
			{Key: "a", Category: CategoryMilestone, Threshold: 2},
		}},
		{"zero threshold", []Definition{{Key: "a", Category: CategoryMilestone}}},
		{"bad category", []Definition{{Key: "a", Category: "nope", Threshold: 1}}},
		{"completion over 100", []Definition{{Key: "a", Category: CategoryCompletion, Threshold: 101}}},
		{"specialist without scope", []Definition{{Key: "a", Category: CategorySpecialist, Threshold: 1}}},
		{"unknown target", []Definition{{Key: "a", Category: CategoryTarget, Threshold: 1, Scope: "missingno"}}},
	}
	for _, c := range cases {
		if _, err := NewCatalog(c.defs, targets); err == nil {
			t.Errorf("%s: NewCatalog() error = nil, want error", c.name)
		}
	}
}
