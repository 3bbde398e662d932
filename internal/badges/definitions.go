package badges

type Category string

const (
	CategoryCompletion Category = "completion"
	CategoryMilestone  Category = "milestone"
	CategorySpecialist Category = "category_specialist"
	CategoryTarget     Category = "named_target"
	CategoryStreak     Category = "streak"
)

// Categories lists every category in evaluation order.
var Categories = []Category{
	CategoryMilestone,
	CategorySpecialist,
	CategoryTarget,
	CategoryCompletion,
	CategoryStreak,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryCompletion, CategoryMilestone, CategorySpecialist, CategoryTarget, CategoryStreak:
		return true
	}
	return false
}

// Scoped reports whether badges of the category are tied to a tag or target.
func (c Category) Scoped() bool {
	return c == CategorySpecialist || c == CategoryTarget
}

// Definition describes one badge. Threshold is a percentage for completion
// badges, a day count for streak badges and an item count otherwise.
type Definition struct {
	Key         string   `json:"key"`
	Category    Category `json:"category"`
	Threshold   int      `json:"threshold"`
	Scope       string   `json:"scope,omitempty"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Color       string   `json:"color"`
}

const (
	KeyFirstCatch = "first_catch"

	KeyCompletion25  = "completion_25"
	KeyCompletion50  = "completion_50"
	KeyCompletion75  = "completion_75"
	KeyCompletion100 = "completion_100"
)

var milestoneDefinitions = []Definition{
	{Key: KeyFirstCatch, Threshold: 1, DisplayName: "First Catch", Description: "Add your first card", Icon: "🎴", Color: "#9ca3af"},
	{Key: "collector_10", Threshold: 10, DisplayName: "Budding Collector", Description: "Own 10 unique cards", Icon: "🌱", Color: "#22c55e"},
	{Key: "collector_50", Threshold: 50, DisplayName: "Dedicated Collector", Description: "Own 50 unique cards", Icon: "📚", Color: "#3b82f6"},
	{Key: "collector_100", Threshold: 100, DisplayName: "Centurion", Description: "Own 100 unique cards", Icon: "💯", Color: "#8b5cf6"},
	{Key: "collector_250", Threshold: 250, DisplayName: "Archivist", Description: "Own 250 unique cards", Icon: "🗄️", Color: "#f59e0b"},
	{Key: "collector_500", Threshold: 500, DisplayName: "Curator", Description: "Own 500 unique cards", Icon: "🏛️", Color: "#ef4444"},
	{Key: "collector_1000", Threshold: 1000, DisplayName: "Living Legend", Description: "Own 1000 unique cards", Icon: "👑", Color: "#eab308"},
}

var completionDefinitions = []Definition{
	{Key: KeyCompletion25, Threshold: 25, DisplayName: "Set Explorer", Description: "Collect 25% of a set", Icon: "🧭", Color: "#cd7f32"},
	{Key: KeyCompletion50, Threshold: 50, DisplayName: "Set Adventurer", Description: "Collect 50% of a set", Icon: "🗺️", Color: "#c0c0c0"},
	{Key: KeyCompletion75, Threshold: 75, DisplayName: "Set Expert", Description: "Collect 75% of a set", Icon: "🎖️", Color: "#ffd700"},
	{Key: KeyCompletion100, Threshold: 100, DisplayName: "Set Master", Description: "Complete a set", Icon: "🏆", Color: "#b9f2ff"},
}

const specialistThreshold = 20

var energyTypes = []struct {
	tag, name, icon, color string
}{
	{"grass", "Grass", "🍃", "#78c850"},
	{"fire", "Fire", "🔥", "#f08030"},
	{"water", "Water", "💧", "#6890f0"},
	{"lightning", "Lightning", "⚡", "#f8d030"},
	{"psychic", "Psychic", "🔮", "#f85888"},
	{"fighting", "Fighting", "🥊", "#c03028"},
	{"darkness", "Darkness", "🌑", "#705848"},
	{"metal", "Metal", "⚙️", "#b8b8d0"},
	{"dragon", "Dragon", "🐉", "#7038f8"},
	{"fairy", "Fairy", "🧚", "#ee99ac"},
	{"colorless", "Colorless", "⚪", "#a8a878"},
}

func specialistDefinitions() []Definition {
	defs := make([]Definition, 0, len(energyTypes))
	for _, e := range energyTypes {
		defs = append(defs, Definition{
			Key:         e.tag + "_specialist",
			Threshold:   specialistThreshold,
			Scope:       e.tag,
			DisplayName: e.name + " Specialist",
			Description: "Own 20 unique " + e.name + " cards",
			Icon:        e.icon,
			Color:       e.color,
		})
	}
	return defs
}

var targetDefinitions = []Definition{
	{Key: "pikachu_fan", Threshold: 10, Scope: "pikachu", DisplayName: "Pikachu Fan", Description: "Own 10 unique Pikachu cards", Icon: "⚡", Color: "#f8d030"},
	{Key: "charizard_hunter", Threshold: 5, Scope: "charizard", DisplayName: "Charizard Hunter", Description: "Own 5 unique Charizard cards", Icon: "🔥", Color: "#f08030"},
	{Key: "mewtwo_master", Threshold: 5, Scope: "mewtwo", DisplayName: "Mewtwo Master", Description: "Own 5 unique Mewtwo cards", Icon: "🧠", Color: "#a040a0"},
	{Key: "eeveelution_expert", Threshold: 9, Scope: "eeveelutions", DisplayName: "Eeveelution Expert", Description: "Own 9 unique cards of Eevee and its evolutions", Icon: "🦊", Color: "#c68e3f"},
}

var streakDefinitions = []Definition{
	{Key: "streak_3", Threshold: 3, DisplayName: "On a Roll", Description: "Add cards 3 days in a row", Icon: "🔥", Color: "#fb923c"},
	{Key: "streak_7", Threshold: 7, DisplayName: "Weekly Regular", Description: "Add cards 7 days in a row", Icon: "📅", Color: "#f97316"},
	{Key: "streak_14", Threshold: 14, DisplayName: "Fortnight Fanatic", Description: "Add cards 14 days in a row", Icon: "🌟", Color: "#ea580c"},
	{Key: "streak_30", Threshold: 30, DisplayName: "Unstoppable", Description: "Add cards 30 days in a row", Icon: "🚀", Color: "#c2410c"},
}

var defaultTargets = []Target{
	{Name: "pikachu", DisplayName: "Pikachu", Members: []string{"Pikachu"}},
	{Name: "charizard", DisplayName: "Charizard", Members: []string{"Charizard"}},
	{Name: "mewtwo", DisplayName: "Mewtwo", Members: []string{"Mewtwo"}},
	{Name: "eeveelutions", DisplayName: "Eeveelutions", Members: []string{
		"Eevee", "Vaporeon", "Jolteon", "Flareon", "Espeon", "Umbreon", "Leafeon", "Glaceon", "Sylveon",
	}},
}

// DefaultDefinitions returns a fresh copy of the built-in badge list.
func DefaultDefinitions() []Definition {
	var defs []Definition
	defs = append(defs, withCategory(milestoneDefinitions, CategoryMilestone)...)
	defs = append(defs, withCategory(completionDefinitions, CategoryCompletion)...)
	defs = append(defs, withCategory(specialistDefinitions(), CategorySpecialist)...)
	defs = append(defs, withCategory(targetDefinitions, CategoryTarget)...)
	defs = append(defs, withCategory(streakDefinitions, CategoryStreak)...)
	return defs
}

// DefaultTargets returns a fresh copy of the built-in named target table.
func DefaultTargets() []Target {
	out := make([]Target, len(defaultTargets))
	for i, t := range defaultTargets {
		t.Members = append([]string(nil), t.Members...)
		out[i] = t
	}
	return out
}

func withCategory(defs []Definition, c Category) []Definition {
	out := make([]Definition, len(defs))
	for i, d := range defs {
		d.Category = c
		out[i] = d
	}
	return out
}
