package badges

import "testing"

func TestTarget_Matches(t *testing.T) {
	pikachu, _ := Default().Target("pikachu")

	cases := map[string]bool{
		"Pikachu":            true,
		"pikachu":            true,
		"PIKACHU V":          true,
		"Pikachu ex":         true,
		"Pikachu VMAX":       true,
		"Pikachu & Zekrom":   true,
		"Pikachuu":           false,
		"Pikachu-GX":         false, // different separator is not a match
		"Flying Pikachu":     false,
		"Raichu":             false,
		"":                   false,
	}
	for name, want := range cases {
		if got := pikachu.Matches(name); got != want {
			t.Errorf("pikachu.Matches(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestTarget_CategoryMatch(t *testing.T) {
	eevee, ok := Default().Target("eeveelutions")
	if !ok {
		t.Fatal("eeveelutions target missing")
	}
	for _, name := range []string{"Eevee", "Umbreon VMAX", "sylveon ex", "Glaceon"} {
		if !eevee.Matches(name) {
			t.Errorf("eeveelutions.Matches(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"Eeveeon", "Pikachu", "Espeonite"} {
		if eevee.Matches(name) {
			t.Errorf("eeveelutions.Matches(%q) = true, want false", name)
		}
	}
}
