package badges

import "strings"

// Target is a named-target badge scope. A single-member target matches one
// card name; a multi-member target matches any name in its list.
type Target struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Members     []string `json:"members"`
}

// Matches reports whether cardName counts toward t. A name matches a member
// when it equals it or starts with the member followed by a space, so
// "Pikachu V" and "Pikachu ex" count but "Pikachuu" does not. Comparison is
// case-insensitive.
func (t Target) Matches(cardName string) bool {
	name := strings.ToLower(cardName)
	for _, m := range t.Members {
		m = strings.ToLower(m)
		if name == m || strings.HasPrefix(name, m+" ") {
			return true
		}
	}
	return false
}
