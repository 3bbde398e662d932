package streak

// DefaultWindowDays is the lookback used when the caller does not pick one.
const DefaultWindowDays = 30

// Day is one cell of the streak calendar.
type Day struct {
	Date           Date `json:"date"`
	HasActivity    bool `json:"has_activity"`
	IsGraceDay     bool `json:"is_grace_day"`
	IsPartOfStreak bool `json:"is_part_of_streak"`
	IsToday        bool `json:"is_today"`
}

// Calendar is the per-day view of a lookback window plus its aggregates.
// Days are ordered oldest first and the last entry is today.
type Calendar struct {
	Days              []Day `json:"days"`
	CurrentStreakDays int   `json:"current_streak_days"`
	LongestStreakDays int   `json:"longest_streak_days"`
	ActiveDays        int   `json:"active_days"`
	GraceDaysUsed     int   `json:"grace_days_used"`
	// ReachesWindowStart reports that the current streak runs into the oldest
	// day of the window, so it may continue further back than we looked.
	ReachesWindowStart bool `json:"reaches_window_start"`
}

type Input struct {
	Active     DateSet
	Grace      []GraceDayUsage
	WindowDays int
	Today      Date
}

// Compute builds the calendar for a window ending at in.Today. It only
// reports existing grace-day usages; it never decides to create one.
func Compute(in Input) Calendar {
	n := in.WindowDays
	if n <= 0 {
		n = DefaultWindowDays
	}

	protected := make(DateSet, len(in.Grace))
	for _, g := range in.Grace {
		protected.Add(g.ProtectedDate)
	}

	start := in.Today.AddDays(-(n - 1))
	cal := Calendar{Days: make([]Day, n)}
	for i := range cal.Days {
		d := start.AddDays(i)
		day := Day{
			Date:        d,
			HasActivity: in.Active.Has(d),
			IsGraceDay:  protected.Has(d),
			IsToday:     d == in.Today,
		}
		if day.HasActivity {
			cal.ActiveDays++
		}
		if day.IsGraceDay {
			cal.GraceDaysUsed++
		}
		cal.Days[i] = day
	}

	for i := n - 1; i >= 0; i-- {
		day := &cal.Days[i]
		if !covered(*day) {
			// Today may still get activity; it only ends the walk when it is
			// the whole window.
			if day.IsToday && n > 1 {
				continue
			}
			break
		}
		day.IsPartOfStreak = true
		cal.CurrentStreakDays++
		if i == 0 {
			cal.ReachesWindowStart = true
		}
	}

	run := 0
	for _, day := range cal.Days {
		if !covered(day) {
			run = 0
			continue
		}
		run++
		if run > cal.LongestStreakDays {
			cal.LongestStreakDays = run
		}
	}

	return cal
}

// CurrentStreak is a shortcut for Compute(in).CurrentStreakDays.
func CurrentStreak(in Input) int {
	return Compute(in).CurrentStreakDays
}

func covered(d Day) bool {
	return d.HasActivity || d.IsGraceDay
}
