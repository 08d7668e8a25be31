package store

import (
	"fmt"
	"time"
)

// Group is a display grouping of habits.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Habit is a trackable activity. Blocks, completions and timers all hang
// off its ID.
type Habit struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	GroupID   string    `json:"group_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Completion is a binary mark for a habit on a date. Value 0 means cleared;
// any positive value means done. A habit/date pair also counts as done when
// at least one TimeBlock exists for it, independent of the Completion.
type Completion struct {
	HabitID string `json:"habit_id"`
	Date    string `json:"date"` // YYYY-MM-DD
	Value   int    `json:"value"`
}

// TimeBlock is a stored interval of activity for one habit on one logical
// day. Date is the day the block belongs to, independent of whether the
// span crosses midnight on screen. Start has minute precision.
//
// Stored blocks obey the no-overlap invariant: for a fixed (HabitID, Date)
// no two blocks overlap or touch; anything that would is merged before it
// is considered stored.
type TimeBlock struct {
	ID              string `json:"id"`
	HabitID         string `json:"habit_id"`
	Date            string `json:"date"`  // YYYY-MM-DD
	Start           string `json:"start"` // HH:MM
	DurationMinutes int    `json:"duration_minutes"`
}

// StartMinute returns the block's start as minutes from midnight.
func (b TimeBlock) StartMinute() int {
	m, _ := parseClock(b.Start)
	return m
}

// EndMinute returns the block's exclusive end as minutes from midnight.
// It may exceed 24*60 for a block that runs past midnight; the block still
// belongs to its logical Date.
func (b TimeBlock) EndMinute() int {
	return b.StartMinute() + b.DurationMinutes
}

// ActiveTimer is a live, running interval not yet converted to a TimeBlock.
// At most one exists per habit across in-memory and persisted state; when
// two would coexist the earlier StartedAt wins.
type ActiveTimer struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habit_id"`
	Date      string    `json:"date"`  // YYYY-MM-DD
	Start     string    `json:"start"` // HH:MM, effective start on the day
	StartedAt time.Time `json:"started_at"`
}

// Dataset is the full snapshot: the unit persisted locally, exchanged with
// the remote store, and reconciled between the two.
type Dataset struct {
	Habits       []Habit       `json:"habits"`
	Groups       []Group       `json:"groups"`
	Completions  []Completion  `json:"completions"`
	TimeBlocks   []TimeBlock   `json:"time_blocks"`
	ActiveTimers []ActiveTimer `json:"active_timers"`
}

// FillDefaults replaces nil collections with empty ones. Older snapshots
// may omit fields entirely; tolerating that here keeps `?? []`-style checks
// out of the engine code.
func (d *Dataset) FillDefaults() {
	if d.Habits == nil {
		d.Habits = []Habit{}
	}
	if d.Groups == nil {
		d.Groups = []Group{}
	}
	if d.Completions == nil {
		d.Completions = []Completion{}
	}
	if d.TimeBlocks == nil {
		d.TimeBlocks = []TimeBlock{}
	}
	if d.ActiveTimers == nil {
		d.ActiveTimers = []ActiveTimer{}
	}
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() Dataset {
	out := Dataset{
		Habits:       append([]Habit(nil), d.Habits...),
		Groups:       append([]Group(nil), d.Groups...),
		Completions:  append([]Completion(nil), d.Completions...),
		TimeBlocks:   append([]TimeBlock(nil), d.TimeBlocks...),
		ActiveTimers: append([]ActiveTimer(nil), d.ActiveTimers...),
	}
	out.FillDefaults()
	return out
}

// HabitByID returns the habit with the given ID, if present.
func (d *Dataset) HabitByID(id string) (Habit, bool) {
	for _, h := range d.Habits {
		if h.ID == id {
			return h, true
		}
	}
	return Habit{}, false
}

// TimerForHabit returns the running timer for a habit, if any.
func (d *Dataset) TimerForHabit(habitID string) (ActiveTimer, bool) {
	for _, at := range d.ActiveTimers {
		if at.HabitID == habitID {
			return at, true
		}
	}
	return ActiveTimer{}, false
}

// BlocksOn returns the blocks for one habit on one date, in stored order.
func (d *Dataset) BlocksOn(habitID, date string) []TimeBlock {
	var out []TimeBlock
	for _, b := range d.TimeBlocks {
		if b.HabitID == habitID && b.Date == date {
			out = append(out, b)
		}
	}
	return out
}

// CompletionValue returns the completion value for a habit/date, 0 if none.
func (d *Dataset) CompletionValue(habitID, date string) int {
	for _, c := range d.Completions {
		if c.HabitID == habitID && c.Date == date {
			return c.Value
		}
	}
	return 0
}

// IsDone reports whether a habit/date pair counts as complete: a positive
// completion mark or at least one time block.
func (d *Dataset) IsDone(habitID, date string) bool {
	if d.CompletionValue(habitID, date) > 0 {
		return true
	}
	for _, b := range d.TimeBlocks {
		if b.HabitID == habitID && b.Date == date {
			return true
		}
	}
	return false
}

// parseClock parses "HH:MM" into minutes from midnight. Unpadded fields
// ("9:05") are accepted; anything beyond the two fields is rejected.
// Callers that store the value re-format it through Clock so journals
// only ever carry the canonical zero-padded form.
func parseClock(s string) (int, error) {
	var h, m int
	var rest string
	if n, _ := fmt.Sscanf(s, "%d:%d%s", &h, &m, &rest); n != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return h*60 + m, nil
}

// Clock formats minutes from midnight as "HH:MM", wrapping past midnight.
func Clock(minute int) string {
	minute %= 24 * 60
	if minute < 0 {
		minute += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
