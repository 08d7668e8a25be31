package store

import (
	"fmt"
	"sort"
	"time"
)

// Timer lifecycle constants. The grace window and quantum are fixed at 15
// minutes; they are named here rather than buried in the arithmetic.
const (
	// ResumeGraceMinutes is the gap within which a newly started timer is
	// treated as a continuation of a just-ended block: the block is
	// absorbed and the timer's effective start moves back to cover it.
	ResumeGraceMinutes = 15

	// TimerQuantumMinutes is the rounding quantum for stopped timers. The
	// elapsed time is rounded up to the next quantum, with one quantum as
	// the minimum, so even a few seconds of timing produce a visible block.
	TimerQuantumMinutes = 15
)

// StartTimer starts (or adopts) the running timer for a habit.
//
// One timer per habit: if one is already running, the earlier wall-clock
// start wins and the other request is discarded silently, because a
// duplicate start is an expected condition, not an error.
//
// Resume: blocks of the same habit/day whose end lies within the grace
// window of the requested start are absorbed into the timer, and the
// timer's effective start becomes the earliest start among the request and
// everything absorbed. Stopping and restarting within the window therefore
// reads as one continuous run.
func (s *Store) StartTimer(habitID, date, start string, now time.Time) (*ActiveTimer, error) {
	if !ValidDate(date) {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	startMin, err := parseClock(start)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	habit, ok := s.data.HabitByID(habitID)
	if !ok {
		return nil, fmt.Errorf("habit not found: %s", habitID)
	}

	timer := ActiveTimer{HabitID: habitID, Date: date, Start: start, StartedAt: now}
	if existing, ok := s.data.TimerForHabit(habitID); ok {
		if !now.Before(existing.StartedAt) {
			// The running timer started earlier (or at the same instant):
			// it wins, nothing changes.
			return &existing, nil
		}
		// The new request predates the stored timer: replace its fields
		// but continue below so the grace scan runs against the new start.
		timer.ID = existing.ID
		s.removeTimerLocked(habitID)
	}

	if timer.ID == "" {
		id, err := newID("t")
		if err != nil {
			return nil, err
		}
		timer.ID = id
	}

	// Grace scan: absorb recently-ended blocks of the same habit/day.
	effective := startMin
	kept := s.data.TimeBlocks[:0]
	for _, b := range s.data.TimeBlocks {
		if b.HabitID == habitID && b.Date == date && b.EndMinute() >= startMin-ResumeGraceMinutes {
			if b.StartMinute() < effective {
				effective = b.StartMinute()
			}
			continue
		}
		kept = append(kept, b)
	}
	s.data.TimeBlocks = kept
	timer.Start = Clock(effective)

	s.data.ActiveTimers = append(s.data.ActiveTimers, timer)
	if err := s.persistLocked(SaveContext{Operation: "start-timer", ItemType: "timer", ItemName: habit.Name}); err != nil {
		return nil, err
	}
	return &timer, nil
}

// StopTimer stops the habit's running timer and converts it into a time
// block through the incremental merge. The duration is the wall-clock
// elapsed time rounded up to the timer quantum, never less than one
// quantum. Stopping a habit with no running timer is a no-op.
func (s *Store) StopTimer(habitID string, now time.Time) (*TimeBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.data.TimerForHabit(habitID)
	if !ok {
		return nil, nil
	}
	s.removeTimerLocked(habitID)

	habit, ok := s.data.HabitByID(habitID)
	if !ok {
		// Habit deleted while the timer ran: discard the orphan quietly.
		return nil, s.persistLocked(SaveContext{Operation: "discard-timer", ItemType: "timer"})
	}

	duration := quantize(now.Sub(timer.StartedAt))
	id, err := newID("b")
	if err != nil {
		return nil, err
	}
	nb := TimeBlock{
		ID:              id,
		HabitID:         habitID,
		Date:            timer.Date,
		Start:           timer.Start,
		DurationMinutes: duration,
	}
	s.data.TimeBlocks = MergeInsert(s.data.TimeBlocks, nb)

	if err := s.persistLocked(SaveContext{Operation: "stop-timer", ItemType: "timer", ItemName: habit.Name}); err != nil {
		return nil, err
	}
	stored, _ := s.blockByIDLocked(id)
	return &stored, nil
}

// Elapsed returns the habit timer's running duration at the given instant,
// zero if no timer runs. Read-only: display ticks derive from this and
// never touch stored blocks.
func (s *Store) Elapsed(habitID string, now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer, ok := s.data.TimerForHabit(habitID)
	if !ok {
		return 0
	}
	if now.Before(timer.StartedAt) {
		return 0
	}
	return now.Sub(timer.StartedAt)
}

// HasRunningTimer reports whether any timer is running.
func (s *Store) HasRunningTimer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.ActiveTimers) > 0
}

func (s *Store) removeTimerLocked(habitID string) {
	out := s.data.ActiveTimers[:0]
	for _, at := range s.data.ActiveTimers {
		if at.HabitID != habitID {
			out = append(out, at)
		}
	}
	s.data.ActiveTimers = out
}

// quantize converts an elapsed duration to block minutes: rounded up to
// the next quantum, minimum one quantum.
func quantize(elapsed time.Duration) int {
	if elapsed < 0 {
		elapsed = 0
	}
	quantum := time.Duration(TimerQuantumMinutes) * time.Minute
	n := (elapsed + quantum - 1) / quantum
	if n < 1 {
		n = 1
	}
	return int(n) * TimerQuantumMinutes
}

// DedupTimers enforces the one-timer-per-habit invariant on raw input: the
// earlier StartedAt wins, ties broken by ID. Used on load and by the
// reconciliation engine.
func DedupTimers(timers []ActiveTimer) []ActiveTimer {
	byHabit := make(map[string]ActiveTimer, len(timers))
	for _, at := range timers {
		cur, ok := byHabit[at.HabitID]
		if !ok {
			byHabit[at.HabitID] = at
			continue
		}
		if at.StartedAt.Before(cur.StartedAt) ||
			(at.StartedAt.Equal(cur.StartedAt) && at.ID < cur.ID) {
			byHabit[at.HabitID] = at
		}
	}
	out := make([]ActiveTimer, 0, len(byHabit))
	for _, at := range byHabit {
		out = append(out, at)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HabitID < out[j].HabitID })
	return out
}
