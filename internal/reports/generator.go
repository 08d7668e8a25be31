// Package reports provides daily and weekly report generation for the habits app.
package reports

import (
	"sort"
	"time"

	"github.com/snagarohit/minimalhabits/internal/store"
)

// streakScanLimit bounds the back-walk so a pathological dataset cannot
// loop for years.
const streakScanLimit = 3660

// Generator creates reports from a journal snapshot.
type Generator struct {
	store *store.Store
}

// NewGenerator creates a new report generator.
func NewGenerator(st *store.Store) *Generator {
	return &Generator{store: st}
}

// GenerateDaily generates a report for a specific date.
func (g *Generator) GenerateDaily(date time.Time) (*DailyReport, error) {
	date = startOfDay(date)
	data := g.store.Snapshot()

	return &DailyReport{
		Date:        date,
		Time:        timeSummary(data, date, g.store.Now()),
		Habits:      habitSummary(data, date),
		GeneratedAt: g.store.Now(),
	}, nil
}

// GenerateWeekly generates a report for the week containing the given date.
func (g *Generator) GenerateWeekly(date time.Time) (*WeeklyReport, error) {
	// Align to start of week (Sunday)
	start := startOfWeekSunday(date)
	data := g.store.Snapshot()
	now := g.store.Now()

	weeklyTime := WeeklyTime{ByDay: make([]DayTime, 7)}
	habitMinutes := map[string]int{}
	breakdown := make([]DailySummary, 0, 7)

	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		daySummary := timeSummary(data, day, now)
		habits := habitSummary(data, day)

		weeklyTime.TotalMinutes += daySummary.TotalMinutes
		weeklyTime.ByDay[i] = DayTime{
			Date:      day.Format("2006-01-02"),
			DayOfWeek: day.Format("Mon"),
			Minutes:   daySummary.TotalMinutes,
		}
		for _, ht := range daySummary.ByHabit {
			habitMinutes[ht.HabitID] += ht.Minutes
		}

		breakdown = append(breakdown, DailySummary{
			Date:           day.Format("2006-01-02"),
			DayOfWeek:      day.Format("Mon"),
			Minutes:        daySummary.TotalMinutes,
			HabitsComplete: habits.CompletedCount,
			HabitsTotal:    habits.TotalCount,
		})
	}

	weeklyTime.ByHabit = habitTimes(data, habitMinutes, weeklyTime.TotalMinutes)
	if weeklyTime.TotalMinutes > 0 {
		weeklyTime.DailyAverageMinutes = weeklyTime.TotalMinutes / 7
	}

	return &WeeklyReport{
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, 7).Add(-time.Nanosecond),
		Time:           weeklyTime,
		Habits:         weeklyHabits(data, start),
		DailyBreakdown: breakdown,
		GeneratedAt:    now,
	}, nil
}

// timeSummary totals tracked minutes on one day, including the live
// portion of any running timer.
func timeSummary(data store.Dataset, day time.Time, now time.Time) TimeSummary {
	date := day.Format("2006-01-02")
	habitMinutes := map[string]int{}
	total := 0

	for _, b := range data.TimeBlocks {
		if b.Date != date {
			continue
		}
		habitMinutes[b.HabitID] += b.DurationMinutes
		total += b.DurationMinutes
	}

	for _, t := range data.ActiveTimers {
		if t.Date != date || now.Before(t.StartedAt) {
			continue
		}
		minutes := int(now.Sub(t.StartedAt) / time.Minute)
		habitMinutes[t.HabitID] += minutes
		total += minutes
	}

	return TimeSummary{
		TotalMinutes: total,
		ByHabit:      habitTimes(data, habitMinutes, total),
	}
}

// habitTimes converts a habitID->minutes map into a slice sorted by
// minutes descending, resolving names from the dataset.
func habitTimes(data store.Dataset, minutes map[string]int, total int) []HabitTime {
	out := make([]HabitTime, 0, len(minutes))
	for id, m := range minutes {
		if m == 0 {
			continue
		}
		ht := HabitTime{HabitID: id, Name: id, Minutes: m}
		if h, ok := data.HabitByID(id); ok {
			ht.Name = h.Name
			ht.Icon = h.Icon
		}
		if total > 0 {
			ht.Percentage = float64(m) / float64(total) * 100
		}
		out = append(out, ht)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func habitSummary(data store.Dataset, day time.Time) HabitSummary {
	date := day.Format("2006-01-02")
	var statuses []HabitStatus
	completedCount := 0

	for _, h := range data.Habits {
		done := data.IsDone(h.ID, date)
		if done {
			completedCount++
		}
		statuses = append(statuses, HabitStatus{
			ID:     h.ID,
			Name:   h.Name,
			Icon:   h.Icon,
			Done:   done,
			Streak: Streak(data, h.ID, day),
		})
	}

	rate := 0.0
	if len(statuses) > 0 {
		rate = float64(completedCount) / float64(len(statuses)) * 100
	}

	return HabitSummary{
		Habits:         statuses,
		CompletedCount: completedCount,
		TotalCount:     len(statuses),
		CompletionRate: rate,
	}
}

func weeklyHabits(data store.Dataset, start time.Time) WeeklyHabits {
	var statuses []WeeklyHabitStatus
	totalCompleted := 0
	totalExpected := 0
	weekEnd := start.AddDate(0, 0, 6)

	for _, h := range data.Habits {
		days := make([]bool, 7)
		completed := 0
		for i := 0; i < 7; i++ {
			day := start.AddDate(0, 0, i)
			if data.IsDone(h.ID, day.Format("2006-01-02")) {
				days[i] = true
				completed++
			}
		}

		totalCompleted += completed
		totalExpected += 7

		statuses = append(statuses, WeeklyHabitStatus{
			ID:             h.ID,
			Name:           h.Name,
			Icon:           h.Icon,
			DaysCompleted:  days,
			CompletedCount: completed,
			CompletionRate: float64(completed) / 7 * 100,
			Streak:         Streak(data, h.ID, weekEnd),
		})
	}

	overallRate := 0.0
	if totalExpected > 0 {
		overallRate = float64(totalCompleted) / float64(totalExpected) * 100
	}

	return WeeklyHabits{
		Habits:         statuses,
		OverallRate:    overallRate,
		TotalCompleted: totalCompleted,
		TotalExpected:  totalExpected,
	}
}

// Streak counts consecutive done days for a habit ending at date. A miss
// on the date itself doesn't break a streak still alive through yesterday.
func Streak(data store.Dataset, habitID string, date time.Time) int {
	day := startOfDay(date)
	if !data.IsDone(habitID, day.Format("2006-01-02")) {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for i := 0; i < streakScanLimit; i++ {
		if !data.IsDone(habitID, day.Format("2006-01-02")) {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// startOfDay returns the start of the day (midnight).
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeekSunday returns the start of the week (Sunday).
func startOfWeekSunday(t time.Time) time.Time {
	t = startOfDay(t)
	return t.AddDate(0, 0, -int(t.Weekday()))
}
