// Package reports provides daily and weekly report generation for the habits app.
// Reports aggregate data from completions and tracked time blocks.
package reports

import (
	"time"
)

// DailyReport contains aggregated data for a single day.
type DailyReport struct {
	Date        time.Time    `json:"date"`
	Time        TimeSummary  `json:"time"`
	Habits      HabitSummary `json:"habits"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// WeeklyReport contains aggregated data for a week.
type WeeklyReport struct {
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
	Time           WeeklyTime     `json:"time"`
	Habits         WeeklyHabits   `json:"habits"`
	DailyBreakdown []DailySummary `json:"daily_breakdown"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// TimeSummary contains tracked-time statistics for a period.
type TimeSummary struct {
	TotalMinutes int         `json:"total_minutes"`
	ByHabit      []HabitTime `json:"by_habit"`
}

// HabitTime represents time tracked for a specific habit.
type HabitTime struct {
	HabitID    string  `json:"habit_id"`
	Name       string  `json:"name"`
	Icon       string  `json:"icon,omitempty"`
	Minutes    int     `json:"minutes"`
	Percentage float64 `json:"percentage"`
}

// HabitSummary contains habit statistics for a single day.
type HabitSummary struct {
	Habits         []HabitStatus `json:"habits"`
	CompletedCount int           `json:"completed_count"`
	TotalCount     int           `json:"total_count"`
	CompletionRate float64       `json:"completion_rate"`
}

// HabitStatus represents a habit and its completion status.
type HabitStatus struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon,omitempty"`
	Done   bool   `json:"done"`
	Streak int    `json:"streak"`
}

// WeeklyTime contains tracked-time statistics for a week.
type WeeklyTime struct {
	TotalMinutes        int         `json:"total_minutes"`
	DailyAverageMinutes int         `json:"daily_average_minutes"`
	ByHabit             []HabitTime `json:"by_habit"`
	ByDay               []DayTime   `json:"by_day"`
}

// DayTime represents time tracked on a specific day.
type DayTime struct {
	Date      string `json:"date"`
	DayOfWeek string `json:"day_of_week"`
	Minutes   int    `json:"minutes"`
}

// WeeklyHabits contains habit statistics for a week.
type WeeklyHabits struct {
	Habits         []WeeklyHabitStatus `json:"habits"`
	OverallRate    float64             `json:"overall_rate"`
	TotalCompleted int                 `json:"total_completed"`
	TotalExpected  int                 `json:"total_expected"`
}

// WeeklyHabitStatus represents a habit's completion over a week.
type WeeklyHabitStatus struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Icon           string  `json:"icon,omitempty"`
	DaysCompleted  []bool  `json:"days_completed"` // 7 bools, Sunday first
	CompletedCount int     `json:"completed_count"`
	CompletionRate float64 `json:"completion_rate"`
	Streak         int     `json:"streak"`
}

// DailySummary provides a quick overview of a single day within a week.
type DailySummary struct {
	Date           string `json:"date"`
	DayOfWeek      string `json:"day_of_week"`
	Minutes        int    `json:"minutes"`
	HabitsComplete int    `json:"habits_complete"`
	HabitsTotal    int    `json:"habits_total"`
}
