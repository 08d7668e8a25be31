package reports

import (
	"fmt"
	"strings"
)

// FormatDailyMarkdown formats a daily report as human-readable Markdown.
func FormatDailyMarkdown(report *DailyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Report - %s\n\n", report.Date.Format("Monday, January 2, 2006"))

	b.WriteString("## Time\n\n")
	if report.Time.TotalMinutes == 0 {
		b.WriteString("No time tracked.\n\n")
	} else {
		fmt.Fprintf(&b, "Total: **%s**\n\n", formatMinutes(report.Time.TotalMinutes))
		for _, ht := range report.Time.ByHabit {
			fmt.Fprintf(&b, "- %s: %s (%.0f%%)\n", habitLabel(ht.Icon, ht.Name), formatMinutes(ht.Minutes), ht.Percentage)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Habits\n\n")
	if report.Habits.TotalCount == 0 {
		b.WriteString("No habits yet.\n")
	} else {
		fmt.Fprintf(&b, "%d/%d done (%.0f%%)\n\n",
			report.Habits.CompletedCount, report.Habits.TotalCount, report.Habits.CompletionRate)
		for _, h := range report.Habits.Habits {
			mark := "[ ]"
			if h.Done {
				mark = "[x]"
			}
			fmt.Fprintf(&b, "- %s %s", mark, habitLabel(h.Icon, h.Name))
			if h.Streak > 1 {
				fmt.Fprintf(&b, " (%d day streak)", h.Streak)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// FormatWeeklyMarkdown formats a weekly report as human-readable Markdown.
func FormatWeeklyMarkdown(report *WeeklyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Weekly Report - %s to %s\n\n",
		report.StartDate.Format("Jan 2"), report.EndDate.Format("Jan 2, 2006"))

	b.WriteString("## Time\n\n")
	if report.Time.TotalMinutes == 0 {
		b.WriteString("No time tracked.\n\n")
	} else {
		fmt.Fprintf(&b, "Total: **%s** (avg %s/day)\n\n",
			formatMinutes(report.Time.TotalMinutes), formatMinutes(report.Time.DailyAverageMinutes))
		for _, ht := range report.Time.ByHabit {
			fmt.Fprintf(&b, "- %s: %s (%.0f%%)\n", habitLabel(ht.Icon, ht.Name), formatMinutes(ht.Minutes), ht.Percentage)
		}
		b.WriteString("\n")
		b.WriteString("| Day | Time |\n|-----|------|\n")
		for _, d := range report.Time.ByDay {
			fmt.Fprintf(&b, "| %s %s | %s |\n", d.DayOfWeek, d.Date, formatMinutes(d.Minutes))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Habits\n\n")
	if len(report.Habits.Habits) == 0 {
		b.WriteString("No habits yet.\n")
	} else {
		fmt.Fprintf(&b, "%d/%d done (%.0f%%)\n\n",
			report.Habits.TotalCompleted, report.Habits.TotalExpected, report.Habits.OverallRate)
		b.WriteString("| Habit | S M T W T F S | Rate | Streak |\n")
		b.WriteString("|-------|---------------|------|--------|\n")
		for _, h := range report.Habits.Habits {
			marks := make([]string, 7)
			for i, done := range h.DaysCompleted {
				if done {
					marks[i] = "x"
				} else {
					marks[i] = "."
				}
			}
			fmt.Fprintf(&b, "| %s | %s | %.0f%% | %d |\n",
				habitLabel(h.Icon, h.Name), strings.Join(marks, " "), h.CompletionRate, h.Streak)
		}
	}

	return b.String()
}

func habitLabel(icon, name string) string {
	if icon == "" {
		return name
	}
	return icon + " " + name
}

// formatMinutes renders minutes as "2h 15m", "45m", or "3h".
func formatMinutes(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
