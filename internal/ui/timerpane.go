// Package ui provides terminal user interface components for the habits app.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/snagarohit/minimalhabits/internal/config"
	"github.com/snagarohit/minimalhabits/internal/store"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

// TimerPane lists habits with their timer state and handles start/stop.
type TimerPane struct {
	data    store.Dataset
	cursor  int
	focused bool
	width   int
	height  int
	store   *store.Store
	styles  *Styles

	// Key bindings
	keys TimerKeyMap
}

// NewTimerPane creates a new timer pane.
func NewTimerPane(s *store.Store, styles *Styles) *TimerPane {
	return NewTimerPaneWithKeys(s, styles, &config.KeysConfig{})
}

// NewTimerPaneWithKeys creates a new timer pane with custom key bindings.
func NewTimerPaneWithKeys(s *store.Store, styles *Styles, keyCfg *config.KeysConfig) *TimerPane {
	if keyCfg == nil {
		keyCfg = &config.KeysConfig{}
	}
	p := &TimerPane{
		store:  s,
		styles: styles,
		keys:   NewTimerKeyMap(keyCfg),
	}
	p.data.FillDefaults()
	return p
}

// LoadCmd returns a command that reloads the dataset snapshot.
func (p *TimerPane) LoadCmd() tea.Cmd {
	return loadJournalCmd(p.store)
}

// setData installs a fresh snapshot and adjusts cursor bounds.
func (p *TimerPane) setData(data store.Dataset) {
	p.data = data
	if p.cursor >= len(p.data.Habits) {
		p.cursor = max(0, len(p.data.Habits)-1)
	}
}

// SetSize sets the pane dimensions.
func (p *TimerPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetFocused sets whether this pane is focused.
func (p *TimerPane) SetFocused(focused bool) {
	p.focused = focused
}

// IsFocused returns whether this pane is focused.
func (p *TimerPane) IsFocused() bool {
	return p.focused
}

// Running reports whether any timer is currently running.
func (p *TimerPane) Running() bool {
	return len(p.data.ActiveTimers) > 0
}

// RunningHabit returns the name and elapsed time of a running timer for
// the title bar, empty when none runs.
func (p *TimerPane) RunningHabit() (string, time.Duration) {
	if len(p.data.ActiveTimers) == 0 {
		return "", 0
	}
	at := p.data.ActiveTimers[0]
	name := at.HabitID
	if h, ok := p.data.HabitByID(at.HabitID); ok {
		name = h.Name
	}
	return name, p.store.Elapsed(at.HabitID, p.store.Now())
}

// Update handles messages for the timer pane.
func (p *TimerPane) Update(msg tea.Msg) tea.Cmd {
	// Handle async messages first
	switch msg := msg.(type) {
	case journalLoadedMsg:
		p.setData(msg.data)
		return nil

	case timerStartedMsg, timerStoppedMsg:
		// Reload to get updated state
		return p.LoadCmd()
	}

	// Normal mode
	if !p.focused {
		return nil
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		return p.handleMouse(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Down):
			if len(p.data.Habits) > 0 {
				p.cursor = min(p.cursor+1, len(p.data.Habits)-1)
			}

		case key.Matches(msg, p.keys.Up):
			if len(p.data.Habits) > 0 {
				p.cursor = max(p.cursor-1, 0)
			}

		case key.Matches(msg, p.keys.Top):
			p.cursor = 0

		case key.Matches(msg, p.keys.Bottom):
			if len(p.data.Habits) > 0 {
				p.cursor = len(p.data.Habits) - 1
			}

		case key.Matches(msg, p.keys.Toggle):
			if h, ok := p.selectedHabit(); ok {
				if _, running := p.data.TimerForHabit(h.ID); running {
					return stopTimerCmd(p.store, h.ID)
				}
				return startTimerCmd(p.store, h.ID)
			}

		case key.Matches(msg, p.keys.Stop):
			if h, ok := p.selectedHabit(); ok {
				if _, running := p.data.TimerForHabit(h.ID); running {
					return stopTimerCmd(p.store, h.ID)
				}
			}
		}
	}

	return nil
}

// selectedHabit returns the habit under the cursor, if any.
func (p *TimerPane) selectedHabit() (store.Habit, bool) {
	if p.cursor < 0 || p.cursor >= len(p.data.Habits) {
		return store.Habit{}, false
	}
	return p.data.Habits[p.cursor], true
}

// handleMouse processes mouse events for the timer pane.
func (p *TimerPane) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if len(p.data.Habits) == 0 {
		return nil
	}

	// Content starts after title (1) + separator (1) = row 2
	const headerRows = 2

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		p.cursor = max(p.cursor-1, 0)
		return nil

	case tea.MouseButtonWheelDown:
		p.cursor = min(p.cursor+1, len(p.data.Habits)-1)
		return nil

	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return nil
		}

		row := msg.Y - headerRows
		if row < 0 || row >= len(p.data.Habits) {
			return nil
		}
		p.cursor = row

		// Click on the indicator area toggles the timer
		if msg.X < 4 {
			h := p.data.Habits[row]
			if _, running := p.data.TimerForHabit(h.ID); running {
				return stopTimerCmd(p.store, h.ID)
			}
			return startTimerCmd(p.store, h.ID)
		}
	}

	return nil
}

// View renders the timer pane.
func (p *TimerPane) View() string {
	var b strings.Builder

	// Title
	title := p.styles.PaneTitleStyle.Render("⏱️  TIMER")
	b.WriteString(title)
	b.WriteString("\n")

	// Separator
	sepWidth := p.width - 4
	if sepWidth < 10 {
		sepWidth = 30
	}
	b.WriteString(p.styles.StatLabelStyle.Render(strings.Repeat("─", sepWidth)))
	b.WriteString("\n")

	if len(p.data.Habits) == 0 {
		b.WriteString(p.styles.StatLabelStyle.Render("  No habits yet."))
		b.WriteString("\n")
		b.WriteString(p.styles.StatLabelStyle.Render("  Add one in the habits pane."))
		b.WriteString("\n")
	} else {
		now := p.store.Now()
		for i, h := range p.data.Habits {
			_, running := p.data.TimerForHabit(h.ID)

			var indicator string
			if running {
				indicator = p.styles.TimerRunningStyle.Render("▶")
			} else {
				indicator = p.styles.TimerStoppedStyle.Render("■")
			}

			nameWidth := max(8, p.width-22)
			name := runewidth.Truncate(habitLabel(h), nameWidth, "..")

			line := fmt.Sprintf(" %s %s", indicator, name)
			if running {
				elapsed := p.store.Elapsed(h.ID, now)
				line += "  " + p.styles.TimerRunningStyle.Render(formatElapsed(elapsed))
			}

			if i == p.cursor && p.focused {
				line = p.styles.SelectedStyle.Render(line)
			}

			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	// Today's total
	today := p.store.Now().Format("2006-01-02")
	total := 0
	for _, blk := range p.data.TimeBlocks {
		if blk.Date == today {
			total += blk.DurationMinutes
		}
	}
	b.WriteString("\n")
	b.WriteString("  " + p.styles.StatLabelStyle.Render("Today: ") + p.styles.StatValueStyle.Render(formatMinutes(total)))
	b.WriteString("\n")

	// Apply pane style
	content := b.String()
	style := p.styles.PaneStyle
	if p.focused {
		style = p.styles.PaneFocusedStyle
	}

	return style.Width(p.width).Height(p.height).Render(content)
}

// habitLabel joins icon and name for display.
func habitLabel(h store.Habit) string {
	if h.Icon != "" {
		return h.Icon + " " + h.Name
	}
	return h.Name
}

// formatElapsed formats a running duration as HH:MM:SS.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
