// Package ui provides terminal user interface components for the habits app.
package ui

import (
	"fmt"
	"strings"

	"github.com/snagarohit/minimalhabits/internal/config"
	"github.com/snagarohit/minimalhabits/internal/store"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

// habitStreakLimit bounds the streak back-walk.
const habitStreakLimit = 3660

// HabitsPane handles habit tracking display and interactions.
type HabitsPane struct {
	data    store.Dataset
	cursor  int
	focused bool
	width   int
	height  int
	adding  bool
	addStep int // 0 = name, 1 = icon
	input   textinput.Model
	newName string
	store   *store.Store
	styles  *Styles

	// Key bindings
	keys      HabitKeyMap
	inputKeys InputKeyMap
}

// NewHabitsPane creates a new habits pane.
func NewHabitsPane(s *store.Store, styles *Styles) *HabitsPane {
	return NewHabitsPaneWithKeys(s, styles, &config.KeysConfig{})
}

// NewHabitsPaneWithKeys creates a new habits pane with custom key bindings.
func NewHabitsPaneWithKeys(s *store.Store, styles *Styles, keyCfg *config.KeysConfig) *HabitsPane {
	if keyCfg == nil {
		keyCfg = &config.KeysConfig{}
	}
	ti := textinput.New()
	ti.Placeholder = "Habit name (e.g., Exercise)"
	ti.CharLimit = 60
	ti.Width = 30

	p := &HabitsPane{
		input:     ti,
		store:     s,
		styles:    styles,
		keys:      NewHabitKeyMap(keyCfg),
		inputKeys: NewInputKeyMap(keyCfg),
	}
	p.data.FillDefaults()
	return p
}

// LoadCmd returns a command that reloads the dataset snapshot.
func (p *HabitsPane) LoadCmd() tea.Cmd {
	return loadJournalCmd(p.store)
}

// setData installs a fresh snapshot and adjusts cursor bounds.
func (p *HabitsPane) setData(data store.Dataset) {
	p.data = data
	if p.cursor >= len(p.data.Habits) {
		p.cursor = max(0, len(p.data.Habits)-1)
	}
}

// SetSize sets the pane dimensions.
func (p *HabitsPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(10, width-6)
}

// SetFocused sets whether this pane is focused.
func (p *HabitsPane) SetFocused(focused bool) {
	p.focused = focused
}

// IsFocused returns whether this pane is focused.
func (p *HabitsPane) IsFocused() bool {
	return p.focused
}

// IsAdding returns whether we're in add mode.
func (p *HabitsPane) IsAdding() bool {
	return p.adding
}

// SelectedHabit returns the habit under the cursor, if any.
func (p *HabitsPane) SelectedHabit() (store.Habit, bool) {
	if p.cursor < 0 || p.cursor >= len(p.data.Habits) {
		return store.Habit{}, false
	}
	return p.data.Habits[p.cursor], true
}

// Update handles messages for the habits pane.
func (p *HabitsPane) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	// Handle async messages first
	switch msg := msg.(type) {
	case journalLoadedMsg:
		p.setData(msg.data)
		return nil

	case habitAddedMsg:
		if msg.err == nil {
			// Reload to get updated list
			return p.LoadCmd()
		}
		return nil

	case habitToggledMsg, habitDeletedMsg:
		// Reload to refresh state
		return p.LoadCmd()
	}

	// If we're adding a habit, handle input
	if p.adding {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			switch {
			case key.Matches(msg, p.inputKeys.Confirm):
				if p.addStep == 0 {
					// Got name, now get icon
					p.newName = strings.TrimSpace(p.input.Value())
					if p.newName != "" {
						p.addStep = 1
						p.input.Reset()
						p.input.Placeholder = "Icon (emoji, optional)"
						p.input.CharLimit = 4
					}
				} else {
					icon := strings.TrimSpace(p.input.Value())
					name := p.newName
					p.resetAddMode()
					return addHabitCmd(p.store, name, icon)
				}
				return nil

			case key.Matches(msg, p.inputKeys.Cancel):
				p.resetAddMode()
				return nil
			}
		}

		p.input, cmd = p.input.Update(msg)
		return cmd
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

		case key.Matches(msg, p.keys.Add):
			p.adding = true
			p.addStep = 0
			p.input.Placeholder = "Habit name (e.g., Exercise)"
			p.input.CharLimit = 60
			p.input.Focus()
			return textinput.Blink

		case key.Matches(msg, p.keys.Toggle):
			if h, ok := p.SelectedHabit(); ok {
				today := p.store.Now().Format("2006-01-02")
				return toggleHabitCmd(p.store, h.ID, today)
			}

		case key.Matches(msg, p.keys.Delete):
			if h, ok := p.SelectedHabit(); ok {
				return deleteHabitCmd(p.store, h.ID)
			}
		}
	}

	return nil
}

// resetAddMode resets the add habit state.
func (p *HabitsPane) resetAddMode() {
	p.adding = false
	p.addStep = 0
	p.newName = ""
	p.input.Reset()
	p.input.Placeholder = "Habit name (e.g., Exercise)"
	p.input.CharLimit = 60
}

// handleMouse processes mouse events for the habits pane.
func (p *HabitsPane) handleMouse(msg tea.MouseMsg) tea.Cmd {
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

		// Click on the icon area toggles today's mark
		if msg.X < 4 {
			h := p.data.Habits[row]
			today := p.store.Now().Format("2006-01-02")
			return toggleHabitCmd(p.store, h.ID, today)
		}
	}

	return nil
}

// View renders the habits pane.
func (p *HabitsPane) View() string {
	var b strings.Builder

	// Title
	title := p.styles.PaneTitleStyle.Render("🔥 HABITS")
	b.WriteString(title)
	b.WriteString("\n")

	// Separator
	sepWidth := p.width - 4
	if sepWidth < 10 {
		sepWidth = 30
	}
	b.WriteString(p.styles.StatLabelStyle.Render(strings.Repeat("─", sepWidth)))
	b.WriteString("\n")

	if len(p.data.Habits) == 0 && !p.adding {
		b.WriteString(p.styles.StatLabelStyle.Render("  No habits yet."))
		b.WriteString("\n")
		b.WriteString(p.styles.StatLabelStyle.Render("  Press 'a' to add one."))
		b.WriteString("\n")
	} else {
		for i, h := range p.data.Habits {
			prefix := "  "
			if i == p.cursor && p.focused && !p.adding {
				prefix = "▶ "
			}

			nameWidth := max(8, p.width-22)
			name := runewidth.Truncate(habitLabel(h), nameWidth, "..")

			line := fmt.Sprintf("%s%s  ", prefix, name)

			week := p.habitWeek(h.ID)
			line += p.renderWeekView(week)

			weekCount := 0
			for _, done := range week {
				if done {
					weekCount++
				}
			}
			line += fmt.Sprintf("  %d/7", weekCount)

			if streak := p.habitStreak(h.ID); streak > 1 {
				line += " " + p.styles.HabitStreakStyle.Render(fmt.Sprintf("🔥%d", streak))
			}

			if i == p.cursor && p.focused && !p.adding {
				line = p.styles.SelectedStyle.Render(line)
			}

			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	// Day labels
	b.WriteString("\n")
	b.WriteString(p.styles.StatLabelStyle.Render(p.dayLabels()))
	b.WriteString("\n")

	// Input field when adding
	if p.adding {
		b.WriteString("\n")
		var prompt string
		if p.addStep == 0 {
			prompt = p.styles.InputPromptStyle.Render("Name: ")
		} else {
			prompt = p.styles.InputPromptStyle.Render("Icon: ")
		}
		b.WriteString("  " + prompt + p.input.View())
		b.WriteString("\n")
	}

	// Apply pane style
	content := b.String()
	style := p.styles.PaneStyle
	if p.focused {
		style = p.styles.PaneFocusedStyle
	}

	return style.Width(p.width).Height(p.height).Render(content)
}

// habitWeek reports done-ness over the last 7 days, oldest first.
func (p *HabitsPane) habitWeek(habitID string) []bool {
	now := p.store.Now()
	week := make([]bool, 7)
	for i := 0; i < 7; i++ {
		date := now.AddDate(0, 0, -(6 - i)).Format("2006-01-02")
		week[i] = p.data.IsDone(habitID, date)
	}
	return week
}

// habitStreak counts consecutive done days ending today. A not-yet-done
// today does not break the run; it just is not counted.
func (p *HabitsPane) habitStreak(habitID string) int {
	day := p.store.Now()
	if !p.data.IsDone(habitID, day.Format("2006-01-02")) {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for i := 0; i < habitStreakLimit; i++ {
		if !p.data.IsDone(habitID, day.Format("2006-01-02")) {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// renderWeekView creates the visual week representation.
func (p *HabitsPane) renderWeekView(week []bool) string {
	var result string
	for _, done := range week {
		if done {
			result += p.styles.HabitDoneIcon + " "
		} else {
			result += p.styles.HabitUndoneIcon + " "
		}
	}
	return strings.TrimSuffix(result, " ")
}

// dayLabels returns the day labels for the week view.
func (p *HabitsPane) dayLabels() string {
	today := p.store.Now()
	var days []string
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, -(6 - i))
		days = append(days, day.Format("Mon")[:1])
	}

	nameWidth := max(8, p.width-22)
	result := strings.Repeat(" ", nameWidth+4)
	for _, d := range days {
		result += d + " "
	}
	return strings.TrimSuffix(result, " ")
}

// TodayCompletionRate returns how many habits count as done today.
func (p *HabitsPane) TodayCompletionRate() (done, total int) {
	today := p.store.Now().Format("2006-01-02")
	total = len(p.data.Habits)
	for _, h := range p.data.Habits {
		if p.data.IsDone(h.ID, today) {
			done++
		}
	}
	return done, total
}
