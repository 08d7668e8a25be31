// Package ui provides terminal user interface components for the habits app.
package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/snagarohit/minimalhabits/internal/config"
	"github.com/snagarohit/minimalhabits/internal/layout"
	"github.com/snagarohit/minimalhabits/internal/store"
	"github.com/snagarohit/minimalhabits/internal/timegrid"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Timeline rendering granularity: two 15-minute slots per screen line, so
// one 8-hour column fits in 16 lines.
const slotsPerLine = 2

// gridLines is the number of screen lines one column occupies.
const gridLines = timegrid.RowsPerColumn / slotsPerLine

// TimelinePane renders one day of time blocks on the 3x8h grid and handles
// block entry, resizing and deletion.
type TimelinePane struct {
	data    store.Dataset
	date    string // viewed day, YYYY-MM-DD
	blocks  []store.TimeBlock
	segs    []layout.Segment
	cursor  int // index into blocks
	focused bool
	width   int
	height  int

	adding     bool
	addStep    int // 0 = habit, 1 = start, 2 = duration
	input      textinput.Model
	newHabitID string
	newStart   string

	store  *store.Store
	styles *Styles

	// Key bindings
	keys      TimelineKeyMap
	inputKeys InputKeyMap
}

// NewTimelinePane creates a new timeline pane.
func NewTimelinePane(s *store.Store, styles *Styles) *TimelinePane {
	return NewTimelinePaneWithKeys(s, styles, &config.KeysConfig{})
}

// NewTimelinePaneWithKeys creates a new timeline pane with custom key bindings.
func NewTimelinePaneWithKeys(s *store.Store, styles *Styles, keyCfg *config.KeysConfig) *TimelinePane {
	if keyCfg == nil {
		keyCfg = &config.KeysConfig{}
	}
	ti := textinput.New()
	ti.Placeholder = "Habit name or number"
	ti.CharLimit = 60
	ti.Width = 30

	p := &TimelinePane{
		date:      s.Now().Format("2006-01-02"),
		focused:   true,
		input:     ti,
		store:     s,
		styles:    styles,
		keys:      NewTimelineKeyMap(keyCfg),
		inputKeys: NewInputKeyMap(keyCfg),
	}
	p.data.FillDefaults()
	return p
}

// LoadCmd returns a command that reloads the dataset snapshot.
func (p *TimelinePane) LoadCmd() tea.Cmd {
	return loadJournalCmd(p.store)
}

// Date returns the day currently shown.
func (p *TimelinePane) Date() string {
	return p.date
}

// setData installs a fresh snapshot and recomputes the day's layout,
// keeping the selected block when it still exists.
func (p *TimelinePane) setData(data store.Dataset) {
	var selected string
	if p.cursor >= 0 && p.cursor < len(p.blocks) {
		selected = p.blocks[p.cursor].ID
	}

	p.data = data
	p.rebuildDay()

	if selected != "" {
		for i, b := range p.blocks {
			if b.ID == selected {
				p.cursor = i
				return
			}
		}
	}
	if p.cursor >= len(p.blocks) {
		p.cursor = max(0, len(p.blocks)-1)
	}
}

// rebuildDay recomputes the block list and segments for the viewed day.
func (p *TimelinePane) rebuildDay() {
	p.blocks = p.blocks[:0]
	for _, b := range p.data.TimeBlocks {
		if b.Date == p.date {
			p.blocks = append(p.blocks, b)
		}
	}
	sort.Slice(p.blocks, func(i, j int) bool {
		if p.blocks[i].StartMinute() != p.blocks[j].StartMinute() {
			return p.blocks[i].StartMinute() < p.blocks[j].StartMinute()
		}
		return p.blocks[i].ID < p.blocks[j].ID
	})
	p.segs = layout.Day(p.blocks)
}

// setDate changes the viewed day and recomputes the layout.
func (p *TimelinePane) setDate(date string) {
	p.date = date
	p.cursor = 0
	p.rebuildDay()
}

// shiftDate moves the viewed day by the given number of days.
func (p *TimelinePane) shiftDate(days int) {
	t, err := time.Parse("2006-01-02", p.date)
	if err != nil {
		p.setDate(p.store.Now().Format("2006-01-02"))
		return
	}
	p.setDate(t.AddDate(0, 0, days).Format("2006-01-02"))
}

// SetSize sets the pane dimensions.
func (p *TimelinePane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(10, width-4)
}

// SetFocused sets whether this pane is focused.
func (p *TimelinePane) SetFocused(focused bool) {
	p.focused = focused
}

// IsFocused returns whether this pane is focused.
func (p *TimelinePane) IsFocused() bool {
	return p.focused
}

// IsAdding returns whether we're in add mode.
func (p *TimelinePane) IsAdding() bool {
	return p.adding
}

// SelectedBlock returns the block under the cursor, if any.
func (p *TimelinePane) SelectedBlock() (store.TimeBlock, bool) {
	if p.cursor < 0 || p.cursor >= len(p.blocks) {
		return store.TimeBlock{}, false
	}
	return p.blocks[p.cursor], true
}

// Update handles messages for the timeline pane.
func (p *TimelinePane) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	// Handle async messages first
	switch msg := msg.(type) {
	case journalLoadedMsg:
		p.setData(msg.data)
		return nil

	case blockInsertedMsg, blockRetimedMsg, blockDeletedMsg:
		// Reload to refresh the grid
		return p.LoadCmd()
	}

	// If we're adding a block, handle input
	if p.adding {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			switch {
			case key.Matches(msg, p.inputKeys.Confirm):
				return p.advanceAddStep()

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
			if len(p.blocks) > 0 {
				p.cursor = min(p.cursor+1, len(p.blocks)-1)
			}

		case key.Matches(msg, p.keys.Up):
			if len(p.blocks) > 0 {
				p.cursor = max(p.cursor-1, 0)
			}

		case key.Matches(msg, p.keys.Top):
			p.cursor = 0

		case key.Matches(msg, p.keys.Bottom):
			if len(p.blocks) > 0 {
				p.cursor = len(p.blocks) - 1
			}

		case key.Matches(msg, p.keys.PrevDay):
			p.shiftDate(-1)

		case key.Matches(msg, p.keys.NextDay):
			p.shiftDate(1)

		case key.Matches(msg, p.keys.Today):
			p.setDate(p.store.Now().Format("2006-01-02"))

		case key.Matches(msg, p.keys.Add):
			if len(p.data.Habits) == 0 {
				return nil
			}
			p.adding = true
			p.addStep = 0
			p.input.Placeholder = "Habit name or number"
			p.input.CharLimit = 60
			p.input.Focus()
			return textinput.Blink

		case key.Matches(msg, p.keys.Grow):
			if b, ok := p.SelectedBlock(); ok {
				return retimeBlockCmd(p.store, b.ID, b.Start, b.DurationMinutes+timegrid.SlotMinutes)
			}

		case key.Matches(msg, p.keys.Shrink):
			if b, ok := p.SelectedBlock(); ok && b.DurationMinutes > timegrid.SlotMinutes {
				return retimeBlockCmd(p.store, b.ID, b.Start, b.DurationMinutes-timegrid.SlotMinutes)
			}

		case key.Matches(msg, p.keys.Delete):
			if b, ok := p.SelectedBlock(); ok {
				return deleteBlockCmd(p.store, b.ID)
			}
		}
	}

	return nil
}

// advanceAddStep consumes the current input field and moves the add flow
// forward, returning the insert command after the last step.
func (p *TimelinePane) advanceAddStep() tea.Cmd {
	text := strings.TrimSpace(p.input.Value())
	if text == "" {
		p.resetAddMode()
		return nil
	}

	switch p.addStep {
	case 0:
		habit, ok := p.findHabit(text)
		if !ok {
			p.input.Reset()
			return nil
		}
		p.newHabitID = habit.ID
		p.addStep = 1
		p.input.Reset()
		p.input.Placeholder = "Start (HH:MM)"
		p.input.CharLimit = 5
		return nil

	case 1:
		p.newStart = text
		p.addStep = 2
		p.input.Reset()
		p.input.Placeholder = "Duration (minutes)"
		p.input.CharLimit = 4
		return nil

	default:
		minutes, err := strconv.Atoi(text)
		if err != nil || minutes <= 0 {
			p.input.Reset()
			return nil
		}
		habitID, date, start := p.newHabitID, p.date, p.newStart
		p.resetAddMode()
		return insertBlockCmd(p.store, habitID, date, start, minutes)
	}
}

// findHabit resolves user input to a habit: a 1-based list number or a
// case-insensitive name prefix.
func (p *TimelinePane) findHabit(text string) (store.Habit, bool) {
	if n, err := strconv.Atoi(text); err == nil {
		if n >= 1 && n <= len(p.data.Habits) {
			return p.data.Habits[n-1], true
		}
		return store.Habit{}, false
	}
	lower := strings.ToLower(text)
	for _, h := range p.data.Habits {
		if strings.HasPrefix(strings.ToLower(h.Name), lower) {
			return h, true
		}
	}
	return store.Habit{}, false
}

// resetAddMode resets the add block state.
func (p *TimelinePane) resetAddMode() {
	p.adding = false
	p.addStep = 0
	p.newHabitID = ""
	p.newStart = ""
	p.input.Reset()
	p.input.Placeholder = "Habit name or number"
	p.input.CharLimit = 60
}

// handleMouse processes mouse events for the timeline pane.
func (p *TimelinePane) handleMouse(msg tea.MouseMsg) tea.Cmd {
	// Grid starts after title (1) + separator (1) + day header (1) = row 3
	const headerRows = 3

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		p.cursor = max(p.cursor-1, 0)
		return nil

	case tea.MouseButtonWheelDown:
		if len(p.blocks) > 0 {
			p.cursor = min(p.cursor+1, len(p.blocks)-1)
		}
		return nil

	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return nil
		}
		line := msg.Y - headerRows
		if line < 0 || line >= gridLines {
			return nil
		}
		col := p.columnAt(msg.X)
		if col < 0 {
			return nil
		}
		// Select the first block covering either slot of the clicked line.
		base := timegrid.Ordinal(col, line*slotsPerLine)
		for i, b := range p.blocks {
			first := timegrid.OrdinalOfMinute(b.StartMinute())
			last := timegrid.OrdinalOfMinute(b.EndMinute() - 1)
			if last >= timegrid.SlotsPerDay {
				last = timegrid.SlotsPerDay - 1
			}
			if base+slotsPerLine-1 >= first && base <= last {
				p.cursor = i
				return nil
			}
		}
	}

	return nil
}

// columnAt maps a pane-local X coordinate to a grid column, -1 if outside.
func (p *TimelinePane) columnAt(x int) int {
	colWidth := p.columnWidth()
	full := colWidth + 1 // one space gap between columns
	col := x / full
	if col < 0 || col >= timegrid.Columns {
		return -1
	}
	return col
}

// columnWidth returns the screen width of one grid column including its
// time label.
func (p *TimelinePane) columnWidth() int {
	w := (p.width - 4 - (timegrid.Columns - 1)) / timegrid.Columns
	if w < 10 {
		w = 10
	}
	return w
}

// View renders the timeline pane.
func (p *TimelinePane) View() string {
	var b strings.Builder

	// Title
	title := p.styles.PaneTitleStyle.Render("📅 TIMELINE")
	b.WriteString(title)
	b.WriteString("\n")

	// Separator
	sepWidth := p.width - 4
	if sepWidth < 10 {
		sepWidth = 30
	}
	b.WriteString(p.styles.StatLabelStyle.Render(strings.Repeat("─", sepWidth)))
	b.WriteString("\n")

	// Day header
	day := p.date
	if t, err := time.Parse("2006-01-02", p.date); err == nil {
		day = t.Format("Mon, Jan 2 2006")
	}
	if p.date == p.store.Now().Format("2006-01-02") {
		day += "  (today)"
	}
	b.WriteString(p.styles.StatValueStyle.Render(day))
	b.WriteString("\n")

	// Grid
	b.WriteString(p.renderGrid())
	b.WriteString("\n")

	// Selected block line
	if blk, ok := p.SelectedBlock(); ok {
		name := blk.HabitID
		if h, found := p.data.HabitByID(blk.HabitID); found {
			name = h.Name
		}
		sel := fmt.Sprintf("▶ %s +%dm  %s", blk.Start, blk.DurationMinutes, name)
		if p.focused && !p.adding {
			sel = p.styles.SelectedStyle.Render(sel)
		}
		b.WriteString(sel)
		b.WriteString("\n")
	} else if len(p.blocks) == 0 && !p.adding {
		b.WriteString(p.styles.StatLabelStyle.Render("  No blocks. Press 'a' to add one."))
		b.WriteString("\n")
	}

	// Stats
	total := 0
	for _, blk := range p.blocks {
		total += blk.DurationMinutes
	}
	stats := fmt.Sprintf("%d block(s), %s", len(p.blocks), formatMinutes(total))
	if lanes := layout.TrackCount(p.segs); lanes > 1 {
		stats += fmt.Sprintf(", %d lanes", lanes)
	}
	b.WriteString(p.styles.StatLabelStyle.Render(stats))
	b.WriteString("\n")

	// Input field when adding
	if p.adding {
		b.WriteString("\n")
		var prompt string
		switch p.addStep {
		case 0:
			prompt = p.styles.InputPromptStyle.Render("Habit: ")
		case 1:
			prompt = p.styles.InputPromptStyle.Render("Start: ")
		default:
			prompt = p.styles.InputPromptStyle.Render("Minutes: ")
		}
		b.WriteString(prompt + p.input.View())
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

// renderGrid draws the three 8-hour columns side by side, two slots per
// line. Each occupied cell is a lane slice colored by habit.
func (p *TimelinePane) renderGrid() string {
	colWidth := p.columnWidth()
	habitIndex := p.habitIndexes()
	selected := ""
	if b, ok := p.SelectedBlock(); ok {
		selected = b.ID
	}

	cols := make([]string, timegrid.Columns)
	for c := 0; c < timegrid.Columns; c++ {
		var cb strings.Builder
		for line := 0; line < gridLines; line++ {
			row := line * slotsPerLine
			hour, minute := timegrid.SlotTime(c, row)
			label := "     "
			if minute == 0 {
				label = fmt.Sprintf("%02d:00", hour)
			}
			cb.WriteString(p.styles.StatLabelStyle.Render(label))
			cb.WriteString(" ")
			cb.WriteString(p.renderLine(c, row, colWidth-6, habitIndex, selected))
			if line < gridLines-1 {
				cb.WriteString("\n")
			}
		}
		cols[c] = cb.String()
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cols[0], " ", cols[1], " ", cols[2])
}

// renderLine draws the lane area of one screen line: the union of the two
// slots it covers, each segment filling its track's slice of the width.
func (p *TimelinePane) renderLine(col, row, width int, habitIndex map[string]int, selected string) string {
	if width < 1 {
		width = 1
	}

	type cell struct {
		habit int
		sel   bool
		fill  bool
	}
	cells := make([]cell, width)

	for _, s := range p.segs {
		if s.Column != col {
			continue
		}
		if row+slotsPerLine-1 < s.Row || row > s.Row+s.Span-1 {
			continue
		}
		tc := s.TrackCount
		if tc < 1 {
			tc = 1
		}
		laneW := width / tc
		if laneW < 1 {
			laneW = 1
		}
		x := s.Track * laneW
		end := x + laneW
		if s.Track == tc-1 {
			end = width // last lane absorbs the remainder
		}
		for i := x; i < end && i < width; i++ {
			cells[i] = cell{habit: habitIndex[s.HabitID], sel: s.BlockID == selected, fill: true}
		}
	}

	// Group equal-styled runs to keep the escape-code volume down.
	var out strings.Builder
	for i := 0; i < width; {
		j := i
		for j < width && cells[j] == cells[i] {
			j++
		}
		run := j - i
		switch {
		case !cells[i].fill:
			out.WriteString(p.styles.TrackEmptyStyle().Render(strings.Repeat("·", run)))
		case cells[i].sel:
			out.WriteString(p.styles.TrackStyle(cells[i].habit).Bold(true).Render(strings.Repeat("█", run)))
		default:
			out.WriteString(p.styles.TrackStyle(cells[i].habit).Render(strings.Repeat("▓", run)))
		}
		i = j
	}
	return out.String()
}

// habitIndexes maps habit IDs to their position in creation order, which
// decides the lane color.
func (p *TimelinePane) habitIndexes() map[string]int {
	idx := make(map[string]int, len(p.data.Habits))
	for i, h := range p.data.Habits {
		idx[h.ID] = i
	}
	return idx
}

// TotalMinutes returns the summed duration of the viewed day's blocks.
func (p *TimelinePane) TotalMinutes() int {
	total := 0
	for _, b := range p.blocks {
		total += b.DurationMinutes
	}
	return total
}

// formatMinutes formats a minute count as "Xh Ym".
func formatMinutes(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
