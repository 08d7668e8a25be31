// Package ui provides terminal user interface components for the habits app.
// This file contains the main App model which coordinates all panes and
// routes messages using the Bubble Tea architecture.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/snagarohit/minimalhabits/internal/config"
	"github.com/snagarohit/minimalhabits/internal/store"
	"github.com/snagarohit/minimalhabits/internal/sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PaneID identifies each pane in the application.
type PaneID int

const (
	PaneTimeline PaneID = iota
	PaneTimer
	PaneHabits
)

// LayoutMode determines how panes are arranged based on terminal width.
type LayoutMode int

const (
	// LayoutWide shows all three panes side-by-side.
	LayoutWide LayoutMode = iota
	// LayoutNarrow shows only the focused pane with a tab bar.
	LayoutNarrow
)

// AppConfig holds user configuration for the app behavior.
type AppConfig struct {
	Keys                  *config.KeysConfig
	ConfirmDeletions      bool
	NarrowLayoutThreshold int
	FetchOnStartup        bool
}

// App is the main application model that coordinates all panes.
type App struct {
	store        *store.Store
	engine       *sync.Engine
	styles       *Styles
	config       *AppConfig
	timelinePane *TimelinePane
	timerPane    *TimerPane
	habitsPane   *HabitsPane
	helpOverlay  *HelpOverlay
	confirmDel   *confirmDeleteState
	activePane   PaneID
	layoutMode   LayoutMode
	showHelp     bool
	width        int
	height       int
	status       string
	statusErr    bool
	statusUntil  time.Time
	syncState    sync.State
	quitting     bool

	// Key bindings
	keys     GlobalKeyMap
	helpKeys HelpKeyMap

	// Pane positions for mouse click detection (x coordinates)
	timelinePaneStart int
	timelinePaneEnd   int
	timerPaneStart    int
	timerPaneEnd      int
	habitsPaneStart   int
	habitsPaneEnd     int
	contentTop        int // Y coordinate where content starts
}

type confirmDeleteState struct {
	title string
	body  string
	cmd   tea.Cmd
}

// NewApp creates a new application. Data loading is deferred to Init()
// to keep the constructor non-blocking. engine may be nil when sync is
// disabled.
func NewApp(s *store.Store, engine *sync.Engine, styles *Styles, cfg *AppConfig) *App {
	// Use default config if nil
	if cfg == nil {
		cfg = &AppConfig{
			Keys:                  &config.KeysConfig{},
			ConfirmDeletions:      true,
			NarrowLayoutThreshold: 80,
		}
	}
	if cfg.Keys == nil {
		cfg.Keys = &config.KeysConfig{}
	}

	// Create panes with config-aware key bindings
	timelinePane := NewTimelinePaneWithKeys(s, styles, cfg.Keys)
	timerPane := NewTimerPaneWithKeys(s, styles, cfg.Keys)
	habitsPane := NewHabitsPaneWithKeys(s, styles, cfg.Keys)
	helpOverlay := NewHelpOverlay(styles)

	app := &App{
		store:        s,
		engine:       engine,
		styles:       styles,
		config:       cfg,
		timelinePane: timelinePane,
		timerPane:    timerPane,
		habitsPane:   habitsPane,
		helpOverlay:  helpOverlay,
		activePane:   PaneTimeline,
		syncState:    sync.State{Status: sync.StatusOffline},
		keys:         NewGlobalKeyMap(cfg.Keys),
		helpKeys:     DefaultHelpKeyMap(),
	}

	// Set initial focus
	timelinePane.SetFocused(true)
	timerPane.SetFocused(false)
	habitsPane.SetFocused(false)

	return app
}

// tickMsg is sent periodically for time updates.
type tickMsg time.Time

// tickCmd returns a command for the next display tick: every second while
// a timer runs, otherwise once a minute.
func (a *App) tickCmd() tea.Cmd {
	d := time.Minute
	if a.store.HasRunningTimer() {
		d = time.Second
	}
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init initializes the app and loads all data asynchronously.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.tickCmd(),
		loadJournalCmd(a.store),
		refreshSyncCmd(a.engine),
	}
	if a.config.FetchOnStartup {
		if cmd := fetchMergeCmd(a.engine); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// broadcast forwards a message to all panes and batches their commands.
func (a *App) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if cmd := a.timelinePane.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := a.timerPane.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := a.habitsPane.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update handles all messages and routes them appropriately.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Route async messages to the panes first (before key handling).
	// This ensures store operation results are processed regardless of
	// which pane is active.
	switch msg := msg.(type) {
	case journalLoadedMsg:
		return a, a.broadcast(msg)

	case habitAddedMsg:
		if msg.err != nil {
			a.SetStatus("Add habit: "+msg.err.Error(), true)
		} else if msg.habit != nil {
			a.SetStatus("Added "+msg.habit.Name, false)
		}
		return a, tea.Batch(a.habitsPane.Update(msg), refreshSyncCmd(a.engine))

	case habitToggledMsg:
		if msg.err != nil {
			a.SetStatus("Toggle habit: "+msg.err.Error(), true)
		}
		return a, tea.Batch(a.habitsPane.Update(msg), refreshSyncCmd(a.engine))

	case habitDeletedMsg:
		if msg.err != nil {
			a.SetStatus("Delete habit: "+msg.err.Error(), true)
		} else if msg.name != "" {
			a.SetStatus("Deleted "+msg.name, false)
		}
		// Habit deletion also removes blocks and timers; refresh everything.
		return a, tea.Batch(loadJournalCmd(a.store), refreshSyncCmd(a.engine))

	case blockInsertedMsg:
		if msg.err != nil {
			a.SetStatus("Add block: "+msg.err.Error(), true)
		} else if msg.block != nil {
			a.SetStatus(fmt.Sprintf("Logged %s +%dm", msg.block.Start, msg.block.DurationMinutes), false)
		}
		return a, tea.Batch(a.timelinePane.Update(msg), refreshSyncCmd(a.engine))

	case blockRetimedMsg:
		if msg.err != nil {
			a.SetStatus("Retime block: "+msg.err.Error(), true)
		}
		return a, tea.Batch(a.timelinePane.Update(msg), refreshSyncCmd(a.engine))

	case blockDeletedMsg:
		if msg.err != nil {
			a.SetStatus("Delete block: "+msg.err.Error(), true)
		}
		return a, tea.Batch(a.timelinePane.Update(msg), refreshSyncCmd(a.engine))

	case timerStartedMsg:
		if msg.err != nil {
			a.SetStatus("Start timer: "+msg.err.Error(), true)
		} else if msg.name != "" {
			a.SetStatus("Timing "+msg.name, false)
		}
		return a, tea.Batch(a.timerPane.Update(msg), refreshSyncCmd(a.engine), a.tickCmd())

	case timerStoppedMsg:
		if msg.err != nil {
			a.SetStatus("Stop timer: "+msg.err.Error(), true)
		} else if msg.block != nil {
			a.SetStatus(fmt.Sprintf("Logged %s +%dm", msg.block.Start, msg.block.DurationMinutes), false)
		}
		// The stopped timer became a block; the timeline needs it too.
		return a, tea.Batch(loadJournalCmd(a.store), refreshSyncCmd(a.engine))

	case syncStateMsg:
		a.syncState = msg.state
		return a, nil

	case fetchMergedMsg:
		if msg.err != nil {
			a.SetStatus("Sync: "+msg.err.Error(), true)
		} else if msg.changed {
			a.SetStatus("Merged remote changes", false)
		}
		return a, tea.Batch(loadJournalCmd(a.store), refreshSyncCmd(a.engine))
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.confirmDel != nil {
			switch msg.String() {
			case "y", "Y", "enter":
				cmd := a.confirmDel.cmd
				a.confirmDel = nil
				return a, cmd
			case "n", "N", "esc":
				a.confirmDel = nil
				a.SetStatus("Canceled", false)
				return a, nil
			default:
				return a, nil
			}
		}

		// Help overlay takes priority
		if a.showHelp {
			if key.Matches(msg, a.helpKeys.Close) {
				a.showHelp = false
				return a, nil
			}
			return a, nil
		}

		// Check if any pane is in input mode
		inInputMode := a.timelinePane.IsAdding() || a.habitsPane.IsAdding()

		if !inInputMode {
			// Confirm habit deletions if enabled. Deleting a habit drops its
			// completions and blocks too, so it gets a prompt; block deletion
			// stays immediate.
			if a.config.ConfirmDeletions && a.activePane == PaneHabits {
				if key.Matches(msg, a.habitsPane.keys.Delete) {
					habit, ok := a.habitsPane.SelectedHabit()
					if !ok {
						a.SetStatus("No habit selected", true)
						return a, nil
					}
					a.confirmDel = &confirmDeleteState{
						title: "Delete habit?",
						body:  truncateText(habit.Name, 60),
						cmd:   deleteHabitCmd(a.store, habit.ID),
					}
					return a, nil
				}
			}

			// Global keys only when not in input mode
			switch {
			case key.Matches(msg, a.keys.Quit):
				a.quitting = true
				return a, tea.Quit

			case key.Matches(msg, a.keys.Help):
				a.showHelp = true
				return a, nil

			case key.Matches(msg, a.keys.NextPane):
				a.switchPane()
				return a, nil

			case key.Matches(msg, a.keys.Pane1):
				a.setActivePane(PaneTimeline)
				return a, nil

			case key.Matches(msg, a.keys.Pane2):
				a.setActivePane(PaneTimer)
				return a, nil

			case key.Matches(msg, a.keys.Pane3):
				a.setActivePane(PaneHabits)
				return a, nil

			case key.Matches(msg, a.keys.Sync):
				if cmd := fetchMergeCmd(a.engine); cmd != nil {
					a.SetStatus("Syncing...", false)
					return a, cmd
				}
				a.SetStatus("Sync is disabled", true)
				return a, nil
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateLayout()
		return a, nil

	case tea.FocusMsg:
		// Terminal regained focus: pick up changes another device pushed.
		if cmd := fetchMergeCmd(a.engine); cmd != nil {
			return a, cmd
		}
		return a, nil

	case tea.MouseMsg:
		if a.confirmDel != nil {
			if msg.Action == tea.MouseActionPress {
				a.confirmDel = nil
				a.SetStatus("Canceled", false)
			}
			return a, nil
		}

		// Any click closes help
		if a.showHelp {
			if msg.Action == tea.MouseActionPress {
				a.showHelp = false
			}
			return a, nil
		}

		// Handle mouse events
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			// In narrow mode, check for tab bar clicks
			if a.layoutMode == LayoutNarrow && msg.Y == a.contentTop-1 {
				tabWidth := a.width / 3
				if msg.X < tabWidth {
					a.setActivePane(PaneTimeline)
				} else if msg.X < tabWidth*2 {
					a.setActivePane(PaneTimer)
				} else {
					a.setActivePane(PaneHabits)
				}
				return a, nil
			}

			// Determine which pane was clicked (in wide mode)
			clickedPane := a.paneAtPosition(msg.X)
			if clickedPane >= 0 && clickedPane != a.activePane {
				a.setActivePane(clickedPane)
			}

			// Forward click to active pane with adjusted coordinates
			if msg.Y >= a.contentTop {
				localMsg := msg
				localMsg.Y = msg.Y - a.contentTop
				if a.layoutMode == LayoutWide {
					switch a.activePane {
					case PaneTimer:
						localMsg.X = msg.X - a.timerPaneStart
					case PaneHabits:
						localMsg.X = msg.X - a.habitsPaneStart
					}
				}

				switch a.activePane {
				case PaneTimeline:
					return a, a.timelinePane.Update(localMsg)
				case PaneTimer:
					return a, a.timerPane.Update(localMsg)
				case PaneHabits:
					return a, a.habitsPane.Update(localMsg)
				}
			}
		}

		// Forward scroll to active pane
		if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
			localMsg := msg
			localMsg.Y = msg.Y - a.contentTop

			switch a.activePane {
			case PaneTimeline:
				return a, a.timelinePane.Update(localMsg)
			case PaneTimer:
				return a, a.timerPane.Update(localMsg)
			case PaneHabits:
				return a, a.habitsPane.Update(localMsg)
			}
		}

		return a, nil

	case tickMsg:
		if a.status != "" && !a.statusUntil.IsZero() && time.Now().After(a.statusUntil) {
			a.status = ""
			a.statusErr = false
			a.statusUntil = time.Time{}
		}
		return a, tea.Batch(a.tickCmd(), refreshSyncCmd(a.engine))
	}

	// Forward to active pane (only if help is not shown)
	if !a.showHelp {
		switch a.activePane {
		case PaneTimeline:
			if cmd := a.timelinePane.Update(msg); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case PaneTimer:
			if cmd := a.timerPane.Update(msg); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case PaneHabits:
			if cmd := a.habitsPane.Update(msg); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}

	return a, tea.Batch(cmds...)
}

// switchPane cycles through panes.
func (a *App) switchPane() {
	switch a.activePane {
	case PaneTimeline:
		a.setActivePane(PaneTimer)
	case PaneTimer:
		a.setActivePane(PaneHabits)
	case PaneHabits:
		a.setActivePane(PaneTimeline)
	}
}

// setActivePane sets the active pane and updates focus states.
func (a *App) setActivePane(pane PaneID) {
	a.activePane = pane

	a.timelinePane.SetFocused(pane == PaneTimeline)
	a.timerPane.SetFocused(pane == PaneTimer)
	a.habitsPane.SetFocused(pane == PaneHabits)
}

// paneAtPosition returns which pane is at the given X coordinate.
// Returns -1 if no pane is at that position.
func (a *App) paneAtPosition(x int) PaneID {
	if a.layoutMode == LayoutNarrow {
		// In narrow mode, return the active pane
		return a.activePane
	}

	if x >= a.timelinePaneStart && x < a.timelinePaneEnd {
		return PaneTimeline
	}
	if x >= a.timerPaneStart && x < a.timerPaneEnd {
		return PaneTimer
	}
	if x >= a.habitsPaneStart && x < a.habitsPaneEnd {
		return PaneHabits
	}
	return -1
}

// updateLayout recalculates pane sizes based on terminal dimensions.
func (a *App) updateLayout() {
	// Leave room for title bar (2) and help bar (1)
	contentHeight := a.height - 4
	if contentHeight < 10 {
		contentHeight = 10
	}

	// Content starts after title bar (1 line title + 1 line space)
	a.contentTop = 1

	// Update help overlay size
	a.helpOverlay.SetSize(a.width, a.height)

	totalWidth := a.width - 4

	// Determine layout mode based on configured threshold
	threshold := a.config.NarrowLayoutThreshold
	if threshold <= 0 {
		threshold = 80 // Default threshold
	}

	if a.width < threshold {
		// Narrow mode: single focused pane with tab bar
		a.layoutMode = LayoutNarrow

		// In narrow mode, leave room for tab bar (1 line)
		narrowHeight := contentHeight - 1
		if narrowHeight < 8 {
			narrowHeight = 8
		}

		// Give full width to all panes (only focused one will be shown)
		paneWidth := totalWidth
		if paneWidth < 20 {
			paneWidth = 20
		}

		a.timelinePane.SetSize(paneWidth, narrowHeight)
		a.timerPane.SetSize(paneWidth, narrowHeight)
		a.habitsPane.SetSize(paneWidth, narrowHeight)

		// In narrow mode, all panes occupy the same space
		a.timelinePaneStart = 0
		a.timelinePaneEnd = a.width
		a.timerPaneStart = 0
		a.timerPaneEnd = a.width
		a.habitsPaneStart = 0
		a.habitsPaneEnd = a.width
		// Content starts after tab bar in narrow mode
		a.contentTop = 2
	} else {
		// Wide mode: three panes side-by-side; the timeline grid needs the
		// most horizontal room.
		a.layoutMode = LayoutWide

		timelineWidth := (totalWidth * 46) / 100
		timerWidth := (totalWidth * 24) / 100
		habitsWidth := totalWidth - timelineWidth - timerWidth - 2

		a.timelinePane.SetSize(timelineWidth, contentHeight)
		a.timerPane.SetSize(timerWidth, contentHeight)
		a.habitsPane.SetSize(habitsWidth, contentHeight)

		// Calculate pane positions (with 1 space gaps between panes)
		a.timelinePaneStart = 0
		a.timelinePaneEnd = timelineWidth
		a.timerPaneStart = timelineWidth + 1
		a.timerPaneEnd = a.timerPaneStart + timerWidth
		a.habitsPaneStart = a.timerPaneEnd + 1
		a.habitsPaneEnd = a.habitsPaneStart + habitsWidth
	}
}

// View renders the entire app.
func (a *App) View() string {
	if a.quitting {
		return a.renderGoodbye()
	}

	if a.confirmDel != nil {
		return a.renderConfirmDelete()
	}

	// Show help overlay if active
	if a.showHelp {
		return a.helpOverlay.View()
	}

	var b strings.Builder

	// Title bar
	titleBar := a.renderTitleBar()
	b.WriteString(titleBar)
	b.WriteString("\n")

	// Main content - switch based on layout mode
	switch a.layoutMode {
	case LayoutNarrow:
		b.WriteString(a.renderNarrowContent())
	default:
		b.WriteString(a.renderWideContent())
	}
	b.WriteString("\n")

	// Help bar
	helpBar := a.renderHelpBar()
	b.WriteString(helpBar)

	return b.String()
}

func (a *App) renderConfirmDelete() string {
	overlayWidth := 60
	if a.width > 0 {
		overlayWidth = min(60, max(20, a.width-4))
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(a.styles.ColorDanger).
		Padding(1, 2).
		Width(overlayWidth)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(a.styles.ColorDanger).
		MarginBottom(1)

	bodyStyle := lipgloss.NewStyle().
		Foreground(a.styles.ColorText)

	hintStyle := lipgloss.NewStyle().
		Foreground(a.styles.ColorTextMuted)

	var b strings.Builder
	b.WriteString(titleStyle.Render(a.confirmDel.title))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Render(a.confirmDel.body))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("[y/enter] delete    [n/esc] cancel"))

	content := overlayStyle.Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, content)
}

// renderWideContent renders all three panes side by side.
func (a *App) renderWideContent() string {
	timelineView := a.timelinePane.View()
	timerView := a.timerPane.View()
	habitsView := a.habitsPane.View()

	return lipgloss.JoinHorizontal(lipgloss.Top, timelineView, " ", timerView, " ", habitsView)
}

// renderNarrowContent renders the focused pane with a tab bar.
func (a *App) renderNarrowContent() string {
	var b strings.Builder

	// Tab bar at top
	b.WriteString(a.renderPaneTabs())
	b.WriteString("\n")

	// Only render the active pane
	switch a.activePane {
	case PaneTimeline:
		b.WriteString(a.timelinePane.View())
	case PaneTimer:
		b.WriteString(a.timerPane.View())
	case PaneHabits:
		b.WriteString(a.habitsPane.View())
	}

	return b.String()
}

// renderPaneTabs renders a tab bar showing available panes.
func (a *App) renderPaneTabs() string {
	// Tab labels
	tabs := []struct {
		id    PaneID
		label string
	}{
		{PaneTimeline, "Timeline"},
		{PaneTimer, "Timer"},
		{PaneHabits, "Habits"},
	}

	// Create tab styles
	activeTabStyle := lipgloss.NewStyle().
		Foreground(a.styles.ColorPrimary).
		Bold(true)
	inactiveTabStyle := lipgloss.NewStyle().
		Foreground(a.styles.ColorTextMuted)

	var parts []string
	for _, tab := range tabs {
		label := tab.label
		if tab.id == a.activePane {
			// Active tab: highlighted with brackets
			label = activeTabStyle.Render("[" + label + "]")
		} else {
			// Inactive tab: muted
			label = inactiveTabStyle.Render(" " + label + " ")
		}
		parts = append(parts, label)
	}

	// Center the tabs
	tabBar := strings.Join(parts, "  ")
	padding := (a.width - lipgloss.Width(tabBar)) / 2
	if padding > 0 {
		tabBar = strings.Repeat(" ", padding) + tabBar
	}

	return tabBar
}

// renderGoodbye shows a nice exit message with session summary.
func (a *App) renderGoodbye() string {
	habitsDone, habitsTotal := a.habitsPane.TodayCompletionRate()
	totalMinutes := a.timelinePane.TotalMinutes()

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  See you later!\n")
	b.WriteString("\n")

	if habitsTotal > 0 || totalMinutes > 0 {
		b.WriteString("  Today's progress:\n")
		if habitsTotal > 0 {
			pct := (habitsDone * 100) / habitsTotal
			b.WriteString(fmt.Sprintf("     Habits: %d/%d (%d%%)\n", habitsDone, habitsTotal, pct))
		}
		if totalMinutes > 0 {
			b.WriteString(fmt.Sprintf("     Logged: %s\n", formatMinutes(totalMinutes)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderTitleBar creates the top title bar with stats, timer and sync status.
func (a *App) renderTitleBar() string {
	title := a.styles.TitleStyle.Render(" habits ")

	// Stats summary
	habitsDone, habitsTotal := a.habitsPane.TodayCompletionRate()

	var statsItems []string
	if habitsTotal > 0 {
		statsItems = append(statsItems, fmt.Sprintf("Habits: %d/%d", habitsDone, habitsTotal))
	}
	stats := a.styles.StatLabelStyle.Render(strings.Join(statsItems, "  "))

	// Timer status indicator
	var timerStatus string
	if a.timerPane.Running() {
		name, elapsed := a.timerPane.RunningHabit()
		name = truncateText(name, 12)
		timerStatus = a.styles.TimerRunningStyle.Render(fmt.Sprintf("▶ %s %s", name, formatElapsed(elapsed)))
	}

	// Sync status
	syncStatus := a.renderSyncStatus()

	// Current date/time
	now := a.store.Now()
	dateStr := now.Format("Mon Jan 2 · 15:04")
	date := a.styles.DateStyle.Render(dateStr)

	// Calculate spacing
	usedWidth := lipgloss.Width(title) + lipgloss.Width(stats) +
		lipgloss.Width(timerStatus) + lipgloss.Width(syncStatus) + lipgloss.Width(date)
	spacerWidth := a.width - usedWidth - 8
	if spacerWidth < 2 {
		spacerWidth = 2
	}

	// Build the title bar
	var parts []string
	parts = append(parts, title)

	if stats != "" {
		parts = append(parts, "  "+stats)
	}

	leftSpacer := strings.Repeat(" ", spacerWidth/2)
	rightSpacer := strings.Repeat(" ", spacerWidth-spacerWidth/2)

	parts = append(parts, leftSpacer)

	if timerStatus != "" {
		parts = append(parts, timerStatus)
	}

	parts = append(parts, rightSpacer)
	parts = append(parts, syncStatus, "  ", date)

	return strings.Join(parts, "")
}

// renderSyncStatus formats the sync engine state for the title bar.
func (a *App) renderSyncStatus() string {
	switch a.syncState.Status {
	case sync.StatusSynced:
		return a.styles.SyncSyncedStyle.Render("● synced")
	case sync.StatusPending:
		return a.styles.SyncPendingStyle.Render("◌ pending")
	case sync.StatusError:
		return a.styles.SyncErrorStyle.Render("! sync error")
	default:
		return a.styles.SyncOfflineStyle.Render("offline")
	}
}

// renderHelpBar creates the bottom help bar with context-sensitive hints.
func (a *App) renderHelpBar() string {
	if a.status != "" {
		if a.statusErr {
			return a.styles.ErrorStyle.Render(a.status)
		}
		return a.styles.StatusStyle.Render(a.status)
	}

	// Input mode help
	if a.timelinePane.IsAdding() {
		return a.styles.RenderHelp(
			"enter", "next/save",
			"esc", "cancel",
		)
	}

	if a.habitsPane.IsAdding() {
		return a.styles.RenderHelp(
			"enter", "next/save",
			"esc", "cancel",
		)
	}

	// Normal mode help based on active pane
	switch a.activePane {
	case PaneTimeline:
		return a.styles.RenderHelp(
			"a", "add",
			"x", "del",
			"+/-", "resize",
			"h/l", "day",
			"tab", "pane",
			"?", "help",
		)
	case PaneTimer:
		return a.styles.RenderHelp(
			"space", "start/stop",
			"j/k", "nav",
			"tab", "pane",
			"?", "help",
		)
	case PaneHabits:
		return a.styles.RenderHelp(
			"a", "add",
			"space", "toggle",
			"x", "del",
			"j/k", "nav",
			"tab", "pane",
			"?", "help",
		)
	}

	return ""
}

// SetStatus sets a status message to display to the user.
func (a *App) SetStatus(msg string, isErr bool) {
	a.status = msg
	a.statusErr = isErr
	ttl := 5 * time.Second
	if isErr {
		ttl = 8 * time.Second
	}
	a.statusUntil = time.Now().Add(ttl)
}

// truncateText shortens text to at most n characters, ellipsized.
func truncateText(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	if n <= 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}

// Run starts the Bubble Tea program with the given store, sync engine,
// styles, and config. engine may be nil when sync is disabled.
func Run(s *store.Store, engine *sync.Engine, styles *Styles, cfg *AppConfig) error {
	app := NewApp(s, engine, styles, cfg)
	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(), // Enable mouse support
		tea.WithReportFocus(),     // Fetch-merge when the terminal regains focus
	)
	_, err := p.Run()
	return err
}
