// Package ui provides terminal user interface components for the habits app.
// This file contains tea.Cmd factories that wrap store operations. These
// commands run I/O operations asynchronously to keep the Bubble Tea event
// loop responsive. Each command returns a corresponding message type defined
// in messages.go.
package ui

import (
	"context"

	"github.com/snagarohit/minimalhabits/internal/store"
	"github.com/snagarohit/minimalhabits/internal/sync"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// Journal Commands
// =============================================================================

// loadJournalCmd returns a command that snapshots the dataset.
func loadJournalCmd(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		return journalLoadedMsg{data: s.Snapshot()}
	}
}

// =============================================================================
// Habit Commands
// =============================================================================

// addHabitCmd returns a command that creates a new habit.
func addHabitCmd(s *store.Store, name, icon string) tea.Cmd {
	return func() tea.Msg {
		habit, err := s.AddHabit(name, icon, "")
		return habitAddedMsg{habit: habit, err: err}
	}
}

// toggleHabitCmd returns a command that toggles a habit's completion mark
// for the given date. Captures the habit name first for status messages.
func toggleHabitCmd(s *store.Store, id, date string) tea.Cmd {
	return func() tea.Msg {
		var name string
		data := s.Snapshot()
		if h, ok := data.HabitByID(id); ok {
			name = h.Name
		}

		done, err := s.ToggleCompletion(id, date)
		return habitToggledMsg{id: id, name: name, date: date, done: done, err: err}
	}
}

// deleteHabitCmd returns a command that removes a habit together with its
// completions, blocks and any running timer.
func deleteHabitCmd(s *store.Store, id string) tea.Cmd {
	return func() tea.Msg {
		var name string
		data := s.Snapshot()
		if h, ok := data.HabitByID(id); ok {
			name = h.Name
		}

		err := s.DeleteHabit(id)
		return habitDeletedMsg{id: id, name: name, err: err}
	}
}

// =============================================================================
// Time Block Commands
// =============================================================================

// insertBlockCmd returns a command that stores a new time block.
func insertBlockCmd(s *store.Store, habitID, date, start string, durationMinutes int) tea.Cmd {
	return func() tea.Msg {
		block, err := s.InsertBlock(habitID, date, start, durationMinutes)
		return blockInsertedMsg{block: block, err: err}
	}
}

// retimeBlockCmd returns a command that moves or resizes a block.
func retimeBlockCmd(s *store.Store, id, start string, durationMinutes int) tea.Cmd {
	return func() tea.Msg {
		block, err := s.RetimeBlock(id, start, durationMinutes)
		return blockRetimedMsg{block: block, err: err}
	}
}

// deleteBlockCmd returns a command that removes a block.
func deleteBlockCmd(s *store.Store, id string) tea.Cmd {
	return func() tea.Msg {
		err := s.DeleteBlock(id)
		return blockDeletedMsg{id: id, err: err}
	}
}

// =============================================================================
// Timer Commands
// =============================================================================

// startTimerCmd returns a command that starts (or adopts) the habit's timer
// at the current store clock.
func startTimerCmd(s *store.Store, habitID string) tea.Cmd {
	return func() tea.Msg {
		var name string
		data := s.Snapshot()
		if h, ok := data.HabitByID(habitID); ok {
			name = h.Name
		}

		now := s.Now()
		_, err := s.StartTimer(habitID, now.Format("2006-01-02"), now.Format("15:04"), now)
		return timerStartedMsg{habitID: habitID, name: name, err: err}
	}
}

// stopTimerCmd returns a command that stops the habit's timer, converting
// it to a time block.
func stopTimerCmd(s *store.Store, habitID string) tea.Cmd {
	return func() tea.Msg {
		block, err := s.StopTimer(habitID, s.Now())
		return timerStoppedMsg{habitID: habitID, block: block, err: err}
	}
}

// =============================================================================
// Sync Commands
// =============================================================================

// refreshSyncCmd returns a command that reads the sync engine state.
// Returns nil command if engine is nil (sync disabled).
func refreshSyncCmd(e *sync.Engine) tea.Cmd {
	if e == nil {
		return nil
	}
	return func() tea.Msg {
		return syncStateMsg{state: e.State()}
	}
}

// fetchMergeCmd returns a command that runs a fetch-and-merge round trip.
// Returns nil command if engine is nil (sync disabled).
func fetchMergeCmd(e *sync.Engine) tea.Cmd {
	if e == nil {
		return nil
	}
	return func() tea.Msg {
		changed, err := e.FetchMerge(context.Background())
		return fetchMergedMsg{changed: changed, err: err}
	}
}
