// Package ui provides terminal user interface components for the habits app.
// This file defines message types for async I/O operations using the Bubble Tea
// command pattern. All store operations should return these messages to keep
// the event loop non-blocking.
package ui

import (
	"github.com/snagarohit/minimalhabits/internal/store"
	"github.com/snagarohit/minimalhabits/internal/sync"
)

// =============================================================================
// Journal Messages
// =============================================================================

// journalLoadedMsg carries a fresh snapshot of the dataset. Every pane
// consumes it; mutations are followed by a reload so all panes see the
// same state.
type journalLoadedMsg struct {
	data store.Dataset
}

// =============================================================================
// Habit Messages
// =============================================================================

// habitAddedMsg is sent when a new habit is created.
type habitAddedMsg struct {
	habit *store.Habit
	err   error
}

// habitToggledMsg is sent when a habit's completion mark is toggled.
type habitToggledMsg struct {
	id   string
	name string
	date string // YYYY-MM-DD date toggled
	done bool
	err  error
}

// habitDeletedMsg is sent when a habit is removed.
type habitDeletedMsg struct {
	id   string
	name string
	err  error
}

// =============================================================================
// Time Block Messages
// =============================================================================

// blockInsertedMsg is sent when a new time block is stored. The block may
// be wider than requested when neighbors were absorbed.
type blockInsertedMsg struct {
	block *store.TimeBlock
	err   error
}

// blockRetimedMsg is sent when a block is moved or resized.
type blockRetimedMsg struct {
	block *store.TimeBlock
	err   error
}

// blockDeletedMsg is sent when a block is removed.
type blockDeletedMsg struct {
	id  string
	err error
}

// =============================================================================
// Timer Messages
// =============================================================================

// timerStartedMsg is sent when a timer is started for a habit.
type timerStartedMsg struct {
	habitID string
	name    string
	err     error
}

// timerStoppedMsg is sent when a habit's timer is stopped. block is the
// resulting time block, nil when no timer was running.
type timerStoppedMsg struct {
	habitID string
	block   *store.TimeBlock
	err     error
}

// =============================================================================
// Sync Messages
// =============================================================================

// syncStateMsg is sent when the sync engine state is refreshed.
type syncStateMsg struct {
	state sync.State
}

// fetchMergedMsg is sent when a fetch-and-merge round trip completes.
type fetchMergedMsg struct {
	changed bool
	err     error
}
