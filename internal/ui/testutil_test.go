package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/snagarohit/minimalhabits/internal/config"
	"github.com/snagarohit/minimalhabits/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// testNow is the fixed wall clock used by the UI tests: Mon Mar 10 2025, 14:30.
var testNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

var errTest = errors.New("boom")

// setupTest prepares the test environment for deterministic rendering.
// It disables colors to ensure consistent output across environments.
func setupTest(t *testing.T) {
	t.Helper()
	// Use ASCII profile to disable all color codes in output
	lipgloss.SetColorProfile(termenv.Ascii)
}

// createTestStore creates a Store backed by a temporary directory with a
// frozen clock.
func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	s.SetNowFunc(func() time.Time { return testNow })
	return s
}

// createTestStyles creates a default Styles instance for testing.
func createTestStyles() *Styles {
	return NewStylesFromTheme(&config.ThemeConfig{})
}

// loadSnapshot pushes the store's current dataset into a pane the same way
// the app does after a mutation.
func loadSnapshot(s *store.Store, panes ...interface{ Update(tea.Msg) tea.Cmd }) {
	msg := journalLoadedMsg{data: s.Snapshot()}
	for _, p := range panes {
		p.Update(msg)
	}
}
