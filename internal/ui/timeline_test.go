package ui

import (
	"strings"
	"testing"

	"github.com/snagarohit/minimalhabits/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// addTestBlock inserts a block and fails the test on error.
func addTestBlock(t *testing.T, s *store.Store, habitID, date, start string, minutes int) *store.TimeBlock {
	t.Helper()
	b, err := s.InsertBlock(habitID, date, start, minutes)
	if err != nil {
		t.Fatalf("InsertBlock(%s %s): %v", date, start, err)
	}
	return b
}

// TestTimelinePane_ShowsToday verifies the pane opens on the current day.
func TestTimelinePane_ShowsToday(t *testing.T) {
	setupTest(t)
	p := NewTimelinePane(createTestStore(t), createTestStyles())

	if p.Date() != "2025-03-10" {
		t.Errorf("Expected pane to open on 2025-03-10, got %s", p.Date())
	}
}

// TestTimelinePane_RebuildDaySortsBlocks verifies day filtering and ordering.
func TestTimelinePane_RebuildDaySortsBlocks(t *testing.T) {
	setupTest(t)
	s := createTestStore(t)
	h, err := s.AddHabit("Reading", "", "")
	if err != nil {
		t.Fatalf("AddHabit: %v", err)
	}
	addTestBlock(t, s, h.ID, "2025-03-10", "10:00", 30)
	addTestBlock(t, s, h.ID, "2025-03-10", "09:00", 30)
	addTestBlock(t, s, h.ID, "2025-03-11", "08:00", 30) // different day

	p := NewTimelinePane(s, createTestStyles())
	loadSnapshot(s, p)

	if len(p.blocks) != 2 {
		t.Fatalf("Expected 2 blocks for the viewed day, got %d", len(p.blocks))
	}
	if p.blocks[0].Start != "09:00" || p.blocks[1].Start != "10:00" {
		t.Errorf("Expected blocks sorted by start, got %s then %s",
			p.blocks[0].Start, p.blocks[1].Start)
	}
}

// TestTimelinePane_SelectionSurvivesReload verifies the cursor follows the
// selected block's ID across snapshot reloads.
func TestTimelinePane_SelectionSurvivesReload(t *testing.T) {
	setupTest(t)
	s := createTestStore(t)
	h, err := s.AddHabit("Reading", "", "")
	if err != nil {
		t.Fatalf("AddHabit: %v", err)
	}
	first := addTestBlock(t, s, h.ID, "2025-03-10", "09:00", 30)
	second := addTestBlock(t, s, h.ID, "2025-03-10", "10:00", 30)

	p := NewTimelinePane(s, createTestStyles())
	loadSnapshot(s, p)

	p.cursor = 1
	if b, ok := p.SelectedBlock(); !ok || b.ID != second.ID {
		t.Fatal("Expected second block selected")
	}

	// Removing the first block must not change what is selected.
	if err := s.DeleteBlock(first.ID); err != nil {
		t.Fatalf("DeleteBlock: %v", err)
	}
	loadSnapshot(s, p)

	b, ok := p.SelectedBlock()
	if !ok || b.ID != second.ID {
		t.Errorf("Expected selection to follow block %s after reload", second.ID)
	}
}

// TestTimelinePane_DayNavigation verifies prev/next/today movement.
func TestTimelinePane_DayNavigation(t *testing.T) {
	setupTest(t)
	p := NewTimelinePane(createTestStore(t), createTestStyles())

	p.shiftDate(-1)
	if p.Date() != "2025-03-09" {
		t.Errorf("Expected 2025-03-09 after shifting back, got %s", p.Date())
	}

	p.shiftDate(-1)
	if p.Date() != "2025-03-08" {
		t.Errorf("Expected 2025-03-08, got %s", p.Date())
	}

	// The today key jumps back
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	if p.Date() != "2025-03-10" {
		t.Errorf("Expected today key to restore 2025-03-10, got %s", p.Date())
	}

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	if p.Date() != "2025-03-11" {
		t.Errorf("Expected next-day key to give 2025-03-11, got %s", p.Date())
	}
}

// TestTimelinePane_FindHabit verifies habit resolution by number and prefix.
func TestTimelinePane_FindHabit(t *testing.T) {
	setupTest(t)
	s := createTestStore(t)
	if _, err := s.AddHabit("Reading", "", ""); err != nil {
		t.Fatalf("AddHabit: %v", err)
	}
	if _, err := s.AddHabit("Running", "", ""); err != nil {
		t.Fatalf("AddHabit: %v", err)
	}

	p := NewTimelinePane(s, createTestStyles())
	loadSnapshot(s, p)

	tests := []struct {
		input string
		want  string
		found bool
	}{
		{"1", "Reading", true},
		{"2", "Running", true},
		{"read", "Reading", true},
		{"RUN", "Running", true},
		{"3", "", false},
		{"0", "", false},
		{"swimming", "", false},
	}

	for _, tc := range tests {
		h, ok := p.findHabit(tc.input)
		if ok != tc.found {
			t.Errorf("findHabit(%q): found = %v, want %v", tc.input, ok, tc.found)
			continue
		}
		if ok && h.Name != tc.want {
			t.Errorf("findHabit(%q) = %s, want %s", tc.input, h.Name, tc.want)
		}
	}
}

// TestTimelinePane_AddFlow walks the three-step block entry.
func TestTimelinePane_AddFlow(t *testing.T) {
	setupTest(t)
	s := createTestStore(t)
	if _, err := s.AddHabit("Reading", "", ""); err != nil {
		t.Fatalf("AddHabit: %v", err)
	}

	p := NewTimelinePane(s, createTestStyles())
	loadSnapshot(s, p)

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	if !p.IsAdding() {
		t.Fatal("Expected add mode after 'a'")
	}

	p.input.SetValue("Reading")
	p.advanceAddStep()
	if p.addStep != 1 {
		t.Fatalf("Expected start step, got %d", p.addStep)
	}

	p.input.SetValue("09:00")
	p.advanceAddStep()
	if p.addStep != 2 {
		t.Fatalf("Expected duration step, got %d", p.addStep)
	}

	p.input.SetValue("45")
	cmd := p.advanceAddStep()
	if cmd == nil {
		t.Fatal("Expected insert command after final step")
	}
	msg, ok := cmd().(blockInsertedMsg)
	if !ok || msg.err != nil {
		t.Fatalf("Expected successful blockInsertedMsg, got %#v", msg)
	}
	if msg.block.Start != "09:00" || msg.block.DurationMinutes != 45 {
		t.Errorf("Expected 09:00 +45m, got %s +%dm", msg.block.Start, msg.block.DurationMinutes)
	}
	if p.IsAdding() {
		t.Error("Expected add mode to reset after insert")
	}
}

// TestTimelinePane_AddWithoutHabitsIsNoop verifies 'a' needs at least one habit.
func TestTimelinePane_AddWithoutHabitsIsNoop(t *testing.T) {
	setupTest(t)
	p := NewTimelinePane(createTestStore(t), createTestStyles())

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	if p.IsAdding() {
		t.Error("Expected add mode to stay off with no habits")
	}
}

// TestTimelinePane_GrowShrink verifies resize keys adjust by one slot.
func TestTimelinePane_GrowShrink(t *testing.T) {
	setupTest(t)
	s := createTestStore(t)
	h, err := s.AddHabit("Reading", "", "")
	if err != nil {
		t.Fatalf("AddHabit: %v", err)
	}
	addTestBlock(t, s, h.ID, "2025-03-10", "09:00", 30)

	p := NewTimelinePane(s, createTestStyles())
	loadSnapshot(s, p)

	cmd := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})
	if cmd == nil {
		t.Fatal("Expected grow command")
	}
	if msg, ok := cmd().(blockRetimedMsg); !ok || msg.err != nil || msg.block.DurationMinutes != 45 {
		t.Fatalf("Expected block grown to 45m, got %#v", msg)
	}
	loadSnapshot(s, p)

	cmd = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	if cmd == nil {
		t.Fatal("Expected shrink command")
	}
	if msg, ok := cmd().(blockRetimedMsg); !ok || msg.err != nil || msg.block.DurationMinutes != 30 {
		t.Fatalf("Expected block shrunk to 30m, got %#v", msg)
	}
}

// TestTimelinePane_ViewShowsGrid verifies hour labels and day header render.
func TestTimelinePane_ViewShowsGrid(t *testing.T) {
	setupTest(t)
	s := createTestStore(t)
	h, err := s.AddHabit("Reading", "", "")
	if err != nil {
		t.Fatalf("AddHabit: %v", err)
	}
	addTestBlock(t, s, h.ID, "2025-03-10", "09:00", 60)

	p := NewTimelinePane(s, createTestStyles())
	p.SetSize(70, 24)
	loadSnapshot(s, p)

	view := p.View()
	for _, want := range []string{"TIMELINE", "00:00", "08:00", "16:00", "(today)", "1 block(s), 1h"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
	if !strings.Contains(view, "Mon, Mar 10 2025") {
		t.Error("Expected formatted day header")
	}
}

// TestFormatMinutes verifies duration formatting.
func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h"},
		{90, "1h 30m"},
		{150, "2h 30m"},
	}

	for _, tc := range tests {
		if got := formatMinutes(tc.minutes); got != tc.want {
			t.Errorf("formatMinutes(%d) = %s, want %s", tc.minutes, got, tc.want)
		}
	}
}
