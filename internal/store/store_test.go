package store

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestOpen_InitializesJournal(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, JournalFile)); err != nil {
		t.Fatalf("journal file not created: %v", err)
	}

	d := s.Snapshot()
	if d.Habits == nil || d.Groups == nil || d.Completions == nil ||
		d.TimeBlocks == nil || d.ActiveTimers == nil {
		t.Error("empty journal must have all collections non-nil")
	}
}

func TestOpen_ToleratesMissingFields(t *testing.T) {
	dir := t.TempDir()
	// An older-schema document with most fields absent.
	old := `{"habits":[{"id":"h1","name":"Read"}]}`
	if err := os.WriteFile(filepath.Join(dir, JournalFile), []byte(old), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	d := s.Snapshot()
	if len(d.Habits) != 1 {
		t.Fatalf("len(Habits) = %d, want 1", len(d.Habits))
	}
	if d.TimeBlocks == nil || d.ActiveTimers == nil || d.Completions == nil || d.Groups == nil {
		t.Error("missing collections must default to empty, not nil")
	}
}

func TestOpen_NormalizesDirtyInput(t *testing.T) {
	dir := t.TempDir()
	// Written by a buggy revision: overlapping blocks, duplicate timers.
	dirty := `{
	  "habits": [{"id": "h1", "name": "Read"}],
	  "time_blocks": [
	    {"id": "b1", "habit_id": "h1", "date": "2025-03-01", "start": "09:00", "duration_minutes": 30},
	    {"id": "b2", "habit_id": "h1", "date": "2025-03-01", "start": "09:25", "duration_minutes": 30}
	  ],
	  "active_timers": [
	    {"id": "t1", "habit_id": "h1", "date": "2025-03-01", "start": "10:00", "started_at": "2025-03-01T10:00:00Z"},
	    {"id": "t2", "habit_id": "h1", "date": "2025-03-01", "start": "11:00", "started_at": "2025-03-01T11:00:00Z"}
	  ]
	}`
	if err := os.WriteFile(filepath.Join(dir, JournalFile), []byte(dirty), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	d := s.Snapshot()

	if len(d.TimeBlocks) != 1 {
		t.Fatalf("len(TimeBlocks) = %d, want 1 after normalization", len(d.TimeBlocks))
	}
	if d.TimeBlocks[0].ID != "b1" || d.TimeBlocks[0].DurationMinutes != 55 {
		t.Errorf("normalized block = %+v, want b1 09:00+55m", d.TimeBlocks[0])
	}
	if len(d.ActiveTimers) != 1 || d.ActiveTimers[0].ID != "t1" {
		t.Errorf("timers = %+v, want only t1 (earlier start wins)", d.ActiveTimers)
	}
}

func TestOpen_RecoversFromCorruptJournal(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := s.AddHabit("Read", "", ""); err != nil {
		t.Fatalf("AddHabit() error = %v", err)
	}

	// The write above left a .bak from the pre-mutation state; mutate once
	// more so the .bak contains the habit.
	if _, err := s.AddGroup("Morning"); err != nil {
		t.Fatalf("AddGroup() error = %v", err)
	}

	// Corrupt the journal.
	if err := os.WriteFile(filepath.Join(dir, JournalFile), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	// The recovery notice comes back alongside a usable store; the run
	// continues with the .bak data.
	s2, err := Open(dir)
	if err == nil {
		t.Fatal("Open() expected recovery notice for corrupt journal")
	}
	if s2 == nil {
		t.Fatal("Open() must return the recovered store alongside the notice")
	}
	d := s2.Snapshot()
	if len(d.Habits) != 1 {
		t.Errorf("len(Habits) = %d, want 1 recovered from .bak", len(d.Habits))
	}

	// The recovered store accepts mutations immediately.
	if _, err := s2.AddHabit("Write", "", ""); err != nil {
		t.Fatalf("AddHabit() on recovered store error = %v", err)
	}

	// A reopen against the rewritten journal is clean.
	s3, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if got := len(s3.Snapshot().Habits); got != 2 {
		t.Errorf("len(Habits) after reopen = %d, want 2", got)
	}
}

func TestOpen_ResetsWhenNoBackupUsable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, JournalFile), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := Open(dir)
	if err == nil {
		t.Fatal("Open() expected reset notice for corrupt journal without .bak")
	}
	if s == nil {
		t.Fatal("Open() must return a usable store after the reset")
	}
	d := s.Snapshot()
	if len(d.Habits) != 0 || len(d.TimeBlocks) != 0 {
		t.Errorf("reset journal not empty: %+v", d)
	}
	if _, err := s.AddHabit("Read", "", ""); err != nil {
		t.Fatalf("AddHabit() on reset store error = %v", err)
	}
}

func TestInsertBlock_Validation(t *testing.T) {
	s := createTestStore(t)
	h := addTestHabit(t, s, "Read")

	if _, err := s.InsertBlock(h.ID, testDay, "09:00", 0); err == nil {
		t.Error("InsertBlock() expected error for zero duration")
	}
	if _, err := s.InsertBlock(h.ID, testDay, "09:00", -15); err == nil {
		t.Error("InsertBlock() expected error for negative duration")
	}
	if _, err := s.InsertBlock(h.ID, "not-a-date", "09:00", 15); err == nil {
		t.Error("InsertBlock() expected error for bad date")
	}
	if _, err := s.InsertBlock(h.ID, testDay, "25:00", 15); err == nil {
		t.Error("InsertBlock() expected error for bad start time")
	}
	if _, err := s.InsertBlock("missing", testDay, "09:00", 15); err == nil {
		t.Error("InsertBlock() expected error for unknown habit")
	}

	// No partial mutation from any rejected insert.
	if d := s.Snapshot(); len(d.TimeBlocks) != 0 {
		t.Errorf("len(TimeBlocks) = %d, want 0 after rejected inserts", len(d.TimeBlocks))
	}
}

func TestInsertBlock_CanonicalizesStart(t *testing.T) {
	s := createTestStore(t)
	h := addTestHabit(t, s, "Read")

	// Unpadded input is accepted but stored zero-padded, so snapshots
	// compare equal regardless of how the time was typed.
	b, err := s.InsertBlock(h.ID, testDay, "9:05", 40)
	if err != nil {
		t.Fatalf("InsertBlock() error = %v", err)
	}
	if b.Start != "09:05" {
		t.Errorf("Start = %q, want %q", b.Start, "09:05")
	}

	b2, err := s.RetimeBlock(b.ID, "7:30", 30)
	if err != nil {
		t.Fatalf("RetimeBlock() error = %v", err)
	}
	if b2.Start != "07:30" {
		t.Errorf("Start after retime = %q, want %q", b2.Start, "07:30")
	}

	// Trailing garbage is not a clock time.
	if _, err := s.InsertBlock(h.ID, testDay, "09:30xyz", 15); err == nil {
		t.Error("InsertBlock() expected error for trailing garbage in start")
	}
	if _, err := s.RetimeBlock(b.ID, "07:30pm", 15); err == nil {
		t.Error("RetimeBlock() expected error for trailing garbage in start")
	}
}

func TestInsertBlock_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, _ := Open(dir)
	h, _ := s.AddHabit("Read", "", "")
	b, err := s.InsertBlock(h.ID, testDay, "09:00", 45)
	if err != nil {
		t.Fatalf("InsertBlock() error = %v", err)
	}

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	d := s2.Snapshot()
	if len(d.TimeBlocks) != 1 || d.TimeBlocks[0].ID != b.ID {
		t.Errorf("persisted blocks = %+v, want [%s]", d.TimeBlocks, b.ID)
	}
}

func TestRetimeBlock(t *testing.T) {
	s := createTestStore(t)
	h := addTestHabit(t, s, "Read")

	b, _ := s.InsertBlock(h.ID, testDay, "09:00", 30)
	s.InsertBlock(h.ID, testDay, "11:00", 30)

	got, err := s.RetimeBlock(b.ID, "10:45", 30)
	if err != nil {
		t.Fatalf("RetimeBlock() error = %v", err)
	}
	// Moved against the 11:00 neighbor: touches, merges, keeps the moved ID.
	if got.ID != b.ID || got.Start != "10:45" || got.DurationMinutes != 45 {
		t.Errorf("retimed block = %+v, want %s 10:45+45m", got, b.ID)
	}
	if d := s.Snapshot(); len(d.TimeBlocks) != 1 {
		t.Errorf("len(TimeBlocks) = %d, want 1 after merge", len(d.TimeBlocks))
	}
}

func TestDeleteBlock(t *testing.T) {
	s := createTestStore(t)
	h := addTestHabit(t, s, "Read")

	b, _ := s.InsertBlock(h.ID, testDay, "09:00", 30)
	if err := s.DeleteBlock(b.ID); err != nil {
		t.Fatalf("DeleteBlock() error = %v", err)
	}
	if err := s.DeleteBlock(b.ID); err == nil {
		t.Error("DeleteBlock() expected error for missing block")
	}
}

func TestSetCompletion_AndDoneRule(t *testing.T) {
	s := createTestStore(t)
	h := addTestHabit(t, s, "Read")

	d := s.Snapshot()
	if d.IsDone(h.ID, testDay) {
		t.Error("IsDone() = true for untouched habit")
	}

	// A positive completion marks done.
	if err := s.SetCompletion(h.ID, testDay, 1); err != nil {
		t.Fatalf("SetCompletion() error = %v", err)
	}
	if d = s.Snapshot(); !d.IsDone(h.ID, testDay) {
		t.Error("IsDone() = false after completion mark")
	}

	// Clearing the mark with a block present keeps it done: the done rule
	// is completion OR at least one block.
	s.InsertBlock(h.ID, testDay, "09:00", 15)
	if err := s.SetCompletion(h.ID, testDay, 0); err != nil {
		t.Fatalf("SetCompletion() error = %v", err)
	}
	d = s.Snapshot()
	if d.CompletionValue(h.ID, testDay) != 0 {
		t.Error("completion mark not cleared")
	}
	if !d.IsDone(h.ID, testDay) {
		t.Error("IsDone() = false with a time block present")
	}
}

func TestToggleCompletion(t *testing.T) {
	s := createTestStore(t)
	h := addTestHabit(t, s, "Read")

	done, err := s.ToggleCompletion(h.ID, testDay)
	if err != nil || !done {
		t.Fatalf("ToggleCompletion() = %v, %v; want true, nil", done, err)
	}
	done, err = s.ToggleCompletion(h.ID, testDay)
	if err != nil || done {
		t.Fatalf("ToggleCompletion() = %v, %v; want false, nil", done, err)
	}
}

func TestDeleteHabit_CascadesEverything(t *testing.T) {
	s := createTestStore(t)
	h := addTestHabit(t, s, "Read")
	keep := addTestHabit(t, s, "Run")

	s.InsertBlock(h.ID, testDay, "09:00", 30)
	s.InsertBlock(keep.ID, testDay, "09:00", 30)
	s.SetCompletion(h.ID, testDay, 1)
	s.StartTimer(h.ID, testDay, "12:00", at("12:00"))

	if err := s.DeleteHabit(h.ID); err != nil {
		t.Fatalf("DeleteHabit() error = %v", err)
	}

	d := s.Snapshot()
	if len(d.Habits) != 1 {
		t.Errorf("len(Habits) = %d, want 1", len(d.Habits))
	}
	for _, b := range d.TimeBlocks {
		if b.HabitID == h.ID {
			t.Error("blocks of deleted habit must be removed")
		}
	}
	if len(d.Completions) != 0 {
		t.Errorf("len(Completions) = %d, want 0", len(d.Completions))
	}
	if len(d.ActiveTimers) != 0 {
		t.Errorf("len(ActiveTimers) = %d, want 0", len(d.ActiveTimers))
	}
}

func TestGroups(t *testing.T) {
	s := createTestStore(t)

	g, err := s.AddGroup("Morning")
	if err != nil {
		t.Fatalf("AddGroup() error = %v", err)
	}
	h, err := s.AddHabit("Read", "", g.ID)
	if err != nil {
		t.Fatalf("AddHabit() error = %v", err)
	}
	if _, err := s.AddHabit("Run", "", "missing"); err == nil {
		t.Error("AddHabit() expected error for unknown group")
	}

	if err := s.DeleteGroup(g.ID); err != nil {
		t.Fatalf("DeleteGroup() error = %v", err)
	}
	d := s.Snapshot()
	got, _ := d.HabitByID(h.ID)
	if got.GroupID != "" {
		t.Errorf("habit GroupID = %q, want cleared after group delete", got.GroupID)
	}
}

func TestReplaceDataset_Normalizes(t *testing.T) {
	s := createTestStore(t)

	d := Dataset{
		Habits: []Habit{{ID: "h1", Name: "Read"}},
		TimeBlocks: []TimeBlock{
			block("b1", "h1", testDay, "09:00", 30),
			block("b2", "h1", testDay, "09:15", 30),
		},
	}
	if err := s.ReplaceDataset(d); err != nil {
		t.Fatalf("ReplaceDataset() error = %v", err)
	}

	got := s.Snapshot()
	if len(got.TimeBlocks) != 1 {
		t.Fatalf("len(TimeBlocks) = %d, want 1", len(got.TimeBlocks))
	}
	if got.Groups == nil || got.Completions == nil || got.ActiveTimers == nil {
		t.Error("ReplaceDataset must fill missing collections")
	}
}

func TestOnSaveCallback(t *testing.T) {
	s := createTestStore(t)

	var ops []string
	s.SetOnSave(func(ctx SaveContext) { ops = append(ops, ctx.Operation) })

	h, _ := s.AddHabit("Read", "", "")
	s.InsertBlock(h.ID, testDay, "09:00", 15)
	s.StartTimer(h.ID, testDay, "10:00", at("10:00"))
	s.StopTimer(h.ID, at("10:20"))

	want := []string{"add", "insert-block", "start-timer", "stop-timer"}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, ops[i], want[i])
		}
	}
}

func TestJournalPermissionsArePrivate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions are not meaningful on Windows")
	}

	dir := t.TempDir()
	if _, err := Open(dir); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, JournalFile))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm()&0o077 != 0 {
		t.Fatalf("journal permissions = %o, want no group/other bits", info.Mode().Perm())
	}
}
