// Package store owns the journal dataset: habits, groups, completions,
// time blocks and active timers, persisted as a single JSON document.
//
// The whole snapshot is read at startup and rewritten atomically after
// every accepted mutation; that keeps it the exact unit the reconciliation
// engine and the remote store exchange. All mutations go through named
// entry points on Store so the no-overlap and one-timer-per-habit
// invariants are enforced in one place.
package store

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/snagarohit/minimalhabits/internal/fsutil"
)

// JournalFile is the name of the dataset document inside the data dir.
const JournalFile = "journal.json"

const (
	dataDirPerm  os.FileMode = 0700
	dataFilePerm os.FileMode = 0600

	maxNameLen = 60
	maxIconLen = 12
)

// SaveContext describes a completed mutation for the save callback, so the
// sync layer can report what changed without diffing snapshots.
type SaveContext struct {
	Operation string // "insert-block", "start-timer", "reconcile", ...
	ItemType  string // "block", "timer", "habit", "group", "completion"
	ItemName  string
}

// Store is the single mutation entry point for the journal. It keeps the
// dataset in memory and mirrors every accepted change to disk.
type Store struct {
	mu      sync.Mutex
	dataDir string
	data    Dataset
	onSave  func(ctx SaveContext)
	now     func() time.Time
}

// Open loads (or initializes) the journal in dataDir. When a corrupt
// journal had to be recovered (from .bak or by resetting), the returned
// store is fully usable and the error describes the recovery; callers
// should surface it and continue. The store is nil only when no usable
// journal could be established.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{dataDir: dataDir, now: time.Now}
	notice, err := s.load()
	if err != nil {
		return nil, err
	}
	return s, notice
}

// SetNowFunc overrides the clock used by time-dependent operations.
// Passing nil resets it to time.Now.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

// Now returns the current time according to the store clock.
func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// SetOnSave registers a callback invoked after each successful write. The
// sync layer uses it to schedule the debounced remote write-back.
func (s *Store) SetOnSave(fn func(ctx SaveContext)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSave = fn
}

// DataDir returns the path of the data directory.
func (s *Store) DataDir() string {
	return s.dataDir
}

// JournalPath returns the path of the journal document.
func (s *Store) JournalPath() string {
	return filepath.Join(s.dataDir, JournalFile)
}

// Snapshot returns a deep copy of the current dataset.
func (s *Store) Snapshot() Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// ReplaceDataset swaps in a reconciled dataset and persists it. The input
// is normalized first: a merge of two internally-consistent snapshots can
// still contain overlapping blocks.
func (s *Store) ReplaceDataset(d Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.FillDefaults()
	d.TimeBlocks = Normalize(d.TimeBlocks)
	s.data = d
	return s.persistLocked(SaveContext{Operation: "reconcile", ItemType: "dataset"})
}

// ============================================================================
// Habits and groups
// ============================================================================

// AddHabit creates a new habit.
func (s *Store) AddHabit(name, icon, groupID string) (*Habit, error) {
	name = strings.TrimSpace(name)
	icon = strings.TrimSpace(icon)
	if name == "" {
		return nil, fmt.Errorf("habit name is required")
	}
	if len(name) > maxNameLen {
		return nil, fmt.Errorf("habit name too long (max %d)", maxNameLen)
	}
	if len(icon) > maxIconLen {
		return nil, fmt.Errorf("habit icon too long (max %d)", maxIconLen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if groupID != "" && !s.groupExistsLocked(groupID) {
		return nil, fmt.Errorf("group not found: %s", groupID)
	}

	id, err := newID("h")
	if err != nil {
		return nil, err
	}
	habit := Habit{ID: id, Name: name, Icon: icon, GroupID: groupID, CreatedAt: s.now()}
	s.data.Habits = append(s.data.Habits, habit)

	if err := s.persistLocked(SaveContext{Operation: "add", ItemType: "habit", ItemName: name}); err != nil {
		return nil, err
	}
	return &habit, nil
}

// DeleteHabit removes a habit together with its completions, blocks and
// any running timer.
func (s *Store) DeleteHabit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.data.Habits {
		if s.data.Habits[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("habit not found: %s", id)
	}
	name := s.data.Habits[idx].Name
	s.data.Habits = append(s.data.Habits[:idx], s.data.Habits[idx+1:]...)

	completions := s.data.Completions[:0]
	for _, c := range s.data.Completions {
		if c.HabitID != id {
			completions = append(completions, c)
		}
	}
	s.data.Completions = completions

	blocks := s.data.TimeBlocks[:0]
	for _, b := range s.data.TimeBlocks {
		if b.HabitID != id {
			blocks = append(blocks, b)
		}
	}
	s.data.TimeBlocks = blocks

	timers := s.data.ActiveTimers[:0]
	for _, at := range s.data.ActiveTimers {
		if at.HabitID != id {
			timers = append(timers, at)
		}
	}
	s.data.ActiveTimers = timers

	return s.persistLocked(SaveContext{Operation: "delete", ItemType: "habit", ItemName: name})
}

// AddGroup creates a new habit group.
func (s *Store) AddGroup(name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("group name is required")
	}
	if len(name) > maxNameLen {
		return nil, fmt.Errorf("group name too long (max %d)", maxNameLen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := newID("g")
	if err != nil {
		return nil, err
	}
	group := Group{ID: id, Name: name, CreatedAt: s.now()}
	s.data.Groups = append(s.data.Groups, group)

	if err := s.persistLocked(SaveContext{Operation: "add", ItemType: "group", ItemName: name}); err != nil {
		return nil, err
	}
	return &group, nil
}

// DeleteGroup removes a group; member habits become ungrouped.
func (s *Store) DeleteGroup(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.data.Groups {
		if s.data.Groups[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("group not found: %s", id)
	}
	name := s.data.Groups[idx].Name
	s.data.Groups = append(s.data.Groups[:idx], s.data.Groups[idx+1:]...)

	for i := range s.data.Habits {
		if s.data.Habits[i].GroupID == id {
			s.data.Habits[i].GroupID = ""
		}
	}

	return s.persistLocked(SaveContext{Operation: "delete", ItemType: "group", ItemName: name})
}

// ============================================================================
// Completions
// ============================================================================

// SetCompletion sets the completion value for a habit/date. Value 0 clears
// the mark; time blocks for the pair are unaffected.
func (s *Store) SetCompletion(habitID, date string, value int) error {
	if !ValidDate(date) {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	if value < 0 {
		return fmt.Errorf("completion value must be >= 0")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	habit, ok := s.data.HabitByID(habitID)
	if !ok {
		return fmt.Errorf("habit not found: %s", habitID)
	}

	out := s.data.Completions[:0]
	for _, c := range s.data.Completions {
		if c.HabitID == habitID && c.Date == date {
			continue
		}
		out = append(out, c)
	}
	s.data.Completions = out
	if value > 0 {
		s.data.Completions = append(s.data.Completions, Completion{HabitID: habitID, Date: date, Value: value})
	}

	return s.persistLocked(SaveContext{Operation: "mark", ItemType: "completion", ItemName: habit.Name})
}

// ToggleCompletion flips the completion mark for a habit/date and returns
// the new done state of the mark itself (ignoring time blocks).
func (s *Store) ToggleCompletion(habitID, date string) (bool, error) {
	s.mu.Lock()
	wasDone := s.data.CompletionValue(habitID, date) > 0
	s.mu.Unlock()

	value := 1
	if wasDone {
		value = 0
	}
	if err := s.SetCompletion(habitID, date, value); err != nil {
		return false, err
	}
	return !wasDone, nil
}

// ============================================================================
// Time blocks
// ============================================================================

// InsertBlock stores a new time block, absorbing any overlapping or
// touching neighbors through the incremental merge. Returns the stored
// block, whose span may be wider than requested.
func (s *Store) InsertBlock(habitID, date, start string, durationMinutes int) (*TimeBlock, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("block duration must be positive")
	}
	if !ValidDate(date) {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	startMin, err := parseClock(start)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	habit, ok := s.data.HabitByID(habitID)
	if !ok {
		return nil, fmt.Errorf("habit not found: %s", habitID)
	}

	id, err := newID("b")
	if err != nil {
		return nil, err
	}
	nb := TimeBlock{ID: id, HabitID: habitID, Date: date, Start: Clock(startMin), DurationMinutes: durationMinutes}
	s.data.TimeBlocks = MergeInsert(s.data.TimeBlocks, nb)

	if err := s.persistLocked(SaveContext{Operation: "insert-block", ItemType: "block", ItemName: habit.Name}); err != nil {
		return nil, err
	}

	stored, _ := s.blockByIDLocked(id)
	return &stored, nil
}

// RetimeBlock moves or resizes an existing block. The block keeps its ID
// and is re-merged against its neighbors at the new position.
func (s *Store) RetimeBlock(id, start string, durationMinutes int) (*TimeBlock, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("block duration must be positive")
	}
	startMin, err := parseClock(start)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blockByIDLocked(id)
	if !ok {
		return nil, fmt.Errorf("block not found: %s", id)
	}
	s.removeBlockLocked(id)
	b.Start = Clock(startMin)
	b.DurationMinutes = durationMinutes
	s.data.TimeBlocks = MergeInsert(s.data.TimeBlocks, b)

	if err := s.persistLocked(SaveContext{Operation: "retime-block", ItemType: "block", ItemName: b.HabitID}); err != nil {
		return nil, err
	}
	stored, _ := s.blockByIDLocked(id)
	return &stored, nil
}

// DeleteBlock removes a block by ID.
func (s *Store) DeleteBlock(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blockByIDLocked(id); !ok {
		return fmt.Errorf("block not found: %s", id)
	}
	s.removeBlockLocked(id)
	return s.persistLocked(SaveContext{Operation: "delete-block", ItemType: "block"})
}

func (s *Store) blockByIDLocked(id string) (TimeBlock, bool) {
	for _, b := range s.data.TimeBlocks {
		if b.ID == id {
			return b, true
		}
	}
	return TimeBlock{}, false
}

func (s *Store) removeBlockLocked(id string) {
	out := s.data.TimeBlocks[:0]
	for _, b := range s.data.TimeBlocks {
		if b.ID != id {
			out = append(out, b)
		}
	}
	s.data.TimeBlocks = out
}

func (s *Store) groupExistsLocked(id string) bool {
	for _, g := range s.data.Groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

// ============================================================================
// Persistence
// ============================================================================

// load reads the journal into memory. The notice is non-nil when a
// corrupt document was recovered; the store is still usable in that case.
// A non-nil err means no usable journal could be established.
func (s *Store) load() (notice, err error) {
	d := Dataset{}
	d.FillDefaults()

	path := s.JournalPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = d
			return nil, s.writeLocked()
		}
		return nil, fmt.Errorf("read %s: %w", JournalFile, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return s.recoverCorrupt(fmt.Errorf("%s is empty", JournalFile))
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return s.recoverCorrupt(fmt.Errorf("parse %s: %w", JournalFile, err))
	}

	// Older or inconsistent revisions may have written overlapping blocks
	// or duplicate timers; normalizing at load keeps the invariants true
	// from the first read on.
	d.FillDefaults()
	d.TimeBlocks = Normalize(d.TimeBlocks)
	d.ActiveTimers = DedupTimers(d.ActiveTimers)
	s.data = d
	return nil, nil
}

// recoverCorrupt tries the .bak sibling, then falls back to an empty
// journal, preserving the broken file for inspection either way. On
// success the recovered data is in memory and rewritten to disk, and the
// returned notice describes what happened.
func (s *Store) recoverCorrupt(cause error) (notice, err error) {
	path := s.JournalPath()
	d := Dataset{}
	d.FillDefaults()

	if bak, err := os.ReadFile(path + ".bak"); err == nil && len(bytes.TrimSpace(bak)) > 0 {
		var recovered Dataset
		if err := json.Unmarshal(bak, &recovered); err == nil {
			recovered.FillDefaults()
			recovered.TimeBlocks = Normalize(recovered.TimeBlocks)
			recovered.ActiveTimers = DedupTimers(recovered.ActiveTimers)
			s.quarantine(path)
			s.data = recovered
			if err := s.writeLocked(); err != nil {
				return nil, err
			}
			return fmt.Errorf("%s (recovered from %s.bak)", cause.Error(), JournalFile), nil
		}
	}

	corrupt := s.quarantine(path)
	s.data = d
	if err := s.writeLocked(); err != nil {
		return nil, err
	}
	return fmt.Errorf("%s (reset to empty journal; original moved to %s)", cause.Error(), corrupt), nil
}

func (s *Store) quarantine(path string) string {
	corrupt := fmt.Sprintf("%s.corrupt.%s", path, time.Now().Format("20060102-150405"))
	_ = os.Rename(path, corrupt)
	return corrupt
}

func (s *Store) persistLocked(ctx SaveContext) error {
	if err := s.writeLocked(); err != nil {
		return err
	}
	if s.onSave != nil {
		s.onSave(ctx)
	}
	return nil
}

func (s *Store) writeLocked() error {
	data, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize %s: %w", JournalFile, err)
	}
	path := s.JournalPath()
	fsutil.KeepBackup(path, dataFilePerm)
	if err := fsutil.WriteAtomic(path, data, dataFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", JournalFile, err)
	}
	return nil
}

func newID(prefix string) (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(b[:])), nil
}
