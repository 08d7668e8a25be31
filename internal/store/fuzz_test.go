package store

import (
	"os"
	"path/filepath"
	"testing"
)

// FuzzJournalLoad tests that Open never panics on malformed journal
// documents and always leaves a loadable journal behind.
func FuzzJournalLoad(f *testing.F) {
	f.Add(`{"habits":[],"groups":[],"completions":[],"time_blocks":[],"active_timers":[]}`)
	f.Add(`{"habits":[{"id":"h1","name":"Reading","created_at":"2025-01-01T00:00:00Z"}]}`)
	f.Add(`{"time_blocks":[{"id":"b1","habit_id":"h1","date":"2025-03-10","start":"09:00","duration_minutes":45}]}`)
	f.Add(`{"time_blocks":[{"id":"b1","habit_id":"h1","date":"2025-03-10","start":"09:00","duration_minutes":45},{"id":"b2","habit_id":"h1","date":"2025-03-10","start":"09:30","duration_minutes":30}]}`)
	f.Add(`{}`)
	f.Add(``)
	f.Add(`null`)
	f.Add(`{`)
	f.Add(`[]`)
	f.Add(`{"habits":null,"time_blocks":null,"active_timers":null}`)
	f.Add(`{"time_blocks":[null]}`)
	f.Add(`{"extra":"field"}`)
	f.Add(`{"active_timers":[{"id":"t1","habit_id":"h1","started_at":"not a time"}]}`)

	f.Fuzz(func(t *testing.T, jsonData string) {
		dir := t.TempDir()
		path := filepath.Join(dir, JournalFile)
		if err := os.WriteFile(path, []byte(jsonData), dataFilePerm); err != nil {
			t.Skip("cannot write journal")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("Open panicked with journal %q: %v", jsonData, r)
			}
		}()

		// Open may report corruption, but it must still hand back a usable
		// store over a quarantined-and-rewritten journal.
		s, err := Open(dir)
		if s == nil {
			t.Fatalf("Open returned no store for journal %q: %v", jsonData, err)
		}
		assertNoOverlap(t, s.Snapshot().TimeBlocks)

		// The rewritten journal reopens cleanly.
		s, err = Open(dir)
		if err != nil {
			t.Fatalf("reopen failed after recovery: %v", err)
		}
		assertNoOverlap(t, s.Snapshot().TimeBlocks)
	})
}
