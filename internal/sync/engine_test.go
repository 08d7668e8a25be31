package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"testing"
	"time"

	"github.com/snagarohit/minimalhabits/internal/remote"
	"github.com/snagarohit/minimalhabits/internal/store"
)

// fakeRemote is an in-memory remote.Store with counters and failure
// injection for exercising the engine without touching the filesystem.
type fakeRemote struct {
	mu    gosync.Mutex
	blobs map[string][]byte

	reads, updates, creates int

	readStarted chan struct{} // closed when the first Read begins
	readGate    chan struct{} // when non-nil, Read blocks until closed
	readErr     error
	updateErr   error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{blobs: map[string][]byte{}}
}

func (f *fakeRemote) Find(_ context.Context, name string) (remote.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blobs[name]; !ok {
		return "", remote.ErrNotFound
	}
	return remote.Handle(name), nil
}

func (f *fakeRemote) Create(_ context.Context, name string, data []byte) (remote.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blobs[name]; ok {
		return "", fmt.Errorf("blob %s already exists", name)
	}
	f.creates++
	f.blobs[name] = append([]byte(nil), data...)
	return remote.Handle(name), nil
}

func (f *fakeRemote) Update(_ context.Context, h remote.Handle, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.blobs[string(h)]; !ok {
		return remote.ErrNotFound
	}
	f.updates++
	f.blobs[string(h)] = append([]byte(nil), data...)
	return nil
}

func (f *fakeRemote) Read(_ context.Context, h remote.Handle) ([]byte, error) {
	f.mu.Lock()
	started := f.readStarted
	gate := f.readGate
	f.readStarted = nil
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	data, ok := f.blobs[string(h)]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// localState stands in for the store: a snapshot source and an apply sink.
type localState struct {
	mu   gosync.Mutex
	data store.Dataset

	applied int
}

func (l *localState) snapshot() store.Dataset {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.Clone()
}

func (l *localState) apply(d store.Dataset) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data = d
	l.applied++
	return nil
}

func dataset(habitIDs ...string) store.Dataset {
	var d store.Dataset
	d.FillDefaults()
	for _, id := range habitIDs {
		d.Habits = append(d.Habits, store.Habit{ID: id, Name: "habit " + id})
	}
	return d
}

func newTestEngine(r remote.Store, local *localState) *Engine {
	e := New(r, "journal.json", local.snapshot, local.apply)
	e.debounceDuration = 20 * time.Millisecond
	return e
}

func TestPush_CreatesThenUpdates(t *testing.T) {
	fr := newFakeRemote()
	local := &localState{data: dataset("h1")}
	e := newTestEngine(fr, local)

	if err := e.Push(context.Background()); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if fr.creates != 1 || fr.updates != 0 {
		t.Errorf("first push: creates=%d updates=%d, want 1/0", fr.creates, fr.updates)
	}

	if err := e.Push(context.Background()); err != nil {
		t.Fatalf("second Push() error = %v", err)
	}
	if fr.creates != 1 || fr.updates != 1 {
		t.Errorf("second push: creates=%d updates=%d, want 1/1", fr.creates, fr.updates)
	}
	if st := e.State(); st.Status != StatusSynced {
		t.Errorf("status = %v, want synced", st.Status)
	}
}

func TestOnSave_DebouncesIntoOnePush(t *testing.T) {
	fr := newFakeRemote()
	local := &localState{data: dataset("h1")}
	e := newTestEngine(fr, local)

	for i := 0; i < 5; i++ {
		e.OnSave(store.SaveContext{Operation: "insert-block"})
	}
	if st := e.State(); st.Status != StatusPending {
		t.Errorf("status during debounce = %v, want pending", st.Status)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		fr.mu.Lock()
		n := fr.creates + fr.updates
		fr.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	fr.mu.Lock()
	total := fr.creates + fr.updates
	fr.mu.Unlock()
	if total != 1 {
		t.Errorf("writes after debounce = %d, want 1", total)
	}
}

func TestOnSave_IgnoresReconcileWrites(t *testing.T) {
	fr := newFakeRemote()
	local := &localState{data: dataset("h1")}
	e := newTestEngine(fr, local)

	e.OnSave(store.SaveContext{Operation: "reconcile"})
	if st := e.State(); st.Status == StatusPending {
		t.Error("reconcile save scheduled a push")
	}
}

func TestFlush_PushesImmediately(t *testing.T) {
	fr := newFakeRemote()
	local := &localState{data: dataset("h1")}
	e := New(fr, "journal.json", local.snapshot, local.apply)
	e.debounceDuration = time.Hour

	e.OnSave(store.SaveContext{Operation: "add"})
	if err := e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if fr.creates != 1 {
		t.Errorf("creates = %d, want 1", fr.creates)
	}

	// Nothing pending: flush is a no-op.
	if err := e.Flush(context.Background()); err != nil {
		t.Fatalf("idle Flush() error = %v", err)
	}
	if fr.creates+fr.updates != 1 {
		t.Errorf("idle flush wrote to the remote")
	}
}

func TestFetchMerge_SeedsMissingRemote(t *testing.T) {
	fr := newFakeRemote()
	local := &localState{data: dataset("h1")}
	e := newTestEngine(fr, local)

	changed, err := e.FetchMerge(context.Background())
	if err != nil {
		t.Fatalf("FetchMerge() error = %v", err)
	}
	if !changed {
		t.Error("changed = false when seeding an empty remote")
	}
	if fr.creates != 1 {
		t.Errorf("creates = %d, want 1", fr.creates)
	}
	if local.applied != 0 {
		t.Errorf("apply called %d times while seeding, want 0", local.applied)
	}
}

func TestFetchMerge_MergesAndWritesBack(t *testing.T) {
	fr := newFakeRemote()
	remoteLocal := &localState{data: dataset("h2")}
	seed := newTestEngine(fr, remoteLocal)
	if err := seed.Push(context.Background()); err != nil {
		t.Fatalf("seed Push() error = %v", err)
	}

	local := &localState{data: dataset("h1")}
	e := newTestEngine(fr, local)

	changed, err := e.FetchMerge(context.Background())
	if err != nil {
		t.Fatalf("FetchMerge() error = %v", err)
	}
	if !changed {
		t.Error("changed = false, want true: local habit was new to the remote")
	}
	if local.applied != 1 {
		t.Fatalf("apply called %d times, want 1", local.applied)
	}
	got := local.snapshot()
	if len(got.Habits) != 2 {
		t.Errorf("merged habits = %d, want 2", len(got.Habits))
	}
	if fr.updates != 1 {
		t.Errorf("write-backs = %d, want 1", fr.updates)
	}
}

func TestFetchMerge_NoWriteBackWhenRemoteAlreadyComplete(t *testing.T) {
	fr := newFakeRemote()
	remoteLocal := &localState{data: dataset("h1", "h2")}
	seed := newTestEngine(fr, remoteLocal)
	if err := seed.Push(context.Background()); err != nil {
		t.Fatalf("seed Push() error = %v", err)
	}
	fr.mu.Lock()
	fr.updates = 0
	fr.mu.Unlock()

	local := &localState{data: dataset("h1")}
	e := newTestEngine(fr, local)

	changed, err := e.FetchMerge(context.Background())
	if err != nil {
		t.Fatalf("FetchMerge() error = %v", err)
	}
	if changed {
		t.Error("changed = true for a remote superset")
	}
	if fr.updates != 0 {
		t.Errorf("write-backs = %d, want 0", fr.updates)
	}
	if got := local.snapshot(); len(got.Habits) != 2 {
		t.Errorf("merged habits = %d, want 2 installed locally", len(got.Habits))
	}
}

func TestFetchMerge_SingleFlight(t *testing.T) {
	fr := newFakeRemote()
	remoteLocal := &localState{data: dataset("h1")}
	seed := newTestEngine(fr, remoteLocal)
	if err := seed.Push(context.Background()); err != nil {
		t.Fatalf("seed Push() error = %v", err)
	}

	started := make(chan struct{})
	gate := make(chan struct{})
	fr.mu.Lock()
	fr.readStarted = started
	fr.readGate = gate
	fr.mu.Unlock()

	local := &localState{data: dataset("h1")}
	e := newTestEngine(fr, local)

	var wg gosync.WaitGroup
	results := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, results[0] = e.FetchMerge(context.Background())
	}()
	<-started // the first call is inside Read and owns the flight

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, results[1] = e.FetchMerge(context.Background())
	}()
	time.Sleep(20 * time.Millisecond) // let the second call reach the flight check
	close(gate)
	wg.Wait()

	for i, err := range results {
		if err != nil {
			t.Errorf("call %d error = %v", i, err)
		}
	}
	fr.mu.Lock()
	reads := fr.reads
	fr.mu.Unlock()
	if reads != 1 {
		t.Errorf("remote reads = %d, want 1: overlapping calls must share one flight", reads)
	}
}

func TestFetchMerge_RemoteFailureLeavesLocalAlone(t *testing.T) {
	fr := newFakeRemote()
	remoteLocal := &localState{data: dataset("h1")}
	seed := newTestEngine(fr, remoteLocal)
	if err := seed.Push(context.Background()); err != nil {
		t.Fatalf("seed Push() error = %v", err)
	}
	fr.mu.Lock()
	fr.readErr = errors.New("connection reset")
	fr.mu.Unlock()

	local := &localState{data: dataset("h1", "h2")}
	e := newTestEngine(fr, local)

	if _, err := e.FetchMerge(context.Background()); err == nil {
		t.Fatal("FetchMerge() error = nil, want failure")
	}
	if local.applied != 0 {
		t.Errorf("apply called %d times on a failed fetch, want 0", local.applied)
	}
	if st := e.State(); st.Status != StatusError || st.LastErr == nil {
		t.Errorf("state = %+v, want error status with cause", st)
	}
}

func TestState_OfflineWithoutRemote(t *testing.T) {
	local := &localState{data: dataset()}
	e := New(nil, "journal.json", local.snapshot, local.apply)
	if st := e.State(); st.Status != StatusOffline {
		t.Errorf("status = %v, want offline", st.Status)
	}
	e.OnSave(store.SaveContext{Operation: "add"}) // must not panic or schedule
	if st := e.State(); st.Status != StatusOffline {
		t.Errorf("status after save = %v, want offline", st.Status)
	}
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		StatusOffline: "offline",
		StatusSynced:  "synced",
		StatusPending: "pending",
		StatusError:   "error",
	}
	for st, want := range cases {
		if got := st.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", st, got, want)
		}
	}
}
