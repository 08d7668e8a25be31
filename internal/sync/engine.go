// Package sync keeps the local journal and a remote blob in agreement.
// Local changes are pushed after a short debounce; fetch-and-merge pulls
// the remote snapshot, reconciles it with the current local one, and
// writes back only when the reconciled result adds something the remote
// did not have.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/snagarohit/minimalhabits/internal/reconcile"
	"github.com/snagarohit/minimalhabits/internal/remote"
	"github.com/snagarohit/minimalhabits/internal/store"
)

// Config holds sync configuration.
type Config struct {
	Enabled        bool   `yaml:"enabled"`
	Dir            string `yaml:"dir"`  // remote directory path
	Blob           string `yaml:"blob"` // blob name within the remote
	FetchOnStartup bool   `yaml:"fetch_on_startup"`
}

// DefaultConfig returns the default sync configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		Dir:            "",
		Blob:           store.JournalFile,
		FetchOnStartup: true,
	}
}

// Status is the sync state surfaced to the UI footer.
type Status int

const (
	StatusOffline Status = iota // sync disabled or no remote configured
	StatusSynced
	StatusPending // local changes queued, push not yet flushed
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	case StatusPending:
		return "pending"
	case StatusError:
		return "error"
	default:
		return "offline"
	}
}

// State is a point-in-time snapshot of the engine's status.
type State struct {
	Status     Status
	LastSyncAt time.Time
	LastErr    error
}

// Engine coordinates pushes and fetch-merges against one remote blob.
type Engine struct {
	remote   remote.Store
	blob     string
	snapshot func() store.Dataset
	apply    func(store.Dataset) error

	mu        gosync.Mutex
	handle    remote.Handle
	pushTimer *time.Timer
	state     State

	// Serializes remote operations and collapses overlapping
	// fetch-and-merge triggers onto a single in-flight call.
	flightMu gosync.Mutex
	flight   *flight

	// Debounce duration (configurable for testing)
	debounceDuration time.Duration
}

type flight struct {
	done    chan struct{}
	changed bool
	err     error
}

// New creates an engine bound to one blob on the remote. snapshot must
// return the current local dataset; apply installs a reconciled dataset
// locally.
func New(r remote.Store, blob string, snapshot func() store.Dataset, apply func(store.Dataset) error) *Engine {
	if blob == "" {
		blob = store.JournalFile
	}
	return &Engine{
		remote:           r,
		blob:             blob,
		snapshot:         snapshot,
		apply:            apply,
		debounceDuration: 2 * time.Second,
	}
}

// OnSave is the store's save callback. It schedules a debounced push;
// repeated saves within the window collapse into one push of whatever
// the snapshot holds when the timer fires. Reconcile writes are skipped
// since fetch-merge already wrote the result back.
func (e *Engine) OnSave(ctx store.SaveContext) {
	if e == nil || e.remote == nil {
		return
	}
	if ctx.Operation == "reconcile" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Status = StatusPending
	if e.pushTimer != nil {
		e.pushTimer.Stop()
	}
	e.pushTimer = time.AfterFunc(e.debounceDuration, func() {
		_ = e.Push(context.Background())
	})
}

// Flush pushes any pending snapshot immediately.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	if e.pushTimer != nil {
		e.pushTimer.Stop()
		e.pushTimer = nil
	}
	pending := e.state.Status == StatusPending
	e.mu.Unlock()

	if !pending {
		return nil
	}
	return e.Push(ctx)
}

// Push writes the current local snapshot to the remote blob, creating
// it on first use. Local state is never modified.
func (e *Engine) Push(ctx context.Context) error {
	if e.remote == nil {
		return fmt.Errorf("no remote configured")
	}

	data, err := json.MarshalIndent(e.snapshot(), "", "  ")
	if err != nil {
		return e.fail(fmt.Errorf("failed to encode snapshot: %w", err))
	}
	if err := e.write(ctx, data); err != nil {
		return e.fail(err)
	}
	e.ok()
	return nil
}

// FetchMerge reads the remote blob, reconciles it with the current local
// snapshot, installs the result locally, and writes it back to the remote
// when reconciliation added anything. Overlapping calls share one
// operation and its outcome. A missing blob is seeded from local data.
func (e *Engine) FetchMerge(ctx context.Context) (bool, error) {
	if e.remote == nil {
		return false, fmt.Errorf("no remote configured")
	}

	e.flightMu.Lock()
	if f := e.flight; f != nil {
		e.flightMu.Unlock()
		<-f.done
		return f.changed, f.err
	}
	f := &flight{done: make(chan struct{})}
	e.flight = f
	e.flightMu.Unlock()

	f.changed, f.err = e.fetchMerge(ctx)

	e.flightMu.Lock()
	e.flight = nil
	e.flightMu.Unlock()
	close(f.done)

	return f.changed, f.err
}

func (e *Engine) fetchMerge(ctx context.Context) (bool, error) {
	h, err := e.findHandle(ctx)
	if errors.Is(err, remote.ErrNotFound) {
		if err := e.Push(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, e.fail(err)
	}

	data, err := e.remote.Read(ctx, h)
	if err != nil {
		return false, e.fail(fmt.Errorf("failed to fetch remote journal: %w", err))
	}

	var theirs store.Dataset
	if err := json.Unmarshal(data, &theirs); err != nil {
		return false, e.fail(fmt.Errorf("remote journal is not valid JSON: %w", err))
	}
	theirs.FillDefaults()

	// The local snapshot is read here, after the fetch resolved, so
	// changes made while the read was in flight are not lost.
	merged, changed := reconcile.Merge(e.snapshot(), theirs)

	if e.apply != nil {
		if err := e.apply(merged); err != nil {
			return false, e.fail(fmt.Errorf("failed to install merged journal: %w", err))
		}
	}

	if changed {
		out, err := json.MarshalIndent(merged, "", "  ")
		if err != nil {
			return false, e.fail(fmt.Errorf("failed to encode merged journal: %w", err))
		}
		if err := e.remote.Update(ctx, h, out); err != nil {
			return false, e.fail(fmt.Errorf("failed to write back merged journal: %w", err))
		}
	}

	e.ok()
	return changed, nil
}

// State returns the current sync status.
func (e *Engine) State() State {
	if e == nil || e.remote == nil {
		return State{Status: StatusOffline}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// write updates the blob, creating it when it does not exist yet.
func (e *Engine) write(ctx context.Context, data []byte) error {
	h, err := e.findHandle(ctx)
	if errors.Is(err, remote.ErrNotFound) {
		h, err = e.remote.Create(ctx, e.blob, data)
		if err != nil {
			return fmt.Errorf("failed to create remote journal: %w", err)
		}
		e.setHandle(h)
		return nil
	}
	if err != nil {
		return err
	}
	if err := e.remote.Update(ctx, h, data); err != nil {
		return fmt.Errorf("failed to push journal: %w", err)
	}
	return nil
}

// findHandle resolves the blob handle, caching it across operations.
func (e *Engine) findHandle(ctx context.Context) (remote.Handle, error) {
	e.mu.Lock()
	h := e.handle
	e.mu.Unlock()
	if h != "" {
		return h, nil
	}

	h, err := e.remote.Find(ctx, e.blob)
	if err != nil {
		return "", err
	}
	e.setHandle(h)
	return h, nil
}

func (e *Engine) setHandle(h remote.Handle) {
	e.mu.Lock()
	e.handle = h
	e.mu.Unlock()
}

func (e *Engine) ok() {
	e.mu.Lock()
	e.state = State{Status: StatusSynced, LastSyncAt: time.Now()}
	e.mu.Unlock()
}

func (e *Engine) fail(err error) error {
	e.mu.Lock()
	e.state.Status = StatusError
	e.state.LastErr = err
	e.mu.Unlock()
	return err
}
