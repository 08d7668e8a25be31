// Package reconcile merges two full journal snapshots (the device-local
// copy and the remote backup) into one consistent dataset. The merge is
// deterministic and lossless: entries present on either side survive, and
// key collisions resolve by fixed policy, never by argument order alone.
//
// Precedence rules per entity type:
//
//   - habits, groups (by ID) and completions (by habit+date): the remote
//     entry wins on collision, local-only keys are added. Merge(A, B) and
//     Merge(B, A) therefore keep the same key sets, with field content
//     following whichever side is passed as remote.
//   - time blocks: union by ID (remote wins on collision), then the bulk
//     normalization pass, since two internally-consistent sources can still
//     produce overlapping blocks for the same habit/day once combined.
//   - active timers: keyed by habit, the earlier wall-clock start wins
//     regardless of source (ID breaks exact ties), so this rule is
//     symmetric by value.
package reconcile

import (
	"sort"

	"github.com/snagarohit/minimalhabits/internal/store"
)

// Merge combines local and remote into one snapshot. changed reports
// whether the result differs from remote, which is what the caller needs
// to decide on a write-back.
func Merge(local, remote store.Dataset) (store.Dataset, bool) {
	local = local.Clone()
	remote = remote.Clone()

	out := store.Dataset{}
	out.Habits = mergeHabits(local.Habits, remote.Habits)
	out.Groups = mergeGroups(local.Groups, remote.Groups)
	out.Completions = mergeCompletions(local.Completions, remote.Completions)
	out.TimeBlocks = store.Normalize(mergeBlocks(local.TimeBlocks, remote.TimeBlocks))
	out.ActiveTimers = store.DedupTimers(append(remote.ActiveTimers, local.ActiveTimers...))

	return out, !Equal(out, remote)
}

// remote-wins union: remote entries first in their order, then local-only
// keys in local order. The same shape repeats per entity type; generics
// would obscure the per-type keys more than they would save.

func mergeHabits(local, remote []store.Habit) []store.Habit {
	seen := make(map[string]struct{}, len(remote))
	out := make([]store.Habit, 0, len(remote)+len(local))
	for _, h := range remote {
		seen[h.ID] = struct{}{}
		out = append(out, h)
	}
	for _, h := range local {
		if _, ok := seen[h.ID]; ok {
			continue
		}
		out = append(out, h)
	}
	return out
}

func mergeGroups(local, remote []store.Group) []store.Group {
	seen := make(map[string]struct{}, len(remote))
	out := make([]store.Group, 0, len(remote)+len(local))
	for _, g := range remote {
		seen[g.ID] = struct{}{}
		out = append(out, g)
	}
	for _, g := range local {
		if _, ok := seen[g.ID]; ok {
			continue
		}
		out = append(out, g)
	}
	return out
}

func mergeCompletions(local, remote []store.Completion) []store.Completion {
	type key struct{ habit, date string }
	seen := make(map[key]struct{}, len(remote))
	out := make([]store.Completion, 0, len(remote)+len(local))
	for _, c := range remote {
		seen[key{c.HabitID, c.Date}] = struct{}{}
		out = append(out, c)
	}
	for _, c := range local {
		if _, ok := seen[key{c.HabitID, c.Date}]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

func mergeBlocks(local, remote []store.TimeBlock) []store.TimeBlock {
	seen := make(map[string]struct{}, len(remote))
	out := make([]store.TimeBlock, 0, len(remote)+len(local))
	for _, b := range remote {
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	for _, b := range local {
		if _, ok := seen[b.ID]; ok {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Equal reports whether two snapshots hold the same data, insensitive to
// slice order. Lengths are compared first so the common unchanged case
// stays cheap.
func Equal(a, b store.Dataset) bool {
	if len(a.Habits) != len(b.Habits) ||
		len(a.Groups) != len(b.Groups) ||
		len(a.Completions) != len(b.Completions) ||
		len(a.TimeBlocks) != len(b.TimeBlocks) ||
		len(a.ActiveTimers) != len(b.ActiveTimers) {
		return false
	}

	ah, bh := sortedHabits(a.Habits), sortedHabits(b.Habits)
	for i := range ah {
		if ah[i] != bh[i] {
			return false
		}
	}
	ag, bg := sortedGroups(a.Groups), sortedGroups(b.Groups)
	for i := range ag {
		if ag[i] != bg[i] {
			return false
		}
	}
	ac, bc := sortedCompletions(a.Completions), sortedCompletions(b.Completions)
	for i := range ac {
		if ac[i] != bc[i] {
			return false
		}
	}
	ab, bb := sortedBlocks(a.TimeBlocks), sortedBlocks(b.TimeBlocks)
	for i := range ab {
		if ab[i] != bb[i] {
			return false
		}
	}
	at, bt := sortedTimers(a.ActiveTimers), sortedTimers(b.ActiveTimers)
	for i := range at {
		if at[i].ID != bt[i].ID || at[i].HabitID != bt[i].HabitID ||
			at[i].Date != bt[i].Date || at[i].Start != bt[i].Start ||
			!at[i].StartedAt.Equal(bt[i].StartedAt) {
			return false
		}
	}
	return true
}

func sortedHabits(in []store.Habit) []store.Habit {
	out := append([]store.Habit(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedGroups(in []store.Group) []store.Group {
	out := append([]store.Group(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedCompletions(in []store.Completion) []store.Completion {
	out := append([]store.Completion(nil), in...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].HabitID != out[j].HabitID {
			return out[i].HabitID < out[j].HabitID
		}
		return out[i].Date < out[j].Date
	})
	return out
}

func sortedBlocks(in []store.TimeBlock) []store.TimeBlock {
	out := append([]store.TimeBlock(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedTimers(in []store.ActiveTimer) []store.ActiveTimer {
	out := append([]store.ActiveTimer(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
