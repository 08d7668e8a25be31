package store

import "sort"

// This file implements the interval merge engine. Two entry points exist on
// purpose, instead of one function with a mode flag: the identity rules for
// the merged block differ and passing the wrong mode would be a silent bug.
//
//   - MergeInsert is the interactive path: a user just inserted a block, so
//     the inserted block's identity survives and absorbs any neighbors it
//     touches. "This new thing swallowed the old ones."
//   - Normalize is the bulk path, used after load and after reconciliation:
//     order-stable and idempotent, the earliest-starting block's identity
//     survives within each merged run.
//
// Both use the same comparison: blocks that touch back-to-back merge
// (current end >= next start), so stored blocks are pairwise non-adjacent
// as well as non-overlapping.

// MergeInsert adds nb to blocks, absorbing every existing block of the same
// (habit, date) that overlaps or touches it. The result keeps nb's ID with
// a span widened to cover everything absorbed. Blocks of other habits and
// days pass through untouched, in their original order.
func MergeInsert(blocks []TimeBlock, nb TimeBlock) []TimeBlock {
	start := nb.StartMinute()
	end := nb.EndMinute()

	out := make([]TimeBlock, 0, len(blocks)+1)
	for _, b := range blocks {
		if b.HabitID != nb.HabitID || b.Date != nb.Date {
			out = append(out, b)
			continue
		}
		if b.EndMinute() >= start && b.StartMinute() <= end {
			// Touches or overlaps the insertion: absorb.
			if b.StartMinute() < start {
				start = b.StartMinute()
			}
			if b.EndMinute() > end {
				end = b.EndMinute()
			}
			continue
		}
		out = append(out, b)
	}

	nb.Start = Clock(start)
	nb.DurationMinutes = end - start
	return append(out, nb)
}

// Normalize merges every overlapping or touching run of blocks within each
// (habit, date) group and returns the result in canonical order: habit,
// date, start minute, ID. Each merged run keeps the ID of its
// earliest-starting member (ties broken by ID). Normalizing twice yields
// the same output as normalizing once.
func Normalize(blocks []TimeBlock) []TimeBlock {
	sorted := append([]TimeBlock(nil), blocks...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.HabitID != b.HabitID {
			return a.HabitID < b.HabitID
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartMinute() != b.StartMinute() {
			return a.StartMinute() < b.StartMinute()
		}
		return a.ID < b.ID
	})

	out := make([]TimeBlock, 0, len(sorted))
	for i := 0; i < len(sorted); {
		cur := sorted[i]
		start := cur.StartMinute()
		end := cur.EndMinute()
		j := i + 1
		for ; j < len(sorted); j++ {
			next := sorted[j]
			if next.HabitID != cur.HabitID || next.Date != cur.Date {
				break
			}
			if next.StartMinute() > end {
				break
			}
			if next.EndMinute() > end {
				end = next.EndMinute()
			}
		}
		cur.Start = Clock(start)
		cur.DurationMinutes = end - start
		out = append(out, cur)
		i = j
	}
	return out
}
