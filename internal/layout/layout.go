// Package layout assigns horizontal tracks to a day's time-blocks so
// overlapping blocks render side by side instead of on top of each other.
//
// Blocks are first split into per-column segments along the grid, then
// colored greedily: slots are visited column by column, row ascending, and
// each segment takes the lowest track free among the segments sharing its
// first slot. Assignments never change once made, so blocks do not jump
// around as new ones appear.
package layout

import (
	"fmt"
	"sort"

	"github.com/snagarohit/minimalhabits/internal/store"
	"github.com/snagarohit/minimalhabits/internal/timegrid"
)

// Segment is the renderable portion of a block within a single column.
// A block crossing a column boundary yields one segment per column,
// all sharing the block's ID.
type Segment struct {
	Key     string // blockID:column
	BlockID string
	HabitID string
	Column  int
	Row     int // first row in this column
	Span    int // rows occupied in this column

	// Track and TrackCount define the horizontal placement: the segment
	// occupies slice Track of TrackCount equal-width lanes.
	Track      int
	TrackCount int

	startMinute int
}

// Day computes the track layout for one day's blocks. The input should
// already be merged per habit; blocks of different habits may still overlap
// and that is exactly what the tracks resolve. Segments are returned ordered
// by column, then row, then block ID.
func Day(blocks []store.TimeBlock) []Segment {
	segs := split(blocks)
	if len(segs) == 0 {
		return nil
	}

	// Slot occupancy index: ordinal slot -> indices into segs.
	occ := make(map[int][]int)
	for i, s := range segs {
		base := timegrid.Ordinal(s.Column, s.Row)
		for r := 0; r < s.Span; r++ {
			occ[base+r] = append(occ[base+r], i)
		}
	}

	for i, s := range segs {
		base := timegrid.Ordinal(s.Column, s.Row)
		max := 0
		for r := 0; r < s.Span; r++ {
			if n := len(occ[base+r]); n > max {
				max = n
			}
		}
		segs[i].TrackCount = max
	}

	assigned := make([]bool, len(segs))
	for n := 0; n < timegrid.SlotsPerDay; n++ {
		ids := occ[n]
		if len(ids) == 0 {
			continue
		}
		sort.Slice(ids, func(a, b int) bool {
			sa, sb := segs[ids[a]], segs[ids[b]]
			if sa.startMinute != sb.startMinute {
				return sa.startMinute < sb.startMinute
			}
			return sa.BlockID < sb.BlockID
		})
		for _, i := range ids {
			if assigned[i] {
				continue
			}
			used := map[int]bool{}
			for _, j := range ids {
				if j != i && assigned[j] {
					used[segs[j].Track] = true
				}
			}
			track := 0
			for used[track] {
				track++
			}
			segs[i].Track = track
			assigned[i] = true
		}
	}

	sort.Slice(segs, func(a, b int) bool {
		if segs[a].Column != segs[b].Column {
			return segs[a].Column < segs[b].Column
		}
		if segs[a].Row != segs[b].Row {
			return segs[a].Row < segs[b].Row
		}
		return segs[a].BlockID < segs[b].BlockID
	})
	return segs
}

// split anchors each block to the grid and cuts it at column boundaries.
// Blocks running past midnight are clamped to the day's last slot.
func split(blocks []store.TimeBlock) []Segment {
	var segs []Segment
	for _, b := range blocks {
		if b.DurationMinutes <= 0 {
			continue
		}
		first := b.StartMinute() / timegrid.SlotMinutes
		last := (b.EndMinute() - 1) / timegrid.SlotMinutes
		if first < 0 {
			first = 0
		}
		if last >= timegrid.SlotsPerDay {
			last = timegrid.SlotsPerDay - 1
		}
		if last < first {
			continue
		}
		for n := first; n <= last; {
			col, row := timegrid.FromOrdinal(n)
			end := timegrid.Ordinal(col, timegrid.RowsPerColumn-1)
			if end > last {
				end = last
			}
			segs = append(segs, Segment{
				Key:         fmt.Sprintf("%s:%d", b.ID, col),
				BlockID:     b.ID,
				HabitID:     b.HabitID,
				Column:      col,
				Row:         row,
				Span:        end - n + 1,
				startMinute: b.StartMinute(),
			})
			n = end + 1
		}
	}
	return segs
}

// TrackCount reports the widest lane count across all segments, useful
// for sizing a shared gutter. Zero when there are no segments.
func TrackCount(segs []Segment) int {
	max := 0
	for _, s := range segs {
		if s.TrackCount > max {
			max = s.TrackCount
		}
	}
	return max
}
