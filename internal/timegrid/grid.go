// Package timegrid maps wall-clock times onto the day grid used for block
// entry and rendering. The visible day is 3 columns of 8 hours, each column
// 32 rows of 15 minutes, so the grid covers exactly one 24h day (96 slots).
//
// All functions are pure and total over their valid input ranges. The two
// addressings, (column, row) and a linear ordinal 0..95, are equivalent;
// the ordinal form exists so range selection and duration arithmetic reduce
// to integer subtraction regardless of column boundaries.
package timegrid

// Grid dimensions. These are display constants, not preferences: the rest
// of the layout math assumes Columns*HoursPerColumn covers a full day.
const (
	Columns        = 3
	HoursPerColumn = 8
	SlotMinutes    = 15
	RowsPerHour    = 60 / SlotMinutes
	RowsPerColumn  = HoursPerColumn * RowsPerHour
	SlotsPerDay    = Columns * RowsPerColumn
)

// SlotTime returns the wall-clock time at the top of the given slot.
func SlotTime(col, row int) (hour, minute int) {
	hour = (col*HoursPerColumn + row/RowsPerHour) % 24
	minute = (row % RowsPerHour) * SlotMinutes
	return hour, minute
}

// Slot returns the grid cell containing the given wall-clock time, rounding
// the minute down to the slot quantum. ok is false when the time falls
// outside the grid window; since the window spans a full day this only
// happens for out-of-range input.
func Slot(hour, minute int) (col, row int, ok bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	col = hour / HoursPerColumn
	if col >= Columns {
		return 0, 0, false
	}
	row = (hour%HoursPerColumn)*RowsPerHour + minute/SlotMinutes
	return col, row, true
}

// Ordinal collapses a (col, row) address into a single 0..SlotsPerDay-1
// index.
func Ordinal(col, row int) int {
	return col*RowsPerColumn + row
}

// FromOrdinal is the inverse of Ordinal.
func FromOrdinal(n int) (col, row int) {
	return n / RowsPerColumn, n % RowsPerColumn
}

// SpanMinutes returns the duration of an inclusive ordinal range [a, b].
// A single-slot selection (a == b) is one quantum.
func SpanMinutes(a, b int) int {
	if b < a {
		a, b = b, a
	}
	return (b - a + 1) * SlotMinutes
}

// OrdinalOfMinute returns the ordinal of the slot containing the given
// minute-of-day.
func OrdinalOfMinute(m int) int {
	return m / SlotMinutes
}
