package models

import "time"

// Completion is the tri-state completion flag of a logged cell.
type Completion int

const (
	CompletionUnknown Completion = iota
	CompletionDone
	CompletionSkipped
)

func (c Completion) String() string {
	switch c {
	case CompletionDone:
		return "done"
	case CompletionSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// RawCell is one week's data for one exercise row. Nil pointers mean the
// sub-column was empty or missing.
type RawCell struct {
	Sets      *int
	Reps      *int
	Load      *float64
	Completed Completion
	Notes     string
}

// Empty reports whether the cell carries no data at all.
func (c RawCell) Empty() bool {
	return c.Sets == nil && c.Reps == nil && c.Load == nil &&
		c.Completed == CompletionUnknown && c.Notes == ""
}

// WeekEntry is a parsed (week, day, exercise, cell) tuple.
type WeekEntry struct {
	Row      int // 0-based row index in the source table
	Week     int
	Day      string
	Exercise string
	Cell     RawCell
}

// Source records where a set came from. It is never written to the export.
type Source struct {
	Path        string
	Row         int
	Week        int
	Day         string
	RawExercise string
}

// SetRecord is one performed set in Strong export shape.
type SetRecord struct {
	Date         time.Time
	WorkoutName  string
	ExerciseName string
	SetOrder     int
	Weight       float64
	WeightUnit   string
	Reps         int
	RPE          *float64
	Distance     *float64
	DistanceUnit string
	Seconds      int
	Notes        string
	WorkoutNotes string
	Duration     string

	Source Source
}
