package weekly

import "fmt"

// MalformedHeaderError means no week columns were found in the table.
type MalformedHeaderError struct{}

func (e *MalformedHeaderError) Error() string {
	return "no week columns found in header"
}

// Code identifies the error kind in reports.
func (e *MalformedHeaderError) Code() string { return "malformed_header" }

// OrphanExerciseRowError means an exercise row appeared before any day header.
type OrphanExerciseRowError struct {
	Row      int
	Exercise string
}

func (e *OrphanExerciseRowError) Error() string {
	return fmt.Sprintf("row %d: exercise %q has no day header above it", e.Row+1, e.Exercise)
}

func (e *OrphanExerciseRowError) Code() string { return "orphan_exercise_row" }
