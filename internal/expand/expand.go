package expand

import (
	"strings"
	"time"

	"github.com/meltforce/strongmig/internal/models"
)

// completionMarkers are notes values that only repeat the completion flag.
var completionMarkers = map[string]bool{"yes": true, "no": true, "true": true, "false": true}

// Options control output defaults for expanded sets.
type Options struct {
	WeightUnit string
	Duration   string
	// NotesPlaceholder fills the notes field when a set has no genuine note.
	NotesPlaceholder string
	// WorkoutNotesPlaceholder fills the workout notes field.
	WorkoutNotesPlaceholder string
}

// Slot is the resolved context of one cell.
type Slot struct {
	Date        time.Time
	WorkoutName string
	Exercise    string
	Source      models.Source
}

// Expand turns a cell into one record per performed set. Cells whose
// completion flag is not done produce nothing.
func Expand(cell models.RawCell, slot Slot, opts Options) []models.SetRecord {
	if cell.Completed != models.CompletionDone {
		return nil
	}

	n := 1
	if cell.Sets != nil {
		n = *cell.Sets
	}
	if n <= 0 {
		return nil
	}

	reps := 0
	if cell.Reps != nil {
		reps = *cell.Reps
	}
	weight := 0.0
	if cell.Load != nil {
		weight = *cell.Load
	}
	note := CleanNotes(cell.Notes)

	records := make([]models.SetRecord, 0, n)
	for i := 0; i < n; i++ {
		notes := opts.NotesPlaceholder
		if i == 0 && note != "" {
			notes = note
		}
		records = append(records, models.SetRecord{
			Date:         slot.Date,
			WorkoutName:  slot.WorkoutName,
			ExerciseName: slot.Exercise,
			SetOrder:     i + 1,
			Weight:       weight,
			WeightUnit:   opts.WeightUnit,
			Reps:         reps,
			Notes:        notes,
			WorkoutNotes: opts.WorkoutNotesPlaceholder,
			Duration:     opts.Duration,
			Source:       slot.Source,
		})
	}
	return records
}

// CleanNotes drops bare completion markers and keeps free text verbatim.
func CleanNotes(s string) string {
	if completionMarkers[strings.ToLower(strings.TrimSpace(s))] {
		return ""
	}
	return s
}

type groupKey struct {
	date     int64
	workout  string
	exercise string
}

// Sequence renumbers SetOrder so that each (date, workout, exercise) group
// counts 1..n in stream order. It rewrites the slice in place.
func Sequence(records []models.SetRecord) {
	next := make(map[groupKey]int)
	for i := range records {
		k := groupKey{date: records[i].Date.Unix(), workout: records[i].WorkoutName, exercise: records[i].ExerciseName}
		next[k]++
		records[i].SetOrder = next[k]
	}
}
