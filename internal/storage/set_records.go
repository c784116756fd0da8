package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meltforce/strongmig/internal/models"
)

// setRecordColumns must stay in step with the args built in InsertSetRecords.
var setRecordColumns = []string{
	"run_id", "set_date", "workout_name", "duration", "exercise_name", "set_order",
	"weight", "weight_unit", "reps", "rpe", "distance", "distance_unit", "seconds",
	"notes", "workout_notes", "source_path", "source_row", "source_week",
}

// maxBatchRows keeps each statement under Postgres' 65535 parameter limit.
const maxBatchRows = 1000

// InsertSetRecords stores records under runID. Rows already present for the
// same date, workout, exercise and set order are left alone. Returns count inserted.
func (db *DB) InsertSetRecords(ctx context.Context, runID string, records []models.SetRecord) (int64, error) {
	var total int64
	for start := 0; start < len(records); start += maxBatchRows {
		end := min(start+maxBatchRows, len(records))
		query, args := buildInsert(runID, records[start:end])
		tag, err := db.Pool.Exec(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("inserting set records: %w", err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

func buildInsert(runID string, batch []models.SetRecord) (string, []any) {
	n := len(setRecordColumns)
	args := make([]any, 0, len(batch)*n)
	valueStrings := make([]string, 0, len(batch))

	for i, r := range batch {
		placeholders := make([]string, n)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", i*n+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		args = append(args, runID, r.Date, r.WorkoutName, r.Duration, r.ExerciseName, r.SetOrder,
			r.Weight, r.WeightUnit, r.Reps, r.RPE, r.Distance, r.DistanceUnit, r.Seconds,
			r.Notes, r.WorkoutNotes, r.Source.Path, r.Source.Row, r.Source.Week)
	}

	query := "INSERT INTO set_records (" + strings.Join(setRecordColumns, ", ") + ") VALUES " +
		strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"
	return query, args
}

// QuerySetRecords retrieves stored sets with start <= date < end, oldest first.
func (db *DB) QuerySetRecords(ctx context.Context, start, end time.Time) ([]models.SetRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT set_date, workout_name, duration, exercise_name, set_order,
		 weight, weight_unit, reps, rpe, distance, distance_unit, seconds,
		 notes, workout_notes, source_path, source_row, source_week
		 FROM set_records
		 WHERE set_date >= $1 AND set_date < $2
		 ORDER BY set_date, workout_name, exercise_name, set_order`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying set records: %w", err)
	}
	defer rows.Close()

	var result []models.SetRecord
	for rows.Next() {
		var r models.SetRecord
		if err := rows.Scan(&r.Date, &r.WorkoutName, &r.Duration, &r.ExerciseName, &r.SetOrder,
			&r.Weight, &r.WeightUnit, &r.Reps, &r.RPE, &r.Distance, &r.DistanceUnit, &r.Seconds,
			&r.Notes, &r.WorkoutNotes, &r.Source.Path, &r.Source.Row, &r.Source.Week); err != nil {
			return nil, fmt.Errorf("scanning set record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
