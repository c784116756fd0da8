// Package strong reads and writes the Strong app CSV export layout.
package strong

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/strongmig/internal/models"
)

// DateLayout is the timestamp format of the Date column.
const DateLayout = "2006-01-02 15:04:05"

// DefaultDelimiter is what Strong itself exports.
const DefaultDelimiter = ';'

// Header is the column order Strong and Hevy expect.
var Header = []string{
	"Date", "Workout Name", "Duration", "Exercise Name", "Set Order",
	"Weight", "Weight Unit", "Reps", "RPE", "Distance", "Distance Unit",
	"Seconds", "Notes", "Workout Notes",
}

// Writer emits SetRecords as Strong CSV.
type Writer struct {
	cw          *csv.Writer
	wroteHeader bool
}

// NewWriter returns a Writer using delimiter, or ';' when zero.
func NewWriter(w io.Writer, delimiter rune) *Writer {
	cw := csv.NewWriter(w)
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	cw.Comma = delimiter
	return &Writer{cw: cw}
}

// Write appends records, emitting the header first if it has not been yet.
func (w *Writer) Write(records []models.SetRecord) error {
	if !w.wroteHeader {
		if err := w.cw.Write(Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		w.wroteHeader = true
	}
	for i, r := range records {
		if err := w.cw.Write(row(r)); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	return nil
}

// Flush writes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

// WriteAll writes a complete export, header included even when empty.
func WriteAll(out io.Writer, delimiter rune, records []models.SetRecord) error {
	w := NewWriter(out, delimiter)
	if err := w.Write(records); err != nil {
		return err
	}
	return w.Flush()
}

func row(r models.SetRecord) []string {
	return []string{
		r.Date.Format(DateLayout),
		r.WorkoutName,
		r.Duration,
		r.ExerciseName,
		strconv.Itoa(r.SetOrder),
		formatFloat(r.Weight),
		r.WeightUnit,
		strconv.Itoa(r.Reps),
		optFloat(r.RPE),
		optFloat(r.Distance),
		r.DistanceUnit,
		strconv.Itoa(r.Seconds),
		r.Notes,
		r.WorkoutNotes,
	}
}

// 102.5 -> "102.5", 135 -> "135"
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

// Read parses a Strong export. Columns are located by header name so files
// with extra or reordered columns still load; Date and Exercise Name are
// required.
func Read(in io.Reader, delimiter rune) ([]models.SetRecord, error) {
	cr := csv.NewReader(in)
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, required := range []string{"Date", "Exercise Name"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var records []models.SetRecord
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		date, err := parseDate(get("Date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		r := models.SetRecord{
			Date:         date,
			WorkoutName:  get("Workout Name"),
			Duration:     get("Duration"),
			ExerciseName: get("Exercise Name"),
			WeightUnit:   get("Weight Unit"),
			DistanceUnit: get("Distance Unit"),
			Notes:        get("Notes"),
			WorkoutNotes: get("Workout Notes"),
		}
		r.SetOrder, _ = strconv.Atoi(get("Set Order"))
		r.Reps, _ = strconv.Atoi(get("Reps"))
		r.Seconds, _ = strconv.Atoi(get("Seconds"))
		r.Weight, _ = strconv.ParseFloat(get("Weight"), 64)
		r.RPE = parseOptFloat(get("RPE"))
		r.Distance = parseOptFloat(get("Distance"))
		records = append(records, r)
	}
	return records, nil
}

// parseDate accepts the full timestamp or a bare date.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func parseOptFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
