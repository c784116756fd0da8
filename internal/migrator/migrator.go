package migrator

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meltforce/strongmig/internal/expand"
	"github.com/meltforce/strongmig/internal/ingest/weekly"
	"github.com/meltforce/strongmig/internal/mapping"
	"github.com/meltforce/strongmig/internal/models"
	"github.com/meltforce/strongmig/internal/schedule"
	"github.com/meltforce/strongmig/internal/table"
)

// FileConfig describes one source file and how to date it.
type FileConfig struct {
	Path        string
	Sheet       string // workbook sheet, empty for the first
	WorkoutName string
	Policy      schedule.Policy
	DefaultTime time.Duration // time of day added to every date
	WeightUnit  string
	Duration    string
}

// Options are output defaults shared by all files.
type Options struct {
	NotesPlaceholder        string
	WorkoutNotesPlaceholder string
}

// FileReport is the outcome of one file.
type FileReport struct {
	Path         string
	Mode         string
	Weeks        int
	Entries      int
	CellsSkipped int
	Sets         int
	NamesMapped  int
	First, Last  time.Time
	Err          *FileError
}

// Stats tracks a whole run.
type Stats struct {
	FilesProcessed int
	FilesErrored   int
	CellsRead      int
	CellsSkipped   int
	SetsProduced   int
	NamesMapped    int
}

// Result is the merged output of a run.
type Result struct {
	Records []models.SetRecord
	Files   []FileReport
	Stats   Stats
}

// TableReader loads the rows of a source file.
type TableReader func(path, sheet string) ([][]string, error)

// Migrator runs the per-file pipeline and merges the results.
type Migrator struct {
	mapper *mapping.Mapper
	opts   Options
	read   TableReader
	log    *slog.Logger
}

// New creates a Migrator. A nil mapper leaves names unchanged.
func New(mapper *mapping.Mapper, opts Options, log *slog.Logger) *Migrator {
	return &Migrator{mapper: mapper, opts: opts, read: table.ReadFile, log: log}
}

// WithReader replaces the file loader, for sources that are not on disk.
func (m *Migrator) WithReader(read TableReader) *Migrator {
	cp := *m
	cp.read = read
	return &cp
}

// Run processes files in order. A failing file is reported and skipped; the
// returned error joins every FileError and is nil when all files succeed.
func (m *Migrator) Run(files []FileConfig) (*Result, error) {
	result := &Result{}
	streams := make([][]models.SetRecord, 0, len(files))
	var errs []error

	for _, fc := range files {
		records, report := m.runFile(fc)
		result.Files = append(result.Files, report)
		result.Stats.CellsRead += report.Entries
		result.Stats.CellsSkipped += report.CellsSkipped
		result.Stats.NamesMapped += report.NamesMapped

		if report.Err != nil {
			result.Stats.FilesErrored++
			m.log.Warn("file failed", "path", fc.Path, "code", report.Err.Code, "error", report.Err)
			errs = append(errs, report.Err)
			continue
		}

		result.Stats.FilesProcessed++
		result.Stats.SetsProduced += len(records)
		streams = append(streams, records)
		m.log.Info("processed file",
			"path", fc.Path,
			"mode", report.Mode,
			"weeks", report.Weeks,
			"cells", report.Entries,
			"cells_skipped", report.CellsSkipped,
			"sets", report.Sets,
		)
	}

	result.Records = Merge(streams...)
	expand.Sequence(result.Records)
	return result, errors.Join(errs...)
}

func (m *Migrator) runFile(fc FileConfig) ([]models.SetRecord, FileReport) {
	report := FileReport{Path: fc.Path}
	if fc.Policy == nil {
		report.Err = &FileError{Path: fc.Path, Row: -1, Code: CodeInvalidPolicy, Err: fmt.Errorf("no date policy configured")}
		return nil, report
	}
	report.Mode = fc.Policy.Mode()

	rows, err := m.read(fc.Path, fc.Sheet)
	if err != nil {
		report.Err = &FileError{Path: fc.Path, Row: -1, Code: CodeReadFailed, Err: err}
		return nil, report
	}

	records, err := m.Convert(fc, rows, &report)
	if err != nil {
		var fe *FileError
		if !errors.As(err, &fe) {
			fe = &FileError{Path: fc.Path, Row: -1, Code: codeOf(err, CodeReadFailed), Err: err}
		}
		report.Err = fe
		return nil, report
	}
	return records, report
}

// Convert runs parse, date, expand and map on rows already in memory. report
// may be nil. Errors are *FileError.
func (m *Migrator) Convert(fc FileConfig, rows [][]string, report *FileReport) ([]models.SetRecord, error) {
	if report == nil {
		report = &FileReport{Path: fc.Path}
	}
	if fc.Policy == nil {
		return nil, &FileError{Path: fc.Path, Row: -1, Code: CodeInvalidPolicy, Err: fmt.Errorf("no date policy configured")}
	}
	report.Mode = fc.Policy.Mode()

	sheet, err := weekly.Parse(rows, weekly.Options{
		DayLabels:       fc.Policy.Labels(),
		InferDayHeaders: fc.Policy.Mode() == "backward",
	})
	if err != nil {
		fe := &FileError{Path: fc.Path, Row: -1, Code: codeOf(err, CodeReadFailed), Err: err}
		var orphan *weekly.OrphanExerciseRowError
		if errors.As(err, &orphan) {
			fe.Row = orphan.Row
			fe.Exercise = orphan.Exercise
		}
		return nil, fe
	}
	report.Weeks = len(sheet.Weeks)
	report.Entries = len(sheet.Entries)

	policy := fc.Policy
	switch p := policy.(type) {
	case schedule.BackwardPolicy:
		if p.EndWeek == 0 {
			p.EndWeek = sheet.LastWeek()
			policy = p
		}
	case schedule.ForwardPolicy:
		policy = schedule.NewForwardPolicy(p.Start, p.DayOffset, p.DayOffsets)
	}
	if err := policy.Validate(); err != nil {
		return nil, &FileError{Path: fc.Path, Row: -1, Code: codeOf(err, CodeInvalidPolicy), Err: err}
	}

	opts := expand.Options{
		WeightUnit:              fc.WeightUnit,
		Duration:                fc.Duration,
		NotesPlaceholder:        m.opts.NotesPlaceholder,
		WorkoutNotesPlaceholder: m.opts.WorkoutNotesPlaceholder,
	}

	var records []models.SetRecord
	for _, e := range sheet.Entries {
		// Every label is resolved, completed or not: an unknown label in a
		// skipped cell still means the cycle does not describe this file.
		date, err := schedule.Resolve(policy, e.Week, e.Day)
		if err != nil {
			return nil, &FileError{
				Path: fc.Path, Row: e.Row, Week: e.Week, Day: e.Day, Exercise: e.Exercise,
				Code: codeOf(err, CodeInvalidPolicy), Err: err,
			}
		}
		if e.Cell.Completed != models.CompletionDone {
			report.CellsSkipped++
			continue
		}

		slot := expand.Slot{
			Date:        date.Add(fc.DefaultTime),
			WorkoutName: workoutName(fc.WorkoutName, e.Day),
			Exercise:    e.Exercise,
			Source: models.Source{
				Path:        fc.Path,
				Row:         e.Row,
				Week:        e.Week,
				Day:         e.Day,
				RawExercise: e.Exercise,
			},
		}
		records = append(records, expand.Expand(e.Cell, slot, opts)...)
	}

	report.NamesMapped = m.mapper.Apply(records)
	report.Sets = len(records)
	if len(records) > 0 {
		report.First, report.Last = records[0].Date, records[0].Date
		for _, r := range records[1:] {
			if r.Date.Before(report.First) {
				report.First = r.Date
			}
			if r.Date.After(report.Last) {
				report.Last = r.Date
			}
		}
	}
	return records, nil
}

// ConvertRows runs one in-memory table through the whole pipeline, ordering
// and renumbering included, as Run does for a single file.
func (m *Migrator) ConvertRows(fc FileConfig, rows [][]string) ([]models.SetRecord, FileReport, error) {
	report := FileReport{Path: fc.Path}
	records, err := m.Convert(fc, rows, &report)
	if err != nil {
		return nil, report, err
	}
	out := Merge(records)
	expand.Sequence(out)
	m.log.Debug("converted rows", "path", fc.Path, "mode", report.Mode, "sets", len(out))
	return out, report, nil
}

func workoutName(base, day string) string {
	switch {
	case base == "":
		return day
	case day == "":
		return base
	default:
		return base + " - " + day
	}
}
