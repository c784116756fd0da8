package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/meltforce/strongmig/internal/config"
	"github.com/meltforce/strongmig/internal/logging"
	"github.com/meltforce/strongmig/internal/migrator"
	"github.com/meltforce/strongmig/internal/models"
	"github.com/meltforce/strongmig/internal/state"
	"github.com/meltforce/strongmig/internal/storage"
	"github.com/meltforce/strongmig/internal/strong"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// specList collects a repeatable flag.
type specList []string

func (s *specList) String() string     { return strings.Join(*s, " ") }
func (s *specList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	output := flag.String("o", "", "output CSV file (default historical_workouts.csv)")
	startDate := flag.String("s", "", "start date for week 1 (YYYY-MM-DD), applied to every positional file")
	workoutName := flag.String("w", "Workout", "base name for workouts")
	dayOffset := flag.Int("d", 0, "day of week for workouts: 0=Mon .. 6=Sun")
	migrationsPath := flag.String("migrations", "migrations", "migrations directory for the database sink")
	dryRun := flag.Bool("dry-run", false, "convert and report without writing output or database rows")
	showVersion := flag.Bool("version", false, "print version and exit")
	var forward, backward specList
	flag.Var(&forward, "f", "forward file config: filepath,start_date[,workout_name[,day_offset]] (repeatable)")
	flag.Var(&backward, "b", "backward file config: filepath,end_date,end_day,cycle[,workout_name[,end_week]] (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: strongmig [flags] [file ...]\n\n")
		fmt.Fprintf(os.Stderr, "Converts week-columnar workout logs to Strong CSV.\n")
		fmt.Fprintf(os.Stderr, "Without inputs, every old_format/*.csv is converted with -s.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println("strongmig", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *output != "" {
		cfg.Output.Path = *output
	}

	log := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	log.Info("strongmig starting", "version", Version)

	entries, err := inputEntries(cfg, flag.Args(), forward, backward, *startDate, *workoutName, *dayOffset)
	if err != nil {
		log.Error("invalid inputs", "error", err)
		flag.Usage()
		os.Exit(1)
	}
	cfg.Files = entries

	catalog, err := cfg.Catalog()
	if err != nil {
		log.Error("invalid cycles", "error", err)
		os.Exit(1)
	}
	files, err := cfg.FileConfigs(catalog)
	if err != nil {
		log.Error("invalid file config", "error", err)
		os.Exit(1)
	}
	mapper, err := cfg.Mapper()
	if err != nil {
		log.Error("invalid exercise map", "error", err)
		os.Exit(1)
	}

	runID := state.NewRunID()
	var history *state.DB
	if cfg.State.Dir != "" {
		history, err = state.Open(cfg.State.Dir)
		if err != nil {
			log.Error("failed to open state db", "error", err)
			os.Exit(1)
		}
		defer history.Close()
	}
	hashes := compareHistory(log, history, files)

	if *dryRun {
		log.Info("DRY RUN mode: no output or database rows will be written")
	}

	m := migrator.New(mapper, cfg.MigratorOptions(), log)
	result, runErr := m.Run(files)

	if history != nil && !*dryRun {
		recordHistory(log, history, runID, result.Files, hashes)
	}

	if !*dryRun {
		if err := writeOutput(log, cfg, result.Records); err != nil {
			log.Error("failed to write output", "error", err)
			os.Exit(1)
		}
		if cfg.Database.Enabled() {
			if err := storeRecords(log, cfg, *migrationsPath, runID, result.Records); err != nil {
				log.Error("database sink failed", "error", err)
				os.Exit(1)
			}
		}
	}

	printStats(log, result.Stats)
	if runErr != nil {
		log.Error("some files failed", "files_errored", result.Stats.FilesErrored)
		os.Exit(1)
	}
	log.Info("conversion complete", "run_id", runID)
}

// inputEntries picks the files to convert: flags first, then positional
// arguments, then the config file, then old_format/*.csv.
func inputEntries(cfg *config.Config, args, forward, backward []string, start, name string, offset int) ([]config.FileEntry, error) {
	var entries []config.FileEntry
	for _, spec := range forward {
		e, err := config.ParseFileSpec(spec, name, offset)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	for _, spec := range backward {
		e, err := config.ParseBackwardSpec(spec, name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if len(entries) > 0 {
		return entries, nil
	}

	if len(args) == 0 && len(cfg.Files) > 0 {
		return cfg.Files, nil
	}
	if len(args) == 0 {
		matches, err := filepath.Glob(filepath.Join("old_format", "*.csv"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no input files specified and no old_format/*.csv found")
		}
		args = matches
	}
	if start == "" {
		return nil, fmt.Errorf("-s is required unless using -f, -b or a config file with files")
	}
	for _, path := range args {
		entries = append(entries, config.FileEntry{Path: path, Mode: "forward", StartDate: start, WorkoutName: name, DayOffset: offset})
	}
	return entries, nil
}

// compareHistory logs whether each source changed since it was last converted
// and returns the current hashes.
func compareHistory(log *slog.Logger, history *state.DB, files []migrator.FileConfig) map[string]string {
	hashes := make(map[string]string, len(files))
	if history == nil {
		return hashes
	}
	for _, fc := range files {
		hash, err := state.HashFile(fc.Path)
		if err != nil {
			continue // reported by the pipeline
		}
		hashes[fc.Path] = hash
		last, err := history.LastConversion(fc.Path)
		if err != nil {
			log.Warn("history lookup failed", "path", fc.Path, "error", err)
			continue
		}
		switch {
		case last == nil:
			log.Debug("first conversion", "path", fc.Path)
		case last.Hash == hash:
			log.Info("source unchanged since last run", "path", fc.Path, "last_run", last.RunID, "sets", last.Sets)
		default:
			log.Info("source changed since last run", "path", fc.Path, "last_run", last.RunID)
		}
	}
	return hashes
}

func recordHistory(log *slog.Logger, history *state.DB, runID string, reports []migrator.FileReport, hashes map[string]string) {
	for _, rep := range reports {
		c := state.Conversion{RunID: runID, Path: rep.Path, Hash: hashes[rep.Path], Mode: rep.Mode, Sets: rep.Sets}
		if rep.Err != nil {
			c.ErrorCode = rep.Err.Code
		}
		if err := history.Record(c); err != nil {
			log.Warn("failed to record history", "path", rep.Path, "error", err)
		}
	}
}

func writeOutput(log *slog.Logger, cfg *config.Config, records []models.SetRecord) error {
	if len(records) == 0 {
		log.Warn("no workouts found, output not written", "path", cfg.Output.Path)
		return nil
	}
	f, err := os.Create(cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", cfg.Output.Path, err)
	}
	if err := strong.WriteAll(f, cfg.Output.Comma(), records); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", cfg.Output.Path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", cfg.Output.Path, err)
	}
	log.Info("output written", "path", cfg.Output.Path, "sets", len(records))
	return nil
}

func storeRecords(log *slog.Logger, cfg *config.Config, migrationsPath, runID string, records []models.SetRecord) error {
	dsn := cfg.Database.DSN()
	version, err := storage.RunMigrations(dsn, migrationsPath)
	if err != nil {
		return err
	}
	log.Info("migrations applied", "version", version)

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	inserted, err := db.InsertSetRecords(ctx, runID, records)
	if err != nil {
		return err
	}
	log.Info("database sink complete", "inserted", inserted, "duplicates", int64(len(records))-inserted)
	return nil
}

func printStats(log *slog.Logger, stats migrator.Stats) {
	log.Info("conversion stats",
		"files_processed", stats.FilesProcessed,
		"files_errored", stats.FilesErrored,
		"cells_read", stats.CellsRead,
		"cells_skipped", stats.CellsSkipped,
		"sets_produced", stats.SetsProduced,
		"names_mapped", stats.NamesMapped,
	)
}
