package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/meltforce/strongmig/internal/mapping"
	"github.com/meltforce/strongmig/internal/migrator"
	"github.com/meltforce/strongmig/internal/schedule"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

type Config struct {
	Output      OutputConfig        `yaml:"output"`
	Log         LogConfig           `yaml:"log"`
	State       StateConfig         `yaml:"state"`
	Database    DatabaseConfig      `yaml:"database"`
	Server      ServerConfig        `yaml:"server"`
	ExerciseMap ExerciseMapConfig   `yaml:"exercise_map"`
	Cycles      map[string][]string `yaml:"cycles"`
	Files       []FileEntry         `yaml:"files"`
}

type OutputConfig struct {
	Path                    string `yaml:"path"`
	Delimiter               string `yaml:"delimiter"`
	DefaultTime             string `yaml:"default_time"` // HH:MM added to every date
	WeightUnit              string `yaml:"weight_unit"`
	Duration                string `yaml:"duration"`
	NotesPlaceholder        string `yaml:"notes_placeholder"`
	WorkoutNotesPlaceholder string `yaml:"workout_notes_placeholder"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StateConfig struct {
	Dir string `yaml:"dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type ExerciseMapConfig struct {
	CaseInsensitive bool                `yaml:"case_insensitive"`
	Names           map[string][]string `yaml:"names"` // canonical -> variants
}

// FileEntry is one source file. Mode is inferred from which dates are set
// when left empty. DefaultTime, WeightUnit and Duration override output.
type FileEntry struct {
	Path        string         `yaml:"path"`
	Sheet       string         `yaml:"sheet"`
	WorkoutName string         `yaml:"workout_name"`
	Mode        string         `yaml:"mode"`
	StartDate   string         `yaml:"start_date"`
	DayOffset   int            `yaml:"day_offset"`
	DayOffsets  map[string]int `yaml:"day_offsets"`
	EndDate     string         `yaml:"end_date"`
	EndDay      string         `yaml:"end_day"`
	EndWeek     int            `yaml:"end_week"`
	Cycle       string         `yaml:"cycle"`
	DefaultTime string         `yaml:"default_time"`
	WeightUnit  string         `yaml:"weight_unit"`
	Duration    string         `yaml:"duration"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Path:                    "historical_workouts.csv",
			Delimiter:               ";",
			DefaultTime:             "08:00",
			WeightUnit:              "lbs",
			Duration:                "1h",
			NotesPlaceholder:        "-",
			WorkoutNotesPlaceholder: "-",
		},
		Log:      LogConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Port: 5432, Name: "strongmig", User: "strongmig", SSLMode: "disable"},
		Server:   ServerConfig{Host: "127.0.0.1", Port: 8085},
	}
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Enabled reports whether the Postgres sink is configured.
func (d DatabaseConfig) Enabled() bool { return d.Host != "" }

// Comma returns the output delimiter. "tab" and "\t" both mean a tab.
func (o OutputConfig) Comma() rune {
	if o.Delimiter == "tab" {
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(o.Delimiter)
	if r == utf8.RuneError {
		return ';'
	}
	return r
}

// Load reads config from a YAML file over Default, then applies environment
// variable overrides. An empty path skips the file. Env vars use the prefix
// STRONGMIG_ and underscore-separated paths:
//
//	STRONGMIG_OUTPUT_PATH, STRONGMIG_OUTPUT_DELIMITER,
//	STRONGMIG_LOG_LEVEL, STRONGMIG_LOG_FORMAT, STRONGMIG_STATE_DIR,
//	STRONGMIG_DB_HOST, STRONGMIG_DB_PORT, STRONGMIG_DB_NAME,
//	STRONGMIG_DB_USER, STRONGMIG_DB_PASSWORD, STRONGMIG_DB_SSLMODE,
//	STRONGMIG_SERVER_HOST, STRONGMIG_SERVER_PORT, STRONGMIG_SERVER_API_KEY
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	str := map[string]*string{
		"STRONGMIG_OUTPUT_PATH":      &cfg.Output.Path,
		"STRONGMIG_OUTPUT_DELIMITER": &cfg.Output.Delimiter,
		"STRONGMIG_LOG_LEVEL":        &cfg.Log.Level,
		"STRONGMIG_LOG_FORMAT":       &cfg.Log.Format,
		"STRONGMIG_STATE_DIR":        &cfg.State.Dir,
		"STRONGMIG_DB_HOST":          &cfg.Database.Host,
		"STRONGMIG_DB_NAME":          &cfg.Database.Name,
		"STRONGMIG_DB_USER":          &cfg.Database.User,
		"STRONGMIG_DB_PASSWORD":      &cfg.Database.Password,
		"STRONGMIG_DB_SSLMODE":       &cfg.Database.SSLMode,
		"STRONGMIG_SERVER_HOST":      &cfg.Server.Host,
		"STRONGMIG_SERVER_API_KEY":   &cfg.Server.APIKey,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("STRONGMIG_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("STRONGMIG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

func (c *Config) validate() error {
	if c.Output.Path == "" {
		return fmt.Errorf("output.path is required")
	}
	if c.Output.Delimiter != "tab" && utf8.RuneCountInString(c.Output.Delimiter) != 1 {
		return fmt.Errorf("output.delimiter must be a single character, got %q", c.Output.Delimiter)
	}
	if _, err := ParseTimeOfDay(c.Output.DefaultTime); err != nil {
		return fmt.Errorf("output.default_time: %w", err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not text or json", c.Log.Format)
	}
	if c.Database.Enabled() {
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	}
	for i, f := range c.Files {
		if f.Path == "" {
			return fmt.Errorf("files[%d].path is required", i)
		}
		if _, err := f.mode(); err != nil {
			return fmt.Errorf("files[%d] (%s): %w", i, f.Path, err)
		}
	}
	return nil
}

// ValidateServer checks the settings only the HTTP service needs.
func (c *Config) ValidateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Server.APIKey == "" {
		return fmt.Errorf("server.api_key is required")
	}
	return nil
}

func (f FileEntry) mode() (string, error) {
	mode := strings.ToLower(f.Mode)
	if mode == "" {
		switch {
		case f.StartDate != "":
			mode = "forward"
		case f.EndDate != "":
			mode = "backward"
		default:
			return "", fmt.Errorf("either start_date or end_date is required")
		}
	}
	switch mode {
	case "forward":
		if f.StartDate == "" {
			return "", fmt.Errorf("forward mode needs start_date")
		}
	case "backward":
		if f.EndDate == "" || f.EndDay == "" || f.Cycle == "" {
			return "", fmt.Errorf("backward mode needs end_date, end_day and cycle")
		}
	default:
		return "", fmt.Errorf("mode %q is not forward or backward", f.Mode)
	}
	return mode, nil
}

// Catalog returns the built-in cycles plus those defined under cycles.
// A custom cycle replaces a built-in one of the same name.
func (c *Config) Catalog() (schedule.Catalog, error) {
	catalog := schedule.Builtin()
	for name, labels := range c.Cycles {
		cycle, err := schedule.NewCycle(name, labels)
		if err != nil {
			return nil, fmt.Errorf("cycle %q: %w", name, err)
		}
		catalog[strings.ToLower(strings.TrimSpace(name))] = cycle
	}
	return catalog, nil
}

// Mapper builds the exercise name mapper, or nil when no names are configured.
func (c *Config) Mapper() (*mapping.Mapper, error) {
	if len(c.ExerciseMap.Names) == 0 {
		return nil, nil
	}
	var opts []mapping.Option
	if c.ExerciseMap.CaseInsensitive {
		opts = append(opts, mapping.FoldCase())
	}
	m, err := mapping.New(c.ExerciseMap.Names, opts...)
	if err != nil {
		return nil, fmt.Errorf("exercise_map: %w", err)
	}
	return m, nil
}

// MigratorOptions returns the output defaults shared by every file.
func (c *Config) MigratorOptions() migrator.Options {
	return migrator.Options{
		NotesPlaceholder:        c.Output.NotesPlaceholder,
		WorkoutNotesPlaceholder: c.Output.WorkoutNotesPlaceholder,
	}
}

// FileConfigs converts the configured files into pipeline inputs, resolving
// cycle names through catalog.
func (c *Config) FileConfigs(catalog schedule.Catalog) ([]migrator.FileConfig, error) {
	out := make([]migrator.FileConfig, 0, len(c.Files))
	for i, f := range c.Files {
		fc, err := c.FileConfig(f, catalog)
		if err != nil {
			return nil, fmt.Errorf("files[%d] (%s): %w", i, f.Path, err)
		}
		out = append(out, fc)
	}
	return out, nil
}

// FileConfig converts one entry, filling unset fields from output.
func (c *Config) FileConfig(f FileEntry, catalog schedule.Catalog) (migrator.FileConfig, error) {
	fc := migrator.FileConfig{
		Path:        f.Path,
		Sheet:       f.Sheet,
		WorkoutName: f.WorkoutName,
		WeightUnit:  firstNonEmpty(f.WeightUnit, c.Output.WeightUnit),
		Duration:    firstNonEmpty(f.Duration, c.Output.Duration),
	}

	tod, err := ParseTimeOfDay(firstNonEmpty(f.DefaultTime, c.Output.DefaultTime))
	if err != nil {
		return fc, fmt.Errorf("default_time: %w", err)
	}
	fc.DefaultTime = tod

	mode, err := f.mode()
	if err != nil {
		return fc, err
	}
	switch mode {
	case "forward":
		start, err := time.Parse(dateLayout, f.StartDate)
		if err != nil {
			return fc, fmt.Errorf("start_date: %w", err)
		}
		fc.Policy = schedule.NewForwardPolicy(start, f.DayOffset, f.DayOffsets)
	case "backward":
		end, err := time.Parse(dateLayout, f.EndDate)
		if err != nil {
			return fc, fmt.Errorf("end_date: %w", err)
		}
		cycle, err := catalog.Lookup(f.Cycle)
		if err != nil {
			return fc, err
		}
		fc.Policy = schedule.BackwardPolicy{End: end, EndDay: f.EndDay, EndWeek: f.EndWeek, Cycle: cycle}
	}

	// The policy is validated by the pipeline, so a bad day label fails only
	// its own file.
	return fc, nil
}

// ParseTimeOfDay parses "HH:MM" into an offset from midnight. Empty is zero.
func ParseTimeOfDay(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ParseFileSpec parses a forward per-file flag value:
//
//	filepath,start_date[,workout_name[,day_offset]]
func ParseFileSpec(spec, defaultName string, defaultOffset int) (FileEntry, error) {
	parts := splitSpec(spec)
	if len(parts) < 2 {
		return FileEntry{}, fmt.Errorf("invalid file config %q: expected filepath,start_date[,workout_name[,day_offset]]", spec)
	}
	if _, err := time.Parse(dateLayout, parts[1]); err != nil {
		return FileEntry{}, fmt.Errorf("invalid file config %q: start date: %w", spec, err)
	}
	f := FileEntry{Path: parts[0], Mode: "forward", StartDate: parts[1], WorkoutName: defaultName, DayOffset: defaultOffset}
	if len(parts) > 2 && parts[2] != "" {
		f.WorkoutName = parts[2]
	}
	if len(parts) > 3 && parts[3] != "" {
		n, err := strconv.Atoi(parts[3])
		if err != nil {
			return FileEntry{}, fmt.Errorf("invalid file config %q: day offset: %w", spec, err)
		}
		f.DayOffset = n
	}
	return f, nil
}

// ParseBackwardSpec parses a backward per-file flag value:
//
//	filepath,end_date,end_day,cycle[,workout_name[,end_week]]
func ParseBackwardSpec(spec, defaultName string) (FileEntry, error) {
	parts := splitSpec(spec)
	if len(parts) < 4 {
		return FileEntry{}, fmt.Errorf("invalid backward config %q: expected filepath,end_date,end_day,cycle[,workout_name[,end_week]]", spec)
	}
	if _, err := time.Parse(dateLayout, parts[1]); err != nil {
		return FileEntry{}, fmt.Errorf("invalid backward config %q: end date: %w", spec, err)
	}
	f := FileEntry{Path: parts[0], Mode: "backward", EndDate: parts[1], EndDay: parts[2], Cycle: parts[3], WorkoutName: defaultName}
	if len(parts) > 4 && parts[4] != "" {
		f.WorkoutName = parts[4]
	}
	if len(parts) > 5 && parts[5] != "" {
		n, err := strconv.Atoi(parts[5])
		if err != nil {
			return FileEntry{}, fmt.Errorf("invalid backward config %q: end week: %w", spec, err)
		}
		f.EndWeek = n
	}
	return f, nil
}

func splitSpec(spec string) []string {
	parts := strings.Split(spec, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
