package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/meltforce/strongmig/internal/config"
	"github.com/meltforce/strongmig/internal/logging"
	"github.com/meltforce/strongmig/internal/migrator"
	"github.com/meltforce/strongmig/internal/strong"
	"github.com/meltforce/strongmig/internal/table"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// convertError is the 422 body for a file the pipeline rejected.
type convertError struct {
	Code     string `json:"code"`
	Error    string `json:"error"`
	Row      *int   `json:"row,omitempty"` // 1-based source line
	Week     int    `json:"week,omitempty"`
	Day      string `json:"day,omitempty"`
	Exercise string `json:"exercise,omitempty"`
}

type coder interface {
	Code() string
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context(), s.log)
	q := r.URL.Query()

	entry, err := entryFromQuery(q)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	delimiter, err := outputDelimiter(q.Get("delimiter"), s.cfg.Output.Comma())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	fc, err := s.cfg.FileConfig(entry, s.catalog)
	if err != nil {
		writePipelineError(w, err, http.StatusBadRequest)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	var rows [][]string
	if q.Get("format") == "xlsx" || strings.HasPrefix(r.Header.Get("Content-Type"), xlsxContentType) {
		rows, err = table.ReadWorkbook(body, entry.Sheet)
	} else {
		rows, err = table.ReadDelimited(body, 0)
	}
	if err != nil {
		writePipelineError(w, fmt.Errorf("reading upload: %w", err), http.StatusBadRequest)
		return
	}

	records, report, err := s.conv.ConvertRows(fc, rows)
	if err != nil {
		log.Warn("convert failed", "error", err)
		writePipelineError(w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="strong.csv"`)
	w.Header().Set("X-Set-Count", strconv.Itoa(len(records)))
	w.WriteHeader(http.StatusOK)
	if err := strong.WriteAll(w, delimiter, records); err != nil {
		log.Error("writing response", "error", err)
		return
	}
	log.Info("converted upload",
		"mode", report.Mode,
		"weeks", report.Weeks,
		"cells_skipped", report.CellsSkipped,
		"sets", len(records),
	)
}

type cycleInfo struct {
	Name   string   `json:"name"`
	Length int      `json:"length"`
	Slots  []string `json:"slots"`
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	out := make([]cycleInfo, 0, len(s.catalog))
	for _, name := range s.catalog.Names() {
		c := s.catalog[name]
		info := cycleInfo{Name: name, Length: c.Len()}
		for _, slot := range c.Slots() {
			label := slot.Label
			if slot.Rest {
				label = "Rest"
			}
			info.Slots = append(info.Slots, label)
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleQuerySets(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	records, err := s.store.QuerySetRecords(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("X-Set-Count", strconv.Itoa(len(records)))
		w.WriteHeader(http.StatusOK)
		if err := strong.WriteAll(w, s.cfg.Output.Comma(), records); err != nil {
			logging.FromContext(r.Context(), s.log).Error("writing response", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// entryFromQuery reads a per-file configuration from query parameters.
func entryFromQuery(q url.Values) (config.FileEntry, error) {
	e := config.FileEntry{
		Path:        "upload",
		Sheet:       q.Get("sheet"),
		WorkoutName: q.Get("workout_name"),
		Mode:        q.Get("mode"),
		StartDate:   q.Get("start_date"),
		EndDate:     q.Get("end_date"),
		EndDay:      q.Get("end_day"),
		Cycle:       q.Get("cycle"),
		DefaultTime: q.Get("default_time"),
		WeightUnit:  q.Get("weight_unit"),
		Duration:    q.Get("duration"),
	}
	var err error
	if e.DayOffset, err = intParam(q, "day_offset"); err != nil {
		return e, err
	}
	if e.EndWeek, err = intParam(q, "end_week"); err != nil {
		return e, err
	}
	return e, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", name, v)
	}
	return n, nil
}

func outputDelimiter(v string, fallback rune) (rune, error) {
	switch {
	case v == "":
		return fallback, nil
	case v == "tab":
		return '\t', nil
	case utf8.RuneCountInString(v) == 1:
		r, _ := utf8.DecodeRuneInString(v)
		return r, nil
	default:
		return 0, fmt.Errorf("delimiter must be a single character, got %q", v)
	}
}

// writePipelineError answers 422 for typed pipeline errors and status for
// anything else.
func writePipelineError(w http.ResponseWriter, err error, status int) {
	var fe *migrator.FileError
	if errors.As(err, &fe) {
		body := convertError{Code: fe.Code, Error: fe.Err.Error(), Week: fe.Week, Day: fe.Day, Exercise: fe.Exercise}
		if fe.Row >= 0 {
			row := fe.Row + 1
			body.Row = &row
		}
		writeJSON(w, http.StatusUnprocessableEntity, body)
		return
	}
	var c coder
	if errors.As(err, &c) {
		writeJSON(w, http.StatusUnprocessableEntity, convertError{Code: c.Code(), Error: err.Error()})
		return
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: everything up to now
		return time.Unix(0, 0).UTC(), time.Now(), nil
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
