package weekly

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/meltforce/strongmig/internal/models"
)

var (
	// weekLabelRe matches: "Week 1", "week10", "WEEK 3 (deload)"
	weekLabelRe = regexp.MustCompile(`(?i)week\s*(\d+)`)

	// dayHeaderRe matches: "Day 1", "Day 3 - Upper", "Push A", "Legs B", "Upper 2", "Pull Day", "Long Run".
	// A multi-letter suffix other than "day" is an exercise ("Push Press").
	dayHeaderRe = regexp.MustCompile(`(?i)^(day\b.*|(upper|lower|push|pull|legs|full body|long run)(\s+([a-z]|\d+|day))?)$`)

	// unitSuffixRe strips a trailing weight unit: "135 lbs", "60kg"
	unitSuffixRe = regexp.MustCompile(`(?i)\s*(lbs?|kgs?)$`)
)

// subColumnLabels are the words a sub-header row uses above each week group.
var subColumnLabels = map[string]bool{
	"sets": true, "set": true, "reps": true, "rep": true,
	"weight": true, "wt": true, "load": true, "lbs": true, "lb": true, "kg": true, "kgs": true,
	"completed": true, "complete": true, "done": true, "notes": true, "note": true,
}

// Options tune row classification.
type Options struct {
	// DayLabels are extra labels that mark a day-header row, matched
	// case-insensitively against the first cell.
	DayLabels []string
	// SkipMarkers mark setup rows that carry no workout data. Defaults to "Setup".
	SkipMarkers []string
	// InferDayHeaders takes a labelled row with no data in any week, followed
	// by a row with data, as a day header even when the label is unknown.
	InferDayHeaders bool
}

// Sheet is the structured view of one week-columnar table.
type Sheet struct {
	Weeks       []int // week numbers found in the header, ascending
	Days        []string
	Entries     []models.WeekEntry
	SkippedRows int
}

// LastWeek returns the highest week number in the header.
func (s *Sheet) LastWeek() int {
	if len(s.Weeks) == 0 {
		return 0
	}
	return s.Weeks[len(s.Weeks)-1]
}

// group is the column span occupied by one week.
type group struct {
	week  int
	start int
	end   int // exclusive
}

// Parse reads a week-columnar table and returns one entry per exercise row and
// week with data. Entries appear in row order, weeks ascending within a row.
func Parse(rows [][]string, opts Options) (*Sheet, error) {
	headerIdx, groups := findHeader(rows)
	if headerIdx < 0 {
		return nil, &MalformedHeaderError{}
	}

	sheet := &Sheet{}
	for _, g := range groups {
		sheet.Weeks = append(sheet.Weeks, g.week)
	}
	sort.Ints(sheet.Weeks)

	dayLabels := make(map[string]bool, len(opts.DayLabels))
	for _, l := range opts.DayLabels {
		dayLabels[normalize(l)] = true
	}
	skip := map[string]bool{"setup": true}
	if len(opts.SkipMarkers) > 0 {
		skip = make(map[string]bool, len(opts.SkipMarkers))
		for _, m := range opts.SkipMarkers {
			skip[normalize(m)] = true
		}
	}

	isDay := func(label string) bool {
		return dayLabels[normalize(label)] || dayHeaderRe.MatchString(label)
	}
	seenDays := map[string]bool{}
	currentDay := ""

	for rowIdx := headerIdx + 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		first := strings.TrimSpace(row[0])

		if rowIdx == headerIdx+1 && isSubHeader(row, groups) {
			continue
		}

		if skip[normalize(first)] {
			sheet.SkippedRows++
			continue
		}

		if isDay(first) || (opts.InferDayHeaders && !hasData(row, groups) && nextHasData(rows, rowIdx, groups, skip, isDay)) {
			currentDay = first
			if !seenDays[currentDay] {
				seenDays[currentDay] = true
				sheet.Days = append(sheet.Days, currentDay)
			}
			continue
		}

		if currentDay == "" {
			return nil, &OrphanExerciseRowError{Row: rowIdx, Exercise: first}
		}

		for _, g := range groups {
			cell := parseCell(row, g)
			if cell.Empty() {
				continue
			}
			sheet.Entries = append(sheet.Entries, models.WeekEntry{
				Row:      rowIdx,
				Week:     g.week,
				Day:      currentDay,
				Exercise: first,
				Cell:     cell,
			})
		}
	}

	return sheet, nil
}

// findHeader locates the first row with week labels and derives the column
// group of each week. Setup columns end the preceding group but start none.
func findHeader(rows [][]string) (int, []group) {
	for i, row := range rows {
		type mark struct {
			col  int
			week int // 0 for setup columns
		}
		var marks []mark
		for col, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if strings.Contains(strings.ToLower(cell), "setup") {
				marks = append(marks, mark{col: col})
				continue
			}
			if m := weekLabelRe.FindStringSubmatch(cell); m != nil {
				week, err := strconv.Atoi(m[1])
				if err != nil || week <= 0 {
					continue
				}
				marks = append(marks, mark{col: col, week: week})
			}
		}

		var groups []group
		for j, m := range marks {
			if m.week == 0 {
				continue
			}
			end := -1 // open-ended: runs to the end of each data row
			if j+1 < len(marks) {
				end = marks[j+1].col
			}
			groups = append(groups, group{week: m.week, start: m.col, end: end})
		}
		if len(groups) > 0 {
			return i, groups
		}
	}
	return -1, nil
}

// isSubHeader reports whether a row labels the sub-columns of each group.
func isSubHeader(row []string, groups []group) bool {
	for _, g := range groups {
		for col := g.start; col < bound(row, g); col++ {
			if subColumnLabels[subLabel(row[col])] {
				return true
			}
		}
	}
	return false
}

// subLabel reduces a sub-column label to its leading word:
// "Weight (lbs)" -> "weight", "Done?" -> "done"
func subLabel(s string) string {
	s = normalize(s)
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(strings.TrimSpace(s), "?:.#")
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// hasData reports whether any week group of row holds a value.
func hasData(row []string, groups []group) bool {
	for _, g := range groups {
		if !parseCell(row, g).Empty() {
			return true
		}
	}
	return false
}

// nextHasData reports whether the next labelled row after rowIdx carries data
// and is not itself a day header.
func nextHasData(rows [][]string, rowIdx int, groups []group, skip map[string]bool, isDay func(string) bool) bool {
	for _, row := range rows[rowIdx+1:] {
		if len(row) == 0 {
			continue
		}
		first := strings.TrimSpace(row[0])
		if first == "" || skip[normalize(first)] {
			continue
		}
		return !isDay(first) && hasData(row, groups)
	}
	return false
}

// bound is the exclusive column limit of a group within one row.
func bound(row []string, g group) int {
	end := len(row)
	if g.end >= 0 && g.end < end {
		end = g.end
	}
	// sets, reps, load, completed, notes
	if limit := g.start + 5; limit < end {
		end = limit
	}
	return end
}

// parseCell decodes the sub-columns of one week group.
func parseCell(row []string, g group) models.RawCell {
	end := bound(row, g)
	sub := func(i int) string {
		col := g.start + i
		if col >= end {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	return models.RawCell{
		Sets:      parseInt(sub(0)),
		Reps:      parseInt(sub(1)),
		Load:      parseLoad(sub(2)),
		Completed: parseCompletion(sub(3)),
		Notes:     sub(4),
	}
}

// parseInt accepts "8" and "8.0". Anything else is absent.
func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int(f)) {
		return nil
	}
	n := int(f)
	return &n
}

// parseLoad handles European decimals, unit suffixes and N/A.
// "102,5" -> 102.5, "135 lbs" -> 135, "N/A" -> absent
func parseLoad(s string) *float64 {
	s = unitSuffixRe.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" || strings.EqualFold(s, "n/a") || s == "-" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseCompletion(s string) models.Completion {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE", "YES", "Y", "X", "1", "DONE", "✓", "✔":
		return models.CompletionDone
	case "FALSE", "NO", "N", "0":
		return models.CompletionSkipped
	default:
		return models.CompletionUnknown
	}
}

// normalize lowercases and collapses inner whitespace.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
