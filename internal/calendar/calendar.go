// Package calendar summarises an export by day for checking generated dates.
package calendar

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/meltforce/strongmig/internal/models"
)

// Day is one calendar date with the distinct workouts logged on it.
type Day struct {
	Date     time.Time
	Workouts []string // sorted
}

// Calendar is the ascending list of workout days.
type Calendar struct {
	Days []Day
}

// Gap is a run of at least the requested number of days without workouts.
type Gap struct {
	After, Before time.Time
	Days          int
}

// Summary counts workout and rest days over the calendar's range.
type Summary struct {
	First, Last time.Time
	TotalDays   int
	WorkoutDays int
	RestDays    int
	ByWorkout   map[string]int // days per workout name
}

// Build groups records by calendar date, ignoring the time of day.
func Build(records []models.SetRecord) *Calendar {
	byDate := make(map[time.Time]map[string]bool)
	for _, r := range records {
		y, m, d := r.Date.Date()
		key := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if byDate[key] == nil {
			byDate[key] = make(map[string]bool)
		}
		byDate[key][r.WorkoutName] = true
	}

	cal := &Calendar{Days: make([]Day, 0, len(byDate))}
	for date, names := range byDate {
		day := Day{Date: date}
		for n := range names {
			day.Workouts = append(day.Workouts, n)
		}
		sort.Strings(day.Workouts)
		cal.Days = append(cal.Days, day)
	}
	sort.Slice(cal.Days, func(i, j int) bool { return cal.Days[i].Date.Before(cal.Days[j].Date) })
	return cal
}

// Between returns the days within [start, end]. Zero bounds are open.
func (c *Calendar) Between(start, end time.Time) *Calendar {
	out := &Calendar{}
	for _, d := range c.Days {
		if !start.IsZero() && d.Date.Before(start) {
			continue
		}
		if !end.IsZero() && d.Date.After(end) {
			continue
		}
		out.Days = append(out.Days, d)
	}
	return out
}

// Summary computes range statistics. It is zero for an empty calendar.
func (c *Calendar) Summary() Summary {
	s := Summary{ByWorkout: make(map[string]int)}
	if len(c.Days) == 0 {
		return s
	}
	s.First = c.Days[0].Date
	s.Last = c.Days[len(c.Days)-1].Date
	s.TotalDays = daysBetween(s.First, s.Last) + 1
	s.WorkoutDays = len(c.Days)
	s.RestDays = s.TotalDays - s.WorkoutDays
	for _, d := range c.Days {
		for _, w := range d.Workouts {
			s.ByWorkout[w]++
		}
	}
	return s
}

// Gaps lists stretches of minDays or more empty days between workouts.
func (c *Calendar) Gaps(minDays int) []Gap {
	var gaps []Gap
	for i := 1; i < len(c.Days); i++ {
		prev, next := c.Days[i-1].Date, c.Days[i].Date
		if n := daysBetween(prev, next) - 1; n >= minDays {
			gaps = append(gaps, Gap{After: prev, Before: next, Days: n})
		}
	}
	return gaps
}

// Render prints one line per day grouped under month headings.
func (c *Calendar) Render(w io.Writer) error {
	if len(c.Days) == 0 {
		_, err := fmt.Fprintln(w, "No workouts found.")
		return err
	}
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "%s\nWORKOUT CALENDAR VIEW\n%s\n", rule, rule)
	fmt.Fprintf(w, "Date Range: %s to %s\n", c.Days[0].Date.Format("2006-01-02"), c.Days[len(c.Days)-1].Date.Format("2006-01-02"))
	fmt.Fprintf(w, "Total Workout Days: %d\n%s\n", len(c.Days), rule)

	month := ""
	for _, d := range c.Days {
		if m := d.Date.Format("January 2006"); m != month {
			fmt.Fprintf(w, "\n%s\n%s\n", m, strings.Repeat("-", 60))
			month = m
		}
		if _, err := fmt.Fprintf(w, "%s (%s): %s\n", d.Date.Format("2006-01-02"), d.Date.Format("Mon"), strings.Join(d.Workouts, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// RenderSummary prints Summary in the same plain layout as Render.
func (s Summary) RenderSummary(w io.Writer) error {
	if s.WorkoutDays == 0 {
		_, err := fmt.Fprintln(w, "No workouts found.")
		return err
	}
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "%s\nSUMMARY STATISTICS\n%s\n", rule, rule)
	fmt.Fprintf(w, "Date Range: %s to %s\n", s.First.Format("2006-01-02"), s.Last.Format("2006-01-02"))
	fmt.Fprintf(w, "Total Days in Range: %d\nWorkout Days: %d\nRest Days: %d\n", s.TotalDays, s.WorkoutDays, s.RestDays)
	fmt.Fprintln(w, "\nWorkout Type Breakdown:")

	names := make([]string, 0, len(s.ByWorkout))
	for n := range s.ByWorkout {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %s: %d days\n", n, s.ByWorkout[n])
	}
	_, err := fmt.Fprintln(w, rule)
	return err
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
