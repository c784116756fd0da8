package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Policy derives a calendar date for a (week, day label) pair. The two
// implementations are ForwardPolicy and BackwardPolicy.
type Policy interface {
	// Date returns the midnight UTC date of the workout.
	Date(week int, day string) (time.Time, error)
	// Validate checks the policy parameters before any row is resolved.
	Validate() error
	// Mode is "forward" or "backward".
	Mode() string
	// Labels are the day labels the policy knows by name.
	Labels() []string

	sealed()
}

// Resolve dates one (week, day) pair under p.
func Resolve(p Policy, week int, day string) (time.Time, error) {
	if week <= 0 {
		return time.Time{}, fmt.Errorf("week %d: weeks are numbered from 1", week)
	}
	return p.Date(week, day)
}

// ForwardPolicy dates week 1 from Start and every later week 7 days apart.
// The day offset does not depend on the label unless DayOffsets names it.
type ForwardPolicy struct {
	Start      time.Time
	DayOffset  int            // 0=first day of the week .. 6
	DayOffsets map[string]int // optional per-label override, same range

	index map[string]int // DayOffsets by normalized label
}

// NewForwardPolicy builds a forward policy with its label index in place.
func NewForwardPolicy(start time.Time, offset int, offsets map[string]int) ForwardPolicy {
	p := ForwardPolicy{Start: start, DayOffset: offset, DayOffsets: offsets}
	if len(offsets) > 0 {
		p.index = make(map[string]int, len(offsets))
		for label, off := range offsets {
			p.index[normalizeLabel(label)] = off
		}
	}
	return p
}

func (p ForwardPolicy) Mode() string { return "forward" }
func (p ForwardPolicy) sealed()      {}

func (p ForwardPolicy) Labels() []string {
	labels := make([]string, 0, len(p.DayOffsets))
	for l := range p.DayOffsets {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

func (p ForwardPolicy) Validate() error {
	if p.Start.IsZero() {
		return fmt.Errorf("forward policy: start date is required")
	}
	if p.DayOffset < 0 || p.DayOffset > 6 {
		return fmt.Errorf("forward policy: day offset %d outside 0-6", p.DayOffset)
	}
	seen := make(map[string]string, len(p.DayOffsets))
	for label, off := range p.DayOffsets {
		if off < 0 || off > 6 {
			return fmt.Errorf("forward policy: day offset %d for %q outside 0-6", off, label)
		}
		key := normalizeLabel(label)
		if other, dup := seen[key]; dup {
			return fmt.Errorf("forward policy: day offsets %q and %q name the same day", other, label)
		}
		seen[key] = label
	}
	return nil
}

func (p ForwardPolicy) Date(week int, day string) (time.Time, error) {
	offset := p.DayOffset
	key := normalizeLabel(day)
	if p.index != nil {
		if off, ok := p.index[key]; ok {
			offset = off
		}
	} else {
		// literal without NewForwardPolicy
		for label, off := range p.DayOffsets {
			if normalizeLabel(label) == key {
				offset = off
				break
			}
		}
	}
	return dayOf(p.Start).AddDate(0, 0, (week-1)*7+offset), nil
}

// BackwardPolicy anchors the workout labelled EndDay in week EndWeek on End
// and walks back through the cycle: each week is one full cycle.
type BackwardPolicy struct {
	End     time.Time
	EndDay  string
	EndWeek int // final week index; the pipeline fills it from the header when 0
	Cycle   *Cycle
}

func (p BackwardPolicy) Mode() string { return "backward" }
func (p BackwardPolicy) sealed()      {}

func (p BackwardPolicy) Labels() []string {
	if p.Cycle == nil {
		return nil
	}
	return p.Cycle.Labels()
}

func (p BackwardPolicy) Validate() error {
	if p.End.IsZero() {
		return fmt.Errorf("backward policy: end date is required")
	}
	if p.Cycle == nil {
		return fmt.Errorf("backward policy: cycle is required")
	}
	if p.EndWeek <= 0 {
		return fmt.Errorf("backward policy: end week must be positive, got %d", p.EndWeek)
	}
	if _, ok := p.Cycle.Position(p.EndDay); !ok {
		return &UnknownDayLabelError{Label: p.EndDay, Cycle: p.Cycle.Name}
	}
	return nil
}

func (p BackwardPolicy) Date(week int, day string) (time.Time, error) {
	offset, err := p.Offset(week, day)
	if err != nil {
		return time.Time{}, err
	}
	return dayOf(p.End).AddDate(0, 0, -offset), nil
}

// Offset is the number of days from (week, day) forward to the end anchor.
// Negative offsets fall after the anchor.
func (p BackwardPolicy) Offset(week int, day string) (int, error) {
	slot, ok := p.Cycle.Position(day)
	if !ok {
		return 0, &UnknownDayLabelError{Label: day, Cycle: p.Cycle.Name}
	}
	endSlot, ok := p.Cycle.Position(p.EndDay)
	if !ok {
		return 0, &UnknownDayLabelError{Label: p.EndDay, Cycle: p.Cycle.Name}
	}
	return (p.EndWeek-week)*p.Cycle.Len() + (endSlot - slot), nil
}

// dayOf truncates t to its calendar date in UTC.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
