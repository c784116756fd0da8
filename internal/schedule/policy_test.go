package schedule

import (
	"errors"
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// TestForwardFirstWeek covers a single-week forward file starting on a Monday.
func TestForwardFirstWeek(t *testing.T) {
	p := ForwardPolicy{Start: date("2024-08-05")}
	got, err := Resolve(p, 1, "Push A")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if want := date("2024-08-05"); !got.Equal(want) {
		t.Errorf("date = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

// TestForwardWeeksSevenDaysApart verifies consecutive weeks land exactly one
// week apart for every offset, including per-label overrides.
func TestForwardWeeksSevenDaysApart(t *testing.T) {
	p := ForwardPolicy{Start: date("2024-01-01"), DayOffset: 2, DayOffsets: map[string]int{"Lower": 4}}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, day := range []string{"Upper", "lower"} {
		prev, _ := Resolve(p, 1, day)
		for week := 2; week <= 20; week++ {
			cur, err := Resolve(p, week, day)
			if err != nil {
				t.Fatalf("resolve week %d: %v", week, err)
			}
			if diff := cur.Sub(prev); diff != 7*24*time.Hour {
				t.Fatalf("%s week %d - week %d = %v, want 168h", day, week, week-1, diff)
			}
			prev = cur
		}
	}
	upper, _ := Resolve(p, 1, "Upper")
	lower, _ := Resolve(p, 1, "Lower")
	if !upper.Equal(date("2024-01-03")) || !lower.Equal(date("2024-01-05")) {
		t.Errorf("upper = %s, lower = %s", upper.Format("2006-01-02"), lower.Format("2006-01-02"))
	}
}

// TestNewForwardPolicyIndex verifies the indexed policy dates like a literal.
func TestNewForwardPolicyIndex(t *testing.T) {
	offsets := map[string]int{"Lower": 4, "Long Run": 6}
	lit := ForwardPolicy{Start: date("2024-01-01"), DayOffset: 1, DayOffsets: offsets}
	idx := NewForwardPolicy(date("2024-01-01"), 1, offsets)
	for _, day := range []string{"Upper", "LOWER", " long  run ", ""} {
		a, _ := Resolve(lit, 3, day)
		b, _ := Resolve(idx, 3, day)
		if !a.Equal(b) {
			t.Errorf("%q: indexed = %s, literal = %s", day, b.Format("2006-01-02"), a.Format("2006-01-02"))
		}
	}
	if got, _ := Resolve(idx, 1, "long run"); !got.Equal(date("2024-01-07")) {
		t.Errorf("long run week 1 = %s, want 2024-01-07", got.Format("2006-01-02"))
	}
}

// TestForwardValidate rejects out-of-range offsets and a missing start date.
func TestForwardValidate(t *testing.T) {
	if err := (ForwardPolicy{Start: date("2024-01-01"), DayOffset: 7}).Validate(); err == nil {
		t.Error("offset 7 accepted")
	}
	if err := (ForwardPolicy{DayOffset: 1}).Validate(); err == nil {
		t.Error("zero start accepted")
	}
	dup := ForwardPolicy{Start: date("2024-01-01"), DayOffsets: map[string]int{"Upper": 1, "upper ": 2}}
	if err := dup.Validate(); err == nil {
		t.Error("duplicate day offsets accepted")
	}
}

// TestBackwardPPL walks an 8-day push/pull/legs cycle back from its last
// workout.
func TestBackwardPPL(t *testing.T) {
	cycles := Builtin()
	ppl, err := cycles.Lookup("ppl8")
	if err != nil {
		t.Fatal(err)
	}
	p := BackwardPolicy{End: date("2025-07-05"), EndDay: "Legs B", EndWeek: 12, Cycle: ppl}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cases := []struct {
		week int
		day  string
		want string
	}{
		{12, "Legs B", "2025-07-05"},
		{12, "Pull B", "2025-07-04"},
		{12, "Push B", "2025-07-03"},
		{12, "Legs A", "2025-07-01"},
		{12, "Push A", "2025-06-29"},
		{11, "Legs B", "2025-06-27"},
		{1, "Legs B", "2025-04-08"},
	}
	for _, c := range cases {
		got, err := Resolve(p, c.week, c.day)
		if err != nil {
			t.Fatalf("resolve %d %s: %v", c.week, c.day, err)
		}
		if got.Format("2006-01-02") != c.want {
			t.Errorf("week %d %s = %s, want %s", c.week, c.day, got.Format("2006-01-02"), c.want)
		}
	}
}

// TestBackwardPureFunction verifies that resolution order does not matter.
func TestBackwardPureFunction(t *testing.T) {
	p := BackwardPolicy{End: date("2025-07-05"), EndDay: "Legs B", EndWeek: 4, Cycle: Builtin()["ppl8"]}
	forward := map[string]time.Time{}
	for week := 1; week <= 4; week++ {
		for _, day := range p.Cycle.Labels() {
			d, _ := Resolve(p, week, day)
			forward[day+string(rune('0'+week))] = d
		}
	}
	for week := 4; week >= 1; week-- {
		labels := p.Cycle.Labels()
		for i := len(labels) - 1; i >= 0; i-- {
			d, _ := Resolve(p, week, labels[i])
			if !d.Equal(forward[labels[i]+string(rune('0'+week))]) {
				t.Errorf("week %d %s differs by resolution order", week, labels[i])
			}
		}
	}
}

// TestBackwardEndAnchorNoDrift checks the anchor resolves to End for any cycle
// and any final week.
func TestBackwardEndAnchorNoDrift(t *testing.T) {
	end := date("2023-11-30")
	for name, cycle := range Builtin() {
		for _, label := range cycle.Labels() {
			for _, endWeek := range []int{1, 5, 52} {
				p := BackwardPolicy{End: end, EndDay: label, EndWeek: endWeek, Cycle: cycle}
				got, err := Resolve(p, endWeek, label)
				if err != nil {
					t.Fatalf("%s %s: %v", name, label, err)
				}
				if !got.Equal(end) {
					t.Errorf("%s anchor %s week %d = %s, want %s", name, label, endWeek, got, end)
				}
			}
		}
	}
}

// TestBackwardUnknownLabel verifies that unknown and rest labels are rejected.
func TestBackwardUnknownLabel(t *testing.T) {
	p := BackwardPolicy{End: date("2025-07-05"), EndDay: "Legs B", EndWeek: 2, Cycle: Builtin()["ppl8"]}
	for _, label := range []string{"Arms", "Rest"} {
		_, err := Resolve(p, 1, label)
		var unknown *UnknownDayLabelError
		if !errors.As(err, &unknown) {
			t.Fatalf("label %q: err = %v, want UnknownDayLabelError", label, err)
		}
		if unknown.Label != label || unknown.Cycle != "ppl8" {
			t.Errorf("error = %+v", unknown)
		}
	}

	bad := p
	bad.EndDay = "Chest"
	var unknown *UnknownDayLabelError
	if err := bad.Validate(); !errors.As(err, &unknown) {
		t.Errorf("validate with unknown end day: err = %v", err)
	}
}

// TestLabelMatchingIgnoresCase verifies normalized label lookup.
func TestLabelMatchingIgnoresCase(t *testing.T) {
	p := BackwardPolicy{End: date("2025-07-05"), EndDay: "legs  b", EndWeek: 1, Cycle: Builtin()["ppl8"]}
	got, err := Resolve(p, 1, "PULL B")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Format("2006-01-02") != "2025-07-04" {
		t.Errorf("date = %s, want 2025-07-04", got.Format("2006-01-02"))
	}
}

// TestResolveRejectsWeekZero guards against header week numbers below 1.
func TestResolveRejectsWeekZero(t *testing.T) {
	if _, err := Resolve(ForwardPolicy{Start: date("2024-01-01")}, 0, "Day 1"); err == nil {
		t.Error("week 0 accepted")
	}
}
