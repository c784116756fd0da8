package mapping

import (
	"errors"
	"testing"

	"github.com/meltforce/strongmig/internal/models"
)

var table = map[string][]string{
	"Bench Press (Barbell)": {"Bench Press", "Flat Bench", "BB Bench"},
	"Squat (Barbell)":       {"Squat", "Back Squat"},
}

// TestMapVariants verifies inverted lookup and pass-through of unmapped names.
func TestMapVariants(t *testing.T) {
	m, err := New(table)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if m.Len() != 5 {
		t.Errorf("len = %d, want 5", m.Len())
	}
	cases := map[string]string{
		"Flat Bench":      "Bench Press (Barbell)",
		"Back Squat":      "Squat (Barbell)",
		" Squat ":         "Squat (Barbell)",
		"Cable Fly":       "Cable Fly",
		"flat bench":      "flat bench",
		"Squat (Barbell)": "Squat (Barbell)",
	}
	for in, want := range cases {
		if got := m.Map(in); got != want {
			t.Errorf("Map(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestFoldCase verifies caller-requested case folding.
func TestFoldCase(t *testing.T) {
	m, err := New(table, FoldCase())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := m.Map("FLAT bench"); got != "Bench Press (Barbell)" {
		t.Errorf("Map = %q", got)
	}
	if got := m.Map("Unknown Lift"); got != "Unknown Lift" {
		t.Errorf("unmapped name changed to %q", got)
	}
}

// TestConflict verifies that a variant under two canonical names is rejected
// with both names reported.
func TestConflict(t *testing.T) {
	bad := map[string][]string{
		"Row (Barbell)":  {"BB Row", "Row"},
		"Row (Dumbbell)": {"DB Row", "Row"},
	}
	_, err := New(bad)
	var conflict *NameMapConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want NameMapConflictError", err)
	}
	if conflict.Variant != "Row" || conflict.First != "Row (Barbell)" || conflict.Second != "Row (Dumbbell)" {
		t.Errorf("conflict = %+v", conflict)
	}

	// Case folding can create a conflict that exact matching does not.
	folded := map[string][]string{"A": {"press"}, "B": {"Press"}}
	if _, err := New(folded); err != nil {
		t.Errorf("exact: unexpected error %v", err)
	}
	if _, err := New(folded, FoldCase()); !errors.As(err, &conflict) {
		t.Errorf("folded: err = %v, want conflict", err)
	}
}

// TestDuplicateVariantSameCanonical is not a conflict.
func TestDuplicateVariantSameCanonical(t *testing.T) {
	if _, err := New(map[string][]string{"Deadlift": {"DL", "DL"}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestApply verifies records are rewritten and the table is left alone.
func TestApply(t *testing.T) {
	m, _ := New(table)
	recs := []models.SetRecord{{ExerciseName: "BB Bench"}, {ExerciseName: "Dips"}, {ExerciseName: "Squat"}}
	if n := m.Apply(recs); n != 2 {
		t.Errorf("changed = %d, want 2", n)
	}
	if recs[0].ExerciseName != "Bench Press (Barbell)" || recs[1].ExerciseName != "Dips" || recs[2].ExerciseName != "Squat (Barbell)" {
		t.Errorf("records = %+v", recs)
	}
	if len(table["Squat (Barbell)"]) != 2 {
		t.Error("table mutated")
	}
}

// TestNilMapper passes names through.
func TestNilMapper(t *testing.T) {
	var m *Mapper
	if got := m.Map("Squat"); got != "Squat" {
		t.Errorf("Map = %q", got)
	}
}
