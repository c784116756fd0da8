package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meltforce/strongmig/internal/models"
)

// NameMapConflictError means one raw variant was listed under two canonical names.
type NameMapConflictError struct {
	Variant string
	First   string
	Second  string
}

func (e *NameMapConflictError) Error() string {
	return fmt.Sprintf("exercise %q is mapped to both %q and %q", e.Variant, e.First, e.Second)
}

// Code identifies the error kind in reports.
func (e *NameMapConflictError) Code() string { return "name_map_conflict" }

// Option configures a Mapper.
type Option func(*Mapper)

// FoldCase makes lookups case-insensitive by lowercasing table and input.
func FoldCase() Option {
	return func(m *Mapper) { m.fold = true }
}

// Mapper resolves raw exercise names to canonical names. It is immutable after
// New and safe for concurrent use.
type Mapper struct {
	fold     bool
	variants map[string]string // variant -> canonical
}

// New inverts a canonical -> variants table. The table is not retained.
func New(table map[string][]string, opts ...Option) (*Mapper, error) {
	m := &Mapper{variants: make(map[string]string)}
	for _, opt := range opts {
		opt(m)
	}

	canonicals := make([]string, 0, len(table))
	for c := range table {
		canonicals = append(canonicals, c)
	}
	sort.Strings(canonicals)

	for _, canonical := range canonicals {
		for _, v := range table[canonical] {
			key := m.key(v)
			if key == "" {
				continue
			}
			if prev, ok := m.variants[key]; ok && prev != canonical {
				return nil, &NameMapConflictError{Variant: v, First: prev, Second: canonical}
			}
			m.variants[key] = canonical
		}
	}
	return m, nil
}

func (m *Mapper) key(s string) string {
	s = strings.TrimSpace(s)
	if m.fold {
		return strings.ToLower(s)
	}
	return s
}

// Map returns the canonical name for raw, or raw itself when unmapped.
func (m *Mapper) Map(raw string) string {
	if c, ok := m.Canonical(raw); ok {
		return c
	}
	return raw
}

// Canonical reports the canonical name for a known variant.
func (m *Mapper) Canonical(raw string) (string, bool) {
	if m == nil {
		return "", false
	}
	c, ok := m.variants[m.key(raw)]
	return c, ok
}

// Len is the number of known variants.
func (m *Mapper) Len() int {
	if m == nil {
		return 0
	}
	return len(m.variants)
}

// Apply rewrites ExerciseName on every record and returns how many changed.
func (m *Mapper) Apply(records []models.SetRecord) int {
	changed := 0
	for i := range records {
		if c, ok := m.Canonical(records[i].ExerciseName); ok && c != records[i].ExerciseName {
			records[i].ExerciseName = c
			changed++
		}
	}
	return changed
}
