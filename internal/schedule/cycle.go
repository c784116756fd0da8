package schedule

import (
	"fmt"
	"sort"
	"strings"
)

// Slot is one day of a cycle. Rest slots consume a day but never match a label.
type Slot struct {
	Label string
	Rest  bool
}

// Cycle is a fixed-length rotation of training and rest days.
type Cycle struct {
	Name  string
	slots []Slot
	index map[string]int // normalized training label -> slot position
}

// NewCycle builds a cycle from its slots. Labels "rest", "off" and "" are rest
// slots. Training labels must be unique ignoring case and spacing.
func NewCycle(name string, labels []string) (*Cycle, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("cycle %q has no slots", name)
	}
	c := &Cycle{Name: name, index: make(map[string]int, len(labels))}
	for i, l := range labels {
		key := normalizeLabel(l)
		if key == "" || key == "rest" || key == "off" {
			c.slots = append(c.slots, Slot{Label: strings.TrimSpace(l), Rest: true})
			continue
		}
		if prev, dup := c.index[key]; dup {
			return nil, fmt.Errorf("cycle %q: label %q appears in slots %d and %d", name, l, prev+1, i+1)
		}
		c.index[key] = i
		c.slots = append(c.slots, Slot{Label: strings.TrimSpace(l)})
	}
	if len(c.index) == 0 {
		return nil, fmt.Errorf("cycle %q has only rest slots", name)
	}
	return c, nil
}

// MustCycle is NewCycle for package-level catalogs.
func MustCycle(name string, labels ...string) *Cycle {
	c, err := NewCycle(name, labels)
	if err != nil {
		panic(err)
	}
	return c
}

// Len is the cycle length in days.
func (c *Cycle) Len() int { return len(c.slots) }

// Slots returns a copy of the slot sequence.
func (c *Cycle) Slots() []Slot {
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Labels returns the training labels in slot order.
func (c *Cycle) Labels() []string {
	var out []string
	for _, s := range c.slots {
		if !s.Rest {
			out = append(out, s.Label)
		}
	}
	return out
}

// Position returns the 0-based slot index of a training label.
func (c *Cycle) Position(label string) (int, bool) {
	i, ok := c.index[normalizeLabel(label)]
	return i, ok
}

// Catalog maps cycle identifiers to definitions.
type Catalog map[string]*Cycle

// Builtin returns the predefined cycles. Each call returns a fresh catalog.
func Builtin() Catalog {
	return Catalog{
		"ppl8": MustCycle("ppl8", "Push A", "Pull A", "Legs A", "Rest", "Push B", "Pull B", "Legs B", "Rest"),
		"ppl7": MustCycle("ppl7", "Push A", "Pull A", "Legs A", "Push B", "Pull B", "Legs B", "Rest"),
		"ul7":  MustCycle("ul7", "Upper A", "Lower A", "Rest", "Upper B", "Lower B", "Rest", "Rest"),
	}
}

// Lookup returns the cycle registered under id.
func (c Catalog) Lookup(id string) (*Cycle, error) {
	cycle, ok := c[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("unknown cycle %q (known: %s)", id, strings.Join(c.Names(), ", "))
	}
	return cycle, nil
}

// Names lists the catalog identifiers, sorted.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
