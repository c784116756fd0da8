package schedule

import "testing"

// TestNewCycleRestSlots verifies rest slots count toward length but not labels.
func TestNewCycleRestSlots(t *testing.T) {
	c, err := NewCycle("ul", []string{"Upper", "Lower", "rest", "", "Upper B", "Off"})
	if err != nil {
		t.Fatalf("new cycle: %v", err)
	}
	if c.Len() != 6 {
		t.Errorf("len = %d, want 6", c.Len())
	}
	labels := c.Labels()
	if len(labels) != 3 || labels[2] != "Upper B" {
		t.Errorf("labels = %v", labels)
	}
	if pos, ok := c.Position("upper b"); !ok || pos != 4 {
		t.Errorf("position(upper b) = %d, %v, want 4, true", pos, ok)
	}
	slots := c.Slots()
	if !slots[2].Rest || !slots[3].Rest || !slots[5].Rest || slots[0].Rest {
		t.Errorf("slots = %+v", slots)
	}
}

// TestNewCycleRejectsDuplicates verifies labels must be unique.
func TestNewCycleRejectsDuplicates(t *testing.T) {
	if _, err := NewCycle("dup", []string{"Push", "Pull", "push"}); err == nil {
		t.Error("duplicate label accepted")
	}
	if _, err := NewCycle("rest", []string{"Rest", "Rest"}); err == nil {
		t.Error("rest-only cycle accepted")
	}
	if _, err := NewCycle("empty", nil); err == nil {
		t.Error("empty cycle accepted")
	}
}

// TestCatalogLookup verifies built-in identifiers and unknown ids.
func TestCatalogLookup(t *testing.T) {
	cat := Builtin()
	c, err := cat.Lookup(" PPL8 ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if c.Len() != 8 {
		t.Errorf("ppl8 len = %d, want 8", c.Len())
	}
	if _, err := cat.Lookup("bro-split"); err == nil {
		t.Error("unknown cycle accepted")
	}
	names := cat.Names()
	if len(names) != 3 || names[0] != "ppl7" {
		t.Errorf("names = %v", names)
	}
}
