package schedule

import "fmt"

// UnknownDayLabelError means a day label is not a training slot of the cycle.
type UnknownDayLabelError struct {
	Label string
	Cycle string
}

func (e *UnknownDayLabelError) Error() string {
	return fmt.Sprintf("day label %q is not in cycle %q", e.Label, e.Cycle)
}

// Code identifies the error kind in reports.
func (e *UnknownDayLabelError) Code() string { return "unknown_day_label" }
