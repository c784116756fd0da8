package migrator

import (
	"errors"
	"fmt"
	"strings"
)

// Codes for failures that carry no typed error of their own.
const (
	CodeReadFailed    = "read_failed"
	CodeInvalidPolicy = "invalid_policy"
)

// FileError locates a fatal per-file failure: which file, where, and why.
type FileError struct {
	Path     string
	Row      int // 0-based source row, -1 when not row specific
	Week     int
	Day      string
	Exercise string
	Code     string
	Err      error
}

func (e *FileError) Error() string {
	var loc []string
	if e.Row >= 0 {
		loc = append(loc, fmt.Sprintf("row %d", e.Row+1))
	}
	if e.Week > 0 {
		loc = append(loc, fmt.Sprintf("week %d", e.Week))
	}
	if e.Day != "" {
		loc = append(loc, fmt.Sprintf("day %q", e.Day))
	}
	if e.Exercise != "" {
		loc = append(loc, fmt.Sprintf("exercise %q", e.Exercise))
	}
	if len(loc) == 0 {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (%s): %s: %v", e.Path, strings.Join(loc, ", "), e.Code, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

type coder interface {
	Code() string
}

// codeOf returns the error kind carried by err, or fallback.
func codeOf(err error, fallback string) string {
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return fallback
}
