package models

import "math"

// Page selects a window of an ordered result. Start and End are zero-based
// and End is inclusive; a nil End means everything from Start onward.
type Page struct {
	Start int  `json:"start"`
	End   *int `json:"end,omitempty"`
}

// Validate rejects windows that cannot be expressed.
func (p Page) Validate() error {
	if p.Start < 0 {
		return NewValidationError("start must not be negative")
	}
	return nil
}

// Limit returns the number of rows the window covers, or -1 when unbounded.
// An End before Start yields 0.
func (p Page) Limit() int {
	if p.End == nil {
		return -1
	}
	if *p.End < p.Start {
		return 0
	}
	// a window too wide for an int covers everything from Start
	d := *p.End - p.Start
	if d < 0 || d == math.MaxInt {
		return -1
	}
	return d + 1
}

// Empty reports whether the window can never contain a row.
func (p Page) Empty() bool {
	return p.Limit() == 0
}

// Range is a convenience constructor for a bounded window.
func Range(start, end int) Page {
	return Page{Start: start, End: &end}
}

// From is a convenience constructor for an unbounded window.
func From(start int) Page {
	return Page{Start: start}
}
