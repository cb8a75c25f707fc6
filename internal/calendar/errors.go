package calendar

import "fmt"

// ParseError reports a calendar entry that does not follow the expected
// line structure.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line == "" {
		return "parse event: " + e.Reason
	}
	return fmt.Sprintf("parse event: %s: %q", e.Reason, e.Line)
}

// ResolutionError reports a TZID that could not be found in the timezone
// database.
type ResolutionError struct {
	TZID string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve timezone %q: %v", e.TZID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// FeedError is returned when a whole feed had to be dropped from the
// agenda because one of its entries could not be read.
type FeedError struct {
	Feed string
	Err  error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed %q: %v", e.Feed, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }
