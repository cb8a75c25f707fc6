// Package filter selects which of today's events reach the page.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cpuguy83/dailycommute/internal/calendar"
	"github.com/cpuguy83/dailycommute/internal/config"
)

// Field is the part of an event a rule looks at.
type Field int

const (
	FieldTitle Field = iota
	FieldLocation
	FieldCategory
	FieldFeed
)

// ParseField maps a config value to a Field.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "title", "summary":
		return FieldTitle, nil
	case "location", "place":
		return FieldLocation, nil
	case "category":
		return FieldCategory, nil
	case "feed", "calendar":
		return FieldFeed, nil
	}
	return 0, fmt.Errorf("unknown field %q (use title, location, category, feed)", s)
}

func (f Field) value(e calendar.Event) string {
	switch f {
	case FieldTitle:
		return e.Summary()
	case FieldLocation:
		return e.Location()
	case FieldCategory:
		return e.Category().String()
	case FieldFeed:
		return e.Feed()
	}
	return ""
}

// Mode combines include rules.
type Mode int

const (
	ModeAny Mode = iota // one rule must match
	ModeAll             // every rule must match
)

// ParseMode maps a config value to a Mode. Empty means ModeAny.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "or", "any":
		return ModeAny, nil
	case "and", "all":
		return ModeAll, nil
	}
	return 0, fmt.Errorf("invalid filter mode %q (use or, and)", s)
}

// Filter keeps the events matching its include rules and none of its
// exclude rules.
type Filter struct {
	mode    Mode
	include []rule
	exclude []rule
}

type rule func(calendar.Event) bool

// New creates a new filter from configuration.
func New(cfg config.FilterConfig) (*Filter, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	include, err := compileRules("rule", cfg.Rules)
	if err != nil {
		return nil, err
	}
	exclude, err := compileRules("exclude rule", cfg.Exclude)
	if err != nil {
		return nil, err
	}
	return &Filter{mode: mode, include: include, exclude: exclude}, nil
}

func compileRules(kind string, cfgs []config.FilterRule) ([]rule, error) {
	var rules []rule
	for i, r := range cfgs {
		compiled, err := compileRule(r)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", kind, i, err)
		}
		rules = append(rules, compiled)
	}
	return rules, nil
}

func compileRule(r config.FilterRule) (rule, error) {
	field, err := ParseField(r.Field)
	if err != nil {
		return nil, err
	}

	if field == FieldCategory {
		return categoryRule(r)
	}

	match, err := textMatcher(r)
	if err != nil {
		return nil, err
	}
	return func(e calendar.Event) bool {
		return match(field.value(e))
	}, nil
}

// categoryRule compares categories by value, so "birthday" and "bday" name
// the same rule.
func categoryRule(r config.FilterRule) (rule, error) {
	if r.Exact == "" || r.Contains != "" || r.Prefix != "" || r.Suffix != "" || r.Regex != "" {
		return nil, fmt.Errorf("category rules take exact with a category name")
	}
	cat, err := calendar.ParseCategory(r.Exact)
	if err != nil {
		return nil, err
	}
	return func(e calendar.Event) bool {
		return e.Category() == cat
	}, nil
}

// textMatcher builds the string test of a rule. When several patterns are
// set, regex wins over exact, prefix, suffix and contains, in that order.
func textMatcher(r config.FilterRule) (func(string) bool, error) {
	fold := func(s string) string {
		if r.CaseInsensitive {
			return strings.ToLower(s)
		}
		return s
	}

	switch {
	case r.Regex != "":
		pattern := r.Regex
		if r.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", r.Regex, err)
		}
		return re.MatchString, nil

	case r.Exact != "":
		want := fold(r.Exact)
		return func(v string) bool { return fold(v) == want }, nil

	case r.Prefix != "":
		want := fold(r.Prefix)
		return func(v string) bool { return strings.HasPrefix(fold(v), want) }, nil

	case r.Suffix != "":
		want := fold(r.Suffix)
		return func(v string) bool { return strings.HasSuffix(fold(v), want) }, nil

	case r.Contains != "":
		want := fold(r.Contains)
		return func(v string) bool { return strings.Contains(fold(v), want) }, nil
	}

	return nil, fmt.Errorf("no match pattern specified (use contains, exact, prefix, suffix, or regex)")
}

// Apply returns the events that pass the filter, in order.
// If no rules are defined, all events are returned.
func (f *Filter) Apply(events []calendar.Event) []calendar.Event {
	if len(f.include) == 0 && len(f.exclude) == 0 {
		return events
	}

	var filtered []calendar.Event
	for _, event := range events {
		if f.Match(event) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// Match reports whether e passes the filter.
func (f *Filter) Match(e calendar.Event) bool {
	for _, r := range f.exclude {
		if r(e) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}

	if f.mode == ModeAll {
		for _, r := range f.include {
			if !r(e) {
				return false
			}
		}
		return true
	}

	for _, r := range f.include {
		if r(e) {
			return true
		}
	}
	return false
}
