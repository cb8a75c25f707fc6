package calendar

import (
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
)

const (
	dateLayout     = "20060102"
	dateTimeLayout = "20060102T150405"

	// VTIMEZONE rules carry DTSTART values in 1970; they never describe the event.
	epochSentinel = "19700101"
)

type boundaryKind uint8

const (
	boundaryUnset boundaryKind = iota
	boundaryDate
	boundaryUTC
	boundaryWall
)

// boundary is one side of an event as written in the entry, before
// timezone conversion.
type boundary struct {
	kind boundaryKind
	date Date
	// wall holds the written clock reading with a UTC location. For
	// boundaryUTC it is the instant itself.
	wall time.Time
	// tzid names the zone of a boundaryWall; empty means floating time.
	tzid string
}

// record is a parsed calendar entry.
type record struct {
	uid      string
	summary  string
	location string
	start    boundary
	end      boundary
	duration time.Duration
	hasDur   bool
}

// parseRecord reads the lines of one entry. Full VCALENDAR payloads are
// narrowed to the first VEVENT; bare property lists are read as they are.
func parseRecord(payload string) (record, error) {
	var rec record

	for _, line := range eventLines(unfold(payload)) {
		var err error
		switch {
		case strings.HasPrefix(line, "SUMMARY:"):
			rec.summary = strings.TrimPrefix(line, "SUMMARY:")
		case strings.HasPrefix(line, "LOCATION:"):
			rec.location = strings.TrimPrefix(line, "LOCATION:")
		case strings.HasPrefix(line, "UID:"):
			rec.uid = strings.TrimPrefix(line, "UID:")
		case strings.HasPrefix(line, "DURATION:"):
			rec.duration, err = parseDuration(line)
			rec.hasDur = err == nil
		case strings.HasPrefix(line, "DTSTART;"):
			rec.start, err = parseParamBoundary(line, "DTSTART;")
		case strings.HasPrefix(line, "DTEND;"):
			rec.end, err = parseParamBoundary(line, "DTEND;")
		case strings.HasPrefix(line, "DTSTART:"):
			value := strings.TrimPrefix(line, "DTSTART:")
			if strings.HasPrefix(value, epochSentinel) {
				continue
			}
			rec.start, err = parseBareBoundary(line, value)
		case strings.HasPrefix(line, "DTEND:"):
			rec.end, err = parseBareBoundary(line, strings.TrimPrefix(line, "DTEND:"))
		}
		if err != nil {
			return rec, err
		}
	}

	return rec, nil
}

// unfold splits a payload into logical lines, joining RFC 5545 continuation
// lines (those starting with a space or tab) onto the previous one.
func unfold(payload string) []string {
	raw := strings.Split(strings.ReplaceAll(payload, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if (strings.HasPrefix(l, " ") || strings.HasPrefix(l, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += l[1:]
			continue
		}
		l = strings.TrimRight(l, "\r")
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// eventLines returns the property lines of the first VEVENT, skipping
// nested components such as VALARM. Without a VEVENT every line is kept.
func eventLines(lines []string) []string {
	begin := -1
	for i, l := range lines {
		if l == "BEGIN:VEVENT" {
			begin = i
			break
		}
	}
	if begin < 0 {
		return lines
	}

	var out []string
	depth := 0
	for _, l := range lines[begin+1:] {
		switch {
		case l == "END:VEVENT" && depth == 0:
			return out
		case strings.HasPrefix(l, "BEGIN:"):
			depth++
		case strings.HasPrefix(l, "END:"):
			depth--
		case depth == 0:
			out = append(out, l)
		}
	}
	return out
}

// parseParamBoundary handles DTSTART;PARAMS:VALUE and DTEND;PARAMS:VALUE.
func parseParamBoundary(line, prefix string) (boundary, error) {
	fields := strings.Split(strings.TrimPrefix(line, prefix), ":")
	if len(fields) != 2 {
		return boundary{}, &ParseError{Line: line, Reason: "expected parameters and a single value"}
	}
	params := parseParams(fields[0])
	value := fields[1]

	if strings.EqualFold(params["VALUE"], "DATE") {
		return parseDateBoundary(line, value)
	}

	b, err := parseClock(line, value)
	if err != nil {
		return b, err
	}
	if b.kind == boundaryWall {
		b.tzid = params["TZID"]
	}
	return b, nil
}

// parseBareBoundary handles DTSTART:VALUE and DTEND:VALUE, which carry UTC
// date-times. Date-only values are accepted as all-day boundaries.
func parseBareBoundary(line, value string) (boundary, error) {
	if len(value) == len(dateLayout) {
		return parseDateBoundary(line, value)
	}
	t, err := time.Parse(dateTimeLayout, strings.TrimSuffix(value, "Z"))
	if err != nil {
		return boundary{}, &ParseError{Line: line, Reason: "invalid date-time"}
	}
	return boundary{kind: boundaryUTC, wall: t}, nil
}

func parseDateBoundary(line, value string) (boundary, error) {
	if len(value) != len(dateLayout) {
		return boundary{}, &ParseError{Line: line, Reason: "date must be YYYYMMDD"}
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return boundary{}, &ParseError{Line: line, Reason: "invalid date"}
	}
	return boundary{kind: boundaryDate, date: DateOf(t)}, nil
}

// parseClock reads YYYYMMDDTHHMMSS with an optional Z. A Z marks a UTC
// instant, anything else is a wall clock reading.
func parseClock(line, value string) (boundary, error) {
	utc := strings.HasSuffix(value, "Z")
	t, err := time.Parse(dateTimeLayout, strings.TrimSuffix(value, "Z"))
	if err != nil {
		return boundary{}, &ParseError{Line: line, Reason: "invalid date-time"}
	}
	if utc {
		return boundary{kind: boundaryUTC, wall: t}, nil
	}
	return boundary{kind: boundaryWall, wall: t}, nil
}

// parseParams reads "KEY=VALUE;KEY=VALUE" parameter blocks. Keys are
// upper-cased, quoted values unquoted.
func parseParams(block string) map[string]string {
	params := make(map[string]string)
	for _, p := range strings.Split(block, ";") {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		params[strings.ToUpper(strings.TrimSpace(key))] = strings.Trim(value, `"`)
	}
	return params
}

func parseDuration(line string) (time.Duration, error) {
	prop := ics.NewProp(ics.PropDuration)
	prop.Value = strings.TrimPrefix(line, "DURATION:")
	d, err := prop.Duration()
	if err != nil {
		return 0, &ParseError{Line: line, Reason: "invalid duration"}
	}
	return d, nil
}
