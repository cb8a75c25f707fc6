package page

import (
	"fmt"
	"io"
	"strings"

	"github.com/cpuguy83/dailycommute/internal/calendar"
)

// WriteText prints the agenda of the day as plain text: timed events in
// order, then an all-day section.
func WriteText(w io.Writer, lang Lang, day calendar.Day, events []calendar.Event) error {
	if lang == "" {
		lang = French
	}
	f := calendar.Formatter{Day: day, Long: lang.Long}

	var timed, allDay []string
	for _, ev := range events {
		name, location, hours := f.Display(ev)
		if location != "" {
			name += " @ " + location
		}
		if ev.AllDay() {
			allDay = append(allDay, fmt.Sprintf("  %s (%s)", name, ev.Category()))
			continue
		}
		timed = append(timed, fmt.Sprintf("  %-13s %s (%s)", hours, name, ev.Category()))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "━━━━ %s ━━━━\n", lang.Heading(day.Start))
	for _, line := range timed {
		b.WriteString(line + "\n")
	}
	if len(allDay) > 0 {
		fmt.Fprintf(&b, "━━━━ %s ━━━━\n", lang.allDay())
		for _, line := range allDay {
			b.WriteString(line + "\n")
		}
	}
	if len(events) == 0 {
		b.WriteString("  " + lang.noEvents() + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
