package page

import (
	"fmt"
	"strings"
	"time"
)

// Lang selects the wording of the page.
type Lang string

const (
	French  Lang = "fr"
	English Lang = "en"
)

// ParseLang returns the Lang for a configuration value.
func ParseLang(s string) (Lang, error) {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case French:
		return French, nil
	case English:
		return English, nil
	default:
		return "", fmt.Errorf("unsupported language %q", s)
	}
}

var (
	frenchDays   = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}
	frenchMonths = [...]string{"janvier", "février", "mars", "avril", "mai", "juin",
		"juillet", "août", "septembre", "octobre", "novembre", "décembre"}
	frenchMonthsShort = [...]string{"janv.", "févr.", "mars", "avr.", "mai", "juin",
		"juil.", "août", "sept.", "oct.", "nov.", "déc."}
)

// Heading renders the date shown under the title, capitalized.
func (l Lang) Heading(t time.Time) string {
	if l == French {
		s := fmt.Sprintf("%s %02d %s %d", frenchDays[t.Weekday()], t.Day(), frenchMonths[t.Month()-1], t.Year())
		return strings.ToUpper(s[:1]) + s[1:]
	}
	return t.Format("Monday 02 January 2006")
}

// Long renders an event boundary outside the day, with its date.
func (l Lang) Long(t time.Time) string {
	if l == French {
		return fmt.Sprintf("%s %02d %s %s", frenchDays[t.Weekday()][:3]+".", t.Day(), frenchMonthsShort[t.Month()-1], t.Format("15:04"))
	}
	return t.Format("Mon 02 Jan 15:04")
}

// Temperature renders the temperature sentence.
func (l Lang) Temperature(cur, lo, hi int) string {
	if l == French {
		return fmt.Sprintf("Il fait %d°C, oscillant entre %d°C et %d°C", cur, lo, hi)
	}
	return fmt.Sprintf("It is %d°C, ranging from %d°C to %d°C", cur, lo, hi)
}

// Rain renders the rain sentence for a risk between 0 and 1.
func (l Lang) Rain(risk float64) string {
	pct := int(100 * risk)
	if l == French {
		switch {
		case risk < 0.33:
			return fmt.Sprintf("Risque de pluie : %d%%.", pct)
		case risk < 0.66:
			return fmt.Sprintf("Risque de pluie : %d%%, prenez un parapluie", pct)
		default:
			return fmt.Sprintf("Risque de pluie : %d%%, prenez un parapluie et un k-way !", pct)
		}
	}
	switch {
	case risk < 0.33:
		return fmt.Sprintf("Risk of rain: %d%%.", pct)
	case risk < 0.66:
		return fmt.Sprintf("Risk of rain: %d%%, take an umbrella", pct)
	default:
		return fmt.Sprintf("Risk of rain: %d%%, take an umbrella and a raincoat!", pct)
	}
}

func (l Lang) allDay() string {
	if l == French {
		return "Toute la journée"
	}
	return "All Day"
}

func (l Lang) noEvents() string {
	if l == French {
		return "Aucun événement aujourd'hui"
	}
	return "No events today"
}
