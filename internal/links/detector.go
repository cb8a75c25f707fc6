// Package links detects meeting URLs in calendar events.
package links

import (
	"regexp"
	"strings"
)

// Meeting link patterns for various services
var patterns = []*regexp.Regexp{
	// Zoom
	regexp.MustCompile(`https?://[\w.-]*zoom\.us/j/[\w?=&-]+`),

	// Microsoft Teams
	regexp.MustCompile(`https?://teams\.microsoft\.com/l/meetup-join/[\w%/.-]+`),

	// Google Meet
	regexp.MustCompile(`https?://meet\.google\.com/[\w-]+`),

	// Webex
	regexp.MustCompile(`https?://[\w.-]*\.webex\.com/[\w./-]+`),

	// Generic URL, used when no known service matches
	regexp.MustCompile(`https?://[^\s<>"]+`),
}

// Link is a URL found in an event location.
type Link struct {
	URL     string
	Service string
}

// Detect finds the first link in the given text.
// Known meeting services win over generic URLs.
func Detect(text string) (Link, bool) {
	if text == "" {
		return Link{}, false
	}

	for _, pattern := range patterns {
		if match := pattern.FindString(text); match != "" {
			return Link{URL: match, Service: Service(match)}, true
		}
	}
	return Link{}, false
}

// Split separates a location into its place text and the link it carries.
// Locations such as "Room 4, https://meet.google.com/abc-defg-hij" give
// "Room 4" and the Meet link. Without a link the location is returned as is.
func Split(location string) (string, Link, bool) {
	link, ok := Detect(location)
	if !ok {
		return location, Link{}, false
	}
	place := strings.Replace(location, link.URL, "", 1)
	place = strings.Trim(place, " \t,;-|")
	return place, link, true
}

// Service returns the name of the meeting service for a URL.
func Service(url string) string {
	switch {
	case patterns[0].MatchString(url):
		return "Zoom"
	case patterns[1].MatchString(url):
		return "Teams"
	case patterns[2].MatchString(url):
		return "Meet"
	case patterns[3].MatchString(url):
		return "Webex"
	default:
		return "Link"
	}
}
