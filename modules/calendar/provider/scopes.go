package provider

import (
	"strings"

	"google.golang.org/api/calendar/v3"
)

const scopePrefix = "https://www.googleapis.com/auth/"

// Known calendar scopes, most privileged first.
var scopePreference = []string{
	calendar.CalendarScope,
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
	calendar.CalendarEventsReadonlyScope,
}

var writeScopes = map[string]bool{
	calendar.CalendarScope:       true,
	calendar.CalendarEventsScope: true,
}

// ParseScopes splits a granted-scope string on whitespace or commas.
// Short names such as "calendar.events" are expanded to full scope URLs.
func ParseScopes(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})

	scopes := make([]string, 0, len(fields))
	for _, f := range fields {
		scopes = append(scopes, normalizeScope(f))
	}
	return scopes
}

func normalizeScope(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "://") {
		return s
	}
	return scopePrefix + s
}

// SelectScope returns the most privileged known scope in granted.
func SelectScope(granted []string) (string, bool) {
	have := make(map[string]bool, len(granted))
	for _, g := range granted {
		have[normalizeScope(g)] = true
	}
	for _, s := range scopePreference {
		if have[s] {
			return s, true
		}
	}
	return "", false
}

func CanWrite(scope string) bool {
	return writeScopes[scope]
}
