package orchestrator

import (
	"regexp"
	"strings"
	"time"
)

var yearPattern = regexp.MustCompile(`\d{4}`)

// inferShortCode derives a short code like "SS24" or "WS24/25" from a
// display name like "Sommersemester 2024" or "Wintersemester 2024/2025",
// per the discovery job's short-name inference rule.
func inferShortCode(displayName string) string {
	season := "SS"
	if strings.Contains(strings.ToLower(displayName), "winter") {
		season = "WS"
	}

	years := yearPattern.FindAllString(displayName, -1)
	if len(years) == 0 {
		return season
	}
	code := season + lastTwoDigits(years[0])
	if season == "WS" && len(years) > 1 {
		code += "/" + lastTwoDigits(years[1])
	}
	return code
}

func lastTwoDigits(year string) string {
	if len(year) < 2 {
		return year
	}
	return year[len(year)-2:]
}

// defaultDateWindow returns the season-based default start/end dates for a
// newly discovered semester: winter runs Oct 1 of firstYear through Mar 31
// of the following year; summer runs Apr 1 through Sep 30 of firstYear.
func defaultDateWindow(displayName string) (start, end time.Time) {
	years := yearPattern.FindAllString(displayName, -1)
	year := time.Now().Year()
	if len(years) > 0 {
		if y, ok := parseYear(years[0]); ok {
			year = y
		}
	}

	if strings.Contains(strings.ToLower(displayName), "winter") {
		return time.Date(year, time.October, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year+1, time.March, 31, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.September, 30, 0, 0, 0, 0, time.UTC)
}

func parseYear(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// normalizeIdentifier lowercases s and strips spaces, '-', '/', '_', so that
// "SS 24", "ss-24" and "SS24" all compare equal.
func normalizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '-', '/', '_':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// matchRemoteOption finds the remote semester option whose display name or
// inferred short code normalizes to the same identifier the caller supplied.
func matchRemoteOption(identifier string, displayNames []string) (string, bool) {
	want := normalizeIdentifier(identifier)
	for _, name := range displayNames {
		if normalizeIdentifier(name) == want {
			return name, true
		}
		if normalizeIdentifier(inferShortCode(name)) == want {
			return name, true
		}
	}
	return "", false
}
