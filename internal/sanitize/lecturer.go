package sanitize

import (
	"regexp"
	"strings"
)

// LecturerIdentity is the structured result of parsing a raw lecturer cell.
type LecturerIdentity struct {
	Name      string
	Email     string // empty if none found
	Title     string // empty if none found
	Modified  bool   // true if the sanitizer changed the input
	Truncated bool   // true if the name was shortened to fit a limit
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	emailPattern  = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)

	// titleToken matches one academic-title token: a known multi-part form,
	// or a short "<letters>." abbreviation up to 6 characters.
	titleToken = regexp.MustCompile(`^(Prof\.|Dr\.|Dipl\.-Ing\.|Jun\.-Prof\.|Priv\.-Doz\.|habil\.|PD|MSc|BSc|[A-Za-z]{1,5}\.)\s*`)
)

const (
	maxNameLength  = 200
	maxTitleLength = 50
	maxEmailLength = 150
)

// ParseLecturer extracts a name, optional email, and optional title from a
// raw harvested cell. An empty result collapses to the "N.N." placeholder.
func ParseLecturer(raw string) LecturerIdentity {
	original := raw
	text := whitespaceRun.ReplaceAllString(strings.TrimSpace(raw), " ")

	var email string
	if loc := emailPattern.FindStringIndex(text); loc != nil {
		email = text[loc[0]:loc[1]]
		text = text[:loc[0]] + text[loc[1]:]
		text = stripEmailBrackets(text)
		text = whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	}
	if len(email) > maxEmailLength {
		email = email[:maxEmailLength]
	}

	var titleParts []string
	for {
		m := titleToken.FindStringSubmatch(text)
		if m == nil {
			break
		}
		titleParts = append(titleParts, strings.TrimSpace(m[1]))
		text = text[len(m[0]):]
		if len(strings.Join(titleParts, " ")) >= maxTitleLength {
			break
		}
	}
	title := strings.Join(titleParts, " ")
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}

	text = strings.Trim(text, "-;, \t")

	truncated := false
	if len(text) > maxNameLength {
		if idx := strings.IndexAny(text, ";/|"); idx >= 0 {
			text = text[:idx]
			truncated = true
		}
	}
	if len(text) > maxNameLength {
		text = text[:maxNameLength]
		truncated = true
	}
	text = strings.TrimSpace(text)

	name := text
	if name == "" {
		name = "N.N."
	}

	return LecturerIdentity{
		Name:      name,
		Email:     strings.ToLower(email),
		Title:     title,
		Modified:  text != strings.TrimSpace(original) || email != "",
		Truncated: truncated,
	}
}

// stripEmailBrackets removes angle brackets or parentheses left dangling
// around a removed email address, e.g. "J. Doe <>" -> "J. Doe".
func stripEmailBrackets(s string) string {
	replacer := strings.NewReplacer("<", "", ">", "", "(", "", ")", "")
	return replacer.Replace(s)
}
