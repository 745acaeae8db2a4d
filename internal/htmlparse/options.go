// Package htmlparse holds pure functions that turn the catalog's HTML pages
// into structured values. None of it touches the network; callers feed it
// parsed goquery documents or selections.
package htmlparse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SemesterOption is one entry in the "sem_wahl" select box on index.html.
type SemesterOption struct {
	DisplayName string
	Selected    bool
}

// SemesterOptions reads the semester select box from index.html.
func SemesterOptions(doc *goquery.Document) []SemesterOption {
	var out []SemesterOption
	doc.Find(`select[name="sem_wahl"] option`).Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Text())
		if name == "" {
			return
		}
		_, selected := s.Attr("selected")
		out = append(out, SemesterOption{DisplayName: name, Selected: selected})
	})
	return out
}

// FachSemesterOption is one entry in the "semest" select box on a program page.
type FachSemesterOption struct {
	Value          string
	DisplayName    string
	IsPostRequired bool
}

const fachSemesterPlaceholder = "auswahl..."

// FachSemesterOptions reads the "semest" select box, dropping the
// "Auswahl..." placeholder entry. IsPostRequired is true for every option
// that is not the currently selected one.
func FachSemesterOptions(doc *goquery.Document) []FachSemesterOption {
	var out []FachSemesterOption
	doc.Find(`select[name="semest"] option`).Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Text())
		if strings.EqualFold(name, fachSemesterPlaceholder) {
			return
		}
		if name == "" {
			return
		}
		value, _ := s.Attr("value")
		if value == "" {
			value = name
		}
		_, selected := s.Attr("selected")
		out = append(out, FachSemesterOption{
			Value:          value,
			DisplayName:    name,
			IsPostRequired: !selected,
		})
	})
	return out
}
