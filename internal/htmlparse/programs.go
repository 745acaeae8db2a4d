package htmlparse

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StudyProgramLink is one row of the study-program index (verz.html).
type StudyProgramLink struct {
	Code        string // query param "stdg"
	DisplayName string // query param "stdg1"
	Faculty     string
	Href        string
}

// StudyProgramLinks walks the single table on verz.html that contains
// links to stgvrz.html, tracking the faculty header each link falls under.
func StudyProgramLinks(doc *goquery.Document) []StudyProgramLink {
	table := findProgramTable(doc)
	if table == nil {
		return nil
	}

	var out []StudyProgramLink
	var currentFaculty string

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find("b u").Length() > 0 {
			if text := strings.TrimSpace(row.Text()); text != "" {
				currentFaculty = text
			}
			return
		}

		row.Find(`a[href^="stgvrz.html"]`).Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok {
				return
			}
			code, displayName := parseProgramQuery(href)
			if code == "" {
				return
			}
			out = append(out, StudyProgramLink{
				Code:        code,
				DisplayName: displayName,
				Faculty:     currentFaculty,
				Href:        href,
			})
		})
	})

	return out
}

func findProgramTable(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if t.Find(`a[href^="stgvrz.html"]`).Length() > 0 {
			found = t
			return false
		}
		return true
	})
	return found
}

func parseProgramQuery(href string) (code, displayName string) {
	idx := strings.IndexByte(href, '?')
	if idx < 0 {
		return "", ""
	}
	values, err := url.ParseQuery(href[idx+1:])
	if err != nil {
		return "", ""
	}
	return values.Get("stdg"), values.Get("stdg1")
}
