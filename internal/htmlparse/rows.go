package htmlparse

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

// ScheduleRow is one parsed data row of the schedule table on stgvrz.html.
type ScheduleRow struct {
	Category     string
	Group        string
	CourseType   string
	CourseTitle  string
	Lecturer     string
	DayOfWeek    models.Weekday
	StartTime    string // "HH:MM"
	EndTime      string // "HH:MM"
	RoomCode     string
	WeekPattern  string
	InfoID       string
	FachSemester string
}

// ScheduleRowsResult carries the parsed rows plus the count of rows dropped
// for blank titles or unparseable day/time fields.
type ScheduleRowsResult struct {
	Rows    []ScheduleRow
	Skipped int
}

var dayPrefixes = map[string]models.Weekday{
	"mo": models.Monday,
	"di": models.Tuesday,
	"mi": models.Wednesday,
	"do": models.Thursday,
	"fr": models.Friday,
	"sa": models.Saturday,
	"so": models.Sunday,
}

// ParseScheduleRows locates the single table whose header row mentions both
// "titel" and "zeit" and walks its body rows into ScheduleRow values.
func ParseScheduleRows(doc *goquery.Document) ScheduleRowsResult {
	table := findScheduleTable(doc)
	if table == nil {
		return ScheduleRowsResult{}
	}

	var result ScheduleRowsResult
	var currentCategory, currentGroup string

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")

		if cells.Length() == 1 {
			cell := cells.First()
			if colspan(cell) == 9 {
				currentCategory = strings.TrimSpace(cell.Text())
				return
			}
			if colspan(cell) == 8 {
				currentGroup = strings.TrimSpace(cell.Text())
				return
			}
		}

		if cells.Length() < 8 {
			return
		}

		parsed, ok := parseDataRow(cells, currentCategory, currentGroup)
		if !ok {
			result.Skipped++
			return
		}
		result.Rows = append(result.Rows, parsed)
	})

	return result
}

func findScheduleTable(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		header := strings.ToLower(t.Find("tr").First().Text())
		if strings.Contains(header, "titel") && strings.Contains(header, "zeit") {
			found = t
			return false
		}
		return true
	})
	return found
}

func colspan(cell *goquery.Selection) int {
	v, ok := cell.Attr("colspan")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func parseDataRow(cells *goquery.Selection, category, group string) (ScheduleRow, bool) {
	text := func(i int) string { return strings.TrimSpace(cells.Eq(i).Text()) }

	title := text(1)
	if title == "" {
		return ScheduleRow{}, false
	}

	day, ok := parseDay(text(3))
	if !ok {
		return ScheduleRow{}, false
	}

	start, end, ok := parseTimeRange(text(4))
	if !ok {
		return ScheduleRow{}, false
	}

	return ScheduleRow{
		Category:    category,
		Group:       group,
		CourseType:  text(0),
		CourseTitle: title,
		Lecturer:    text(2),
		DayOfWeek:   day,
		StartTime:   start,
		EndTime:     end,
		RoomCode:    text(5),
		WeekPattern: text(6),
		InfoID:      extractInfoID(cells.Eq(7)),
	}, true
}

func parseDay(raw string) (models.Weekday, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for prefix, day := range dayPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return day, true
		}
	}
	return "", false
}

func parseTimeRange(raw string) (start, end string, ok bool) {
	compact := strings.ReplaceAll(raw, " ", "")
	parts := strings.SplitN(compact, "-", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	s, errS := time.Parse("15:04", parts[0])
	e, errE := time.Parse("15:04", parts[1])
	if errS != nil || errE != nil {
		return "", "", false
	}
	if !s.Before(e) {
		return "", "", false
	}
	return s.Format("15:04"), e.Format("15:04"), true
}

func extractInfoID(cell *goquery.Selection) string {
	href, ok := cell.Find("a[href]").First().Attr("href")
	if !ok {
		return ""
	}
	idx := strings.IndexByte(href, '?')
	if idx < 0 {
		return ""
	}
	values, err := url.ParseQuery(href[idx+1:])
	if err != nil {
		return ""
	}
	return values.Get("satz")
}
