package htmlparse

import (
	"testing"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/models"
)

func TestParseScheduleRows_HappyPath(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<table>
			<tr><th>Art</th><th>Titel</th><th>Dozent</th><th>Tag</th><th>Zeit</th><th>Raum</th><th>Rhythmus</th><th>Info</th></tr>
			<tr><td colspan="9">Pflichtmodule</td></tr>
			<tr><td colspan="8">Gruppe A</td></tr>
			<tr>
				<td>V</td><td>Algorithmen</td><td>Prof. Meier</td><td>Di</td><td>10:00 - 11:30</td>
				<td>MIB/1001</td><td>wöchentlich</td><td><a href="info.html?satz=42">Info</a></td>
			</tr>
		</table>
	</body></html>`)

	result := ParseScheduleRows(doc)
	if len(result.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1", len(result.Rows))
	}
	row := result.Rows[0]
	if row.Category != "Pflichtmodule" || row.Group != "Gruppe A" {
		t.Errorf("Category/Group = %q/%q", row.Category, row.Group)
	}
	if row.DayOfWeek != models.Tuesday {
		t.Errorf("DayOfWeek = %v, want tuesday", row.DayOfWeek)
	}
	if row.StartTime != "10:00" || row.EndTime != "11:30" {
		t.Errorf("StartTime/EndTime = %q/%q", row.StartTime, row.EndTime)
	}
	if row.InfoID != "42" {
		t.Errorf("InfoID = %q, want 42", row.InfoID)
	}
	if result.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", result.Skipped)
	}
}

func TestParseScheduleRows_DropsBlankTitleAndBadDay(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<table>
			<tr><th>Art</th><th>Titel</th><th>Dozent</th><th>Tag</th><th>Zeit</th><th>Raum</th><th>Rhythmus</th><th>Info</th></tr>
			<tr><td>V</td><td></td><td>N.N.</td><td>Di</td><td>10:00-11:30</td><td>MIB/1001</td><td></td><td></td></tr>
			<tr><td>V</td><td>Statistik</td><td>N.N.</td><td>Xy</td><td>10:00-11:30</td><td>MIB/1001</td><td></td><td></td></tr>
		</table>
	</body></html>`)

	result := ParseScheduleRows(doc)
	if len(result.Rows) != 0 {
		t.Fatalf("len(Rows) = %d, want 0", len(result.Rows))
	}
	if result.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", result.Skipped)
	}
}

func TestParseDay(t *testing.T) {
	cases := map[string]models.Weekday{"Mo": models.Monday, "di.": models.Tuesday, "Sa": models.Saturday}
	for raw, want := range cases {
		got, ok := parseDay(raw)
		if !ok || got != want {
			t.Errorf("parseDay(%q) = (%v, %v), want (%v, true)", raw, got, ok, want)
		}
	}
	if _, ok := parseDay("xx"); ok {
		t.Error("parseDay(xx) ok = true, want false")
	}
}

func TestParseTimeRange(t *testing.T) {
	start, end, ok := parseTimeRange("10:00 - 11:30")
	if !ok || start != "10:00" || end != "11:30" {
		t.Errorf("parseTimeRange() = (%q, %q, %v)", start, end, ok)
	}
	if _, _, ok := parseTimeRange("not a time"); ok {
		t.Error("parseTimeRange(garbage) ok = true, want false")
	}
	if _, _, ok := parseTimeRange("11:30-10:00"); ok {
		t.Error("parseTimeRange(start after end) ok = true, want false")
	}
	if _, _, ok := parseTimeRange("10:00-10:00"); ok {
		t.Error("parseTimeRange(start equal end) ok = true, want false")
	}
}
