package orchestrator

import (
	"testing"
	"time"
)

func TestInferShortCode(t *testing.T) {
	cases := map[string]string{
		"Sommersemester 2024":     "SS24",
		"Wintersemester 2024/2025": "WS24/25",
		"Winter 2024":             "WS24",
	}
	for in, want := range cases {
		if got := inferShortCode(in); got != want {
			t.Errorf("inferShortCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultDateWindow_Summer(t *testing.T) {
	start, end := defaultDateWindow("Sommersemester 2024")
	if !start.Equal(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v, want 2024-04-01", start)
	}
	if !end.Equal(time.Date(2024, time.September, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want 2024-09-30", end)
	}
}

func TestDefaultDateWindow_Winter(t *testing.T) {
	start, end := defaultDateWindow("Wintersemester 2024/2025")
	if !start.Equal(time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v, want 2024-10-01", start)
	}
	if !end.Equal(time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want 2025-03-31", end)
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	cases := [][2]string{
		{"SS 24", "ss24"},
		{"ss-24", "ss24"},
		{"SS24", "ss24"},
		{"WS_24/25", "ws2425"},
	}
	for _, c := range cases {
		if got := normalizeIdentifier(c[0]); got != c[1] {
			t.Errorf("normalizeIdentifier(%q) = %q, want %q", c[0], got, c[1])
		}
	}
}

func TestMatchRemoteOption(t *testing.T) {
	names := []string{"Sommersemester 2024", "Wintersemester 2024/2025"}

	if _, ok := matchRemoteOption("SS24", names); !ok {
		t.Error("expected SS24 to match by inferred short code")
	}
	if _, ok := matchRemoteOption("ws-24/25", names); !ok {
		t.Error("expected ws-24/25 to match by inferred short code")
	}
	if name, ok := matchRemoteOption("sommersemester2024", names); !ok || name != "Sommersemester 2024" {
		t.Errorf("matchRemoteOption(display name) = %q, %v, want exact match", name, ok)
	}
	if _, ok := matchRemoteOption("XX99", names); ok {
		t.Error("expected no match for unknown identifier")
	}
}
