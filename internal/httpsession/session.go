// Package httpsession wraps one Colly collector per logical session,
// giving every worker an exclusive cookie jar into the course catalog.
// A Session is not safe for concurrent use: callers must hold exclusive
// access (via internal/sessionpool) while any method is in flight.
package httpsession

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const acceptLanguage = "de-DE,de;q=0.9,en;q=0.6"

// Session is a sequential, non-thread-safe HTTP client against the catalog.
type Session struct {
	baseURL string
	c       *colly.Collector
}

// New builds a Session with its own cookie jar, pointed at baseURL.
func New(baseURL, userAgent string, timeout time.Duration) *Session {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", acceptLanguage)
	})
	return &Session{baseURL: baseURL, c: c}
}

// responseCapture runs one Colly round trip and returns the parsed document
// plus the raw status/body, failing on non-2xx or empty bodies.
func (s *Session) responseCapture(ctx context.Context, do func(c *colly.Collector) error) (*goquery.Document, error) {
	var status int
	var body []byte
	clone := s.c.Clone()
	clone.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	errCh := make(chan error, 1)
	go func() { errCh <- do(clone) }()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errCh:
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status >= 300 {
		snippet := body
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, fmt.Errorf("httpsession: non-2xx status %d: %s", status, snippet)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("httpsession: empty response body")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpsession: parse response body: %w", err)
	}
	return doc, nil
}

// FetchSemesterOptions reads the "sem_wahl" select box from index.html.
func (s *Session) FetchSemesterOptions(ctx context.Context) (*goquery.Document, error) {
	target := s.baseURL + "index.html"
	return s.responseCapture(ctx, func(c *colly.Collector) error {
		return c.Visit(target)
	})
}

// SelectSemester posts the chosen semester option back to index.html.
func (s *Session) SelectSemester(ctx context.Context, displayName string) (*goquery.Document, error) {
	target := s.baseURL + "index.html"
	return s.responseCapture(ctx, func(c *colly.Collector) error {
		return c.Post(target, map[string]string{
			"sem_wahl": displayName,
			"wechsel":  "4",
			"senden":   "Auswählen",
		})
	})
}

// FetchStudyPrograms reads verz.html, which lists every study program.
func (s *Session) FetchStudyPrograms(ctx context.Context) (*goquery.Document, error) {
	target := s.baseURL + "verz.html"
	return s.responseCapture(ctx, func(c *colly.Collector) error {
		c.OnRequest(func(r *colly.Request) { r.Headers.Set("Referer", s.baseURL+"index.html") })
		return c.Visit(target)
	})
}

// OpenProgram follows a study program's own link from verz.html.
func (s *Session) OpenProgram(ctx context.Context, href string) (*goquery.Document, error) {
	target := s.baseURL + href
	return s.responseCapture(ctx, func(c *colly.Collector) error {
		c.OnRequest(func(r *colly.Request) { r.Headers.Set("Referer", s.baseURL+"verz.html") })
		return c.Visit(target)
	})
}

// OpenProgramSemester posts a fach-semester selection to stgvrz.html.
func (s *Session) OpenProgramSemester(ctx context.Context, code, displayName, fachSemester string) (*goquery.Document, error) {
	target := s.baseURL + "stgvrz.html"
	referer := s.baseURL + "stgvrz.html?stdg=" + url.QueryEscape(code)
	return s.responseCapture(ctx, func(c *colly.Collector) error {
		c.OnRequest(func(r *colly.Request) { r.Headers.Set("Referer", referer) })
		return c.Post(target, map[string]string{
			"stdg":   code,
			"stdg1":  displayName,
			"semest": fachSemester,
			"popup3": "",
		})
	})
}

// Prime re-selects the target semester so the session's server-side state
// matches, the priming step spec §4.5 requires before a pooled session is
// handed to a worker. echoed reports whether the response confirmed the
// selection; the server occasionally delays the echo by one request, so a
// false value is worth logging but is not itself an error.
func (s *Session) Prime(ctx context.Context, semesterDisplayName string) (echoed bool, err error) {
	if _, err := s.FetchSemesterOptions(ctx); err != nil {
		return false, fmt.Errorf("prime: fetch semester options: %w", err)
	}
	doc, err := s.SelectSemester(ctx, semesterDisplayName)
	if err != nil {
		return false, fmt.Errorf("prime: select semester: %w", err)
	}
	selected := strings.TrimSpace(doc.Find(`select[name="sem_wahl"] option[selected]`).Text())
	return strings.EqualFold(selected, semesterDisplayName), nil
}
