package httpsession

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSession_FetchSemesterOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><select name="sem_wahl">
			<option selected>Sommersemester 2024</option>
		</select></body></html>`))
	}))
	defer srv.Close()

	s := New(srv.URL+"/", "test-agent", 5*time.Second)
	doc, err := s.FetchSemesterOptions(context.Background())
	if err != nil {
		t.Fatalf("FetchSemesterOptions() error = %v", err)
	}
	got := doc.Find(`select[name="sem_wahl"] option`).Text()
	if got != "Sommersemester 2024" {
		t.Errorf("got %q", got)
	}
}

func TestSession_NonTwoXXFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	s := New(srv.URL+"/", "test-agent", 5*time.Second)
	_, err := s.FetchSemesterOptions(context.Background())
	if err == nil {
		t.Fatal("FetchSemesterOptions() error = nil, want non-2xx failure")
	}
}

func TestSession_EmptyBodyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(srv.URL+"/", "test-agent", 5*time.Second)
	_, err := s.FetchSemesterOptions(context.Background())
	if err == nil {
		t.Fatal("FetchSemesterOptions() error = nil, want empty-body failure")
	}
}
