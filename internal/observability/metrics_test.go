package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/api/lessons", "200", 20*time.Millisecond)
	m.ObserveGeneration("mcqs", "invalid", time.Second)
	m.IncStorageError("write")
	m.SetLessonCount(3)
	m.ObserveLessonAction("generate_mcqs", "failed")
	m.ObserveLessonAction("", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`studynotes_api_requests_total{method="GET",route="/api/lessons",status="200"} 1`,
		`studynotes_generation_total{op="mcqs",outcome="invalid"} 1`,
		`studynotes_storage_errors_total{op="write"} 1`,
		`studynotes_lessons 3`,
		`studynotes_lesson_actions_total{action="generate_mcqs",outcome="failed"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ObserveLLMRequest("m", "/v1/responses", "200", time.Millisecond, 1, 1)
	m.ObserveGeneration("notes", "ok", time.Millisecond)
	m.IncStorageError("write")
	m.ObserveLessonAction("draft_notes", "ok")
	m.ApiInflightInc()
	m.ApiInflightDec()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("nil handler: want=404 got=%d", rec.Code)
	}
}

func TestInitDisabledReturnsNil(t *testing.T) {
	if m := Init(nil, false); m != nil {
		t.Fatalf("disabled Init: want=nil got=%v", m)
	}
}
