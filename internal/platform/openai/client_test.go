package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/studynotes-backend/internal/platform/logger"
)

func textResponse(text string) string {
	b, _ := json.Marshal(map[string]any{
		"output": []any{
			map[string]any{
				"type": "message",
				"role": "assistant",
				"content": []any{
					map[string]any{"type": "output_text", "text": text},
				},
			},
		},
		"usage": map[string]any{"input_tokens": 10, "output_tokens": 5},
	})
	return string(b)
}

func newTestClient(t *testing.T, srv *httptest.Server, retries int) Client {
	t.Helper()
	temp := 0.7
	c, err := NewClientFromConfig(Config{
		APIKey:        "sk-test",
		BaseURL:       srv.URL,
		Model:         "test-model",
		Timeout:       5 * time.Second,
		MaxRetries:    retries,
		Temperature:   &temp,
		RetryInterval: time.Millisecond,
	}, logger.Nop())
	if err != nil {
		t.Fatalf("NewClientFromConfig: %v", err)
	}
	return c
}

func TestGenerateTextSendsPromptAndReadsOutput(t *testing.T) {
	var got responsesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("path: want=/v1/responses got=%s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = io.WriteString(w, textResponse("PHOTOSYNTHESIS\n\nLight becomes sugar."))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv, 0).GenerateText(context.Background(), "Write notes.", "Photosynthesis")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if !strings.HasPrefix(out, "PHOTOSYNTHESIS") {
		t.Fatalf("unexpected output %q", out)
	}
	if got.Model != "test-model" || len(got.Input) != 2 || got.Input[1].Content != "Photosynthesis" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Text != nil {
		t.Fatalf("text requests should not set a format")
	}
}

func TestGenerateJSONUsesStrictSchema(t *testing.T) {
	var format map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text struct {
				Format map[string]any `json:"format"`
			} `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		format = req.Text.Format
		_, _ = io.WriteString(w, textResponse(`{"mcqs":[]}`))
	}))
	defer srv.Close()

	obj, err := newTestClient(t, srv, 0).GenerateJSON(context.Background(), "sys", "user", "mcq_set", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if _, ok := obj["mcqs"]; !ok {
		t.Fatalf("missing mcqs key: %v", obj)
	}
	if format["type"] != "json_schema" || format["name"] != "mcq_set" || format["strict"] != true {
		t.Fatalf("unexpected format: %v", format)
	}
}

func TestRetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, textResponse("ok"))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv, 3).GenerateText(context.Background(), "s", "u")
	if err != nil || out != "ok" {
		t.Fatalf("want ok, got %q err=%v", out, err)
	}
	if calls != 3 {
		t.Fatalf("calls: want=3 got=%d", calls)
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv, 3).GenerateText(context.Background(), "s", "u"); err == nil {
		t.Fatalf("want error")
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestTemperatureRejectedFallsBackOnce(t *testing.T) {
	var withTemp, without int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, ok := req["temperature"]; ok {
			atomic.AddInt32(&withTemp, 1)
			http.Error(w, `{"error":{"message":"Unsupported parameter: 'temperature'"}}`, http.StatusBadRequest)
			return
		}
		atomic.AddInt32(&without, 1)
		_, _ = io.WriteString(w, textResponse("ok"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, 0)
	for i := 0; i < 2; i++ {
		if _, err := c.GenerateText(context.Background(), "s", "u"); err != nil {
			t.Fatalf("GenerateText: %v", err)
		}
	}
	if withTemp != 1 || without != 2 {
		t.Fatalf("want 1 rejected + 2 plain calls, got %d + %d", withTemp, without)
	}
}

func TestEmptyOutputIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"output":[]}`)
	}))
	defer srv.Close()
	if _, err := newTestClient(t, srv, 0).GenerateText(context.Background(), "s", "u"); err == nil {
		t.Fatalf("want error for empty output")
	}
}

func TestParseTemperature(t *testing.T) {
	if got := ParseTemperature("", nil); got == nil || *got != DefaultTemperature {
		t.Fatalf("blank: want=%v got=%v", DefaultTemperature, got)
	}
	if got := ParseTemperature(" OFF ", nil); got != nil {
		t.Fatalf("off: want=nil got=%v", *got)
	}
	if got := ParseTemperature("0.2", nil); got == nil || *got != 0.2 {
		t.Fatalf("0.2: got=%v", got)
	}
	if got := ParseTemperature("warm", nil); got == nil || *got != DefaultTemperature {
		t.Fatalf("invalid: want default got=%v", got)
	}
}
