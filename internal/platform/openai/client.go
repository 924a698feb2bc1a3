package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/studynotes-backend/internal/observability"
	"github.com/yungbote/studynotes-backend/internal/platform/httpx"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
	"github.com/yungbote/studynotes-backend/internal/platform/promptstyle"
)

const responsesPath = "/v1/responses"

// Client is the slice of the OpenAI Responses API the generation service needs.
type Client interface {
	// Structured outputs (json_schema, strict)
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)

	// Plain text (no schema)
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// MaxRetries counts retries after the first attempt.
	MaxRetries int
	// Temperature nil omits the parameter.
	Temperature *float64
	// RetryInterval is the first backoff wait; zero uses the httpx default.
	RetryInterval time.Duration
}

const DefaultTemperature = 0.7

// ParseTemperature reads a temperature setting. Blank means DefaultTemperature and
// "off", "none", "nil" or "false" omit the parameter.
func ParseTemperature(raw string, log *logger.Logger) *float64 {
	temp := DefaultTemperature
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "":
		return &temp
	case "off", "none", "nil", "false":
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if log != nil {
			log.Warn("Invalid OPENAI_TEMPERATURE, using default", "value", raw, "default", temp)
		}
		return &temp
	}
	return &f
}

// Unavailable returns a Client whose calls all fail with err. Commands that never
// generate run with it when no API key is configured.
func Unavailable(err error) Client {
	return unavailable{err: err}
}

type unavailable struct{ err error }

func (u unavailable) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	return nil, u.err
}

func (u unavailable) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", u.err
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	retry      httpx.RetryPolicy

	temperature *float64

	// Models that rejected temperature once; it is omitted for them afterwards.
	noTempMu   sync.RWMutex
	noTempSeen map[string]bool
}

func NewClientFromConfig(cfg Config, log *logger.Logger) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	c := &client{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     baseURL,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		httpClient:  &http.Client{Timeout: timeout},
		temperature: cfg.Temperature,
		noTempSeen:  map[string]bool{},
	}
	c.retry = httpx.DefaultRetryPolicy()
	c.retry.MaxRetries = cfg.MaxRetries
	if cfg.RetryInterval > 0 {
		c.retry.InitialInterval = cfg.RetryInterval
		c.retry.MaxInterval = 8 * cfg.RetryInterval
	}
	c.retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.log.Warn("OpenAI request retrying",
			"path", responsesPath,
			"attempt", attempt,
			"max_retries", cfg.MaxRetries,
			"sleep", wait.String(),
			"error", err,
		)
	}
	return c, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func isUnsupportedTemperatureParam(err error) bool {
	var httpErr *openAIHTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(httpErr.Body)
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, s := range []string{"unsupported", "unknown parameter", "unrecognized", "not supported", "does not support", "only the default"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *client) modelIsNoTemp(model string) bool {
	c.noTempMu.RLock()
	defer c.noTempMu.RUnlock()
	return c.noTempSeen[strings.ToLower(model)]
}

func (c *client) noteNoTempModel(model string) {
	c.noTempMu.Lock()
	c.noTempSeen[strings.ToLower(model)] = true
	c.noTempMu.Unlock()
}

func (c *client) doOnce(ctx context.Context, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+responsesPath, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, req *responsesRequest, out *responsesResponse) error {
	start := time.Now()
	var last *http.Response
	raw, err := httpx.Retry(ctx, c.retry, func(ctx context.Context) ([]byte, *http.Response, error) {
		resp, raw, err := c.doOnce(ctx, req)
		last = resp
		return raw, resp, err
	})
	if metrics := observability.Current(); metrics != nil {
		in, outTok := 0, 0
		if err == nil {
			in, outTok = extractUsageFromRaw(raw)
		}
		metrics.ObserveLLMRequest(req.Model, responsesPath, statusFromRespErr(last, err), time.Since(start), in, outTok)
	}
	if err != nil {
		return err
	}
	if uErr := json.Unmarshal(raw, out); uErr != nil {
		return fmt.Errorf("openai decode error: %w", uErr)
	}
	return nil
}

// doWithTempFallback retries once without temperature if the model rejects it.
func (c *client) doWithTempFallback(ctx context.Context, req *responsesRequest, out *responsesResponse) error {
	if c.temperature != nil && !c.modelIsNoTemp(req.Model) {
		req.Temperature = c.temperature
	}
	err := c.do(ctx, req, out)
	if err == nil || req.Temperature == nil || !isUnsupportedTemperatureParam(err) {
		return err
	}
	c.log.Warn("Model rejected temperature; retrying without it", "model", req.Model)
	c.noteNoTempModel(req.Model)
	req.Temperature = nil
	return c.do(ctx, req, out)
}

type inputMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`

	Text *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func (r responsesResponse) refusal() string {
	if r.Refusal != "" {
		return r.Refusal
	}
	for _, item := range r.Output {
		for _, c := range item.Content {
			if c.Type == "refusal" && c.Refusal != "" {
				return c.Refusal
			}
		}
	}
	return ""
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func (c *client) newRequest(system, user string) *responsesRequest {
	return &responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" {
		return nil, errors.New("schemaName required")
	}
	if schema == nil {
		return nil, errors.New("schema required")
	}
	req := c.newRequest(promptstyle.ApplySystem(system, "json"), user)
	req.Text = &struct {
		Format map[string]any `json:"format,omitempty"`
	}{Format: map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}}

	var resp responsesResponse
	if err := c.doWithTempFallback(ctx, req, &resp); err != nil {
		return nil, err
	}
	if r := resp.refusal(); r != "" {
		return nil, fmt.Errorf("model refused: %s", r)
	}
	jsonText := extractOutputText(resp)
	if strings.TrimSpace(jsonText) == "" {
		return nil, fmt.Errorf("no output_text found in response")
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return obj, nil
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	req := c.newRequest(promptstyle.ApplySystem(system, "text"), user)

	var resp responsesResponse
	if err := c.doWithTempFallback(ctx, req, &resp); err != nil {
		return "", err
	}
	if r := resp.refusal(); r != "" {
		return "", fmt.Errorf("model refused: %s", r)
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

func extractUsageFromRaw(raw []byte) (int, int) {
	var payload struct {
		Usage struct {
			InputTokens      int `json:"input_tokens"`
			OutputTokens     int `json:"output_tokens"`
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &payload) != nil {
		return 0, 0
	}
	u := payload.Usage
	if u.InputTokens == 0 && u.OutputTokens == 0 {
		return u.PromptTokens, u.CompletionTokens
	}
	return u.InputTokens, u.OutputTokens
}

func statusFromRespErr(resp *http.Response, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if err != nil {
		return "error"
	}
	return "unknown"
}
