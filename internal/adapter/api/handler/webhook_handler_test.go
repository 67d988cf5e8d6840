package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/V4T54L/alert-triage/internal/adapter/metrics"
	"github.com/V4T54L/alert-triage/internal/domain"
	"github.com/V4T54L/alert-triage/internal/normalize"
)

// MockTriageProcessor is a mock implementation of TriageProcessor.
type MockTriageProcessor struct {
	ProcessFunc func(ctx context.Context, raw domain.RawEvent) (*domain.TriageResult, error)
	Received    []domain.RawEvent
}

func (m *MockTriageProcessor) Process(ctx context.Context, raw domain.RawEvent) (*domain.TriageResult, error) {
	m.Received = append(m.Received, raw)
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, raw)
	}
	return &domain.TriageResult{ID: "t-1", Actions: map[string]domain.ActionStatus{}}, nil
}

func TestWebhookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	validationErr := &normalize.ValidationError{
		Vendor: "generic",
		Fields: []normalize.FieldError{{Field: "severity", Reason: "not a number"}},
	}

	tests := []struct {
		name           string
		method         string
		contentType    string
		body           string
		maxSize        int64
		processErr     error
		expectedStatus int
		expectedDetail string
		expectCalled   bool
	}{
		{
			name:           "Valid alert",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"source":"generic","event_type":"login","severity":3}`,
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "Content-Type with charset",
			method:         http.MethodPost,
			contentType:    "application/json; charset=utf-8",
			body:           `{"message":"hi"}`,
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "Invalid method",
			method:         http.MethodGet,
			contentType:    "application/json",
			body:           `{}`,
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "Unsupported Content-Type",
			method:         http.MethodPost,
			contentType:    "text/plain",
			body:           `hello`,
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedDetail: "Content-Type must be application/json",
		},
		{
			name:           "Missing Content-Type",
			method:         http.MethodPost,
			body:           `{}`,
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedDetail: "Content-Type must be application/json",
		},
		{
			name:           "Malformed JSON",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"message": "hello"`,
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Invalid JSON",
		},
		{
			name:           "JSON array",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `[{"message": "hello"}]`,
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Invalid JSON",
		},
		{
			name:           "JSON null",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `null`,
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Invalid JSON",
		},
		{
			name:           "Trailing data",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"a":1}{"b":2}`,
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Invalid JSON",
		},
		{
			name:           "Payload too large",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"message": "this payload is definitely too large for the test limit"}`,
			maxSize:        20,
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedDetail: "Payload too large",
		},
		{
			name:           "Schema violation",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"severity":"very"}`,
			processErr:     validationErr,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedDetail: "Invalid payload",
			expectCalled:   true,
		},
		{
			name:           "Unexpected pipeline error",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{}`,
			processErr:     errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedDetail: "Internal server error",
			expectCalled:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &MockTriageProcessor{}
			if tt.processErr != nil {
				processor.ProcessFunc = func(ctx context.Context, raw domain.RawEvent) (*domain.TriageResult, error) {
					return nil, tt.processErr
				}
			}
			maxSize := tt.maxSize
			if maxSize == 0 {
				maxSize = 1024
			}
			handler := NewWebhookHandler(processor, logger, maxSize, metrics.NewTriageMetrics(prometheus.NewRegistry()))

			req := httptest.NewRequest(tt.method, "/webhook", bytes.NewBufferString(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v (body %q)", status, tt.expectedStatus, rr.Body.String())
			}
			if called := len(processor.Received) > 0; called != tt.expectCalled {
				t.Errorf("processor called = %v, want %v", called, tt.expectCalled)
			}
			if tt.expectedDetail != "" {
				var resp errorResponse
				if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
					t.Fatalf("response is not JSON: %v", err)
				}
				if resp.Detail != tt.expectedDetail {
					t.Errorf("detail = %q, want %q", resp.Detail, tt.expectedDetail)
				}
			}
		})
	}
}

func TestWebhookHandler_ValidationErrorListsFields(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	processor := &MockTriageProcessor{
		ProcessFunc: func(ctx context.Context, raw domain.RawEvent) (*domain.TriageResult, error) {
			return nil, &normalize.ValidationError{
				Vendor: "wazuh",
				Fields: []normalize.FieldError{{Field: "rule.level", Reason: "not a number"}},
			}
		},
	}
	handler := NewWebhookHandler(processor, logger, 1024, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"rule":{"level":"x"}}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Vendor != "wazuh" || len(resp.Errors) != 1 || resp.Errors[0].Field != "rule.level" {
		t.Errorf("unexpected error body: %+v", resp)
	}
}

func TestWebhookHandler_ReturnsTriageResult(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	processor := &MockTriageProcessor{
		ProcessFunc: func(ctx context.Context, raw domain.RawEvent) (*domain.TriageResult, error) {
			return &domain.TriageResult{
				ID:    "abc",
				Event: domain.CanonicalEvent{Source: "generic", EventType: "login"},
				Analysis: domain.Analysis{
					ScoreResult: domain.ScoreResult{
						Scores:   domain.Scores{Base: 21, Intel: 0, Final: 13},
						Category: domain.CategoryLow,
						Action:   domain.ActionNone,
					},
				},
				Actions: map[string]domain.ActionStatus{},
			}, nil
		},
	}
	handler := NewWebhookHandler(processor, logger, 1024, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"severity": 12345678901234567890}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got struct {
		ID       string `json:"id"`
		Analysis struct {
			Scores   domain.Scores   `json:"scores"`
			Category domain.Category `json:"category"`
			Action   domain.Action   `json:"action"`
		} `json:"analysis"`
		Actions map[string]domain.ActionStatus `json:"actions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "abc" || got.Analysis.Scores.Final != 13 || got.Analysis.Category != domain.CategoryLow || got.Analysis.Action != domain.ActionNone {
		t.Errorf("unexpected result: %+v", got)
	}

	// Large integers reach the pipeline as json.Number, not float64.
	if n, ok := processor.Received[0]["severity"].(json.Number); !ok || n.String() != "12345678901234567890" {
		t.Errorf("severity decoded as %T %v", processor.Received[0]["severity"], processor.Received[0]["severity"])
	}
}
