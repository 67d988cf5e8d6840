package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/V4T54L/alert-triage/internal/adapter/metrics"
	"github.com/V4T54L/alert-triage/internal/domain"
	"github.com/V4T54L/alert-triage/internal/normalize"
)

// TriageProcessor runs a single webhook payload through the triage pipeline.
type TriageProcessor interface {
	Process(ctx context.Context, raw domain.RawEvent) (*domain.TriageResult, error)
}

// errorResponse is the JSON body of every non-2xx webhook response.
type errorResponse struct {
	Detail string                 `json:"detail"`
	Vendor string                 `json:"vendor,omitempty"`
	Errors []normalize.FieldError `json:"errors,omitempty"`
}

// WebhookHandler accepts SIEM/EDR alerts and answers with the triage result.
type WebhookHandler struct {
	processor    TriageProcessor
	logger       *slog.Logger
	maxEventSize int64
	metrics      *metrics.TriageMetrics
}

// NewWebhookHandler creates a new WebhookHandler. metrics may be nil.
func NewWebhookHandler(p TriageProcessor, logger *slog.Logger, maxEventSize int64, m *metrics.TriageMetrics) *WebhookHandler {
	return &WebhookHandler{
		processor:    p,
		logger:       logger,
		maxEventSize: maxEventSize,
		metrics:      m,
	}
}

// ServeHTTP processes one alert. POST /webhook
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !isJSON(r.Header.Get("Content-Type")) {
		h.count("error_media_type")
		h.respondWithJSON(w, http.StatusUnsupportedMediaType, errorResponse{Detail: "Content-Type must be application/json"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxEventSize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.count("error_size")
			h.respondWithJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Detail: "Payload too large"})
			return
		}
		h.count("error_parse")
		h.respondWithJSON(w, http.StatusBadRequest, errorResponse{Detail: "Failed to read request body"})
		return
	}

	raw, err := decodeEvent(body)
	if err != nil {
		h.logger.Warn("rejected malformed webhook payload", "error", err, "remote_addr", r.RemoteAddr)
		h.count("error_parse")
		h.respondWithJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid JSON"})
		return
	}

	result, err := h.processor.Process(r.Context(), raw)
	if err != nil {
		var verr *normalize.ValidationError
		if errors.As(err, &verr) {
			h.logger.Warn("rejected invalid webhook payload", "error", err)
			h.count("error_validation")
			h.respondWithJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Detail: "Invalid payload",
				Vendor: verr.Vendor,
				Errors: verr.Fields,
			})
			return
		}
		h.logger.Error("failed to triage webhook payload", "error", err)
		h.count("error_internal")
		h.respondWithJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error"})
		return
	}

	h.count("accepted")
	if h.metrics != nil {
		h.metrics.BytesTotal.Add(float64(len(body)))
	}
	h.respondWithJSON(w, http.StatusOK, result)
}

// decodeEvent parses body as a single JSON object. Numbers are kept as
// json.Number so large integers survive the round trip into the raw payload.
func decodeEvent(body []byte) (domain.RawEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw domain.RawEvent
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("payload is not a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON object")
	}
	return raw, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func (h *WebhookHandler) count(status string) {
	if h.metrics != nil {
		h.metrics.WebhookRequestsTotal.WithLabelValues(status).Inc()
	}
}

func (h *WebhookHandler) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	respondWithJSON(w, h.logger, code, payload)
}

func respondWithJSON(w http.ResponseWriter, logger *slog.Logger, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
