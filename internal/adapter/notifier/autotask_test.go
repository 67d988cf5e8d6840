package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/alert-triage/internal/pkg/config"
)

func autotaskConfig(baseURL string) config.AutotaskConfig {
	return config.AutotaskConfig{
		Enabled:         true,
		BaseURL:         baseURL,
		IntegrationCode: "code",
		Username:        "api@example.com",
		Secret:          "s3cret",
		AccountID:       42,
		QueueID:         7,
		TicketPriority:  3,
	}
}

func TestCreateTicket_Disabled(t *testing.T) {
	cfg := autotaskConfig("http://unused")
	cfg.Enabled = false
	status := NewAutotaskTicketer(cfg, time.Second, discardLogger()).CreateTicket(context.Background(), "t", "d", 0)
	assert.False(t, status.OK)
	assert.Equal(t, "Autotask disabled", status.Message)
	assert.Nil(t, status.Response)
}

func TestCreateTicket_NotFullyConfigured(t *testing.T) {
	cfg := autotaskConfig("http://unused")
	cfg.QueueID = 0
	status := NewAutotaskTicketer(cfg, time.Second, discardLogger()).CreateTicket(context.Background(), "t", "d", 0)
	assert.False(t, status.OK)
	assert.Equal(t, "Autotask not fully configured", status.Message)
}

func TestCreateTicket_Success(t *testing.T) {
	var got ticketRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tickets", r.URL.Path)
		assert.Equal(t, "code", r.Header.Get("ApiIntegrationCode"))
		assert.Equal(t, "api@example.com", r.Header.Get("UserName"))
		assert.Equal(t, "s3cret", r.Header.Get("Secret"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"itemId": 1234}`))
	}))
	defer srv.Close()

	status := NewAutotaskTicketer(autotaskConfig(srv.URL+"/"), time.Second, discardLogger()).
		CreateTicket(context.Background(), "[HIGH] ransomware – crowdstrike", "details", 0)

	require.True(t, status.OK)
	assert.Equal(t, "created", status.Message)
	assert.JSONEq(t, `{"itemId": 1234}`, string(status.Response))
	assert.Equal(t, ticketRequest{
		Title:       "[HIGH] ransomware – crowdstrike",
		Description: "details",
		Status:      1,
		QueueID:     7,
		AccountID:   42,
		Priority:    3,
	}, got)
}

func TestCreateTicket_ExplicitPriority(t *testing.T) {
	var got ticketRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	NewAutotaskTicketer(autotaskConfig(srv.URL), time.Second, discardLogger()).CreateTicket(context.Background(), "t", "d", 1)
	assert.Equal(t, 1, got.Priority)
}

func TestCreateTicket_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":["bad credentials"]}`))
	}))
	defer srv.Close()

	status := NewAutotaskTicketer(autotaskConfig(srv.URL), time.Second, discardLogger()).CreateTicket(context.Background(), "t", "d", 0)
	assert.False(t, status.OK)
	assert.Equal(t, `HTTP 401: {"errors":["bad credentials"]}`, status.Message)
}
