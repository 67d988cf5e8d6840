package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/V4T54L/alert-triage/internal/pkg/admintoken"
)

func TestAdminAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	admin, err := admintoken.Generate("oncall", admintoken.RoleAdmin, "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	viewer, err := admintoken.Generate("analyst", "viewer", "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name           string
		secret         string
		authorization  string
		expectedStatus int
	}{
		{name: "Disabled", secret: "", expectedStatus: http.StatusOK},
		{name: "Missing token", secret: "secret", expectedStatus: http.StatusUnauthorized},
		{name: "Not a bearer token", secret: "secret", authorization: "Basic abc", expectedStatus: http.StatusUnauthorized},
		{name: "Admin token", secret: "secret", authorization: "Bearer " + admin, expectedStatus: http.StatusOK},
		{name: "Wrong secret", secret: "rotated", authorization: "Bearer " + admin, expectedStatus: http.StatusUnauthorized},
		{name: "Viewer token", secret: "secret", authorization: "Bearer " + viewer, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/decisions", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			rr := httptest.NewRecorder()
			AdminAuth(tt.secret, logger)(ok).ServeHTTP(rr, req)
			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}
