package api

import (
	"log/slog"
	"net/http"

	"github.com/V4T54L/alert-triage/internal/adapter/api/handler"
	"github.com/V4T54L/alert-triage/internal/adapter/api/middleware"
	"github.com/V4T54L/alert-triage/internal/usecase"
)

// NewAdminRouter creates and configures the HTTP router for decision stream administration.
// Every /admin route requires an admin bearer token when jwtSecret is set.
func NewAdminRouter(adminUseCase *usecase.AdminStreamUseCase, logger *slog.Logger, jwtSecret string) http.Handler {
	mux := http.NewServeMux()
	adminHandler := handler.NewAdminHandler(adminUseCase, logger)
	auth := middleware.AdminAuth(jwtSecret, logger)

	mux.HandleFunc("GET /health", adminHandler.HealthCheck)

	mux.Handle("GET /admin/decisions", auth(http.HandlerFunc(adminHandler.RecentDecisions)))
	mux.Handle("GET /admin/decisions/groups", auth(http.HandlerFunc(adminHandler.GetGroupInfo)))
	mux.Handle("GET /admin/decisions/groups/{groupName}/pending", auth(http.HandlerFunc(adminHandler.GetPendingSummary)))
	mux.Handle("POST /admin/decisions/trim", auth(http.HandlerFunc(adminHandler.TrimStream)))

	return mux
}
