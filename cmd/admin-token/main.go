// Command admin-token mints a bearer token for the admin API using ADMIN_JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/V4T54L/alert-triage/internal/pkg/admintoken"
	"github.com/V4T54L/alert-triage/internal/pkg/config"
)

func main() {
	subject := flag.String("sub", "", "Who the token is issued to (required)")
	role := flag.String("role", admintoken.RoleAdmin, "Role claim")
	expiry := flag.Duration("ttl", 12*time.Hour, "Token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "-sub is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	token, err := admintoken.Generate(*subject, *role, cfg.AdminJWTSecret, *expiry)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
