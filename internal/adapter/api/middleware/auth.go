package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/V4T54L/alert-triage/internal/domain"
	"github.com/V4T54L/alert-triage/internal/pkg/config"
)

// SharedSecretHeader carries the webhook shared secret or a per-sender token.
const SharedSecretHeader = "X-Webhook-Secret"

// WebhookAuth is a middleware factory that authenticates webhook senders.
//
// When a shared secret or a token repository is configured, X-Webhook-Secret
// must match the shared secret or a known active token. When an HMAC secret is
// configured, the HMAC header must carry the hex SHA-256 HMAC of the raw body.
// With nothing configured every request passes. tokens may be nil.
func WebhookAuth(cfg config.WebhookConfig, tokens domain.TokenRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.SharedSecret != "" || tokens != nil {
				ok, err := checkSecret(r, cfg.SharedSecret, tokens)
				if err != nil {
					logger.Error("failed to validate webhook token", "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				if !ok {
					logger.Warn("invalid webhook secret", "remote_addr", r.RemoteAddr)
					http.Error(w, "Invalid webhook secret", http.StatusUnauthorized)
					return
				}
			}

			if cfg.HMACSecret != "" {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					var maxBytesErr *http.MaxBytesError
					if errors.As(err, &maxBytesErr) {
						http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
						return
					}
					http.Error(w, "Failed to read request body", http.StatusBadRequest)
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				header := cfg.HMACHeader
				if header == "" {
					header = "X-Signature"
				}
				if !VerifyHMAC(body, r.Header.Get(header), cfg.HMACSecret, cfg.HMACPrefix) {
					logger.Warn("invalid HMAC signature", "remote_addr", r.RemoteAddr)
					http.Error(w, "Invalid HMAC signature", http.StatusUnauthorized)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func checkSecret(r *http.Request, shared string, tokens domain.TokenRepository) (bool, error) {
	provided := r.Header.Get(SharedSecretHeader)
	if provided == "" {
		return false, nil
	}
	if shared != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(shared)) == 1 {
		return true, nil
	}
	if tokens == nil {
		return false, nil
	}
	return tokens.IsValid(r.Context(), provided)
}

// VerifyHMAC reports whether signature is prefix followed by the hex
// HMAC-SHA256 of body under secret. Hex case is ignored.
func VerifyHMAC(body []byte, signature, secret, prefix string) bool {
	if signature == "" || !strings.HasPrefix(signature, prefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(signature, prefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// MaxBody caps the request body at n bytes for every handler behind it.
func MaxBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
