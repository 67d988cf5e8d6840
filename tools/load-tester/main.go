package main

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var eventTypes = []string{"auth_failed", "port_scan", "malware_detected", "privilege_escalation", "bruteforce", "exfil"}

// payload builds a random alert in one of the three accepted shapes.
func payload(workerID int) map[string]any {
	ip := randomIP()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	switch rand.IntN(3) {
	case 0:
		return map[string]any{
			"@timestamp": now,
			"id":         uuid.NewString(),
			"rule":       map[string]any{"id": "5710", "level": rand.IntN(16), "description": "sshd: authentication failed"},
			"agent":      map[string]any{"name": "load-tester", "id": workerID},
			"data":       map[string]any{"srcip": ip, "srcuser": "root"},
		}
	case 1:
		return map[string]any{
			"eventType": eventTypes[rand.IntN(len(eventTypes))],
			"Severity":  rand.IntN(11),
			"Timestamp": time.Now().UnixMilli(),
			"RemoteIP":  ip,
			"LocalIP":   "10.0.0.5",
			"UserName":  "svc-backup",
		}
	default:
		return map[string]any{
			"source":      "load-tester",
			"event_type":  eventTypes[rand.IntN(len(eventTypes))],
			"severity":    rand.IntN(11),
			"timestamp":   now,
			"message":     "suspicious connection from " + ip,
			"src_ip":      ip,
			"fail_count":  rand.IntN(20),
			"geo_country": "RU",
		}
	}
}

func randomIP() string {
	// 203.0.113.0/24 (TEST-NET-3) keeps real intel feeds out of the picture.
	return "203.0.113." + strconv.Itoa(1+rand.IntN(254))
}

func main() {
	targetURL := flag.String("url", "http://localhost:8000/webhook", "Target webhook URL")
	secret := flag.String("secret", "", "Shared secret sent as X-Webhook-Secret")
	hmacSecret := flag.String("hmac-secret", "", "Sign bodies with this HMAC secret (X-Signature: sha256=...)")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 100, "Requests per second limit")
	flag.Parse()

	log.Printf("Starting load test on %s", *targetURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d", *concurrency, *duration, *rps)

	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 10)

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			client := &http.Client{
				Timeout: 30 * time.Second,
			}

			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				body, err := json.Marshal(payload(workerID))
				if err != nil {
					continue // Should not happen
				}

				req, err := http.NewRequestWithContext(ctx, http.MethodPost, *targetURL, bytes.NewReader(body))
				if err != nil {
					continue
				}
				req.Header.Set("Content-Type", "application/json")
				if *secret != "" {
					req.Header.Set("X-Webhook-Secret", *secret)
				}
				if *hmacSecret != "" {
					mac := hmac.New(sha256.New, []byte(*hmacSecret))
					mac.Write(body)
					req.Header.Set("X-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
				}

				resp, err := client.Do(req)
				if err != nil {
					if ctx.Err() == nil {
						errorCount.Add(1)
					}
					continue
				}

				if resp.StatusCode == http.StatusOK {
					successCount.Add(1)
				} else {
					errorCount.Add(1)
				}
				resp.Body.Close()
			}
		}(i)
	}

	wg.Wait()

	totalRequests := successCount.Load() + errorCount.Load()
	actualRPS := float64(totalRequests) / duration.Seconds()

	log.Println("Load test finished.")
	log.Printf("Total Requests: %d", totalRequests)
	log.Printf("Successful (200 OK): %d", successCount.Load())
	log.Printf("Errors: %d", errorCount.Load())
	log.Printf("Actual RPS: %.2f", actualRPS)
}
