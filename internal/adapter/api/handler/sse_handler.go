package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/V4T54L/alert-triage/internal/domain"
)

// SSEMessage defines the structure of the message sent to dashboard clients.
type SSEMessage struct {
	Rate       float64                     `json:"rate"`
	ByCategory map[domain.Category]float64 `json:"by_category"`
	Total      uint64                      `json:"total"`
}

// SSEBroker manages SSE client connections and broadcasts decision rates.
type SSEBroker struct {
	logger    *slog.Logger
	clients   map[chan []byte]struct{}
	mu        sync.RWMutex
	decisions chan domain.Category
	interval  time.Duration
}

// NewSSEBroker creates a new SSEBroker and starts its processing loop.
func NewSSEBroker(ctx context.Context, logger *slog.Logger) *SSEBroker {
	return newSSEBroker(ctx, logger, time.Second)
}

func newSSEBroker(ctx context.Context, logger *slog.Logger, interval time.Duration) *SSEBroker {
	broker := &SSEBroker{
		logger:    logger,
		clients:   make(map[chan []byte]struct{}),
		decisions: make(chan domain.Category, 1000),
		interval:  interval,
	}
	go broker.run(ctx)
	return broker
}

// ServeHTTP handles new client connections for the SSE stream. GET /events
func (b *SSEBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	messageChan := make(chan []byte, 8)
	b.addClient(messageChan)
	defer b.removeClient(messageChan)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messageChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// ReportDecision is called by the triage pipeline once per completed decision.
func (b *SSEBroker) ReportDecision(category domain.Category) {
	select {
	case b.decisions <- category:
	default:
		// Never block the webhook path on the dashboard.
		b.logger.Warn("SSE decision channel is full, dropping report")
	}
}

func (b *SSEBroker) addClient(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = struct{}{}
	b.logger.Info("SSE client connected")
}

func (b *SSEBroker) removeClient(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client)
		b.logger.Info("SSE client disconnected")
	}
}

func (b *SSEBroker) clientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *SSEBroker) broadcast(msg []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client <- msg:
		default:
			// Slow client; it will catch up on the next tick.
		}
	}
}

// run is the main processing loop for the broker.
func (b *SSEBroker) run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	counts := make(map[domain.Category]int)
	var total uint64
	lastTimestamp := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case category := <-b.decisions:
			counts[category]++
			total++
		case <-ticker.C:
			now := time.Now()
			elapsed := now.Sub(lastTimestamp).Seconds()

			msg := SSEMessage{
				ByCategory: map[domain.Category]float64{
					domain.CategoryLow:    0,
					domain.CategoryMedium: 0,
					domain.CategoryHigh:   0,
				},
				Total: total,
			}
			if elapsed > 0 {
				var sum int
				for category, n := range counts {
					msg.ByCategory[category] = float64(n) / elapsed
					sum += n
				}
				msg.Rate = float64(sum) / elapsed
			}

			jsonData, err := json.Marshal(msg)
			if err != nil {
				b.logger.Error("Failed to marshal SSE message", "error", err)
				continue
			}
			b.broadcast(jsonData)

			lastTimestamp = now
			clear(counts)
		}
	}
}
