package wal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/V4T54L/alert-triage/internal/domain"
)

func setupTestWAL(t *testing.T, maxSegmentSize, maxTotalSize int64) *WALRepository {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	wal, err := NewWALRepository(t.TempDir(), maxSegmentSize, maxTotalSize, logger)
	if err != nil {
		t.Fatalf("failed to create WALRepository: %v", err)
	}
	t.Cleanup(func() { wal.Close() })
	return wal
}

func newDecision(eventType string) domain.Decision {
	return domain.Decision{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now().UTC(),
		Source:     "wazuh",
		EventType:  eventType,
		Severity:   10,
		Analysis: domain.Analysis{
			ScoreResult: domain.ScoreResult{
				Scores:   domain.Scores{Base: 75, Intel: 50, Final: 65},
				Category: domain.CategoryMedium,
				Action:   domain.ActionEmail,
			},
		},
		Raw: domain.RawEvent{"rule": map[string]any{"level": float64(10)}},
	}
}

func TestWAL_WriteAndReplay(t *testing.T) {
	wal := setupTestWAL(t, 1024, 10*1024)

	decisions := []domain.Decision{newDecision("auth_failed"), newDecision("port_scan"), newDecision("exfil")}
	for _, d := range decisions {
		if err := wal.Write(context.Background(), d); err != nil {
			t.Fatalf("failed to write decision: %v", err)
		}
	}
	wal.Close()

	// Re-open the WAL to simulate a restart
	reopened, err := NewWALRepository(wal.dir, 1024, 10*1024, wal.logger)
	if err != nil {
		t.Fatalf("failed to re-open WAL: %v", err)
	}
	defer reopened.Close()

	var replayed []domain.Decision
	err = reopened.ReplayAndTruncate(context.Background(), func(d domain.Decision) error {
		replayed = append(replayed, d)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to replay decisions: %v", err)
	}

	if len(replayed) != len(decisions) {
		t.Fatalf("expected %d replayed decisions, got %d", len(decisions), len(replayed))
	}
	for i, d := range decisions {
		got := replayed[i]
		if got.ID != d.ID || got.EventType != d.EventType || got.Analysis.Category != d.Analysis.Category {
			t.Errorf("replayed decision mismatch at index %d: got %+v, want %+v", i, got, d)
		}
	}
}

func TestWAL_SegmentRotation(t *testing.T) {
	// Set a very small segment size to force rotation
	wal := setupTestWAL(t, 100, 64*1024)

	for i := 0; i < 4; i++ {
		if err := wal.Write(context.Background(), newDecision("port_scan")); err != nil {
			t.Fatalf("failed to write decision: %v", err)
		}
	}

	segments, err := wal.sortedSegments()
	if err != nil {
		t.Fatalf("failed to get segments: %v", err)
	}
	if len(segments) < 2 {
		t.Errorf("expected at least 2 segments, got %d", len(segments))
	}
}

func TestWAL_ReplayAndTruncate(t *testing.T) {
	wal := setupTestWAL(t, 4096, 4096)

	if err := wal.Write(context.Background(), newDecision("auth_failed")); err != nil {
		t.Fatalf("failed to write decision: %v", err)
	}

	if err := wal.ReplayAndTruncate(context.Background(), func(domain.Decision) error { return nil }); err != nil {
		t.Fatalf("failed to replay WAL: %v", err)
	}

	segments, _ := wal.sortedSegments()
	if len(segments) != 1 { // only the fresh segment opened for new writes remains
		t.Fatalf("expected 1 segment after truncate, got %d", len(segments))
	}
	info, _ := os.Stat(segments[0])
	if info.Size() != 0 {
		t.Errorf("expected new segment to be empty, size is %d", info.Size())
	}

	// The disk budget is released by truncation.
	if err := wal.Write(context.Background(), newDecision("auth_failed")); err != nil {
		t.Errorf("write after truncate failed: %v", err)
	}
}

func TestWAL_WriteDuringReplaySurvivesTruncate(t *testing.T) {
	wal := setupTestWAL(t, 4096, 64*1024)

	first := newDecision("auth_failed")
	if err := wal.Write(context.Background(), first); err != nil {
		t.Fatalf("failed to write decision: %v", err)
	}

	// The sink is still marked down while the replay runs, so new decisions keep
	// arriving at the WAL.
	late := newDecision("exfil")
	var replayed []string
	err := wal.ReplayAndTruncate(context.Background(), func(d domain.Decision) error {
		replayed = append(replayed, d.ID)
		return wal.Write(context.Background(), late)
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(replayed) != 1 || replayed[0] != first.ID {
		t.Fatalf("first replay = %v, want only %s", replayed, first.ID)
	}

	replayed = nil
	err = wal.ReplayAndTruncate(context.Background(), func(d domain.Decision) error {
		replayed = append(replayed, d.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("second replay failed: %v", err)
	}
	if len(replayed) != 1 || replayed[0] != late.ID {
		t.Errorf("second replay = %v, want only %s", replayed, late.ID)
	}
}

func TestWAL_MaxTotalSize(t *testing.T) {
	wal := setupTestWAL(t, 100, 600)

	var err error
	for i := 0; i < 10; i++ {
		if err = wal.Write(context.Background(), newDecision("auth_failed")); err != nil {
			break
		}
	}
	if err == nil {
		t.Fatal("expected an error when writing beyond max total size, but got nil")
	}
	if !strings.Contains(err.Error(), "max total size") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWAL_ReplayStopsOnHandlerError(t *testing.T) {
	wal := setupTestWAL(t, 4096, 64*1024)
	for i := 0; i < 3; i++ {
		if err := wal.Write(context.Background(), newDecision("auth_failed")); err != nil {
			t.Fatalf("failed to write decision: %v", err)
		}
	}

	calls := 0
	err := wal.ReplayAndTruncate(context.Background(), func(domain.Decision) error {
		calls++
		return errors.New("sink down")
	})
	if err == nil {
		t.Fatal("expected replay error")
	}
	if calls != 1 {
		t.Errorf("expected replay to stop after first failure, handler called %d times", calls)
	}

	// A failed replay keeps every decision for the next attempt.
	replayed := 0
	if err := wal.ReplayAndTruncate(context.Background(), func(domain.Decision) error {
		replayed++
		return nil
	}); err != nil {
		t.Fatalf("second replay failed: %v", err)
	}
	if replayed != 3 {
		t.Errorf("expected 3 decisions on retry, got %d", replayed)
	}
}

func TestWAL_ReplaySkipsCorruptLines(t *testing.T) {
	wal := setupTestWAL(t, 4096, 64*1024)
	if err := wal.Write(context.Background(), newDecision("auth_failed")); err != nil {
		t.Fatalf("failed to write decision: %v", err)
	}
	if _, err := wal.currentSegment.WriteString("{not json\n"); err != nil {
		t.Fatalf("failed to corrupt segment: %v", err)
	}
	if err := wal.Write(context.Background(), newDecision("exfil")); err != nil {
		t.Fatalf("failed to write decision: %v", err)
	}

	var types []string
	err := wal.ReplayAndTruncate(context.Background(), func(d domain.Decision) error {
		types = append(types, d.EventType)
		return nil
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(types) != 2 || types[0] != "auth_failed" || types[1] != "exfil" {
		t.Errorf("unexpected replayed decisions: %v", types)
	}
}
