package wal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/V4T54L/alert-triage/internal/domain"
)

const (
	segmentPrefix = "segment-"
	filePerm      = 0644
	// Decisions carry the raw vendor payload, so lines can be far larger than bufio's 64KB default.
	maxRecordSize = 8 << 20
)

// WALRepository is a segmented, file-based write-ahead log of triage decisions.
// It holds decisions while the primary decision sink is unreachable.
type WALRepository struct {
	dir            string
	maxSegmentSize int64
	maxTotalSize   int64
	logger         *slog.Logger

	// replayMu serializes replays; mu guards the fields below it.
	replayMu       sync.Mutex
	mu             sync.Mutex
	currentSegment *os.File
	currentSize    int64
	totalSize      int64
	lastSeq        int64
}

// NewWALRepository opens (or creates) the log under dir, appending to its newest segment.
func NewWALRepository(dir string, maxSegmentSize, maxTotalSize int64, logger *slog.Logger) (*WALRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory %s: %w", dir, err)
	}

	w := &WALRepository{
		dir:            dir,
		maxSegmentSize: maxSegmentSize,
		maxTotalSize:   maxTotalSize,
		logger:         logger.With("component", "wal_repository"),
	}

	total, err := w.diskUsage()
	if err != nil {
		return nil, fmt.Errorf("failed to measure WAL directory: %w", err)
	}
	w.totalSize = total

	if err := w.openLatestSegment(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends one decision as a JSON line. It refuses the write once the
// log would grow beyond its disk budget.
func (w *WALRepository) Write(ctx context.Context, decision domain.Decision) error {
	data, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("failed to marshal decision for WAL: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.totalSize+int64(len(data)) > w.maxTotalSize {
		return fmt.Errorf("WAL max total size exceeded (%d + %d > %d)", w.totalSize, len(data), w.maxTotalSize)
	}
	if w.currentSegment == nil {
		if err := w.rotate(); err != nil {
			return err
		}
	}

	n, err := w.currentSegment.Write(data)
	w.currentSize += int64(n)
	w.totalSize += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write to WAL segment: %w", err)
	}

	if w.currentSize >= w.maxSegmentSize {
		if err := w.rotate(); err != nil {
			w.logger.Error("Failed to rotate WAL segment", "error", err)
		}
	}
	return nil
}

// ReplayAndTruncate feeds every logged decision, oldest first, to handler and
// then deletes the replayed segments. The active segment is sealed first, so
// decisions written while the replay runs land in a fresh segment and survive
// for the next call. Corrupt lines are skipped; the first handler error stops
// the replay, keeps every sealed segment and is returned.
func (w *WALRepository) ReplayAndTruncate(ctx context.Context, handler func(domain.Decision) error) error {
	w.replayMu.Lock()
	defer w.replayMu.Unlock()

	segments, err := w.seal()
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		w.logger.Info("WAL is empty, nothing to replay")
		return nil
	}
	w.logger.Info("Starting WAL replay", "segment_count", len(segments))

	replayed := 0
	for _, path := range segments {
		n, err := w.replaySegment(ctx, path, handler)
		replayed += n
		if err != nil {
			return err
		}
	}
	w.logger.Info("WAL replay completed", "decisions", replayed)

	return w.remove(segments)
}

// seal closes the active segment, opens a fresh one for new writes and returns
// every segment older than it.
func (w *WALRepository) seal() ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closeCurrent()
	segments, err := w.sortedSegments()
	if err != nil {
		return nil, err
	}
	if err := w.rotate(); err != nil {
		return nil, err
	}
	return segments, nil
}

func (w *WALRepository) remove(segments []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, path := range segments {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			w.logger.Error("Failed to remove WAL segment", "path", path, "error", err)
		}
	}

	total, err := w.diskUsage()
	if err != nil {
		return err
	}
	w.totalSize = total
	w.logger.Info("WAL truncated", "segments", len(segments))
	return nil
}

func (w *WALRepository) replaySegment(ctx context.Context, path string, handler func(domain.Decision) error) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open segment %s for replay: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	replayed := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return replayed, err
		}
		var decision domain.Decision
		if err := json.Unmarshal(scanner.Bytes(), &decision); err != nil {
			w.logger.Warn("Failed to unmarshal decision from WAL, skipping", "error", err, "segment", path)
			continue
		}
		if err := handler(decision); err != nil {
			w.logger.Error("WAL replay handler failed, stopping replay", "error", err, "decision_id", decision.ID)
			return replayed, fmt.Errorf("replay handler failed: %w", err)
		}
		replayed++
	}
	if err := scanner.Err(); err != nil {
		return replayed, fmt.Errorf("error scanning segment %s: %w", path, err)
	}
	return replayed, nil
}

// Close closes the active segment.
func (w *WALRepository) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.currentSegment == nil {
		return nil
	}
	err := w.currentSegment.Close()
	w.currentSegment = nil
	return err
}

func (w *WALRepository) closeCurrent() {
	if w.currentSegment == nil {
		return
	}
	if err := w.currentSegment.Sync(); err != nil {
		w.logger.Error("Failed to sync WAL segment", "error", err)
	}
	if err := w.currentSegment.Close(); err != nil {
		w.logger.Error("Failed to close WAL segment", "error", err)
	}
	w.currentSegment = nil
}

func (w *WALRepository) rotate() error {
	w.closeCurrent()

	// A new segment must sort after every sealed one, even within one clock tick.
	seq := time.Now().UnixNano()
	if seq <= w.lastSeq {
		seq = w.lastSeq + 1
	}
	w.lastSeq = seq

	path := filepath.Join(w.dir, fmt.Sprintf("%s%020d.log", segmentPrefix, seq))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create new WAL segment %s: %w", path, err)
	}

	w.currentSegment = f
	w.currentSize = 0
	w.logger.Debug("Rotated to new WAL segment", "path", path)
	return nil
}

func (w *WALRepository) openLatestSegment() error {
	segments, err := w.sortedSegments()
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return w.rotate()
	}

	latest := segments[len(segments)-1]
	name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(latest), segmentPrefix), ".log")
	if seq, err := strconv.ParseInt(name, 10, 64); err == nil {
		w.lastSeq = seq
	}
	stat, err := os.Stat(latest)
	if err != nil {
		return fmt.Errorf("failed to stat latest segment %s: %w", latest, err)
	}
	if stat.Size() >= w.maxSegmentSize {
		return w.rotate()
	}

	f, err := os.OpenFile(latest, os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open latest segment %s: %w", latest, err)
	}
	w.currentSegment = f
	w.currentSize = stat.Size()
	w.logger.Info("Opened existing WAL segment", "path", latest, "size", w.currentSize)
	return nil
}

// Segment names embed a zero-padded timestamp, so lexical order is creation order.
func (w *WALRepository) sortedSegments() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAL directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), segmentPrefix) {
			segments = append(segments, filepath.Join(w.dir, entry.Name()))
		}
	}
	sort.Strings(segments)
	return segments, nil
}

func (w *WALRepository) diskUsage() (int64, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), segmentPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
