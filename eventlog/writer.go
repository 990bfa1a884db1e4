// Package eventlog persists ledger audit events as JSON Lines, one file per
// day, with buffered background flushing.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/novaforge-labs/gravity-ledger/token"
)

const (
	defaultBufferSize = 100
	flushInterval     = 5 * time.Second
)

// Writer is a token.EventSink that appends events to a dated .jsonl file.
// Record only buffers; disk writes happen on Flush, which the background
// goroutine drives on a timer and whenever the buffer fills up.
type Writer struct {
	mu     sync.Mutex // guards buffer only
	buffer []token.Event

	flushMu sync.Mutex // serializes writes to file
	file    *os.File

	dir    string
	ticker *time.Ticker
	kick   chan struct{}
	done   chan struct{}
	log    *logrus.Logger
}

// NewWriter opens (or creates) today's event log file under dir and starts
// the background flusher.
func NewWriter(dir string, log *logrus.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}

	name := fmt.Sprintf("ledger_events_%s.jsonl", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log file: %w", err)
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	w := &Writer{
		file:   file,
		dir:    dir,
		buffer: make([]token.Event, 0, defaultBufferSize),
		ticker: time.NewTicker(flushInterval),
		kick:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		log:    log,
	}
	go w.backgroundFlush()
	return w, nil
}

// Record buffers one event. Called with the ledger lock held, so it must
// return quickly: a full buffer wakes the background flusher instead of
// writing inline.
func (w *Writer) Record(event token.Event) {
	w.mu.Lock()
	w.buffer = append(w.buffer, event)
	full := len(w.buffer) >= defaultBufferSize
	w.mu.Unlock()

	if full {
		select {
		case w.kick <- struct{}{}:
		default:
		}
	}
}

// Flush writes all buffered events to disk. Batches land in the order they
// were taken from the buffer.
func (w *Writer) Flush() {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	batch := w.buffer
	w.buffer = make([]token.Event, 0, defaultBufferSize)
	w.mu.Unlock()

	w.writeBatch(batch)
}

// writeBatch appends a batch to the file. Caller must hold w.flushMu.
func (w *Writer) writeBatch(batch []token.Event) {
	if len(batch) == 0 {
		return
	}

	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			w.log.WithError(err).Error("marshal audit event")
			continue
		}
		if _, err := w.file.Write(append(data, '\n')); err != nil {
			w.log.WithError(err).Error("write audit event")
		}
	}
	if err := w.file.Sync(); err != nil {
		w.log.WithError(err).Error("sync event log")
	}
}

func (w *Writer) backgroundFlush() {
	for {
		select {
		case <-w.ticker.C:
			w.Flush()
		case <-w.kick:
			w.Flush()
		case <-w.done:
			return
		}
	}
}

// Close stops the background flusher, writes any remaining events and closes
// the file.
func (w *Writer) Close() error {
	w.ticker.Stop()
	close(w.done)

	w.Flush()

	w.flushMu.Lock()
	defer w.flushMu.Unlock()
	return w.file.Close()
}
