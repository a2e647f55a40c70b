// Package errorreport captures runtime errors and relays them to a
// diagnostic collector. The reporter never surfaces its own failures:
// a broken relay must not take the application down with it.
package errorreport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const reconnectInterval = 5 * time.Second

type Config struct {
	// RelayWSURL is the collector's websocket endpoint. Empty disables
	// the socket path.
	RelayWSURL string
	// RelayURL is the HTTP fallback, POSTed one batch per flush.
	RelayURL string
	// BufferSize bounds the ring; oldest reports are dropped first.
	BufferSize int
	// FlushInterval defaults to 5s.
	FlushInterval time.Duration
}

// Reporter is an explicit handle: construct with New, stop with Close.
type Reporter struct {
	cfg    Config
	buffer *Buffer
	client *http.Client

	mu   sync.Mutex
	conn *websocket.Conn

	done     chan struct{}
	stopOnce sync.Once
}

func New(cfg Config) *Reporter {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}

	r := &Reporter{
		cfg:    cfg,
		buffer: NewBuffer(cfg.BufferSize),
		client: &http.Client{Timeout: 10 * time.Second},
		done:   make(chan struct{}),
	}

	go r.flushLoop()
	return r
}

// Capture queues a report for relay. Never blocks, never fails.
func (r *Reporter) Capture(report Report) {
	if report.OccurredAt.IsZero() {
		report.OccurredAt = time.Now()
	}
	if report.Level == "" {
		report.Level = "error"
	}
	r.buffer.Add(report)
}

// CaptureError is the common case: wrap a plain error with a source tag.
func (r *Reporter) CaptureError(source string, err error) {
	if err == nil {
		return
	}
	r.Capture(Report{Source: source, Message: err.Error()})
}

func (r *Reporter) Close() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.mu.Lock()
		if r.conn != nil {
			_ = r.conn.Close()
			r.conn = nil
		}
		r.mu.Unlock()
	})
}

func (r *Reporter) flushLoop() {
	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.flush()
		}
	}
}

func (r *Reporter) flush() {
	reports := r.buffer.Drain()
	if len(reports) == 0 {
		return
	}

	if r.sendWS(reports) {
		return
	}
	if r.sendHTTP(reports) {
		return
	}

	// Both paths down. Requeue so the next flush retries; the ring
	// bounds how much we hold on to.
	for _, report := range reports {
		r.buffer.Add(report)
	}
}

func (r *Reporter) sendWS(reports []Report) bool {
	if r.cfg.RelayWSURL == "" {
		return false
	}

	conn := r.connection()
	if conn == nil {
		return false
	}

	for i, report := range reports {
		if err := conn.WriteJSON(report); err != nil {
			r.dropConnection()
			// Hand the unsent tail to the HTTP fallback.
			return r.sendHTTP(reports[i:])
		}
	}
	return true
}

// connection returns the live socket, dialing if needed. Reconnects are
// attempted at a fixed interval, no backoff: the relay is expected to
// come back quickly or not at all.
func (r *Reporter) connection() *websocket.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return r.conn
	}

	dialer := websocket.Dialer{HandshakeTimeout: reconnectInterval}
	conn, _, err := dialer.Dial(r.cfg.RelayWSURL, nil)
	if err != nil {
		return nil
	}
	r.conn = conn
	return conn
}

func (r *Reporter) dropConnection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
}

func (r *Reporter) sendHTTP(reports []Report) bool {
	if r.cfg.RelayURL == "" {
		return false
	}

	payload, err := json.Marshal(map[string]any{"reports": reports})
	if err != nil {
		return false
	}

	resp, err := r.client.Post(r.cfg.RelayURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 300
}
