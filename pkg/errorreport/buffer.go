package errorreport

import (
	"sync"
	"time"
)

// Report is one captured error event.
type Report struct {
	ID         string            `json:"id,omitempty"`
	Level      string            `json:"level"` // error | warning | info
	Source     string            `json:"source,omitempty"`
	Message    string            `json:"message"`
	Stack      string            `json:"stack,omitempty"`
	URL        string            `json:"url,omitempty"`
	StatusCode int               `json:"status_code,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// Buffer is a fixed-capacity ring of reports. When full, adding a
// report evicts the oldest one.
type Buffer struct {
	mu       sync.Mutex
	reports  []Report
	start    int
	count    int
	capacity int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 100
	}
	return &Buffer{
		reports:  make([]Report, capacity),
		capacity: capacity,
	}
}

func (b *Buffer) Add(report Report) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count < b.capacity {
		b.reports[(b.start+b.count)%b.capacity] = report
		b.count++
		return
	}

	// Full: overwrite the oldest slot.
	b.reports[b.start] = report
	b.start = (b.start + 1) % b.capacity
}

// Snapshot returns the buffered reports oldest-first.
func (b *Buffer) Snapshot() []Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Report, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.reports[(b.start+i)%b.capacity]
	}
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Drain returns the buffered reports oldest-first and empties the ring.
func (b *Buffer) Drain() []Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Report, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.reports[(b.start+i)%b.capacity]
	}
	b.start = 0
	b.count = 0
	return out
}
