package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const transferReportInterval = 100 * time.Millisecond

// TransferReporter turns byte counts from a download into TransferMsg
// updates, throttled so the renderer is not flooded.
type TransferReporter struct {
	send func(tea.Msg)
	key  string

	mu   sync.Mutex
	last time.Time
}

// NewTransferReporter reports progress for the row identified by key.
func NewTransferReporter(send func(tea.Msg), key string) *TransferReporter {
	return &TransferReporter{send: send, key: key}
}

// Report is suitable as a download progress callback.
func (r *TransferReporter) Report(read, total int64) {
	r.mu.Lock()
	now := time.Now()
	finished := total > 0 && read >= total
	if !finished && now.Sub(r.last) < transferReportInterval {
		r.mu.Unlock()
		return
	}
	r.last = now
	r.mu.Unlock()
	r.send(TransferMsg{Key: r.key, Read: read, Total: total})
}
