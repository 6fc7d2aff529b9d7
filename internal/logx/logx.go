package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Options configures the run log.
type Options struct {
	// Dir receives one file per run named YYYYMMDD-HHMMSS.log.
	Dir string
	// Mirror, when non-nil, receives debug-level records as well (--verbose).
	Mirror io.Writer
	// Now defaults to time.Now.
	Now func() time.Time
}

// New creates a logfmt logger writing to a timestamped file inside
// opts.Dir. Every record carries a run id. The returned closer should be
// closed when logging is no longer needed.
func New(opts Options) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	filename := now().Format("20060102-150405") + ".log"
	file, err := os.OpenFile(filepath.Join(opts.Dir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	var w io.Writer = file
	if opts.Mirror != nil {
		w = io.MultiWriter(file, opts.Mirror)
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       log.LogfmtFormatter,
	})
	return logger.With("run", uuid.NewString()), file, nil
}

// Discard returns a logger that drops every record.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Path returns the file a closer returned by New writes to, or "".
func Path(c io.Closer) string {
	if f, ok := c.(*os.File); ok {
		return f.Name()
	}
	return ""
}
