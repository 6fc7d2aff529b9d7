package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"envsetup/internal/platform"
	"envsetup/internal/tools"
)

// Fetcher transfers url to dest. dest is either fully written or absent
// when Fetch returns.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, url, dest string) error
}

// CommandFetcher shells out to a transfer tool such as curl or wget.
type CommandFetcher struct {
	Runner tools.Runner
	Tool   string
	Path   string
	Args   func(url, dest string) []string
}

// NewCurlFetcher runs "curl -fsSL -o DEST URL".
func NewCurlFetcher(runner tools.Runner, path string) *CommandFetcher {
	return &CommandFetcher{
		Runner: runner,
		Tool:   "curl",
		Path:   path,
		Args: func(url, dest string) []string {
			return []string{"-fsSL", "-o", dest, url}
		},
	}
}

// NewWgetFetcher runs "wget -q -O DEST URL".
func NewWgetFetcher(runner tools.Runner, path string) *CommandFetcher {
	return &CommandFetcher{
		Runner: runner,
		Tool:   "wget",
		Path:   path,
		Args: func(url, dest string) []string {
			return []string{"-q", "-O", dest, url}
		},
	}
}

func (f *CommandFetcher) Name() string { return f.Tool }

func (f *CommandFetcher) Fetch(ctx context.Context, url, dest string) error {
	return writeAtomically(dest, func(tmp string) error {
		res, err := f.Runner.Run(ctx, f.Path, f.Args(url, tmp), tools.RunOptions{})
		if err != nil {
			if msg := strings.TrimSpace(string(res.Stderr)); msg != "" {
				return fmt.Errorf("%s %s: %w: %s", f.Tool, url, err, msg)
			}
			return fmt.Errorf("%s %s: %w", f.Tool, url, err)
		}
		return nil
	})
}

// HTTPFetcher downloads in-process. Progress, when set, is called with the
// bytes received so far and the announced length (-1 when unknown).
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	Progress  func(read, total int64)
}

func (f *HTTPFetcher) Name() string { return "http" }

func (f *HTTPFetcher) Fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	return writeAtomically(dest, func(tmp string) error {
		file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("create temp file: %w", err)
		}
		var body io.Reader = resp.Body
		if f.Progress != nil {
			body = &countingReader{r: resp.Body, total: resp.ContentLength, report: f.Progress}
		}
		if _, err := io.Copy(file, body); err != nil {
			file.Close()
			return fmt.Errorf("write temp file: %w", err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("close temp file: %w", err)
		}
		return nil
	})
}

type countingReader struct {
	r      io.Reader
	read   int64
	total  int64
	report func(read, total int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if n > 0 || err == io.EOF {
		c.report(c.read, c.total)
	}
	return n, err
}

// writeAtomically lets write fill a temp file next to dest, then renames it
// into place. The temp file is removed on failure.
func writeAtomically(dest string, write func(tmp string) error) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("prepare download destination: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "download-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := write(tmpPath); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("finalize download: %w", err)
	}
	return nil
}

// SelectFetcher prefers curl on macOS and wget elsewhere, and falls back to
// the in-process fetcher when the preferred tool is not installed.
func SelectFetcher(runner tools.Runner, info platform.Info, fallback *HTTPFetcher) Fetcher {
	tool := "wget"
	if info.OSFamily == platform.MacOSX {
		tool = "curl"
	}
	if path, err := runner.LookPath(tool); err == nil {
		if tool == "curl" {
			return NewCurlFetcher(runner, path)
		}
		return NewWgetFetcher(runner, path)
	}
	if fallback == nil {
		fallback = &HTTPFetcher{}
	}
	return fallback
}
