// Package scratch manages the per-batch temporary directories media is downloaded into
// before it is re-uploaded.
package scratch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Prefix starts every scratch directory name.
const Prefix = "temp_"

// Dir is one batch's temporary directory.
type Dir struct {
	path string
}

// DirName returns the directory name for a batch started at now, e.g. temp_1700000000.123456.
func DirName(now time.Time) string {
	ts := float64(now.UnixMicro()) / 1e6
	return Prefix + strconv.FormatFloat(ts, 'f', -1, 64)
}

// New creates root/temp_<unix-timestamp>. It fails if the directory already exists.
func New(root string, now time.Time) (*Dir, error) {
	if root == "" {
		root = "."
	}
	p := filepath.Join(root, DirName(now))
	if err := os.Mkdir(p, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Dir{path: p}, nil
}

// Path returns the directory path.
func (d *Dir) Path() string { return d.path }

// File returns the path for name inside the directory. Only the base name is kept so
// remote names cannot escape the directory.
func (d *Dir) File(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == ".." {
		base = "file"
	}
	return filepath.Join(d.path, base)
}

// Remove deletes a file previously placed in the directory. A missing file is not an error.
func (d *Dir) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove scratch file: %w", err)
	}
	return nil
}

// Close removes the directory together with anything still in it.
func (d *Dir) Close() error {
	if d == nil || d.path == "" {
		return nil
	}
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("remove scratch dir: %w", err)
	}
	return nil
}

// Sweeper removes scratch directories left behind by crashed invocations.
type Sweeper struct {
	root   string
	maxAge time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSweeper creates a sweeper over root removing directories older than maxAge.
func NewSweeper(log *slog.Logger, root string, maxAge time.Duration) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	if root == "" {
		root = "."
	}
	return &Sweeper{
		root:   root,
		maxAge: maxAge,
		now:    time.Now,
		logger: log.With(slog.String("service", "scratch")),
	}
}

// Sweep removes stale temp_ directories and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("read scratch root: %w", err)
	}
	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), Prefix) {
			continue
		}
		created, ok := parseDirTime(entry.Name())
		if !ok || !created.Before(cutoff) {
			continue
		}
		p := filepath.Join(s.root, entry.Name())
		if err := os.RemoveAll(p); err != nil {
			s.logger.Warn("remove stale scratch dir failed", slog.String("path", p), slog.Any("error", err))
			continue
		}
		s.logger.Info("removed stale scratch dir", slog.String("path", p))
		removed++
	}
	return removed, nil
}

func parseDirTime(name string) (time.Time, bool) {
	ts, err := strconv.ParseFloat(strings.TrimPrefix(name, Prefix), 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMicro(int64(ts * 1e6)), true
}
