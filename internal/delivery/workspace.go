package delivery

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/metrics"
)

// WorkItem is the set of temporary files owned by one merge request.
type WorkItem struct {
	ID         string
	VideoPath  string
	AudioPath  string
	OutputPath string

	released atomic.Bool
}

func (w *WorkItem) Paths() []string {
	return []string{w.VideoPath, w.AudioPath, w.OutputPath}
}

// Workspace allocates per-request temporary paths under a shared base
// directory and removes them again.
type Workspace struct {
	fs      afero.Fs
	baseDir string
	logger  *slog.Logger
	now     func() time.Time
	suffix  func() int64
}

func NewWorkspace(fsys afero.Fs, baseDir string, logger *slog.Logger) *Workspace {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		fs:      fsys,
		baseDir: baseDir,
		logger:  logger,
		now:     time.Now,
		suffix:  func() int64 { return rand.Int64N(1_000_000_000) },
	}
}

func (w *Workspace) Fs() afero.Fs {
	return w.fs
}

func (w *Workspace) BaseDir() string {
	return w.baseDir
}

// Allocate reserves three unique paths derived from the title, the current
// time and a random suffix. No files are created.
func (w *Workspace) Allocate(title string) (*WorkItem, error) {
	if err := w.fs.MkdirAll(w.baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", domain.ErrWorkspace, w.baseDir, err)
	}

	id := fmt.Sprintf("%s_%d_%d", slug(title), w.now().UnixMilli(), w.suffix())
	item := &WorkItem{
		ID:         id,
		VideoPath:  filepath.Join(w.baseDir, id+"_video"),
		AudioPath:  filepath.Join(w.baseDir, id+"_audio"),
		OutputPath: filepath.Join(w.baseDir, id+"_merged.mp4"),
	}
	metrics.WorkItemsActive.Inc()
	return item, nil
}

// Release deletes every path of item that exists. Deletion errors are logged
// and otherwise ignored; releasing twice is a no-op.
func (w *Workspace) Release(item *WorkItem) {
	if item == nil {
		return
	}
	if item.released.CompareAndSwap(false, true) {
		metrics.WorkItemsActive.Dec()
	}
	for _, path := range item.Paths() {
		if err := w.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			metrics.CleanupErrorsTotal.Inc()
			w.logger.Warn("temporary file cleanup failed",
				slog.String("workItem", item.ID),
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	}
}
