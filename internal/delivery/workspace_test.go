package delivery

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/metrics"
)

func TestWorkspaceAllocateCreatesBaseDir(t *testing.T) {
	fsys := afero.NewMemMapFs()
	ws := NewWorkspace(fsys, "/var/tmp/ytdl/nested", quietLogger())

	item, err := ws.Allocate("My: Video / Test?")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	defer ws.Release(item)

	if ok, _ := afero.DirExists(fsys, "/var/tmp/ytdl/nested"); !ok {
		t.Fatal("expected base dir to be created")
	}
	// Second allocation with an existing base dir must succeed too.
	other, err := ws.Allocate("My: Video / Test?")
	if err != nil {
		t.Fatalf("allocate with existing dir: %v", err)
	}
	ws.Release(other)
}

func TestWorkspaceAllocatePaths(t *testing.T) {
	ws := NewWorkspace(afero.NewMemMapFs(), "/work", quietLogger())
	ws.now = func() time.Time { return time.UnixMilli(1700000000123) }
	ws.suffix = func() int64 { return 42 }

	item, err := ws.Allocate("My: Video / Test?")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	defer ws.Release(item)

	if item.ID != "My_Video_Test_1700000000123_42" {
		t.Fatalf("id = %q", item.ID)
	}
	for _, p := range item.Paths() {
		if filepath.Dir(p) != "/work" {
			t.Fatalf("path %s outside base dir", p)
		}
		if !strings.HasPrefix(filepath.Base(p), item.ID) {
			t.Fatalf("path %s does not carry the work item id", p)
		}
	}
	if !strings.HasSuffix(item.OutputPath, ".mp4") {
		t.Fatalf("output path %s should be an mp4", item.OutputPath)
	}
	if ok, _ := afero.Exists(ws.Fs(), item.VideoPath); ok {
		t.Fatal("allocate must not create the track files")
	}
}

func TestWorkspaceReleaseIsIdempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	ws := NewWorkspace(fsys, "/work", quietLogger())
	before := testutil.ToFloat64(metrics.WorkItemsActive)

	item, err := ws.Allocate("clip")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got := testutil.ToFloat64(metrics.WorkItemsActive); got != before+1 {
		t.Fatalf("active work items = %v, want %v", got, before+1)
	}
	// Only two of the three files exist, as after a failed download.
	_ = afero.WriteFile(fsys, item.VideoPath, []byte("v"), 0o644)
	_ = afero.WriteFile(fsys, item.AudioPath, []byte("a"), 0o644)

	ws.Release(item)
	ws.Release(item)

	for _, p := range item.Paths() {
		if ok, _ := afero.Exists(fsys, p); ok {
			t.Fatalf("%s still exists", p)
		}
	}
	if got := testutil.ToFloat64(metrics.WorkItemsActive); got != before {
		t.Fatalf("active work items = %v, want %v after double release", got, before)
	}
}

func TestWorkspaceReleaseSwallowsErrors(t *testing.T) {
	base := afero.NewMemMapFs()
	item := &WorkItem{ID: "x", VideoPath: "/work/x_video", AudioPath: "/work/x_audio", OutputPath: "/work/x_merged.mp4"}
	item.released.Store(true)
	_ = afero.WriteFile(base, item.VideoPath, []byte("v"), 0o644)

	ws := NewWorkspace(afero.NewReadOnlyFs(base), "/work", quietLogger())
	before := testutil.ToFloat64(metrics.CleanupErrorsTotal)

	ws.Release(item)

	if got := testutil.ToFloat64(metrics.CleanupErrorsTotal); got <= before {
		t.Fatal("expected failed deletion to be counted")
	}
}

func TestWorkspaceReleaseNil(t *testing.T) {
	NewWorkspace(afero.NewMemMapFs(), "/work", quietLogger()).Release(nil)
}
