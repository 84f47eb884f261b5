package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeResolver struct {
	meta    domain.VideoMetadata
	err     error
	lookups atomic.Int32
}

func (f *fakeResolver) Validate(rawURL string) error {
	if !strings.HasPrefix(rawURL, "https://www.youtube.com/watch?v=") {
		return fmt.Errorf("%w: not a watch url", domain.ErrInvalidInput)
	}
	return nil
}

func (f *fakeResolver) Lookup(context.Context, string) (domain.VideoMetadata, error) {
	f.lookups.Add(1)
	if f.err != nil {
		return domain.VideoMetadata{}, f.err
	}
	return f.meta, nil
}

type fakeSource struct {
	payloads     map[string][]byte
	openErrs     map[string]error
	readErrs     map[string]error
	bestAudio    domain.FormatDescriptor
	bestAudioErr error

	mu             sync.Mutex
	opened         []string
	bestAudioCalls int
}

func (f *fakeSource) BestAudio(domain.VideoMetadata) (domain.FormatDescriptor, error) {
	f.mu.Lock()
	f.bestAudioCalls++
	f.mu.Unlock()
	if f.bestAudioErr != nil {
		return domain.FormatDescriptor{}, f.bestAudioErr
	}
	return f.bestAudio, nil
}

func (f *fakeSource) Open(_ context.Context, _ domain.VideoMetadata, format domain.FormatDescriptor) (io.ReadCloser, int64, error) {
	f.mu.Lock()
	f.opened = append(f.opened, format.Identifier)
	f.mu.Unlock()
	if err := f.openErrs[format.Identifier]; err != nil {
		return nil, 0, err
	}
	data := f.payloads[format.Identifier]
	var r io.Reader = bytes.NewReader(data)
	if err := f.readErrs[format.Identifier]; err != nil {
		r = io.MultiReader(bytes.NewReader(data[:len(data)/2]), &errReader{err: err})
	}
	return io.NopCloser(r), int64(len(data)), nil
}

func (f *fakeSource) openedFormats() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.opened...)
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }

// fakeTranscoder concatenates both inputs into the output file.
type fakeTranscoder struct {
	fs         afero.Fs
	err        error
	skipOutput bool

	mu   sync.Mutex
	jobs []domain.MergeJob
	// inputsPresent records whether both inputs existed when Merge ran.
	inputsPresent []bool
}

func (f *fakeTranscoder) Merge(_ context.Context, job domain.MergeJob) error {
	video, verr := afero.ReadFile(f.fs, job.VideoPath)
	audio, aerr := afero.ReadFile(f.fs, job.AudioPath)

	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.inputsPresent = append(f.inputsPresent, verr == nil && aerr == nil)
	f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	if f.skipOutput {
		return nil
	}
	return afero.WriteFile(f.fs, job.OutputPath, append(video, audio...), 0o644)
}

func (f *fakeTranscoder) recordedJobs() []domain.MergeJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.MergeJob(nil), f.jobs...)
}

// failingWriter accepts headers but fails every body write.
type failingWriter struct {
	header http.Header
	status int
}

func newFailingWriter() *failingWriter {
	return &failingWriter{header: make(http.Header)}
}

func (w *failingWriter) Header() http.Header { return w.header }

func (w *failingWriter) WriteHeader(status int) { w.status = status }

func (w *failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("client went away")
}
