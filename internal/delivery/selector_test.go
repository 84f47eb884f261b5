package delivery

import (
	"errors"
	"testing"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
)

func TestSelect(t *testing.T) {
	formats := []domain.FormatDescriptor{muxed360, video1080, audio140}
	tests := []struct {
		name      string
		quality   string
		typ       domain.DeliveryType
		wantKind  StrategyKind
		wantID    string
		wantAudio string
		wantErr   error
	}{
		{name: "muxed is direct", quality: "360", typ: domain.DeliveryVideo, wantKind: DirectStream, wantID: "360"},
		{name: "video only merges", quality: "1080", typ: domain.DeliveryVideo, wantKind: MergeStreams, wantID: "1080", wantAudio: "140"},
		{name: "unknown quality", quality: "4320", typ: domain.DeliveryVideo, wantErr: domain.ErrUnsupportedFormat},
		{name: "audio only format for video", quality: "140", typ: domain.DeliveryVideo, wantErr: domain.ErrUnsupportedFormat},
		{name: "audio ignores quality", quality: "4320", typ: domain.DeliveryAudio, wantKind: DirectStream, wantID: "140"},
		{name: "audio with empty quality", quality: "", typ: domain.DeliveryAudio, wantKind: DirectStream, wantID: "140"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Select(formats, tc.quality, tc.typ, func() (domain.FormatDescriptor, error) {
				return audio140, nil
			})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tc.wantKind {
				t.Fatalf("kind = %v, want %v", got.Kind, tc.wantKind)
			}
			if got.Primary.Identifier != tc.wantID {
				t.Fatalf("primary = %q, want %q", got.Primary.Identifier, tc.wantID)
			}
			if got.Audio.Identifier != tc.wantAudio {
				t.Fatalf("audio = %q, want %q", got.Audio.Identifier, tc.wantAudio)
			}
		})
	}
}

func TestSelectAudioNeverConsultsFormats(t *testing.T) {
	calls := 0
	got, err := Select(nil, "anything", domain.DeliveryAudio, func() (domain.FormatDescriptor, error) {
		calls++
		return audio140, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != DirectStream || calls != 1 {
		t.Fatalf("got %+v after %d best-audio calls", got, calls)
	}
}

func TestSelectPropagatesBestAudioError(t *testing.T) {
	noAudio := errors.Join(domain.ErrUnsupportedFormat, errors.New("no audio streams"))
	best := func() (domain.FormatDescriptor, error) { return domain.FormatDescriptor{}, noAudio }

	if _, err := Select([]domain.FormatDescriptor{video1080}, "1080", domain.DeliveryVideo, best); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("merge: expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Select(nil, "", domain.DeliveryAudio, best); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("audio: expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSelectDirectSkipsBestAudio(t *testing.T) {
	_, err := Select([]domain.FormatDescriptor{muxed360}, "360", domain.DeliveryVideo, func() (domain.FormatDescriptor, error) {
		t.Fatal("best audio must not be looked up for muxed formats")
		return domain.FormatDescriptor{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStrategyKindString(t *testing.T) {
	if DirectStream.String() != "direct" || MergeStreams.String() != "merge" || StrategyKind(9).String() != "unknown" {
		t.Fatal("unexpected strategy names")
	}
}
