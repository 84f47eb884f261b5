package delivery

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
)

type StrategyKind int

const (
	// DirectStream pipes a single remote stream to the client.
	DirectStream StrategyKind = iota
	// MergeStreams downloads separate video and audio tracks and merges them.
	MergeStreams
)

func (k StrategyKind) String() string {
	switch k {
	case DirectStream:
		return "direct"
	case MergeStreams:
		return "merge"
	default:
		return "unknown"
	}
}

// Strategy is the delivery decision for one request. Audio is only set for
// MergeStreams.
type Strategy struct {
	Kind    StrategyKind
	Primary domain.FormatDescriptor
	Audio   domain.FormatDescriptor
}

// Select classifies a request into a delivery strategy. Audio requests ignore
// quality and always stream the best audio track; bestAudio is only invoked
// when an audio track is actually needed.
func Select(
	formats []domain.FormatDescriptor,
	quality string,
	deliveryType domain.DeliveryType,
	bestAudio func() (domain.FormatDescriptor, error),
) (Strategy, error) {
	if deliveryType == domain.DeliveryAudio {
		audio, err := bestAudio()
		if err != nil {
			return Strategy{}, err
		}
		return Strategy{Kind: DirectStream, Primary: audio}, nil
	}

	format, ok := lo.Find(formats, func(f domain.FormatDescriptor) bool {
		return f.Identifier == quality
	})
	if !ok {
		return Strategy{}, fmt.Errorf("%w: quality %q is not offered for this video", domain.ErrUnsupportedFormat, quality)
	}

	switch {
	case format.HasVideoTrack && format.HasAudioTrack:
		return Strategy{Kind: DirectStream, Primary: format}, nil
	case format.HasVideoTrack:
		audio, err := bestAudio()
		if err != nil {
			return Strategy{}, err
		}
		return Strategy{Kind: MergeStreams, Primary: format, Audio: audio}, nil
	default:
		return Strategy{}, fmt.Errorf("%w: quality %q has no video track", domain.ErrUnsupportedFormat, quality)
	}
}
