package domain

import (
	"fmt"
	"mime"
	"strings"
	"time"
)

type DeliveryType string

const (
	DeliveryVideo DeliveryType = "video"
	DeliveryAudio DeliveryType = "audio"
)

// ParseDeliveryType accepts "video" or "audio"; an empty value means video.
func ParseDeliveryType(raw string) (DeliveryType, error) {
	switch DeliveryType(strings.ToLower(strings.TrimSpace(raw))) {
	case "", DeliveryVideo:
		return DeliveryVideo, nil
	case DeliveryAudio:
		return DeliveryAudio, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidInput, raw)
	}
}

// RequestIntent is what a download request asks for after normalization.
type RequestIntent struct {
	SourceURL       string
	QualitySelector string
	DeliveryType    DeliveryType
}

// FormatDescriptor describes one fetchable stream advertised by the resolver.
type FormatDescriptor struct {
	Identifier    string `json:"identifier"`
	QualityLabel  string `json:"qualityLabel,omitempty"`
	MimeType      string `json:"mimeType"`
	Bitrate       int    `json:"bitrate,omitempty"`
	ContentLength int64  `json:"contentLength,omitempty"`
	HasVideoTrack bool   `json:"hasVideo"`
	HasAudioTrack bool   `json:"hasAudio"`
}

// ContentType returns the media type without codec parameters.
func (f FormatDescriptor) ContentType() string {
	mediaType, _, err := mime.ParseMediaType(f.MimeType)
	if err != nil || mediaType == "" {
		if f.HasVideoTrack {
			return "video/mp4"
		}
		return "audio/mp4"
	}
	return mediaType
}

// Extension returns the file extension matching ContentType.
func (f FormatDescriptor) Extension() string {
	switch f.ContentType() {
	case "audio/mp4":
		return ".m4a"
	case "audio/webm", "video/webm":
		return ".webm"
	case "audio/mpeg":
		return ".mp3"
	default:
		return ".mp4"
	}
}

// VideoMetadata is the resolver's view of one video.
type VideoMetadata struct {
	ID        string
	Title     string
	Thumbnail string
	Channel   string
	Duration  time.Duration
	Formats   []FormatDescriptor

	// Source is an opaque handle owned by the resolver that produced the
	// metadata; stream sources use it to open formats of the same video.
	Source any
}

// VideoInfo is the public /info payload.
type VideoInfo struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Channel   string `json:"channel"`
	Duration  string `json:"duration"`
}

// FormatDuration renders d as minutes:seconds with zero-padded seconds.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func (m VideoMetadata) Info() VideoInfo {
	return VideoInfo{
		Title:     m.Title,
		Thumbnail: m.Thumbnail,
		Channel:   m.Channel,
		Duration:  FormatDuration(m.Duration),
	}
}

// MergeJob is one transcoder invocation: two track files in, one container out.
type MergeJob struct {
	VideoPath  string
	AudioPath  string
	OutputPath string
	VideoTrack FormatDescriptor
	AudioTrack FormatDescriptor
}
