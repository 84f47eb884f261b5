package domain

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestParseDeliveryType(t *testing.T) {
	tests := []struct {
		raw     string
		want    DeliveryType
		wantErr bool
	}{
		{"", DeliveryVideo, false},
		{"video", DeliveryVideo, false},
		{" Audio ", DeliveryAudio, false},
		{"gif", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDeliveryType(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseDeliveryType(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if got != tt.want {
			t.Fatalf("ParseDeliveryType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{5 * time.Second, "0:05"},
		{65 * time.Second, "1:05"},
		{61*time.Minute + 30*time.Second, "61:30"},
		{-time.Second, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDescriptorContentType(t *testing.T) {
	tests := []struct {
		format   FormatDescriptor
		wantType string
		wantExt  string
	}{
		{FormatDescriptor{MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, HasVideoTrack: true, HasAudioTrack: true}, "video/mp4", ".mp4"},
		{FormatDescriptor{MimeType: `audio/mp4; codecs="mp4a.40.2"`, HasAudioTrack: true}, "audio/mp4", ".m4a"},
		{FormatDescriptor{MimeType: `audio/webm; codecs="opus"`, HasAudioTrack: true}, "audio/webm", ".webm"},
		{FormatDescriptor{HasAudioTrack: true}, "audio/mp4", ".m4a"},
		{FormatDescriptor{HasVideoTrack: true}, "video/mp4", ".mp4"},
	}
	for _, tt := range tests {
		if got := tt.format.ContentType(); got != tt.wantType {
			t.Errorf("ContentType(%q) = %q, want %q", tt.format.MimeType, got, tt.wantType)
		}
		if got := tt.format.Extension(); got != tt.wantExt {
			t.Errorf("Extension(%q) = %q, want %q", tt.format.MimeType, got, tt.wantExt)
		}
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
		{ErrUnsupportedFormat, http.StatusBadRequest, "unsupported_format"},
		{WrapUpstream(errors.New("boom")), http.StatusInternalServerError, "upstream_error"},
		{WrapTranscode(errors.New("exit 1")), http.StatusInternalServerError, "transcode_failed"},
		{ErrWorkspace, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		status, code := ErrorCode(tt.err)
		if status != tt.wantStatus || code != tt.wantCode {
			t.Errorf("ErrorCode(%v) = (%d, %q), want (%d, %q)", tt.err, status, code, tt.wantStatus, tt.wantCode)
		}
	}
}

func TestHeadersSent(t *testing.T) {
	if !HeadersSent(WrapStreaming(errors.New("broken pipe"))) {
		t.Fatal("expected streaming failure to report headers sent")
	}
	if HeadersSent(WrapTranscode(errors.New("exit 1"))) {
		t.Fatal("transcode failure happens before headers")
	}
}

func TestWrapUpstreamDoesNotDoubleWrap(t *testing.T) {
	once := WrapUpstream(errors.New("timeout"))
	twice := WrapUpstream(once)
	if once != twice {
		t.Fatalf("expected already wrapped error to be returned unchanged, got %v", twice)
	}
}
