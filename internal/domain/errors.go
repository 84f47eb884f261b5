package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrUpstreamFetch     = errors.New("upstream fetch failed")
	ErrTranscode         = errors.New("transcode failed")
	ErrStreaming         = errors.New("streaming failed")
	ErrWorkspace         = errors.New("workspace error")
)

func WrapUpstream(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUpstreamFetch) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
}

func WrapTranscode(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTranscode) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTranscode, err)
}

func WrapStreaming(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStreaming, err)
}

// HeadersSent reports whether err was raised after the response headers were
// written. Such failures can only be logged.
func HeadersSent(err error) bool {
	return errors.Is(err, ErrStreaming)
}

// ErrorCode maps an error to the HTTP status and error code used in the JSON
// error envelope.
func ErrorCode(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format"
	case errors.Is(err, ErrUpstreamFetch):
		return http.StatusInternalServerError, "upstream_error"
	case errors.Is(err, ErrTranscode):
		return http.StatusInternalServerError, "transcode_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
