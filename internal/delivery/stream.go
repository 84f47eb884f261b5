package delivery

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
)

// setAttachmentHeaders must run before the first body byte is written. A
// negative size leaves Content-Length unset.
func setAttachmentHeaders(w http.ResponseWriter, contentType, filename string, size int64) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("X-Content-Type-Options", "nosniff")
	if size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
	}
}

// streamDirect pipes one remote stream to w. Errors before the headers are
// written are returned as is; copy errors after that wrap ErrStreaming.
func (s *Service) streamDirect(r deliveryRun, format domain.FormatDescriptor) (int64, error) {
	body, size, err := s.source.Open(r.ctx, r.meta, format)
	if err != nil {
		return 0, domain.WrapUpstream(err)
	}
	defer body.Close()

	// Sources report 0 when the length is unknown.
	if size <= 0 {
		size = -1
	}
	setAttachmentHeaders(r.w, format.ContentType(), r.title+format.Extension(), size)
	r.w.WriteHeader(http.StatusOK)

	written, err := io.Copy(r.w, body)
	if err != nil {
		return written, domain.WrapStreaming(err)
	}
	return written, nil
}
