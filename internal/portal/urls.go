package portal

import (
	"net/url"
	"strings"

	"github.com/labmoura/laudos/internal/models"
)

// ResolveAttachmentURL makes an attachment URL absolute against the API
// base. Absolute URLs are returned unchanged, and a relative URL that already
// carries the base path is not prefixed a second time.
func ResolveAttachmentURL(base, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		return raw
	}

	b, err := url.Parse(strings.TrimSpace(base))
	if err != nil || !b.IsAbs() || b.Host == "" {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return b.Scheme + ":" + raw
	}

	prefix := strings.TrimRight(b.Path, "/")
	p := "/" + strings.TrimLeft(raw, "/")
	if prefix != "" && p != prefix && !strings.HasPrefix(p, prefix+"/") {
		p = prefix + p
	}
	return b.Scheme + "://" + b.Host + p
}

func resolveReport(base string, r *models.Report) {
	if r != nil {
		r.SignedPDFURL = ResolveAttachmentURL(base, r.SignedPDFURL)
	}
}
