package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveAttachmentURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		raw  string
		want string
	}{
		{"relative under api base", "http://h:8080/api", "/files/reports/a.pdf", "http://h:8080/api/files/reports/a.pdf"},
		{"trailing and missing slashes", "http://h/api/", "files/a.pdf", "http://h/api/files/a.pdf"},
		{"already carries base path", "http://h/api", "/api/files/a.pdf", "http://h/api/files/a.pdf"},
		{"similar prefix is not the base path", "http://h/api", "/apifiles/a.pdf", "http://h/api/apifiles/a.pdf"},
		{"base without path", "https://h", "/files/a.pdf", "https://h/files/a.pdf"},
		{"absolute unchanged", "http://h/api", "https://cdn.example.com/a.pdf?sig=1", "https://cdn.example.com/a.pdf?sig=1"},
		{"protocol relative", "https://h/api", "//cdn.example.com/a.pdf", "https://cdn.example.com/a.pdf"},
		{"query kept", "http://h/api", "/files/a.pdf?download=1", "http://h/api/files/a.pdf?download=1"},
		{"no base", "", "/files/a.pdf", "/files/a.pdf"},
		{"empty url", "http://h/api", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAttachmentURL(tt.base, tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ResolveAttachmentURL(tt.base, got), "resolving twice adds nothing")
		})
	}
}
