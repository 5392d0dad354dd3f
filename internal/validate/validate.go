// Package validate checks request fields and uploaded files.
package validate

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Errors maps a field name to a human-readable problem with it.
type Errors map[string]string

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records the first problem seen for a field.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Required records field as missing when value is blank.
func (e Errors) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "is required")
	}
}

// Err returns nil when no problems were recorded.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var emailRx = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// Email reports whether s looks like a deliverable address.
func Email(s string) bool {
	return emailRx.MatchString(strings.TrimSpace(s))
}

// NormalizeEmail is the canonical form used as the client login key.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var pdfMagic = []byte("%PDF-")

// PDF checks an upload by filename, declared content type and leading bytes.
// Browsers that do not know the type send application/octet-stream, which is
// accepted as long as the content itself is a PDF.
func PDF(filename, contentType string, head []byte) error {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return fmt.Errorf("only .pdf files allowed")
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct != "" && ct != "application/pdf" && ct != "application/octet-stream" {
		return fmt.Errorf("content type must be application/pdf")
	}
	if !bytes.HasPrefix(head, pdfMagic) {
		return fmt.Errorf("file is not a PDF document")
	}
	return nil
}
