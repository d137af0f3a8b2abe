package domain

import (
	"path/filepath"
	"strings"
)

// MIMETypePDF is the only upload type accepted.
const MIMETypePDF = "application/pdf"

// RawDocument represents an uploaded file before text extraction.
type RawDocument struct {
	// Filename is the original name of the file.
	Filename string

	// MIMEType is the declared content type.
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Source records how the file arrived (see SourceUpload).
	Source string
}

// IsPDF reports whether the raw document is a PDF by MIME type or,
// failing that, by its file extension.
func (r *RawDocument) IsPDF() bool {
	if r == nil {
		return false
	}
	mt := strings.ToLower(strings.TrimSpace(r.MIMEType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt == MIMETypePDF || strings.EqualFold(filepath.Ext(r.Filename), ".pdf")
}
