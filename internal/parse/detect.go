package parse

import (
	"path/filepath"
	"strings"
)

// DetectFormat identifies the document format from the filename extension,
// falling back to the declared MIME type when the extension is missing or
// unrecognized. Content sniffing is deliberately not attempted.
func DetectFormat(filename, contentType string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml":
		return FormatXML
	case ".csv":
		return FormatCSV
	case ".txt":
		return FormatText
	case ".pdf":
		return FormatPDF
	case ".docx", ".doc":
		return FormatDOCX
	}

	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(ct)
	switch {
	// The DOCX content type contains "xml", so word formats must be
	// recognized before the generic xml match.
	case strings.Contains(ct, "wordprocessingml"), strings.Contains(ct, "msword"):
		return FormatDOCX
	case strings.Contains(ct, "xml"):
		return FormatXML
	case strings.Contains(ct, "csv"):
		return FormatCSV
	case ct == "application/pdf":
		return FormatPDF
	case ct == "text/plain":
		return FormatText
	}
	return FormatUnknown
}
