package models

import (
	"path/filepath"
	"strings"
)

// KindFromFilename infers the file kind from a file name extension.
// Unknown extensions map to FileKindNone.
func KindFromFilename(name string) FileKind {
	switch k := ParseFileKind(filepath.Ext(name)); k {
	case FileKindTXT, FileKindCSV, FileKindXLSX, FileKindDOCX, FileKindPDF, FileKindJSON:
		return k
	default:
		return FileKindNone
	}
}

// ShortID returns the first 8 characters of a job id for display.
func ShortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
