// Package parser reads manuscript files into raw text. Structure recovery
// (chapters, paragraphs) belongs to the segmenter, which works off the text
// itself, so every reader flattens to plain text with blank-line paragraph
// separation.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Reader converts raw manuscript bytes into plain text.
type Reader interface {
	Read(r io.Reader, filename string) (string, error)
}

// SupportedExtensions lists manuscript formats this service accepts.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".docx": true,
	".pdf":  true,
}

// ForFile returns the reader for a filename. Unsupported extensions are
// rejected here, before any bytes are read.
func ForFile(filename string) (Reader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextReader{}, nil
	case ".md":
		return &MarkdownReader{}, nil
	case ".html", ".htm":
		return &HTMLReader{}, nil
	case ".docx":
		return &DOCXReader{}, nil
	case ".pdf":
		return &PDFReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
