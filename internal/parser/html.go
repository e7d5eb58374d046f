package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/lorebase/internal/htmltext"
)

// HTMLReader handles HTML manuscripts, flattening markup to plain text with
// block-level line breaks preserved.
type HTMLReader struct{}

func (p *HTMLReader) Read(r io.Reader, filename string) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return htmltext.ToText(string(raw)), nil
}
