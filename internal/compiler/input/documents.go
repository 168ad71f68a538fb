package input

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/config"
	errs "github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/errors"
)

// DocumentSource streams raw document bodies in DocumentID order, one at a
// time, so peak memory never scales with total corpus text. Next returns
// io.EOF after the last document.
type DocumentSource interface {
	Next() ([]byte, error)
}

// DocumentsReader reads NUL-terminated document bodies from a stream.
type DocumentsReader struct {
	r        *bufio.Reader
	encoding string
	count    uint64
	done     bool
}

func NewDocumentsReader(r io.Reader, encoding string) *DocumentsReader {
	return &DocumentsReader{
		r:        bufio.NewReader(r),
		encoding: encoding,
	}
}

func (d *DocumentsReader) Next() ([]byte, error) {
	if d.done {
		return nil, io.EOF
	}
	chunk, err := d.r.ReadBytes(terminator)
	if err == io.EOF {
		if len(chunk) > 0 {
			return nil, fmt.Errorf("%w: document %d not terminated", errs.ErrInvalidInput, d.count)
		}
		d.done = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading document stream: %w", err)
	}
	content := chunk[:len(chunk)-1]
	if err := ValidateContent(d.encoding, content); err != nil {
		return nil, fmt.Errorf("document %d: %w", d.count, err)
	}
	d.count++
	return content, nil
}

// Documents returns the number of documents read so far.
func (d *DocumentsReader) Documents() int {
	return int(d.count)
}

// ValidateContent checks a document body against the configured encoding.
func ValidateContent(encoding string, content []byte) error {
	switch encoding {
	case config.EncodingJSON:
		if !json.Valid(content) {
			return fmt.Errorf("%w: document is not valid JSON", errs.ErrInvalidInput)
		}
	case config.EncodingText:
		// NUL-free by framing; nothing further to check.
	default:
		return fmt.Errorf("%w: unknown document encoding %q", errs.ErrConfig, encoding)
	}
	return nil
}
