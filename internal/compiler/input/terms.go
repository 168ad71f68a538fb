// Package input reads the two external corpus streams: the NUL-delimited
// document-term stream and the document content stream (file or Postgres
// backed). Readers own the input contract: duplicate, empty, or oversized
// terms and malformed terminators are rejected here so the index builder can
// trust what it receives.
package input

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/index"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/packed"
	errs "github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/errors"
)

// Stream framing, shared by both streams:
//   - every term ends with a NUL byte, even the last of a document;
//   - every document ends with a NUL byte, even the last of the stream;
//   - terms are non-empty, NUL-free, and unique within their document.
// A document with no terms is therefore a lone NUL.
const terminator = 0

// TermsReader yields (DocumentID, Term) pairs from the document-term stream
// in document order.
type TermsReader struct {
	r        *bufio.Reader
	seen     map[string]struct{}
	docsDone uint64
	pending  bool
	done     bool
}

func NewTermsReader(r io.Reader) *TermsReader {
	return &TermsReader{
		r:    bufio.NewReader(r),
		seen: make(map[string]struct{}),
	}
}

// Next returns the next pair, or io.EOF after a cleanly terminated stream.
// Any contract violation is fatal.
func (t *TermsReader) Next() (index.DocumentID, []byte, error) {
	if t.done {
		return 0, nil, io.EOF
	}
	for {
		chunk, err := t.r.ReadBytes(terminator)
		if err == io.EOF {
			if len(chunk) > 0 {
				return 0, nil, fmt.Errorf("%w: trailing bytes without terminator after document %d", errs.ErrInvalidInput, t.docsDone)
			}
			if t.pending {
				return 0, nil, fmt.Errorf("%w: document %d not terminated", errs.ErrInvalidInput, t.docsDone)
			}
			t.done = true
			return 0, nil, io.EOF
		}
		if err != nil {
			return 0, nil, fmt.Errorf("reading term stream: %w", err)
		}
		token := chunk[:len(chunk)-1]
		if len(token) == 0 {
			// Document terminator.
			t.docsDone++
			if t.docsDone > math.MaxUint32 {
				return 0, nil, fmt.Errorf("%w: document count exceeds uint32", errs.ErrInvalidInput)
			}
			t.pending = false
			clear(t.seen)
			continue
		}
		if len(token) > packed.MaxStrKeyLen {
			return 0, nil, fmt.Errorf("%w: term of %d bytes in document %d exceeds %d",
				errs.ErrInvalidInput, len(token), t.docsDone, packed.MaxStrKeyLen)
		}
		if _, dup := t.seen[string(token)]; dup {
			return 0, nil, fmt.Errorf("%w: term %q repeated in document %d", errs.ErrInvalidInput, token, t.docsDone)
		}
		t.seen[string(token)] = struct{}{}
		t.pending = true
		return index.DocumentID(t.docsDone), token, nil
	}
}

// Documents reports the document count by highest ID seen, not record count,
// so trailing zero-term documents are included. Valid after Next returned
// io.EOF.
func (t *TermsReader) Documents() int {
	return int(t.docsDone)
}
