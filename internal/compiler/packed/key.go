// Package packed implements the size-bounded key/value containers behind the
// static index: values are appended into packages no larger than a fixed
// ceiling, and located through one of two lookup-table encodings: a flat
// array indexed by insertion ordinal, or an implicit balanced BST over sorted
// keys that the query runtime can binary-search by arithmetic offset.
package packed

import (
	"bytes"
	"encoding/binary"
	"fmt"

	errs "github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/errors"
)

// MaxStrKeyLen bounds string keys so a single lookup row stays small.
const MaxStrKeyLen = 255

// Key is a lookup key with a deterministic total order and a fixed-stride
// encoding. Both properties are required for the BST layout: rows must have
// constant width, and the padded encoding must compare bytewise in the same
// order as the keys themselves.
type Key[K any] interface {
	// Less reports whether the key sorts strictly before other.
	Less(other K) bool
	// EncodedSize is the unpadded encoded length in bytes.
	EncodedSize() int
	// AppendPadded appends the encoding zero-padded to stride bytes.
	AppendPadded(dst []byte, stride int) []byte
}

// StrKey is a variable-length byte-string key, ordered lexicographically.
//
// Encoding: the raw bytes followed by NUL padding to the table stride. Terms
// are contractually NUL-free, so the padding is unambiguous and a plain
// bytewise compare of two padded slots reproduces lexicographic order. No
// length prefix is stored; a leading length byte would sort "b" before "ab".
type StrKey struct {
	b []byte
}

// NewStrKey validates and wraps term bytes. The caller retains ownership;
// the bytes must not change while the key is in use.
func NewStrKey(b []byte) (StrKey, error) {
	if len(b) == 0 {
		return StrKey{}, fmt.Errorf("%w: empty string key", errs.ErrInvalidInput)
	}
	if len(b) > MaxStrKeyLen {
		return StrKey{}, fmt.Errorf("%w: string key of %d bytes exceeds %d", errs.ErrInvalidInput, len(b), MaxStrKeyLen)
	}
	if bytes.IndexByte(b, 0) >= 0 {
		return StrKey{}, fmt.Errorf("%w: string key contains NUL", errs.ErrInvalidInput)
	}
	return StrKey{b: b}, nil
}

// Bytes returns the raw key bytes.
func (k StrKey) Bytes() []byte { return k.b }

func (k StrKey) Less(other StrKey) bool {
	return bytes.Compare(k.b, other.b) < 0
}

func (k StrKey) EncodedSize() int { return len(k.b) }

func (k StrKey) AppendPadded(dst []byte, stride int) []byte {
	dst = append(dst, k.b...)
	for i := len(k.b); i < stride; i++ {
		dst = append(dst, 0)
	}
	return dst
}

// U32Key is a fixed-width unsigned 32-bit integer key, ordered numerically.
// It encodes big-endian so the bytewise slot compare matches numeric order.
type U32Key uint32

func (k U32Key) Less(other U32Key) bool { return k < other }

func (k U32Key) EncodedSize() int { return 4 }

func (k U32Key) AppendPadded(dst []byte, stride int) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(k))
	for i := 4; i < stride; i++ {
		dst = append(dst, 0)
	}
	return dst
}
