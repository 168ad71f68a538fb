package packed

import (
	"fmt"

	errs "github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/errors"
)

// ref locates one value inside the package sequence.
type ref struct {
	pkg    uint32
	offset uint32
	length uint32
}

// refSize is the serialized width of a ref in a lookup row.
const refSize = 12

// packer fills size-capped packages. Both lookup variants share it: a value
// is appended to the current package, a new package is opened when the value
// would overflow the ceiling, and a value never spans two packages.
type packer struct {
	max      int
	packages [][]byte
}

func newPacker(maxPackageSize int) *packer {
	return &packer{max: maxPackageSize}
}

// add appends value and returns where it landed. A value larger than one
// whole package is a fatal limits mismatch, never truncated or split.
func (p *packer) add(value []byte) (ref, error) {
	if len(value) > p.max {
		return ref{}, fmt.Errorf("%w: value of %d bytes, package limit %d", errs.ErrValueTooLarge, len(value), p.max)
	}
	if len(p.packages) == 0 || len(p.packages[len(p.packages)-1])+len(value) > p.max {
		p.packages = append(p.packages, make([]byte, 0, p.max))
	}
	cur := len(p.packages) - 1
	offset := len(p.packages[cur])
	p.packages[cur] = append(p.packages[cur], value...)
	return ref{
		pkg:    uint32(cur),
		offset: uint32(offset),
		length: uint32(len(value)),
	}, nil
}

func (p *packer) count() int {
	return len(p.packages)
}

// slice returns the exact bytes a ref points at.
func (p *packer) slice(r ref) []byte {
	return p.packages[r.pkg][r.offset : r.offset+r.length]
}
