package packed

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"

	errs "github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/errors"
)

// BST lookup serialization: a uint32 entry count and uint32 key stride,
// followed by fixed-width rows of (padded key, package, offset, length) laid
// out as an implicit balanced BST — the children of slot i sit at slots 2i+1
// and 2i+2, so lookup is binary search by index arithmetic with no pointer
// chasing. The layout is a pure function of the sorted key set.
const bstHeaderSize = 8

type bstEntry[K Key[K]] struct {
	key K
	ref ref
}

// BSTStore packs values addressed by explicit sorted keys. Inserts accept
// keys in any order; Serialise sorts them ascending and emits the implicit
// tree. Values are packed in insertion order, independent of key order, so
// adjacent keys in the tree may reference non-adjacent packages.
type BSTStore[K Key[K]] struct {
	packer  *packer
	entries []bstEntry[K]
}

// NewBSTStore creates a store with the given package size ceiling. There is
// no lookup-table budget; only the per-package value cap applies.
func NewBSTStore[K Key[K]](maxPackageSize int) *BSTStore[K] {
	return &BSTStore[K]{packer: newPacker(maxPackageSize)}
}

// Insert packs value under key. The only failure is a value larger than one
// package.
func (s *BSTStore[K]) Insert(key K, value []byte) error {
	r, err := s.packer.add(value)
	if err != nil {
		return err
	}
	s.entries = append(s.entries, bstEntry[K]{key: key, ref: r})
	return nil
}

// Len returns the number of inserted values.
func (s *BSTStore[K]) Len() int {
	return len(s.entries)
}

// PackageCount returns the number of packages filled so far.
func (s *BSTStore[K]) PackageCount() int {
	return s.packer.count()
}

// Serialise sorts the accumulated keys and lays out the lookup table in
// Eytzinger order. Duplicate keys are an input-contract violation.
func (s *BSTStore[K]) Serialise() ([]byte, [][]byte, error) {
	sorted := make([]bstEntry[K], len(s.entries))
	copy(sorted, s.entries)
	slices.SortFunc(sorted, func(a, b bstEntry[K]) int {
		if a.key.Less(b.key) {
			return -1
		}
		if b.key.Less(a.key) {
			return 1
		}
		return 0
	})
	stride := 0
	for i, e := range sorted {
		if i > 0 && !sorted[i-1].key.Less(e.key) {
			return nil, nil, fmt.Errorf("%w: key repeated at sorted position %d", errs.ErrDuplicateKey, i)
		}
		if n := e.key.EncodedSize(); n > stride {
			stride = n
		}
	}

	rowSize := stride + refSize
	lookup := make([]byte, 0, bstHeaderSize+len(sorted)*rowSize)
	lookup = binary.LittleEndian.AppendUint32(lookup, uint32(len(sorted)))
	lookup = binary.LittleEndian.AppendUint32(lookup, uint32(stride))
	for _, idx := range eytzingerOrder(len(sorted)) {
		e := sorted[idx]
		lookup = e.key.AppendPadded(lookup, stride)
		lookup = binary.LittleEndian.AppendUint32(lookup, e.ref.pkg)
		lookup = binary.LittleEndian.AppendUint32(lookup, e.ref.offset)
		lookup = binary.LittleEndian.AppendUint32(lookup, e.ref.length)
	}
	return lookup, s.packer.packages, nil
}

// eytzingerOrder returns the permutation mapping implicit-tree slots to
// sorted positions: an in-order walk of the complete tree shape visits the
// slots in ascending key order.
func eytzingerOrder(n int) []int {
	perm := make([]int, n)
	next := 0
	var fill func(slot int)
	fill = func(slot int) {
		if slot >= n {
			return
		}
		fill(2*slot + 1)
		perm[slot] = next
		next++
		fill(2*slot + 2)
	}
	fill(0)
	return perm
}

// LookupEntry locates one value: which package, where in it, how long.
type LookupEntry struct {
	Package uint32
	Offset  uint32
	Length  uint32
}

// SearchBST probes a serialized BST lookup for key, the way the query
// runtime does, and reports the entry, the number of probes, and whether the
// key was found. Probes are bounded by the tree height, ceil(log2(n+1)).
func SearchBST[K Key[K]](lookup []byte, key K) (LookupEntry, int, bool) {
	if len(lookup) < bstHeaderSize {
		return LookupEntry{}, 0, false
	}
	n := int(binary.LittleEndian.Uint32(lookup[:4]))
	stride := int(binary.LittleEndian.Uint32(lookup[4:8]))
	if key.EncodedSize() > stride {
		return LookupEntry{}, 0, false
	}
	probe := key.AppendPadded(make([]byte, 0, stride), stride)
	rowSize := stride + refSize

	probes := 0
	for slot := 0; slot < n; {
		row := bstHeaderSize + slot*rowSize
		probes++
		switch bytes.Compare(probe, lookup[row:row+stride]) {
		case 0:
			return LookupEntry{
				Package: binary.LittleEndian.Uint32(lookup[row+stride : row+stride+4]),
				Offset:  binary.LittleEndian.Uint32(lookup[row+stride+4 : row+stride+8]),
				Length:  binary.LittleEndian.Uint32(lookup[row+stride+8 : row+stride+12]),
			}, probes, true
		case -1:
			slot = 2*slot + 1
		default:
			slot = 2*slot + 2
		}
	}
	return LookupEntry{}, probes, false
}
