package packed

import (
	"encoding/binary"
)

// Direct lookup serialization: a uint32 entry count followed by one
// 12-byte (package, offset, length) row per value, in insertion order. The
// key is implicit: the caller's insertion rank is the ordinal the runtime
// indexes by, so no key bytes are stored.
const directHeaderSize = 4

// DirectStore packs values addressed by insertion ordinal. The lookup table
// is loaded eagerly by the query runtime while package bodies are paged
// lazily, so it carries its own byte budget independent of package size.
type DirectStore struct {
	packer    *packer
	refs      []ref
	lookupMax int
}

// NewDirectStore creates a store with the given package size ceiling and
// lookup-table byte budget.
func NewDirectStore(maxPackageSize, maxLookupSize int) *DirectStore {
	return &DirectStore{
		packer:    newPacker(maxPackageSize),
		lookupMax: maxLookupSize,
	}
}

// Insert appends value under the next ordinal. It returns false, leaving the
// store untouched, once admitting another lookup row would overflow the
// lookup budget. A value larger than one package is a fatal error.
func (s *DirectStore) Insert(value []byte) (bool, error) {
	if directHeaderSize+(len(s.refs)+1)*refSize > s.lookupMax {
		return false, nil
	}
	r, err := s.packer.add(value)
	if err != nil {
		return false, err
	}
	s.refs = append(s.refs, r)
	return true, nil
}

// Len returns the number of admitted values.
func (s *DirectStore) Len() int {
	return len(s.refs)
}

// Get returns the exact bytes inserted under ordinal i.
func (s *DirectStore) Get(i int) []byte {
	return s.packer.slice(s.refs[i])
}

// Packages returns the finalized package blobs.
func (s *DirectStore) Packages() [][]byte {
	return s.packer.packages
}

// RawLookup serializes the lookup table.
func (s *DirectStore) RawLookup() []byte {
	out := make([]byte, 0, directHeaderSize+len(s.refs)*refSize)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(s.refs)))
	for _, r := range s.refs {
		out = binary.LittleEndian.AppendUint32(out, r.pkg)
		out = binary.LittleEndian.AppendUint32(out, r.offset)
		out = binary.LittleEndian.AppendUint32(out, r.length)
	}
	return out
}

// DirectEntry reads row ordinal out of a serialized direct lookup, the way
// the query runtime does.
func DirectEntry(lookup []byte, ordinal int) (LookupEntry, bool) {
	if len(lookup) < directHeaderSize {
		return LookupEntry{}, false
	}
	n := int(binary.LittleEndian.Uint32(lookup[:4]))
	if ordinal < 0 || ordinal >= n {
		return LookupEntry{}, false
	}
	row := directHeaderSize + ordinal*refSize
	if row+refSize > len(lookup) {
		return LookupEntry{}, false
	}
	return LookupEntry{
		Package: binary.LittleEndian.Uint32(lookup[row : row+4]),
		Offset:  binary.LittleEndian.Uint32(lookup[row+4 : row+8]),
		Length:  binary.LittleEndian.Uint32(lookup[row+8 : row+12]),
	}, true
}
