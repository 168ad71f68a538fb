// Package partition splits the term dictionary into the popular set, packed
// behind a direct (frequency-rank) lookup, and the normal set, packed behind
// a sorted BST lookup. Popular terms are few with large bitmaps, so
// array-indexed lookup avoids storing their keys in a tree; the long tail of
// rare terms gets alphabetic binary search the runtime can execute without
// loading whole packages.
package partition

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/index"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/packed"
)

// Result is the outcome of one partitioning pass. Every TermID lands in
// exactly one of PopularIDs (frequency-rank order) or NormalIDs (ascending
// term order).
type Result struct {
	Popular *packed.DirectStore
	Normal  *packed.BSTStore[packed.StrKey]

	PopularIDs []index.TermID
	NormalIDs  []index.TermID
}

// Rank returns all TermIDs ordered by descending document frequency, ties
// broken by descending term bytes. The tie-break makes ranking independent
// of dictionary insertion order, which determinism of the whole build rests
// on.
func Rank(b *index.Builder) []index.TermID {
	ids := make([]index.TermID, b.TermCount())
	for i := range ids {
		ids[i] = index.TermID(i)
	}
	slices.SortFunc(ids, func(x, y index.TermID) int {
		if c := int(b.Frequency(y)) - int(b.Frequency(x)); c != 0 {
			return c
		}
		return bytes.Compare(b.Term(y), b.Term(x))
	})
	return ids
}

// Split walks the frequency ranking, run-optimizing and serializing each
// term's bitmap into the direct store until its lookup budget refuses a row.
// The cutoff is monotonic: every term not yet admitted becomes normal, even
// if individually small. Normal terms are re-sorted ascending and packed
// into the BST store, which has no lookup cap.
func Split(b *index.Builder, maxPackageSize, maxLookupSize int) (*Result, error) {
	res := &Result{
		Popular: packed.NewDirectStore(maxPackageSize, maxLookupSize),
		Normal:  packed.NewBSTStore[packed.StrKey](maxPackageSize),
	}

	ranked := Rank(b)
	popular := make(map[index.TermID]struct{}, len(ranked))
	for _, id := range ranked {
		bm := b.Postings(id)
		bm.RunOptimize()
		data, err := bm.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("serializing postings for term %q: %w", b.Term(id), err)
		}
		ok, err := res.Popular.Insert(data)
		if err != nil {
			return nil, fmt.Errorf("packing popular term %q: %w", b.Term(id), err)
		}
		if !ok {
			break
		}
		popular[id] = struct{}{}
		res.PopularIDs = append(res.PopularIDs, id)
	}

	sorted := make([]index.TermID, 0, b.TermCount()-len(popular))
	for i := 0; i < b.TermCount(); i++ {
		if _, ok := popular[index.TermID(i)]; !ok {
			sorted = append(sorted, index.TermID(i))
		}
	}
	slices.SortFunc(sorted, func(x, y index.TermID) int {
		return bytes.Compare(b.Term(x), b.Term(y))
	})
	for _, id := range sorted {
		bm := b.Postings(id)
		bm.RunOptimize()
		data, err := bm.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("serializing postings for term %q: %w", b.Term(id), err)
		}
		key, err := packed.NewStrKey(b.Term(id))
		if err != nil {
			return nil, err
		}
		if err := res.Normal.Insert(key, data); err != nil {
			return nil, fmt.Errorf("packing normal term %q: %w", b.Term(id), err)
		}
	}
	res.NormalIDs = sorted
	return res, nil
}
