// Package benchmark contains Go benchmarks for the index builder, the term
// partitioner, and the packed key/value stores, measuring build throughput
// and lookup latency.
package benchmark

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/index"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/input"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/packed"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/partition"
)

// synthBuilder fills an index with numDocs documents drawn from a vocabulary
// of numTerms terms, roughly Zipf-shaped so a few terms dominate.
func synthBuilder(b *testing.B, numDocs, numTerms int) *index.Builder {
	b.Helper()
	rng := rand.New(rand.NewSource(1))
	zipf := rand.NewZipf(rng, 1.2, 1.0, uint64(numTerms-1))
	builder := index.NewBuilder()
	for doc := 0; doc < numDocs; doc++ {
		seen := map[uint64]bool{}
		for len(seen) < 8 {
			t := zipf.Uint64()
			if seen[t] {
				continue
			}
			seen[t] = true
			if err := builder.Add(index.DocumentID(doc), []byte(fmt.Sprintf("term-%05d", t))); err != nil {
				b.Fatal(err)
			}
		}
	}
	builder.PadDocuments(numDocs)
	if err := builder.Finish(0); err != nil {
		b.Fatal(err)
	}
	return builder
}

// BenchmarkIngestTermStream measures NUL-delimited term stream parsing plus
// dictionary interning throughput.
func BenchmarkIngestTermStream(b *testing.B) {
	var sb strings.Builder
	for doc := 0; doc < 1000; doc++ {
		for t := 0; t < 8; t++ {
			fmt.Fprintf(&sb, "term-%05d\x00", (doc*7+t*131)%2000)
		}
		sb.WriteByte(0)
	}
	stream := sb.String()

	b.ReportAllocs()
	b.SetBytes(int64(len(stream)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := input.NewTermsReader(strings.NewReader(stream))
		builder := index.NewBuilder()
		for {
			doc, term, err := r.Next()
			if err != nil {
				break
			}
			if err := builder.Add(doc, term); err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkPartitionSplit measures ranking plus bitmap serialization and
// packing for corpora of increasing size.
func BenchmarkPartitionSplit(b *testing.B) {
	sizes := []struct{ docs, terms int }{
		{1000, 500},
		{10000, 5000},
	}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("docs_%d_terms_%d", size.docs, size.terms), func(b *testing.B) {
			builder := synthBuilder(b, size.docs, size.terms)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				res, err := partition.Split(builder, 10<<20, 1<<20)
				if err != nil {
					b.Fatal(err)
				}
				if _, _, err := res.Normal.Serialise(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkBSTSearch measures lookup latency over a serialized BST table.
func BenchmarkBSTSearch(b *testing.B) {
	sizes := []int{1000, 100000}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("keys_%d", n), func(b *testing.B) {
			store := packed.NewBSTStore[packed.StrKey](10 << 20)
			keys := make([]packed.StrKey, n)
			for i := 0; i < n; i++ {
				k, err := packed.NewStrKey([]byte(fmt.Sprintf("term-%07d", i)))
				if err != nil {
					b.Fatal(err)
				}
				keys[i] = k
				if err := store.Insert(k, []byte{byte(i)}); err != nil {
					b.Fatal(err)
				}
			}
			lookup, _, err := store.Serialise()
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, _, ok := packed.SearchBST(lookup, keys[i%n]); !ok {
					b.Fatal("key missing")
				}
			}
		})
	}
}

// BenchmarkDirectEntry measures ordinal lookup decode latency.
func BenchmarkDirectEntry(b *testing.B) {
	store := packed.NewDirectStore(10<<20, 1<<20)
	const n = 10000
	for i := 0; i < n; i++ {
		if ok, err := store.Insert([]byte(fmt.Sprintf("value-%05d", i))); err != nil || !ok {
			b.Fatalf("insert %d: %v %v", i, ok, err)
		}
	}
	lookup := store.RawLookup()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := packed.DirectEntry(lookup, i%n); !ok {
			b.Fatal("ordinal missing")
		}
	}
}
