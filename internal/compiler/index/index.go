// Package index builds the in-memory inverted index for one compilation:
// the term dictionary, per-document term lists, per-term document-frequency
// counts, and per-term compressed postings bitmaps.
package index

import (
	"fmt"
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/dustin/go-humanize"

	errs "github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/errors"
)

// TermID is a dense zero-based identifier assigned in first-seen order.
// Stable only within one build.
type TermID uint32

// DocumentID is a dense zero-based identifier assigned by position in the
// document-term stream. Documents with no terms still occupy their slot.
type DocumentID uint32

// Builder ingests (DocumentID, Term) pairs, strictly non-decreasing in
// DocumentID, terms unique within a document. Uniqueness is the reader's
// contract; ordering is re-checked here because every downstream structure
// depends on it.
type Builder struct {
	terms    [][]byte
	termIDs  map[string]TermID
	docTerms [][]TermID
	postings []*roaring.Bitmap
	freq     []uint32

	lastDoc  DocumentID
	havePair bool
	finished bool
	logger   *slog.Logger
}

func NewBuilder() *Builder {
	return &Builder{
		termIDs: make(map[string]TermID),
		logger:  slog.Default().With("component", "index-builder"),
	}
}

// Add records one (document, term) pair: interns the term if unseen, appends
// it to the document's term list, and increments the term's document
// frequency. Postings bitmaps stay empty until Finish.
func (b *Builder) Add(doc DocumentID, term []byte) error {
	if b.finished {
		return fmt.Errorf("%w: pair added after Finish", errs.ErrInvalidInput)
	}
	if b.havePair && doc < b.lastDoc {
		return fmt.Errorf("%w: document %d after document %d", errs.ErrInvalidInput, doc, b.lastDoc)
	}
	b.lastDoc = doc
	b.havePair = true

	// Zero-term documents between the last pair and this one still occupy
	// their ID slot.
	for len(b.docTerms) <= int(doc) {
		b.docTerms = append(b.docTerms, nil)
	}

	id, ok := b.termIDs[string(term)]
	if !ok {
		id = TermID(len(b.terms))
		b.termIDs[string(term)] = id
		b.terms = append(b.terms, term)
		b.postings = append(b.postings, roaring.New())
		b.freq = append(b.freq, 0)
	}
	b.docTerms[doc] = append(b.docTerms[doc], id)
	b.freq[id]++
	return nil
}

// PadDocuments extends the document space to count slots, covering corpora
// whose trailing documents have no terms. The reader reports count by
// highest ID seen, not by record count.
func (b *Builder) PadDocuments(count int) {
	for len(b.docTerms) < count {
		b.docTerms = append(b.docTerms, nil)
	}
}

// Finish checks the minimum-corpus precondition, then fills every term's
// postings bitmap in a second pass over the per-document term lists. The
// pass is separate from ingestion on purpose: term lists must be fully known
// before any bitmap insert so revisited document IDs cannot double-count.
func (b *Builder) Finish(minTerms int) error {
	if b.finished {
		return fmt.Errorf("%w: Finish called twice", errs.ErrInvalidInput)
	}
	if len(b.terms) < minTerms {
		return errs.Newf(errs.ErrCorpusTooSmall, "ingest",
			"%s distinct terms, minimum %s", humanize.Comma(int64(len(b.terms))), humanize.Comma(int64(minTerms)))
	}

	interval := statusInterval(len(b.docTerms), 10)
	for doc, termList := range b.docTerms {
		if doc%interval == 0 {
			b.logger.Info("filling postings bitmaps",
				"documents_done", humanize.Comma(int64(doc)),
				"documents_total", humanize.Comma(int64(len(b.docTerms))),
			)
		}
		for _, id := range termList {
			b.postings[id].Add(uint32(doc))
		}
	}
	b.finished = true
	b.logger.Info("index built",
		"documents", humanize.Comma(int64(len(b.docTerms))),
		"terms", humanize.Comma(int64(len(b.terms))),
	)
	return nil
}

// TermCount returns the number of distinct terms interned.
func (b *Builder) TermCount() int { return len(b.terms) }

// DocumentCount returns the number of document slots, holes included.
func (b *Builder) DocumentCount() int { return len(b.docTerms) }

// Term returns the bytes of the given term.
func (b *Builder) Term(id TermID) []byte { return b.terms[id] }

// Frequency returns the number of documents containing the term.
func (b *Builder) Frequency(id TermID) uint32 { return b.freq[id] }

// Postings returns the term's bitmap. Valid after Finish; additive mutation
// before serialization (run optimization) is the partitioner's job.
func (b *Builder) Postings(id TermID) *roaring.Bitmap { return b.postings[id] }

// DocumentTerms returns the term list recorded for a document.
func (b *Builder) DocumentTerms(doc DocumentID) []TermID { return b.docTerms[doc] }

// statusInterval returns how many items to process between progress log
// lines, aiming for roughly `steps` lines overall.
func statusInterval(total, steps int) int {
	interval := total / steps
	if interval < 1 {
		return 1
	}
	return interval
}
