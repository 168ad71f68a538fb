// Package compiler orchestrates one index build: ingest the document-term
// stream, enforce corpus preconditions, partition and pack terms, pack
// documents, and hand the finished artifact sets to the emitters. A build is
// a single atomic batch job; failure at any stage aborts the whole build and
// no partial artifact set is considered valid.
package compiler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/emit"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/index"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/input"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/packed"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/partition"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/config"
	errs "github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/metrics"
)

// how often the single-threaded loops look at ctx.
const cancelCheckInterval = 1 << 14

// Pipeline runs builds with one fixed configuration.
type Pipeline struct {
	build   config.BuildConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Artifacts is the complete output of one build, ready for the emitters.
type Artifacts struct {
	Sets   []emit.ArtifactSet
	Params emit.Params

	DocumentCount int
	TermCount     int
	PopularCount  int
	NormalCount   int
}

func New(build config.BuildConfig, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		build:   build,
		metrics: m,
		logger:  slog.Default().With("component", "pipeline"),
	}
}

// Run executes the whole build. Stages are strictly sequential and
// single-threaded; identical inputs produce byte-identical artifacts.
func (p *Pipeline) Run(ctx context.Context, terms *input.TermsReader, docs input.DocumentSource) (*Artifacts, error) {
	b, err := p.ingest(ctx, terms)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := partition.Split(b, p.build.PackageMaxSize, p.build.PopularLookupMaxSize)
	if err != nil {
		return nil, err
	}
	normalLookup, normalPackages, err := res.Normal.Serialise()
	if err != nil {
		return nil, err
	}
	p.metrics.StageDuration.WithLabelValues("partition").Observe(time.Since(start).Seconds())
	if len(normalLookup) > p.build.NormalLookupWarnSize {
		p.logger.Warn("normal-term lookup table is large; the query runtime must load it eagerly",
			"lookup_bytes", humanize.Bytes(uint64(len(normalLookup))),
			"warn_threshold", humanize.Bytes(uint64(p.build.NormalLookupWarnSize)),
		)
	}
	p.metrics.PopularTerms.Set(float64(len(res.PopularIDs)))
	p.metrics.NormalTerms.Set(float64(len(res.NormalIDs)))
	p.logger.Info("terms partitioned",
		"popular", humanize.Comma(int64(len(res.PopularIDs))),
		"popular_share", fracPercent(len(res.PopularIDs), b.TermCount()),
		"popular_packages", len(res.Popular.Packages()),
		"normal", humanize.Comma(int64(len(res.NormalIDs))),
		"normal_packages", len(normalPackages),
	)

	docsLookup, docsPackages, docCount, err := p.packDocuments(ctx, docs, b.DocumentCount())
	if err != nil {
		return nil, err
	}

	out := &Artifacts{
		Sets: []emit.ArtifactSet{
			{Name: emit.PopularTerms, Lookup: res.Popular.RawLookup(), Packages: res.Popular.Packages()},
			{Name: emit.NormalTerms, Lookup: normalLookup, Packages: normalPackages},
			{Name: emit.Documents, Lookup: docsLookup, Packages: docsPackages},
		},
		Params: emit.Params{
			MaxQueryBytes:    p.build.MaxQueryBytes,
			MaxQueryTerms:    p.build.MaxQueryTerms,
			MaxQueryResults:  p.build.MaxQueryResults,
			DocumentEncoding: p.build.DocumentEncoding,
		},
		DocumentCount: docCount,
		TermCount:     b.TermCount(),
		PopularCount:  len(res.PopularIDs),
		NormalCount:   len(res.NormalIDs),
	}
	for _, set := range out.Sets {
		p.recordArtifact(set)
	}
	return out, nil
}

// ingest drains the term stream into a fresh index builder and enforces the
// minimum-corpus precondition before any packing starts.
func (p *Pipeline) ingest(ctx context.Context, terms *input.TermsReader) (*index.Builder, error) {
	start := time.Now()
	b := index.NewBuilder()
	pairs := 0
	for {
		if pairs%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		doc, term, err := terms.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := b.Add(doc, term); err != nil {
			return nil, err
		}
		pairs++
		p.metrics.TermPairsRead.Inc()
	}
	b.PadDocuments(terms.Documents())
	p.metrics.DocumentsRead.Add(float64(b.DocumentCount()))
	p.metrics.TermsInterned.Add(float64(b.TermCount()))
	if err := b.Finish(p.build.MinTermCount); err != nil {
		return nil, err
	}
	p.metrics.StageDuration.WithLabelValues("ingest").Observe(time.Since(start).Seconds())
	p.logger.Info("corpus ingested",
		"documents", humanize.Comma(int64(b.DocumentCount())),
		"terms", humanize.Comma(int64(b.TermCount())),
		"pairs", humanize.Comma(int64(pairs)),
	)
	return b, nil
}

// packDocuments streams raw document bodies into a BST store keyed by
// DocumentID. Bodies are packed one at a time; the corpus text is never held
// in memory at once.
func (p *Pipeline) packDocuments(ctx context.Context, docs input.DocumentSource, expected int) ([]byte, [][]byte, int, error) {
	start := time.Now()
	store := packed.NewBSTStore[packed.U32Key](p.build.PackageMaxSize)
	var docID uint64
	for {
		if docID%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, 0, err
			}
		}
		content, err := docs.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, 0, err
		}
		if docID > math.MaxUint32 {
			return nil, nil, 0, fmt.Errorf("%w: document count exceeds uint32", errs.ErrInvalidInput)
		}
		if err := store.Insert(packed.U32Key(docID), content); err != nil {
			return nil, nil, 0, fmt.Errorf("packing document %d: %w", docID, err)
		}
		docID++
	}
	if int(docID) != expected {
		return nil, nil, 0, fmt.Errorf("%w: document stream has %d documents, term stream has %d",
			errs.ErrInvalidInput, docID, expected)
	}
	lookup, packages, err := store.Serialise()
	if err != nil {
		return nil, nil, 0, err
	}
	p.metrics.StageDuration.WithLabelValues("documents").Observe(time.Since(start).Seconds())
	p.logger.Info("documents packed",
		"documents", humanize.Comma(int64(docID)),
		"packages", len(packages),
	)
	return lookup, packages, int(docID), nil
}

func (p *Pipeline) recordArtifact(set emit.ArtifactSet) {
	p.metrics.PackagesWritten.WithLabelValues(set.Name).Add(float64(len(set.Packages)))
	var total int64
	for _, pkg := range set.Packages {
		total += int64(len(pkg))
	}
	p.metrics.ArtifactBytes.WithLabelValues(set.Name).Set(float64(total))
	p.metrics.LookupBytes.WithLabelValues(set.Name).Set(float64(len(set.Lookup)))
}

func fracPercent(part, whole int) string {
	if whole == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(whole))
}
