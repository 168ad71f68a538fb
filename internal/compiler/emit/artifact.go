// Package emit turns the pipeline's finished artifact sets into durable
// outputs: an atomically written artifact directory with a checksummed
// manifest, an optional KV upload, and the build-completion event consumed
// by downstream deploy hooks.
package emit

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Artifact set names, fixed parts of the wire contract with the query
// runtime.
const (
	PopularTerms = "popular_terms"
	NormalTerms  = "normal_terms"
	Documents    = "documents"
)

// ArtifactSet is one named output: a sequence of size-capped packages plus
// the raw lookup-table blob that locates values inside them.
type ArtifactSet struct {
	Name     string
	Lookup   []byte
	Packages [][]byte
}

// Params are the build limits baked into the query runtime. This compiler
// threads them through without interpreting them.
type Params struct {
	MaxQueryBytes    int    `json:"max_query_bytes"`
	MaxQueryTerms    int    `json:"max_query_terms"`
	MaxQueryResults  int    `json:"max_query_results"`
	DocumentEncoding string `json:"document_encoding"`
}

// Manifest describes a complete artifact directory. It is deterministic:
// identical inputs produce an identical manifest, checksums included.
type Manifest struct {
	FormatVersion int                `json:"format_version"`
	Params        Params             `json:"params"`
	DocumentCount int                `json:"document_count"`
	TermCount     int                `json:"term_count"`
	Artifacts     []ArtifactManifest `json:"artifacts"`
}

// ArtifactManifest records the shape and checksums of one artifact set.
type ArtifactManifest struct {
	Name             string   `json:"name"`
	PackageCount     int      `json:"package_count"`
	PackageBytes     int64    `json:"package_bytes"`
	PackageChecksums []string `json:"package_checksums"`
	LookupBytes      int      `json:"lookup_bytes"`
	LookupChecksum   string   `json:"lookup_checksum"`
}

// ManifestVersion identifies the artifact directory layout.
const ManifestVersion = 1

// checksum returns the xxhash64 of a blob as fixed-width hex.
func checksum(b []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

// describe builds the manifest entry for one artifact set.
func describe(set ArtifactSet) ArtifactManifest {
	m := ArtifactManifest{
		Name:           set.Name,
		PackageCount:   len(set.Packages),
		LookupBytes:    len(set.Lookup),
		LookupChecksum: checksum(set.Lookup),
	}
	for _, pkg := range set.Packages {
		m.PackageBytes += int64(len(pkg))
		m.PackageChecksums = append(m.PackageChecksums, checksum(pkg))
	}
	return m
}
