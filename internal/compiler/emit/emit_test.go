package emit

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func testSets() []ArtifactSet {
	return []ArtifactSet{
		{Name: PopularTerms, Lookup: []byte{1, 0, 0, 0}, Packages: [][]byte{[]byte("pop-pkg-0")}},
		{Name: NormalTerms, Lookup: []byte{0, 0, 0, 0, 8, 0, 0, 0}, Packages: nil},
		{Name: Documents, Lookup: []byte{2, 0, 0, 0}, Packages: [][]byte{[]byte("doc-a"), []byte("doc-b")}},
	}
}

func testParams() Params {
	return Params{
		MaxQueryBytes:    512,
		MaxQueryTerms:    32,
		MaxQueryResults:  100,
		DocumentEncoding: "text",
	}
}

func TestDirWriterLaysOutArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist")
	manifest, err := NewDirWriter(dir).Write(testSets(), testParams(), 2, 3)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	wantFiles := []string{
		"popular_terms_0.bin",
		"popular_terms_lookup.bin",
		"normal_terms_lookup.bin",
		"documents_0.bin",
		"documents_1.bin",
		"documents_lookup.bin",
		"manifest.json",
	}
	for _, name := range wantFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(dir + ".tmp"); !os.IsNotExist(err) {
		t.Error("staging directory left behind")
	}

	got, err := os.ReadFile(filepath.Join(dir, "documents_1.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("doc-b")) {
		t.Errorf("documents_1.bin = %q, want doc-b", got)
	}

	if manifest.FormatVersion != ManifestVersion {
		t.Errorf("FormatVersion = %d", manifest.FormatVersion)
	}
	if manifest.DocumentCount != 2 || manifest.TermCount != 3 {
		t.Errorf("counts = %d/%d, want 2/3", manifest.DocumentCount, manifest.TermCount)
	}
}

func TestDirWriterManifestMatchesDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist")
	written, err := NewDirWriter(dir).Write(testSets(), testParams(), 2, 3)
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatal(err)
	}
	var loaded Manifest
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("manifest.json does not parse: %v", err)
	}
	if loaded.FormatVersion != written.FormatVersion {
		t.Errorf("round-tripped FormatVersion = %d", loaded.FormatVersion)
	}
	if len(loaded.Artifacts) != 3 {
		t.Fatalf("manifest lists %d artifacts, want 3", len(loaded.Artifacts))
	}
	for _, a := range loaded.Artifacts {
		lookup, err := os.ReadFile(filepath.Join(dir, a.Name+"_lookup.bin"))
		if err != nil {
			t.Fatal(err)
		}
		if got := checksum(lookup); got != a.LookupChecksum {
			t.Errorf("%s lookup checksum %s, manifest says %s", a.Name, got, a.LookupChecksum)
		}
		if len(lookup) != a.LookupBytes {
			t.Errorf("%s lookup is %d bytes, manifest says %d", a.Name, len(lookup), a.LookupBytes)
		}
		if len(a.PackageChecksums) != a.PackageCount {
			t.Errorf("%s has %d checksums for %d packages", a.Name, len(a.PackageChecksums), a.PackageCount)
		}
	}
}

func TestDirWriterReplacesPreviousOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, "popular_terms_7.bin")
	if err := os.WriteFile(stale, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewDirWriter(dir).Write(testSets(), testParams(), 2, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale package from a previous build survived the swap")
	}
}

func TestChecksumIsStableHex(t *testing.T) {
	a := checksum([]byte("payload"))
	b := checksum([]byte("payload"))
	if a != b {
		t.Fatalf("checksum not deterministic: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("checksum %q is not fixed-width hex", a)
	}
	if a == checksum([]byte("payloae")) {
		t.Error("distinct blobs share a checksum")
	}
}
