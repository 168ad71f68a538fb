package emit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	errs "github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/errors"
)

// DirWriter writes artifact sets to an output directory: one
// `<name>_<i>.bin` file per package, one `<name>_lookup.bin` per set, and a
// `manifest.json`. Everything is staged in a sibling .tmp directory and
// renamed into place at the end, so a failed build never leaves a partial
// directory that could be mistaken for a complete index.
type DirWriter struct {
	dir    string
	logger *slog.Logger
}

func NewDirWriter(dir string) *DirWriter {
	return &DirWriter{
		dir:    dir,
		logger: slog.Default().With("component", "emit-dir"),
	}
}

// Write stages every blob, fsyncs nothing individually (the rename is the
// commit point), and swaps the staged directory in. It returns the manifest
// it wrote.
func (w *DirWriter) Write(sets []ArtifactSet, params Params, documentCount, termCount int) (*Manifest, error) {
	manifest := &Manifest{
		FormatVersion: ManifestVersion,
		Params:        params,
		DocumentCount: documentCount,
		TermCount:     termCount,
	}
	for _, set := range sets {
		manifest.Artifacts = append(manifest.Artifacts, describe(set))
	}

	staging := w.dir + ".tmp"
	if err := os.RemoveAll(staging); err != nil {
		return nil, errs.Newf(errs.ErrPublishFailed, "emit", "clearing staging directory: %v", err)
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return nil, errs.Newf(errs.ErrPublishFailed, "emit", "creating staging directory: %v", err)
	}

	for _, set := range sets {
		for i, pkg := range set.Packages {
			name := fmt.Sprintf("%s_%d.bin", set.Name, i)
			if err := os.WriteFile(filepath.Join(staging, name), pkg, 0644); err != nil {
				return nil, errs.Newf(errs.ErrPublishFailed, "emit", "writing %s: %v", name, err)
			}
		}
		name := set.Name + "_lookup.bin"
		if err := os.WriteFile(filepath.Join(staging, name), set.Lookup, 0644); err != nil {
			return nil, errs.Newf(errs.ErrPublishFailed, "emit", "writing %s: %v", name, err)
		}
		w.logger.Info("artifact set staged",
			"artifact", set.Name,
			"packages", len(set.Packages),
			"lookup_bytes", len(set.Lookup),
		)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, errs.Newf(errs.ErrPublishFailed, "emit", "marshaling manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staging, "manifest.json"), data, 0644); err != nil {
		return nil, errs.Newf(errs.ErrPublishFailed, "emit", "writing manifest: %v", err)
	}

	if err := os.RemoveAll(w.dir); err != nil {
		return nil, errs.Newf(errs.ErrPublishFailed, "emit", "removing previous output: %v", err)
	}
	if err := os.Rename(staging, w.dir); err != nil {
		return nil, errs.Newf(errs.ErrPublishFailed, "emit", "committing output directory: %v", err)
	}
	w.logger.Info("artifact directory committed", "dir", w.dir)
	return manifest, nil
}
