package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
	"github.com/guohaomeng/pupil/internal/logger"
)

// Resolver reports the assets one declared runtime library contributes.
type Resolver interface {
	Resolve(ctx context.Context, library string) (*bundle.LibraryAssets, error)
}

// errEmptyReport is returned when a resolver produces no report at all.
var errEmptyReport = errors.New("resolver returned no report")

// Collect resolves every declared library in order and merges the results
// into one deduplicated asset set. The first failing library aborts the run.
func Collect(ctx context.Context, r Resolver, libraries []string) (*bundle.ResolvedAssets, error) {
	gathered := make([]bundle.LibraryAssets, 0, len(libraries))

	for _, library := range libraries {
		assets, err := r.Resolve(ctx, library)
		if err != nil {
			return nil, fmt.Errorf("resolve library %q: %w", library, err)
		}

		if assets == nil {
			return nil, fmt.Errorf("resolve library %q: %w", library, errEmptyReport)
		}

		if assets.Library == "" {
			assets.Library = library
		}

		logger.DebugKV(ctx, "Library resolved",
			"library", library,
			"binaries", len(assets.Binaries),
			"data_files", len(assets.DataFiles),
			"hidden_imports", len(assets.HiddenImports))

		gathered = append(gathered, *assets)
	}

	merged, duplicates := bundle.Merge(gathered)
	reportDuplicates(ctx, duplicates)

	return merged, nil
}

// reportDuplicates logs target collisions dropped during merging. Differing
// file contents earn a warning, identical copies only a debug line.
func reportDuplicates(ctx context.Context, duplicates []bundle.DuplicateTarget) {
	for _, duplicate := range duplicates {
		keptDigest, keptErr := fileDigest(duplicate.Kept.Source)
		droppedDigest, droppedErr := fileDigest(duplicate.Dropped.Source)

		switch {
		case keptErr != nil || droppedErr != nil:
			logger.WarnKV(ctx, "Duplicate target dropped, contents unverified",
				"target", duplicate.Target,
				"kept", duplicate.Kept.Source,
				"dropped", duplicate.Dropped.Source)
		case keptDigest != droppedDigest:
			logger.WarnKV(ctx, "Duplicate target with differing contents",
				"target", duplicate.Target,
				"kept", duplicate.Kept.Source,
				"kept_digest", fmt.Sprintf("%016x", keptDigest),
				"dropped", duplicate.Dropped.Source,
				"dropped_digest", fmt.Sprintf("%016x", droppedDigest))
		default:
			logger.DebugKV(ctx, "Duplicate target with identical contents dropped",
				"target", duplicate.Target,
				"dropped", duplicate.Dropped.Source)
		}
	}
}

// fileDigest computes the XXHash of a file's content.
func fileDigest(path string) (uint64, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := xxhash.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return 0, fmt.Errorf("hash file: %w", err)
	}

	return hasher.Sum64(), nil
}
