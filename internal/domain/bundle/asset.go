package bundle

import (
	"path"
	"path/filepath"
	"sort"
)

// AssetKind classifies a resolved file the way the packaging tooling does.
type AssetKind string

const (
	// AssetKindBinary marks native shared libraries and executables.
	AssetKindBinary AssetKind = "BINARY"
	// AssetKindData marks plain data files shipped next to the runtime.
	AssetKindData AssetKind = "DATA"
)

// Asset is a single file travelling into the bundle.
type Asset struct {
	// Source is the file location on the build host.
	Source string `json:"source"`
	// Target is the placement path relative to the bundle root,
	// always in slash form. It is the deduplication key.
	Target string `json:"target"`
	// Kind classifies the asset as a native binary or a data file.
	Kind AssetKind `json:"kind,omitempty"`
}

// TargetName returns the bare file name of the asset inside the bundle.
// Exclusion rules match against this name.
func (a Asset) TargetName() string {
	return path.Base(a.Target)
}

// normalized returns a copy with the target path in clean slash form.
func (a Asset) normalized() Asset {
	a.Target = path.Clean(filepath.ToSlash(a.Target))
	return a
}

// LibraryAssets is the resolution result for one declared library:
// the files it needs at runtime and the modules invisible to static
// import analysis.
type LibraryAssets struct {
	// Library is the declared library name this result belongs to.
	Library string `json:"library"`
	// DataFiles are non-binary runtime files.
	DataFiles []Asset `json:"datas"`
	// Binaries are native shared libraries and helper executables.
	Binaries []Asset `json:"binaries"`
	// HiddenImports are module names the runtime must be able to load
	// even though no static import references them.
	HiddenImports []string `json:"hiddenimports"`
}

// ResolvedAssets is the union of every declared library's resolution result.
// Entries are deduplicated by target path so no file is packaged twice.
type ResolvedAssets struct {
	// DataFiles are the merged data files, in declaration order.
	DataFiles []Asset
	// Binaries are the merged native binaries, in declaration order.
	Binaries []Asset
	// HiddenImports are the merged module names, sorted and unique.
	HiddenImports []string
}

// DuplicateTarget records an asset dropped during merging because an earlier
// library already claimed the same bundle path.
type DuplicateTarget struct {
	// Target is the contested placement path.
	Target string
	// Kept is the surviving asset (first declaration wins).
	Kept Asset
	// Dropped is the discarded asset.
	Dropped Asset
}

// Merge unions per-library results into one ResolvedAssets value.
// The union is keyed by target path: the first declaration of a target wins
// and later ones are reported as duplicates. Library order is the declaration
// order of the dependency list, which keeps reruns byte-identical.
func Merge(libraries []LibraryAssets) (*ResolvedAssets, []DuplicateTarget) {
	var (
		merged     = &ResolvedAssets{}
		duplicates []DuplicateTarget
		seen       = map[string]Asset{}
		imports    = map[string]struct{}{}
	)

	appendAssets := func(assets []Asset, into *[]Asset) {
		for _, asset := range assets {
			asset = asset.normalized()

			if kept, found := seen[asset.Target]; found {
				duplicates = append(duplicates, DuplicateTarget{
					Target:  asset.Target,
					Kept:    kept,
					Dropped: asset,
				})

				continue
			}

			seen[asset.Target] = asset
			*into = append(*into, asset)
		}
	}

	for _, lib := range libraries {
		appendAssets(lib.DataFiles, &merged.DataFiles)
		appendAssets(lib.Binaries, &merged.Binaries)

		for _, name := range lib.HiddenImports {
			imports[name] = struct{}{}
		}
	}

	merged.HiddenImports = make([]string, 0, len(imports))
	for name := range imports {
		merged.HiddenImports = append(merged.HiddenImports, name)
	}

	sort.Strings(merged.HiddenImports)

	return merged, duplicates
}

// Clone returns a deep copy so later stages can never mutate the
// resolver's view of the asset set.
func (r *ResolvedAssets) Clone() *ResolvedAssets {
	if r == nil {
		return nil
	}

	return &ResolvedAssets{
		DataFiles:     append([]Asset(nil), r.DataFiles...),
		Binaries:      append([]Asset(nil), r.Binaries...),
		HiddenImports: append([]string(nil), r.HiddenImports...),
	}
}
