package collect

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/hashicorp/go-version"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
	"github.com/guohaomeng/pupil/internal/logger"
)

// Options describe one collection run.
type Options struct {
	// OutputDir is the directory the bundle tree is created under.
	OutputDir string
	// OutputName is the bundle directory name.
	OutputName string
	// Executable is the assembled standalone executable.
	Executable *bundle.Executable
	// Binaries are the filtered native binaries, including platform extras.
	Binaries []bundle.Asset
	// DataFiles are the resolved data files.
	DataFiles []bundle.Asset
	// Settings is the platform strip and compress policy.
	Settings bundle.CollectSettings
	// Platform is the target operating system, recorded in the manifest.
	Platform bundle.Platform
	// Version is the application version, recorded in the manifest.
	Version string
}

// Collector places bundle files and applies the post-processing policy.
type Collector struct {
	tools           ToolRunner
	stripCommand    []string
	compressCommand []string
}

// New builds a Collector around the given post-processing runner.
func New(tools ToolRunner, stripCommand, compressCommand []string) *Collector {
	return &Collector{
		tools:           tools,
		stripCommand:    stripCommand,
		compressCommand: compressCommand,
	}
}

// Run builds the bundle tree under <OutputDir>/<OutputName>: the executable
// first, then binaries and data files in sorted target order, finishing with
// the bundle version manifest.
func (c *Collector) Run(ctx context.Context, opts *Options) (*bundle.Collected, error) {
	root := filepath.Join(opts.OutputDir, opts.OutputName)
	reportDowngrade(ctx, root, opts.Version)

	if err := os.MkdirAll(root, bundle.DefaultFileMode); err != nil {
		return nil, fmt.Errorf("create bundle root: %w", err)
	}

	logger.InfoKV(ctx, "Collecting bundle",
		"root", root,
		"binaries", len(opts.Binaries),
		"data_files", len(opts.DataFiles))

	manifest := bundle.NewManifest(opts.Version, opts.Platform)

	executableTarget := opts.Executable.Name
	if err := c.placeFile(ctx, opts.Executable.Path, root, executableTarget, true, opts.Settings, manifest); err != nil {
		return nil, err
	}

	for _, asset := range sortedByTarget(opts.Binaries) {
		if err := c.placeFile(ctx, asset.Source, root, asset.Target, true, opts.Settings, manifest); err != nil {
			return nil, err
		}
	}

	for _, asset := range sortedByTarget(opts.DataFiles) {
		if err := c.placeFile(ctx, asset.Source, root, asset.Target, false, opts.Settings, manifest); err != nil {
			return nil, err
		}
	}

	if err := manifest.Save(root); err != nil {
		return nil, err
	}

	return &bundle.Collected{
		OutputName: opts.OutputName,
		Root:       root,
		Executable: bundle.Executable{
			Name: executableTarget,
			Path: filepath.Join(root, executableTarget),
		},
		Binaries:  append([]bundle.Asset(nil), opts.Binaries...),
		DataFiles: append([]bundle.Asset(nil), opts.DataFiles...),
	}, nil
}

// placeFile copies one file into the tree with checksum validation, applies
// the post-processing policy to native binaries and records the checksum of
// the shipped bytes in the manifest.
func (c *Collector) placeFile(ctx context.Context, source, root, target string, isBinary bool, settings bundle.CollectSettings, manifest *bundle.Manifest) error {
	logger.DebugKV(ctx, "Placing file", "target", target)

	data, err := os.ReadFile(filepath.Clean(source))
	if err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}

	hasher := bundle.DefaultChecksumFunction.New()
	if _, err = hasher.Write(data); err != nil {
		return fmt.Errorf("checksum %s: %w", source, err)
	}

	targetPath := filepath.Join(root, filepath.FromSlash(target))
	if err = os.MkdirAll(filepath.Dir(targetPath), bundle.DefaultFileMode); err != nil {
		return fmt.Errorf("create directory for %s: %w", target, err)
	}

	if _, err = os.Stat(targetPath); err != nil && os.IsNotExist(err) {
		if _, err = os.Create(targetPath); err != nil {
			return fmt.Errorf("create %s: %w", target, err)
		}
	}

	options := goupdate.Options{
		TargetPath: targetPath,
		TargetMode: bundle.DefaultFileMode,
		Checksum:   hasher.Sum(nil),
		Hash:       bundle.DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("place %s: %w", target, err)
	}

	oldTargetPath := targetPath + ".old"
	if _, err = os.Stat(oldTargetPath); err == nil {
		_ = os.Remove(oldTargetPath)
	}

	if isBinary {
		if err = c.postProcess(ctx, targetPath, settings); err != nil {
			return err
		}
	}

	// The manifest records the shipped bytes, after post-processing.
	checksum, err := bundle.FileChecksum(targetPath)
	if err != nil {
		return fmt.Errorf("checksum %s: %w", target, err)
	}

	manifest.Files[target] = base64.StdEncoding.EncodeToString(checksum)

	return nil
}

// reportDowngrade warns when the tree being collected replaces a newer
// bundle. Packaging an older release on purpose is legitimate, so the run
// continues either way; versions that do not parse are skipped.
func reportDowngrade(ctx context.Context, root, current string) {
	previous, err := bundle.LoadManifest(root)
	if err != nil {
		return
	}

	previousVersion, err := version.NewVersion(previous.VersionNumber)
	if err != nil {
		return
	}

	currentVersion, err := version.NewVersion(current)
	if err != nil {
		return
	}

	if currentVersion.LessThan(previousVersion) {
		logger.WarnKV(ctx, "Replacing a newer bundle",
			"current", current,
			"previous", previous.VersionNumber)
	}
}

// postProcess strips and compresses one placed binary per the policy.
func (c *Collector) postProcess(ctx context.Context, targetPath string, settings bundle.CollectSettings) error {
	if settings.StripSymbols {
		if err := c.tools.Run(ctx, c.stripCommand, targetPath); err != nil {
			return fmt.Errorf("strip %s: %w", targetPath, err)
		}
	}

	if settings.CompressBinaries {
		if err := c.tools.Run(ctx, c.compressCommand, targetPath); err != nil {
			return fmt.Errorf("compress %s: %w", targetPath, err)
		}
	}

	return nil
}

// sortedByTarget returns a copy in sorted target order so placement and
// manifest contents are identical across reruns.
func sortedByTarget(assets []bundle.Asset) []bundle.Asset {
	sorted := append([]bundle.Asset(nil), assets...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Target < sorted[j].Target
	})

	return sorted
}
