package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
)

// defaultHookTimeout bounds one report tool invocation when the caller
// configured none.
const defaultHookTimeout = 10 * time.Minute

// errHookCommandEmpty is returned when no report tool command is configured.
var errHookCommandEmpty = errors.New("resolver command is empty")

// HookResolver resolves libraries by running the configured report tool once
// per library with the library name appended as the final argument. The tool
// prints a JSON report on stdout:
//
//	{"datas": [...], "binaries": [...], "hiddenimports": [...]}
//
// where each asset entry carries its build-host source path and its
// bundle-relative target path.
type HookResolver struct {
	command []string
	timeout time.Duration
}

// NewHookResolver builds a HookResolver around the given command line.
func NewHookResolver(command []string, timeout time.Duration) (*HookResolver, error) {
	if len(command) == 0 {
		return nil, errHookCommandEmpty
	}

	if timeout <= 0 {
		timeout = defaultHookTimeout
	}

	return &HookResolver{
		command: append([]string(nil), command...),
		timeout: timeout,
	}, nil
}

// Resolve runs the report tool for one library and decodes its report.
func (h *HookResolver) Resolve(ctx context.Context, library string) (*bundle.LibraryAssets, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	args := append(append([]string(nil), h.command[1:]...), library)
	cmd := exec.CommandContext(cmdCtx, h.command[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("run report tool: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}

		return nil, fmt.Errorf("run report tool: %w", err)
	}

	var assets bundle.LibraryAssets
	if err = json.Unmarshal(output, &assets); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	assets.Library = library
	classifyAssets(&assets)

	return &assets, nil
}

// classifyAssets fills in the asset kind the report tool is allowed to omit:
// entries under "binaries" are native binaries, entries under "datas" are
// data files.
func classifyAssets(assets *bundle.LibraryAssets) {
	for i := range assets.Binaries {
		if assets.Binaries[i].Kind == "" {
			assets.Binaries[i].Kind = bundle.AssetKindBinary
		}
	}

	for i := range assets.DataFiles {
		if assets.DataFiles[i].Kind == "" {
			assets.DataFiles[i].Kind = bundle.AssetKindData
		}
	}
}
