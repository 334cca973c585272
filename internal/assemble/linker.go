package assemble

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/guohaomeng/pupil/internal/domain/bundle"
)

// defaultLinkTimeout bounds one build tool invocation when the caller
// configured none.
const defaultLinkTimeout = 30 * time.Minute

var (
	// errLinkerCommandEmpty is returned when no build tool is configured.
	errLinkerCommandEmpty = errors.New("linker command is empty")
	// errLinkerNoOutput is returned when the build tool reports no
	// executable path.
	errLinkerNoOutput = errors.New("linker reported no executable")
)

// CommandLinker drives the external build tool. The link plan is streamed to
// the tool as JSON on stdin; the tool prints the path of the produced
// executable on stdout.
type CommandLinker struct {
	command []string
	timeout time.Duration
}

// linkPlan mirrors the JSON document the build tool consumes.
type linkPlan struct {
	EntryPoint    string   `json:"entry_point"`
	SearchPaths   []string `json:"search_paths"`
	Name          string   `json:"name"`
	Icon          string   `json:"icon,omitempty"`
	Console       bool     `json:"console"`
	HiddenImports []string `json:"hiddenimports"`
	BuildDir      string   `json:"build_dir"`
}

// NewCommandLinker builds a CommandLinker around the given command line.
func NewCommandLinker(command []string, timeout time.Duration) (*CommandLinker, error) {
	if len(command) == 0 {
		return nil, errLinkerCommandEmpty
	}

	if timeout <= 0 {
		timeout = defaultLinkTimeout
	}

	return &CommandLinker{
		command: append([]string(nil), command...),
		timeout: timeout,
	}, nil
}

// Link runs the build tool over the artifact spec and locates its output.
func (l *CommandLinker) Link(ctx context.Context, spec bundle.ArtifactSpec, assets *bundle.ResolvedAssets, buildDir string) (*bundle.Executable, error) {
	plan := linkPlan{
		EntryPoint:  spec.EntryPoint,
		SearchPaths: spec.SearchPaths,
		Name:        spec.Name,
		Icon:        spec.Icon,
		Console:     spec.Console,
		BuildDir:    buildDir,
	}

	if assets != nil {
		plan.HiddenImports = assets.HiddenImports
	}

	payload, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encode link plan: %w", err)
	}

	cmdCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, l.command[0], l.command[1:]...)
	cmd.Stdin = bytes.NewReader(payload)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("run build tool: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}

		return nil, fmt.Errorf("run build tool: %w", err)
	}

	executablePath := strings.TrimSpace(string(output))
	if executablePath == "" {
		return nil, errLinkerNoOutput
	}

	if _, err = os.Stat(executablePath); err != nil {
		return nil, fmt.Errorf("locate linked executable: %w", err)
	}

	return &bundle.Executable{
		Name: filepath.Base(executablePath),
		Path: executablePath,
	}, nil
}
