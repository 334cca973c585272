package appversion

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/guohaomeng/pupil/internal/logger"
)

// describeTimeout bounds the repository description command.
const describeTimeout = 30 * time.Second

// errEmptyDescription is returned when the repository reports no usable
// description.
var errEmptyDescription = errors.New("repository description is empty")

// Detect returns the application version for this packaging run: the
// override when set, otherwise the description of the source repository.
// A bundle without a version is not produced.
func Detect(ctx context.Context, override, sourceDir string) (string, error) {
	if override != "" {
		logger.DebugKV(ctx, "Using configured version", "version", override)
		return override, nil
	}

	cmdCtx, cancel := context.WithTimeout(ctx, describeTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "git", "describe", "--tags", "--long", "--always")
	cmd.Dir = sourceDir

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("describe repository %s: %w", sourceDir, err)
	}

	version := strings.TrimSpace(string(output))
	if version == "" {
		return "", fmt.Errorf("describe repository %s: %w", sourceDir, errEmptyDescription)
	}

	logger.DebugKV(ctx, "Detected version from repository",
		"source", sourceDir,
		"version", version)

	return version, nil
}
