package bundler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/guohaomeng/pupil/internal/logger"
)

const (
	// MarkerFilename marks that a bundler run is in flight against this
	// output directory to avoid parallel execution.
	MarkerFilename = "pupil-bundler-marker.bin"

	// markerLifetime is the period after which a stale bundle marker is
	// ignored. Linking large dependency sets is slow, so the window is wide.
	markerLifetime = time.Hour

	// baseBundlerExecutable is the bundler binary name without extension.
	baseBundlerExecutable = "pupil-bundler"
)

// IsBundlerRunningNow checks presence of a marker file in the output
// directory and attempts recovery if it looks stale.
func IsBundlerRunningNow(ctx context.Context, outputDir string) bool {
	logger.Info(ctx, "Checking for the presence of a bundle marker")

	markerPath := filepath.Join(outputDir, MarkerFilename)

	fileInfo, err := os.Stat(markerPath)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The bundle marker is too old, attempting cleanup")

		if err = terminateProcessByName(bundlerExecutable()); err != nil {
			return true
		}

		if err = os.Remove(markerPath); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Bundle marker not found, continuing")
		return false
	}

	logger.Infof(ctx, "Unable to read bundle marker: %v", err)

	return false
}

// terminateProcessByName tries to kill processes with the provided executable name.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != processName {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}

// bundlerExecutable returns the bundler binary name on the build host.
func bundlerExecutable() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return baseBundlerExecutable + ".exe"
	}

	return baseBundlerExecutable
}
