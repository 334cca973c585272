package signing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// defaultSignTimeout bounds one signing tool invocation when the caller
// configured none.
const defaultSignTimeout = 5 * time.Minute

var (
	// errSignerCommandEmpty is returned when no signing tool is configured.
	errSignerCommandEmpty = errors.New("signer command is empty")
	// errIdentityEmpty is returned when signing is requested without an identity.
	errIdentityEmpty = errors.New("signing identity is empty")
)

// Signer signs the file or bundle at path under the given identity.
type Signer interface {
	Sign(ctx context.Context, path, identity, entitlements string) error
}

// CommandSigner shells out to the platform signing tool, codesign on macOS.
type CommandSigner struct {
	command []string
	timeout time.Duration
}

// NewCommandSigner builds a CommandSigner around the given command line.
func NewCommandSigner(command []string, timeout time.Duration) (*CommandSigner, error) {
	if len(command) == 0 {
		return nil, errSignerCommandEmpty
	}

	if timeout <= 0 {
		timeout = defaultSignTimeout
	}

	return &CommandSigner{
		command: append([]string(nil), command...),
		timeout: timeout,
	}, nil
}

// Sign invokes the signing tool over the artifact. Entitlements are optional;
// when present the hardened runtime is requested alongside them.
func (s *CommandSigner) Sign(ctx context.Context, path, identity, entitlements string) error {
	if identity == "" {
		return errIdentityEmpty
	}

	cmdCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append([]string(nil), s.command[1:]...)
	args = append(args, "--force", "--deep", "--sign", identity)

	if entitlements != "" {
		args = append(args, "--options", "runtime", "--entitlements", entitlements)
	}

	args = append(args, path)

	cmd := exec.CommandContext(cmdCtx, s.command[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("sign %s: %w: %s", path, err, bytes.TrimSpace(stderr.Bytes()))
		}

		return fmt.Errorf("sign %s: %w", path, err)
	}

	return nil
}
