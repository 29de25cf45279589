// Package version checks that the container orchestrator CLI is installed
// and recent enough before any scenario touches the stack.
package version

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// MinimumCompose is the oldest Compose release that understands the
// `docker compose stop <service>` form.
const MinimumCompose = "2.0"

// Info captures a tool version installed on the system.
type Info struct {
	Name    string
	Version string
}

var composeRegex = regexp.MustCompile(`(?i)v?(\d+\.\d+(?:\.\d+)?)`)

// runCommand is swapped out in tests.
var runCommand = func(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// DetectCompose runs `<command> version --short`, where command is the
// orchestrator prefix such as "docker compose" or "docker-compose".
func DetectCompose(ctx context.Context, command string) (Info, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return Info{}, errors.New("compose command is empty")
	}
	args := append(fields[1:len(fields):len(fields)], "version", "--short")
	out, err := runCommand(ctx, fields[0], args...)
	if err != nil {
		return Info{}, err
	}
	match := composeRegex.FindStringSubmatch(out)
	if len(match) < 2 {
		return Info{}, fmt.Errorf("unable to parse compose version from %q", out)
	}
	return Info{Name: command, Version: match[1]}, nil
}

// AtLeast reports whether the major.minor portion of actual is not older
// than minimum. Unparseable versions never satisfy the check.
func AtLeast(minimum, actual string) bool {
	wantMajor, wantMinor, ok := majorMinor(minimum)
	if !ok {
		return false
	}
	gotMajor, gotMinor, ok := majorMinor(actual)
	if !ok {
		return false
	}
	if gotMajor != wantMajor {
		return gotMajor > wantMajor
	}
	return gotMinor >= wantMinor
}

func majorMinor(version string) (int, int, bool) {
	prefix := semverPrefix(strings.TrimPrefix(version, "v"))
	if prefix == "" {
		return 0, 0, false
	}
	major, minor, _ := strings.Cut(prefix, ".")
	ma, err := strconv.Atoi(major)
	if err != nil {
		return 0, 0, false
	}
	mi, err := strconv.Atoi(minor)
	if err != nil {
		return 0, 0, false
	}
	return ma, mi, true
}

func semverPrefix(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return ""
	}
	return fmt.Sprintf("%s.%s", parts[0], parts[1])
}

// Missing reports whether executing the command returns a not-found error.
func Missing(cmdErr error) bool {
	return errors.Is(cmdErr, exec.ErrNotFound)
}
