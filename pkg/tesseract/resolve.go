package tesseract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/gardar/ocrbatch/pkg/ocr"
)

// DefaultCommand is searched on PATH when no explicit command is configured.
const DefaultCommand = "tesseract"

// EnvCommand names the environment variable that overrides the executable.
const EnvCommand = "TESSERACT_CMD"

// Binary is a resolved tesseract executable.
type Binary struct {
	Path    string
	Version string
}

// Resolver turns a configured command into a runnable Binary.
// The zero value uses exec.LookPath and runs "<cmd> --version".
type Resolver struct {
	LookPath func(file string) (string, error)
	Probe    func(ctx context.Context, path string) (string, error)
}

// Resolve applies the fallback order: the configured command (already merged
// from --tesseract-cmd, TESSERACT_CMD and the config file) and then
// DefaultCommand on PATH. The first candidate found is probed; it must run
// successfully to be accepted.
func (r Resolver) Resolve(ctx context.Context, command string) (Binary, error) {
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	probe := r.Probe
	if probe == nil {
		probe = probeVersion
	}

	name := strings.TrimSpace(command)
	if name == "" {
		name = DefaultCommand
	}

	path, err := lookPath(name)
	if err != nil {
		return Binary{}, &ocr.ExecutableNotFoundError{Name: name, Err: err}
	}

	version, err := probe(ctx, path)
	if err != nil {
		return Binary{}, &ocr.ExecutableNotFoundError{Name: name, Err: fmt.Errorf("not runnable: %w", err)}
	}
	return Binary{Path: path, Version: version}, nil
}

func probeVersion(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// tesseract 3.x prints the version on stderr
	out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s", err, firstLine(string(out)))
		}
		return "", err
	}
	return firstLine(string(out)), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
