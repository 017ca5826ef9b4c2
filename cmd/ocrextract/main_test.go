package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gardar/ocrbatch/internal/testutil"
)

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, ctx context.Context, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(ctx, append([]string{"-log-level", "error"}, args...), &stdout, &stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func setupImages(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteImage(t, dir, "a.png", "HELLO")
	testutil.WriteImage(t, dir, "b_fail.png", "x")
	testutil.WriteImage(t, dir, "notes.txt", "ignored")
	return dir
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return string(data)
}

func assertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s not to exist, stat err = %v", path, err)
	}
}

func TestRun_WritesOutputWithFailures(t *testing.T) {
	fake := testutil.FakeTesseract(t)
	t.Setenv("TESSERACT_CMD", "")
	dir := setupImages(t)
	out := filepath.Join(t.TempDir(), "ocr_output.json")

	res := runCLI(t, context.Background(), "-img-dir", dir, "-output", out, "-tesseract-cmd", fake)
	if res.code != exitOK {
		t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
	}

	want := "{\n  \"a.png\": \"HELLO\",\n  \"b_fail.png\": {\n    \"error\": \"recognition failed\"\n  }\n}\n"
	if got := readOutput(t, out); got != want {
		t.Fatalf("output mismatch\n got: %q\nwant: %q", got, want)
	}
	if !strings.Contains(res.stdout, "Wrote 2 entries (1 failed)") {
		t.Errorf("summary = %q", res.stdout)
	}
}

func TestRun_TesseractCmdPrecedence(t *testing.T) {
	fake := testutil.FakeTesseract(t)
	missing := filepath.Join(t.TempDir(), "no-tesseract")

	t.Run("flag wins over env", func(t *testing.T) {
		t.Setenv("TESSERACT_CMD", missing)
		out := filepath.Join(t.TempDir(), "out.json")
		res := runCLI(t, context.Background(), "-img-dir", setupImages(t), "-output", out, "-tesseract-cmd", fake)
		if res.code != exitOK {
			t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
		}
	})

	t.Run("env used without flag", func(t *testing.T) {
		t.Setenv("TESSERACT_CMD", fake)
		out := filepath.Join(t.TempDir(), "out.json")
		res := runCLI(t, context.Background(), "-img-dir", setupImages(t), "-output", out)
		if res.code != exitOK {
			t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
		}
	})

	t.Run("env wins over config file", func(t *testing.T) {
		t.Setenv("TESSERACT_CMD", fake)
		out := filepath.Join(t.TempDir(), "out.json")
		cfgPath := filepath.Join(t.TempDir(), "config.yml")
		cfg := "img_dir: " + setupImages(t) + "\noutput: " + out + "\ntesseract_cmd: " + missing + "\n"
		if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
			t.Fatal(err)
		}
		res := runCLI(t, context.Background(), "-config", cfgPath)
		if res.code != exitOK {
			t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
		}
		if !strings.Contains(readOutput(t, out), `"a.png": "HELLO"`) {
			t.Errorf("unexpected output")
		}
	})
}

func TestRun_ConfigurationErrors(t *testing.T) {
	fake := testutil.FakeTesseract(t)
	t.Setenv("TESSERACT_CMD", "")

	tests := []struct {
		name string
		args func(dir, out string) []string
	}{
		{"unresolved executable", func(dir, out string) []string {
			return []string{"-img-dir", dir, "-output", out, "-tesseract-cmd", filepath.Join(dir, "nope")}
		}},
		{"missing image directory", func(dir, out string) []string {
			return []string{"-img-dir", filepath.Join(dir, "missing"), "-output", out, "-tesseract-cmd", fake}
		}},
		{"unwritable output", func(dir, out string) []string {
			return []string{"-img-dir", dir, "-output", filepath.Join(dir, "no", "such", "out.json"), "-tesseract-cmd", fake}
		}},
		{"unwritable pdf", func(dir, out string) []string {
			return []string{"-img-dir", dir, "-output", out, "-tesseract-cmd", fake, "-pdf", filepath.Join(dir, "no", "out.pdf")}
		}},
		{"unknown engine", func(dir, out string) []string {
			return []string{"-img-dir", dir, "-output", out, "-engine", "abbyy"}
		}},
		{"documentai without processor", func(dir, out string) []string {
			return []string{"-img-dir", dir, "-output", out, "-engine", "documentai"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupImages(t)
			out := filepath.Join(t.TempDir(), "out.json")
			res := runCLI(t, context.Background(), tt.args(dir, out)...)
			if res.code != exitError {
				t.Fatalf("exit %d, want %d; stderr: %s", res.code, exitError, res.stderr)
			}
			if !strings.Contains(res.stderr, "Configuration error") {
				t.Errorf("stderr = %q", res.stderr)
			}
			assertNoFile(t, out)
		})
	}
}

func TestRun_UsageErrors(t *testing.T) {
	t.Setenv("TESSERACT_CMD", "")
	tests := map[string][]string{
		"no arguments":    nil,
		"unknown flag":    {"-img-dir", "x", "-output", "y", "-bogus"},
		"positional":      {"-img-dir", "x", "-output", "y", "extra"},
		"empty flag":      {"-img-dir", "", "-output", "y"},
		"missing output":  {"-img-dir", "x"},
		"bad flag values": {"-img-dir", "x", "-output", "y", "-timeout", "soon"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			res := runCLI(t, context.Background(), args...)
			if res.code != exitUsage {
				t.Fatalf("exit %d, want %d; stderr: %s", res.code, exitUsage, res.stderr)
			}
		})
	}
}

func TestRun_InterruptWritesNothing(t *testing.T) {
	fake := testutil.FakeTesseract(t)
	dir := t.TempDir()
	testutil.WriteImage(t, dir, "a.png", "HELLO")
	testutil.WriteImage(t, dir, "b_slow.png", "x")
	out := filepath.Join(t.TempDir(), "out.json")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res := runCLI(t, ctx, "-img-dir", dir, "-output", out, "-tesseract-cmd", fake, "-timeout", "0")
	if res.code != exitInterrupted {
		t.Fatalf("exit %d, want %d; stderr: %s", res.code, exitInterrupted, res.stderr)
	}
	assertNoFile(t, out)
}
