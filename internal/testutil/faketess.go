// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeTesseract mimics the tesseract CLI closely enough for end-to-end
// tests. The "recognized" text of an image is the content of the file.
// Images whose name contains "fail" exit 1, "empty" print nothing and
// "slow" block.
const fakeTesseract = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "tesseract 5.3.0-fake"
  exit 0
fi
img="$1"
case "$(basename "$img")" in
  *fail*) echo "Error in pixReadStream: Unknown format" >&2; exit 1 ;;
  *empty*) exit 0 ;;
  *slow*) exec sleep 30 ;;
esac
prev=""
for a in "$@"; do
  if [ "$prev" = "--psm" ] && [ "$a" = "0" ]; then
    printf 'Page number: 0\nOrientation in degrees: 270\nRotate: 90\nOrientation confidence: 2.10\n'
    exit 0
  fi
  prev="$a"
done
text=$(cat "$img")
printf '<html><head><meta http-equiv="Content-Type" content="text/html;charset=utf-8"/></head><body>'
printf "<div class='ocr_page' title='bbox 0 0 100 40'><p class='ocr_par'><span class='ocr_line' title='bbox 10 10 90 30'>"
printf "<span class='ocrx_word' title='bbox 10 10 90 30; x_wconf 93'>%s</span>" "$text"
printf '</span></p></div></body></html>\n'
`

// FakeTesseract writes the fake tesseract script into a temp dir and
// returns its path. Tests are skipped where /bin/sh is unavailable.
func FakeTesseract(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tesseract needs /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "tesseract")
	if err := os.WriteFile(path, []byte(fakeTesseract), 0o755); err != nil {
		t.Fatalf("failed to write fake tesseract: %v", err)
	}
	return path
}

// WriteImage creates dir/name with content as the text the fake engine
// will recognize.
func WriteImage(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}
