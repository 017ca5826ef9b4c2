package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsConfigurationError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&DirectoryNotFoundError{Path: "img"}, true},
		{&OutputPathError{Path: "out.json", Err: errors.New("denied")}, true},
		{fmt.Errorf("resolve: %w", &ExecutableNotFoundError{Name: "tesseract"}), true},
		{&InvalidConfigError{Field: "psm", Reason: "out of range"}, true},
		{&RecognitionError{Image: "a.png", Reason: ReasonFailed}, false},
		{errors.New("boom"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsConfigurationError(tt.err); got != tt.want {
			t.Errorf("IsConfigurationError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestExecutableNotFoundError_Hint(t *testing.T) {
	err := &ExecutableNotFoundError{Name: "tesseract", Err: errors.New("not in PATH")}
	msg := err.Error()
	if !strings.Contains(msg, "--tesseract-cmd") || !strings.Contains(msg, "TESSERACT_CMD") {
		t.Fatalf("message lacks override hint: %q", msg)
	}
}

func TestRecognitionError_Unwrap(t *testing.T) {
	err := &RecognitionError{Image: "a.png", Reason: ReasonTimeout, Err: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped deadline error")
	}
	if got := err.Error(); got != "a.png: timeout: context deadline exceeded" {
		t.Fatalf("Error() = %q", got)
	}
}
