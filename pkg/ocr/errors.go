package ocr

import (
	"errors"
	"fmt"
)

// ConfigurationError marks errors that abort a run before any image is
// processed: a missing image directory, an unwritable output path or an
// OCR executable that cannot be resolved.
type ConfigurationError interface {
	error
	configuration()
}

// IsConfigurationError reports whether err (or anything it wraps) is a
// ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce ConfigurationError
	return errors.As(err, &ce)
}

// DirectoryNotFoundError is returned when the image directory is missing or
// is not a directory.
type DirectoryNotFoundError struct {
	Path string
	Err  error
}

func (e *DirectoryNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("image directory not found: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("image directory not found: %s", e.Path)
}

func (e *DirectoryNotFoundError) Unwrap() error { return e.Err }
func (*DirectoryNotFoundError) configuration()  {}

// OutputPathError is returned when the output file cannot be written.
type OutputPathError struct {
	Path string
	Err  error
}

func (e *OutputPathError) Error() string {
	return fmt.Sprintf("output path not writable: %s: %v", e.Path, e.Err)
}

func (e *OutputPathError) Unwrap() error { return e.Err }
func (*OutputPathError) configuration()  {}

// ExecutableNotFoundError is returned when the OCR executable cannot be
// resolved to a runnable binary.
type ExecutableNotFoundError struct {
	Name string
	Err  error
}

func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("OCR executable %q not found: %v; install tesseract or provide the path via --tesseract-cmd or TESSERACT_CMD", e.Name, e.Err)
}

func (e *ExecutableNotFoundError) Unwrap() error { return e.Err }
func (*ExecutableNotFoundError) configuration()  {}

// InvalidConfigError reports an unusable configuration value.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (*InvalidConfigError) configuration() {}

// ErrNoOutput is returned by engines that ran successfully but produced
// nothing to parse.
var ErrNoOutput = errors.New("engine produced no output")

// Per-item failure reasons.
const (
	ReasonFailed   = "recognition failed"
	ReasonTimeout  = "timeout"
	ReasonNoOutput = "no output"
)

// RecognitionError is a per-image failure. It is recorded in the output
// document and never aborts the batch.
type RecognitionError struct {
	Image  string
	Reason string
	Err    error
}

func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Image, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Image, e.Reason)
}

func (e *RecognitionError) Unwrap() error { return e.Err }
