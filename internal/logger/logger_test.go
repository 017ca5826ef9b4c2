package logger

import "testing"

func TestNew(t *testing.T) {
	log, err := New("debug")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !log.Core().Enabled(-1) {
		t.Errorf("debug level not enabled")
	}

	if _, err := New("loud"); err == nil {
		t.Errorf("expected error for unknown level")
	}
}
