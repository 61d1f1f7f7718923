package fault

import (
	"fmt"
	"testing"
)

func TestClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		fatal     bool
		retryable bool
		bookmark  bool
	}{
		{"storage", fmt.Errorf("scan: %w", ErrStorageUnavailable), true, true, false},
		{"empty", ErrCatalogEmpty, true, false, false},
		{"stalled", ErrShuffleStalled, true, false, false},
		{"corrupt", fmt.Errorf("parse: %w", ErrBookmarkCorrupt), false, false, true},
		{"stale", ErrBookmarkStale, false, false, true},
		{"open", ErrTrackOpenFailed, false, true, false},
		{"decode", ErrDecode, false, false, false},
		{"nil", nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.fatal {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.fatal)
			}
			if got := Retryable(tt.err); got != tt.retryable {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
			if got := IsRecoverable(tt.err); got != (tt.err != nil && !tt.fatal) {
				t.Errorf("IsRecoverable(%v) = %v", tt.err, got)
			}
			if got := IsBookmarkInvalid(tt.err); got != tt.bookmark {
				t.Errorf("IsBookmarkInvalid(%v) = %v, want %v", tt.err, got, tt.bookmark)
			}
		})
	}
}
