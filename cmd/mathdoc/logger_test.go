package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		flags     commonFlags
		wantDebug bool
		wantWarn  bool
	}{
		{"default shows warnings", commonFlags{}, false, true},
		{"verbose shows debug", commonFlags{verbose: true}, true, true},
		{"quiet shows errors only", commonFlags{quiet: true}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := newLogger(&buf, &tt.flags)
			logger.Debug("debug line")
			logger.Warn("warn line")
			logger.Error("error line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "warn line"); got != tt.wantWarn {
				t.Errorf("warn logged = %v, want %v", got, tt.wantWarn)
			}
			if !strings.Contains(out, "error line") {
				t.Error("error not logged")
			}
		})
	}
}
