package cli

import (
	"strings"
	"testing"

	"go-itam/internal/config"
)

func TestRequireSharedCache(t *testing.T) {
	tests := []struct {
		backend string
		wantErr string
	}{
		{"", `"memory" is local`},
		{"memory", `"memory" is local`},
		{"mongo", ""},
	}

	for _, tt := range tests {
		err := requireSharedCache(&config.Config{CacheBackend: tt.backend})
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("backend %q: unexpected error %v", tt.backend, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("backend %q: error = %v, want %q", tt.backend, err, tt.wantErr)
		}
	}
}

func TestInvalidateCommandRequiresReport(t *testing.T) {
	cmd := NewInvalidateCommand()
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "report") {
		t.Errorf("Execute() error = %v, want missing --report", err)
	}
}
