package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	defer func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	}()

	t.Run("default values", func(t *testing.T) {
		Version, Commit, BuildTime = "dev", "unknown", "unknown"

		result := String()
		if !strings.Contains(result, "dev") || !strings.Contains(result, "built unknown") {
			t.Errorf("String() = %q, unexpected format", result)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		Version, Commit, BuildTime = "1.2.3", "abc1234", "2026-01-15T10:00:00Z"

		expected := "1.2.3 (abc1234) built 2026-01-15T10:00:00Z"
		if result := String(); result != expected {
			t.Errorf("String() = %q, want %q", result, expected)
		}
	})
}

func TestUserAgent(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "0.3.0"
	if got := UserAgent(); got != "ipg-client/0.3.0" {
		t.Errorf("UserAgent() = %q, want %q", got, "ipg-client/0.3.0")
	}
}
