package testutil

import (
	"os"
	"testing"
)

// MustSetTestEnvironment forces GO_ENV=test for the rest of the process.
// Suites that build their own router call it before touching config.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}
