// Package testing flips the binaries into test mode when imported by tests.
package testing

import (
	"os"
	"sync"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("PEJABAT_TEST_MODE", "1")
		if os.Getenv("SESSION_SECRET") == "" {
			_ = os.Setenv("SESSION_SECRET", "test-session-secret")
		}
		if os.Getenv("CSRF_SECRET") == "" {
			_ = os.Setenv("CSRF_SECRET", "test-csrf-secret")
		}
		if os.Getenv("RESET_TOKEN_SECRET") == "" {
			_ = os.Setenv("RESET_TOKEN_SECRET", "test-reset-secret")
		}
	})
}

func init() {
	ensureTestMode()
}
