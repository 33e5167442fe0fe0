package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

// defaults applied when a test binary imports this package and the variable is unset.
var defaults = map[string]string{
	"AUTH_SECRET":  "test-secret-do-not-use-in-production",
	"STORE_DRIVER": "memory",
	"LOG_LEVEL":    "error",
}

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("RPAC_TEST_MODE", "1")
		for key, value := range defaults {
			if os.Getenv(key) == "" {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
