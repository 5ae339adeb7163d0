// Package testing flips the binary into test mode when imported by tests.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

// TestModeEnv is read by cmd/estate to skip runtime startup.
const TestModeEnv = "ESTATE_TEST_MODE"

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv(TestModeEnv, "1")
	})
}

func init() {
	ensureTestMode()
}

// TestMain can be delegated to by packages that need test mode set before
// any test runs.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
