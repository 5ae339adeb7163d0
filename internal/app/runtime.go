package app

import (
	"os"
	"sync"
)

const testModeEnv = "ESTATE_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether ESTATE_TEST_MODE=1 was set at first call. The
// binary skips opening connections and listeners in that mode.
func InTestMode() bool {
	return testMode()
}
