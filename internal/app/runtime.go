package app

import (
	"os"
	"sync"
)

const testModeEnv = "ROSSI_TEST_MODE"

var inTestMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether the process should skip runtime side effects
// such as connecting to redis or starting the scheduler.
func InTestMode() bool {
	return inTestMode()
}
