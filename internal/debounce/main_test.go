package debounce

import (
	"testing"

	"go.uber.org/goleak"
)

// Fired and cancelled timers must not leave goroutines behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
