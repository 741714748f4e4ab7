// Package testutil provides testing utilities for the tunecore module.
package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyNoLeaks should be deferred at the start of tests that spawn goroutines.
// It verifies that no goroutines were leaked during the test.
func VerifyNoLeaks(t *testing.T, opts ...goleak.Option) {
	t.Helper()
	goleak.VerifyNone(t, opts...)
}

// IgnoreLongLived returns goleak options for goroutines owned by third-party
// resources whose lifetime is the process, not the test: the lumberjack
// rotation worker and database/sql connection openers of still-open pools.
func IgnoreLongLived() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreAnyFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
		goleak.IgnoreAnyFunction("database/sql.(*DB).connectionOpener"),
	}
}
