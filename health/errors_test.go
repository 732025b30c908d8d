package health

import (
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	for _, err := range []error{ErrCheckFailed, ErrCheckTimeout, ErrCheckerNotFound, ErrNoChecks} {
		if !strings.HasPrefix(err.Error(), "health: ") {
			t.Errorf("%q lacks the package prefix", err)
		}
	}
}
