package trace

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	// Kitchen commands log every transition at info level; keep test output to warnings
	// Set DEBUG_TESTS=1 to see full logs: DEBUG_TESTS=1 go test ./sim/trace/... -v
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}
