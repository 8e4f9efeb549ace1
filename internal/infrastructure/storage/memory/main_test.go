package memory

import (
	"os"
	"testing"

	"posledger/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetDefault(logger.Nop())
	os.Exit(m.Run())
}
