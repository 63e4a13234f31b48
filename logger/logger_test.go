package logger

import (
	"os"
	"testing"

	"github.com/jeffrom/logrelay/testhelper"
)

func TestMain(m *testing.M) {
	res := m.Run()
	if res == 0 {
		if err := testhelper.CleanupSuite(); err != nil {
			panic(err)
		}
	}
	os.Exit(res)
}
