package testhelper

import (
	"path"
	"time"

	"github.com/jeffrom/logrelay/config"
)

// DefaultTestConfig returns a config with a temporary log file, socket and
// lock file, and short timeouts.
func DefaultTestConfig(verbose bool) *config.Config {
	dir := getTempdir()

	conf := config.New()
	conf.Verbose = verbose
	conf.MaillogFile = path.Join(dir, "maillog")
	conf.Socket = path.Join(dir, "postlog")
	conf.LockFile = path.Join(dir, "logrelayd.lock")
	conf.WatchdogTimeout = 500 * time.Millisecond
	conf.MaxIdle = 0
	conf.MaxRecordSize = 1024 * 2
	conf.ProcessName = "logrelayd-test"
	return conf
}

// FallbackTestConfig returns a test config with no log file, so records are
// forwarded to the system log.
func FallbackTestConfig(verbose bool) *config.Config {
	conf := DefaultTestConfig(verbose)
	conf.MaillogFile = ""
	return conf
}
