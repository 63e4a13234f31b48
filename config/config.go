package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Config holds configuration variables
type Config struct {
	// File is the path of a file from which configuration is read.
	File string `json:"config-file"`

	// Verbose prints debugging information.
	Verbose bool `json:"verbose"`

	// MaillogFile is the file records are appended to. When empty, records
	// are forwarded to the system log instead.
	MaillogFile string `json:"maillog-file"`

	// LogFileMode defines the file permissions used when MaillogFile is
	// created.
	LogFileMode int `json:"log-file-mode"`

	// RecordNewline terminates appended records that don't already end in a
	// newline.
	RecordNewline bool `json:"record-newline"`

	// Socket is the path of the unix datagram socket producers write to.
	Socket string `json:"socket"`

	// LockFile is held for the lifetime of the daemon so that only one
	// instance runs at a time.
	LockFile string `json:"lock-file"`

	// WatchdogTimeout determines how long a single record may take to be
	// processed before the process is terminated.
	WatchdogTimeout time.Duration `json:"watchdog-timeout"`

	// MaxIdle determines how long the daemon waits for a record before
	// exiting. Zero disables idle exit.
	MaxIdle time.Duration `json:"max-idle"`

	// MaxUse is the number of records served before the process exits. Zero
	// means no limit. The relay daemon always overrides this to zero.
	MaxUse int `json:"max-use"`

	// MaxRecordSize is the largest datagram read from the socket.
	MaxRecordSize int `json:"max-record-size"`

	// SyslogName is the identifier used for records sent to the system log.
	SyslogName string `json:"syslog-name"`

	// SyslogFacility is the facility used for records sent to the system
	// log.
	SyslogFacility string `json:"syslog-facility"`

	// FallbackSink selects the system log backend: "syslog" or "journald".
	FallbackSink string `json:"fallback-sink"`

	// ProcessName prefixes the daemon's own diagnostic messages.
	ProcessName string `json:"process-name"`
}

// New returns a new configuration object
func New() *Config {
	conf := &Config{}
	*conf = *Default
	return conf
}

func (c *Config) String() string {
	return fmt.Sprintf("%+v", *c)
}

// Validate returns an error pointing to incorrect values for the
// configuration, if any.
func (c *Config) Validate() error {
	if c.WatchdogTimeout <= 0 {
		return errors.Errorf("watchdog-timeout must be positive, got %s", c.WatchdogTimeout)
	}
	if c.MaxIdle < 0 {
		return errors.Errorf("max-idle must not be negative, got %s", c.MaxIdle)
	}
	if c.MaxUse < 0 {
		return errors.Errorf("max-use must not be negative, got %d", c.MaxUse)
	}
	if c.MaxRecordSize < MinRecordSize {
		return errors.Errorf("max-record-size must be at least %d, got %d", MinRecordSize, c.MaxRecordSize)
	}
	if c.Socket == "" {
		return errors.New("socket must be set")
	}
	switch c.FallbackSink {
	case "syslog", "journald":
	default:
		return errors.Errorf("unknown fallback-sink %q", c.FallbackSink)
	}
	return nil
}

// FileMode returns LogFileMode as an os.FileMode.
func (c *Config) FileMode() os.FileMode {
	return os.FileMode(c.LogFileMode)
}

// MinRecordSize is the smallest allowed MaxRecordSize. It leaves room for
// the daemon's own diagnostic lines, which may travel through the socket.
const MinRecordSize = 1024

// Default is the default application config
var Default = &Config{
	LogFileMode:     0600,
	Socket:          "/var/run/logrelay/postlog",
	LockFile:        "/var/run/logrelay/logrelayd.lock",
	WatchdogTimeout: 10 * time.Second,
	MaxIdle:         100 * time.Second,
	MaxUse:          100,
	MaxRecordSize:   1024 * 64,
	SyslogName:      "postfix",
	SyslogFacility:  "mail",
	FallbackSink:    "syslog",
	ProcessName:     "logrelayd",
}
