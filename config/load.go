package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to configuration keys when they are read from the
// environment, ie LOGRELAY_MAILLOG_FILE.
const EnvPrefix = "logrelay"

// RegisterFlags adds the server configuration flags to fs, using dconf for
// default values.
func RegisterFlags(fs *pflag.FlagSet, dconf *Config) {
	fs.StringP("config-file", "c", dconf.File,
		"Load configuration from `FILE`")
	fs.BoolP("verbose", "v", dconf.Verbose,
		"print debug output")
	fs.String("maillog-file", dconf.MaillogFile,
		"append records to `FILE` instead of the system log")
	fs.Int("log-file-mode", dconf.LogFileMode,
		"integer representation of the mode used to create the log file")
	fs.Bool("record-newline", dconf.RecordNewline,
		"terminate appended records that lack a trailing newline")
	fs.String("socket", dconf.Socket,
		"unix datagram socket `PATH` producers write records to")
	fs.String("lock-file", dconf.LockFile,
		"lock file `PATH` held while the daemon runs")
	fs.Duration("watchdog-timeout", dconf.WatchdogTimeout,
		"maximum time to process a single record before the process is killed")
	fs.Duration("max-idle", dconf.MaxIdle,
		"exit after waiting this long for a record (0 waits forever)")
	fs.Int("max-use", dconf.MaxUse,
		"exit after serving this many records (always disabled by logrelayd)")
	fs.Int("max-record-size", dconf.MaxRecordSize,
		"largest record, in bytes, read from the socket")
	fs.String("syslog-name", dconf.SyslogName,
		"identifier used for records sent to the system log")
	fs.String("syslog-facility", dconf.SyslogFacility,
		"`FACILITY` used for records sent to the system log")
	fs.String("fallback-sink", dconf.FallbackSink,
		"system log backend used when no log file is set: syslog or journald")
	fs.String("process-name", dconf.ProcessName,
		"`NAME` prefixed to the daemon's own diagnostics")
}

// Load reads configuration from, in increasing order of precedence, dconf,
// the configuration file, the environment and the flags in fs. The returned
// config has been validated.
func Load(fs *pflag.FlagSet, dconf *Config) (*Config, error) {
	v := viper.New()
	setDefaults(v, dconf)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, errors.Wrap(err, "failed to bind flags")
		}
	}

	if file := v.GetString("config-file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", file)
		}
	}

	conf := fromViper(v)
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return conf, nil
}

func setDefaults(v *viper.Viper, dconf *Config) {
	v.SetDefault("config-file", dconf.File)
	v.SetDefault("verbose", dconf.Verbose)
	v.SetDefault("maillog-file", dconf.MaillogFile)
	v.SetDefault("log-file-mode", dconf.LogFileMode)
	v.SetDefault("record-newline", dconf.RecordNewline)
	v.SetDefault("socket", dconf.Socket)
	v.SetDefault("lock-file", dconf.LockFile)
	v.SetDefault("watchdog-timeout", dconf.WatchdogTimeout)
	v.SetDefault("max-idle", dconf.MaxIdle)
	v.SetDefault("max-use", dconf.MaxUse)
	v.SetDefault("max-record-size", dconf.MaxRecordSize)
	v.SetDefault("syslog-name", dconf.SyslogName)
	v.SetDefault("syslog-facility", dconf.SyslogFacility)
	v.SetDefault("fallback-sink", dconf.FallbackSink)
	v.SetDefault("process-name", dconf.ProcessName)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		File:            v.GetString("config-file"),
		Verbose:         v.GetBool("verbose"),
		MaillogFile:     v.GetString("maillog-file"),
		LogFileMode:     v.GetInt("log-file-mode"),
		RecordNewline:   v.GetBool("record-newline"),
		Socket:          v.GetString("socket"),
		LockFile:        v.GetString("lock-file"),
		WatchdogTimeout: v.GetDuration("watchdog-timeout"),
		MaxIdle:         v.GetDuration("max-idle"),
		MaxUse:          v.GetInt("max-use"),
		MaxRecordSize:   v.GetInt("max-record-size"),
		SyslogName:      v.GetString("syslog-name"),
		SyslogFacility:  v.GetString("syslog-facility"),
		FallbackSink:    v.GetString("fallback-sink"),
		ProcessName:     v.GetString("process-name"),
	}
}
