// Package fallback forwards records to the system log when no log file is
// configured. Sinks are fire-and-forget: delivery errors are never returned
// to the caller.
package fallback

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/jeffrom/logrelay/config"
)

// Severity is a syslog severity level.
type Severity int

// Severities, as defined by RFC 5424.
const (
	SeverityEmerg Severity = iota
	SeverityAlert
	SeverityCrit
	SeverityErr
	SeverityWarning
	SeverityNotice
	SeverityInfo
	SeverityDebug
)

var severityNames = []string{"emerg", "alert", "crit", "err", "warning", "notice", "info", "debug"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// Facility is a syslog facility code.
type Facility int

// Facilities, as defined by RFC 5424.
const (
	FacilityKern Facility = iota
	FacilityUser
	FacilityMail
	FacilityDaemon
	FacilityAuth
	FacilitySyslog
	FacilityLPR
	FacilityNews
	FacilityUUCP
	FacilityCron
	FacilityAuthPriv
	FacilityFTP
)

// FacilityLocal0 is the first of the eight local facilities.
const FacilityLocal0 Facility = 16

var facilityNames = map[string]Facility{
	"kern":     FacilityKern,
	"user":     FacilityUser,
	"mail":     FacilityMail,
	"daemon":   FacilityDaemon,
	"auth":     FacilityAuth,
	"syslog":   FacilitySyslog,
	"lpr":      FacilityLPR,
	"news":     FacilityNews,
	"uucp":     FacilityUUCP,
	"cron":     FacilityCron,
	"authpriv": FacilityAuthPriv,
	"ftp":      FacilityFTP,
	"local0":   FacilityLocal0,
	"local1":   FacilityLocal0 + 1,
	"local2":   FacilityLocal0 + 2,
	"local3":   FacilityLocal0 + 3,
	"local4":   FacilityLocal0 + 4,
	"local5":   FacilityLocal0 + 5,
	"local6":   FacilityLocal0 + 6,
	"local7":   FacilityLocal0 + 7,
}

// ParseFacility returns the facility for a name such as "mail" or "local3".
func ParseFacility(name string) (Facility, error) {
	f, ok := facilityNames[strings.TrimPrefix(strings.ToLower(name), "log_")]
	if !ok {
		return 0, errors.Errorf("unknown syslog facility %q", name)
	}
	return f, nil
}

// Sink is the system log. Emit never fails from the caller's point of view.
type Sink interface {
	Emit(sev Severity, fac Facility, p []byte)
	Close() error
}

// New returns the sink selected by conf.FallbackSink.
func New(conf *config.Config) (Sink, error) {
	switch conf.FallbackSink {
	case "", "syslog":
		return NewSyslog(conf), nil
	case "journald":
		return NewJournald(conf), nil
	default:
		return nil, errors.Errorf("unknown fallback sink %q", conf.FallbackSink)
	}
}
