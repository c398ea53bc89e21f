//go:build !windows
// +build !windows

package qs

import (
	stdlog "log"
	"log/syslog"

	"github.com/op/go-logging"
)

//	SyslogBackend logs prefix at NOTICE and above to the local syslog, and
//	points the standard logger there too so runtime panics are kept.
func SyslogBackend(prefix string) (backend logging.Backend, err error) {
	syslogBackend, err := logging.NewSyslogBackendPriority(prefix, syslog.LOG_NOTICE)
	if err != nil {
		return
	}
	stdlog.SetOutput(syslogBackend.Writer)
	backend = logging.NewBackendFormatter(syslogBackend, syslogFormat)
	return
}
