package qs

import (
	"errors"

	"github.com/op/go-logging"
)

var ErrNoSyslog = errors.New("syslog unavailable on windows")

func SyslogBackend(prefix string) (logging.Backend, error) {
	return nil, ErrNoSyslog
}
