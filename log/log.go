// Package log defines the logger used by chain components.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv enables debug level when set to a true value.
const DebugEnv = "CLIPCHAIN_DEBUG"

var debug bool

// Logger is a global interface for clipchain loggers
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Silent returns logger that discards everything.
func Silent() Logger {
	return silent{}
}

type silent struct{}

func (silent) Debug(args ...interface{}) {}

func (silent) Info(args ...interface{}) {}
