package transport

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"
)

// leveledLogger routes go-retryablehttp logging into logr
type leveledLogger struct {
	logger logr.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(fmt.Errorf("%s", msg), msg, keysAndValues...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.V(1).Info(msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

var _ retryablehttp.LeveledLogger = (*leveledLogger)(nil)
