// File: internal/webdriver/retrylog.go
package webdriver

import (
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// retryLogger routes retryablehttp's leveled logging into zap. Its chatter is
// demoted one level: a refused connection while a driver boots is expected.
type retryLogger struct {
	sugar *zap.SugaredLogger
}

var _ retryablehttp.LeveledLogger = retryLogger{}

// NewRetryLogger adapts a zap logger for retryablehttp clients.
func NewRetryLogger(logger *zap.Logger) retryablehttp.LeveledLogger {
	return retryLogger{sugar: logger.Named("http_retry").Sugar()}
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}
