package logger

import (
	"sync"

	"go.uber.org/zap"
)

// The diagnostic log above is for messages about the user's code. This is the
// operational trace of the tool itself (which modules were converted, cache
// behavior, graph waves) and is silent unless a caller installs a logger.

var (
	zapLogger *zap.Logger
	zapMutex  sync.RWMutex
)

// Zap returns the operational logger. It uses a no-op logger by default.
func Zap() *zap.Logger {
	zapMutex.RLock()
	l := zapLogger
	zapMutex.RUnlock()
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// SetZap replaces the operational logger. Passing nil restores the no-op logger.
func SetZap(l *zap.Logger) {
	zapMutex.Lock()
	zapLogger = l
	zapMutex.Unlock()
}
