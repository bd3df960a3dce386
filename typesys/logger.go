package typesys

import (
	"sync"

	"go.uber.org/zap"
)

var (
	loggerMu sync.RWMutex
	logger   = zap.NewNop()
)

// Logger returns the package logger. It is a no-op logger until SetLogger
// installs a real one.
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetLogger installs log as the package logger. Resolvers created after
// this call pick it up; existing resolvers keep the logger they were built
// with unless updated via Resolver.SetLogger.
func SetLogger(log *zap.Logger) {
	if log == nil {
		return
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = log
}
