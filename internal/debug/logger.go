// Package debug builds the process-wide logger for CLI commands.
package debug

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init configures the logger. With verbose set it logs at debug level to
// stderr; otherwise everything is discarded.
func Init(verbose bool) error {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		logger = zap.NewNop()
		return nil
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// Logger returns the configured logger.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
