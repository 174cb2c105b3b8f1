package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Options selects the level and optional rotating file output.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init builds the process logger from opts. Only the first call has effect.
func Init(opts Options) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(opts)
	})
	return globalLogger
}

// Get returns the process logger, initializing it at the given level if needed.
func Get(level string) *Logger {
	return Init(Options{Level: level})
}
