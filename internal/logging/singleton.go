package logging

import (
	"sync"
)

var (
	instance *Logger
	once     sync.Once
)

// InitLogger initializes the global logger instance.
// Subsequent calls are no-ops; the first configuration wins.
func InitLogger(config *LogConfig) error {
	var err error
	once.Do(func() {
		if vErr := config.Validate(); vErr != nil {
			err = vErr
			return
		}
		instance, err = NewLogger(config)
	})
	return err
}

// GetGlobalLogger returns the singleton logger instance.
// It panics if InitLogger has not been called first.
func GetGlobalLogger() *Logger {
	if instance == nil {
		panic("logger not initialized - call logging.InitLogger() first")
	}
	return instance
}
