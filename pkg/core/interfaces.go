package core

import (
	"log"
	"os"
)

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// NewDefaultLogger returns a Logger writing to stderr with the program prefix
func NewDefaultLogger() Logger {
	return log.New(os.Stderr, "[qndraytracer] ", log.LstdFlags)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// NopLogger discards everything
var NopLogger Logger = nopLogger{}
