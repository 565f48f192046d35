package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu    sync.RWMutex
	base  *zap.Logger
	sugar *zap.SugaredLogger
	isDev bool
)

func init() {
	base = zap.NewNop()
	sugar = base.Sugar()
}

// Init builds the process logger. Development mode logs at debug level in
// console format, everything else logs JSON at info level.
func Init(environment string) error {
	var (
		l   *zap.Logger
		err error
	)
	dev := environment == "development"
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	Set(l)
	mu.Lock()
	isDev = dev
	mu.Unlock()
	return nil
}

// Set replaces the process logger. Tests use it with zaptest or zap.NewNop.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
}

// L returns the structured logger for callers that want typed fields.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Sync() {
	_ = L().Sync()
}

func s() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Info(format string, v ...interface{}) {
	s().Infof(format, v...)
}

func Error(format string, v ...interface{}) {
	s().Errorf(format, v...)
}

func Debug(format string, v ...interface{}) {
	mu.RLock()
	dev := isDev
	mu.RUnlock()
	if dev {
		s().Debugf(format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	s().Warnf(format, v...)
}
