// Package julog is a small leveled logger matching the fs.Debugf/fs.Infof/
// fs.Logf/fs.Errorf(object, format, args...) calling convention used
// throughout the teacher codebase (backend/local, backend/crypt,
// backend/smb, backend/chunker, backend/kvfs all call functions shaped
// exactly like this). The teacher does not vendor a third-party logging
// library for this - it is first-party - so julog is first-party too.
package julog

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

// Level controls which severities are emitted.
type Level int32

const (
	LevelError Level = iota
	LevelLog
	LevelInfo
	LevelDebug
)

var level int32 = int32(LevelLog)

// SetLevel adjusts the minimum severity that gets written out.
func SetLevel(l Level) {
	atomic.StoreInt32(&level, int32(l))
}

var std = log.New(os.Stderr, "", log.LstdFlags)

func enabled(l Level) bool {
	return int32(l) <= atomic.LoadInt32(&level)
}

func write(l Level, object interface{}, format string, args ...interface{}) {
	if !enabled(l) {
		return
	}
	prefix := ""
	if object != nil {
		prefix = fmt.Sprintf("%v: ", object)
	}
	std.Printf(prefix+format, args...)
}

// Debugf logs at debug severity. object is typically the receiver (an
// *object.Object, *storage.Pool, etc.) and may be nil.
func Debugf(object interface{}, format string, args ...interface{}) {
	write(LevelDebug, object, format, args...)
}

// Infof logs at info severity.
func Infof(object interface{}, format string, args ...interface{}) {
	write(LevelInfo, object, format, args...)
}

// Logf logs at the default (always-on unless silenced) severity.
func Logf(object interface{}, format string, args ...interface{}) {
	write(LevelLog, object, format, args...)
}

// Errorf logs at error severity. Errors are always emitted regardless of
// the configured level.
func Errorf(object interface{}, format string, args ...interface{}) {
	prefix := ""
	if object != nil {
		prefix = fmt.Sprintf("%v: ", object)
	}
	std.Printf(prefix+format, args...)
}
