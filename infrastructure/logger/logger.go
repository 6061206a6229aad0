package logger

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// Logger writes leveled messages of one subsystem to a Backend.
type Logger struct {
	lvl       Level // atomic
	tag       string
	b         *Backend
	writeChan chan<- logEntry
}

// Trace formats the message using default formatting and writes it at LevelTrace.
func (l *Logger) Trace(args ...interface{}) { l.Write(LevelTrace, args...) }

// Debug formats the message using default formatting and writes it at LevelDebug.
func (l *Logger) Debug(args ...interface{}) { l.Write(LevelDebug, args...) }

// Info formats the message using default formatting and writes it at LevelInfo.
func (l *Logger) Info(args ...interface{}) { l.Write(LevelInfo, args...) }

// Warn formats the message using default formatting and writes it at LevelWarn.
func (l *Logger) Warn(args ...interface{}) { l.Write(LevelWarn, args...) }

// Error formats the message using default formatting and writes it at LevelError.
func (l *Logger) Error(args ...interface{}) { l.Write(LevelError, args...) }

// Critical formats the message using default formatting and writes it at LevelCritical.
func (l *Logger) Critical(args ...interface{}) { l.Write(LevelCritical, args...) }

// Tracef formats the message according to format and writes it at LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) { l.Writef(LevelTrace, format, args...) }

// Debugf formats the message according to format and writes it at LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) { l.Writef(LevelDebug, format, args...) }

// Infof formats the message according to format and writes it at LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) { l.Writef(LevelInfo, format, args...) }

// Warnf formats the message according to format and writes it at LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) { l.Writef(LevelWarn, format, args...) }

// Errorf formats the message according to format and writes it at LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) { l.Writef(LevelError, format, args...) }

// Criticalf formats the message according to format and writes it at LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.Writef(LevelCritical, format, args...)
}

// Write formats the message using default formatting and writes it at
// logLevel if the logger's level allows it.
func (l *Logger) Write(logLevel Level, args ...interface{}) {
	if l.Level() <= logLevel {
		l.print(logLevel, fmt.Sprint(args...))
	}
}

// Writef formats the message according to format and writes it at
// logLevel if the logger's level allows it.
func (l *Logger) Writef(logLevel Level, format string, args ...interface{}) {
	if l.Level() <= logLevel {
		l.print(logLevel, fmt.Sprintf(format, args...))
	}
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32((*uint32)(&l.lvl)))
}

// SetLevel changes the logging level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32((*uint32)(&l.lvl), uint32(level))
}

// Backend returns the backend this logger writes to.
func (l *Logger) Backend() *Backend {
	return l.b
}

func (l *Logger) print(logLevel Level, message string) {
	if !l.b.IsRunning() {
		return
	}
	now := time.Now()

	var file string
	var line int
	if l.b.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		file, line = callsite(l.b.flag)
	}

	buf := bytes.NewBuffer(make([]byte, 0, normalLogSize))
	writeHeader(buf, now, logLevel.String(), l.tag, file, line)
	buf.WriteString(message)
	if !strings.HasSuffix(message, "\n") {
		buf.WriteByte('\n')
	}
	l.writeChan <- logEntry{log: buf.Bytes(), level: logLevel}
}

const normalLogSize = 512

func writeHeader(buf *bytes.Buffer, t time.Time, level, tag string, file string, line int) {
	buf.WriteString(t.Format("2006-01-02 15:04:05.000"))
	buf.WriteString(" [")
	buf.WriteString(level)
	buf.WriteString("] ")
	buf.WriteString(tag)
	if file != "" {
		buf.WriteByte(' ')
		buf.WriteString(file)
		buf.WriteByte(':')
		fmt.Fprintf(buf, "%d", line)
	}
	buf.WriteString(": ")
}

// calldepth is the call depth of the caller of the exported logging
// methods, relative to callsite.
const calldepth = 4

func callsite(flag uint32) (string, int) {
	_, file, line, ok := runtime.Caller(calldepth)
	if !ok {
		return "???", 0
	}
	if flag&LogFlagShortFile != 0 {
		if slash := strings.LastIndexByte(file, os.PathSeparator); slash >= 0 {
			file = file[slash+1:]
		}
	}
	return file, line
}
