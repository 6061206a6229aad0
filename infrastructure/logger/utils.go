package logger

import (
	"time"
)

// LogAndMeasureExecutionTime logs "<functionName> start" at debug level and
// returns a function that logs how long the call took. Use with defer.
func LogAndMeasureExecutionTime(log *Logger, functionName string) (onEnd func()) {
	start := time.Now()
	log.Debugf("%s start", functionName)
	return func() {
		log.Debugf("%s end. Took: %s", functionName, time.Since(start))
	}
}
