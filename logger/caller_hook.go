package logger

import (
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

const selfPackage = "heatmapflow/logger"

// callerHook rewrites the entry caller so file:line points at the code that
// logged, not at logrus or the wrappers in this package.
type callerHook struct{}

func (h *callerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *callerHook) Fire(entry *logrus.Entry) error {
	pcs := make([]uintptr, 24)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		fn := frame.Function
		if !strings.Contains(fn, "sirupsen/logrus") && !strings.HasPrefix(fn, selfPackage+".") {
			entry.Caller = &frame
			return nil
		}
		if !more {
			return nil
		}
	}
}
