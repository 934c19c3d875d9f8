// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package obslog wraps go-kit/log into the handful of leveled helpers
// cmd/scal-bench and the analyzer's log parser need: a synchronized logfmt
// writer with a "ts" and "caller" prefix, and "level"-tagged wrappers. It
// does not attempt to be a general logging facade; callers that need
// bound fields use Logger.With.
package obslog

import (
	"io"
	"os"

	kitlog "github.com/go-kit/log"
)

// Logger is a go-kit/log.Logger with level helpers attached.
type Logger struct {
	base kitlog.Logger
}

// New builds a Logger writing logfmt lines to w, stamped with UTC time and
// caller location the way grafana-tempo's server setup does.
func New(w io.Writer) Logger {
	base := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	base = kitlog.With(base, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.DefaultCaller)
	return Logger{base: base}
}

// Default returns a Logger writing to os.Stderr, the destination cmd/
// binaries use for diagnostics so stdout stays reserved for benchmark and
// analyzer result lines.
func Default() Logger {
	return New(os.Stderr)
}

func (l Logger) log(level string, keyvals ...interface{}) {
	kv := make([]interface{}, 0, len(keyvals)+2)
	kv = append(kv, "level", level)
	kv = append(kv, keyvals...)
	_ = l.base.Log(kv...)
}

// Info logs at level=info.
func (l Logger) Info(msg string, keyvals ...interface{}) {
	l.log("info", append([]interface{}{"msg", msg}, keyvals...)...)
}

// Warn logs at level=warn.
func (l Logger) Warn(msg string, keyvals ...interface{}) {
	l.log("warn", append([]interface{}{"msg", msg}, keyvals...)...)
}

// Error logs at level=error.
func (l Logger) Error(msg string, err error, keyvals ...interface{}) {
	l.log("error", append([]interface{}{"msg", msg, "err", err}, keyvals...)...)
}

// With returns a Logger with keyvals bound to every subsequent line.
func (l Logger) With(keyvals ...interface{}) Logger {
	return Logger{base: kitlog.With(l.base, keyvals...)}
}
