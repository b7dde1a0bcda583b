package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// tbAppender prints entries through testing.TB.Log so parallel tests get their own lines.
type tbAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender writing to tb in the console line format.
func NewTestAppender(tb testing.TB) Appender {
	return tbAppender{tb: tb}
}

func (a tbAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	a.tb.Helper()
	line, err := formatEntry(entry, fields)
	a.tb.Log(line)
	return err
}

func (a tbAppender) Sync() error {
	return nil
}
