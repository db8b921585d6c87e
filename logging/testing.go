package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

// testAppender writes through tb.Log so output stays with the test that produced it. The
// timestamp is dropped since the test runner orders lines already.
type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender logging through tb.
func NewTestAppender(tb testing.TB) Appender {
	return testAppender{tb: tb}
}

func (a testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	a.tb.Helper()
	line, err := formatEntry(entry, fields)
	if _, rest, ok := strings.Cut(line, "\t"); ok {
		line = rest
	}
	a.tb.Log(line)
	return err
}

func (a testAppender) Sync() error {
	return nil
}
