package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestConsoleFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("voxelmap")
	logger.AddAppender(NewWriterAppender(&buf))

	logger.Infow("dropped frame", "frame", 3, "reason", "nan")
	line := strings.TrimSuffix(buf.String(), "\n")
	parts := strings.Split(line, "\t")
	test.That(t, len(parts), test.ShouldEqual, 5)
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "voxelmap")
	test.That(t, parts[3], test.ShouldContainSubstring, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "dropped frame")
	// fields are kept in logging order.
	buf.Reset()
	logger.Warnw("msg", "b", 1, "a", 2)
	test.That(t, buf.String(), test.ShouldContainSubstring, `{"b":1,"a":2}`)
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("lvl")
	logger.AddAppender(NewWriterAppender(&buf))
	logger.SetLevel(WARN)

	logger.Debug("hidden")
	logger.Info("hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)
	logger.Warn("shown")
	test.That(t, buf.String(), test.ShouldContainSubstring, "shown")

	buf.Reset()
	logger.CDebugf(context.Background(), "hidden %d", 1)
	test.That(t, buf.Len(), test.ShouldEqual, 0)
	logger.CDebugf(EnableDebugMode(context.Background(), ""), "traced %d", 2)
	test.That(t, buf.String(), test.ShouldContainSubstring, "traced 2")

	lvl, err := LevelFromString("Error")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lvl, test.ShouldEqual, ERROR)
	_, err = LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSublogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("agent")
	logger.AddAppender(NewWriterAppender(&buf))

	sub := logger.Sublogger("navspace")
	sub.Error("boom")
	test.That(t, buf.String(), test.ShouldContainSubstring, "agent.navspace")

	sub.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
}

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Warnw("dropping frame", "reason", "shape")
	test.That(t, logs.FilterMessage("dropping frame").Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].ContextMap()["reason"], test.ShouldEqual, "shape")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("agent")
	logger.AddAppender(NewWriterAppender(&buf))

	episode := logger.WithFields("episode", "e1")
	episode.Infow("reset", "annotations", 2)
	test.That(t, buf.String(), test.ShouldContainSubstring, `{"episode":"e1","annotations":2}`)

	// the tag sticks to subloggers and does not leak into the parent
	buf.Reset()
	episode.Sublogger("voxelmap").Info("fused")
	test.That(t, buf.String(), test.ShouldContainSubstring, "agent.voxelmap")
	test.That(t, buf.String(), test.ShouldContainSubstring, `"episode":"e1"`)
	buf.Reset()
	logger.Info("plain")
	test.That(t, buf.String(), test.ShouldNotContainSubstring, "episode")

	// level changes are shared with the parent
	logger.SetLevel(ERROR)
	buf.Reset()
	episode.Warn("hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	buf.Reset()
	logger.Errorw("odd", "key")
	test.That(t, buf.String(), test.ShouldContainSubstring, "!MISSING VALUE")
}

func TestDebugModeTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("agent")
	logger.AddAppender(NewWriterAppender(&buf))
	logger.SetLevel(INFO)

	ctx := EnableDebugMode(context.Background(), "ep7")
	test.That(t, DebugKey(ctx), test.ShouldEqual, "ep7")
	test.That(t, IsDebugMode(context.Background()), test.ShouldBeFalse)

	logger.CDebugw(ctx, "fused frame", "points", 10)
	test.That(t, buf.String(), test.ShouldContainSubstring, `{"trace":"ep7","points":10}`)
	test.That(t, DebugKey(EnableDebugMode(context.Background(), "")), test.ShouldHaveLength, 8)
}

func TestConstructors(t *testing.T) {
	test.That(t, NewLogger("a").GetLevel(), test.ShouldEqual, INFO)
	test.That(t, NewDebugLogger("a").GetLevel(), test.ShouldEqual, DEBUG)
	test.That(t, NewBlankLogger("a").Sync(), test.ShouldBeNil)
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxelnav.log")
	appender := NewFileAppender(path, 1, 1)
	logger := NewBlankLogger("cli")
	logger.AddAppender(appender)
	logger.Infow("saved map", "voxels", 12)
	test.That(t, appender.Close(), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "saved map")
	test.That(t, string(data), test.ShouldContainSubstring, `{"voxels":12}`)
}
