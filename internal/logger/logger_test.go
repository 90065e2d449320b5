package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjsesm/cjsesm/internal/logger"
)

func TestMsgStringIncludesLineAndMarker(t *testing.T) {
	source := logger.Source{PrettyPath: "lib/foo.js", Contents: "var a = 1;\nvar b = ;\n"}
	log := logger.NewDeferLog()
	log.AddRangeError(&source, logger.Range{Loc: logger.Loc{Start: 19}, Len: 1}, "Unexpected \";\"")

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.True(t, log.HasErrors())

	text := msgs[0].String(logger.StderrOptions{IncludeSource: true}, logger.TerminalInfo{})
	assert.Equal(t, "lib/foo.js:2:8: error: Unexpected \";\"\nvar b = ;\n        ^\n", text)
}

func TestMsgStringWithoutLocation(t *testing.T) {
	msg := logger.Msg{Kind: logger.Warning, Text: "something odd"}
	assert.Equal(t, "warning: something odd\n", msg.String(logger.StderrOptions{}, logger.TerminalInfo{}))
}

func TestDeferLogSortsByLocation(t *testing.T) {
	source := logger.Source{PrettyPath: "a.js", Contents: "one\ntwo\nthree\n"}
	log := logger.NewDeferLog()
	log.AddWarning(&source, logger.Loc{Start: 8}, "third line")
	log.AddWarning(&source, logger.Loc{Start: 0}, "first line")
	log.AddWarning(nil, logger.Loc{}, "no location")

	var texts []string
	for _, msg := range log.Done() {
		texts = append(texts, msg.Text)
	}
	assert.Equal(t, []string{"no location", "first line", "third line"}, texts)
	assert.False(t, log.HasErrors())
}

func TestLocationUsesOneBasedLines(t *testing.T) {
	source := logger.Source{PrettyPath: "x.js", Contents: "a\r\nb\nc"}
	loc := logger.LocationOrNil(&source, logger.Range{Loc: logger.Loc{Start: 5}})
	require.NotNil(t, loc)
	assert.Equal(t, 3, loc.Line)
	assert.Equal(t, 0, loc.Column)
	assert.Equal(t, "c", loc.LineText)
}

func TestParseLogLevel(t *testing.T) {
	for text, expected := range map[string]logger.LogLevel{
		"info":    logger.LevelInfo,
		"WARNING": logger.LevelWarning,
		" error ": logger.LevelError,
		"silent":  logger.LevelSilent,
	} {
		level, ok := logger.ParseLogLevel(text)
		assert.True(t, ok, text)
		assert.Equal(t, expected, level, text)
	}
	_, ok := logger.ParseLogLevel("verbose-ish")
	assert.False(t, ok)
}

func TestMsgStringExpandsTabs(t *testing.T) {
	source := logger.Source{PrettyPath: "f.js", Contents: "\tx = ;\n"}
	loc := logger.LocationOrNil(&source, logger.Range{Loc: logger.Loc{Start: 5}, Len: 1})
	msg := logger.Msg{Kind: logger.Error, Text: "bad", Location: loc}
	assert.Equal(t, "f.js:1:5: error: bad\n  x = ;\n      ^\n",
		msg.String(logger.StderrOptions{IncludeSource: true}, logger.TerminalInfo{}))
}

func TestMsgStringMarksLongRanges(t *testing.T) {
	source := logger.Source{PrettyPath: "f.js", Contents: "foo(bar);"}
	loc := logger.LocationOrNil(&source, logger.Range{Loc: logger.Loc{Start: 4}, Len: 3})
	msg := logger.Msg{Kind: logger.Warning, Text: "odd", Location: loc}
	assert.Equal(t, "f.js:1:4: warning: odd\nfoo(bar);\n    ~~~\n",
		msg.String(logger.StderrOptions{IncludeSource: true}, logger.TerminalInfo{}))
	assert.Equal(t, "f.js: warning: odd\n", msg.String(logger.StderrOptions{}, logger.TerminalInfo{}))
}
