package logger

import (
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	colorReset     = "\033[0m"
	colorRed       = "\033[31m"
	colorGreen     = "\033[32m"
	colorMagenta   = "\033[35m"
	colorBold      = "\033[1m"
	colorResetBold = "\033[0;1m"
)

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
	Width           int
	Height          int
}

func hasNoColorEnvironmentVariable() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// LocationOrNil turns a byte range into a line and column. It returns nil
// when there is no source.
func LocationOrNil(source *Source, r Range) *MsgLocation {
	if source == nil {
		return nil
	}
	contents := source.Contents
	offset := int(r.Loc.Start)
	if offset > len(contents) {
		offset = len(contents)
	}

	line, lineStart := 0, 0
	for i := 0; i < offset; {
		c, width := utf8.DecodeRuneInString(contents[i:])
		switch c {
		case '\r':
			if i+1 < len(contents) && contents[i+1] == '\n' {
				width = 2
			}
			fallthrough
		case '\n', '\u2028', '\u2029':
			if i+width <= offset {
				line++
				lineStart = i + width
			}
		}
		i += width
	}

	lineEnd := len(contents)
	if i := strings.IndexAny(contents[offset:], "\r\n\u2028\u2029"); i >= 0 {
		lineEnd = offset + i
	}

	return &MsgLocation{
		File:     source.PrettyPath,
		Line:     line + 1,
		Column:   offset - lineStart,
		Length:   int(r.Len),
		LineText: contents[lineStart:lineEnd],
	}
}

func (msg Msg) String(options StderrOptions, terminalInfo TerminalInfo) string {
	color := terminalInfo.UseColorEscapes
	paint := func(sb *strings.Builder, escape string, text string) {
		if color {
			sb.WriteString(escape)
		}
		sb.WriteString(text)
	}

	kindColor := colorRed
	if msg.Kind == Warning {
		kindColor = colorMagenta
	}

	sb := strings.Builder{}
	loc := msg.Location
	if loc != nil {
		paint(&sb, colorBold, loc.File)
		if options.IncludeSource {
			sb.WriteString(":" + strconv.Itoa(loc.Line) + ":" + strconv.Itoa(loc.Column))
		}
		sb.WriteString(": ")
	}
	paint(&sb, kindColor, msg.Kind.String()+": ")
	paint(&sb, colorResetBold, msg.Text)
	paint(&sb, colorReset, "\n")

	if loc == nil || !options.IncludeSource {
		return sb.String()
	}

	line, markerStart, markerEnd := excerpt(*loc, terminalInfo.Width)
	marker := "^"
	if markerEnd-markerStart > 1 {
		marker = strings.Repeat("~", markerEnd-markerStart)
	}
	sb.WriteString(line[:markerStart])
	paint(&sb, colorGreen, line[markerStart:markerEnd])
	paint(&sb, colorReset, line[markerEnd:]+"\n")
	sb.WriteString(strings.Repeat(" ", markerStart))
	paint(&sb, colorGreen, marker)
	paint(&sb, colorReset, "\n")
	return sb.String()
}

// Returns the line with tabs expanded, cut down to the terminal width around
// the marked range, and the bounds of the marked range within it.
func excerpt(loc MsgLocation, width int) (string, int, int) {
	column := clamp(loc.Column, 0, len(loc.LineText))
	length := clamp(loc.Length, 0, len(loc.LineText)-column)

	line := expandTabs(loc.LineText)
	start := len(expandTabs(loc.LineText[:column]))
	end := len(expandTabs(loc.LineText[:column+length]))

	if width < 1 {
		width = 80
	}
	if len(line) > width {
		cut := clamp(start-width/5, 0, len(line)-width)
		line = line[cut : cut+width]
		start -= cut
		end -= cut
	}
	start = clamp(start, 0, len(line))
	end = clamp(end, start, len(line))
	return line, start, end
}

func clamp(n int, lo int, hi int) int {
	if n > hi {
		n = hi
	}
	if n < lo {
		n = lo
	}
	return n
}

// Tab stops are two columns wide
func expandTabs(text string) string {
	if !strings.ContainsRune(text, '\t') {
		return text
	}
	sb := strings.Builder{}
	column := 0
	for _, c := range text {
		if c == '\t' {
			for n := 2 - column%2; n > 0; n-- {
				sb.WriteByte(' ')
				column++
			}
			continue
		}
		sb.WriteRune(c)
		column++
	}
	return sb.String()
}
