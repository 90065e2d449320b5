package logger

// Diagnostics follow clang's layout: "file:line:column: kind: text" followed
// by the offending line and a marker under the problem. Logs hand back their
// messages sorted by location from "Done".

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

type LogLevel int8

const (
	LevelNone LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelSilent
)

func ParseLogLevel(text string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "info":
		return LevelInfo, true
	case "warning":
		return LevelWarning, true
	case "error":
		return LevelError, true
	case "silent":
		return LevelSilent, true
	}
	return LevelNone, false
}

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
)

func (kind MsgKind) String() string {
	if kind == Warning {
		return "warning"
	}
	return "error"
}

type Msg struct {
	Kind     MsgKind
	Text     string
	Location *MsgLocation
}

type MsgLocation struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

// A byte offset from the start of a file
type Loc struct {
	Start int32
}

type Range struct {
	Loc Loc
	Len int32
}

// Files use the "file" namespace. Synthetic modules such as the helpers
// module and the proxies never touch the disk.
type Path struct {
	Text      string
	Namespace string
}

type Source struct {
	// The module id. Files are keyed by their resolved absolute path.
	KeyPath Path

	// Shown in diagnostics and used as the "sources" entry of source maps
	PrettyPath string

	Contents string
}

func msgLess(a Msg, b Msg) bool {
	la, lb := a.Location, b.Location
	if (la == nil) != (lb == nil) {
		return la == nil
	}
	if la != nil {
		switch {
		case la.File != lb.File:
			return la.File < lb.File
		case la.Line != lb.Line:
			return la.Line < lb.Line
		case la.Column != lb.Column:
			return la.Column < lb.Column
		case la.Length != lb.Length:
			return la.Length < lb.Length
		}
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.Text < b.Text
}

// The shared part of every log. "onMsg" runs under the lock and returns
// nothing, so sinks can't reorder messages.
type msgStore struct {
	mutex    sync.Mutex
	msgs     []Msg
	errors   int
	warnings int
}

func (s *msgStore) add(msg Msg, onMsg func(Msg)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.msgs = append(s.msgs, msg)
	switch msg.Kind {
	case Error:
		s.errors++
	case Warning:
		s.warnings++
	}
	if onMsg != nil {
		onMsg(msg)
	}
}

func (s *msgStore) hasErrors() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.errors > 0
}

func (s *msgStore) done(onDone func(errors int, warnings int)) []Msg {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if onDone != nil {
		onDone(s.errors, s.warnings)
	}
	msgs := append([]Msg(nil), s.msgs...)
	sort.SliceStable(msgs, func(i, j int) bool { return msgLess(msgs[i], msgs[j]) })
	return msgs
}

func countOf(what string, n int) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", what)
	}
	return fmt.Sprintf("%d %ss", n, what)
}

func summary(errors int, warnings int) string {
	if errors == 0 {
		return countOf("warning", warnings)
	}
	if warnings == 0 {
		return countOf("error", errors)
	}
	return countOf("warning", warnings) + " and " + countOf("error", errors)
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type StderrOptions struct {
	IncludeSource bool
	ErrorLimit    int
	Color         StderrColor
	LogLevel      LogLevel
}

// NewStderrLog prints messages at or above the log level as they arrive.
// Output stops once "ErrorLimit" errors have been seen.
func NewStderrLog(options StderrOptions) Log {
	store := &msgStore{}
	terminalInfo := GetTerminalInfo(os.Stderr)
	limitHit := false

	switch options.Color {
	case ColorNever:
		terminalInfo.UseColorEscapes = false
	case ColorAlways:
		terminalInfo.UseColorEscapes = SupportsColorEscapes
	}

	shown := func(kind MsgKind) bool {
		if kind == Warning {
			return options.LogLevel <= LevelWarning
		}
		return options.LogLevel <= LevelError
	}

	return Log{
		AddMsg: func(msg Msg) {
			store.add(msg, func(msg Msg) {
				if limitHit {
					return
				}
				if shown(msg.Kind) {
					os.Stderr.WriteString(msg.String(options, terminalInfo))
				}
				if options.ErrorLimit != 0 && store.errors >= options.ErrorLimit {
					limitHit = true
					if shown(Error) {
						os.Stderr.WriteString(summary(store.errors, store.warnings) +
							" reached (disable error limit with --error-limit=0)\n")
					}
				}
			})
		},
		HasErrors: store.hasErrors,
		Done: func() []Msg {
			return store.done(func(errors int, warnings int) {
				if !limitHit && options.LogLevel <= LevelInfo && errors+warnings > 0 {
					os.Stderr.WriteString(summary(errors, warnings) + "\n")
				}
			})
		},
	}
}

// NewDeferLog collects messages without printing them
func NewDeferLog() Log {
	store := &msgStore{}
	return Log{
		AddMsg:    func(msg Msg) { store.add(msg, nil) },
		HasErrors: store.hasErrors,
		Done:      func() []Msg { return store.done(nil) },
	}
}

func (log Log) AddError(source *Source, loc Loc, text string) {
	log.AddRangeError(source, Range{Loc: loc}, text)
}

func (log Log) AddWarning(source *Source, loc Loc, text string) {
	log.AddRangeWarning(source, Range{Loc: loc}, text)
}

func (log Log) AddRangeError(source *Source, r Range, text string) {
	log.AddMsg(Msg{Kind: Error, Text: text, Location: LocationOrNil(source, r)})
}

func (log Log) AddRangeWarning(source *Source, r Range, text string) {
	log.AddMsg(Msg{Kind: Warning, Text: text, Location: LocationOrNil(source, r)})
}
