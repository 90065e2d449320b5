package patcher

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/cjsesm/cjsesm/internal/helpers"
	"github.com/cjsesm/cjsesm/internal/logger"
	"github.com/cjsesm/cjsesm/internal/sourcemap"
)

type edit struct {
	start int32
	end   int32
	text  string
	name  string
}

// Patcher applies non-overlapping edits to the text of one module and
// produces the edited text plus an optional source map back to the original.
// Edits refer to byte offsets in the original text and may be registered in
// any order.
type Patcher struct {
	source    *logger.Source
	edits     []edit
	locations []int32
	intro     string
	outro     string
	trim      bool
}

func New(source *logger.Source) *Patcher {
	return &Patcher{source: source}
}

// Overwrite replaces the original range with new text.
func (p *Patcher) Overwrite(start int32, end int32, text string) {
	p.edits = append(p.edits, edit{start: start, end: end, text: text})
}

// OverwriteWithName is like "Overwrite" but records the original identifier
// in the source map so debuggers can show it.
func (p *Patcher) OverwriteWithName(start int32, end int32, text string, name string) {
	p.edits = append(p.edits, edit{start: start, end: end, text: text, name: name})
}

func (p *Patcher) Remove(start int32, end int32) {
	p.edits = append(p.edits, edit{start: start, end: end})
}

// AddLocation asks for a mapping at an original offset. Copied text already
// gets mappings at the start of every line, so this is for finer positions
// such as the start of each syntax node.
func (p *Patcher) AddLocation(offset int32) {
	p.locations = append(p.locations, offset)
}

// Prepend adds text before the (possibly trimmed) body. Repeated calls put
// the newest text first.
func (p *Patcher) Prepend(text string) {
	p.intro = text + p.intro
}

func (p *Patcher) Append(text string) {
	p.outro += text
}

// Trim removes leading and trailing whitespace from the edited body. It
// doesn't affect text added with "Prepend" or "Append".
func (p *Patcher) Trim() {
	p.trim = true
}

type segmentKind uint8

const (
	segmentCopied segmentKind = iota
	segmentReplaced
)

type segment struct {
	kind  segmentKind
	text  string
	start int32 // original offset
	name  string
}

func (p *Patcher) segments() []segment {
	edits := append([]edit{}, p.edits...)
	sort.SliceStable(edits, func(i int, j int) bool {
		return edits[i].start < edits[j].start
	})

	contents := p.source.Contents
	var segments []segment
	offset := int32(0)
	for _, e := range edits {
		if e.start < offset || e.end < e.start || int(e.end) > len(contents) {
			panic(fmt.Sprintf("Internal error: edit [%d, %d) overlaps a previous edit", e.start, e.end))
		}
		if e.start > offset {
			segments = append(segments, segment{kind: segmentCopied, text: contents[offset:e.start], start: offset})
		}
		if e.text != "" {
			segments = append(segments, segment{kind: segmentReplaced, text: e.text, start: e.start, name: e.name})
		}
		offset = e.end
	}
	if int(offset) < len(contents) {
		segments = append(segments, segment{kind: segmentCopied, text: contents[offset:], start: offset})
	}

	if p.trim {
		segments = trimSegments(segments)
	}
	return segments
}

func isSpace(c rune) bool {
	return unicode.IsSpace(c) || c == '\uFEFF'
}

func trimSegments(segments []segment) []segment {
	for len(segments) > 0 {
		first := &segments[0]
		trimmed := strings.TrimLeftFunc(first.text, isSpace)
		if trimmed != "" {
			if first.kind == segmentCopied {
				first.start += int32(len(first.text) - len(trimmed))
			}
			first.text = trimmed
			break
		}
		segments = segments[1:]
	}

	for len(segments) > 0 {
		last := &segments[len(segments)-1]
		trimmed := strings.TrimRightFunc(last.text, isSpace)
		if trimmed != "" {
			last.text = trimmed
			break
		}
		segments = segments[:len(segments)-1]
	}

	return segments
}

// String returns the edited text without building a source map.
func (p *Patcher) String() string {
	j := helpers.Joiner{}
	j.AddString(p.intro)
	for _, s := range p.segments() {
		j.AddString(s.text)
	}
	j.AddString(p.outro)
	return string(j.Done())
}

type Options struct {
	SourceMap bool

	// The name of the generated file, if known
	File string
}

type Result struct {
	Code      string
	SourceMap *sourcemap.SourceMap
}

func (p *Patcher) Generate(options Options) Result {
	if !options.SourceMap {
		return Result{Code: p.String()}
	}

	g := generator{
		lineIndex: sourcemap.NewLineIndex(p.source.Contents),
		sm: &sourcemap.SourceMap{
			File:           options.File,
			Sources:        []string{p.source.PrettyPath},
			SourcesContent: []string{p.source.Contents},
		},
		nameIndex: make(map[string]int32),
	}

	locations := append([]int32{}, p.locations...)
	sort.Slice(locations, func(i int, j int) bool { return locations[i] < locations[j] })

	g.addGenerated(p.intro)
	for _, s := range p.segments() {
		switch s.kind {
		case segmentCopied:
			g.addCopied(s, locations)
		case segmentReplaced:
			g.addMapping(s.start, s.name)
			g.advance(s.text)
		}
	}
	g.addGenerated(p.outro)

	return Result{Code: string(g.j.Done()), SourceMap: g.sm}
}

type generator struct {
	j         helpers.Joiner
	lineIndex *sourcemap.LineIndex
	sm        *sourcemap.SourceMap
	nameIndex map[string]int32
	position  sourcemap.LineColumnOffset

	hasLast bool
	last    sourcemap.LineColumnOffset
}

func (g *generator) advance(text string) {
	g.j.AddString(text)
	g.position.AdvanceString(text)
}

// Mappings are emitted in generated order, one per position
func (g *generator) push(m sourcemap.Mapping) {
	at := sourcemap.LineColumnOffset{Lines: m.GeneratedLine, Columns: m.GeneratedColumn}
	if g.hasLast && !g.last.ComesBefore(at) {
		return
	}
	g.sm.Mappings = append(g.sm.Mappings, m)
	g.hasLast = true
	g.last = at
}

func (g *generator) addMapping(original int32, name string) {
	at := g.lineIndex.Position(original)
	m := sourcemap.Mapping{
		GeneratedLine:   g.position.Lines,
		GeneratedColumn: g.position.Columns,
		OriginalLine:    at.Lines,
		OriginalColumn:  at.Columns,
		OriginalName:    -1,
	}
	if name != "" {
		index, ok := g.nameIndex[name]
		if !ok {
			index = int32(len(g.sm.Names))
			g.nameIndex[name] = index
			g.sm.Names = append(g.sm.Names, name)
		}
		m.OriginalName = index
	}
	g.push(m)
}

// Text without an original location gets one generated-only mapping at the
// start of each non-empty line
func (g *generator) addGenerated(text string) {
	for text != "" {
		line := text
		rest := ""
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line = text[:i+1]
			rest = text[i+1:]
		}
		if strings.TrimRight(line, "\r\n") != "" {
			g.push(sourcemap.Mapping{
				GeneratedLine:   g.position.Lines,
				GeneratedColumn: g.position.Columns,
				SourceIndex:     -1,
				OriginalName:    -1,
			})
		}
		g.advance(line)
		text = rest
	}
}

func (g *generator) addCopied(s segment, locations []int32) {
	end := s.start + int32(len(s.text))

	// Every point that gets a mapping: the segment start, the start of each
	// line, and any registered location inside the segment
	points := []int32{s.start}
	for i := 0; i < len(s.text); i++ {
		if c := s.text[i]; c == '\n' || (c == '\r' && (i+1 == len(s.text) || s.text[i+1] != '\n')) {
			if next := s.start + int32(i) + 1; next < end {
				points = append(points, next)
			}
		}
	}
	first := sort.Search(len(locations), func(i int) bool { return locations[i] > s.start })
	for i := first; i < len(locations) && locations[i] < end; i++ {
		points = append(points, locations[i])
	}
	sort.Slice(points, func(i int, j int) bool { return points[i] < points[j] })

	offset := s.start
	for _, point := range points {
		if point < offset {
			continue
		}
		g.advance(s.text[offset-s.start : point-s.start])
		g.addMapping(point, "")
		offset = point
	}
	g.advance(s.text[offset-s.start:])
}
