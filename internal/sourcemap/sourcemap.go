package sourcemap

import (
	"bytes"
	"encoding/json"
	"sort"
	"unicode/utf8"
)

type Mapping struct {
	GeneratedLine   int32 // 0-based
	GeneratedColumn int32 // 0-based count of UTF-16 code units

	// A negative source index marks generated code with no original location,
	// such as the import block and wrapper added around a converted module.
	// These are encoded as single-field segments.
	SourceIndex    int32 // 0-based
	OriginalLine   int32 // 0-based
	OriginalColumn int32 // 0-based count of UTF-16 code units
	OriginalName   int32 // 0-based index into "Names", or -1
}

func (m Mapping) IsGenerated() bool {
	return m.SourceIndex < 0
}

type SourceMap struct {
	File           string
	Sources        []string
	SourcesContent []string
	Mappings       []Mapping
	Names          []string
}

// Find returns the mapping that covers the given generated position, if any.
// Mappings must be sorted by generated position.
func (sm *SourceMap) Find(line int32, column int32) *Mapping {
	mappings := sm.Mappings

	// Binary search
	count := len(mappings)
	index := 0
	for count > 0 {
		step := count / 2
		i := index + step
		mapping := mappings[i]
		if mapping.GeneratedLine < line || (mapping.GeneratedLine == line && mapping.GeneratedColumn <= column) {
			index = i + 1
			count -= step + 1
		} else {
			count = step
		}
	}

	// Handle search failure
	if index > 0 {
		mapping := &mappings[index-1]

		// Match the behavior of the popular "source-map" library from Mozilla
		if mapping.GeneratedLine == line {
			return mapping
		}
	}
	return nil
}

var base64 = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/")

// A single base 64 digit can contain 6 bits of data. For the base 64 variable
// length quantities we use in the source map format, the first bit is the sign,
// the next four bits are the actual value, and the 6th bit is the continuation
// bit. The continuation bit tells us whether there are more digits in this
// value following this digit.
//
//	Continuation
//	|    Sign
//	|    |
//	V    V
//	101011
func encodeVLQ(encoded []byte, value int) []byte {
	var vlq int
	if value < 0 {
		vlq = ((-value) << 1) | 1
	} else {
		vlq = value << 1
	}

	// Handle the common case
	if (vlq >> 5) == 0 {
		digit := vlq & 31
		encoded = append(encoded, base64[digit])
		return encoded
	}

	for {
		digit := vlq & 31
		vlq >>= 5

		// If there are still more digits in this value, we must make sure the
		// continuation bit is marked
		if vlq != 0 {
			digit |= 32
		}

		encoded = append(encoded, base64[digit])

		if vlq == 0 {
			break
		}
	}

	return encoded
}

func DecodeVLQ(encoded []byte, start int) (int, int) {
	shift := 0
	vlq := 0

	// Scan over the input
	for start < len(encoded) {
		index := bytes.IndexByte(base64, encoded[start])
		if index < 0 {
			break
		}

		// Decode a single byte
		vlq |= (index & 31) << shift
		start++
		shift += 5

		// Stop if there's no continuation bit
		if (index & 32) == 0 {
			break
		}
	}

	// Recover the value
	value := vlq >> 1
	if (vlq & 1) != 0 {
		value = -value
	}
	return value, start
}

// EncodeMappings produces the "mappings" field. Every field except the
// generated column is relative to the previous segment that carried it, and
// the generated column resets at each ";" line separator.
func (sm *SourceMap) EncodeMappings() []byte {
	var encoded []byte
	prevLine := int32(0)
	prevGeneratedColumn := int32(0)
	prevSourceIndex := int32(0)
	prevOriginalLine := int32(0)
	prevOriginalColumn := int32(0)
	prevOriginalName := int32(0)
	needsComma := false

	for _, m := range sm.Mappings {
		for prevLine < m.GeneratedLine {
			encoded = append(encoded, ';')
			prevLine++
			prevGeneratedColumn = 0
			needsComma = false
		}
		if needsComma {
			encoded = append(encoded, ',')
		}
		needsComma = true

		encoded = encodeVLQ(encoded, int(m.GeneratedColumn-prevGeneratedColumn))
		prevGeneratedColumn = m.GeneratedColumn
		if m.IsGenerated() {
			continue
		}

		encoded = encodeVLQ(encoded, int(m.SourceIndex-prevSourceIndex))
		encoded = encodeVLQ(encoded, int(m.OriginalLine-prevOriginalLine))
		encoded = encodeVLQ(encoded, int(m.OriginalColumn-prevOriginalColumn))
		prevSourceIndex = m.SourceIndex
		prevOriginalLine = m.OriginalLine
		prevOriginalColumn = m.OriginalColumn

		if m.OriginalName >= 0 {
			encoded = encodeVLQ(encoded, int(m.OriginalName-prevOriginalName))
			prevOriginalName = m.OriginalName
		}
	}

	return encoded
}

type sourceMapJSON struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// JSON serializes the map in the version 3 format.
func (sm *SourceMap) JSON() []byte {
	names := sm.Names
	if names == nil {
		names = []string{}
	}
	sources := sm.Sources
	if sources == nil {
		sources = []string{}
	}
	bytes, err := json.Marshal(sourceMapJSON{
		Version:        3,
		File:           sm.File,
		Sources:        sources,
		SourcesContent: sm.SourcesContent,
		Names:          names,
		Mappings:       string(sm.EncodeMappings()),
	})
	if err != nil {
		// Only strings and ints are marshalled, so this can't happen
		panic("Internal error: " + err.Error())
	}
	return bytes
}

type LineColumnOffset struct {
	Lines   int32
	Columns int32
}

func (a LineColumnOffset) ComesBefore(b LineColumnOffset) bool {
	return a.Lines < b.Lines || (a.Lines == b.Lines && a.Columns < b.Columns)
}

func (offset *LineColumnOffset) AdvanceString(text string) {
	columns := offset.Columns
	for i, c := range text {
		switch c {
		case '\r', '\n', '\u2028', '\u2029':
			// Handle Windows-specific "\r\n" newlines
			if c == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				continue
			}

			offset.Lines++
			columns = 0

		default:
			// Mozilla's "source-map" library counts columns using UTF-16 code units
			if c <= 0xFFFF {
				columns++
			} else {
				columns += 2
			}
		}
	}
	offset.Columns = columns
}

// LineIndex converts byte offsets in one file into source map positions.
// It is built once per module and is read-only afterwards.
type LineIndex struct {
	contents   string
	lineStarts []int32
}

func NewLineIndex(contents string) *LineIndex {
	lineStarts := []int32{0}
	for i, c := range contents {
		switch c {
		case '\r':
			if i+1 < len(contents) && contents[i+1] == '\n' {
				continue
			}
			lineStarts = append(lineStarts, int32(i+1))
		case '\n':
			lineStarts = append(lineStarts, int32(i+1))
		case '\u2028', '\u2029':
			lineStarts = append(lineStarts, int32(i+utf8.RuneLen(c)))
		}
	}
	return &LineIndex{contents: contents, lineStarts: lineStarts}
}

// Position returns the 0-based line and the 0-based UTF-16 column of a byte
// offset.
func (li *LineIndex) Position(offset int32) LineColumnOffset {
	if offset > int32(len(li.contents)) {
		offset = int32(len(li.contents))
	}
	line := sort.Search(len(li.lineStarts), func(i int) bool {
		return li.lineStarts[i] > offset
	}) - 1
	start := li.lineStarts[line]
	column := LineColumnOffset{}
	column.AdvanceString(li.contents[start:offset])
	return LineColumnOffset{Lines: int32(line), Columns: column.Columns}
}
