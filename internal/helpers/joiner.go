package helpers

import "strings"

// Joiner collects the pieces of a generated file and concatenates them with
// a single allocation at the end
type Joiner struct {
	parts  []string
	length int
}

func (j *Joiner) AddString(data string) {
	if data != "" {
		j.parts = append(j.parts, data)
		j.length += len(data)
	}
}

func (j *Joiner) LastByte() byte {
	if len(j.parts) == 0 {
		return 0
	}
	last := j.parts[len(j.parts)-1]
	return last[len(last)-1]
}

func (j *Joiner) Length() uint32 {
	return uint32(j.length)
}

func (j *Joiner) Done() []byte {
	sb := strings.Builder{}
	sb.Grow(j.length)
	for _, part := range j.parts {
		sb.WriteString(part)
	}
	return []byte(sb.String())
}
