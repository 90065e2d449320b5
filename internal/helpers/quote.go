package helpers

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const hexChars = "0123456789ABCDEF"

// QuoteSingle returns a single-quoted JavaScript string literal with the given
// value. Only the characters that can't appear raw inside the literal are
// escaped, so "\x00commonjs-proxy:./foo" prints as '\0commonjs-proxy:./foo'.
func QuoteSingle(text string) string {
	return internalQuote(text, '\'')
}

// QuoteDouble is the same as QuoteSingle but with double quotes, which is what
// the synthesized proxy modules use.
func QuoteDouble(text string) string {
	return internalQuote(text, '"')
}

func internalQuote(text string, quoteChar byte) string {
	sb := strings.Builder{}
	sb.Grow(len(text) + 2)
	sb.WriteByte(quoteChar)

	for i, c := range text {
		switch c {
		case 0:
			// "\0" followed by a digit would be read as a legacy octal escape
			if i+1 < len(text) && text[i+1] >= '0' && text[i+1] <= '9' {
				sb.WriteString("\\x00")
			} else {
				sb.WriteString("\\0")
			}
		case '\b':
			sb.WriteString("\\b")
		case '\f':
			sb.WriteString("\\f")
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		case '\t':
			sb.WriteString("\\t")
		case '\v':
			sb.WriteString("\\v")
		case '\\':
			sb.WriteString("\\\\")
		case '\u2028', '\u2029', '\uFEFF':
			writeUnicodeEscape(&sb, c)
		case utf8.RuneError:
			writeUnicodeEscape(&sb, c)
		default:
			if c == rune(quoteChar) {
				sb.WriteByte('\\')
				sb.WriteByte(quoteChar)
			} else if c < 0x20 || c == 0x7F {
				sb.WriteString("\\x")
				sb.WriteByte(hexChars[c>>4])
				sb.WriteByte(hexChars[c&15])
			} else {
				sb.WriteRune(c)
			}
		}
	}

	sb.WriteByte(quoteChar)
	return sb.String()
}

func writeUnicodeEscape(sb *strings.Builder, c rune) {
	sb.WriteString("\\u")
	sb.WriteByte(hexChars[c>>12])
	sb.WriteByte(hexChars[(c>>8)&15])
	sb.WriteByte(hexChars[(c>>4)&15])
	sb.WriteByte(hexChars[c&15])
}

// UnquoteJS decodes the text of a JavaScript string literal including its
// quotes. It returns false if the literal is malformed. Lone surrogates are
// replaced with U+FFFD since the result is a Go string.
func UnquoteJS(raw string) (string, bool) {
	if len(raw) < 2 || (raw[0] != '\'' && raw[0] != '"') || raw[len(raw)-1] != raw[0] {
		return "", false
	}
	body := raw[1 : len(raw)-1]
	if strings.IndexByte(body, '\\') < 0 {
		return body, true
	}

	sb := strings.Builder{}
	sb.Grow(len(body))
	var pendingHigh rune = -1

	flushHigh := func() {
		if pendingHigh >= 0 {
			sb.WriteRune(utf8.RuneError)
			pendingHigh = -1
		}
	}
	writeCodeUnit := func(c rune) {
		if c >= 0xD800 && c <= 0xDBFF {
			flushHigh()
			pendingHigh = c
			return
		}
		if c >= 0xDC00 && c <= 0xDFFF && pendingHigh >= 0 {
			sb.WriteRune(0x10000 + (pendingHigh-0xD800)<<10 + (c - 0xDC00))
			pendingHigh = -1
			return
		}
		flushHigh()
		sb.WriteRune(c)
	}

	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			flushHigh()
			r, width := utf8.DecodeRuneInString(body[i:])
			sb.WriteRune(r)
			i += width
			continue
		}
		i++
		if i >= len(body) {
			return "", false
		}
		c = body[i]
		i++
		switch c {
		case 'b':
			writeCodeUnit('\b')
		case 'f':
			writeCodeUnit('\f')
		case 'n':
			writeCodeUnit('\n')
		case 'r':
			writeCodeUnit('\r')
		case 't':
			writeCodeUnit('\t')
		case 'v':
			writeCodeUnit('\v')

		case '\r':
			// Line continuation, including "\r\n"
			if i < len(body) && body[i] == '\n' {
				i++
			}
		case '\n':

		case 'x':
			if i+2 > len(body) {
				return "", false
			}
			value, err := strconv.ParseUint(body[i:i+2], 16, 8)
			if err != nil {
				return "", false
			}
			writeCodeUnit(rune(value))
			i += 2

		case 'u':
			if i < len(body) && body[i] == '{' {
				end := strings.IndexByte(body[i:], '}')
				if end < 2 {
					return "", false
				}
				value, err := strconv.ParseUint(body[i+1:i+end], 16, 32)
				if err != nil || value > 0x10FFFF {
					return "", false
				}
				writeCodeUnit(rune(value))
				i += end + 1
			} else {
				if i+4 > len(body) {
					return "", false
				}
				value, err := strconv.ParseUint(body[i:i+4], 16, 16)
				if err != nil {
					return "", false
				}
				writeCodeUnit(rune(value))
				i += 4
			}

		case '0', '1', '2', '3', '4', '5', '6', '7':
			// Legacy octal escapes, at most three digits and at most 0o377
			value := rune(c - '0')
			for n := 1; n < 3 && i < len(body) && body[i] >= '0' && body[i] <= '7'; n++ {
				next := value*8 + rune(body[i]-'0')
				if next > 0377 {
					break
				}
				value = next
				i++
			}
			writeCodeUnit(value)

		default:
			// Any other escaped character stands for itself
			r, width := utf8.DecodeRuneInString(body[i-1:])
			if r == '\u2028' || r == '\u2029' {
				// Line continuation with a unicode line separator
			} else {
				writeCodeUnit(r)
			}
			i += width - 1
		}
	}

	flushHigh()
	return sb.String(), true
}
