package convert

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// escapeText backslash-escapes the characters of decoded text that Markdown
// would otherwise read as syntax, so the output parses back to the same
// text. When lineStart is set the text may begin a line of output and a
// leading block marker is escaped too.
func escapeText(s string, lineStart bool) string {
	x := textEscaper{s: s, first: -1, digitsEnd: -1}
	if lineStart {
		x.first = len(s) - len(strings.TrimLeft(s, whitespace))
		x.digitsEnd = x.first
		for x.digitsEnd < len(s) && isDigit(s[x.digitsEnd]) {
			x.digitsEnd++
		}
	}

	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if x.needsEscape(i) {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

type textEscaper struct {
	s string
	// first is the index of the first non-blank byte when the text starts
	// a line, -1 otherwise.
	first int
	// digitsEnd is the index after the run of digits starting at first.
	digitsEnd int
}

func (x textEscaper) needsEscape(i int) bool {
	switch x.s[i] {
	case '\\', '*', '`', '[', ']', '<', '~':
		return true
	case '_':
		return !intraword(x.s, i)
	case '&':
		return isEntity(x.s[i:])
	case '.':
		// "12. " anywhere, and a bare "12." opening a line.
		return i > 0 && isDigit(x.s[i-1]) && (x.followedBySpace(i) || x.endsMarker(i))
	case ')':
		return x.endsMarker(i)
	case '#', '>', '+', '-', '=', ':', '|':
		return i == x.first
	}
	return false
}

func (x textEscaper) followedBySpace(i int) bool {
	return i+1 < len(x.s) && x.s[i+1] == ' '
}

// endsMarker reports whether the byte at i closes a run of digits that opens
// the line, followed by a space or the end of the text: an ordered list
// marker.
func (x textEscaper) endsMarker(i int) bool {
	return x.first >= 0 && i == x.digitsEnd && i > x.first &&
		(i+1 == len(x.s) || x.followedBySpace(i))
}

// intraword reports whether the byte at i sits between two letters or
// digits, where an underscore can neither open nor close emphasis.
func intraword(s string, i int) bool {
	prev, _ := utf8.DecodeLastRuneInString(s[:i])
	next, _ := utf8.DecodeRuneInString(s[i+1:])
	return isWordRune(prev) && isWordRune(next)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// maxEntityLen bounds the search for the semicolon of a character reference.
const maxEntityLen = 34

// isEntity reports whether s starts with something shaped like a character
// reference: "&name;", "&#123;" or "&#x1F;".
func isEntity(s string) bool {
	end := strings.IndexByte(s[:min(len(s), maxEntityLen)], ';')
	if end < 2 {
		return false
	}
	name := s[1:end]
	switch {
	case name[0] != '#':
		return isASCIILetter(name[0]) && strings.Trim(name, asciiAlnum) == ""
	case len(name) > 2 && (name[1] == 'x' || name[1] == 'X'):
		return strings.Trim(name[2:], hexDigits) == ""
	default:
		return len(name) > 1 && strings.Trim(name[1:], "0123456789") == ""
	}
}

const (
	asciiAlnum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	hexDigits  = "0123456789abcdefABCDEF"
)

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// hasDelimiter reports whether s contains c outside a backslash escape.
func hasDelimiter(s string, c byte) bool {
	escaped := false
	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == c:
			return true
		}
	}
	return false
}

// escapeDelimiter backslash-escapes every c in s that is not escaped yet.
func escapeDelimiter(s string, c byte) string {
	if !hasDelimiter(s, c) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	escaped := false
	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == c:
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
