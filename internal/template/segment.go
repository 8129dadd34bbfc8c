package template

import "strings"

// SegmentKind tags a parsed piece of a template string.
type SegmentKind int

const (
	Literal SegmentKind = iota
	FunctionCall
	Variable
)

// Segment is one parsed piece. Raw always holds the exact source text so an
// unresolved placeholder can be emitted verbatim.
type Segment struct {
	Kind SegmentKind
	Raw  string
	Path string // FunctionCall
	Args string // FunctionCall, text between the parentheses
	Name string // Variable
}

// Parse splits s into literal text, function placeholders
// ("{{ a.b.c(args) }}") and variable placeholders ("{{ name }}").
func Parse(s string) []Segment {
	var segs []Segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, Segment{Kind: Literal, Raw: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(s) {
		open := strings.Index(s[i:], "{{")
		if open < 0 {
			lit.WriteString(s[i:])
			break
		}
		lit.WriteString(s[i : i+open])
		start := i + open

		if seg, end, ok := parseFunction(s, start); ok {
			flush()
			segs = append(segs, seg)
			i = end
			continue
		}

		closeIdx := strings.Index(s[start+2:], "}}")
		if closeIdx < 0 {
			lit.WriteString(s[start:])
			break
		}
		end := start + 2 + closeIdx + 2
		name := strings.TrimSpace(s[start+2 : end-2])
		if name == "" {
			lit.WriteString(s[start:end])
			i = end
			continue
		}
		flush()
		segs = append(segs, Segment{Kind: Variable, Raw: s[start:end], Name: name})
		i = end
	}
	flush()
	return segs
}

// parseFunction recognises `{{ ws* path ( args ) ws* }}` at start. Parentheses,
// brackets and braces inside args must balance; quoted JSON strings are skipped.
func parseFunction(s string, start int) (Segment, int, bool) {
	i := skipSpace(s, start+2)

	pathStart := i
	for {
		if i >= len(s) || !isIdentStart(s[i]) {
			return Segment{}, 0, false
		}
		for i < len(s) && isIdentPart(s[i]) {
			i++
		}
		if i < len(s) && s[i] == '.' {
			i++
			continue
		}
		break
	}
	path := s[pathStart:i]
	if !strings.Contains(path, ".") || i >= len(s) || s[i] != '(' {
		return Segment{}, 0, false
	}

	argsStart := i + 1
	closeParen, ok := matchParen(s, i)
	if !ok {
		return Segment{}, 0, false
	}

	j := skipSpace(s, closeParen+1)
	if !strings.HasPrefix(s[j:], "}}") {
		return Segment{}, 0, false
	}
	end := j + 2

	return Segment{
		Kind: FunctionCall,
		Raw:  s[start:end],
		Path: path,
		Args: strings.TrimSpace(s[argsStart:closeParen]),
	}, end, true
}

// matchParen returns the index of the ')' closing the '(' at open.
func matchParen(s string, open int) (int, bool) {
	var stack []byte
	inString := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(':
			stack = append(stack, ')')
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
