package markup

import "strings"

// state is the scanner state.
type state int

const (
	stateText state = iota
	stateInlineMath
	stateDisplayMath
)

// scanner is a single-pass finite-state tokenizer over a rune cursor.
// Math states are entered only after the matching close has been located,
// so no input is ever re-scanned.
type scanner struct {
	src     []rune
	pos     int
	state   state
	closeAt int // index of the closing delimiter while in a math state

	text strings.Builder
	out  []Segment
}

// Scan tokenizes a flat document into segments. In text, the scanner tries
// in priority order: escaped dollar, image reference, display math open,
// inline math open. An open delimiter without a matching close is kept as
// a verbatim text segment. Scan never fails and never drops characters.
func Scan(s string) []Segment {
	if s == "" {
		return nil
	}
	sc := &scanner{src: []rune(s)}
	for sc.pos < len(sc.src) {
		switch sc.state {
		case stateText:
			sc.stepText()
		case stateInlineMath:
			sc.stepMath(InlineMath, 1)
		case stateDisplayMath:
			sc.stepMath(DisplayMath, 2)
		}
	}
	sc.flush()
	return sc.out
}

func (sc *scanner) stepText() {
	r := sc.src[sc.pos]

	switch {
	case r == '\\' && sc.at(sc.pos+1) == '$':
		sc.text.WriteRune('$')
		sc.pos += 2

	case r == '!' && sc.at(sc.pos+1) == '[':
		if src, alt, end, ok := sc.matchImage(sc.pos); ok {
			sc.flush()
			sc.out = append(sc.out, NewImage(src, alt))
			sc.pos = end
			return
		}
		sc.text.WriteRune(r)
		sc.pos++

	case r == '$' && sc.at(sc.pos+1) == '$':
		if end := sc.findDisplayClose(sc.pos + 2); end >= 0 {
			sc.enterMath(stateDisplayMath, 2, end)
			return
		}
		sc.stray("$$")
		sc.pos += 2

	case r == '$':
		if end := sc.findInlineClose(sc.pos + 1); end > sc.pos+1 {
			sc.enterMath(stateInlineMath, 1, end)
			return
		}
		sc.stray("$")
		sc.pos++

	default:
		sc.text.WriteRune(r)
		sc.pos++
	}
}

func (sc *scanner) enterMath(next state, width, closeAt int) {
	sc.flush()
	sc.state = next
	sc.pos += width
	sc.closeAt = closeAt
}

func (sc *scanner) stepMath(kind Kind, width int) {
	sc.out = append(sc.out, Segment{Kind: kind, Text: string(sc.src[sc.pos:sc.closeAt])})
	sc.pos = sc.closeAt + width
	sc.state = stateText
}

// findInlineClose returns the index of the next unescaped "$" at or after
// from, or -1 when a paragraph break or the end of input comes first.
func (sc *scanner) findInlineClose(from int) int {
	for i := from; i < len(sc.src); i++ {
		switch sc.src[i] {
		case '\\':
			i++
		case '\n':
			if sc.at(i+1) == '\n' {
				return -1
			}
		case '$':
			return i
		}
	}
	return -1
}

// findDisplayClose returns the index of the next unescaped "$$" at or after
// from, or -1.
func (sc *scanner) findDisplayClose(from int) int {
	for i := from; i < len(sc.src); i++ {
		switch sc.src[i] {
		case '\\':
			i++
		case '$':
			if sc.at(i+1) == '$' {
				return i
			}
		}
	}
	return -1
}

// matchImage matches ![alt](src) starting at the '!' at index start. Alt
// may not contain ']' or a newline; src must be non-empty and contain no
// whitespace or ')'.
func (sc *scanner) matchImage(start int) (src, alt string, end int, ok bool) {
	i := start + 2
	altStart := i
	for i < len(sc.src) && sc.src[i] != ']' {
		if sc.src[i] == '\n' {
			return "", "", 0, false
		}
		i++
	}
	if i >= len(sc.src) || sc.at(i+1) != '(' {
		return "", "", 0, false
	}
	altEnd := i
	i += 2
	srcStart := i
	for i < len(sc.src) && sc.src[i] != ')' {
		if isSpace(sc.src[i]) {
			return "", "", 0, false
		}
		i++
	}
	if i >= len(sc.src) || i == srcStart {
		return "", "", 0, false
	}
	return string(sc.src[srcStart:i]), string(sc.src[altStart:altEnd]), i + 1, true
}

// stray records an unmatched delimiter as verbatim text.
func (sc *scanner) stray(delim string) {
	sc.flush()
	sc.emitText(delim, true)
}

// flush emits the pending text buffer.
func (sc *scanner) flush() {
	if sc.text.Len() == 0 {
		return
	}
	sc.emitText(sc.text.String(), false)
	sc.text.Reset()
}

// emitText appends text, merging with a preceding text segment of the same
// verbatim-ness.
func (sc *scanner) emitText(s string, verbatim bool) {
	if n := len(sc.out); n > 0 {
		last := &sc.out[n-1]
		if last.Kind == Text && last.Verbatim == verbatim {
			last.Text += s
			return
		}
	}
	sc.out = append(sc.out, Segment{Kind: Text, Text: s, Verbatim: verbatim})
}

// at returns the rune at index i, or 0 past the end.
func (sc *scanner) at(i int) rune {
	if i < 0 || i >= len(sc.src) {
		return 0
	}
	return sc.src[i]
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'
}
