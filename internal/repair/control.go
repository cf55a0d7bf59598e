package repair

import (
	"strings"

	"github.com/alnah/go-mathdoc/internal/commands"
)

var controlChars = commands.ControlChars()

// ControlChars repairs already-decoded text in which command tokens were
// turned into control characters, e.g. "\x0crac{1}{2}" back to `\frac{1}{2}`.
// The control character and the letters after it must name a known command,
// so a real newline followed by "nothing" is left alone. Names that are also
// prose words are repaired only between $ delimiters: a tab before "o" in
// plain text stays a tab.
//
// Must run before every other stage: they assume commands start with a
// literal backslash.
func ControlChars(s string) string {
	if !strings.ContainsAny(s, controlChars) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	inMath := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if n := delimiterLen(s, i); n > 0 && (i == 0 || s[i-1] != '\\') {
			inMath = !inMath
			b.WriteString(s[i : i+n])
			i += n - 1
			continue
		}
		if name, ok := repairedName(c, s[i+1:], inMath); ok {
			b.WriteByte('\\')
			b.WriteString(name)
			i += len(name) - 1
			continue
		}
		b.WriteByte(c)
	}

	return b.String()
}

// repairedName returns the command name spelled by control character c and
// the letter run at the start of rest.
func repairedName(c byte, rest string, inMath bool) (string, bool) {
	letter, ok := commands.EscapeLetter(c)
	if !ok {
		return "", false
	}
	name := string(letter) + rest[:commands.LetterRun(rest)]
	switch commands.Classify(name) {
	case commands.AnyContext:
		return name, true
	case commands.MathOnly:
		return name, inMath
	default:
		return "", false
	}
}
