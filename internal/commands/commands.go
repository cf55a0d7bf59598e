// Package commands holds the command-name tables shared by the repair stages,
// the Unicode normalizer and the degraded renderer.
//
// Keeping the tables in one place prevents the three consumers from drifting
// apart: a command added here is repaired before and after JSON decoding,
// produced by glyph normalization and displayed by the plain-text fallback.
package commands

import "strings"

// Match classifies a command name that starts with a JSON escape letter.
type Match int

const (
	// NoMatch means the escape is kept: the letters are prose.
	NoMatch Match = iota
	// AnyContext means the name is a command wherever it appears.
	AnyContext
	// MathOnly means the name is also a prose word ("to", "ne") and is a
	// command only between math delimiters.
	MathOnly
)

// escapeControls maps each colliding JSON escape letter to its decoded byte.
var escapeControls = map[byte]byte{
	'b': '\b',
	'f': '\f',
	'n': '\n',
	'r': '\r',
	't': '\t',
}

// openLetters never start prose: backspace and form feed do not occur in
// generated text, so any letter run after them is a command (\bigl, \boxed,
// \frac, \forall).
const openLetters = "bf"

// collidingCommands lists, per remaining escape letter, command names
// (without the backslash) that start with it. Prose words that follow a line
// break or tab in Spanish text are absent ("ni" is "nor").
var collidingCommands = map[byte][]string{
	'n': {
		"nabla", "natural", "ncong", "nearrow", "neg", "neq", "newline", "nexists",
		"ngeq", "ngtr", "nleftarrow", "nleq", "nless", "nmid", "nonumber", "not",
		"notin", "nparallel", "nrightarrow", "nsim", "nsubseteq", "nsupseteq", "nwarrow",
	},
	'r': {
		"rangle", "rbrace", "rbrack", "rceil", "rfloor", "rgroup", "rho", "rmoustache",
		"rtimes", "rVert", "rvert",
	},
	't': {
		"tan", "tanh", "tau", "tbinom", "tfrac", "therefore", "theta", "thinspace",
		"tilde", "times", "top", "tt",
	},
}

// commandStems are prefixes that only start command names. Every letter run
// beginning with a stem is a command: \texttt, \textstyle, \rightharpoonup.
var commandStems = map[byte][]string{
	'r': {"right"},
	't': {"text", "triangle"},
}

// mathOnlyCommands are short command names that are also prose words.
var mathOnlyCommands = map[string]struct{}{
	"ne": {},
	"nu": {},
	"to": {},
}

var commandIndex = buildCommandIndex()

func buildCommandIndex() map[string]struct{} {
	idx := make(map[string]struct{})
	for _, names := range collidingCommands {
		for _, name := range names {
			idx[name] = struct{}{}
		}
	}
	return idx
}

// Classify reports whether name (a full letter run without backslash, e.g.
// "frac" or "texttt") is a command whose first letter is a JSON escape
// letter. The whole run is the command name, as in LaTeX.
func Classify(name string) Match {
	if len(name) < 2 || !IsEscapeLetter(name[0]) || LetterRun(name) != len(name) {
		return NoMatch
	}
	if strings.IndexByte(openLetters, name[0]) >= 0 {
		return AnyContext
	}
	if _, ok := commandIndex[name]; ok {
		return AnyContext
	}
	for _, stem := range commandStems[name[0]] {
		if strings.HasPrefix(name, stem) {
			return AnyContext
		}
	}
	if _, ok := mathOnlyCommands[name]; ok {
		return MathOnly
	}
	return NoMatch
}

// EscapeLetter returns the JSON escape letter that decodes to control.
func EscapeLetter(control byte) (byte, bool) {
	for letter, c := range escapeControls {
		if c == control {
			return letter, true
		}
	}
	return 0, false
}

// IsEscapeLetter reports whether c is a JSON escape letter that can swallow
// the start of a command.
func IsEscapeLetter(c byte) bool {
	_, ok := escapeControls[c]
	return ok
}

// ControlChars returns the set of control characters the repair table knows.
func ControlChars() string {
	var b strings.Builder
	for _, letter := range []byte("bfnrt") {
		b.WriteByte(escapeControls[letter])
	}
	return b.String()
}

// IsLetter reports whether c is an ASCII letter, the only bytes allowed in a
// command name.
func IsLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// LetterRun returns the length of the run of ASCII letters at the start of s.
func LetterRun(s string) int {
	n := 0
	for n < len(s) && IsLetter(s[n]) {
		n++
	}
	return n
}
