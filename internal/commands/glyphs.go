package commands

// Glyph maps a Unicode math character to its canonical replacement. Most
// replacements are commands; a few are plain text ("-" for U+2212) or small
// expressions ("^{2}" for U+00B2).
type Glyph struct {
	Rune        rune
	Replacement string
}

// glyphs is ordered: when two glyphs share a command, the first one is the
// glyph the plain-text fallback displays for that command.
var glyphs = []Glyph{
	// Operators and relations
	{'×', `\times`},
	{'÷', `\div`},
	{'±', `\pm`},
	{'∓', `\mp`},
	{'·', `\cdot`},
	{'⋅', `\cdot`},
	{'≤', `\leq`},
	{'≥', `\geq`},
	{'≠', `\neq`},
	{'≈', `\approx`},
	{'≡', `\equiv`},
	{'∝', `\propto`},
	{'∼', `\sim`},
	{'−', `-`},

	// Big operators and calculus
	{'√', `\sqrt`},
	{'∑', `\sum`},
	{'∏', `\prod`},
	{'∫', `\int`},
	{'∂', `\partial`},
	{'∇', `\nabla`},
	{'∞', `\infty`},

	// Sets and logic
	{'∈', `\in`},
	{'∉', `\notin`},
	{'⊂', `\subset`},
	{'⊆', `\subseteq`},
	{'∪', `\cup`},
	{'∩', `\cap`},
	{'∅', `\emptyset`},
	{'∀', `\forall`},
	{'∃', `\exists`},
	{'¬', `\neg`},
	{'∧', `\wedge`},
	{'∨', `\vee`},

	// Arrows
	{'→', `\rightarrow`},
	{'←', `\leftarrow`},
	{'↔', `\leftrightarrow`},
	{'⇒', `\Rightarrow`},
	{'⇔', `\Leftrightarrow`},

	// Geometry
	{'∠', `\angle`},
	{'⊥', `\perp`},
	{'∥', `\parallel`},
	{'△', `\triangle`},
	{'°', `^{\circ}`},

	// Superscripts and vulgar fractions
	{'¹', `^{1}`},
	{'²', `^{2}`},
	{'³', `^{3}`},
	{'½', `\frac{1}{2}`},
	{'⅓', `\frac{1}{3}`},
	{'⅔', `\frac{2}{3}`},
	{'¼', `\frac{1}{4}`},
	{'¾', `\frac{3}{4}`},

	// Greek
	{'α', `\alpha`},
	{'β', `\beta`},
	{'γ', `\gamma`},
	{'δ', `\delta`},
	{'ε', `\varepsilon`},
	{'θ', `\theta`},
	{'λ', `\lambda`},
	{'μ', `\mu`},
	{'π', `\pi`},
	{'ρ', `\rho`},
	{'σ', `\sigma`},
	{'τ', `\tau`},
	{'φ', `\varphi`},
	{'ω', `\omega`},
	{'Γ', `\Gamma`},
	{'Δ', `\Delta`},
	{'Θ', `\Theta`},
	{'Λ', `\Lambda`},
	{'Π', `\Pi`},
	{'Σ', `\Sigma`},
	{'Φ', `\Phi`},
	{'Ω', `\Omega`},
}

// symbolAliases adds fallback glyphs for commands that have no Unicode
// source in the glyph table but are common in generated content.
var symbolAliases = map[string]string{
	"le":        "≤",
	"ge":        "≥",
	"ne":        "≠",
	"to":        "→",
	"gets":      "←",
	"implies":   "⇒",
	"iff":       "⇔",
	"circ":      "°",
	"epsilon":   "ε",
	"phi":       "φ",
	"ldots":     "…",
	"dots":      "…",
	"cdots":     "⋯",
	"quad":      " ",
	"qquad":     "  ",
	"lt":        "<",
	"gt":        ">",
	"percent":   "%",
	"therefore": "∴",
	"because":   "∵",
	"cdotp":     "·",
}

// invisibleCommands render as nothing in the plain-text fallback; their
// braced argument (if any) survives brace stripping.
var invisibleCommands = map[string]struct{}{
	"left":         {},
	"right":        {},
	"displaystyle": {},
	"text":         {},
	"textbf":       {},
	"textit":       {},
	"textrm":       {},
	"mathrm":       {},
	"mathbf":       {},
	"mathit":       {},
	"mathbb":       {},
	"mathcal":      {},
	"mathsf":       {},
	"boldsymbol":   {},
	"operatorname": {},
	"big":          {},
	"Big":          {},
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'+': '⁺', '-': '⁻', 'n': 'ⁿ',
}

var (
	glyphIndex  = buildGlyphIndex()
	symbolIndex = buildSymbolIndex()
)

func buildGlyphIndex() map[rune]string {
	idx := make(map[rune]string, len(glyphs))
	for _, g := range glyphs {
		idx[g.Rune] = g.Replacement
	}
	return idx
}

func buildSymbolIndex() map[string]string {
	idx := make(map[string]string, len(glyphs)+len(symbolAliases))
	for _, g := range glyphs {
		if len(g.Replacement) < 2 || g.Replacement[0] != '\\' {
			continue
		}
		name := g.Replacement[1:]
		if LetterRun(name) != len(name) {
			continue
		}
		if _, seen := idx[name]; !seen {
			idx[name] = string(g.Rune)
		}
	}
	for name, sym := range symbolAliases {
		if _, seen := idx[name]; !seen {
			idx[name] = sym
		}
	}
	return idx
}

// Lookup returns the canonical replacement for a Unicode glyph.
func Lookup(r rune) (string, bool) {
	s, ok := glyphIndex[r]
	return s, ok
}

// IsGlyph reports whether r has a canonical replacement.
func IsGlyph(r rune) bool {
	_, ok := glyphIndex[r]
	return ok
}

// Symbol returns the display glyph for a command name (without backslash).
func Symbol(name string) (string, bool) {
	s, ok := symbolIndex[name]
	return s, ok
}

// IsInvisible reports whether the plain-text fallback drops the command name.
func IsInvisible(name string) bool {
	_, ok := invisibleCommands[name]
	return ok
}

// Superscript returns the superscript form of r, if one exists.
func Superscript(r rune) (rune, bool) {
	s, ok := superscripts[r]
	return s, ok
}
