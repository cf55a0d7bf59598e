package markup

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func verbatim(s string) Segment { return Segment{Kind: Text, Text: s, Verbatim: true} }

func TestScan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "plain text",
			input: "hola mundo",
			want:  []Segment{NewText("hola mundo")},
		},
		{
			name:  "escaped dollar is literal",
			input: `cuesta \$100`,
			want:  []Segment{NewText("cuesta $100")},
		},
		{
			name:  "inline math",
			input: `el área es $3\times 4$.`,
			want:  []Segment{NewText("el área es "), NewInlineMath(`3\times 4`), NewText(".")},
		},
		{
			name:  "display math",
			input: "antes\n$$\\frac{a}{b}$$\ndespués",
			want:  []Segment{NewText("antes\n"), NewDisplayMath(`\frac{a}{b}`), NewText("\ndespués")},
		},
		{
			name:  "display wins over inline",
			input: "$$x$$",
			want:  []Segment{NewDisplayMath("x")},
		},
		{
			name:  "display may span paragraphs",
			input: "$$a\n\nb$$",
			want:  []Segment{NewDisplayMath("a\n\nb")},
		},
		{
			name:  "single dollar inside display",
			input: "$$a $ b$$",
			want:  []Segment{NewDisplayMath("a $ b")},
		},
		{
			name:  "escaped dollar inside math",
			input: `$\$5$`,
			want:  []Segment{NewInlineMath(`\$5`)},
		},
		{
			name:  "adjacent inline math",
			input: "$a$$b$",
			want:  []Segment{NewInlineMath("a"), NewInlineMath("b")},
		},
		{
			name:  "image",
			input: "![diagrama](https://cdn.example.com/a.png)",
			want:  []Segment{NewImage("https://cdn.example.com/a.png", "diagrama")},
		},
		{
			name:  "image with empty alt",
			input: "![](u.png)",
			want:  []Segment{NewImage("u.png", "")},
		},
		{
			name:  "image between text",
			input: "ver ![](u.png) aquí",
			want:  []Segment{NewText("ver "), NewImage("u.png", ""), NewText(" aquí")},
		},
		{
			name:  "image src with space is text",
			input: "![a](b c)",
			want:  []Segment{NewText("![a](b c)")},
		},
		{
			name:  "image with empty src is text",
			input: "![a]()",
			want:  []Segment{NewText("![a]()")},
		},
		{
			name:  "alt with newline is text",
			input: "![a\nb](u)",
			want:  []Segment{NewText("![a\nb](u)")},
		},
		{
			name:  "unterminated image is text",
			input: "![a](u",
			want:  []Segment{NewText("![a](u")},
		},
		{
			name:  "bang alone",
			input: "¡hola!",
			want:  []Segment{NewText("¡hola!")},
		},
		{
			name:  "unmatched inline dollar is verbatim",
			input: "tengo $5 pesos",
			want:  []Segment{NewText("tengo "), verbatim("$"), NewText("5 pesos")},
		},
		{
			name:  "unmatched display dollar is verbatim",
			input: "$$x",
			want:  []Segment{verbatim("$$"), NewText("x")},
		},
		{
			name:  "inline does not cross paragraph break",
			input: "$a\n\nb$",
			want:  []Segment{verbatim("$"), NewText("a\n\nb"), verbatim("$")},
		},
		{
			name:  "inline may cross single newline",
			input: "$a\nb$",
			want:  []Segment{NewInlineMath("a\nb")},
		},
		{
			name:  "trailing dollar",
			input: "fin $",
			want:  []Segment{NewText("fin "), verbatim("$")},
		},
		{
			name:  "three dollars",
			input: "$$$",
			want:  []Segment{verbatim("$$$")},
		},
		{
			name:  "trailing backslash",
			input: `a\`,
			want:  []Segment{NewText(`a\`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Scan(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Scan(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestScan_TextSegmentsNeverAdjacentWithSameVerbatim(t *testing.T) {
	t.Parallel()

	segs := Scan("a $ b $$ c \\$ d")
	for i := 1; i < len(segs); i++ {
		prev, cur := segs[i-1], segs[i]
		if prev.Kind == Text && cur.Kind == Text && prev.Verbatim == cur.Verbatim {
			t.Errorf("segments %d and %d should have been merged: %+v %+v", i-1, i, prev, cur)
		}
	}
}

func TestJoin_RoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"hola",
		`cuesta \$100`,
		`$\frac{3}{4}$ de la pizza`,
		"antes\n\n$$x^2$$\n\ndespués",
		"![](https://x/y.png)\n\nEnunciado",
		"tengo $5",
		"$$",
		"$",
		`\`,
		`\\$`,
		`a\$$x`,
		"$a\n\nb$",
		"![a](b c) y ![](d)",
		"$$a $ b$$ $c$",
		"mezcla $x$ \\$ $$y$$ $ ![z](w)",
	}

	for _, in := range inputs {
		if got := Join(Scan(in)); got != in {
			t.Errorf("Join(Scan(%q)) = %q, want %q", in, got, in)
		}
	}
}

func TestJoin_RoundTripRandom(t *testing.T) {
	t.Parallel()

	alphabet := []string{"a", "x", " ", "$", "$$", `\`, "!", "[", "]", "(", ")", "\n", "é", "{", "}"}
	rng := rand.New(rand.NewSource(7))

	for n := 0; n < 2000; n++ {
		var b strings.Builder
		for k := rng.Intn(24); k > 0; k-- {
			b.WriteString(alphabet[rng.Intn(len(alphabet))])
		}
		in := b.String()
		if got := Join(Scan(in)); got != in {
			t.Fatalf("Join(Scan(%q)) = %q", in, got)
		}
	}
}

func FuzzScanRoundTrip(f *testing.F) {
	for _, seed := range []string{"", "$x$", "$$y$$", `\$`, "![a](b)", "$", "a\n\n$b$"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		if got := Join(Scan(in)); got != in {
			t.Errorf("Join(Scan(%q)) = %q", in, got)
		}
	})
}

func TestJoinEscaped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"stray dollar escaped", "tengo $5", `tengo \$5`},
		{"stray display escaped", "$$x", `\$\$x`},
		{"math untouched", "$x$", "$x$"},
		{"escaped stays escaped", `\$`, `\$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := JoinEscaped(Scan(tt.input))
			if got != tt.want {
				t.Errorf("JoinEscaped(Scan(%q)) = %q, want %q", tt.input, got, tt.want)
			}
			for _, seg := range Scan(got) {
				if seg.Verbatim {
					t.Errorf("JoinEscaped(Scan(%q)) left a verbatim segment %+v", tt.input, seg)
				}
			}
		})
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want string
	}{
		{Text, "text"},
		{InlineMath, "inline-math"},
		{DisplayMath, "display-math"},
		{Image, "image"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestSegmentIsBlock(t *testing.T) {
	t.Parallel()

	if !NewImage("u", "").IsBlock() || !NewDisplayMath("x").IsBlock() {
		t.Error("image and display math should be blocks")
	}
	if NewText("a").IsBlock() || NewInlineMath("x").IsBlock() {
		t.Error("text and inline math should not be blocks")
	}
}
