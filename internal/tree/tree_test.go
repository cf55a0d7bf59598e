package tree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func para(inlines ...Inline) *Paragraph { return &Paragraph{Inlines: inlines} }
func text(s string) *Text               { return &Text{Value: s} }
func math(s string) *InlineMath         { return &InlineMath{LaTeX: s} }
func br() *LineBreak                    { return &LineBreak{} }

var textoImageTexto = []Block{
	para(text("texto")),
	&ImageBlock{Src: "http://x/y.png", Alt: "a"},
	para(text("texto2")),
}

func TestCompile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []Block
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "only line breaks",
			input: "\n\n\n",
			want:  nil,
		},
		{
			name:  "inline math in prose",
			input: `$\frac{3}{4}$ de la pizza`,
			want:  []Block{para(math(`\frac{3}{4}`), text(" de la pizza"))},
		},
		{
			name:  "escaped dollar is literal text",
			input: `cuesta \$100`,
			want:  []Block{para(text("cuesta $100"))},
		},
		{
			name:  "paragraphs and soft breaks",
			input: "uno\ndos\n\ntres",
			want: []Block{
				para(text("uno"), br(), text("dos")),
				para(text("tres")),
			},
		},
		{
			name:  "many line breaks are one paragraph break",
			input: "a\n\n\n\nb",
			want:  []Block{para(text("a")), para(text("b"))},
		},
		{
			name:  "image glued to text becomes its own block",
			input: "![](https://cdn/x.png)Enunciado",
			want: []Block{
				&ImageBlock{Src: "https://cdn/x.png"},
				para(text("Enunciado")),
			},
		},
		{
			name:  "image inside paragraph splits it",
			input: "antes ![fig](u.png) después",
			want: []Block{
				para(text("antes ")),
				&ImageBlock{Src: "u.png", Alt: "fig"},
				para(text(" después")),
			},
		},
		{
			name:  "display math is block level",
			input: "sea\n$$x^2$$\nentonces",
			want: []Block{
				para(text("sea")),
				&DisplayMathBlock{LaTeX: "x^2"},
				para(text("entonces")),
			},
		},
		{
			name:  "paragraph break before inline math",
			input: "a\n\n$x$ b",
			want: []Block{
				para(text("a")),
				para(math("x"), text(" b")),
			},
		},
		{
			name:  "soft break next to inline math",
			input: "$x$\ny",
			want:  []Block{para(math("x"), br(), text("y"))},
		},
		{
			name:  "unmatched dollar merges into text",
			input: "tengo $5",
			want:  []Block{para(text("tengo $5"))},
		},
		{
			name:  "leading and trailing breaks absorbed",
			input: "\n\nhola\n\n",
			want:  []Block{para(text("hola"))},
		},
		{
			name:  "question with formula and diagram",
			input: "¿Cuánto es $\\frac{1}{2}+\\frac{1}{2}$?\n\n![diagrama](http://img/1.png)\n\nResponde V o F.",
			want: []Block{
				para(text("¿Cuánto es "), math(`\frac{1}{2}+\frac{1}{2}`), text("?")),
				&ImageBlock{Src: "http://img/1.png", Alt: "diagrama"},
				para(text("Responde V o F.")),
			},
		},
		{
			name:  "image glued on both sides",
			input: "texto![a](http://x/y.png)texto2",
			want:  textoImageTexto,
		},
		{
			name:  "image between single line breaks",
			input: "texto\n![a](http://x/y.png)\ntexto2",
			want:  textoImageTexto,
		},
		{
			name:  "image between blank lines",
			input: "texto\n\n![a](http://x/y.png)\n\ntexto2",
			want:  textoImageTexto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Compile(tt.input)
			if diff := cmp.Diff(tt.want, got.Blocks); diff != "" {
				t.Errorf("Compile(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestSerialize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{
			name: "empty",
			doc:  Document{},
			want: "",
		},
		{
			name: "dollar in text is escaped",
			doc:  Document{Blocks: []Block{para(text("cuesta $100"))}},
			want: `cuesta \$100`,
		},
		{
			name: "blocks separated by blank line",
			doc: Document{Blocks: []Block{
				&ImageBlock{Src: "https://cdn/x.png"},
				para(text("Enunciado")),
				&DisplayMathBlock{LaTeX: `\int_0^1 x\,dx`},
			}},
			want: "![](https://cdn/x.png)\n\nEnunciado\n\n$$\\int_0^1 x\\,dx$$",
		},
		{
			name: "inline content",
			doc:  Document{Blocks: []Block{para(math("a"), text(" y "), br(), math("b"))}},
			want: "$a$ y \n$b$",
		},
		{
			name: "trailing backslash before inline math",
			doc:  Document{Blocks: []Block{para(text(`C:\`), math("x"))}},
			want: `C:\ $x$`,
		},
		{
			name: "empty paragraph skipped",
			doc:  Document{Blocks: []Block{para(), para(text("x"))}},
			want: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Serialize(tt.doc); got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompileSerialize_WellFormedIsStable(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"hola",
		`$\frac{3}{4}$ de la pizza`,
		"![](https://cdn/x.png)\n\nEnunciado",
		"uno\ndos\n\ntres",
		`cuesta \$100 y $x^2$`,
		"a\n\n$$\\sum_i x_i$$\n\nb",
	}

	for _, in := range inputs {
		if got := Serialize(Compile(in)); got != in {
			t.Errorf("Serialize(Compile(%q)) = %q", in, got)
		}
	}
}

func TestOutline(t *testing.T) {
	t.Parallel()

	doc := Compile("![a](u.png)\n\n$x$ y\nz\n\n$$w$$")
	want := []Node{
		{Type: "image", Value: "a", Src: "u.png"},
		{Type: "paragraph", Children: []Node{
			{Type: "inline-math", Value: "x"},
			{Type: "text", Value: " y"},
			{Type: "line-break"},
			{Type: "text", Value: "z"},
		}},
		{Type: "display-math", Value: "w"},
	}
	if diff := cmp.Diff(want, doc.Outline()); diff != "" {
		t.Errorf("Outline() mismatch (-want +got):\n%s", diff)
	}
}

func TestSerialize_TrailingBackslashKeepsMath(t *testing.T) {
	t.Parallel()

	doc := Document{Blocks: []Block{para(text(`C:\`), math("x"))}}
	want := []Block{para(text(`C:\ `), math("x"))}
	if diff := cmp.Diff(want, Compile(Serialize(doc)).Blocks); diff != "" {
		t.Errorf("Compile(Serialize()) mismatch (-want +got):\n%s", diff)
	}
}
