package mathdoc_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/go-mathdoc"
)

// Example decodes a payload whose LaTeX backslashes were not escaped for
// JSON, then prepares and compares the document.
func Example() {
	raw := []byte(`{"text": "$\frac{3}{4}$ de la pizza; el área es 3×4"}`)

	var rec mathdoc.Record
	if err := mathdoc.DecodeExtraction(raw, &rec); err != nil {
		fmt.Println("error:", err)
		return
	}

	flat := rec.Prepared()
	fmt.Println(flat)
	fmt.Println(mathdoc.Equivalent(flat, mathdoc.Serialize(mathdoc.Compile(flat))))
	// Output:
	// $\frac{3}{4}$ de la pizza; el área es $3\times 4$
	// true
}

// ExampleScan lists the segments of a flat document.
func ExampleScan() {
	for _, seg := range mathdoc.Scan(`cuesta \$5: $x^2$ ![fig](a.png)`) {
		fmt.Printf("%s %q\n", seg.Kind, seg.Text)
	}
	// Output:
	// text "cuesta $5: "
	// inline-math "x^2"
	// text " "
	// image "fig"
}

// ExampleDegrade shows the plain-text fallback used while the engine loads.
func ExampleDegrade() {
	fmt.Println(mathdoc.Degrade(`$\frac{1}{2}$ de $x^{2}$ kg`))
	// Output: 1/2 de x² kg
}

// ExampleRenderer_Render renders without an engine.
func ExampleRenderer_Render() {
	r := mathdoc.NewRenderer(nil)
	res, err := r.Render(context.Background(), "sea $x^2$")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(strings.TrimSpace(res.HTML))
	fmt.Println(res.Degraded)
	// Output:
	// <p>sea <span class="math-fallback">x²</span></p>
	// true
}
