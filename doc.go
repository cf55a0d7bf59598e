// Package mathdoc reads, repairs, edits and renders flat math documents:
// prose interleaved with $inline$ and $$display$$ LaTeX and ![alt](src)
// image markers, persisted as a single string.
//
// # Quick Start
//
// Decode a document produced by the extraction service, then render it:
//
//	var rec mathdoc.Record
//	if err := mathdoc.DecodeExtraction(raw, &rec); err != nil {
//	    log.Fatal(err)
//	}
//	flat := rec.Prepared()
//
//	r := mathdoc.NewRenderer(mathdoc.SharedLoader(mathdoc.EngineConfig{}))
//	res, err := r.RenderWait(ctx, flat)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.HTML)
//
// # Pipeline
//
// Content moves through these stages:
//
//  1. JSON-escape repair before decoding (RepairJSON)
//  2. Control-character repair after decoding (RepairControlChars)
//  3. Unicode glyph normalization to command notation (NormalizeSymbols)
//  4. Segment scanning (Scan) and its inverse (Join)
//  5. Tree compilation (Compile) and serialization (Serialize)
//  6. Canonical comparison (Canonical, Equivalent)
//  7. HTML rendering with KaTeX in headless Chrome (Renderer), or a
//     plain-text fallback while the engine loads (Degrade)
//
// Stages 1 to 6 are pure functions: they never fail and never panic.
//
// # Engine Loading
//
// The KaTeX engine is expensive to start. A Loader starts it at most once
// and shares the result with every waiter; SharedLoader returns the
// process-wide instance. Renderer.Render never blocks on the engine: until
// it is ready, output is degraded and the load is triggered in the
// background. Region re-renders once the engine arrives and publishes only
// the newest result.
//
// # Editing
//
// Session hosts the tree an editor works on, tracks whether it differs
// from the saved document, and inserts uploaded images.
package mathdoc
