// Package pipeline implements the flat-document read path.
//
// This package handles preparation, HTML rendering and page assembly:
//   - Preparation (control-character repair, line endings, Unicode glyphs)
//   - Prose to HTML via a restricted Goldmark instance (paragraphs only)
//   - Math typesetting through a Typesetter, with per-formula fallback
//   - Degraded plain-text rendering used until the engine is ready
//   - Standalone page assembly with stylesheet injection
//
// Typesetting itself lives in internal/typeset, which drives KaTeX in a
// headless browser (go-rod). Keeping the engine behind the Typesetter
// interface lets the pipeline run with a fake in tests and with the
// degraded typesetter before the engine has loaded.
package pipeline
