package typeset

import "errors"

// Sentinel errors for engine operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrKaTeXLoad      = errors.New("failed to load KaTeX")
	ErrTypeset        = errors.New("typesetting failed")
	ErrEngineClosed   = errors.New("engine is closed")
)
