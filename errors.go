package mathdoc

import "errors"

// Sentinel errors for library operations.
var (
	ErrEngineLoad     = errors.New("typesetting engine failed to load")
	ErrTypeset        = errors.New("typesetting failed")
	ErrInvalidJSON    = errors.New("invalid extraction JSON")
	ErrMissingField   = errors.New("extraction field missing or not a string")
	ErrLoaderClosed   = errors.New("loader is closed")
	ErrImageUpload    = errors.New("image upload failed")
	ErrEmptyUploadURL = errors.New("image upload returned an empty URL")
)
