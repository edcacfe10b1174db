package execctx

import "errors"

// Context validation errors.
var (
	// ErrMissingRoot indicates the document root is required but not set.
	ErrMissingRoot = errors.New("execution context: document root is required")

	// ErrMissingRange indicates the range is required but not set.
	ErrMissingRange = errors.New("execution context: range is required")

	// ErrDetachedRange indicates the range markers are not in the document.
	ErrDetachedRange = errors.New("execution context: range is not in the document")

	// ErrMissingArg indicates a required command argument is absent.
	ErrMissingArg = errors.New("execution context: missing argument")
)
