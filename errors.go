package url2pdf

import "errors"

// Sentinel errors returned by the library.
var (
	// ErrClosed is returned when attempting to use a closed [Converter].
	ErrClosed = errors.New("url2pdf: converter is closed")

	// ErrInvalidURL is returned for list entries that are not absolute
	// http or https URLs.
	ErrInvalidURL = errors.New("url2pdf: invalid url")
)
