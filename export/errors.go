package export

import "errors"

var (
	// ErrUnknownFormat indicates an unsupported export format or extension.
	ErrUnknownFormat = errors.New("export: unknown format")

	// ErrExportIO indicates the destination could not be written.
	ErrExportIO = errors.New("export: write failed")
)
