package backup

import "errors"

var (
	// ErrNoFileName indicates neither the username nor the user id produced a usable file name.
	ErrNoFileName = errors.New("cannot derive export file name")

	// ErrNotRegularFile indicates the import path is a directory or device.
	ErrNotRegularFile = errors.New("import path is not a regular file")
)
