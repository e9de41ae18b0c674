package dts

import "errors"

// Shape model errors. All of them abort the current export.
var (
	// ErrInvalidGeometry reports malformed vertex or face data.
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrEmptyShape reports that nothing eligible was supplied for export.
	ErrEmptyShape = errors.New("empty shape: nothing to export")
	// ErrDanglingReference reports an index that escapes its target table.
	ErrDanglingReference = errors.New("dangling reference")
)
