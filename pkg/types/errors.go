package types

import "errors"

// Type and schema errors
var (
	// ErrInvalidType is returned when a logical type text cannot be parsed
	ErrInvalidType = errors.New("invalid logical type")

	// ErrColumnNotFound is returned when a column path does not resolve in a schema
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn is returned when a schema would contain two columns with the same name
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrNotAStruct is returned when a nested path walks through a non-struct column
	ErrNotAStruct = errors.New("column is not a struct")

	// ErrInvalidStorageFormat is returned for unknown file format names
	ErrInvalidStorageFormat = errors.New("invalid storage format")
)
