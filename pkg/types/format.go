package types

import (
	"fmt"
	"strings"
)

// StorageFormat is the data file format of a table.
type StorageFormat string

const (
	FormatParquet StorageFormat = "PARQUET"
	FormatORC     StorageFormat = "ORC"
	FormatAvro    StorageFormat = "AVRO"
)

// AllStorageFormats lists every format the table format can write.
func AllStorageFormats() []StorageFormat {
	return []StorageFormat{FormatParquet, FormatORC, FormatAvro}
}

// ParseStorageFormat accepts a format name in any case.
func ParseStorageFormat(s string) (StorageFormat, error) {
	switch StorageFormat(strings.ToUpper(strings.TrimSpace(s))) {
	case FormatParquet:
		return FormatParquet, nil
	case FormatORC:
		return FormatORC, nil
	case FormatAvro:
		return FormatAvro, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStorageFormat, s)
	}
}
