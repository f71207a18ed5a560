package literal

import (
	"fmt"
	"net/url"
	"strings"
)

// PartitionEncoding encodes partition values into data file path segments.
type PartitionEncoding interface {
	Name() string
	Encode(raw string) string
	Decode(encoded string) (string, error)
}

// IcebergPath is the form encoding the table format applies to partition
// values in data file paths: ASCII letters, digits and ".-*_" are kept,
// space becomes "+", every other byte of the UTF-8 encoding becomes %XX.
var IcebergPath PartitionEncoding = formEncoding{}

// HivePath is the Hive escapePathName encoding: path-unsafe ASCII characters
// become %XX, everything else is kept.
var HivePath PartitionEncoding = hiveEncoding{}

// EncodePartitionValue encodes a partition value the way the table format
// writes it into data file paths.
func EncodePartitionValue(raw string) string {
	return IcebergPath.Encode(raw)
}

// PartitionPath renders the "name=value" path segment of a partition column.
func PartitionPath(enc PartitionEncoding, column, raw string) string {
	return enc.Encode(column) + "=" + enc.Encode(raw)
}

const upperHex = "0123456789ABCDEF"

type formEncoding struct{}

func (formEncoding) Name() string { return "iceberg-path" }

func (formEncoding) Encode(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '.' || c == '-' || c == '*' || c == '_':
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&15])
		}
	}
	return b.String()
}

func (formEncoding) Decode(encoded string) (string, error) {
	raw, err := url.QueryUnescape(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid encoded partition value %q: %w", encoded, err)
	}
	return raw, nil
}

type hiveEncoding struct{}

func (hiveEncoding) Name() string { return "hive-path" }

func hiveEscaped(c byte) bool {
	if c < 0x20 || c == 0x7F {
		return true
	}
	switch c {
	case '"', '#', '%', '\'', '*', '/', ':', '=', '?', '\\', '{', '[', ']', '^':
		return true
	}
	return false
}

func (hiveEncoding) Encode(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if hiveEscaped(c) {
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Decode reverses Encode. A "%" not followed by two hex digits stands for
// itself, as in Hive's unescapePathName.
func (hiveEncoding) Decode(encoded string) (string, error) {
	var b strings.Builder
	b.Grow(len(encoded))
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c == '%' && i+2 < len(encoded) && isHex(encoded[i+1]) && isHex(encoded[i+2]) {
			b.WriteByte(unhex(encoded[i+1])<<4 | unhex(encoded[i+2]))
			i += 2
			continue
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
