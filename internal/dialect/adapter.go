// Package dialect renders engine-neutral table operations as each engine's
// SQL and parses each engine's result sets back into the value model.
//
// Every engine difference lives in a variant behind Adapter: string literal
// grammar, native type spelling, array base index, table properties and
// metadata table naming. Shared rendering code asks the variant and never
// branches on the engine name.
package dialect

import (
	"fmt"

	"github.com/arkilian/enginecompat/internal/endpoint"
	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/internal/literal"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// Adapter is the capability interface of one engine.
type Adapter interface {
	Name() typemap.Engine
	Grammar() literal.Grammar

	// Catalog is the catalog the shared table lives in on this engine
	Catalog() string

	// Qualify renders the fully qualified table name
	Qualify(ref types.TableRef) string

	RenderCreate(op CreateTable) (string, error)
	RenderInsert(op Insert) (string, error)
	RenderSelect(op Select) (string, error)
	RenderAlter(op Alter) (string, error)
	RenderDrop(op DropTable) string
	RenderShowTables(op ShowTables) string

	// ElementIndex translates a logical 1-based array position into the
	// engine's subscript. Positions below 1 are rejected.
	ElementIndex(k int) (int, error)

	// ParseResultSet reorders raw columns to the requested order and
	// normalizes every cell with its column type. With no requested columns
	// the declared types of the result set are used.
	ParseResultSet(rs *endpoint.ResultSet, columns []ResultColumn) ([]value.Row, error)

	// ParseTableNames extracts table names from a ShowTables result.
	ParseTableNames(rs *endpoint.ResultSet) ([]string, error)
}

// syntax is what a variant supplies to the shared renderers.
type syntax interface {
	Adapter

	floatLiteral(text string, bits int) string
	decimalLiteral(text string, precision, scale int) string
	timestampLiteral(text string, zoned bool) string
	timeLiteral(text string) string
	arrayLiteral(elems []string) string
	mapLiteral(keys, values []string) string
	structLiteral(native string, names, values []string) string

	metadataTable(ref types.TableRef, meta MetadataTable) string
	likePattern(like string) string
}

// Default catalogs of the shared table.
const (
	DefaultTrinoCatalog = "iceberg"
	DefaultSparkCatalog = "iceberg_test"
)

// New returns the adapter of an engine. An empty catalog selects the
// engine's default catalog.
func New(engine typemap.Engine, catalog string) (Adapter, error) {
	switch engine {
	case typemap.Trino:
		return NewTrino(catalog), nil
	case typemap.Spark:
		return NewSpark(catalog), nil
	default:
		return nil, oerrors.NewInternalError(fmt.Sprintf("no dialect adapter for engine %q", engine), nil)
	}
}

func elementIndex(k, base int) (int, error) {
	if k < 1 {
		return 0, invalidf("element position %d: positions start at 1", k)
	}
	return k - 1 + base, nil
}
