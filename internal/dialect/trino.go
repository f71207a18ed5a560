package dialect

import (
	"strings"

	"github.com/arkilian/enginecompat/internal/endpoint"
	"github.com/arkilian/enginecompat/internal/literal"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// Trino is the adapter of the ANSI-flavoured engine: doubled-quote literals,
// 1-based subscripts, table properties in a WITH clause.
type Trino struct {
	catalog string
}

// NewTrino returns a Trino adapter. An empty catalog selects "iceberg".
func NewTrino(catalog string) *Trino {
	if catalog == "" {
		catalog = DefaultTrinoCatalog
	}
	return &Trino{catalog: catalog}
}

func (t *Trino) Name() typemap.Engine     { return typemap.Trino }
func (t *Trino) Grammar() literal.Grammar { return literal.DoubledQuote }
func (t *Trino) Catalog() string          { return t.catalog }

func (t *Trino) Qualify(ref types.TableRef) string {
	return qualify(t, ref)
}

// ElementIndex returns k: subscripts are 1-based.
func (t *Trino) ElementIndex(k int) (int, error) {
	return elementIndex(k, 1)
}

func (t *Trino) tableProperties(op CreateTable) (string, error) {
	var props []string
	if op.Format != "" {
		if err := typemap.Format(typemap.Trino, op.Format); err != nil {
			return "", err
		}
		props = append(props, "format = "+t.Grammar().Quote(string(op.Format)))
	}
	if len(op.PartitionBy) > 0 {
		cols := make([]string, len(op.PartitionBy))
		for i, c := range op.PartitionBy {
			cols[i] = t.Grammar().Quote(c)
		}
		props = append(props, "partitioning = ARRAY["+strings.Join(cols, ", ")+"]")
	}
	if len(op.Properties) > 0 {
		keys := sortedProperties(op.Properties)
		vals := make([]string, len(keys))
		for i, k := range keys {
			vals[i] = t.Grammar().Quote(op.Properties[k])
			keys[i] = t.Grammar().Quote(k)
		}
		props = append(props, "extra_properties = "+t.mapLiteral(keys, vals))
	}
	if len(props) == 0 {
		return "", nil
	}
	return " WITH (" + strings.Join(props, ", ") + ")", nil
}

func (t *Trino) RenderCreate(op CreateTable) (string, error) {
	with, err := t.tableProperties(op)
	if err != nil {
		return "", err
	}

	if op.Mode == CreateAndInsert {
		cols, err := columnDefs(t, op.Schema)
		if err != nil {
			return "", err
		}
		return "CREATE TABLE " + t.Qualify(op.Table) + " (" + cols + ")" + with, nil
	}

	var rows [][]value.Value
	if op.Mode == CreateAsSelect {
		rows = op.Rows
	}
	source, err := renderSource(t, op.Schema, rows)
	if err != nil {
		return "", err
	}
	stmt := "CREATE TABLE " + t.Qualify(op.Table) + with + " AS " + source
	if op.Mode == CreateAsSelectNoData {
		stmt += " WITH NO DATA"
	}
	return stmt, nil
}

func (t *Trino) RenderInsert(op Insert) (string, error) { return renderInsert(t, op) }
func (t *Trino) RenderSelect(op Select) (string, error) { return renderSelect(t, op) }
func (t *Trino) RenderAlter(op Alter) (string, error)   { return renderAlter(t, op) }
func (t *Trino) RenderDrop(op DropTable) string         { return renderDrop(t, op) }
func (t *Trino) RenderShowTables(op ShowTables) string  { return renderShowTables(t, op) }

func (t *Trino) ParseResultSet(rs *endpoint.ResultSet, columns []ResultColumn) ([]value.Row, error) {
	return parseResultSet(t.Name(), rs, columns)
}

// ParseTableNames reads the "Table" column.
func (t *Trino) ParseTableNames(rs *endpoint.ResultSet) ([]string, error) {
	return parseTableNames(rs, "Table")
}

func (t *Trino) floatLiteral(text string, bits int) string {
	if bits == 32 {
		return "REAL '" + text + "'"
	}
	return "DOUBLE '" + text + "'"
}

func (t *Trino) decimalLiteral(text string, precision, scale int) string {
	return "DECIMAL '" + text + "'"
}

func (t *Trino) timestampLiteral(text string, zoned bool) string {
	if zoned {
		return "TIMESTAMP '" + text + " UTC'"
	}
	return "TIMESTAMP '" + text + "'"
}

func (t *Trino) timeLiteral(text string) string {
	return "TIME '" + text + "'"
}

func (t *Trino) arrayLiteral(elems []string) string {
	return "ARRAY[" + strings.Join(elems, ", ") + "]"
}

func (t *Trino) mapLiteral(keys, values []string) string {
	return "MAP(" + t.arrayLiteral(keys) + ", " + t.arrayLiteral(values) + ")"
}

// structLiteral casts an anonymous ROW to the named row type.
func (t *Trino) structLiteral(native string, names, values []string) string {
	return "CAST(ROW(" + strings.Join(values, ", ") + ") AS " + native + ")"
}

// metadataTable renders "table$snapshots" as a single quoted identifier.
func (t *Trino) metadataTable(ref types.TableRef, meta MetadataTable) string {
	return qualify(t, types.TableRef{Schema: ref.Schema, Name: ref.Name + "$" + string(meta)})
}

func (t *Trino) likePattern(like string) string { return like }
