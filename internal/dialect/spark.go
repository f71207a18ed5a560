package dialect

import (
	"fmt"
	"strings"

	"github.com/arkilian/enginecompat/internal/endpoint"
	"github.com/arkilian/enginecompat/internal/literal"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// Spark is the adapter of the Hive-flavoured engine: backslash-escaped
// literals, 0-based subscripts, USING ICEBERG with TBLPROPERTIES.
type Spark struct {
	catalog string
}

// NewSpark returns a Spark adapter. An empty catalog selects "iceberg_test".
func NewSpark(catalog string) *Spark {
	if catalog == "" {
		catalog = DefaultSparkCatalog
	}
	return &Spark{catalog: catalog}
}

func (s *Spark) Name() typemap.Engine     { return typemap.Spark }
func (s *Spark) Grammar() literal.Grammar { return literal.Backslash }
func (s *Spark) Catalog() string          { return s.catalog }

func (s *Spark) Qualify(ref types.TableRef) string {
	return qualify(s, ref)
}

// ElementIndex returns k-1: subscripts are 0-based.
func (s *Spark) ElementIndex(k int) (int, error) {
	return elementIndex(k, 0)
}

func (s *Spark) tableClauses(op CreateTable) (string, error) {
	clauses := " USING ICEBERG"
	if len(op.PartitionBy) > 0 {
		cols := make([]string, len(op.PartitionBy))
		for i, c := range op.PartitionBy {
			cols[i] = ident(s, c)
		}
		clauses += " PARTITIONED BY (" + strings.Join(cols, ", ") + ")"
	}

	var props []string
	if op.Format != "" {
		if err := typemap.Format(typemap.Spark, op.Format); err != nil {
			return "", err
		}
		props = append(props, "'write.format.default' = "+s.Grammar().Quote(strings.ToLower(string(op.Format))))
	}
	for _, k := range sortedProperties(op.Properties) {
		props = append(props, s.Grammar().Quote(k)+" = "+s.Grammar().Quote(op.Properties[k]))
	}
	if len(props) > 0 {
		clauses += " TBLPROPERTIES (" + strings.Join(props, ", ") + ")"
	}
	return clauses, nil
}

func (s *Spark) RenderCreate(op CreateTable) (string, error) {
	clauses, err := s.tableClauses(op)
	if err != nil {
		return "", err
	}

	if op.Mode == CreateAndInsert {
		cols, err := columnDefs(s, op.Schema)
		if err != nil {
			return "", err
		}
		return "CREATE TABLE " + s.Qualify(op.Table) + " (" + cols + ")" + clauses, nil
	}

	var rows [][]value.Value
	if op.Mode == CreateAsSelect {
		rows = op.Rows
	}
	source, err := renderSource(s, op.Schema, rows)
	if err != nil {
		return "", err
	}
	if op.Mode == CreateAsSelectNoData {
		// No WITH NO DATA clause: an empty source keeps the shape
		source = "SELECT * FROM (" + source + ") src LIMIT 0"
	}
	return "CREATE TABLE " + s.Qualify(op.Table) + clauses + " AS " + source, nil
}

func (s *Spark) RenderInsert(op Insert) (string, error) { return renderInsert(s, op) }
func (s *Spark) RenderSelect(op Select) (string, error) { return renderSelect(s, op) }
func (s *Spark) RenderAlter(op Alter) (string, error)   { return renderAlter(s, op) }
func (s *Spark) RenderDrop(op DropTable) string         { return renderDrop(s, op) }
func (s *Spark) RenderShowTables(op ShowTables) string  { return renderShowTables(s, op) }

func (s *Spark) ParseResultSet(rs *endpoint.ResultSet, columns []ResultColumn) ([]value.Row, error) {
	return parseResultSet(s.Name(), rs, columns)
}

// ParseTableNames reads the "tableName" column; the result also carries
// namespace and isTemporary.
func (s *Spark) ParseTableNames(rs *endpoint.ResultSet) ([]string, error) {
	return parseTableNames(rs, "tableName")
}

func (s *Spark) floatLiteral(text string, bits int) string {
	if bits == 32 {
		return "CAST('" + text + "' AS FLOAT)"
	}
	return "CAST('" + text + "' AS DOUBLE)"
}

// decimalLiteral uses the BD suffix, which keeps every digit of the text.
func (s *Spark) decimalLiteral(text string, precision, scale int) string {
	return fmt.Sprintf("CAST(%sBD AS DECIMAL(%d,%d))", text, precision, scale)
}

// timestampLiteral renders the instant in UTC. The engine's timestamp is
// zoned; an unzoned one never reaches here because the type has no mapping.
func (s *Spark) timestampLiteral(text string, zoned bool) string {
	if zoned {
		return "TIMESTAMP '" + text + "UTC'"
	}
	return "TIMESTAMP '" + text + "'"
}

func (s *Spark) timeLiteral(text string) string {
	return "'" + text + "'"
}

func (s *Spark) arrayLiteral(elems []string) string {
	return "array(" + strings.Join(elems, ", ") + ")"
}

func (s *Spark) mapLiteral(keys, values []string) string {
	pairs := make([]string, len(keys))
	for i := range keys {
		pairs[i] = keys[i] + ", " + values[i]
	}
	return "map(" + strings.Join(pairs, ", ") + ")"
}

func (s *Spark) structLiteral(native string, names, values []string) string {
	parts := make([]string, len(names))
	for i := range names {
		parts[i] = s.Grammar().Quote(names[i]) + ", " + values[i]
	}
	return "named_struct(" + strings.Join(parts, ", ") + ")"
}

// metadataTable renders catalog.schema.table.snapshots.
func (s *Spark) metadataTable(ref types.TableRef, meta MetadataTable) string {
	return qualify(s, ref) + "." + ident(s, string(meta))
}

// likePattern translates SQL wildcards into the engine's pattern syntax,
// where * matches any run of characters and _ is literal.
func (s *Spark) likePattern(like string) string {
	return strings.ReplaceAll(like, "%", "*")
}
