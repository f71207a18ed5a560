package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/enginecompat/internal/endpoint"
	"github.com/arkilian/enginecompat/internal/endpoint/endpointtest"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

func TestParseResultSet_ReordersByName(t *testing.T) {
	rs := endpointtest.Result([]string{"_BIGINT", "_string"}, []any{int64(7), "a"})
	rows, err := NewTrino("").ParseResultSet(rs, []ResultColumn{
		{Name: "_string", Type: types.StringType},
		{Name: "_bigint", Type: types.BigintType},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `("a", 7)`, rows[0].String())
	assert.Equal(t, "_string", rows[0][0].Name)
}

func TestParseResultSet_FallsBackToPosition(t *testing.T) {
	rs := endpointtest.Result([]string{"_col0", "_col1"}, []any{"Pupper", "42"})
	rows, err := NewSpark("").ParseResultSet(rs, []ResultColumn{
		{Name: "second_pet", Type: types.StringType},
		{Name: "age", Type: types.IntegerType},
	})
	require.NoError(t, err)
	assert.True(t, value.RowsEqual(rows[0], value.NewRow(nil, []value.Value{value.String("Pupper"), value.Int32(42)})))

	_, err = NewSpark("").ParseResultSet(rs, []ResultColumn{
		{Name: "a", Type: types.StringType}, {Name: "b", Type: types.StringType}, {Name: "c", Type: types.StringType},
	})
	assert.Error(t, err, "more requested columns than returned")
}

func TestParseResultSet_RepeatedLabelsBindInOrder(t *testing.T) {
	schema := types.NewSchema(
		types.Col("s", types.StructOf(types.Col("x", types.StringType))),
		types.Col("x", types.BigintType),
	)
	sel := Select{Schema: schema, Projections: []Projection{Col("s", FieldStep("x")), Col("x")}}
	cols, err := sel.ResultColumns()
	require.NoError(t, err)
	require.Equal(t, "x", cols[0].Name)
	require.Equal(t, "x", cols[1].Name)

	rs := endpointtest.Result([]string{"x", "x"}, []any{"nested", int64(7)})
	rows, err := NewSpark("").ParseResultSet(rs, cols)
	require.NoError(t, err)
	want := value.NewRow(nil, []value.Value{value.String("nested"), value.Int64(7)})
	assert.True(t, value.RowsEqual(rows[0], want), rows[0].String())
}

func TestParseResultSet_DeclaredTypes(t *testing.T) {
	rs := endpointtest.Typed(endpointtest.Result([]string{"d", "m"},
		[]any{"123456.78", `{"a": 1}`}), "decimal(8,2)", "map(varchar, integer)")

	rows, err := NewTrino("").ParseResultSet(rs, nil)
	require.NoError(t, err)
	want := value.NewRow(nil, []value.Value{
		value.MustDecimal("123456.78", 8, 2),
		value.MustMap(value.Entry(value.String("a"), value.Int32(1))),
	})
	assert.True(t, value.RowsEqual(rows[0], want), rows[0].String())

	_, err = NewTrino("").ParseResultSet(endpointtest.Result([]string{"x"}, []any{"1"}), nil)
	assert.Error(t, err, "no declared type")
}

func TestParseResultSet_TimestampRenderingsAgree(t *testing.T) {
	cols := []ResultColumn{{Name: "_timestamptz", Type: types.TimestampTZType}}

	trino, err := NewTrino("").ParseResultSet(
		endpointtest.Result([]string{"_timestamptz"}, []any{"2020-06-28 12:16:00.456 UTC"}), cols)
	require.NoError(t, err)
	spark, err := NewSpark("").ParseResultSet(
		endpointtest.Result([]string{"_timestamptz"}, []any{"2020-06-28 12:16:00.456"}), cols)
	require.NoError(t, err)

	assert.True(t, value.EqualRows(trino, spark, true))
}

func TestParseResultSet_NormalizeError(t *testing.T) {
	rs := endpointtest.Result([]string{"d"}, []any{"1.234"})
	_, err := NewTrino("").ParseResultSet(rs, []ResultColumn{{Name: "d", Type: types.Decimal(8, 2)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1 column d")
}

func TestParseTableNames(t *testing.T) {
	trino := endpointtest.Result([]string{"Table"}, []any{"test_a"}, []any{"test_b"})
	names, err := NewTrino("").ParseTableNames(trino)
	require.NoError(t, err)
	assert.Equal(t, []string{"test_a", "test_b"}, names)

	spark := endpointtest.Result([]string{"namespace", "tableName", "isTemporary"}, []any{"default", "test_a", false})
	names, err = NewSpark("").ParseTableNames(spark)
	require.NoError(t, err)
	assert.Equal(t, []string{"test_a"}, names)

	names, err = NewSpark("").ParseTableNames(&endpoint.ResultSet{})
	require.NoError(t, err)
	assert.Empty(t, names)
}
