package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/enginecompat/internal/config"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// evolvedStruct renames _struct.rename, then drops and re-adds
// _struct.drop_and_add.
func evolvedStruct(t *testing.T) (written, read types.TableSchema) {
	t.Helper()
	tr := NewTracker(structSchema())
	_, err := tr.Rename(types.ParsePath("_struct.rename"), "renamed")
	require.NoError(t, err)
	_, err = tr.Drop(types.ParsePath("_struct.drop_and_add"))
	require.NoError(t, err)
	_, err = tr.Add(types.ParsePath("_struct.drop_and_add"), types.BigintType)
	require.NoError(t, err)
	return tr.Initial(), tr.Current()
}

func historicalRow() value.Row {
	return value.NewRow([]string{"_struct", "_partition"}, []value.Value{
		value.Struct(
			value.F("rename", value.Int64(1)),
			value.F("keep", value.Int64(2)),
			value.F("drop_and_add", value.Int64(3)),
			value.F("CaseSensitive", value.Int64(4)),
		),
		value.Int64(1001),
	})
}

func TestPredictRow_ByFieldID(t *testing.T) {
	written, read := evolvedStruct(t)

	got := PredictRow(written, read, historicalRow(), ByFieldID)
	want := value.NewRow([]string{"_struct", "_partition"}, []value.Value{
		value.Struct(
			value.F("renamed", value.Int64(1)),
			value.F("keep", value.Int64(2)),
			value.F("CaseSensitive", value.Int64(4)),
			value.F("drop_and_add", value.Null()),
		),
		value.Int64(1001),
	})
	assert.True(t, value.RowsEqual(want, got), "got %s, want %s", got, want)
}

func TestPredictRow_ByName(t *testing.T) {
	written, read := evolvedStruct(t)

	got := PredictRow(written, read, historicalRow(), ByName)
	want := value.NewRow([]string{"_struct", "_partition"}, []value.Value{
		value.Struct(
			value.F("renamed", value.Null()),
			value.F("keep", value.Int64(2)),
			value.F("CaseSensitive", value.Int64(4)),
			value.F("drop_and_add", value.Int64(3)),
		),
		value.Int64(1001),
	})
	assert.True(t, value.RowsEqual(want, got), "got %s, want %s", got, want)
}

func TestPredictPostEvolutionValue_TopLevel(t *testing.T) {
	base := types.NewSchema(types.Col("a", types.BigintType), types.Col("b", types.StringType))
	dropped, err := Drop(base, types.ParsePath("b"))
	require.NoError(t, err)
	readded, err := Add(dropped, types.ParsePath("b"), types.StringType)
	require.NoError(t, err)

	oldB, _ := base.Lookup(types.ParsePath("b"))
	newB, _ := readded.Lookup(types.ParsePath("b"))
	historical := value.String("before")

	assert.True(t, PredictPostEvolutionValue(historical, oldB, newB, ByFieldID).IsNull())
	assert.True(t, value.Equal(historical, PredictPostEvolutionValue(historical, oldB, newB, ByName)))
	assert.True(t, value.Equal(historical, PredictPostEvolutionValue(historical, oldB, oldB, ByFieldID)))
}

func TestPolicySet(t *testing.T) {
	set := DefaultPolicySet()
	assert.Equal(t, "name", set.For(typemap.Trino, types.FormatParquet).Name())
	assert.Equal(t, "field_id", set.For(typemap.Trino, types.FormatORC).Name())
	assert.Equal(t, "field_id", set.For(typemap.Spark, types.FormatParquet).Name())

	custom := set.With(typemap.Spark, types.FormatORC, ByName)
	assert.Equal(t, "name", custom.For(typemap.Spark, types.FormatORC).Name())
	assert.Equal(t, "field_id", set.For(typemap.Spark, types.FormatORC).Name(), "With must not modify the receiver")

	assert.Equal(t, "field_id", PolicySet{}.For(typemap.Trino, types.FormatORC).Name())
}

func TestPolicySetFromConfig(t *testing.T) {
	set, err := PolicySetFromConfig(DefaultPolicySet(), []config.PolicyConfig{
		{Engine: "Trino", Format: "parquet", Policy: "field_id"},
		{Engine: "spark", Format: "AVRO", Policy: "name"},
	})
	require.NoError(t, err)
	assert.Equal(t, "field_id", set.For(typemap.Trino, types.FormatParquet).Name())
	assert.Equal(t, "name", set.For(typemap.Spark, types.FormatAvro).Name())

	_, err = PolicySetFromConfig(DefaultPolicySet(), []config.PolicyConfig{{Engine: "trino", Format: "orc", Policy: "position"}})
	assert.Error(t, err)
	_, err = PolicySetFromConfig(DefaultPolicySet(), []config.PolicyConfig{{Engine: "trino", Format: "csv", Policy: "name"}})
	assert.Error(t, err)
}
