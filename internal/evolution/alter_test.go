package evolution

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/pkg/types"
)

func structSchema() types.TableSchema {
	return types.NewSchema(
		types.Col("_struct", types.StructOf(
			types.Col("rename", types.BigintType),
			types.Col("keep", types.BigintType),
			types.Col("drop_and_add", types.BigintType),
			types.Col("CaseSensitive", types.BigintType),
		)),
		types.Col("_partition", types.BigintType),
	)
}

func TestRename(t *testing.T) {
	base := structSchema()

	next, err := Rename(base, types.ParsePath("_struct.rename"), "renamed")
	require.NoError(t, err)

	before, _ := base.Lookup(types.ParsePath("_struct.rename"))
	after, err := next.Lookup(types.ParsePath("_struct.renamed"))
	require.NoError(t, err)
	assert.Equal(t, before.FieldID, after.FieldID)
	assert.Equal(t, base.SchemaID+1, next.SchemaID)

	_, err = base.Lookup(types.ParsePath("_struct.rename"))
	assert.NoError(t, err, "rename must not mutate the input snapshot")

	_, err = Rename(base, types.ParsePath("_struct.keep"), "CaseSensitive")
	assert.True(t, errors.Is(err, types.ErrDuplicateColumn))

	_, err = Rename(base, types.ParsePath("_struct.missing"), "x")
	assert.True(t, errors.Is(err, types.ErrColumnNotFound))

	_, err = Rename(base, types.ParsePath("_partition"), "")
	assert.Error(t, err)
}

func TestDropAndAdd(t *testing.T) {
	base := structSchema()
	original, _ := base.Lookup(types.ParsePath("_struct.drop_and_add"))

	dropped, err := Drop(base, types.ParsePath("_struct.drop_and_add"))
	require.NoError(t, err)
	_, err = dropped.Lookup(types.ParsePath("_struct.drop_and_add"))
	assert.True(t, errors.Is(err, types.ErrColumnNotFound))

	added, err := Add(dropped, types.ParsePath("_struct.drop_and_add"), types.BigintType)
	require.NoError(t, err)
	readded, err := added.Lookup(types.ParsePath("_struct.drop_and_add"))
	require.NoError(t, err)

	assert.NotEqual(t, original.FieldID, readded.FieldID)
	assert.Equal(t, base.LastFieldID+1, readded.FieldID)

	s, _ := added.Lookup(types.ParsePath("_struct"))
	names := make([]string, len(s.Type.Fields))
	for i, f := range s.Type.Fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"rename", "keep", "CaseSensitive", "drop_and_add"}, names)
}

func TestAlterErrors(t *testing.T) {
	single := types.NewSchema(types.Col("only", types.BigintType))
	_, err := Drop(single, types.ParsePath("only"))
	assert.Error(t, err)

	_, err = Add(structSchema(), types.ParsePath("_partition"), types.BigintType)
	assert.True(t, errors.Is(err, types.ErrDuplicateColumn))

	_, err = Add(structSchema(), types.ParsePath("_partition.x"), types.BigintType)
	assert.True(t, errors.Is(err, types.ErrNotAStruct))

	_, err = Add(structSchema(), types.ParsePath("missing.x"), types.BigintType)
	assert.True(t, errors.Is(err, types.ErrColumnNotFound))
}

func TestTracker_ApplyDialectOps(t *testing.T) {
	ref := types.TableRef{Schema: "default", Name: "t"}
	tr := NewTracker(structSchema())

	ops := []dialect.Alter{
		dialect.RenameColumn(ref, "_struct.rename", "renamed"),
		dialect.DropColumn(ref, "_struct.drop_and_add"),
		dialect.AddColumn(ref, "_struct.drop_and_add", types.BigintType),
	}
	for _, op := range ops {
		_, err := tr.Apply(op)
		require.NoError(t, err, op.Kind.String())
	}

	state, err := tr.StateOf(types.ParsePath("_struct.renamed"))
	require.NoError(t, err)
	assert.Equal(t, StateRenamed, state)

	state, err = tr.StateOf(types.ParsePath("_struct.drop_and_add"))
	require.NoError(t, err)
	assert.Equal(t, StateReadded, state)

	state, err = tr.StateOf(types.ParsePath("_struct.keep"))
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)
}
