package scenario

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/internal/endpoint/endpointtest"
	"github.com/arkilian/enginecompat/internal/evolution"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/pkg/types"
)

func TestRun_RecordsSchemaHistory(t *testing.T) {
	ctx := context.Background()
	h, err := evolution.OpenHistory(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer h.Close()

	r := newTestRunner(t, endpointtest.New(), endpointtest.New(), func(o *Options) {
		o.History = h
	})
	sc := Scenario{
		Name:   "evolve",
		Table:  types.TableRef{Name: "evolve"},
		Schema: smallSchema(),
		Steps: []Step{
			On(typemap.Spark, Create(dialect.CreateTable{})),
			On(typemap.Spark, Rename("_string", "renamed")),
			On(typemap.Trino, DropColumn("_bigint")),
			On(typemap.Spark, AddColumn("_bigint", types.BigintType)),
		},
	}
	res := r.Run(ctx, sc)
	require.Equal(t, StatusPass, res.Status, res.Diagnostic)

	records, err := h.List(ctx, res.Table.String())
	require.NoError(t, err)
	require.Len(t, records, 4)

	added, err := h.AddedColumns(ctx, res.Table.String(), 1, 4)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "_bigint", added[0].Name)
	assert.Equal(t, 3, added[0].FieldID)
}
