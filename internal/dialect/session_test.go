package dialect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/enginecompat/internal/endpoint/endpointtest"
	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/internal/value"
)

func TestSession_CreateModes(t *testing.T) {
	rows := [][]value.Value{{value.String("a"), value.Int64(1)}}

	tests := []struct {
		mode       CreateMode
		statements int
	}{
		{CreateAndInsert, 2},
		{CreateAsSelect, 1},
		{CreateAsSelectNoData, 2},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			fake := endpointtest.New()
			s := NewSession(NewTrino(""), fake, nil)

			err := s.Create(context.Background(), CreateTable{Table: table, Schema: smallSchema(), Mode: tt.mode, Rows: rows})
			require.NoError(t, err)

			executed := fake.Executed()
			assert.Len(t, executed, tt.statements)
			assert.Contains(t, executed[0], "CREATE TABLE")
			if tt.statements == 2 {
				assert.Contains(t, executed[1], "INSERT INTO")
			}
		})
	}
}

func TestSession_EngineFailure(t *testing.T) {
	fake := endpointtest.New().Fails(`FROM`, "File format not supported for Iceberg: AVRO")
	s := NewSession(NewTrino(""), fake, nil)

	_, _, err := s.Select(context.Background(), Select{Table: table, Schema: smallSchema()})
	require.Error(t, err)

	eq := oerrors.AsEngineQueryError(err)
	require.NotNil(t, eq)
	assert.Equal(t, "trino", eq.Engine)
	assert.Equal(t, "File format not supported for Iceberg: AVRO", eq.RawMessage)
	assert.Contains(t, eq.SQL, `"iceberg"."default"."t"`)
	assert.ErrorIs(t, err, oerrors.ErrEngineQuery)
}

func TestSession_PreflightErrorsSkipTheEngine(t *testing.T) {
	fake := endpointtest.New()
	s := NewSession(NewTrino(""), fake, nil)

	err := s.Alter(context.Background(), DropColumn(table, "_struct.drop_and_add"))
	require.Error(t, err)
	assert.True(t, oerrors.IsPreflight(err))
	assert.Empty(t, fake.Executed())
}

func TestSession_SelectAndShowTables(t *testing.T) {
	fake := endpointtest.New().
		Returns(`^SELECT`, endpointtest.Result([]string{"_string", "_bigint"}, []any{"a", int64(1)})).
		Returns(`^SHOW TABLES`, endpointtest.Result([]string{"namespace", "tableName", "isTemporary"},
			[]any{"default", "t", false}))
	s := NewSession(NewSpark(""), fake, nil)
	ctx := context.Background()

	rows, raw, err := s.Select(ctx, Select{Table: table, Schema: smallSchema()})
	require.NoError(t, err)
	assert.Equal(t, 1, raw.Len())
	assert.True(t, value.RowsEqual(rows[0], value.NewRow(nil, []value.Value{value.String("a"), value.Int64(1)})))

	names, err := s.ShowTables(ctx, ShowTables{Schema: "default", Like: "t%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, names)

	require.NoError(t, s.Drop(ctx, DropTable{Table: table, IfExists: true}))
	assert.Equal(t, "spark", s.Engine())
}
