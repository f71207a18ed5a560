package suite

import (
	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/internal/evolution"
	"github.com/arkilian/enginecompat/internal/scenario"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// IDBasedFieldMapping has Spark write a struct row, then rename one nested
// field and drop and re-add another. Each engine must read the historical
// row the way its identity policy for the format predicts: by field id the
// renamed field keeps its value and the re-added one is NULL, by name it is
// the other way round.
func IDBasedFieldMapping(format types.StorageFormat) scenario.Scenario {
	schema := types.NewSchema(
		types.Col("_struct", types.StructOf(
			types.Col("rename", types.BigintType),
			types.Col("keep", types.BigintType),
			types.Col("drop_and_add", types.BigintType),
			types.Col("CaseSensitive", types.BigintType),
		)),
		types.Col("_partition", types.BigintType),
	)
	written := rowOf(schema, []value.Value{
		value.Struct(
			value.F("rename", value.Int64(1)),
			value.F("keep", value.Int64(2)),
			value.F("drop_and_add", value.Int64(3)),
			value.F("CaseSensitive", value.Int64(4)),
		),
		value.Int64(1001),
	})

	return scenario.Scenario{
		Name:   name("id_based_field_mapping", string(format)),
		Table:  table("test_id_based_field_mapping", string(format)),
		Schema: schema,
		Format: format,
		Steps: []scenario.Step{
			scenario.On(typemap.Spark, scenario.Create(dialect.CreateTable{
				PartitionBy: []string{"_partition"},
				Rows:        [][]value.Value{written.Values()},
			})),
			// Nested field changes are rejected before they reach Trino
			scenario.On(typemap.Trino, scenario.Rename("_struct.keep", "kept")).Failing(scenario.FailsUnsupported()),
			scenario.On(typemap.Spark, scenario.Rename("_struct.rename", "renamed")),
			scenario.On(typemap.Spark, scenario.DropColumn("_struct.drop_and_add")),
			scenario.On(typemap.Spark, scenario.AddColumn("_struct.drop_and_add", types.BigintType)),
		},
		Assertions: []scenario.Assertion{{
			Name:  "historical row under the evolved schema",
			Query: scenario.ReadAll(),
			ExpectedBy: func(s *scenario.State, engine typemap.Engine) []value.Row {
				tr := s.Tracker()
				return evolution.PredictRows(tr.Initial(), tr.Current(), []value.Row{written}, s.Policy(engine))
			},
		}},
	}
}
