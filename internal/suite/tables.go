package suite

import (
	"fmt"
	"strings"

	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/internal/scenario"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

func stringBigintSchema() types.TableSchema {
	return types.NewSchema(
		types.Col("_string", types.StringType),
		types.Col("_bigint", types.BigintType),
	)
}

// tableGone asserts the scenario table no longer shows up on either engine.
func tableGone() scenario.Assertion {
	return scenario.Assertion{
		Name:     "table is gone",
		Query:    scenario.List("{table}"),
		Expected: []value.Row{},
	}
}

// SparkCreatesTrinoDrops checks Trino can drop a table Spark created.
func SparkCreatesTrinoDrops() scenario.Scenario {
	return scenario.Scenario{
		Name:   "spark_creates_trino_drops",
		Table:  table("test_spark_creates_trino_drops"),
		Schema: stringBigintSchema(),
		Steps: []scenario.Step{
			scenario.On(typemap.Spark, scenario.Create(dialect.CreateTable{})),
			scenario.On(typemap.Trino, scenario.Drop()),
		},
		Assertions: []scenario.Assertion{tableGone()},
	}
}

// TrinoCreatesSparkDrops checks Spark can drop a table Trino created.
func TrinoCreatesSparkDrops() scenario.Scenario {
	return scenario.Scenario{
		Name:   "trino_creates_spark_drops",
		Table:  table("test_trino_creates_spark_drops"),
		Schema: stringBigintSchema(),
		Steps: []scenario.Step{
			scenario.On(typemap.Trino, scenario.Create(dialect.CreateTable{})),
			scenario.On(typemap.Spark, scenario.Drop()),
		},
		Assertions: []scenario.Assertion{tableGone()},
	}
}

// ShowTables has each engine create one table and both engines list the
// pair.
func ShowTables() scenario.Scenario {
	schema := types.NewSchema(types.Col("_integer", types.IntegerType))
	return scenario.Scenario{
		Name:   "show_tables",
		Table:  table("test_table_listing"),
		Schema: schema,
		Steps: []scenario.Step{
			scenario.On(typemap.Spark, scenario.Create(dialect.CreateTable{Table: types.TableRef{Name: "for_spark"}})),
			scenario.On(typemap.Trino, scenario.Create(dialect.CreateTable{Table: types.TableRef{Name: "for_trino"}})),
		},
		Assertions: []scenario.Assertion{{
			Name:  "both tables listed",
			Query: scenario.List("{table}_for_%"),
			ExpectedBy: func(s *scenario.State, _ typemap.Engine) []value.Row {
				return []value.Row{
					scenario.TableNameRow(s.Related("for_spark").Name),
					scenario.TableNameRow(s.Related("for_trino").Name),
				}
			},
		}},
	}
}

// ObjectStorageLocationProvider has Spark create a table whose data files
// live under an overridden path. Trino writes to it and reads it, the data
// file lands under the override, and Trino refuses to drop the table.
func ObjectStorageLocationProvider(format types.StorageFormat, dataPath string) scenario.Scenario {
	schema := stringBigintSchema()
	row := []value.Value{value.String("a_string"), value.Int64(1000000000000000)}

	return scenario.Scenario{
		Name:   name("object_storage_location_provider", string(format)),
		Table:  table("test_object_storage_location_provider", string(format)),
		Schema: schema,
		Format: format,
		Steps: []scenario.Step{
			scenario.On(typemap.Spark, scenario.Create(dialect.CreateTable{
				Properties: map[string]string{
					"write.object-storage.enabled": "true",
					"write.object-storage.path":    dataPath,
				},
			})),
			scenario.On(typemap.Trino, scenario.Insert(row)),
			scenario.Verify(scenario.Assertion{
				Name:     "row visible",
				Query:    scenario.ReadAll(),
				Expected: []value.Row{rowOf(schema, row)},
			}),
			scenario.Verify(scenario.Assertion{
				Name: "data file under the override path",
				Query: scenario.Read(dialect.Select{
					Metadata:    dialect.MetadataFiles,
					Projections: []dialect.Projection{dialect.Col("file_path").Typed(types.StringType)},
				}),
				Engines: []typemap.Engine{typemap.Trino},
				Check:   filesUnder(dataPath),
			}),
			scenario.On(typemap.Trino, scenario.Drop()).
				Failing(scenario.FailsContaining("contains Iceberg path override properties and cannot be dropped from Trino")),
		},
	}
}

// filesUnder checks the files metadata lists exactly one data file below path.
func filesUnder(path string) func(*scenario.State, typemap.Engine, []value.Row) error {
	return func(_ *scenario.State, _ typemap.Engine, rows []value.Row) error {
		if len(rows) != 1 {
			return fmt.Errorf("expected 1 data file, got %d", len(rows))
		}
		v, _ := rows[0].Get("file_path")
		if !strings.Contains(v.Str(), path) {
			return fmt.Errorf("data file %s is not under %s", v.Str(), path)
		}
		return nil
	}
}
