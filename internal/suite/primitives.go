package suite

import (
	"time"

	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/internal/scenario"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// primitiveColumns are the primitive types both engines map. Spark has no
// unzoned timestamp, its TIMESTAMP is the zoned one.
func primitiveColumns(tsColumn string) []types.Column {
	return []types.Column{
		types.Col("_string", types.StringType),
		types.Col("_bigint", types.BigintType),
		types.Col("_integer", types.IntegerType),
		types.Col("_real", types.RealType),
		types.Col("_double", types.DoubleType),
		types.Col("_short_decimal", types.Decimal(8, 2)),
		types.Col("_long_decimal", types.Decimal(38, 19)),
		types.Col("_boolean", types.BooleanType),
		types.Col(tsColumn, types.TimestampTZType),
		types.Col("_date", types.DateType),
	}
}

func primitiveValues(ts value.Value) []value.Value {
	return []value.Value{
		value.String("a_string"),
		value.Int64(1000000000000000),
		value.Int32(1000000000),
		value.Float32(10000000.123),
		value.Float64(100000000000.123),
		value.MustDecimal("123456.78", 8, 2),
		value.MustDecimal("1234567890123456789.0123456789012345678", 38, 19),
		value.Boolean(true),
		ts,
		value.DateOf(1950, time.June, 28),
	}
}

func rowOf(schema types.TableSchema, values []value.Value) value.Row {
	return value.NewRow(schema.Names(), values)
}

// TrinoReadingSparkData has Spark create and fill a table of every primitive
// type, and Trino read it back, including the empty table and its snapshots
// before the first insert.
func TrinoReadingSparkData(format types.StorageFormat) scenario.Scenario {
	schema := types.NewSchema(primitiveColumns("_timestamp")...)
	values := primitiveValues(value.TimestampTZ(time.Date(2020, time.June, 28, 14, 16, 0, 456000000, time.UTC)))

	return scenario.Scenario{
		Name:   name("trino_reading_spark_data", string(format)),
		Table:  table("test_trino_reading_primitive_types", string(format)),
		Schema: schema,
		Format: format,
		Steps: []scenario.Step{
			scenario.On(typemap.Spark, scenario.Create(dialect.CreateTable{})),
			scenario.Verify(scenario.Assertion{
				Name: "no snapshots before the first insert",
				Query: scenario.Read(dialect.Select{
					Metadata:    dialect.MetadataSnapshots,
					Projections: []dialect.Projection{dialect.Col("snapshot_id").Typed(types.BigintType)},
				}),
				Engines:  []typemap.Engine{typemap.Trino},
				Expected: []value.Row{},
			}),
			scenario.Verify(scenario.Assertion{
				Name:     "empty table",
				Query:    scenario.ReadAll(),
				Expected: []value.Row{},
			}),
			scenario.On(typemap.Spark, scenario.Insert(values)),
		},
		Assertions: []scenario.Assertion{{
			Name:     "primitive row",
			Query:    scenario.ReadAll(),
			Expected: []value.Row{rowOf(schema, values)},
		}},
	}
}

// SparkReadingTrinoData has Trino create a table of every primitive type
// Spark can read, in each create mode, and both engines read it back. The
// zoned timestamp is written in a non-UTC zone and read as the same instant.
func SparkReadingTrinoData(format types.StorageFormat, mode dialect.CreateMode) scenario.Scenario {
	schema := types.NewSchema(primitiveColumns("_timestamptz")...)
	warsaw := time.FixedZone("Europe/Warsaw", 2*3600)
	values := primitiveValues(value.TimestampTZ(time.Date(2021, time.August, 3, 8, 32, 21, 123456000, warsaw)))

	return scenario.Scenario{
		Name:   name("spark_reading_trino_data", string(format), modeName(mode)),
		Table:  table("test_spark_reading_primitive_types", string(format), modeName(mode)),
		Schema: schema,
		Format: format,
		Steps: []scenario.Step{
			scenario.On(typemap.Trino, scenario.Create(dialect.CreateTable{
				Mode: mode,
				Rows: [][]value.Value{values},
			})),
		},
		Assertions: []scenario.Assertion{{
			Name:  "primitive row",
			Query: scenario.ReadAll(),
			Expected: []value.Row{rowOf(schema, primitiveValues(
				value.TimestampTZ(time.Date(2021, time.August, 3, 6, 32, 21, 123456000, time.UTC)),
			))},
		}},
	}
}

// UnsupportedFileFormat has Spark write a table in a format Trino cannot
// read. Trino must reject both reads and writes with its documented message.
func UnsupportedFileFormat(format types.StorageFormat) scenario.Scenario {
	schema := types.NewSchema(types.Col("x", types.BigintType))
	row := []value.Value{value.Int64(42)}

	failure := scenario.FailsWith("")
	if e, ok := typemap.FailureFor(typemap.Trino, format); ok {
		failure = scenario.FailsLike(e)
	}

	return scenario.Scenario{
		Name:   name("unsupported_file_format", string(format)),
		Table:  table("test_trino_unsupported_file_format", string(format)),
		Schema: schema,
		Format: format,
		Steps: []scenario.Step{
			scenario.On(typemap.Spark, scenario.Create(dialect.CreateTable{Rows: [][]value.Value{row}})),
			scenario.On(typemap.Trino, scenario.Insert(row)).Failing(failure),
		},
		Assertions: []scenario.Assertion{
			{
				Name:     "spark reads its own table",
				Query:    scenario.ReadAll(),
				Engines:  []typemap.Engine{typemap.Spark},
				Expected: []value.Row{rowOf(schema, row)},
			},
			{
				Name:    "trino rejects the format",
				Query:   scenario.ReadAll(),
				Engines: []typemap.Engine{typemap.Trino},
				Fails:   map[typemap.Engine]*scenario.Failure{typemap.Trino: failure},
			},
		},
	}
}
