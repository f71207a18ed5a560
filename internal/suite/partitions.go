package suite

import (
	"strconv"

	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/internal/literal"
	"github.com/arkilian/enginecompat/internal/scenario"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// PartitionedRead has one engine write a table partitioned on a string
// column and both engines read a single partition back.
func PartitionedRead(writer typemap.Engine, format types.StorageFormat) scenario.Scenario {
	schema := stringBigintSchema()
	rows := [][]value.Value{
		{value.String("a"), value.Int64(1001)},
		{value.String("b"), value.Int64(1002)},
		{value.String("c"), value.Int64(1003)},
	}

	return scenario.Scenario{
		Name:   name("partitioned_read", string(writer)+"_writes", string(format)),
		Table:  table("test", string(writer), "partitioned_table", string(format)),
		Schema: schema,
		Format: format,
		Steps: []scenario.Step{
			scenario.On(writer, scenario.Create(dialect.CreateTable{
				PartitionBy: []string{"_string"},
				Rows:        rows,
			})),
		},
		Assertions: []scenario.Assertion{{
			Name: "partition b",
			Query: scenario.Read(dialect.Select{
				Where: []dialect.Predicate{dialect.Eq("_string", value.String("b"))},
			}),
			Expected: []value.Row{rowOf(schema, rows[1])},
		}},
	}
}

// specialCharacterVariant is how the special character partitions are
// written.
type specialCharacterVariant struct {
	name   string
	mode   dialect.CreateMode
	writer typemap.Engine
	idType types.LogicalType
}

var specialCharacterVariants = []specialCharacterVariant{
	{name: "trino_ctas", mode: dialect.CreateAsSelect, writer: typemap.Trino, idType: types.IntegerType},
	{name: "trino_insert", mode: dialect.CreateAndInsert, writer: typemap.Trino, idType: types.BigintType},
	{name: "spark_insert", mode: dialect.CreateAndInsert, writer: typemap.Spark, idType: types.BigintType},
}

// SpecialCharacterPartitions writes one partition per special character
// value, created by Trino and filled by Trino CTAS, a Trino insert or a Spark
// insert. Both engines must see every row and find each partition by an
// equality filter on its value.
func SpecialCharacterPartitions(format types.StorageFormat) []scenario.Scenario {
	out := make([]scenario.Scenario, 0, len(specialCharacterVariants))
	for _, variant := range specialCharacterVariants {
		out = append(out, specialCharacterPartitions(variant, format))
	}
	return out
}

func specialCharacterPartitions(variant specialCharacterVariant, format types.StorageFormat) scenario.Scenario {
	schema := types.NewSchema(
		types.Col("id", variant.idType),
		types.Col("part_col", types.StringType),
	)

	rows := make([][]value.Value, len(literal.SpecialCharacterValues))
	expected := make([]value.Row, len(literal.SpecialCharacterValues))
	for i, v := range literal.SpecialCharacterValues {
		id := value.Int64(int64(i))
		if variant.idType.ID == types.TypeInteger {
			id = value.Int32(int32(i))
		}
		rows[i] = []value.Value{id, value.String(v)}
		expected[i] = rowOf(schema, rows[i])
	}

	create := dialect.CreateTable{Mode: variant.mode, PartitionBy: []string{"part_col"}}
	var steps []scenario.Step
	if variant.mode == dialect.CreateAsSelect {
		create.Rows = rows
		steps = append(steps, scenario.On(typemap.Trino, scenario.Create(create)))
	} else {
		steps = append(steps,
			scenario.On(typemap.Trino, scenario.Create(create)),
			scenario.On(variant.writer, scenario.Insert(rows...)),
		)
	}

	assertions := []scenario.Assertion{{
		Name:     "every partition",
		Query:    scenario.ReadAll(),
		Expected: expected,
	}}
	one := []value.Row{value.NewRow([]string{"count"}, []value.Value{value.Int64(1)})}
	for i, v := range literal.SpecialCharacterValues {
		assertions = append(assertions, scenario.Assertion{
			Name: "partition " + strconv.Itoa(i) + " " + strconv.Quote(v),
			Query: scenario.Read(dialect.Select{
				Projections: []dialect.Projection{dialect.CountAll()},
				Where:       []dialect.Predicate{dialect.Eq("part_col", value.String(v))},
			}),
			Expected: one,
		})
	}

	return scenario.Scenario{
		Name:       name("special_character_partitions", variant.name, string(format)),
		Table:      table("test_special_character_partitions", variant.name, string(format)),
		Schema:     schema,
		Format:     format,
		Steps:      steps,
		Assertions: assertions,
	}
}
