package suite

import (
	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/internal/scenario"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// CompositeTypes has one engine write a row of map, array and struct columns
// and both engines dereference one element of each.
func CompositeTypes(writer typemap.Engine, format types.StorageFormat) scenario.Scenario {
	schema := types.NewSchema(
		types.Col("doc_id", types.StringType),
		types.Col("info", types.MapOf(types.StringType, types.IntegerType)),
		types.Col("pets", types.ArrayOf(types.StringType)),
		types.Col("user_info", types.StructOf(
			types.Col("name", types.StringType),
			types.Col("surname", types.StringType),
			types.Col("age", types.IntegerType),
			types.Col("gender", types.StringType),
		)),
	)
	row := []value.Value{
		value.String("Doc213"),
		value.MustMap(
			value.Entry(value.String("age"), value.Int32(28)),
			value.Entry(value.String("children"), value.Int32(3)),
		),
		value.Array(value.String("Dog"), value.String("Cat"), value.String("Pig")),
		value.Struct(
			value.F("name", value.String("Santa")),
			value.F("surname", value.String("Claus")),
			value.F("age", value.Int32(1000)),
			value.F("gender", value.String("MALE")),
		),
	}

	return scenario.Scenario{
		Name:   name("composite_types", string(writer)+"_writes", string(format)),
		Table:  table("test", string(writer), "composite_types", string(format)),
		Schema: schema,
		Format: format,
		Steps: []scenario.Step{
			scenario.On(writer, scenario.Create(dialect.CreateTable{Rows: [][]value.Value{row}})),
		},
		Assertions: []scenario.Assertion{
			{
				Name:     "whole row",
				Query:    scenario.ReadAll(),
				Expected: []value.Row{rowOf(schema, row)},
			},
			{
				Name: "dereferenced elements",
				Query: scenario.Read(dialect.Select{Projections: []dialect.Projection{
					dialect.Col("doc_id"),
					dialect.Col("info", dialect.KeyStep(value.String("age"))).As("age"),
					dialect.Col("pets", dialect.ElementStep(2)).As("pet"),
					dialect.Col("user_info", dialect.FieldStep("surname")),
				}}),
				Expected: []value.Row{value.NewRow(
					[]string{"doc_id", "age", "pet", "surname"},
					[]value.Value{value.String("Doc213"), value.Int32(28), value.String("Cat"), value.String("Claus")},
				)},
			},
		},
	}
}

// namedNumber is a struct<name string, number integer> under the given
// field names.
func namedNumber(nameField, numberField string) types.LogicalType {
	return types.StructOf(
		types.Col(nameField, types.StringType),
		types.Col(numberField, types.IntegerType),
	)
}

type pair struct {
	name   string
	number int32
}

func namedNumbers(nameField, numberField string, pairs ...pair) value.Value {
	elems := make([]value.Value, len(pairs))
	for i, p := range pairs {
		elems[i] = value.Struct(
			value.F(nameField, value.String(p.name)),
			value.F(numberField, value.Int32(p.number)),
		)
	}
	return value.Array(elems...)
}

// NestedTypes has one engine write maps of arrays of structs nested three
// levels deep and both engines dereference leaves through every nesting
// shape. Element positions are 1-based; each adapter translates them.
func NestedTypes(writer typemap.Engine, format types.StorageFormat) scenario.Scenario {
	mapOfStructs := func(n, num string) types.LogicalType {
		return types.MapOf(types.StringType, types.ArrayOf(namedNumber(n, num)))
	}
	schema := types.NewSchema(
		types.Col("doc_id", types.StringType),
		types.Col("nested_map", mapOfStructs("sname", "snumber")),
		types.Col("nested_array", types.ArrayOf(mapOfStructs("mname", "mnumber"))),
		types.Col("nested_struct", types.StructOf(
			types.Col("name", types.StringType),
			types.Col("complicated", types.ArrayOf(mapOfStructs("mname", "mnumber"))),
		)),
	)

	m := func(k string, v value.Value) value.Value {
		return value.MustMap(value.Entry(value.String(k), v))
	}
	row := []value.Value{
		value.String("Doc213"),
		m("s1", namedNumbers("sname", "snumber", pair{"ASName1", 201}, pair{"ASName2", 202})),
		value.Array(
			m("m1", namedNumbers("mname", "mnumber", pair{"MAS1Name1", 301}, pair{"MAS1Name2", 302})),
			m("m2", namedNumbers("mname", "mnumber", pair{"MAS2Name1", 401}, pair{"MAS2Name2", 402})),
		),
		value.Struct(
			value.F("name", value.String("S1")),
			value.F("complicated", value.Array(
				m("m1", namedNumbers("mname", "mnumber", pair{"SAMA1Name1", 301}, pair{"SAMA1Name2", 302})),
				m("m2", namedNumbers("mname", "mnumber", pair{"SAMA2Name1", 401}, pair{"SAMA2Name2", 402})),
			)),
		),
	}

	key := func(k string) dialect.Step { return dialect.KeyStep(value.String(k)) }
	at := dialect.ElementStep
	field := dialect.FieldStep

	return scenario.Scenario{
		Name:   name("nested_types", string(writer)+"_writes", string(format)),
		Table:  table("test", string(writer), "nested_types", string(format)),
		Schema: schema,
		Format: format,
		Steps: []scenario.Step{
			scenario.On(writer, scenario.Create(dialect.CreateTable{Rows: [][]value.Value{row}})),
		},
		Assertions: []scenario.Assertion{{
			Name: "nested leaves",
			Query: scenario.Read(dialect.Select{Projections: []dialect.Projection{
				dialect.Col("doc_id"),
				dialect.Col("nested_map", key("s1"), at(2), field("sname")).As("map_name"),
				dialect.Col("nested_map", key("s1"), at(1), field("snumber")).As("map_number"),
				dialect.Col("nested_array", at(2), key("m2"), at(1), field("mname")).As("array_name"),
				dialect.Col("nested_array", at(1), key("m1"), at(2), field("mnumber")).As("array_number"),
				dialect.Col("nested_struct", field("complicated"), at(1), key("m1"), at(1), field("mname")).As("struct_name"),
				dialect.Col("nested_struct", field("complicated"), at(2), key("m2"), at(2), field("mnumber")).As("struct_number"),
			}}),
			Expected: []value.Row{value.NewRow(
				[]string{"doc_id", "map_name", "map_number", "array_name", "array_number", "struct_name", "struct_number"},
				[]value.Value{
					value.String("Doc213"),
					value.String("ASName2"),
					value.Int32(201),
					value.String("MAS2Name1"),
					value.Int32(302),
					value.String("SAMA1Name1"),
					value.Int32(402),
				},
			)},
		}},
	}
}
