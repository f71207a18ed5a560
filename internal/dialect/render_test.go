package dialect

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

var table = types.TableRef{Schema: "default", Name: "t"}

func smallSchema() types.TableSchema {
	return types.NewSchema(
		types.Col("_string", types.StringType),
		types.Col("_bigint", types.BigintType),
	)
}

func nestedSchema() types.TableSchema {
	return types.NewSchema(
		types.Col("id", types.IntegerType),
		types.Col("info", types.MapOf(types.StringType, types.IntegerType)),
		types.Col("pets", types.ArrayOf(types.StringType)),
		types.Col("user_info", types.StructOf(
			types.Col("name", types.StringType),
			types.Col("surname", types.StringType),
		)),
	)
}

func TestNew(t *testing.T) {
	trino, err := New("trino", "")
	require.NoError(t, err)
	assert.Equal(t, "iceberg", trino.Catalog())

	spark, err := New("spark", "custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", spark.Catalog())

	_, err = New("hive", "")
	require.Error(t, err)
}

func TestRenderCreate(t *testing.T) {
	row := []value.Value{value.String("a_string"), value.Int64(1000)}

	tests := []struct {
		name    string
		adapter Adapter
		op      CreateTable
		want    string
		wantErr error
	}{
		{
			name:    "trino_create_with_properties",
			adapter: NewTrino(""),
			op: CreateTable{Table: table, Schema: smallSchema(), Format: types.FormatORC,
				PartitionBy: []string{"_string"}},
			want: `CREATE TABLE "iceberg"."default"."t" ("_string" varchar, "_bigint" bigint) WITH (format = 'ORC', partitioning = ARRAY['_string'])`,
		},
		{
			name:    "spark_create_with_properties",
			adapter: NewSpark(""),
			op: CreateTable{Table: table, Schema: smallSchema(), Format: types.FormatORC,
				PartitionBy: []string{"_string"}, Properties: map[string]string{"write.object-storage.enabled": "true"}},
			want: "CREATE TABLE `iceberg_test`.`default`.`t` (`_string` string, `_bigint` bigint) USING ICEBERG PARTITIONED BY (`_string`) " +
				"TBLPROPERTIES ('write.format.default' = 'orc', 'write.object-storage.enabled' = 'true')",
		},
		{
			name:    "trino_extra_properties",
			adapter: NewTrino(""),
			op:      CreateTable{Table: table, Schema: smallSchema(), Properties: map[string]string{"k": "v"}},
			want:    `CREATE TABLE "iceberg"."default"."t" ("_string" varchar, "_bigint" bigint) WITH (extra_properties = MAP(ARRAY['k'], ARRAY['v']))`,
		},
		{
			name:    "trino_ctas",
			adapter: NewTrino(""),
			op:      CreateTable{Table: table, Schema: smallSchema(), Mode: CreateAsSelect, Rows: [][]value.Value{row}},
			want:    `CREATE TABLE "iceberg"."default"."t" AS SELECT CAST('a_string' AS varchar) AS "_string", CAST(1000 AS bigint) AS "_bigint"`,
		},
		{
			name:    "trino_ctas_no_data",
			adapter: NewTrino(""),
			op:      CreateTable{Table: table, Schema: smallSchema(), Mode: CreateAsSelectNoData, Rows: [][]value.Value{row}},
			want:    `CREATE TABLE "iceberg"."default"."t" AS SELECT CAST(NULL AS varchar) AS "_string", CAST(NULL AS bigint) AS "_bigint" WITH NO DATA`,
		},
		{
			name:    "spark_ctas_no_data",
			adapter: NewSpark(""),
			op:      CreateTable{Table: table, Schema: smallSchema(), Mode: CreateAsSelectNoData},
			want: "CREATE TABLE `iceberg_test`.`default`.`t` USING ICEBERG AS SELECT * FROM " +
				"(SELECT CAST(NULL AS string) AS `_string`, CAST(NULL AS bigint) AS `_bigint`) src LIMIT 0",
		},
		{
			name:    "spark_ctas_two_rows",
			adapter: NewSpark(""),
			op: CreateTable{Table: table, Schema: smallSchema(), Mode: CreateAsSelect,
				Rows: [][]value.Value{row, {value.String(`x\y`), value.Null()}}},
			want: "CREATE TABLE `iceberg_test`.`default`.`t` USING ICEBERG AS " +
				"SELECT CAST('a_string' AS string) AS `_string`, CAST(1000 AS bigint) AS `_bigint` UNION ALL " +
				`SELECT CAST('x\\y' AS string) AS ` + "`_string`, CAST(NULL AS bigint) AS `_bigint`",
		},
		{
			name:    "trino_avro_is_unsupported",
			adapter: NewTrino(""),
			op:      CreateTable{Table: table, Schema: smallSchema(), Format: types.FormatAvro},
			wantErr: oerrors.ErrUnsupportedTypeMapping,
		},
		{
			name:    "spark_timestamp_is_unsupported",
			adapter: NewSpark(""),
			op:      CreateTable{Table: table, Schema: types.NewSchema(types.Col("ts", types.TimestampType))},
			wantErr: oerrors.ErrUnsupportedTypeMapping,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.adapter.RenderCreate(tt.op)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderInsert_Literals(t *testing.T) {
	ts := time.Date(2020, 6, 28, 14, 16, 0, 456000000, time.UTC)
	user := types.StructOf(types.Col("name", types.StringType), types.Col("surname", types.StringType))

	tests := []struct {
		name  string
		typ   types.LogicalType
		v     value.Value
		trino string
		spark string
	}{
		{"string", types.StringType, value.String("it's"), `'it''s'`, `'it\'s'`},
		{"backslash", types.StringType, value.String(`a\b`), `'a\b'`, `'a\\b'`},
		{"bigint", types.BigintType, value.Int64(1000000000000000), "1000000000000000", "1000000000000000"},
		{"integer", types.IntegerType, value.Int32(-7), "-7", "-7"},
		{"real", types.RealType, value.Float32(1.5), "REAL '1.5'", "CAST('1.5' AS FLOAT)"},
		{"double nan", types.DoubleType, value.Float64(math.NaN()), "DOUBLE 'NaN'", "CAST('NaN' AS DOUBLE)"},
		{"decimal", types.Decimal(8, 2), value.MustDecimal("123456.78", 8, 2),
			"DECIMAL '123456.78'", "CAST(123456.78BD AS DECIMAL(8,2))"},
		{"boolean", types.BooleanType, value.Boolean(true), "true", "true"},
		{"timestamptz", types.TimestampTZType, value.TimestampTZ(ts),
			"TIMESTAMP '2020-06-28 14:16:00.456000 UTC'", "TIMESTAMP '2020-06-28 14:16:00.456000UTC'"},
		{"date", types.DateType, value.DateOf(1950, time.June, 28), "DATE '1950-06-28'", "DATE '1950-06-28'"},
		{"null", types.Decimal(8, 2), value.Null(), "NULL", "NULL"},
		{"array", types.ArrayOf(types.StringType), value.Array(value.String("Kitty"), value.String("Pupper")),
			"ARRAY['Kitty', 'Pupper']", "array('Kitty', 'Pupper')"},
		{"map", types.MapOf(types.StringType, types.IntegerType), value.MustMap(value.Entry(value.String("age"), value.Int32(42))),
			"MAP(ARRAY['age'], ARRAY[42])", "map('age', 42)"},
		{"struct", user, value.Struct(value.F("name", value.String("Jo")), value.F("surname", value.String("Doe"))),
			"CAST(ROW('Jo', 'Doe') AS row(name varchar, surname varchar))", "named_struct('name', 'Jo', 'surname', 'Doe')"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := Insert{Table: table, Schema: types.NewSchema(types.Col("c", tt.typ)), Rows: [][]value.Value{{tt.v}}}

			got, err := NewTrino("").RenderInsert(op)
			require.NoError(t, err)
			assert.Equal(t, `INSERT INTO "iceberg"."default"."t" VALUES (`+tt.trino+`)`, got)

			got, err = NewSpark("").RenderInsert(op)
			require.NoError(t, err)
			assert.Equal(t, "INSERT INTO `iceberg_test`.`default`.`t` VALUES ("+tt.spark+")", got)
		})
	}
}

func TestRenderInsert_Rejects(t *testing.T) {
	trino := NewTrino("")
	schema := smallSchema()

	_, err := trino.RenderInsert(Insert{Table: table, Schema: schema})
	assert.Error(t, err, "no rows")

	_, err = trino.RenderInsert(Insert{Table: table, Schema: schema, Rows: [][]value.Value{{value.String("a")}}})
	assert.Error(t, err, "short row")

	_, err = trino.RenderInsert(Insert{Table: table, Schema: schema,
		Rows: [][]value.Value{{value.Int64(1), value.Int64(1)}}})
	require.Error(t, err, "kind mismatch")
	assert.Equal(t, oerrors.CodeInvalidScenario, oerrors.GetCode(err))

	_, err = trino.RenderInsert(Insert{Table: table, Schema: types.NewSchema(types.Col("d", types.Decimal(8, 2))),
		Rows: [][]value.Value{{value.MustDecimal("1.5", 9, 1)}}})
	assert.Error(t, err, "decimal of another precision")
}

func TestRenderSelect(t *testing.T) {
	op := Select{
		Table:  table,
		Schema: nestedSchema(),
		Projections: []Projection{
			Col("pets", ElementStep(2)).As("second_pet"),
			Col("info", KeyStep(value.String("age"))),
			Col("user_info", FieldStep("surname")),
		},
		Where: []Predicate{Eq("id", value.Int32(1)), Eq("user_info.name", value.String("Jo"))},
	}

	got, err := NewTrino("").RenderSelect(op)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "pets"[2] AS "second_pet", "info"['age'], "user_info"."surname" FROM "iceberg"."default"."t" `+
		`WHERE "id" = 1 AND "user_info"."name" = 'Jo'`, got)

	got, err = NewSpark("").RenderSelect(op)
	require.NoError(t, err)
	assert.Equal(t, "SELECT `pets`[1] AS `second_pet`, `info`['age'], `user_info`.`surname` FROM `iceberg_test`.`default`.`t` "+
		"WHERE `id` = 1 AND `user_info`.`name` = 'Jo'", got)
}

func TestRenderSelect_DefaultsAndCount(t *testing.T) {
	trino := NewTrino("")

	got, err := trino.RenderSelect(Select{Table: table, Schema: smallSchema(), OrderBy: []string{"_string"}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "_string", "_bigint" FROM "iceberg"."default"."t" ORDER BY "_string"`, got)

	got, err = trino.RenderSelect(Select{Table: table, Projections: []Projection{CountAll()},
		Where: []Predicate{{Path: types.ColumnPath{"_string"}}}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT count(*) AS "count" FROM "iceberg"."default"."t" WHERE "_string" IS NULL`, got)
}

func TestRenderSelect_MetadataTables(t *testing.T) {
	op := Select{Table: table, Metadata: MetadataSnapshots,
		Projections: []Projection{Col("snapshot_id").Typed(types.BigintType)}}

	got, err := NewTrino("").RenderSelect(op)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "snapshot_id" FROM "iceberg"."default"."t$snapshots"`, got)

	got, err = NewSpark("").RenderSelect(op)
	require.NoError(t, err)
	assert.Equal(t, "SELECT `snapshot_id` FROM `iceberg_test`.`default`.`t`.`snapshots`", got)

	_, err = Select{Table: table, Metadata: MetadataFiles, Projections: []Projection{Col("file_path")}}.ResultColumns()
	assert.Error(t, err, "untyped metadata projection")
}

func TestResultColumns(t *testing.T) {
	op := Select{Table: table, Schema: nestedSchema(), Projections: []Projection{
		Col("pets", ElementStep(1)),
		Col("info", KeyStep(value.String("age"))).As("age"),
		Col("user_info", FieldStep("surname")),
		CountAll(),
	}}
	cols, err := op.ResultColumns()
	require.NoError(t, err)

	var got []string
	for _, c := range cols {
		got = append(got, c.Name+":"+c.Type.String())
	}
	assert.Equal(t, []string{"pets:string", "age:integer", "surname:string", "count:bigint"}, got)

	_, err = Select{Schema: nestedSchema(), Projections: []Projection{Col("id", ElementStep(1))}}.ResultColumns()
	assert.Error(t, err)
	_, err = Select{Schema: nestedSchema(), Projections: []Projection{Col("missing")}}.ResultColumns()
	assert.Error(t, err)
}

func TestRenderAlter(t *testing.T) {
	trino, spark := NewTrino(""), NewSpark("")

	got, err := trino.RenderAlter(RenameColumn(table, "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "iceberg"."default"."t" RENAME COLUMN "a" TO "b"`, got)

	got, err = trino.RenderAlter(AddColumn(table, "c", types.Decimal(38, 19)))
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "iceberg"."default"."t" ADD COLUMN "c" decimal(38,19)`, got)

	_, err = trino.RenderAlter(DropColumn(table, "_struct.drop_and_add"))
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrUnsupportedTypeMapping)
	assert.True(t, oerrors.IsPreflight(err))

	got, err = spark.RenderAlter(RenameColumn(table, "_struct.rename", "renamed"))
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `iceberg_test`.`default`.`t` RENAME COLUMN `_struct`.`rename` TO `renamed`", got)

	got, err = spark.RenderAlter(DropColumn(table, "_struct.drop_and_add"))
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `iceberg_test`.`default`.`t` DROP COLUMN `_struct`.`drop_and_add`", got)

	got, err = spark.RenderAlter(AddColumn(table, "_struct.drop_and_add", types.BigintType))
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `iceberg_test`.`default`.`t` ADD COLUMN `_struct`.`drop_and_add` bigint", got)

	_, err = spark.RenderAlter(Alter{Table: table, Kind: AlterRename, Path: types.ColumnPath{"a"}})
	assert.Error(t, err, "rename without new name")
}

func TestRenderDropAndShowTables(t *testing.T) {
	trino, spark := NewTrino(""), NewSpark("")

	assert.Equal(t, `DROP TABLE IF EXISTS "iceberg"."default"."t"`, trino.RenderDrop(DropTable{Table: table, IfExists: true}))
	assert.Equal(t, "DROP TABLE `iceberg_test`.`default`.`t`", spark.RenderDrop(DropTable{Table: table}))

	show := ShowTables{Schema: "default", Like: "test_%"}
	assert.Equal(t, `SHOW TABLES FROM "iceberg"."default" LIKE 'test_%'`, trino.RenderShowTables(show))
	assert.Equal(t, "SHOW TABLES FROM `iceberg_test`.`default` LIKE 'test_*'", spark.RenderShowTables(show))
}

func TestElementIndex(t *testing.T) {
	trino, spark := NewTrino(""), NewSpark("")

	idx, err := trino.ElementIndex(1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = spark.ElementIndex(1)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	for _, a := range []Adapter{trino, spark} {
		_, err := a.ElementIndex(0)
		assert.Error(t, err, a.Name())
		_, err = a.RenderSelect(Select{Table: table, Schema: nestedSchema(), Projections: []Projection{Col("pets", ElementStep(0))}})
		assert.Error(t, err, a.Name())
	}
}
