package evolution

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

type evolutionCase struct {
	Width   int
	Renamed int
	Readded int
}

func genEvolutionCase() gopter.Gen {
	return gen.IntRange(2, 8).FlatMap(func(w interface{}) gopter.Gen {
		width := w.(int)
		return gopter.CombineGens(
			gen.IntRange(0, width-1),
			gen.IntRange(0, width-1),
		).SuchThat(func(v interface{}) bool {
			pair := v.([]interface{})
			return pair[0].(int) != pair[1].(int)
		}).Map(func(v []interface{}) evolutionCase {
			return evolutionCase{Width: width, Renamed: v[0].(int), Readded: v[1].(int)}
		})
	}, reflect.TypeOf(evolutionCase{}))
}

func TestProperty_FieldIDVisibilityAfterEvolution(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("renamed keeps values, re-added reads NULL, others untouched", prop.ForAll(
		func(c evolutionCase) bool {
			cols := make([]types.Column, c.Width)
			names := make([]string, c.Width)
			vals := make([]value.Value, c.Width)
			for i := range cols {
				names[i] = fmt.Sprintf("c%d", i)
				cols[i] = types.Col(names[i], types.BigintType)
				vals[i] = value.Int64(int64(i + 1))
			}
			tr := NewTracker(types.NewSchema(cols...))
			if _, err := tr.Rename(types.ColumnPath{names[c.Renamed]}, "renamed"); err != nil {
				return false
			}
			if _, err := tr.Drop(types.ColumnPath{names[c.Readded]}); err != nil {
				return false
			}
			if _, err := tr.Add(types.ColumnPath{names[c.Readded]}, types.BigintType); err != nil {
				return false
			}

			got := PredictRow(tr.Initial(), tr.Current(), value.NewRow(names, vals), ByFieldID)
			if len(got) != c.Width {
				return false
			}
			for i := range names {
				switch i {
				case c.Renamed:
					v, ok := got.Get("renamed")
					if !ok || !value.Equal(v, vals[i]) {
						return false
					}
				case c.Readded:
					v, ok := got.Get(names[i])
					if !ok || !v.IsNull() {
						return false
					}
				default:
					v, ok := got.Get(names[i])
					if !ok || !value.Equal(v, vals[i]) {
						return false
					}
				}
			}
			return true
		},
		genEvolutionCase(),
	))

	properties.Property("name policy sees re-added values and loses renamed ones", prop.ForAll(
		func(c evolutionCase) bool {
			cols := make([]types.Column, c.Width)
			names := make([]string, c.Width)
			vals := make([]value.Value, c.Width)
			for i := range cols {
				names[i] = fmt.Sprintf("c%d", i)
				cols[i] = types.Col(names[i], types.BigintType)
				vals[i] = value.Int64(int64(i + 1))
			}
			tr := NewTracker(types.NewSchema(cols...))
			tr.Rename(types.ColumnPath{names[c.Renamed]}, "renamed")
			tr.Drop(types.ColumnPath{names[c.Readded]})
			tr.Add(types.ColumnPath{names[c.Readded]}, types.BigintType)

			got := PredictRow(tr.Initial(), tr.Current(), value.NewRow(names, vals), ByName)
			renamed, _ := got.Get("renamed")
			readded, _ := got.Get(names[c.Readded])
			return renamed.IsNull() && value.Equal(readded, vals[c.Readded])
		},
		genEvolutionCase(),
	))

	properties.TestingRun(t)
}
