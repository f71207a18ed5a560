// Package suite holds the built-in compatibility scenarios: the checks a
// Trino and Spark pair sharing an Iceberg catalog must pass.
package suite

import (
	"fmt"
	"strings"

	"github.com/arkilian/enginecompat/internal/config"
	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/internal/scenario"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/pkg/types"
)

// DefaultObjectStoragePath is the data path override used by the object
// storage location provider scenario.
const DefaultObjectStoragePath = "hdfs://hadoop-master:9000/user/hive/warehouse/test_object_storage_location_provider/obj-data"

// Options selects and parameterizes the built-in scenarios.
type Options struct {
	// Formats restricts format-parameterized scenarios; empty means every
	// format. Formats Trino cannot read still produce the negative
	// scenario.
	Formats []types.StorageFormat

	// Filter keeps scenarios whose name contains it
	Filter string

	// ObjectStoragePath is the write.object-storage.path of the location
	// provider scenario
	ObjectStoragePath string
}

// DefaultOptions returns options selecting every scenario.
func DefaultOptions() Options {
	return Options{ObjectStoragePath: DefaultObjectStoragePath}
}

// OptionsFromConfig reads the runner's format and name filters.
func OptionsFromConfig(cfg config.RunnerConfig) (Options, error) {
	opts := DefaultOptions()
	opts.Filter = cfg.Filter
	for _, f := range cfg.Formats {
		format, err := types.ParseStorageFormat(f)
		if err != nil {
			return Options{}, fmt.Errorf("runner.formats: %w", err)
		}
		opts.Formats = append(opts.Formats, format)
	}
	return opts, nil
}

func (o Options) formats() []types.StorageFormat {
	if len(o.Formats) == 0 {
		return types.AllStorageFormats()
	}
	return o.Formats
}

// readable returns the selected formats both engines can read.
func (o Options) readable() []types.StorageFormat {
	var out []types.StorageFormat
	for _, f := range o.formats() {
		if typemap.SupportsFormat(typemap.Trino, f) && typemap.SupportsFormat(typemap.Spark, f) {
			out = append(out, f)
		}
	}
	return out
}

// unreadable returns the selected formats Spark writes and Trino rejects.
func (o Options) unreadable() []types.StorageFormat {
	var out []types.StorageFormat
	for _, f := range o.formats() {
		if !typemap.SupportsFormat(typemap.Trino, f) && typemap.SupportsFormat(typemap.Spark, f) {
			out = append(out, f)
		}
	}
	return out
}

// All returns the selected scenarios in a stable order.
func All(opts Options) []scenario.Scenario {
	if opts.ObjectStoragePath == "" {
		opts.ObjectStoragePath = DefaultObjectStoragePath
	}

	var all []scenario.Scenario
	for _, f := range opts.unreadable() {
		all = append(all, UnsupportedFileFormat(f))
	}
	all = append(all, SparkCreatesTrinoDrops(), TrinoCreatesSparkDrops(), ShowTables())
	for _, f := range opts.readable() {
		all = append(all, TrinoReadingSparkData(f))
		for _, mode := range dialect.CreateModes() {
			all = append(all, SparkReadingTrinoData(f, mode))
		}
		for _, writer := range writers() {
			all = append(all,
				PartitionedRead(writer, f),
				CompositeTypes(writer, f),
				NestedTypes(writer, f),
			)
		}
		all = append(all, IDBasedFieldMapping(f), ObjectStorageLocationProvider(f, opts.ObjectStoragePath))
		all = append(all, SpecialCharacterPartitions(f)...)
	}
	return Filter(all, opts.Filter)
}

// Filter keeps the scenarios whose name contains substr.
func Filter(scenarios []scenario.Scenario, substr string) []scenario.Scenario {
	if substr == "" {
		return scenarios
	}
	var out []scenario.Scenario
	for _, sc := range scenarios {
		if strings.Contains(sc.Name, substr) {
			out = append(out, sc)
		}
	}
	return out
}

// Names lists scenario names.
func Names(scenarios []scenario.Scenario) []string {
	out := make([]string, len(scenarios))
	for i, sc := range scenarios {
		out[i] = sc.Name
	}
	return out
}

func writers() []typemap.Engine {
	return []typemap.Engine{typemap.Spark, typemap.Trino}
}

// other returns the engine that did not write.
func other(e typemap.Engine) typemap.Engine {
	if e == typemap.Spark {
		return typemap.Trino
	}
	return typemap.Spark
}

func name(parts ...string) string {
	return strings.Join(parts, "/")
}

// table builds a lower-case table base name from its parts.
func table(parts ...string) types.TableRef {
	return types.TableRef{Name: strings.ToLower(strings.Join(parts, "_"))}
}

func modeName(m dialect.CreateMode) string {
	switch m {
	case dialect.CreateAndInsert:
		return "create_insert"
	case dialect.CreateAsSelect:
		return "ctas"
	case dialect.CreateAsSelectNoData:
		return "ctas_no_data"
	default:
		return m.String()
	}
}
