package evolution

import (
	"fmt"
	"strings"

	"github.com/arkilian/enginecompat/internal/config"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/pkg/types"
)

// Policy decides whether a column written under one snapshot and a column
// read under another are the same identity.
type Policy interface {
	Name() string
	Same(written, read types.Column) bool
}

type byFieldID struct{}

func (byFieldID) Name() string { return "field_id" }

func (byFieldID) Same(written, read types.Column) bool {
	return written.FieldID == read.FieldID
}

type byName struct{}

func (byName) Name() string { return "name" }

func (byName) Same(written, read types.Column) bool {
	return written.Name == read.Name
}

// ByFieldID is the table format rule: data is resolved by field id, so a
// renamed column keeps its values and a re-added one starts empty.
var ByFieldID Policy = byFieldID{}

// ByName resolves data by column name, the behaviour of readers that rebuild
// the column list from names: a renamed column reads NULL and a re-added one
// sees the old values.
var ByName Policy = byName{}

// ParsePolicy returns the policy called name (field_id or name).
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "field_id", "fieldid", "id":
		return ByFieldID, nil
	case "name":
		return ByName, nil
	default:
		return nil, fmt.Errorf("unknown identity policy %q (must be field_id or name)", name)
	}
}

// PolicyKey selects a reader engine and the file format the data was written in.
type PolicyKey struct {
	Engine typemap.Engine
	Format types.StorageFormat
}

// PolicySet resolves the identity policy per (engine, format). It is
// immutable: With returns a copy.
type PolicySet struct {
	def       Policy
	overrides map[PolicyKey]Policy
}

// NewPolicySet returns a set that answers def for every key.
func NewPolicySet(def Policy) PolicySet {
	if def == nil {
		def = ByFieldID
	}
	return PolicySet{def: def}
}

// DefaultPolicySet is field id resolution everywhere except Trino reading
// PARQUET, which was observed to resolve nested fields by name.
func DefaultPolicySet() PolicySet {
	return NewPolicySet(ByFieldID).With(typemap.Trino, types.FormatParquet, ByName)
}

// With returns a copy of the set with an override.
func (s PolicySet) With(engine typemap.Engine, format types.StorageFormat, p Policy) PolicySet {
	next := PolicySet{def: s.def, overrides: make(map[PolicyKey]Policy, len(s.overrides)+1)}
	for k, v := range s.overrides {
		next.overrides[k] = v
	}
	next.overrides[PolicyKey{Engine: engine, Format: format}] = p
	return next
}

// For returns the policy of a reader engine on data of a format.
func (s PolicySet) For(engine typemap.Engine, format types.StorageFormat) Policy {
	if p, ok := s.overrides[PolicyKey{Engine: engine, Format: format}]; ok {
		return p
	}
	if s.def == nil {
		return ByFieldID
	}
	return s.def
}

// PolicySetFromConfig layers configured overrides on top of base.
func PolicySetFromConfig(base PolicySet, entries []config.PolicyConfig) (PolicySet, error) {
	set := base
	for i, e := range entries {
		p, err := ParsePolicy(e.Policy)
		if err != nil {
			return PolicySet{}, fmt.Errorf("policies[%d]: %w", i, err)
		}
		format, err := types.ParseStorageFormat(e.Format)
		if err != nil {
			return PolicySet{}, fmt.Errorf("policies[%d]: %w", i, err)
		}
		set = set.With(typemap.Engine(strings.ToLower(e.Engine)), format, p)
	}
	return set, nil
}
