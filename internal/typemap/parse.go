package typemap

import (
	"fmt"
	"strconv"
	"strings"

	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/pkg/types"
)

// primitiveNames maps lowercased native base names to logical types. The
// same spelling can mean different things on different engines: "timestamp"
// carries a zone on Spark and none on Trino.
var primitiveNames = map[Engine]map[string]types.TypeID{
	Trino: {
		"varchar":   types.TypeString,
		"char":      types.TypeString,
		"bigint":    types.TypeBigint,
		"integer":   types.TypeInteger,
		"int":       types.TypeInteger,
		"real":      types.TypeReal,
		"double":    types.TypeDouble,
		"boolean":   types.TypeBoolean,
		"timestamp": types.TypeTimestamp,
		"date":      types.TypeDate,
		"time":      types.TypeTime,
	},
	Spark: {
		"string":        types.TypeString,
		"varchar":       types.TypeString,
		"bigint":        types.TypeBigint,
		"long":          types.TypeBigint,
		"int":           types.TypeInteger,
		"integer":       types.TypeInteger,
		"float":         types.TypeReal,
		"real":          types.TypeReal,
		"double":        types.TypeDouble,
		"boolean":       types.TypeBoolean,
		"timestamp":     types.TypeTimestampTZ,
		"timestamp_ltz": types.TypeTimestampTZ,
		"date":          types.TypeDate,
	},
}

// Logical parses engine type text back to a logical type. It accepts both
// "row(a integer)" / "array(varchar)" and "struct<a:int>" / "array<string>"
// spellings, length and precision suffixes, and "with time zone".
func Logical(engine Engine, native string) (types.LogicalType, error) {
	p := &nativeParser{engine: engine, input: strings.ToLower(native)}
	lt, err := p.parse()
	if err != nil {
		return types.LogicalType{}, oerrors.Wrap(oerrors.ErrCategoryTypeMapping, oerrors.CodeUnsupportedTypeMapping,
			fmt.Sprintf("%s: cannot map native type %q", engine, native), err)
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return types.LogicalType{}, oerrors.NewUnsupportedTypeMapping(string(engine), native, "unexpected trailing input")
	}
	return lt, nil
}

type nativeParser struct {
	engine Engine
	input  string
	pos    int
}

func (p *nativeParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *nativeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *nativeParser) accept(ch byte) bool {
	if p.peek() == ch {
		p.pos++
		return true
	}
	return false
}

func (p *nativeParser) word() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

// fieldName reads a struct field name, which may be double-quoted or backquoted.
func (p *nativeParser) fieldName() string {
	switch q := p.peek(); q {
	case '"', '`':
		p.pos++
		start := p.pos
		for p.pos < len(p.input) && p.input[p.pos] != q {
			p.pos++
		}
		name := p.input[start:p.pos]
		p.pos++
		return name
	default:
		return p.word()
	}
}

func (p *nativeParser) numbers() ([]int, error) {
	var out []int
	for {
		n, err := strconv.Atoi(p.word())
		if err != nil {
			return nil, fmt.Errorf("expected number at offset %d", p.pos)
		}
		out = append(out, n)
		if !p.accept(',') {
			break
		}
	}
	if !p.accept(')') {
		return nil, fmt.Errorf("expected ) at offset %d", p.pos)
	}
	return out, nil
}

func (p *nativeParser) open() (byte, error) {
	switch {
	case p.accept('('):
		return ')', nil
	case p.accept('<'):
		return '>', nil
	default:
		return 0, fmt.Errorf("expected ( or < at offset %d", p.pos)
	}
}

func (p *nativeParser) parse() (types.LogicalType, error) {
	name := p.word()
	switch name {
	case "decimal", "numeric":
		if !p.accept('(') {
			return types.Decimal(38, 0), nil
		}
		args, err := p.numbers()
		if err != nil {
			return types.LogicalType{}, err
		}
		scale := 0
		if len(args) > 1 {
			scale = args[1]
		}
		return types.Decimal(args[0], scale), nil

	case "array":
		closer, err := p.open()
		if err != nil {
			return types.LogicalType{}, err
		}
		elem, err := p.parse()
		if err != nil {
			return types.LogicalType{}, err
		}
		if !p.accept(closer) {
			return types.LogicalType{}, fmt.Errorf("unterminated array at offset %d", p.pos)
		}
		return types.ArrayOf(elem), nil

	case "map":
		closer, err := p.open()
		if err != nil {
			return types.LogicalType{}, err
		}
		k, err := p.parse()
		if err != nil {
			return types.LogicalType{}, err
		}
		if !p.accept(',') {
			return types.LogicalType{}, fmt.Errorf("expected , in map at offset %d", p.pos)
		}
		v, err := p.parse()
		if err != nil {
			return types.LogicalType{}, err
		}
		if !p.accept(closer) {
			return types.LogicalType{}, fmt.Errorf("unterminated map at offset %d", p.pos)
		}
		return types.MapOf(k, v), nil

	case "row", "struct":
		closer, err := p.open()
		if err != nil {
			return types.LogicalType{}, err
		}
		var fields []types.Column
		for {
			fname := p.fieldName()
			if fname == "" {
				return types.LogicalType{}, fmt.Errorf("expected field name at offset %d", p.pos)
			}
			p.accept(':')
			ft, err := p.parse()
			if err != nil {
				return types.LogicalType{}, err
			}
			fields = append(fields, types.Col(fname, ft))
			if !p.accept(',') {
				break
			}
		}
		if !p.accept(closer) {
			return types.LogicalType{}, fmt.Errorf("unterminated struct at offset %d", p.pos)
		}
		return types.StructOf(fields...), nil
	}

	id, ok := primitiveNames[p.engine][name]
	if !ok {
		return types.LogicalType{}, fmt.Errorf("unknown type %q", name)
	}
	// Length and precision suffixes: varchar(10), timestamp(6)
	if p.accept('(') {
		if _, err := p.numbers(); err != nil {
			return types.LogicalType{}, err
		}
	}
	if id == types.TypeTimestamp || id == types.TypeTimestampTZ {
		save := p.pos
		if p.word() == "with" && p.word() == "time" && p.word() == "zone" {
			return types.TimestampTZType, nil
		}
		p.pos = save
	}
	if m, ok := Lookup(p.engine, id); ok && !m.Supported {
		return types.LogicalType{}, fmt.Errorf("%s", m.Notes)
	}
	return types.LogicalType{ID: id}, nil
}
