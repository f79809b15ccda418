package taxonomy

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/huangsam/discomfort/schema"
	"github.com/rotisserie/eris"
)

// FormulaKind names one of the closed set of subcomponent formulas.
type FormulaKind string

// All formula kinds supported.
const (
	CategoricalKind FormulaKind = "categorical" // table lookup on one tag
	TwoSidedKind    FormulaKind = "two_sided"   // table lookup on a left and a right tag, summed
	ImageryKind     FormulaKind = "imagery"     // (value - 1) * scale, missing is 0
	WidthKind       FormulaKind = "width"       // value - reference, missing is 0
	SignKind        FormulaKind = "sign"        // -1, 0 or 1 around a pivot, missing is 0
	FlagKind        FormulaKind = "flag"        // score when any field matches
)

// Default formula parameters.
const (
	DefaultImageryScale   = 1.0
	DefaultWidthReference = 3.0
)

// FormulaSpec is the declarative form of a formula as stored in taxonomy files.
type FormulaSpec struct {
	Kind      FormulaKind        `yaml:"kind" json:"kind" validate:"required,oneof=categorical two_sided imagery width sign flag"`
	Field     string             `yaml:"field,omitempty" json:"field,omitempty"`
	Fields    []string           `yaml:"fields,omitempty" json:"fields,omitempty" validate:"omitempty,dive,required"`
	Table     map[string]float64 `yaml:"table,omitempty" json:"table,omitempty"`
	Scale     float64            `yaml:"scale,omitempty" json:"scale,omitempty"`
	Reference float64            `yaml:"reference,omitempty" json:"reference,omitempty"`
	Match     []string           `yaml:"match,omitempty" json:"match,omitempty"`
	Score     float64            `yaml:"score,omitempty" json:"score,omitempty"`
}

// Formula turns one segment into an unweighted subcomponent value.
type Formula interface {
	Eval(seg *schema.Segment) float64
	Describe() string
	Levels() []schema.LevelRenderModel
	MeasureFields() []string
}

// Compile validates a spec and builds its evaluator.
func Compile(spec *FormulaSpec) (Formula, error) {
	if spec == nil {
		return nil, eris.Wrap(ErrInvalidFormula, "nil formula")
	}
	switch spec.Kind {
	case CategoricalKind:
		if spec.Field == "" || len(spec.Table) == 0 {
			return nil, eris.Wrapf(ErrInvalidFormula, "%s needs a field and a table", spec.Kind)
		}
		return categorical{field: spec.Field, table: normalizeTable(spec.Table)}, nil
	case TwoSidedKind:
		if len(spec.Fields) != 2 || len(spec.Table) == 0 {
			return nil, eris.Wrapf(ErrInvalidFormula, "%s needs exactly two fields and a table", spec.Kind)
		}
		return twoSided{left: spec.Fields[0], right: spec.Fields[1], table: normalizeTable(spec.Table)}, nil
	case ImageryKind:
		if spec.Field == "" {
			return nil, eris.Wrapf(ErrInvalidFormula, "%s needs a field", spec.Kind)
		}
		scale := spec.Scale
		if scale == 0 {
			scale = DefaultImageryScale
		}
		return imagery{field: spec.Field, scale: scale}, nil
	case WidthKind:
		if spec.Field == "" {
			return nil, eris.Wrapf(ErrInvalidFormula, "%s needs a field", spec.Kind)
		}
		ref := spec.Reference
		if ref == 0 {
			ref = DefaultWidthReference
		}
		return width{field: spec.Field, reference: ref}, nil
	case SignKind:
		if spec.Field == "" {
			return nil, eris.Wrapf(ErrInvalidFormula, "%s needs a field", spec.Kind)
		}
		return sign{field: spec.Field, pivot: spec.Reference}, nil
	case FlagKind:
		if len(spec.Fields) == 0 || len(spec.Match) == 0 {
			return nil, eris.Wrapf(ErrInvalidFormula, "%s needs fields and match values", spec.Kind)
		}
		match := make(map[string]struct{}, len(spec.Match))
		for _, m := range spec.Match {
			match[strings.ToLower(m)] = struct{}{}
		}
		return flag{fields: slices.Clone(spec.Fields), match: match, score: spec.Score}, nil
	default:
		return nil, eris.Wrapf(ErrInvalidFormula, "unknown kind %q", spec.Kind)
	}
}

// normalizeTable lower-cases category keys so lookups ignore case.
func normalizeTable(table map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(table))
	for k, v := range table {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func lookup(table map[string]float64, value string) float64 {
	if value == "" {
		return 0
	}
	return table[strings.ToLower(value)] // unknown categories are neutral
}

func tableLevels(table map[string]float64) []schema.LevelRenderModel {
	keys := slices.Sorted(maps.Keys(table))
	levels := make([]schema.LevelRenderModel, 0, len(keys))
	for _, k := range keys {
		levels = append(levels, schema.LevelRenderModel{Value: k, Score: table[k]})
	}
	return levels
}

type categorical struct {
	field string
	table map[string]float64
}

func (f categorical) Eval(seg *schema.Segment) float64 {
	return lookup(f.table, seg.Tag(f.field))
}

func (f categorical) Describe() string { return fmt.Sprintf("lookup(%s)", f.field) }
func (f categorical) Levels() []schema.LevelRenderModel { return tableLevels(f.table) }
func (f categorical) MeasureFields() []string { return nil }

type twoSided struct {
	left  string
	right string
	table map[string]float64
}

func (f twoSided) Eval(seg *schema.Segment) float64 {
	return lookup(f.table, seg.Tag(f.left)) + lookup(f.table, seg.Tag(f.right))
}

func (f twoSided) Describe() string {
	return fmt.Sprintf("lookup(%s) + lookup(%s)", f.left, f.right)
}
func (f twoSided) Levels() []schema.LevelRenderModel { return tableLevels(f.table) }
func (f twoSided) MeasureFields() []string { return nil }

type imagery struct {
	field string
	scale float64
}

func (f imagery) Eval(seg *schema.Segment) float64 {
	v, ok := seg.Measure(f.field)
	if !ok {
		return 0
	}
	return (v - 1) * f.scale
}

func (f imagery) Describe() string {
	if f.scale == DefaultImageryScale {
		return fmt.Sprintf("%s - 1", f.field)
	}
	return fmt.Sprintf("(%s - 1) * %g", f.field, f.scale)
}
func (f imagery) Levels() []schema.LevelRenderModel { return nil }
func (f imagery) MeasureFields() []string { return []string{f.field} }

type width struct {
	field     string
	reference float64
}

func (f width) Eval(seg *schema.Segment) float64 {
	v, ok := seg.Measure(f.field)
	if !ok {
		return 0
	}
	return v - f.reference
}

func (f width) Describe() string { return fmt.Sprintf("%s - %g", f.field, f.reference) }
func (f width) Levels() []schema.LevelRenderModel { return nil }
func (f width) MeasureFields() []string { return []string{f.field} }

type sign struct {
	field string
	pivot float64
}

func (f sign) Eval(seg *schema.Segment) float64 {
	v, ok := seg.Measure(f.field)
	if !ok {
		return 0
	}
	switch {
	case v < f.pivot:
		return -1
	case v > f.pivot:
		return 1
	default:
		return 0
	}
}

func (f sign) Describe() string { return fmt.Sprintf("sign(%s - %g)", f.field, f.pivot) }
func (f sign) Levels() []schema.LevelRenderModel {
	return []schema.LevelRenderModel{
		{Value: fmt.Sprintf("< %g", f.pivot), Score: -1},
		{Value: fmt.Sprintf("= %g", f.pivot), Score: 0},
		{Value: fmt.Sprintf("> %g", f.pivot), Score: 1},
	}
}
func (f sign) MeasureFields() []string { return []string{f.field} }

type flag struct {
	fields []string
	match  map[string]struct{}
	score  float64
}

func (f flag) Eval(seg *schema.Segment) float64 {
	for _, field := range f.fields {
		if _, ok := f.match[strings.ToLower(seg.Tag(field))]; ok {
			return f.score
		}
	}
	return 0
}

func (f flag) Describe() string {
	return fmt.Sprintf("any(%s) in [%s]", strings.Join(f.fields, ", "), strings.Join(slices.Sorted(maps.Keys(f.match)), ", "))
}

func (f flag) Levels() []schema.LevelRenderModel {
	return []schema.LevelRenderModel{{Value: "match", Score: f.score}}
}
func (f flag) MeasureFields() []string { return nil }
