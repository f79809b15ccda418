package taxonomy

import (
	"math"
	"testing"

	"github.com/huangsam/discomfort/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segment(tags map[string]string, measures map[string]float64) *schema.Segment {
	return &schema.Segment{ID: schema.SegmentID{U: 1, V: 2}, Tags: tags, Measures: measures}
}

// TestCompile tests formula compilation and evaluation.
func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		spec     FormulaSpec
		seg      *schema.Segment
		expected float64
	}{
		{
			name:     "categorical hit",
			spec:     FormulaSpec{Kind: CategoricalKind, Field: "lit", Table: map[string]float64{"yes": -1}},
			seg:      segment(map[string]string{"lit": "yes"}, nil),
			expected: -1,
		},
		{
			name:     "categorical ignores case",
			spec:     FormulaSpec{Kind: CategoricalKind, Field: "lit", Table: map[string]float64{"Yes": -1}},
			seg:      segment(map[string]string{"lit": " YES "}, nil),
			expected: -1,
		},
		{
			name:     "categorical unknown value is neutral",
			spec:     FormulaSpec{Kind: CategoricalKind, Field: "lit", Table: map[string]float64{"yes": -1}},
			seg:      segment(map[string]string{"lit": "sometimes"}, nil),
			expected: 0,
		},
		{
			name:     "categorical missing field is neutral",
			spec:     FormulaSpec{Kind: CategoricalKind, Field: "lit", Table: map[string]float64{"yes": -1}},
			seg:      segment(nil, nil),
			expected: 0,
		},
		{
			name:     "two sided sums both sides",
			spec:     FormulaSpec{Kind: TwoSidedKind, Fields: []string{"l", "r"}, Table: map[string]float64{"yes": -1}},
			seg:      segment(map[string]string{"l": "yes", "r": "yes"}, nil),
			expected: -2,
		},
		{
			name:     "two sided one side",
			spec:     FormulaSpec{Kind: TwoSidedKind, Fields: []string{"l", "r"}, Table: map[string]float64{"yes": -1}},
			seg:      segment(map[string]string{"r": "yes"}, nil),
			expected: -1,
		},
		{
			name:     "imagery full ratio is neutral",
			spec:     FormulaSpec{Kind: ImageryKind, Field: "g"},
			seg:      segment(nil, map[string]float64{"g": 1}),
			expected: 0,
		},
		{
			name:     "imagery zero ratio",
			spec:     FormulaSpec{Kind: ImageryKind, Field: "g"},
			seg:      segment(nil, map[string]float64{"g": 0}),
			expected: -1,
		},
		{
			name:     "imagery missing",
			spec:     FormulaSpec{Kind: ImageryKind, Field: "g"},
			seg:      segment(nil, nil),
			expected: 0,
		},
		{
			name:     "imagery NaN is missing",
			spec:     FormulaSpec{Kind: ImageryKind, Field: "g"},
			seg:      segment(nil, map[string]float64{"g": math.NaN()}),
			expected: 0,
		},
		{
			name:     "imagery scaled",
			spec:     FormulaSpec{Kind: ImageryKind, Field: "g", Scale: 0.5},
			seg:      segment(nil, map[string]float64{"g": 0}),
			expected: -0.5,
		},
		{
			name:     "width default reference",
			spec:     FormulaSpec{Kind: WidthKind, Field: "width"},
			seg:      segment(nil, map[string]float64{"width": 5}),
			expected: 2,
		},
		{
			name:     "width missing",
			spec:     FormulaSpec{Kind: WidthKind, Field: "width"},
			seg:      segment(nil, nil),
			expected: 0,
		},
		{
			name:     "sign below pivot",
			spec:     FormulaSpec{Kind: SignKind, Field: "maxspeed", Reference: 30},
			seg:      segment(nil, map[string]float64{"maxspeed": 20}),
			expected: -1,
		},
		{
			name:     "sign at pivot",
			spec:     FormulaSpec{Kind: SignKind, Field: "maxspeed", Reference: 30},
			seg:      segment(nil, map[string]float64{"maxspeed": 30}),
			expected: 0,
		},
		{
			name:     "sign above pivot",
			spec:     FormulaSpec{Kind: SignKind, Field: "maxspeed", Reference: 30},
			seg:      segment(nil, map[string]float64{"maxspeed": 50}),
			expected: 1,
		},
		{
			name:     "flag matches second field",
			spec:     FormulaSpec{Kind: FlagKind, Fields: []string{"footway", "service"}, Match: []string{"alley"}, Score: -1},
			seg:      segment(map[string]string{"service": "Alley"}, nil),
			expected: -1,
		},
		{
			name:     "flag no match",
			spec:     FormulaSpec{Kind: FlagKind, Fields: []string{"footway", "service"}, Match: []string{"alley"}, Score: -1},
			seg:      segment(map[string]string{"service": "driveway"}, nil),
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(&tt.spec)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, f.Eval(tt.seg), 1e-9)
			assert.NotEmpty(t, f.Describe())
		})
	}
}

// TestCompileInvalid tests that malformed formulas are rejected.
func TestCompileInvalid(t *testing.T) {
	tests := []struct {
		name string
		spec *FormulaSpec
	}{
		{name: "nil", spec: nil},
		{name: "unknown kind", spec: &FormulaSpec{Kind: "cubic", Field: "x"}},
		{name: "categorical without table", spec: &FormulaSpec{Kind: CategoricalKind, Field: "x"}},
		{name: "categorical without field", spec: &FormulaSpec{Kind: CategoricalKind, Table: map[string]float64{"a": 1}}},
		{name: "two sided with one field", spec: &FormulaSpec{Kind: TwoSidedKind, Fields: []string{"l"}, Table: map[string]float64{"a": 1}}},
		{name: "imagery without field", spec: &FormulaSpec{Kind: ImageryKind}},
		{name: "width without field", spec: &FormulaSpec{Kind: WidthKind}},
		{name: "sign without field", spec: &FormulaSpec{Kind: SignKind}},
		{name: "flag without match", spec: &FormulaSpec{Kind: FlagKind, Fields: []string{"a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFormula)
		})
	}
}

// TestFormulaMetadata tests levels and measure fields used by the taxonomy view.
func TestFormulaMetadata(t *testing.T) {
	cat, err := Compile(&FormulaSpec{Kind: CategoricalKind, Field: "lit", Table: map[string]float64{"yes": -1, "no": 0}})
	require.NoError(t, err)
	assert.Equal(t, []schema.LevelRenderModel{{Value: "no", Score: 0}, {Value: "yes", Score: -1}}, cat.Levels())
	assert.Empty(t, cat.MeasureFields())

	img, err := Compile(&FormulaSpec{Kind: ImageryKind, Field: "greenery_ratio"})
	require.NoError(t, err)
	assert.Equal(t, []string{"greenery_ratio"}, img.MeasureFields())
	assert.Equal(t, "greenery_ratio - 1", img.Describe())

	sgn, err := Compile(&FormulaSpec{Kind: SignKind, Field: "maxspeed", Reference: 30})
	require.NoError(t, err)
	assert.Len(t, sgn.Levels(), 3)
}

// FuzzCategorical checks that lookups never panic and stay within the table range.
func FuzzCategorical(f *testing.F) {
	f.Add("yes")
	f.Add("")
	f.Add("  DESIGNATED ")
	f.Fuzz(func(t *testing.T, value string) {
		form, err := Compile(&FormulaSpec{Kind: CategoricalKind, Field: "foot", Table: map[string]float64{"yes": -2, "designated": -1}})
		if err != nil {
			t.Fatal(err)
		}
		got := form.Eval(segment(map[string]string{"foot": value}, nil))
		if got != 0 && got != -1 && got != -2 {
			t.Fatalf("unexpected score %v for %q", got, value)
		}
	})
}
