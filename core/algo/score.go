package algo

import (
	"cmp"
	"math"
	"slices"

	"github.com/huangsam/discomfort/core/taxonomy"
	"github.com/huangsam/discomfort/schema"
)

// ScoreSegment computes the discomfort breakdown of one segment.
//
// For bike mode the variant is chosen here from the taxonomy's dismount rule. Sub weights are
// applied first and main components sum the weighted values of their members, so a main weight
// scales an already weighted sum. The dismount penalty enters at the weighted level and never
// takes a sub weight. The two totals are kept as they are; they are not expected to agree.
func ScoreSegment(seg *schema.Segment, mode schema.Mode, w *WeightSnapshot, tax *taxonomy.Taxonomy) (schema.ScoreResult, error) {
	variant, err := tax.VariantFor(seg, mode)
	if err != nil {
		return schema.ScoreResult{}, err
	}
	if w == nil {
		w = NeutralWeights()
	}

	terms := tax.Terms(variant)
	result := schema.ScoreResult{
		SegmentID:      seg.ID,
		Mode:           mode,
		Variant:        variant,
		SubUnweighted:  make(map[schema.SubcomponentKey]float64, len(terms)+1),
		SubWeighted:    make(map[schema.SubcomponentKey]float64, len(terms)+1),
		MainUnweighted: make(map[schema.MainComponentKey]float64),
		MainWeighted:   make(map[schema.MainComponentKey]float64),
	}

	for _, term := range terms {
		raw := term.Formula.Eval(seg)
		result.SubUnweighted[term.Key] = raw
		weighted := raw * w.Sub(variant, term.Key)
		result.SubWeighted[term.Key] = weighted
		result.ScoreWeightedBySub += weighted
	}
	if variant == schema.DismountVariant {
		penalty := tax.Dismount().Penalty
		result.SubUnweighted[schema.SubDismount] = penalty
		result.SubWeighted[schema.SubDismount] = penalty
		result.ScoreWeightedBySub += penalty
	}

	for _, main := range tax.MainComponents(mode) {
		var sum float64
		for _, member := range main.Members {
			sum += result.SubWeighted[member] // members outside this variant are absent and add nothing
		}
		result.MainUnweighted[main.Key] = sum
		weighted := sum * w.Main(mode, main.Key)
		result.MainWeighted[main.Key] = weighted
		result.ScoreWeightedByMain += weighted
	}
	return result, nil
}

// Contribution is one subcomponent's share of a segment score.
type Contribution struct {
	Key        schema.SubcomponentKey `json:"key"`
	Unweighted float64                `json:"unweighted"`
	Weighted   float64                `json:"weighted"`
}

// Explain returns the subcomponents with the largest weighted magnitude, at most limit of them.
// Zero contributions are left out.
func Explain(r *schema.ScoreResult, limit int) []Contribution {
	out := make([]Contribution, 0, len(r.SubWeighted))
	for key, weighted := range r.SubWeighted {
		if weighted == 0 {
			continue
		}
		out = append(out, Contribution{Key: key, Unweighted: r.SubUnweighted[key], Weighted: weighted})
	}
	slices.SortFunc(out, func(a, b Contribution) int {
		if c := cmp.Compare(math.Abs(b.Weighted), math.Abs(a.Weighted)); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
