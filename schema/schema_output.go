package schema

import "math"

// Discomfort level labels.
const (
	SevereLevel      = "Severe"
	HighLevel        = "High"
	ModerateLevel    = "Moderate"
	ComfortableLevel = "Comfortable"
)

// Trade-off strength labels.
const (
	StrongTradeoff = "Strong"
	FairTradeoff   = "Fair"
	WeakTradeoff   = "Weak"
	NoTradeoff     = "n/a"
)

// GetPlainLabel returns a discomfort level for a total score.
// Negative totals mean the segment is more comfortable than neutral.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 6:
		return SevereLevel
	case score >= 2:
		return HighLevel
	case score >= 0:
		return ModerateLevel
	default:
		return ComfortableLevel
	}
}

// GetTradeoffLabel classifies a trade-off rate. A rate above 1 means discomfort
// falls faster than distance grows.
func GetTradeoffLabel(mtor float64) string {
	switch {
	case math.IsNaN(mtor):
		return NoTradeoff
	case mtor >= 2:
		return StrongTradeoff
	case mtor >= 1:
		return FairTradeoff
	default:
		return WeakTradeoff
	}
}

// EnrichedScore adds presentation data to a scored segment.
type EnrichedScore struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	ScoredSegment
}

// EnrichScores adds rank and label to a list of scored segments.
func EnrichScores(results []ScoredSegment, kind TotalKind) []EnrichedScore {
	output := make([]EnrichedScore, len(results))
	for i, r := range results {
		output[i] = EnrichedScore{
			Rank:          i + 1,
			Label:         GetPlainLabel(r.Score.Total(kind)),
			ScoredSegment: r,
		}
	}
	return output
}

// LevelRenderModel is one category level of a subcomponent.
type LevelRenderModel struct {
	Value string  `json:"value"`
	Score float64 `json:"score"`
}

// SubcomponentRenderModel describes one subcomponent for a variant.
type SubcomponentRenderModel struct {
	Key         string             `json:"key"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Imagery     bool               `json:"imagery"`
	Formula     string             `json:"formula"`
	Levels      []LevelRenderModel `json:"levels,omitempty"`
	Weight      float64            `json:"weight"`
}

// MainComponentRenderModel describes one main component for a mode.
type MainComponentRenderModel struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Weight  float64  `json:"weight"`
}

// VariantRenderModel groups everything shown for one variant.
type VariantRenderModel struct {
	Variant       string                     `json:"variant"`
	Mode          string                     `json:"mode"`
	Subcomponents []SubcomponentRenderModel  `json:"subcomponents"`
	Main          []MainComponentRenderModel `json:"main_components"`
}

// TaxonomyRenderModel is the complete taxonomy and active weights view.
type TaxonomyRenderModel struct {
	Description     string               `json:"description"`
	DismountField   string               `json:"dismount_field"`
	DismountPenalty float64              `json:"dismount_penalty"`
	Variants        []VariantRenderModel `json:"variants"`
}
