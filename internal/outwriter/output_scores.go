package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/discomfort/core/algo"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/internal/parquet"
	"github.com/huangsam/discomfort/schema"
	geojson "github.com/paulmach/go.geojson"
)

// explainLimit is the number of contributions shown per segment.
const explainLimit = 3

// PrintScoreResults outputs ranked segment scores, dispatching based on the output format configured.
func PrintScoreResults(output *schema.NetworkScoreOutput, ranked []schema.ScoredSegment, cfg *contract.Config, duration time.Duration) error {
	enriched := schema.EnrichScores(ranked, cfg.Total)
	fmtFloat, fmtCSV := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresJSON(w, output, enriched)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresCSV(w, enriched, cfg, fmtCSV)
		}, "Wrote CSV")
	case schema.GeoJSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresGeoJSON(w, enriched)
		}, "Wrote GeoJSON")
	case schema.ParquetOut:
		return writeParquet(cfg, parquet.ConvertScores(enriched))
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresTable(w, output, enriched, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// writeScoresTable generates and writes the human-readable table.
func writeScoresTable(w io.Writer, output *schema.NetworkScoreOutput, scores []schema.EnrichedScore, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	other := schema.TotalBySub
	if cfg.Total == schema.TotalBySub {
		other = schema.TotalByMain
	}

	headers := []string{"Rank", "Segment", "Variant", "Score", "Label"}
	if cfg.Detail {
		headers = append(headers, "Length", "Region", "By "+string(other))
	}
	if cfg.Explain {
		headers = append(headers, "Explain")
	}

	width := GetMaxTableLabelWidth(cfg)
	rows := make([][]string, 0, len(scores))
	for _, s := range scores {
		total := s.Score.Total(cfg.Total)
		label := s.Label
		if cfg.UseColors {
			label = contract.GetColorLabel(total)
		}
		row := []string{
			strconv.Itoa(s.Rank),
			contract.TruncateLabel(segmentLabel(s.ScoredSegment), width),
			string(s.Score.Variant),
			fmtFloat(total),
			label,
		}
		if cfg.Detail {
			var length float64
			var region string
			if s.Segment != nil {
				length, region = s.Segment.Length, s.Segment.Region
			}
			row = append(row, fmtFloat(length), region, fmtFloat(s.Score.Total(other)))
		}
		if cfg.Explain {
			row = append(row, formatContributions(&s.Score, fmtFloat))
		}
		rows = append(rows, row)
	}
	if err := renderTable(w, headers, rows); err != nil {
		return err
	}

	var counts []string
	for _, v := range schema.ModeVariants[output.Mode] {
		counts = append(counts, fmt.Sprintf("%s: %d", v, output.Variants[v]))
	}
	if _, err := fmt.Fprintf(w, "Showing top %d of %d segments (%s)\n", len(scores), len(output.Results), strings.Join(counts, ", ")); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Scored %s mode by %s total in %v with %d workers. Cache backend: %s\n",
		output.Mode, output.Total, duration, cfg.Workers, cfg.CacheBackend)
	return err
}

// segmentLabel prefers the segment name tag over its id.
func segmentLabel(s schema.ScoredSegment) string {
	if s.Segment != nil {
		if name := s.Segment.Tag("name"); name != "" {
			return fmt.Sprintf("%s (%s)", name, s.Score.SegmentID)
		}
	}
	return s.Score.SegmentID.String()
}

// formatContributions lists the largest weighted subcomponents.
func formatContributions(r *schema.ScoreResult, fmtFloat func(float64) string) string {
	parts := make([]string, 0, explainLimit)
	for _, c := range algo.Explain(r, explainLimit) {
		parts = append(parts, fmt.Sprintf("%s %s", c.Key, fmtFloat(c.Weighted)))
	}
	if len(parts) == 0 {
		return "neutral"
	}
	return strings.Join(parts, ", ")
}

// writeScoresCSV writes one row per segment with both totals and every main component.
func writeScoresCSV(w io.Writer, scores []schema.EnrichedScore, cfg *contract.Config, fmtCSV func(float64) string) error {
	mains := cfg.Taxonomy.MainKeys(cfg.Mode)
	header := []string{"rank", "u", "v", "key", "length", "region", "mode", "variant", "score_weighted_by_main", "score_weighted_by_sub", "label"}
	for _, key := range mains {
		header = append(header, "main_"+string(key))
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range scores {
			var length float64
			var region string
			if s.Segment != nil {
				length, region = s.Segment.Length, s.Segment.Region
			}
			id := s.Score.SegmentID
			rec := []string{
				strconv.Itoa(s.Rank),
				strconv.FormatInt(id.U, 10),
				strconv.FormatInt(id.V, 10),
				strconv.Itoa(id.Key),
				fmtCSV(length),
				region,
				string(s.Score.Mode),
				string(s.Score.Variant),
				fmtCSV(s.Score.ScoreWeightedByMain),
				fmtCSV(s.Score.ScoreWeightedBySub),
				s.Label,
			}
			for _, key := range mains {
				rec = append(rec, fmtCSV(s.Score.MainWeighted[key]))
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeScoresJSON writes the run summary with the ranked segments.
func writeScoresJSON(w io.Writer, output *schema.NetworkScoreOutput, scores []schema.EnrichedScore) error {
	type jsonScores struct {
		Mode     schema.Mode            `json:"mode"`
		Total    schema.TotalKind       `json:"total"`
		Segments int                    `json:"segments"`
		Variants map[schema.Variant]int `json:"variants"`
		Results  []schema.EnrichedScore `json:"results"`
	}
	return writeJSON(w, jsonScores{
		Mode:     output.Mode,
		Total:    output.Total,
		Segments: len(output.Results),
		Variants: output.Variants,
		Results:  scores,
	})
}

// writeScoresGeoJSON writes a feature collection with one line per segment.
// Segments read without geometry become features with a null geometry.
func writeScoresGeoJSON(w io.Writer, scores []schema.EnrichedScore) error {
	fc := geojson.NewFeatureCollection()
	for _, s := range scores {
		var f *geojson.Feature
		if s.Segment != nil && len(s.Segment.Geometry) >= 2 {
			f = geojson.NewLineStringFeature(s.Segment.Geometry)
		} else {
			f = geojson.NewFeature(nil)
		}
		id := s.Score.SegmentID
		f.SetProperty("rank", s.Rank)
		f.SetProperty("u", id.U)
		f.SetProperty("v", id.V)
		f.SetProperty("key", id.Key)
		f.SetProperty("mode", string(s.Score.Mode))
		f.SetProperty("variant", string(s.Score.Variant))
		f.SetProperty("score_weighted_by_main", s.Score.ScoreWeightedByMain)
		f.SetProperty("score_weighted_by_sub", s.Score.ScoreWeightedBySub)
		f.SetProperty("label", s.Label)
		if s.Segment != nil {
			f.SetProperty("length", s.Segment.Length)
			if s.Segment.Region != "" {
				f.SetProperty("region", s.Segment.Region)
			}
		}
		fc.AddFeature(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
