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
)

// PrintCurveResults outputs the city and region curves with their trade-offs.
func PrintCurveResults(curves []schema.CurveResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtCSV := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, curves)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTradeoffsCSV(w, curves, fmtCSV)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquet(cfg, parquet.ConvertTradeoffs(curves))
	case schema.GeoJSONOut:
		return unsupported(string(cfg.Output), "curves")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			for _, curve := range curves {
				if err := writeCurveTable(w, curve, cfg, fmtFloat); err != nil {
					return err
				}
			}
			_, err := fmt.Fprintf(w, "Built %d curves in %v with %d workers\n", len(curves), duration, cfg.Workers)
			return err
		}, "Wrote table")
	}
}

// PrintRouteResult outputs the path metrics of one pair and the trade-offs along it.
func PrintRouteResult(result schema.RouteResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtCSV := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRouteCSV(w, result.Metrics, fmtCSV)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquet(cfg, parquet.ConvertTradeoffs([]schema.CurveResult{result.Curve}))
	case schema.GeoJSONOut:
		return unsupported(string(cfg.Output), "routes")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRouteTable(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// writeCurveTable writes the levels of one curve followed by its trade-offs.
func writeCurveTable(w io.Writer, curve schema.CurveResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	pairs := 0
	if len(curve.Rows) > 0 {
		pairs = curve.Rows[0].Pairs
	}
	if _, err := fmt.Fprintf(w, "Region: %s (%d pairs)\n", curve.Region, pairs); err != nil {
		return err
	}

	dropped := make(map[float64]struct{}, len(curve.Dropped))
	for _, b := range curve.Dropped {
		dropped[b] = struct{}{}
	}
	rows := make([][]string, 0, len(curve.Rows))
	for _, r := range curve.Rows {
		_, isDropped := dropped[r.Beta]
		retained := "yes"
		if isDropped {
			retained = "no"
		}
		rows = append(rows, []string{
			strconv.FormatFloat(r.Beta, 'g', -1, 64),
			fmtFloat(r.RelativeDistance),
			fmtFloat(r.RelativeDiscomfort),
			retained,
		})
	}
	if err := renderTable(w, []string{"Beta", "Rel. Distance", "Rel. Discomfort", "Retained"}, rows); err != nil {
		return err
	}
	return writeTradeoffTable(w, curve.Tradeoffs, cfg, fmtFloat)
}

// writeTradeoffTable writes one row per consecutive pair of retained levels.
func writeTradeoffTable(w io.Writer, tradeoffs []schema.TradeoffRow, cfg *contract.Config, fmtFloat func(float64) string) error {
	if len(tradeoffs) == 0 {
		_, err := fmt.Fprintln(w, "No trade-offs: fewer than two distinct levels")
		return err
	}
	rows := make([][]string, 0, len(tradeoffs))
	for _, t := range tradeoffs {
		label := schema.GetTradeoffLabel(t.MTOR)
		if cfg.UseColors {
			label = contract.GetTradeoffColorLabel(t.MTOR)
		}
		rows = append(rows, []string{
			t.BetaPair,
			fmtFloat(t.DistanceChangePercent),
			fmtFloat(t.DiscomfortChangePercent),
			fmtFloat(t.MTOR),
			label,
		})
	}
	if err := renderTable(w, []string{"Betas", "Distance +%", "Discomfort -%", "Rate", "Trade-off"}, rows); err != nil {
		return err
	}
	if cfg.Explain {
		for _, t := range tradeoffs {
			if _, err := fmt.Fprintf(w, "  %s\n", algo.Interpretation(t)); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeRouteTable writes the per-beta path metrics and the trade-offs of a single pair.
func writeRouteTable(w io.Writer, result schema.RouteResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "Route: %s\n", result.Pair); err != nil {
		return err
	}
	headers := []string{"Beta", "Nodes", "Length", "Discomfort", "Rel. Distance", "Rel. Discomfort"}
	if cfg.Detail {
		headers = append(headers, "Weighted", "Straight")
	}
	rows := make([][]string, 0, len(result.Metrics))
	for _, m := range result.Metrics {
		row := []string{
			strconv.FormatFloat(m.Beta, 'g', -1, 64),
			strconv.Itoa(m.Nodes),
			fmtFloat(m.TotalLength),
			fmtFloat(m.TotalDiscomfort),
			fmtFloat(m.RelativeDistance),
			fmtFloat(m.RelativeDiscomfort),
		}
		if cfg.Detail {
			row = append(row, fmtFloat(m.WeightedDiscomfort), fmtFloat(m.StraightLine))
		}
		rows = append(rows, row)
	}
	if err := renderTable(w, headers, rows); err != nil {
		return err
	}
	if len(result.Curve.Dropped) > 0 {
		betas := make([]string, len(result.Curve.Dropped))
		for i, b := range result.Curve.Dropped {
			betas[i] = strconv.FormatFloat(b, 'g', -1, 64)
		}
		if _, err := fmt.Fprintf(w, "Duplicate levels dropped at beta %s\n", strings.Join(betas, ", ")); err != nil {
			return err
		}
	}
	if err := writeTradeoffTable(w, result.Curve.Tradeoffs, cfg, fmtFloat); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Route computed in %v\n", duration)
	return err
}

// writeTradeoffsCSV writes every trade-off of every curve.
func writeTradeoffsCSV(w io.Writer, curves []schema.CurveResult, fmtCSV func(float64) string) error {
	header := []string{
		"region", "lower_beta", "higher_beta",
		"relative_distance_previous", "relative_discomfort_previous",
		"relative_distance", "relative_discomfort",
		"distance_change_percent", "discomfort_change_percent", "tradeoff_rate", "tradeoff",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, c := range curves {
			for _, t := range c.Tradeoffs {
				rec := []string{
					c.Region,
					strconv.FormatFloat(t.LowerBeta, 'g', -1, 64),
					strconv.FormatFloat(t.HigherBeta, 'g', -1, 64),
					fmtCSV(t.PrevRelativeDistance),
					fmtCSV(t.PrevRelativeDiscomfort),
					fmtCSV(t.RelativeDistance),
					fmtCSV(t.RelativeDiscomfort),
					fmtCSV(t.DistanceChangePercent),
					fmtCSV(t.DiscomfortChangePercent),
					fmtCSV(t.MTOR),
					schema.GetTradeoffLabel(t.MTOR),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeRouteCSV writes the path metrics of every beta.
func writeRouteCSV(w io.Writer, metrics []schema.PathMetrics, fmtCSV func(float64) string) error {
	header := []string{
		"origin", "destination", "beta", "nodes", "total_length", "total_discomfort",
		"weighted_discomfort", "straight_line", "relative_distance", "relative_discomfort",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, m := range metrics {
			rec := []string{
				strconv.FormatInt(m.Pair.Origin, 10),
				strconv.FormatInt(m.Pair.Destination, 10),
				strconv.FormatFloat(m.Beta, 'g', -1, 64),
				strconv.Itoa(m.Nodes),
				fmtCSV(m.TotalLength),
				fmtCSV(m.TotalDiscomfort),
				fmtCSV(m.WeightedDiscomfort),
				fmtCSV(m.StraightLine),
				fmtCSV(m.RelativeDistance),
				fmtCSV(m.RelativeDiscomfort),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
