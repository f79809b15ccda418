package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/schema"
)

// PrintTaxonomy outputs the subcomponent catalog of every variant.
func PrintTaxonomy(model schema.TaxonomyRenderModel, cfg *contract.Config) error {
	fmtFloat, fmtCSV := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, model)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTaxonomyCSV(w, model, fmtCSV)
		}, "Wrote CSV")
	case schema.ParquetOut, schema.GeoJSONOut:
		return unsupported(string(cfg.Output), "the taxonomy")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTaxonomyText(w, model, cfg, fmtFloat)
		}, "Wrote taxonomy")
	}
}

// PrintWeights outputs the active sub and main weights.
func PrintWeights(model schema.TaxonomyRenderModel, cfg *contract.Config) error {
	fmtFloat, fmtCSV := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, WeightsView(model))
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWeightsCSV(w, model, fmtCSV)
		}, "Wrote CSV")
	case schema.ParquetOut, schema.GeoJSONOut:
		return unsupported(string(cfg.Output), "weights")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWeightsText(w, model, fmtFloat)
		}, "Wrote weights")
	}
}

func writeTaxonomyText(w io.Writer, model schema.TaxonomyRenderModel, cfg *contract.Config, fmtFloat func(float64) string) error {
	if model.Description != "" {
		if _, err := fmt.Fprintln(w, model.Description); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Bike segments are walked when %s matches the dismount rule (penalty %g)\n\n", model.DismountField, model.DismountPenalty); err != nil {
		return err
	}
	for _, v := range model.Variants {
		if _, err := fmt.Fprintf(w, "%s (%s mode)\n", v.Variant, v.Mode); err != nil {
			return err
		}
		headers := []string{"Key", "Name", "Formula", "Weight"}
		if cfg.Detail {
			headers = append(headers, "Levels")
		}
		rows := make([][]string, 0, len(v.Subcomponents))
		for _, s := range v.Subcomponents {
			name := s.Name
			if s.Imagery {
				name += " *"
			}
			row := []string{s.Key, name, s.Formula, fmtFloat(s.Weight)}
			if cfg.Detail {
				row = append(row, formatLevels(s.Levels))
			}
			rows = append(rows, row)
		}
		if err := renderTable(w, headers, rows); err != nil {
			return err
		}
		if err := writeMainText(w, v, fmtFloat); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "* derived from street-level imagery")
	return err
}

func writeMainText(w io.Writer, v schema.VariantRenderModel, fmtFloat func(float64) string) error {
	rows := make([][]string, 0, len(v.Main))
	for _, m := range v.Main {
		rows = append(rows, []string{m.Key, strings.Join(m.Members, ", "), fmtFloat(m.Weight)})
	}
	return renderTable(w, []string{"Main component", "Members", "Weight"}, rows)
}

func formatLevels(levels []schema.LevelRenderModel) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprintf("%s=%g", l.Value, l.Score)
	}
	return strings.Join(parts, " ")
}

func writeTaxonomyCSV(w io.Writer, model schema.TaxonomyRenderModel, fmtCSV func(float64) string) error {
	header := []string{"variant", "mode", "key", "name", "imagery", "formula", "weight", "levels"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, v := range model.Variants {
			for _, s := range v.Subcomponents {
				rec := []string{v.Variant, v.Mode, s.Key, s.Name, strconv.FormatBool(s.Imagery), s.Formula, fmtCSV(s.Weight), formatLevels(s.Levels)}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WeightsJSON mirrors the weights section of a config file.
type WeightsJSON struct {
	Sub  map[string]map[string]float64 `json:"sub"`
	Main map[string]map[string]float64 `json:"main"`
}

// WeightsView flattens the active weights of a taxonomy model by variant and mode.
func WeightsView(model schema.TaxonomyRenderModel) WeightsJSON {
	out := WeightsJSON{
		Sub:  make(map[string]map[string]float64),
		Main: make(map[string]map[string]float64),
	}
	for _, v := range model.Variants {
		out.Sub[v.Variant] = make(map[string]float64, len(v.Subcomponents))
		for _, s := range v.Subcomponents {
			if s.Key == string(schema.SubDismount) {
				continue // not weightable
			}
			out.Sub[v.Variant][s.Key] = s.Weight
		}
		if out.Main[v.Mode] == nil {
			out.Main[v.Mode] = make(map[string]float64)
		}
		for _, m := range v.Main {
			out.Main[v.Mode][m.Key] = m.Weight
		}
	}
	return out
}

func writeWeightsText(w io.Writer, model schema.TaxonomyRenderModel, fmtFloat func(float64) string) error {
	view := WeightsView(model)
	var rows [][]string
	for _, v := range model.Variants {
		for _, s := range v.Subcomponents {
			if weight, ok := view.Sub[v.Variant][s.Key]; ok {
				rows = append(rows, []string{"sub", v.Variant, s.Key, fmtFloat(weight)})
			}
		}
	}
	seen := make(map[string]bool)
	for _, v := range model.Variants {
		for _, m := range v.Main {
			id := v.Mode + "." + m.Key
			if seen[id] {
				continue
			}
			seen[id] = true
			rows = append(rows, []string{"main", v.Mode, m.Key, fmtFloat(m.Weight)})
		}
	}
	return renderTable(w, []string{"Level", "Scope", "Key", "Weight"}, rows)
}

func writeWeightsCSV(w io.Writer, model schema.TaxonomyRenderModel, fmtCSV func(float64) string) error {
	view := WeightsView(model)
	return writeCSVWithHeader(w, []string{"level", "scope", "key", "weight"}, func(cw *csv.Writer) error {
		for _, v := range model.Variants {
			for _, s := range v.Subcomponents {
				if weight, ok := view.Sub[v.Variant][s.Key]; ok {
					if err := cw.Write([]string{"sub", v.Variant, s.Key, fmtCSV(weight)}); err != nil {
						return err
					}
				}
			}
		}
		seen := make(map[string]bool)
		for _, v := range model.Variants {
			for _, m := range v.Main {
				id := v.Mode + "." + m.Key
				if seen[id] {
					continue
				}
				seen[id] = true
				if err := cw.Write([]string{"main", v.Mode, m.Key, fmtCSV(m.Weight)}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
