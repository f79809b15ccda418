package core

import (
	"fmt"

	"github.com/huangsam/discomfort/core/algo"
	"github.com/huangsam/discomfort/core/taxonomy"
	"github.com/huangsam/discomfort/schema"
)

// BuildTaxonomyModel describes every variant with its formulas, levels and active weights.
func BuildTaxonomyModel(tax *taxonomy.Taxonomy, w *algo.WeightSnapshot) schema.TaxonomyRenderModel {
	rule := tax.Dismount()
	model := schema.TaxonomyRenderModel{
		Description:     tax.Description(),
		DismountField:   rule.Field,
		DismountPenalty: rule.Penalty,
		Variants:        make([]schema.VariantRenderModel, 0, len(schema.AllVariants)),
	}
	for _, v := range schema.AllVariants {
		mode := schema.VariantMode[v]
		vm := schema.VariantRenderModel{Variant: string(v), Mode: string(mode)}
		if v == schema.DismountVariant {
			vm.Subcomponents = append(vm.Subcomponents, schema.SubcomponentRenderModel{
				Key:     string(schema.SubDismount),
				Name:    "Dismount penalty",
				Formula: fmt.Sprintf("constant %g", rule.Penalty),
				Weight:  algo.DefaultWeight,
			})
		}
		for _, term := range tax.Terms(v) {
			sub, _ := tax.Subcomponent(term.Key)
			vm.Subcomponents = append(vm.Subcomponents, schema.SubcomponentRenderModel{
				Key:         string(term.Key),
				Name:        sub.Name,
				Description: sub.Description,
				Imagery:     sub.Imagery,
				Formula:     term.Formula.Describe(),
				Levels:      term.Formula.Levels(),
				Weight:      w.Sub(v, term.Key),
			})
		}
		for _, mc := range tax.MainComponents(mode) {
			members := make([]string, 0, len(mc.Members))
			for _, key := range mc.Members {
				if tax.HasSubKey(key, v) || (v == schema.DismountVariant && key == schema.SubDismount) {
					members = append(members, string(key))
				}
			}
			if len(members) == 0 {
				continue
			}
			vm.Main = append(vm.Main, schema.MainComponentRenderModel{
				Key:     string(mc.Key),
				Name:    mc.Name,
				Members: members,
				Weight:  w.Main(mode, mc.Key),
			})
		}
		model.Variants = append(model.Variants, vm)
	}
	return model
}
