package core

import (
	"testing"

	"github.com/huangsam/discomfort/core/algo"
	"github.com/huangsam/discomfort/core/taxonomy"
	"github.com/huangsam/discomfort/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTaxonomyModel(t *testing.T) {
	tax := taxonomy.Default()
	wc := algo.NewWeightConfig(tax)
	require.NoError(t, wc.SetSubWeight(schema.WalkVariant, schema.SubLit, 2))
	require.NoError(t, wc.SetMainWeight(schema.BikeMode, schema.MainSecurity, 0.5))

	model := BuildTaxonomyModel(tax, wc.Snapshot())
	assert.Equal(t, "bicycle", model.DismountField)
	assert.Equal(t, taxonomy.DefaultDismountPenalty, model.DismountPenalty)
	require.Len(t, model.Variants, 3)

	byVariant := make(map[string]schema.VariantRenderModel)
	for _, v := range model.Variants {
		byVariant[v.Variant] = v
	}

	dismount := byVariant["DISMOUNT"]
	assert.Equal(t, "bike", dismount.Mode)
	require.NotEmpty(t, dismount.Subcomponents)
	assert.Equal(t, string(schema.SubDismount), dismount.Subcomponents[0].Key)

	var dismountMain *schema.MainComponentRenderModel
	for i, m := range dismount.Main {
		if m.Key == string(schema.MainDismount) {
			dismountMain = &dismount.Main[i]
		}
	}
	require.NotNil(t, dismountMain)
	assert.Equal(t, []string{string(schema.SubDismount)}, dismountMain.Members)

	for _, m := range byVariant["CYCLE"].Main {
		assert.NotEqual(t, string(schema.MainDismount), m.Key)
		if m.Key == string(schema.MainSecurity) {
			assert.Equal(t, 0.5, m.Weight)
		}
	}

	for _, s := range byVariant["WALK"].Subcomponents {
		if s.Key == string(schema.SubLit) {
			assert.Equal(t, 2.0, s.Weight)
		}
	}
	for _, s := range byVariant["CYCLE"].Subcomponents {
		if s.Key == string(schema.SubLit) {
			assert.Equal(t, 1.0, s.Weight)
		}
	}
}
