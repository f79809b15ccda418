package taxonomy

import (
	"maps"
	"sync"

	"github.com/huangsam/discomfort/schema"
)

var (
	cycle    = schema.CycleVariant
	dismount = schema.DismountVariant
	walk     = schema.WalkVariant
)

func variants(v ...schema.Variant) []schema.Variant { return v }

func members(keys ...schema.SubcomponentKey) []schema.SubcomponentKey { return keys }

func lookupOn(field string, table map[string]float64) *FormulaSpec {
	return &FormulaSpec{Kind: CategoricalKind, Field: field, Table: table}
}

func bothSides(left, right string, table map[string]float64) *FormulaSpec {
	return &FormulaSpec{Kind: TwoSidedKind, Fields: []string{left, right}, Table: table}
}

func imageryOn(field string, scale float64) *FormulaSpec {
	return &FormulaSpec{Kind: ImageryKind, Field: field, Scale: scale}
}

func imagerySub(key schema.SubcomponentKey, field, name, desc string, scale float64, v ...schema.Variant) Subcomponent {
	return Subcomponent{
		Key:         key,
		Name:        name,
		Description: desc,
		Imagery:     true,
		Variants:    v,
		Formulas:    Formulas{All: imageryOn(field, scale)},
	}
}

// DefaultDocument returns the built-in catalog.
func DefaultDocument() Document {
	parkingCycle := map[string]float64{"no": -1, "half_on_kerb": 0.5, "lane": 1}
	parkingFoot := map[string]float64{"no": -0.5, "half_on_kerb": 1, "lane": 0.5}
	footCycle := map[string]float64{"yes": 1, "designated": 2}
	footWalk := map[string]float64{"yes": -2, "designated": -1, "use_sidepath": 2}
	highwayWalk := map[string]float64{
		"footway":       -4,
		"pedestrian":    -3,
		"living_street": -2,
		"path":          -1,
		"residential":   -0.5,
	}
	highwayStairs := map[string]float64{"steps": 1}
	maps.Copy(highwayStairs, highwayWalk)

	return Document{
		Description: "Street segment discomfort for cycling and walking. Negative values improve comfort, positive values add discomfort.",
		Dismount: DismountRule{
			Field:   "bicycle",
			Values:  []string{"dismount"},
			Penalty: DefaultDismountPenalty,
		},
		Subcomponents: []Subcomponent{
			{
				Key:         schema.SubBicycle,
				Name:        "Bicycle access",
				Description: "Legal access for bicycles on the segment.",
				Variants:    variants(cycle),
				Formulas: Formulas{Cycle: lookupOn("bicycle", map[string]float64{
					"yes": -3, "permissive": -2, "destination": -1, "no": 3,
				})},
			},
			{
				Key:         schema.SubCyclewayClass,
				Name:        "Bike lane class",
				Description: "Class of the bike lane on each side; class 1 is fully separated.",
				Variants:    variants(cycle),
				Formulas: Formulas{Cycle: bothSides("cycleway:left:class", "cycleway:right:class", map[string]float64{
					"1": -4, "2": -2, "3": -1, "unknown": -1,
				})},
			},
			{
				Key:         schema.SubCyclewayLaneType,
				Name:        "Bike lane type",
				Description: "Whether the bike lane on each side is exclusive or shared.",
				Variants:    variants(cycle),
				Formulas: Formulas{Cycle: bothSides("cycleway:left:lane", "cycleway:right:lane", map[string]float64{
					"exclusive": -1, "shared": 1, "unknown": -1,
				})},
			},
			{
				Key:         schema.SubFoot,
				Name:        "Foot access",
				Description: "Pedestrian access. Shared foot traffic slows cyclists down.",
				Variants:    variants(cycle, dismount, walk),
				Formulas: Formulas{
					Cycle:    lookupOn("foot", footCycle),
					Dismount: lookupOn("foot", footWalk),
					Walk:     lookupOn("foot", footWalk),
				},
			},
			{
				Key:         schema.SubHighway,
				Name:        "Street type",
				Description: "Type of street or path.",
				Variants:    variants(cycle, dismount, walk),
				Formulas: Formulas{
					Cycle: lookupOn("highway", map[string]float64{
						"living_street": -4,
						"pedestrian":    -3,
						"footway":       -2,
						"path":          -1,
						"residential":   -0.5,
					}),
					Dismount: lookupOn("highway", highwayWalk),
					Walk:     lookupOn("highway", highwayStairs),
				},
			},
			{
				Key:         schema.SubAlley,
				Name:        "Alley",
				Description: "Segment is an alley.",
				Variants:    variants(cycle, dismount, walk),
				Formulas: Formulas{
					Cycle:    &FormulaSpec{Kind: FlagKind, Fields: []string{"footway", "service"}, Match: []string{"alley"}, Score: 1},
					Dismount: &FormulaSpec{Kind: FlagKind, Fields: []string{"footway", "service"}, Match: []string{"alley"}, Score: -1},
					Walk:     &FormulaSpec{Kind: FlagKind, Fields: []string{"footway", "service"}, Match: []string{"alley"}, Score: -1},
				},
			},
			{
				Key:         schema.SubWidth,
				Name:        "Width",
				Description: "Street width in meters compared with a three meter reference.",
				Variants:    variants(cycle, dismount, walk),
				Formulas:    Formulas{All: &FormulaSpec{Kind: WidthKind, Field: "width", Reference: DefaultWidthReference}},
			},
			{
				Key:         schema.SubLit,
				Name:        "Lighting",
				Description: "Street lighting at night.",
				Variants:    variants(cycle, dismount, walk),
				Formulas:    Formulas{All: lookupOn("lit", map[string]float64{"yes": -1, "no": 0})},
			},
			{
				Key:         schema.SubMaxspeed,
				Name:        "Speed limit",
				Description: "Posted speed limit above or below 30 km/h.",
				Variants:    variants(cycle, dismount, walk),
				Formulas:    Formulas{All: &FormulaSpec{Kind: SignKind, Field: "maxspeed", Reference: 30}},
			},
			{
				Key:         schema.SubSegregated,
				Name:        "Segregated path",
				Description: "Whether cyclists and pedestrians are separated on shared paths.",
				Variants:    variants(cycle, dismount, walk),
				Formulas:    Formulas{All: lookupOn("segregated", map[string]float64{"yes": 0, "no": 1})},
			},
			{
				Key:         schema.SubSidewalk,
				Name:        "Sidewalk",
				Description: "Sidewalk presence on each side.",
				Variants:    variants(dismount, walk),
				Formulas:    Formulas{All: bothSides("sidewalk:left", "sidewalk:right", map[string]float64{"yes": -1})},
			},
			{
				Key:         schema.SubParking,
				Name:        "On-street parking",
				Description: "Parking on each side of the street.",
				Variants:    variants(cycle, dismount, walk),
				Formulas: Formulas{
					Cycle:    bothSides("parking:left", "parking:right", parkingCycle),
					Dismount: bothSides("parking:left", "parking:right", parkingFoot),
					Walk:     bothSides("parking:left", "parking:right", parkingFoot),
				},
			},
			{
				Key:         schema.SubCrossing,
				Name:        "Crossing",
				Description: "Kind of pedestrian crossing on the segment.",
				Variants:    variants(cycle, dismount, walk),
				Formulas:    Formulas{All: lookupOn("crossing", map[string]float64{"ordinary": 0, "unmarked": 1})},
			},
			{
				Key:         schema.SubAccident,
				Name:        "Accident risk",
				Description: "Accident risk class from road safety records.",
				Variants:    variants(cycle, dismount, walk),
				Formulas:    Formulas{All: lookupOn("accident_risk", map[string]float64{"low": 0, "medium": 1, "high": 2})},
			},
			{
				Key:         schema.SubMotorVehicle,
				Name:        "Motor vehicle access",
				Description: "Restrictions on motor traffic.",
				Variants:    variants(cycle, dismount, walk),
				Formulas:    Formulas{All: lookupOn("motor_vehicle", map[string]float64{"no": -2, "no_cars": -1})},
			},
			imagerySub(schema.SubImgCyclingCoverage, "cycling_lane_coverage", "Bike lane coverage (imagery)",
				"Share of street view images showing a bike lane.", DefaultImageryScale, cycle),
			imagerySub(schema.SubImgSidewalkRatio, "sidewalk_ratio", "Sidewalk ratio (imagery)",
				"Share of the street view covered by sidewalk.", DefaultImageryScale, walk),
			imagerySub(schema.SubImgObstruction, "obstruction_density", "Unobstructed sidewalk (imagery)",
				"Share of sidewalk free of obstructions.", DefaultImageryScale, walk),
			imagerySub(schema.SubImgGreenery, "greenery_ratio", "Greenery (imagery)",
				"Share of the street view covered by vegetation.", DefaultImageryScale, cycle, dismount, walk),
			imagerySub(schema.SubImgRoadCondition, "road_condition", "Road condition (imagery)",
				"Surface quality estimated from street view images.", DefaultImageryScale, cycle, walk),
			imagerySub(schema.SubImgCrosswalk, "has_crosswalk", "Crosswalk (imagery)",
				"Share of images showing a marked crosswalk.", DefaultImageryScale, walk),
			imagerySub(schema.SubImgHasBicycle, "has_bicycle", "Cyclists present (imagery)",
				"Share of images showing other cyclists.", DefaultImageryScale, cycle),
			imagerySub(schema.SubImgTrafficLight, "has_traffic_light", "Traffic light (imagery)",
				"Share of images showing a traffic light.", 0.5, walk),
		},
		MainComponents: map[schema.Mode][]MainComponent{
			schema.BikeMode: {
				{Key: schema.MainDismount, Name: "Dismount", Description: "Fixed penalty for walking the bike.",
					Members: members(schema.SubDismount)},
				{Key: schema.MainConvenience, Name: "Convenience",
					Members: members(schema.SubBicycle, schema.SubAlley, schema.SubSegregated, schema.SubParking,
						schema.SubFoot, schema.SubImgRoadCondition)},
				{Key: schema.MainAttractiveness, Name: "Attractiveness",
					Members: members(schema.SubImgGreenery)},
				{Key: schema.MainTrafficSafety, Name: "Traffic safety",
					Members: members(schema.SubCyclewayClass, schema.SubCyclewayLaneType, schema.SubImgCyclingCoverage,
						schema.SubWidth, schema.SubMaxspeed)},
				{Key: schema.MainSecurity, Name: "Security",
					Members: members(schema.SubLit, schema.SubImgHasBicycle)},
				{Key: schema.MainAccidentRisk, Name: "Accident risk",
					Members: members(schema.SubAccident)},
				{Key: schema.MainTrafficVolume, Name: "Traffic volume",
					Members: members(schema.SubHighway, schema.SubMotorVehicle)},
				{Key: schema.MainSidewalksAndCrossings, Name: "Safety of sidewalks and crossings",
					Members: members(schema.SubSidewalk, schema.SubCrossing)},
			},
			schema.WalkMode: {
				{Key: schema.MainConvenience, Name: "Convenience",
					Members: members(schema.SubAlley, schema.SubFoot, schema.SubSegregated, schema.SubParking,
						schema.SubImgObstruction, schema.SubImgRoadCondition)},
				{Key: schema.MainTrafficVolume, Name: "Traffic volume",
					Members: members(schema.SubHighway, schema.SubMotorVehicle)},
				{Key: schema.MainTrafficSpeed, Name: "Traffic speed",
					Members: members(schema.SubWidth, schema.SubMaxspeed, schema.SubImgTrafficLight)},
				{Key: schema.MainAttractiveness, Name: "Attractiveness",
					Members: members(schema.SubImgGreenery)},
				{Key: schema.MainAccidentRisk, Name: "Accident risk",
					Members: members(schema.SubAccident)},
				{Key: schema.MainSafetyOfSidewalks, Name: "Safety of sidewalks",
					Members: members(schema.SubSidewalk, schema.SubImgSidewalkRatio, schema.SubLit)},
				{Key: schema.MainSafetyOfCrossings, Name: "Safety of crossings",
					Members: members(schema.SubCrossing, schema.SubImgCrosswalk)},
			},
		},
	}
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the built-in taxonomy. It panics if the built-in catalog is invalid.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := New(DefaultDocument())
		if err != nil {
			panic(err)
		}
		defaultTax = t
	})
	return defaultTax
}
