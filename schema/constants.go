package schema

// Custom string types for type safety.
type (
	// SubcomponentKey identifies an elementary discomfort factor.
	SubcomponentKey string

	// MainComponentKey identifies a grouping of subcomponents.
	MainComponentKey string

	// OutputMode represents the format of the output.
	OutputMode string

	// Mode represents the transport mode being scored.
	Mode string

	// Variant represents the network variant whose formulas apply to a segment.
	Variant string

	// TotalKind selects which of the two total scores is used for ranking and costs.
	TotalKind string

	// DatabaseBackend represents the database backend for caching and run tracking.
	DatabaseBackend string
)

// Subcomponent keys. These names are shared with every consumer of scores
// (exports, stored runs, config files) and must stay stable.
const (
	SubDismount           SubcomponentKey = "DISMOUNT"
	SubBicycle            SubcomponentKey = "bicycle"
	SubCyclewayClass      SubcomponentKey = "CYCLEWAY_CLASS"
	SubCyclewayLaneType   SubcomponentKey = "CYCLEWAY_LANE_TYPE"
	SubFoot               SubcomponentKey = "foot"
	SubHighway            SubcomponentKey = "highway"
	SubAlley              SubcomponentKey = "ALLEY"
	SubWidth              SubcomponentKey = "width"
	SubLit                SubcomponentKey = "lit"
	SubMaxspeed           SubcomponentKey = "maxspeed"
	SubSegregated         SubcomponentKey = "segregated"
	SubSidewalk           SubcomponentKey = "sidewalk"
	SubParking            SubcomponentKey = "PARKING_SUBTAGS"
	SubCrossing           SubcomponentKey = "TAG_crossing"
	SubAccident           SubcomponentKey = "EDSA_accident_component"
	SubMotorVehicle       SubcomponentKey = "motor_vehicle"
	SubImgCyclingCoverage SubcomponentKey = "FROM_IMAGES_cycling_lane_coverage"
	SubImgSidewalkRatio   SubcomponentKey = "FROM_IMAGES_sidewalk_ratio"
	SubImgGreenery        SubcomponentKey = "FROM_IMAGES_greenery_ratio"
	SubImgRoadCondition   SubcomponentKey = "FROM_IMAGES_road_condition"
	SubImgHasBicycle      SubcomponentKey = "FROM_IMAGES_has_bicycle"
	SubImgTrafficLight    SubcomponentKey = "FROM_IMAGES_has_traffic_light"
	SubImgCrosswalk       SubcomponentKey = "FROM_IMAGES_has_crosswalk"
	SubImgObstruction     SubcomponentKey = "FROM_IMAGES_obstruction_density"
)

// Main component keys.
const (
	MainDismount              MainComponentKey = "DISMOUNT"
	MainConvenience           MainComponentKey = "convenience"
	MainAttractiveness        MainComponentKey = "attractiveness"
	MainTrafficSafety         MainComponentKey = "traffic_safety"
	MainSecurity              MainComponentKey = "security"
	MainAccidentRisk          MainComponentKey = "accident_risk"
	MainTrafficVolume         MainComponentKey = "traffic_volume"
	MainSidewalksAndCrossings MainComponentKey = "safety_of_sidewalks_and_crossings"
	MainTrafficSpeed          MainComponentKey = "traffic_speed"
	MainSafetyOfSidewalks     MainComponentKey = "safety_of_sidewalks"
	MainSafetyOfCrossings     MainComponentKey = "safety_of_crossings"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
	GeoJSONOut OutputMode = "geojson"
)

// All transport modes supported.
const (
	BikeMode Mode = "bike" // default
	WalkMode Mode = "walk"
)

// All network variants supported.
const (
	CycleVariant    Variant = "CYCLE"
	DismountVariant Variant = "DISMOUNT"
	WalkVariant     Variant = "WALK"
)

// Total score selections.
const (
	TotalByMain TotalKind = "main" // default
	TotalBySub  TotalKind = "sub"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis" // cache only
	NoneBackend       DatabaseBackend = "none"
)

// AllModes returns a list of all supported transport modes.
var AllModes = []Mode{BikeMode, WalkMode}

// AllVariants returns a list of all network variants in display order.
var AllVariants = []Variant{CycleVariant, DismountVariant, WalkVariant}

// ModeVariants lists the variants reachable from each mode.
var ModeVariants = map[Mode][]Variant{
	BikeMode: {CycleVariant, DismountVariant},
	WalkMode: {WalkVariant},
}

// VariantMode maps a variant back to the mode that owns it.
var VariantMode = map[Variant]Mode{
	CycleVariant:    BikeMode,
	DismountVariant: BikeMode,
	WalkVariant:     WalkMode,
}

// DefaultBetas are the discomfort sensitivity levels used to precompute paths.
var DefaultBetas = []float64{0, 0.5, 1, 1.5, 2, 2.5, 3}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
	GeoJSONOut: {},
}

// ValidModes lists all valid transport modes.
var ValidModes = map[Mode]struct{}{
	BikeMode: {},
	WalkMode: {},
}

// ValidVariants lists all valid network variants.
var ValidVariants = map[Variant]struct{}{
	CycleVariant:    {},
	DismountVariant: {},
	WalkVariant:     {},
}

// ValidTotalKinds lists all valid total score selections.
var ValidTotalKinds = map[TotalKind]struct{}{
	TotalByMain: {},
	TotalBySub:  {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidRunBackends lists all valid run tracking backends.
var ValidRunBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
