package contract

import (
	"fmt"
	"maps"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/huangsam/discomfort/core/taxonomy"
	"github.com/huangsam/discomfort/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit     = 25
	MaxResultLimit         = 1_000_000
	DefaultPrecision       = 2
	MaxPrecision           = 4
	DefaultDedupePrecision = 3
	DefaultProgressEvery   = 1000
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// WeightsRawInput holds custom weights from the YAML config file.
// Sub weights are keyed by variant then subcomponent, main weights by mode then main component.
// Keys are matched case-insensitively since viper folds map keys to lower case.
type WeightsRawInput struct {
	Sub  map[string]map[string]float64 `mapstructure:"sub"`
	Main map[string]map[string]float64 `mapstructure:"main"`
}

// Config holds the runtime configuration for scoring and curve runs.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath       string
	Mode            schema.Mode
	Total           schema.TotalKind
	ResultLimit     int // 0 = no limit
	Workers         int
	Precision       int
	DedupePrecision int
	ProgressEvery   int
	Output          schema.OutputMode
	OutputFile      string
	Width           int // Terminal width override (0 = auto-detect)
	Detail          bool
	Explain         bool
	UseColors       bool

	Taxonomy      *taxonomy.Taxonomy // Immutable once loaded
	TaxonomyPath  string
	PathsFile     string
	DistancesFile string
	NodesFile     string
	RegionsFile   string
	CostsFile     string
	Origin        int64
	Destination   int64

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunBackend   schema.DatabaseBackend
	RunDBConnect string // Please use env var as this is plaintext

	// SubWeights is a mapping of [Variant][SubcomponentKey] = Weight, overrides only
	SubWeights map[schema.Variant]map[schema.SubcomponentKey]float64

	// MainWeights is a mapping of [Mode][MainComponentKey] = Weight, overrides only
	MainWeights map[schema.Mode]map[schema.MainComponentKey]float64
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Taxonomy        string `mapstructure:"taxonomy"`
	OutputFile      string `mapstructure:"output-file"`
	Limit           int    `mapstructure:"limit"`
	Workers         int    `mapstructure:"workers"`
	Mode            string `mapstructure:"mode"`
	Total           string `mapstructure:"total"`
	Precision       int    `mapstructure:"precision"`
	DedupePrecision int    `mapstructure:"dedupe-precision"`
	ProgressEvery   int    `mapstructure:"progress-every"`
	Output          string `mapstructure:"output"`
	Width           int    `mapstructure:"width"`
	Color           string `mapstructure:"color"`
	CacheBackend    string `mapstructure:"cache-backend"`
	CacheDBConnect  string `mapstructure:"cache-db-connect"`
	RunBackend      string `mapstructure:"run-backend"`
	RunDBConnect    string `mapstructure:"run-db-connect"`

	// --- Fields from scoreCmd.Flags() ---
	Detail  bool `mapstructure:"detail"`
	Explain bool `mapstructure:"explain"`

	// --- Fields from routeCmd.Flags() and curveCmd.Flags() ---
	Paths       string `mapstructure:"paths"`
	Distances   string `mapstructure:"distances"`
	Nodes       string `mapstructure:"nodes"`
	Regions     string `mapstructure:"regions"`
	Costs       string `mapstructure:"costs"`
	Origin      int64  `mapstructure:"origin"`
	Destination int64  `mapstructure:"destination"`

	// --- Weight overrides from flags, e.g. "CYCLE.lit=2" and "bike.security=0.5" ---
	SubWeightOverrides  []string `mapstructure:"sub-weight"`
	MainWeightOverrides []string `mapstructure:"main-weight"`

	// --- Custom weights from config file ---
	Weights WeightsRawInput `mapstructure:"weights"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.SubWeights != nil {
		clone.SubWeights = make(map[schema.Variant]map[schema.SubcomponentKey]float64, len(c.SubWeights))
		for v, byKey := range c.SubWeights {
			clone.SubWeights[v] = maps.Clone(byKey)
		}
	}
	if c.MainWeights != nil {
		clone.MainWeights = make(map[schema.Mode]map[schema.MainComponentKey]float64, len(c.MainWeights))
		for m, byKey := range c.MainWeights {
			clone.MainWeights[m] = maps.Clone(byKey)
		}
	}
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct. Weight keys are checked against tax.
func ProcessAndValidate(cfg *Config, tax *taxonomy.Taxonomy, input *ConfigRawInput) error {
	cfg.Taxonomy = tax
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processRouteInputs(cfg, input); err != nil {
		return err
	}
	return processCustomWeights(cfg, tax, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return fmt.Errorf("Redis connection string must be a redis:// or rediss:// URL")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Run Backend Validation ---
	cfg.RunBackend = schema.DatabaseBackend(strings.ToLower(input.RunBackend))
	if cfg.RunBackend == "" {
		cfg.RunBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidRunBackends[cfg.RunBackend]; !ok {
		return fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", input.RunBackend)
	}
	cfg.RunDBConnect = input.RunDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return err
	}

	// Cache and runs must not share one SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		runDBPath := cfg.RunDBConnect
		if runDBPath == "" {
			runDBPath = GetRunDBFilePath()
		}
		if cacheDBPath == runDBPath {
			return fmt.Errorf("cache and run storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.InputPath = strings.TrimSpace(input.InputPathStr)
	cfg.TaxonomyPath = strings.TrimSpace(input.Taxonomy)
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Explain = input.Explain
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Mode and Total Validation ---
	cfg.Mode = schema.Mode(strings.ToLower(input.Mode))
	if _, ok := schema.ValidModes[cfg.Mode]; !ok {
		return fmt.Errorf("invalid mode '%s'. must be bike, walk", input.Mode)
	}
	cfg.Total = schema.TotalKind(strings.ToLower(input.Total))
	if cfg.Total == "" {
		cfg.Total = schema.TotalByMain
	}
	if _, ok := schema.ValidTotalKinds[cfg.Total]; !ok {
		return fmt.Errorf("invalid total '%s'. must be main, sub", input.Total)
	}

	// --- 4. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	if input.DedupePrecision < 0 || input.DedupePrecision > 10 {
		return fmt.Errorf("dedupe-precision must be between 0 and 10 (received %d)", input.DedupePrecision)
	}
	cfg.DedupePrecision = input.DedupePrecision

	cfg.ProgressEvery = input.ProgressEvery
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet, geojson", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	return nil
}

// processRouteInputs handles the path, distance and region files.
func processRouteInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.PathsFile = strings.TrimSpace(input.Paths)
	cfg.DistancesFile = strings.TrimSpace(input.Distances)
	cfg.NodesFile = strings.TrimSpace(input.Nodes)
	cfg.RegionsFile = strings.TrimSpace(input.Regions)
	cfg.CostsFile = strings.TrimSpace(input.Costs)
	cfg.Origin = input.Origin
	cfg.Destination = input.Destination

	if cfg.DistancesFile != "" && cfg.NodesFile != "" {
		return fmt.Errorf("--distances and --nodes cannot be used together")
	}
	return nil
}

// processCustomWeights merges config file weights with flag overrides, flags winning,
// and resolves every key against the taxonomy.
func processCustomWeights(cfg *Config, tax *taxonomy.Taxonomy, input *ConfigRawInput) error {
	cfg.SubWeights = make(map[schema.Variant]map[schema.SubcomponentKey]float64)
	cfg.MainWeights = make(map[schema.Mode]map[schema.MainComponentKey]float64)

	for variantStr, byKey := range input.Weights.Sub {
		for keyStr, w := range byKey {
			if err := setSubWeight(cfg, tax, variantStr, keyStr, w); err != nil {
				return err
			}
		}
	}
	for modeStr, byKey := range input.Weights.Main {
		for keyStr, w := range byKey {
			if err := setMainWeight(cfg, tax, modeStr, keyStr, w); err != nil {
				return err
			}
		}
	}

	for _, raw := range input.SubWeightOverrides {
		scope, key, w, err := ParseWeightOverride(raw)
		if err != nil {
			return fmt.Errorf("invalid --sub-weight: %w", err)
		}
		if err := setSubWeight(cfg, tax, scope, key, w); err != nil {
			return err
		}
	}
	for _, raw := range input.MainWeightOverrides {
		scope, key, w, err := ParseWeightOverride(raw)
		if err != nil {
			return fmt.Errorf("invalid --main-weight: %w", err)
		}
		if err := setMainWeight(cfg, tax, scope, key, w); err != nil {
			return err
		}
	}
	return nil
}

func setSubWeight(cfg *Config, tax *taxonomy.Taxonomy, variantStr, keyStr string, w float64) error {
	v := schema.Variant(strings.ToUpper(strings.TrimSpace(variantStr)))
	if _, ok := schema.ValidVariants[v]; !ok {
		return fmt.Errorf("unknown variant '%s' in sub weights. must be CYCLE, DISMOUNT, WALK", variantStr)
	}
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("weight for %s.%s must be finite", v, keyStr)
	}
	key, ok := resolveSubKey(tax, v, keyStr)
	if !ok {
		return fmt.Errorf("subcomponent '%s' is not scored in variant %s", keyStr, v)
	}
	if cfg.SubWeights[v] == nil {
		cfg.SubWeights[v] = make(map[schema.SubcomponentKey]float64)
	}
	cfg.SubWeights[v][key] = w
	return nil
}

func setMainWeight(cfg *Config, tax *taxonomy.Taxonomy, modeStr, keyStr string, w float64) error {
	m := schema.Mode(strings.ToLower(strings.TrimSpace(modeStr)))
	if _, ok := schema.ValidModes[m]; !ok {
		return fmt.Errorf("unknown mode '%s' in main weights. must be bike, walk", modeStr)
	}
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("weight for %s.%s must be finite", m, keyStr)
	}
	key, ok := resolveMainKey(tax, m, keyStr)
	if !ok {
		return fmt.Errorf("main component '%s' is not defined for mode %s", keyStr, m)
	}
	if cfg.MainWeights[m] == nil {
		cfg.MainWeights[m] = make(map[schema.MainComponentKey]float64)
	}
	cfg.MainWeights[m][key] = w
	return nil
}

func resolveSubKey(tax *taxonomy.Taxonomy, v schema.Variant, s string) (schema.SubcomponentKey, bool) {
	s = strings.TrimSpace(s)
	for _, key := range tax.SubKeys(v) {
		if strings.EqualFold(string(key), s) {
			return key, true
		}
	}
	return "", false
}

func resolveMainKey(tax *taxonomy.Taxonomy, m schema.Mode, s string) (schema.MainComponentKey, bool) {
	s = strings.TrimSpace(s)
	for _, key := range tax.MainKeys(m) {
		if strings.EqualFold(string(key), s) {
			return key, true
		}
	}
	return "", false
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
}

// ParseWeightOverride parses "scope.key=weight", e.g. "CYCLE.lit=2" or "bike.security=0.5".
// The key may itself contain dots; the scope ends at the first one.
func ParseWeightOverride(s string) (scope, key string, weight float64, err error) {
	lhs, rhs, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", 0, fmt.Errorf("expected scope.key=weight, got %q", s)
	}
	scope, key, ok = strings.Cut(strings.TrimSpace(lhs), ".")
	if !ok || strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return "", "", 0, fmt.Errorf("expected scope.key=weight, got %q", s)
	}
	weight, err = strconv.ParseFloat(strings.TrimSpace(rhs), 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid weight in %q: %w", s, err)
	}
	return strings.TrimSpace(scope), strings.TrimSpace(key), weight, nil
}
