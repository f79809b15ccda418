package contract

import (
	"path/filepath"
	"testing"

	"github.com/huangsam/discomfort/core/taxonomy"
	"github.com/huangsam/discomfort/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		InputPathStr:    "segments.csv",
		Limit:           10,
		Workers:         4,
		Mode:            string(schema.BikeMode),
		Total:           string(schema.TotalByMain),
		Precision:       2,
		DedupePrecision: DefaultDedupePrecision,
		Output:          "text",
		Color:           "yes",
		CacheBackend:    string(schema.SQLiteBackend),
		RunBackend:      string(schema.NoneBackend),
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "walk mode upper case", mutate: func(in *ConfigRawInput) { in.Mode = "WALK" }},
		{name: "sub total", mutate: func(in *ConfigRawInput) { in.Total = "sub" }},
		{name: "no limit", mutate: func(in *ConfigRawInput) { in.Limit = 0 }},
		{name: "invalid mode", mutate: func(in *ConfigRawInput) { in.Mode = "car" }, expectError: true},
		{name: "invalid total", mutate: func(in *ConfigRawInput) { in.Total = "both" }, expectError: true},
		{name: "invalid limit (negative)", mutate: func(in *ConfigRawInput) { in.Limit = -1 }, expectError: true},
		{name: "invalid limit (too large)", mutate: func(in *ConfigRawInput) { in.Limit = MaxResultLimit + 1 }, expectError: true},
		{name: "invalid workers (zero)", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "invalid precision (zero)", mutate: func(in *ConfigRawInput) { in.Precision = 0 }, expectError: true},
		{name: "invalid precision (too high)", mutate: func(in *ConfigRawInput) { in.Precision = MaxPrecision + 1 }, expectError: true},
		{name: "invalid dedupe precision", mutate: func(in *ConfigRawInput) { in.DedupePrecision = -1 }, expectError: true},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "parquet without file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true},
		{
			name: "parquet with file",
			mutate: func(in *ConfigRawInput) {
				in.Output = "parquet"
				in.OutputFile = "out.parquet"
			},
		},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "invalid cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "mongo" }, expectError: true},
		{name: "redis cannot track runs", mutate: func(in *ConfigRawInput) { in.RunBackend = "redis" }, expectError: true},
		{
			name: "redis cache with url",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "redis"
				in.CacheDBConnect = "redis://localhost:6379/0"
			},
		},
		{
			name: "same sqlite file for cache and runs",
			mutate: func(in *ConfigRawInput) {
				in.RunBackend = "sqlite"
				in.CacheDBConnect = "/tmp/shared.db"
				in.RunDBConnect = "/tmp/shared.db"
			},
			expectError: true,
		},
		{
			name: "distances and nodes together",
			mutate: func(in *ConfigRawInput) {
				in.Distances = "d.csv"
				in.Nodes = "n.csv"
			},
			expectError: true,
		},
		{
			name: "config file weights",
			mutate: func(in *ConfigRawInput) {
				in.Weights = WeightsRawInput{
					Sub:  map[string]map[string]float64{"cycle": {"cycleway_class": 2}},
					Main: map[string]map[string]float64{"bike": {"security": 0.5}},
				}
			},
		},
		{
			name: "config file weight for unknown key",
			mutate: func(in *ConfigRawInput) {
				in.Weights = WeightsRawInput{Sub: map[string]map[string]float64{"cycle": {"nope": 2}}}
			},
			expectError: true,
		},
		{name: "sub weight flag", mutate: func(in *ConfigRawInput) { in.SubWeightOverrides = []string{"WALK.sidewalk=3"} }},
		{name: "sub weight flag wrong variant", mutate: func(in *ConfigRawInput) { in.SubWeightOverrides = []string{"CYCLE.sidewalk=3"} }, expectError: true},
		{name: "dismount is not weightable", mutate: func(in *ConfigRawInput) { in.SubWeightOverrides = []string{"DISMOUNT.DISMOUNT=3"} }, expectError: true},
		{name: "main weight flag", mutate: func(in *ConfigRawInput) { in.MainWeightOverrides = []string{"walk.traffic_speed=0"} }},
		{name: "main weight flag unknown mode", mutate: func(in *ConfigRawInput) { in.MainWeightOverrides = []string{"car.security=1"} }, expectError: true},
		{name: "main weight flag not finite", mutate: func(in *ConfigRawInput) { in.MainWeightOverrides = []string{"bike.security=NaN"} }, expectError: true},
		{name: "malformed override", mutate: func(in *ConfigRawInput) { in.MainWeightOverrides = []string{"bike-security"} }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, taxonomy.Default(), input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProcessAndValidateValues(t *testing.T) {
	input := validInput()
	input.Mode = "Walk"
	input.ProgressEvery = 0
	input.Weights = WeightsRawInput{
		Sub: map[string]map[string]float64{"walk": {"sidewalk": 2}},
	}
	input.SubWeightOverrides = []string{"WALK.sidewalk=4", "CYCLE.from_images_greenery_ratio=0.5"}
	input.MainWeightOverrides = []string{"walk.SAFETY_OF_CROSSINGS=1.5"}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, taxonomy.Default(), input))

	assert.Equal(t, schema.WalkMode, cfg.Mode)
	assert.Equal(t, DefaultProgressEvery, cfg.ProgressEvery)
	assert.True(t, cfg.UseColors)
	assert.Equal(t, 4.0, cfg.SubWeights[schema.WalkVariant][schema.SubSidewalk], "flags win over config file")
	assert.Equal(t, 0.5, cfg.SubWeights[schema.CycleVariant][schema.SubImgGreenery])
	assert.Equal(t, 1.5, cfg.MainWeights[schema.WalkMode][schema.MainSafetyOfCrossings])
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		Mode:        schema.BikeMode,
		SubWeights:  map[schema.Variant]map[schema.SubcomponentKey]float64{schema.CycleVariant: {schema.SubLit: 2}},
		MainWeights: map[schema.Mode]map[schema.MainComponentKey]float64{schema.BikeMode: {schema.MainSecurity: 3}},
	}
	clone := cfg.Clone()
	clone.SubWeights[schema.CycleVariant][schema.SubLit] = 9
	clone.MainWeights[schema.BikeMode][schema.MainSecurity] = 9

	assert.Equal(t, 2.0, cfg.SubWeights[schema.CycleVariant][schema.SubLit])
	assert.Equal(t, 3.0, cfg.MainWeights[schema.BikeMode][schema.MainSecurity])
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"sqlite path", schema.SQLiteBackend, filepath.Join("tmp", "x.db"), false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/discomfort", false},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"mysql without tcp", schema.MySQLBackend, "user:pass@localhost/discomfort", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 dbname=discomfort", false},
		{"postgres without dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"redis valid", schema.RedisBackend, "redis://localhost:6379/0", false},
		{"redis not a url", schema.RedisBackend, "localhost:6379", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseWeightOverride(t *testing.T) {
	scope, key, w, err := ParseWeightOverride(" CYCLE.FROM_IMAGES_has_bicycle = 0.25 ")
	require.NoError(t, err)
	assert.Equal(t, "CYCLE", scope)
	assert.Equal(t, "FROM_IMAGES_has_bicycle", key)
	assert.Equal(t, 0.25, w)

	for _, bad := range []string{"", "CYCLE.lit", "CYCLE=2", ".lit=2", "CYCLE.=2", "CYCLE.lit=abc"} {
		_, _, _, err := ParseWeightOverride(bad)
		assert.Error(t, err, bad)
	}
}

// FuzzParseWeightOverride fuzzes override parsing with arbitrary flag values.
func FuzzParseWeightOverride(f *testing.F) {
	for _, seed := range []string{"CYCLE.lit=2", "bike.security=0.5", "a.b.c=1e3", "=", "x"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		scope, key, _, err := ParseWeightOverride(s)
		if err == nil {
			assert.NotEmpty(t, scope)
			assert.NotEmpty(t, key)
		}
	})
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	ProcessProfilingConfig(profile, "")
	assert.False(t, profile.Enabled)

	ProcessProfilingConfig(profile, "run1")
	assert.True(t, profile.Enabled)
	assert.Equal(t, "run1", profile.Prefix)
}
