package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/discomfort/schema"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMeasures = []string{"width", "has_bicycle"}

const segmentsCSV = `u,v,key,length,region,highway,width,has_bicycle,lit
1,2,0,120.5,north,primary,6.5,,yes
2,3,1,40,south,footway,,0.4,
`

func TestReadSegmentsCSV(t *testing.T) {
	segs, err := ReadSegmentsCSV(strings.NewReader(segmentsCSV), testMeasures)
	require.NoError(t, err)
	require.Len(t, segs, 2)

	first := segs[0]
	assert.Equal(t, schema.SegmentID{U: 1, V: 2, Key: 0}, first.ID)
	assert.Equal(t, 120.5, first.Length)
	assert.Equal(t, "north", first.Region)
	assert.Equal(t, "primary", first.Tag("highway"))
	assert.Equal(t, "yes", first.Tag("lit"))
	width, ok := first.Measure("width")
	assert.True(t, ok)
	assert.Equal(t, 6.5, width)
	_, ok = first.Measure("has_bicycle")
	assert.False(t, ok, "empty cell is unobserved")

	second := segs[1]
	assert.Equal(t, 1, second.ID.Key)
	assert.Equal(t, "", second.Tag("lit"))
	bicycle, ok := second.Measure("has_bicycle")
	assert.True(t, ok)
	assert.Equal(t, 0.4, bicycle)
	_, ok = second.Tags["region"]
	assert.False(t, ok, "reserved columns are not attributes")
}

func TestReadSegmentsCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing length column", "u,v\n1,2\n"},
		{"bad node", "u,v,length\nx,2,1\n"},
		{"negative length", "u,v,length\n1,2,-1\n"},
		{"bad key", "u,v,key,length\n1,2,k,1\n"},
		{"bad measure", "u,v,length,width\n1,2,1,wide\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSegmentsCSV(strings.NewReader(tt.data), testMeasures)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

const segmentsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[121.0, 14.5], [121.001, 14.5]]},
      "properties": {"u": 10, "v": "11", "key": 2, "highway": "residential", "width": 4, "has_bicycle": true, "maxspeed": 30}
    },
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[121.001, 14.5], [121.002, 14.5]]},
      "properties": {"u": 11, "v": 12, "length": 55.5, "region": "east", "lit": null}
    }
  ]
}`

func TestReadSegmentsGeoJSON(t *testing.T) {
	segs, err := ReadSegmentsGeoJSON([]byte(segmentsGeoJSON), testMeasures)
	require.NoError(t, err)
	require.Len(t, segs, 2)

	first := segs[0]
	assert.Equal(t, schema.SegmentID{U: 10, V: 11, Key: 2}, first.ID)
	assert.InDelta(t, 107.77, first.Length, 0.5, "length measured along the line")
	assert.Equal(t, "residential", first.Tag("highway"))
	assert.Equal(t, "30", first.Tag("maxspeed"))
	bicycle, ok := first.Measure("has_bicycle")
	assert.True(t, ok)
	assert.Equal(t, 1.0, bicycle)
	assert.Len(t, first.Geometry, 2)

	second := segs[1]
	assert.Equal(t, 55.5, second.Length)
	assert.Equal(t, "east", second.Region)
	_, ok = second.Tags["lit"]
	assert.False(t, ok, "null properties are unobserved")
}

func TestReadSegmentsGeoJSONErrors(t *testing.T) {
	point := `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"u":1,"v":2}}]}`
	_, err := ReadSegmentsGeoJSON([]byte(point), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	noNode := `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[1,2],[1,3]]},"properties":{"v":2}}]}`
	_, err = ReadSegmentsGeoJSON([]byte(noNode), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ReadSegmentsGeoJSON([]byte("not json"), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestApplyAttributes(t *testing.T) {
	seg := &schema.Segment{}
	err := ApplyAttributes(seg, map[string]any{
		"highway":     "residential",
		"width":       "4.5",
		"has_bicycle": true,
		"lanes":       2.0,
		"length":      99.0,
		"note":        nil,
	}, MeasureSet(testMeasures))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"highway": "residential", "lanes": "2"}, seg.Tags)
	assert.Equal(t, map[string]float64{"width": 4.5, "has_bicycle": 1}, seg.Measures)
	assert.Zero(t, seg.Length)

	err = ApplyAttributes(&schema.Segment{}, map[string]any{"width": "wide"}, MeasureSet(testMeasures))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoadSegments(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "segments.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(segmentsCSV), 0o600))
	geoPath := filepath.Join(dir, "segments.geojson")
	require.NoError(t, os.WriteFile(geoPath, []byte(segmentsGeoJSON), 0o600))

	a, err := LoadSegments(csvPath, testMeasures)
	require.NoError(t, err)
	assert.Len(t, a.Segments, 2)
	assert.Len(t, a.Digest, 64)

	again, err := LoadSegments(csvPath, testMeasures)
	require.NoError(t, err)
	assert.Equal(t, a.Digest, again.Digest)

	b, err := LoadSegments(geoPath, testMeasures)
	require.NoError(t, err)
	assert.Len(t, b.Segments, 2)
	assert.NotEqual(t, a.Digest, b.Digest)

	_, err = LoadSegments(filepath.Join(dir, "missing.csv"), nil)
	assert.Error(t, err)
}

func TestReadPaths(t *testing.T) {
	data := `{"0.0": {"1, 3": [1, 2, 3]}, "1.5": {"1, 3": [1, 4, 3], "2,3": [2, 3]}}`
	paths, err := ReadPaths(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1.5}, paths.Betas())
	assert.Equal(t, []int64{1, 4, 3}, paths[1.5][schema.ODPair{Origin: 1, Destination: 3}])
	assert.Equal(t, []int64{2, 3}, paths[1.5][schema.ODPair{Origin: 2, Destination: 3}])

	for _, bad := range []string{
		`[]`,
		`{"x": {}}`,
		`{"-1": {}}`,
		`{"1": {"1-3": [1, 3]}}`,
		`{"1": {}, "1.0": {}}`,
	} {
		_, err := ReadPaths(strings.NewReader(bad))
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestReadDistances(t *testing.T) {
	dist, err := ReadDistances(strings.NewReader("origin,destination,distance\n1,3,250.5\n"))
	require.NoError(t, err)
	d, ok := dist.Distance(3, 1)
	assert.True(t, ok)
	assert.Equal(t, 250.5, d)

	_, err = ReadDistances(strings.NewReader("origin,destination\n1,3\n"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ReadDistances(strings.NewReader("origin,destination,distance\n1,3,far\n"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHaversineDistances(t *testing.T) {
	nodes, err := ReadNodes(strings.NewReader("id,lon,lat\n1,121.0,14.5\n2,121.001,14.5\n"))
	require.NoError(t, err)
	assert.Equal(t, orb.Point{121.0, 14.5}, nodes[1])

	pair := schema.ODPair{Origin: 1, Destination: 2}
	dist, err := HaversineDistances(nodes, []schema.ODPair{pair})
	require.NoError(t, err)
	assert.InDelta(t, 107.77, dist[pair], 0.5)

	_, err = HaversineDistances(nodes, []schema.ODPair{{Origin: 1, Destination: 9}})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestReadRegions(t *testing.T) {
	regions, err := ReadRegions(strings.NewReader("origin,destination,region\n1,3,north\n2,3,south\n1,3,west\n"))
	require.NoError(t, err)
	assert.Equal(t, "west", regions[schema.ODPair{Origin: 1, Destination: 3}])
	assert.Equal(t, "south", regions[schema.ODPair{Origin: 2, Destination: 3}])

	_, err = ReadRegions(strings.NewReader("origin,destination,region\n1,3,\n"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReadCosts(t *testing.T) {
	costs, err := ReadCosts(strings.NewReader("u,v,length,discomfort\n1,2,10,4\n1,2,12,-1\n2,3,5,0\n"))
	require.NoError(t, err)
	assert.Len(t, costs[schema.EdgeKey{U: 1, V: 2}], 2)
	assert.Equal(t, schema.SegmentCost{Length: 5, Discomfort: 0}, costs[schema.EdgeKey{U: 2, V: 3}][0])
}

func TestLoadTablesFromFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
		return p
	}

	paths, err := LoadPaths(write("paths.json", `{"1": {"1, 2": [1, 2]}}`))
	require.NoError(t, err)
	assert.Len(t, paths, 1)

	_, err = LoadDistances(write("d.csv", "origin,destination,distance\n1,2,3\n"))
	require.NoError(t, err)
	_, err = LoadNodes(write("n.csv", "id,lon,lat\n1,0,0\n"))
	require.NoError(t, err)
	_, err = LoadRegions(write("r.csv", "origin,destination,region\n1,2,a\n"))
	require.NoError(t, err)
	_, err = LoadCosts(write("c.csv", "u,v,length,discomfort\n1,2,3,4\n"))
	require.NoError(t, err)

	_, err = LoadPaths(filepath.Join(dir, "nope.json"))
	assert.Error(t, err)
}

// FuzzReadSegmentsCSV ensures arbitrary input never panics.
func FuzzReadSegmentsCSV(f *testing.F) {
	f.Add(segmentsCSV)
	f.Add("u,v,length\n1,2,3\n")
	f.Add("u,v,length,width\n1,2,,\n")
	f.Fuzz(func(t *testing.T, data string) {
		segs, err := ReadSegmentsCSV(strings.NewReader(data), testMeasures)
		if err == nil {
			for _, s := range segs {
				assert.GreaterOrEqual(t, s.Length, 0.0)
			}
		}
	})
}
