// Package ingest reads networks, paths and lookup tables from files.
package ingest

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huangsam/discomfort/schema"
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/rotisserie/eris"
)

// Input faults.
var (
	ErrInvalidInput = eris.New("invalid input")
	ErrNodeNotFound = eris.New("node not found")
)

// Reserved segment columns; everything else is an attribute.
const (
	colU      = "u"
	colV      = "v"
	colKey    = "key"
	colLength = "length"
	colRegion = "region"
)

// SegmentFile is a loaded network with the digest of the bytes it came from.
type SegmentFile struct {
	Path     string
	Digest   string // hex SHA-256 of the file contents
	Segments []*schema.Segment
}

// LoadSegments reads a network from a .csv, .geojson or .json file.
// Columns named in measures are parsed as numbers; all others are kept as tags.
func LoadSegments(path string, measures []string) (*SegmentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read segments %s", path)
	}
	sum := sha256.Sum256(data)
	out := &SegmentFile{Path: path, Digest: hex.EncodeToString(sum[:])}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		out.Segments, err = ReadSegmentsGeoJSON(data, measures)
	default:
		out.Segments, err = ReadSegmentsCSV(bytes.NewReader(data), measures)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "parse segments %s", path)
	}
	return out, nil
}

// MeasureSet turns a list of measure fields into the lookup ApplyAttributes expects.
func MeasureSet(measures []string) map[string]struct{} {
	set := make(map[string]struct{}, len(measures))
	for _, m := range measures {
		set[m] = struct{}{}
	}
	return set
}

// ReadSegmentsCSV reads segments from CSV with a header row holding at least u, v and length.
// Empty cells are treated as unobserved.
func ReadSegmentsCSV(r io.Reader, measures []string) ([]*schema.Segment, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.Wrap(ErrInvalidInput, "empty segment file")
		}
		return nil, eris.Wrap(ErrInvalidInput, err.Error())
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{colU, colV, colLength} {
		if _, ok := index[required]; !ok {
			return nil, eris.Wrapf(ErrInvalidInput, "missing column %q", required)
		}
	}
	numeric := MeasureSet(measures)

	var segments []*schema.Segment
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(ErrInvalidInput, "line %d: %v", line, err)
		}
		seg, err := segmentFromRecord(header, index, record, numeric)
		if err != nil {
			return nil, eris.Wrapf(err, "line %d", line)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func segmentFromRecord(header []string, index map[string]int, record []string, numeric map[string]struct{}) (*schema.Segment, error) {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	seg := &schema.Segment{Tags: map[string]string{}, Measures: map[string]float64{}}
	var err error
	if seg.ID.U, err = parseNode(cell(colU)); err != nil {
		return nil, err
	}
	if seg.ID.V, err = parseNode(cell(colV)); err != nil {
		return nil, err
	}
	if k := cell(colKey); k != "" {
		if seg.ID.Key, err = strconv.Atoi(k); err != nil {
			return nil, eris.Wrapf(ErrInvalidInput, "key %q", k)
		}
	}
	if seg.Length, err = parseLength(cell(colLength)); err != nil {
		return nil, err
	}
	seg.Region = cell(colRegion)

	for i, name := range header {
		name = strings.TrimSpace(name)
		if isReserved(name) || i >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[i])
		if value == "" {
			continue
		}
		if _, ok := numeric[name]; ok {
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, eris.Wrapf(ErrInvalidInput, "column %s: %q is not a number", name, value)
			}
			seg.Measures[name] = f
			continue
		}
		seg.Tags[name] = value
	}
	return seg, nil
}

func isReserved(name string) bool {
	switch name {
	case colU, colV, colKey, colLength, colRegion:
		return true
	}
	return false
}

func parseNode(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(ErrInvalidInput, "node id %q", s)
	}
	return n, nil
}

func parseLength(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, eris.Wrapf(ErrInvalidInput, "length %q", s)
	}
	return f, nil
}

// ReadSegmentsGeoJSON reads a FeatureCollection of LineString features whose properties carry
// u, v, key and the attributes. A missing length is measured along the line in meters.
func ReadSegmentsGeoJSON(data []byte, measures []string) ([]*schema.Segment, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrap(ErrInvalidInput, err.Error())
	}
	numeric := MeasureSet(measures)

	segments := make([]*schema.Segment, 0, len(fc.Features))
	for i, f := range fc.Features {
		seg, err := segmentFromFeature(f, numeric)
		if err != nil {
			return nil, eris.Wrapf(err, "feature %d", i)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func segmentFromFeature(f *geojson.Feature, numeric map[string]struct{}) (*schema.Segment, error) {
	if f.Geometry == nil || !f.Geometry.IsLineString() {
		return nil, eris.Wrap(ErrInvalidInput, "geometry must be a LineString")
	}
	seg := &schema.Segment{
		Tags:     map[string]string{},
		Measures: map[string]float64{},
		Geometry: f.Geometry.LineString,
	}

	var err error
	if seg.ID.U, err = propertyNode(f, colU); err != nil {
		return nil, err
	}
	if seg.ID.V, err = propertyNode(f, colV); err != nil {
		return nil, err
	}
	if _, ok := f.Properties[colKey]; ok {
		key, err := f.PropertyInt(colKey)
		if err != nil {
			return nil, eris.Wrapf(ErrInvalidInput, "key: %v", err)
		}
		seg.ID.Key = key
	}
	if raw, ok := f.Properties[colLength]; ok && raw != nil {
		if seg.Length, err = parseLength(fmt.Sprint(raw)); err != nil {
			return nil, err
		}
	} else {
		seg.Length = lineLength(f.Geometry.LineString)
	}
	if region, ok := f.Properties[colRegion].(string); ok {
		seg.Region = strings.TrimSpace(region)
	}

	if err := ApplyAttributes(seg, f.Properties, numeric); err != nil {
		return nil, err
	}
	return seg, nil
}

// ApplyAttributes copies decoded JSON attributes onto a segment. Names in numeric become
// measures and everything else a tag. Reserved names and nulls are skipped.
func ApplyAttributes(seg *schema.Segment, attrs map[string]any, numeric map[string]struct{}) error {
	if seg.Tags == nil {
		seg.Tags = map[string]string{}
	}
	if seg.Measures == nil {
		seg.Measures = map[string]float64{}
	}
	for name, raw := range attrs {
		if isReserved(name) || raw == nil {
			continue
		}
		if _, ok := numeric[name]; ok {
			v, err := asFloat(raw)
			if err != nil {
				return eris.Wrapf(ErrInvalidInput, "property %s: %v", name, err)
			}
			seg.Measures[name] = v
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(raw)); s != "" {
			seg.Tags[name] = s
		}
	}
	return nil
}

func propertyNode(f *geojson.Feature, name string) (int64, error) {
	raw, ok := f.Properties[name]
	if !ok || raw == nil {
		return 0, eris.Wrapf(ErrInvalidInput, "missing property %q", name)
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, eris.Wrapf(ErrInvalidInput, "node id %v", v)
		}
		return int64(v), nil
	case string:
		return parseNode(strings.TrimSpace(v))
	default:
		return 0, eris.Wrapf(ErrInvalidInput, "node id %v", raw)
	}
}

func asFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("%v is not a number", raw)
	}
}

func lineLength(coords [][]float64) float64 {
	line := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		if len(c) >= 2 {
			line = append(line, orb.Point{c[0], c[1]})
		}
	}
	return geo.LengthHaversine(line)
}
