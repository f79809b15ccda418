package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/huangsam/discomfort/schema"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/rotisserie/eris"
)

func openWith[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, eris.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()
	out, err := read(f)
	if err != nil {
		return zero, eris.Wrapf(err, "parse %s", path)
	}
	return out, nil
}

// ReadPaths reads precomputed paths keyed by beta then "o, d", e.g.
// {"0.5": {"12, 34": [12, 20, 34]}}.
func ReadPaths(r io.Reader) (schema.PathResults, error) {
	var raw map[string]map[string][]int64
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(ErrInvalidInput, err.Error())
	}
	out := make(schema.PathResults, len(raw))
	for betaStr, byPair := range raw {
		beta, err := strconv.ParseFloat(strings.TrimSpace(betaStr), 64)
		if err != nil || beta < 0 {
			return nil, eris.Wrapf(ErrInvalidInput, "beta %q", betaStr)
		}
		if _, dup := out[beta]; dup {
			return nil, eris.Wrapf(ErrInvalidInput, "beta %g appears twice", beta)
		}
		paths := make(map[schema.ODPair][]int64, len(byPair))
		for key, nodes := range byPair {
			pair, err := schema.ParseODPair(key)
			if err != nil {
				return nil, eris.Wrap(ErrInvalidInput, err.Error())
			}
			paths[pair] = nodes
		}
		out[beta] = paths
	}
	return out, nil
}

// LoadPaths reads a path results file.
func LoadPaths(path string) (schema.PathResults, error) {
	return openWith(path, ReadPaths)
}

// readTable reads a headed CSV and hands each record to fn by column name.
func readTable(r io.Reader, required []string, fn func(get func(string) string) error) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return eris.Wrap(ErrInvalidInput, "empty table")
		}
		return eris.Wrap(ErrInvalidInput, err.Error())
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return eris.Wrapf(ErrInvalidInput, "missing column %q", col)
		}
	}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return eris.Wrapf(ErrInvalidInput, "line %d: %v", line, err)
		}
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		if err := fn(get); err != nil {
			return eris.Wrapf(err, "line %d", line)
		}
	}
}

func parseFloatCell(col, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(ErrInvalidInput, "%s %q", col, s)
	}
	return f, nil
}

func parsePair(get func(string) string) (schema.ODPair, error) {
	o, err := parseNode(get("origin"))
	if err != nil {
		return schema.ODPair{}, err
	}
	d, err := parseNode(get("destination"))
	if err != nil {
		return schema.ODPair{}, err
	}
	return schema.ODPair{Origin: o, Destination: d}, nil
}

// ReadDistances reads straight-line distances from origin,destination,distance rows.
func ReadDistances(r io.Reader) (schema.DistanceMap, error) {
	out := make(schema.DistanceMap)
	err := readTable(r, []string{"origin", "destination", "distance"}, func(get func(string) string) error {
		pair, err := parsePair(get)
		if err != nil {
			return err
		}
		d, err := parseFloatCell("distance", get("distance"))
		if err != nil {
			return err
		}
		out[pair] = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadDistances reads a straight-line distance file.
func LoadDistances(path string) (schema.DistanceMap, error) {
	return openWith(path, ReadDistances)
}

// ReadNodes reads node positions from id,lon,lat rows.
func ReadNodes(r io.Reader) (map[int64]orb.Point, error) {
	out := make(map[int64]orb.Point)
	err := readTable(r, []string{"id", "lon", "lat"}, func(get func(string) string) error {
		id, err := parseNode(get("id"))
		if err != nil {
			return err
		}
		lon, err := parseFloatCell("lon", get("lon"))
		if err != nil {
			return err
		}
		lat, err := parseFloatCell("lat", get("lat"))
		if err != nil {
			return err
		}
		out[id] = orb.Point{lon, lat}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadNodes reads a node position file.
func LoadNodes(path string) (map[int64]orb.Point, error) {
	return openWith(path, ReadNodes)
}

// HaversineDistances computes great-circle distances in meters for the given pairs.
func HaversineDistances(nodes map[int64]orb.Point, pairs []schema.ODPair) (schema.DistanceMap, error) {
	out := make(schema.DistanceMap, len(pairs))
	for _, pair := range pairs {
		o, ok := nodes[pair.Origin]
		if !ok {
			return nil, eris.Wrapf(ErrNodeNotFound, "origin %d", pair.Origin)
		}
		d, ok := nodes[pair.Destination]
		if !ok {
			return nil, eris.Wrapf(ErrNodeNotFound, "destination %d", pair.Destination)
		}
		out[pair] = geo.DistanceHaversine(o, d)
	}
	return out, nil
}

// ReadRegions reads origin,destination,region rows. A pair listed twice keeps the last label.
func ReadRegions(r io.Reader) (map[schema.ODPair]string, error) {
	out := make(map[schema.ODPair]string)
	err := readTable(r, []string{"origin", "destination", "region"}, func(get func(string) string) error {
		pair, err := parsePair(get)
		if err != nil {
			return err
		}
		region := get("region")
		if region == "" {
			return eris.Wrapf(ErrInvalidInput, "empty region for pair %s", pair)
		}
		out[pair] = region
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadRegions reads a region label file.
func LoadRegions(path string) (map[schema.ODPair]string, error) {
	return openWith(path, ReadRegions)
}

// ReadCosts reads precomputed segment costs from u,v,length,discomfort rows.
// Rows sharing u and v are parallel segments.
func ReadCosts(r io.Reader) (schema.SegmentCosts, error) {
	out := make(schema.SegmentCosts)
	err := readTable(r, []string{"u", "v", "length", "discomfort"}, func(get func(string) string) error {
		u, err := parseNode(get("u"))
		if err != nil {
			return err
		}
		v, err := parseNode(get("v"))
		if err != nil {
			return err
		}
		length, err := parseLength(get("length"))
		if err != nil {
			return err
		}
		discomfort, err := parseFloatCell("discomfort", get("discomfort"))
		if err != nil {
			return err
		}
		key := schema.EdgeKey{U: u, V: v}
		out[key] = append(out[key], schema.SegmentCost{Length: length, Discomfort: discomfort})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadCosts reads a segment cost file.
func LoadCosts(path string) (schema.SegmentCosts, error) {
	return openWith(path, ReadCosts)
}
