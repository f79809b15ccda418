package algo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/huangsam/discomfort/core/taxonomy"
	"github.com/huangsam/discomfort/schema"
	"github.com/rotisserie/eris"
)

// DefaultWeight is the multiplier of any weight that was never set.
const DefaultWeight = 1.0

// ErrUnknownWeightKey is returned when a weight is set for a key the taxonomy does not score.
var ErrUnknownWeightKey = eris.New("unknown weight key")

// WeightConfig is the mutable weight state of one scoring session.
// It is safe for concurrent use; scoring passes read an immutable Snapshot.
type WeightConfig struct {
	mu   sync.RWMutex
	tax  *taxonomy.Taxonomy
	sub  map[schema.Variant]map[schema.SubcomponentKey]float64
	main map[schema.Mode]map[schema.MainComponentKey]float64
}

// NewWeightConfig creates a configuration with every weight at DefaultWeight.
func NewWeightConfig(tax *taxonomy.Taxonomy) *WeightConfig {
	w := &WeightConfig{tax: tax}
	w.Reset()
	return w
}

// Reset puts every weight back to DefaultWeight. It never runs on its own.
func (w *WeightConfig) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sub = make(map[schema.Variant]map[schema.SubcomponentKey]float64, len(schema.AllVariants))
	for _, v := range schema.AllVariants {
		weights := make(map[schema.SubcomponentKey]float64)
		for _, key := range w.tax.SubKeys(v) {
			weights[key] = DefaultWeight
		}
		w.sub[v] = weights
	}
	w.main = make(map[schema.Mode]map[schema.MainComponentKey]float64, len(schema.AllModes))
	for _, m := range schema.AllModes {
		weights := make(map[schema.MainComponentKey]float64)
		for _, key := range w.tax.MainKeys(m) {
			weights[key] = DefaultWeight
		}
		w.main[m] = weights
	}
}

// SubWeight returns the weight of a subcomponent in a variant.
func (w *WeightConfig) SubWeight(v schema.Variant, key schema.SubcomponentKey) float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if weight, ok := w.sub[v][key]; ok {
		return weight
	}
	return DefaultWeight
}

// MainWeight returns the weight of a main component in a mode.
func (w *WeightConfig) MainWeight(m schema.Mode, key schema.MainComponentKey) float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if weight, ok := w.main[m][key]; ok {
		return weight
	}
	return DefaultWeight
}

// SetSubWeight updates one subcomponent weight.
func (w *WeightConfig) SetSubWeight(v schema.Variant, key schema.SubcomponentKey, weight float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	weights, ok := w.sub[v]
	if !ok {
		return eris.Wrapf(ErrUnknownWeightKey, "variant %s", v)
	}
	if _, ok := weights[key]; !ok {
		return eris.Wrapf(ErrUnknownWeightKey, "subcomponent %s is not scored for %s", key, v)
	}
	weights[key] = weight
	return nil
}

// SetMainWeight updates one main component weight.
func (w *WeightConfig) SetMainWeight(m schema.Mode, key schema.MainComponentKey, weight float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	weights, ok := w.main[m]
	if !ok {
		return eris.Wrapf(ErrUnknownWeightKey, "mode %s", m)
	}
	if _, ok := weights[key]; !ok {
		return eris.Wrapf(ErrUnknownWeightKey, "main component %s is not defined for %s", key, m)
	}
	weights[key] = weight
	return nil
}

// Apply sets many weights at once. Nothing is changed when any key is unknown.
func (w *WeightConfig) Apply(
	sub map[schema.Variant]map[schema.SubcomponentKey]float64,
	main map[schema.Mode]map[schema.MainComponentKey]float64,
) error {
	probe := NewWeightConfig(w.tax)
	for v, weights := range sub {
		for key, weight := range weights {
			if err := probe.SetSubWeight(v, key, weight); err != nil {
				return err
			}
		}
	}
	for m, weights := range main {
		for key, weight := range weights {
			if err := probe.SetMainWeight(m, key, weight); err != nil {
				return err
			}
		}
	}
	for v, weights := range sub {
		for key, weight := range weights {
			_ = w.SetSubWeight(v, key, weight)
		}
	}
	for m, weights := range main {
		for key, weight := range weights {
			_ = w.SetMainWeight(m, key, weight)
		}
	}
	return nil
}

// Snapshot returns an immutable copy of the current weights.
func (w *WeightConfig) Snapshot() *WeightSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := &WeightSnapshot{
		sub:  make(map[schema.Variant]map[schema.SubcomponentKey]float64, len(w.sub)),
		main: make(map[schema.Mode]map[schema.MainComponentKey]float64, len(w.main)),
	}
	for v, weights := range w.sub {
		s.sub[v] = maps.Clone(weights)
	}
	for m, weights := range w.main {
		s.main[m] = maps.Clone(weights)
	}
	return s
}

// WeightSnapshot is a read-only view of weights shared by all workers of one scoring pass.
type WeightSnapshot struct {
	sub  map[schema.Variant]map[schema.SubcomponentKey]float64
	main map[schema.Mode]map[schema.MainComponentKey]float64
}

// NeutralWeights returns a snapshot where every weight is DefaultWeight.
func NeutralWeights() *WeightSnapshot {
	return &WeightSnapshot{}
}

// Sub returns a subcomponent weight, DefaultWeight when absent.
func (s *WeightSnapshot) Sub(v schema.Variant, key schema.SubcomponentKey) float64 {
	if weight, ok := s.sub[v][key]; ok {
		return weight
	}
	return DefaultWeight
}

// Main returns a main component weight, DefaultWeight when absent.
func (s *WeightSnapshot) Main(m schema.Mode, key schema.MainComponentKey) float64 {
	if weight, ok := s.main[m][key]; ok {
		return weight
	}
	return DefaultWeight
}

// SubWeights returns a copy of the subcomponent weights of a variant.
func (s *WeightSnapshot) SubWeights(v schema.Variant) map[schema.SubcomponentKey]float64 {
	return maps.Clone(s.sub[v])
}

// MainWeights returns a copy of the main component weights of a mode.
func (s *WeightSnapshot) MainWeights(m schema.Mode) map[schema.MainComponentKey]float64 {
	return maps.Clone(s.main[m])
}

// Fingerprint is a stable hash of the snapshot, used in cache keys.
func (s *WeightSnapshot) Fingerprint() string {
	h := sha256.New()
	for _, v := range slices.Sorted(maps.Keys(s.sub)) {
		weights := s.sub[v]
		for _, key := range slices.Sorted(maps.Keys(weights)) {
			_, _ = fmt.Fprintf(h, "sub|%s|%s|%g\n", v, key, weights[key])
		}
	}
	for _, m := range slices.Sorted(maps.Keys(s.main)) {
		weights := s.main[m]
		for _, key := range slices.Sorted(maps.Keys(weights)) {
			_, _ = fmt.Fprintf(h, "main|%s|%s|%g\n", m, key, weights[key])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
