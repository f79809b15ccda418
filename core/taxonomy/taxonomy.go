// Package taxonomy holds the catalog of discomfort subcomponents and main components.
//
// A Taxonomy is immutable once built. New validates the whole document up front so that a
// subcomponent claiming a variant it cannot score is rejected at load time instead of being
// silently scored as zero.
package taxonomy

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/discomfort/schema"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultDismountPenalty is the fixed structural penalty of the DISMOUNT variant.
const DefaultDismountPenalty = 10.0

// Formulas holds one formula slot per variant plus a fallback used by every claimed variant.
type Formulas struct {
	All      *FormulaSpec `yaml:"all,omitempty" json:"all,omitempty"`
	Cycle    *FormulaSpec `yaml:"cycle,omitempty" json:"cycle,omitempty"`
	Dismount *FormulaSpec `yaml:"dismount,omitempty" json:"dismount,omitempty"`
	Walk     *FormulaSpec `yaml:"walk,omitempty" json:"walk,omitempty"`
}

// For returns the formula used for a variant, falling back to All.
func (f Formulas) For(v schema.Variant) *FormulaSpec {
	if spec := f.slot(v); spec != nil {
		return spec
	}
	return f.All
}

func (f Formulas) slot(v schema.Variant) *FormulaSpec {
	switch v {
	case schema.CycleVariant:
		return f.Cycle
	case schema.DismountVariant:
		return f.Dismount
	case schema.WalkVariant:
		return f.Walk
	default:
		return nil
	}
}

// Subcomponent is one elementary discomfort factor.
type Subcomponent struct {
	Key         schema.SubcomponentKey `yaml:"key" json:"key" validate:"required"`
	Name        string                 `yaml:"name" json:"name" validate:"required"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
	Imagery     bool                   `yaml:"imagery,omitempty" json:"imagery,omitempty"`
	Variants    []schema.Variant       `yaml:"variants" json:"variants" validate:"required,min=1,dive,oneof=CYCLE DISMOUNT WALK"`
	Formulas    Formulas               `yaml:"formulas" json:"formulas"`
}

// Claims reports whether the subcomponent is defined for a variant.
func (s *Subcomponent) Claims(v schema.Variant) bool {
	return slices.Contains(s.Variants, v)
}

// MainComponent groups subcomponents. Members may appear in more than one main component.
type MainComponent struct {
	Key         schema.MainComponentKey  `yaml:"key" json:"key" validate:"required"`
	Name        string                   `yaml:"name" json:"name" validate:"required"`
	Description string                   `yaml:"description,omitempty" json:"description,omitempty"`
	Members     []schema.SubcomponentKey `yaml:"members" json:"members" validate:"required,min=1,dive,required"`
}

// DismountRule decides when a bike segment is scored with the DISMOUNT formulas.
type DismountRule struct {
	Field   string   `yaml:"field" json:"field" validate:"required"`
	Values  []string `yaml:"values" json:"values" validate:"required,min=1,dive,required"`
	Penalty float64  `yaml:"penalty" json:"penalty"`
}

// Document is the serializable form of a taxonomy.
type Document struct {
	Description    string                           `yaml:"description,omitempty" json:"description,omitempty"`
	Dismount       DismountRule                     `yaml:"dismount" json:"dismount"`
	Subcomponents  []Subcomponent                   `yaml:"subcomponents" json:"subcomponents" validate:"required,min=1,dive"`
	MainComponents map[schema.Mode][]MainComponent `yaml:"main_components" json:"main_components" validate:"required,dive,keys,oneof=bike walk,endkeys,min=1,dive"`
}

// Term is a compiled subcomponent formula for one variant.
type Term struct {
	Key     schema.SubcomponentKey
	Formula Formula
}

// Taxonomy is a validated, compiled Document.
type Taxonomy struct {
	doc         Document
	byKey       map[schema.SubcomponentKey]*Subcomponent
	terms       map[schema.Variant][]Term
	dismount    map[string]struct{}
	measures    []string
	fingerprint string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New validates a document and compiles its formulas.
func New(doc Document) (*Taxonomy, error) {
	if err := validate.Struct(doc); err != nil {
		return nil, eris.Wrap(ErrInvalidTaxonomy, err.Error())
	}
	doc, err := clone(doc)
	if err != nil {
		return nil, err
	}
	t := &Taxonomy{
		doc:      doc,
		byKey:    make(map[schema.SubcomponentKey]*Subcomponent, len(doc.Subcomponents)),
		terms:    make(map[schema.Variant][]Term, len(schema.AllVariants)),
		dismount: make(map[string]struct{}, len(doc.Dismount.Values)),
	}
	if t.doc.Dismount.Penalty == 0 {
		t.doc.Dismount.Penalty = DefaultDismountPenalty
	}
	for _, v := range doc.Dismount.Values {
		t.dismount[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	if err := t.compileSubcomponents(); err != nil {
		return nil, err
	}
	if err := t.checkMainComponents(); err != nil {
		return nil, err
	}
	fp, err := fingerprint(t.doc)
	if err != nil {
		return nil, err
	}
	t.fingerprint = fp
	return t, nil
}

func (t *Taxonomy) compileSubcomponents() error {
	measures := make(map[string]struct{})
	for i := range t.doc.Subcomponents {
		sub := &t.doc.Subcomponents[i]
		if sub.Key == schema.SubDismount {
			return eris.Wrapf(ErrDuplicateKey, "%s is reserved for the dismount penalty", sub.Key)
		}
		if _, ok := t.byKey[sub.Key]; ok {
			return eris.Wrapf(ErrDuplicateKey, "subcomponent %s", sub.Key)
		}
		t.byKey[sub.Key] = sub
		seen := make(map[schema.Variant]struct{}, len(sub.Variants))
		for _, v := range sub.Variants {
			if _, ok := seen[v]; ok {
				return eris.Wrapf(ErrDuplicateKey, "variant %s listed twice for %s", v, sub.Key)
			}
			seen[v] = struct{}{}
		}
		for _, v := range schema.AllVariants {
			claimed := sub.Claims(v)
			if !claimed && sub.Formulas.slot(v) != nil {
				return eris.Wrapf(ErrInvalidFormula, "%s has a %s formula but does not claim that variant", sub.Key, v)
			}
			if !claimed {
				continue
			}
			spec := sub.Formulas.For(v)
			if spec == nil {
				return eris.Wrapf(ErrMissingFormula, "%s for variant %s", sub.Key, v)
			}
			f, err := Compile(spec)
			if err != nil {
				return eris.Wrapf(err, "%s for variant %s", sub.Key, v)
			}
			for _, field := range f.MeasureFields() {
				measures[field] = struct{}{}
			}
			t.terms[v] = append(t.terms[v], Term{Key: sub.Key, Formula: f})
		}
	}
	t.measures = slices.Sorted(maps.Keys(measures))
	return nil
}

func (t *Taxonomy) checkMainComponents() error {
	for _, mode := range schema.AllModes {
		mains, ok := t.doc.MainComponents[mode]
		if !ok {
			return eris.Wrapf(ErrInvalidTaxonomy, "no main components for mode %s", mode)
		}
		keys := make(map[schema.MainComponentKey]struct{}, len(mains))
		hasDismount := false
		for _, main := range mains {
			if _, ok := keys[main.Key]; ok {
				return eris.Wrapf(ErrDuplicateKey, "main component %s in mode %s", main.Key, mode)
			}
			keys[main.Key] = struct{}{}
			for _, member := range main.Members {
				if member == schema.SubDismount {
					if mode != schema.BikeMode {
						return eris.Wrapf(ErrUnknownMember, "%s in %s main component %s", member, mode, main.Key)
					}
					hasDismount = true
					continue
				}
				if !t.appliesToMode(member, mode) {
					return eris.Wrapf(ErrUnknownMember, "%s in %s main component %s", member, mode, main.Key)
				}
			}
		}
		if mode == schema.BikeMode && !hasDismount {
			return eris.Wrapf(ErrInvalidTaxonomy, "bike main components never include %s", schema.SubDismount)
		}
	}
	return nil
}

func (t *Taxonomy) appliesToMode(key schema.SubcomponentKey, mode schema.Mode) bool {
	sub, ok := t.byKey[key]
	if !ok {
		return false
	}
	for _, v := range schema.ModeVariants[mode] {
		if sub.Claims(v) {
			return true
		}
	}
	return false
}

func fingerprint(doc Document) (string, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", eris.Wrap(err, "failed to encode taxonomy")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Description returns the free-form description of the taxonomy.
func (t *Taxonomy) Description() string { return t.doc.Description }

// Document returns a deep copy of the source document.
func (t *Taxonomy) Document() Document {
	out, _ := clone(t.doc)
	return out
}

func clone(doc Document) (Document, error) {
	var out Document
	data, err := yaml.Marshal(doc)
	if err != nil {
		return out, eris.Wrap(err, "failed to copy taxonomy")
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return out, eris.Wrap(err, "failed to copy taxonomy")
	}
	return out, nil
}

// Fingerprint is a stable hash of the taxonomy content.
func (t *Taxonomy) Fingerprint() string { return t.fingerprint }

// Dismount returns the dismount rule with its effective penalty.
func (t *Taxonomy) Dismount() DismountRule { return t.doc.Dismount }

// IsDismount reports whether a bike segment must be walked.
func (t *Taxonomy) IsDismount(seg *schema.Segment) bool {
	value := strings.ToLower(seg.Tag(t.doc.Dismount.Field))
	if value == "" {
		return false
	}
	_, ok := t.dismount[value]
	return ok
}

// VariantFor selects the formula set a segment is scored with.
func (t *Taxonomy) VariantFor(seg *schema.Segment, mode schema.Mode) (schema.Variant, error) {
	switch mode {
	case schema.WalkMode:
		return schema.WalkVariant, nil
	case schema.BikeMode:
		if t.IsDismount(seg) {
			return schema.DismountVariant, nil
		}
		return schema.CycleVariant, nil
	default:
		return "", eris.Errorf("unknown mode %q", mode)
	}
}

// Terms returns the compiled formulas of a variant in catalog order.
func (t *Taxonomy) Terms(v schema.Variant) []Term { return t.terms[v] }

// SubKeys returns the subcomponent keys scored for a variant.
func (t *Taxonomy) SubKeys(v schema.Variant) []schema.SubcomponentKey {
	terms := t.terms[v]
	keys := make([]schema.SubcomponentKey, len(terms))
	for i, term := range terms {
		keys[i] = term.Key
	}
	return keys
}

// Subcomponents returns the catalog in declaration order.
func (t *Taxonomy) Subcomponents() []Subcomponent { return slices.Clone(t.doc.Subcomponents) }

// Subcomponent looks up one subcomponent by key.
func (t *Taxonomy) Subcomponent(key schema.SubcomponentKey) (Subcomponent, bool) {
	sub, ok := t.byKey[key]
	if !ok {
		return Subcomponent{}, false
	}
	return *sub, true
}

// MainComponents returns the main components of a mode in declaration order.
func (t *Taxonomy) MainComponents(mode schema.Mode) []MainComponent {
	return slices.Clone(t.doc.MainComponents[mode])
}

// MainKeys returns the main component keys of a mode.
func (t *Taxonomy) MainKeys(mode schema.Mode) []schema.MainComponentKey {
	mains := t.doc.MainComponents[mode]
	keys := make([]schema.MainComponentKey, len(mains))
	for i, m := range mains {
		keys[i] = m.Key
	}
	return keys
}

// MeasureFields lists the continuous segment fields read by any formula.
func (t *Taxonomy) MeasureFields() []string { return slices.Clone(t.measures) }

// HasSubKey reports whether a subcomponent key is scored for a variant.
func (t *Taxonomy) HasSubKey(key schema.SubcomponentKey, v schema.Variant) bool {
	for _, term := range t.terms[v] {
		if term.Key == key {
			return true
		}
	}
	return false
}

// HasMainKey reports whether a main component exists for the mode.
func (t *Taxonomy) HasMainKey(key schema.MainComponentKey, mode schema.Mode) bool {
	return slices.Contains(t.MainKeys(mode), key)
}
