package taxonomy

import (
	"errors"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Decode reads a YAML taxonomy document and validates it.
// Unknown fields are rejected so that a misspelled formula slot cannot go unnoticed.
func Decode(r io.Reader) (*Taxonomy, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.Wrap(ErrInvalidTaxonomy, "empty document")
		}
		return nil, eris.Wrap(ErrInvalidTaxonomy, err.Error())
	}
	return New(doc)
}

// Load reads a taxonomy file. An empty path returns the built-in taxonomy.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open taxonomy %s", path)
	}
	defer func() { _ = f.Close() }()
	t, err := Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy %s", path)
	}
	return t, nil
}

// Encode writes a document as YAML, e.g. to start a custom taxonomy from the built-in one.
func Encode(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "failed to encode taxonomy")
	}
	return enc.Close()
}
