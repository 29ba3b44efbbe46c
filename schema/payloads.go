package schema

import (
	"fmt"
	"sync"

	"github.com/grovetools/ckanconsole/pkg/models"
)

// Payload names, one per host response or event shape.
const (
	PayloadInstances     = "instances"
	PayloadPackages      = "packages"
	PayloadDirectory     = "directory-selected"
	PayloadPackageDetail = "package-detail"
)

var directorySchema = []byte(`{"type": ["string", "null"]}`)

var detailSchema = []byte(`{"type": "object"}`)

// Payloads holds the compiled validators for every host payload.
type Payloads struct {
	validators map[string]*Validator
}

var (
	defaultPayloads *Payloads
	defaultErr      error
	defaultOnce     sync.Once
)

// DefaultPayloads returns the process-wide payload validators, compiling
// them on first use.
func DefaultPayloads() (*Payloads, error) {
	defaultOnce.Do(func() {
		defaultPayloads, defaultErr = NewPayloads()
	})
	return defaultPayloads, defaultErr
}

// Documents returns the JSON Schema document for every host payload,
// keyed by payload name.
func Documents() (map[string][]byte, error) {
	docs := map[string][]byte{
		PayloadDirectory:     directorySchema,
		PayloadPackageDetail: detailSchema,
	}
	reflected := map[string]any{
		PayloadInstances: []models.Instance{},
		PayloadPackages:  []models.Package{},
	}
	for name, v := range reflected {
		doc, err := Reflect(v)
		if err != nil {
			return nil, fmt.Errorf("reflect %s: %w", name, err)
		}
		docs[name] = doc
	}
	return docs, nil
}

// NewPayloads compiles validators for all host payloads.
func NewPayloads() (*Payloads, error) {
	docs, err := Documents()
	if err != nil {
		return nil, err
	}
	p := &Payloads{validators: make(map[string]*Validator, len(docs))}
	for name, doc := range docs {
		val, err := Compile(name+".json", doc)
		if err != nil {
			return nil, err
		}
		p.validators[name] = val
	}
	return p, nil
}

// Validate checks raw against the named payload schema.
func (p *Payloads) Validate(name string, raw []byte) error {
	v, ok := p.validators[name]
	if !ok {
		return fmt.Errorf("no schema registered for payload %q", name)
	}
	return v.ValidateJSON(raw)
}
